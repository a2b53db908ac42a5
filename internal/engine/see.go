package engine

import "github.com/peregrine-chess/peregrine/internal/board"

// SEE resolves the net material outcome of the capture sequence both
// sides can force on the destination square of m. The swap runs on
// local occupancy copies, so the position is never mutated. Returns 0
// for non-capture moves.
func SEE(pos *board.Position, m board.Move) int {
	to := m.To()
	from := m.From()

	var firstGain int
	switch m.Flag() {
	case board.FlagEnPassant:
		firstGain = pieceValues[board.Pawn]
	default:
		victim := pos.PieceAt(to)
		if victim == board.NoPiece {
			return 0
		}
		firstGain = pieceValues[victim.Type()]
	}

	attacker := pos.PieceAt(from).Type()
	occ := pos.AllOccupied() &^ board.SquareBB(from)
	if m.Flag() == board.FlagEnPassant {
		occ &^= board.SquareBB(board.MakeSquare(to.File(), from.Rank()))
	}

	// gain[i] is the running balance after the i-th capture in the
	// sequence, before the fold.
	var gain [32]int
	gain[0] = firstGain

	side := pos.SideToMove.Opponent()
	onSquare := attacker
	depth := 1

	for {
		sq, pt := leastValuableAttacker(pos, to, side, occ)
		if sq == board.NoSquare {
			break
		}
		gain[depth] = pieceValues[onSquare] - gain[depth-1]
		// Once the capture is outright losing even before any
		// recapture, neither side continues.
		if max(-gain[depth-1], gain[depth]) < 0 {
			break
		}
		occ &^= board.SquareBB(sq)
		onSquare = pt
		side = side.Opponent()
		depth++
		if depth >= len(gain) {
			break
		}
	}

	// Fold back to front: at every step the side to move may decline
	// to recapture.
	for depth--; depth > 0; depth-- {
		if -gain[depth] < gain[depth-1] {
			gain[depth-1] = -gain[depth]
		}
	}
	return gain[0]
}

// leastValuableAttacker finds the cheapest piece of the given color
// attacking the target square over occ. Pieces removed from occ are
// skipped, which lets sliders x-ray through captured attackers.
func leastValuableAttacker(pos *board.Position, target board.Square, side board.Color, occ board.Bitboard) (board.Square, board.PieceType) {
	for pt := board.Pawn; pt <= board.King; pt++ {
		// For pawns, the squares from which a pawn of side attacks
		// target are the reverse-color pawn attacks from target; the
		// color argument is ignored for every other piece type.
		attackers := board.PieceAttacks(pt, side.Opponent(), target, occ) & pos.Pieces[side][pt] & occ
		if attackers != 0 {
			return attackers.First(), pt
		}
	}
	return board.NoSquare, board.NoPieceType
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
