// Package engine implements the search and evaluation core of the
// Peregrine chess engine.
package engine

import (
	"github.com/peregrine-chess/peregrine/internal/board"
)

// Material values in centipawns.
const (
	PawnValue   = 100
	KnightValue = 320
	BishopValue = 330
	RookValue   = 500
	QueenValue  = 900
	KingValue   = 20000
)

var pieceValues = [7]int{PawnValue, KnightValue, BishopValue, RookValue, QueenValue, KingValue, 0}

// Game phase runs 0 (pure endgame) to 256 (pure midgame), driven by
// the number of non-pawn, non-king pieces on the board.
const maxPhase = 256

// Passed pawn bonus indexed by relative rank of the pawn.
var passedPawnBonus = [8]int{0, 10, 20, 40, 70, 120, 200, 0}

// Pawn structure penalties.
const (
	doubledPawnMgPenalty  = -15
	doubledPawnEgPenalty  = -20
	isolatedPawnMgPenalty = -20
	isolatedPawnEgPenalty = -25
	backwardPawnMgPenalty = -15
	backwardPawnEgPenalty = -10
)

// King safety weights per attacker type.
var attackerWeight = [6]int{0, 20, 20, 40, 80, 0}

const (
	pawnShieldMissing    = -15
	openFileNearKing     = -20
	semiOpenFileNearKing = -10
	uncastledKingPenalty = -25
	pinnedPiecePenalty   = -15
	xrayThreatPenalty    = -10
)

// Tactical threat weights.
const (
	hangingPieceBonus     = 40
	favorableCaptureBonus = 15
	forkBonus             = 30
	discoveredCheckBonus  = 20
	skewerBonus           = 15
)

// Space weights per controlled square in the opponent's half.
const (
	spaceSquareBonus = 2
	spaceCenterBonus = 2
)

// Piece-square tables from White's perspective, mirrored vertically
// for Black. The king has separate midgame and endgame tables; other
// pieces share one.

var pawnPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	5, 10, 10, -20, -20, 10, 10, 5,
	5, -5, -10, 0, 0, -10, -5, 5,
	0, 0, 0, 20, 20, 0, 0, 0,
	5, 5, 10, 25, 25, 10, 5, 5,
	10, 10, 20, 30, 30, 20, 10, 10,
	50, 50, 50, 50, 50, 50, 50, 50,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var knightPST = [64]int{
	-50, -40, -30, -30, -30, -30, -40, -50,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-30, 5, 10, 15, 15, 10, 5, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 15, 20, 20, 15, 5, -30,
	-30, 0, 10, 15, 15, 10, 0, -30,
	-40, -20, 0, 0, 0, 0, -20, -40,
	-50, -40, -30, -30, -30, -30, -40, -50,
}

var bishopPST = [64]int{
	-20, -10, -10, -10, -10, -10, -10, -20,
	-10, 5, 0, 0, 0, 0, 5, -10,
	-10, 10, 10, 10, 10, 10, 10, -10,
	-10, 0, 10, 10, 10, 10, 0, -10,
	-10, 5, 5, 10, 10, 5, 5, -10,
	-10, 0, 5, 10, 10, 5, 0, -10,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-20, -10, -10, -10, -10, -10, -10, -20,
}

var rookPST = [64]int{
	0, 0, 0, 5, 5, 0, 0, 0,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	5, 10, 10, 10, 10, 10, 10, 5,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var queenPST = [64]int{
	-20, -10, -10, -5, -5, -10, -10, -20,
	-10, 0, 5, 0, 0, 0, 0, -10,
	-10, 5, 5, 5, 5, 5, 0, -10,
	0, 0, 5, 5, 5, 5, 0, -5,
	-5, 0, 5, 5, 5, 5, 0, -5,
	-10, 0, 5, 5, 5, 5, 0, -10,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-20, -10, -10, -5, -5, -10, -10, -20,
}

var kingMidgamePST = [64]int{
	20, 30, 10, 0, 0, 10, 30, 20,
	20, 20, 0, 0, 0, 0, 20, 20,
	-10, -20, -20, -20, -20, -20, -20, -10,
	-20, -30, -30, -40, -40, -30, -30, -20,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
}

var kingEndgamePST = [64]int{
	-50, -30, -30, -30, -30, -30, -30, -50,
	-30, -30, 0, 0, 0, 0, -30, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -20, -10, 0, 0, -10, -20, -30,
	-50, -40, -30, -20, -20, -30, -40, -50,
}

var psts = [...][64]int{
	pawnPST, knightPST, bishopPST, rookPST, queenPST, kingMidgamePST,
}

// Evaluator computes static position scores. It owns the pawn
// structure cache, so each engine instance evaluates independently.
type Evaluator struct {
	pawns *PawnTable
}

// NewEvaluator creates an evaluator with a pawn cache of the given
// size in MB.
func NewEvaluator(pawnTableMB int) *Evaluator {
	return &Evaluator{pawns: NewPawnTable(pawnTableMB)}
}

// Clear drops the pawn cache.
func (e *Evaluator) Clear() {
	e.pawns.Clear()
}

// Evaluate returns the static score of the position in centipawns,
// positive when the side to move is better. Dead draws score exactly
// zero regardless of material.
func (e *Evaluator) Evaluate(pos *board.Position) int {
	if pos.HalfMoveClock >= 100 || pos.InsufficientMaterial() {
		return 0
	}

	phase := gamePhase(pos)

	var mg, eg int
	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}

		m, g := materialAndPlacement(pos, c)
		mg += sign * m
		eg += sign * g

		m, g = e.pawnStructure(pos, c)
		mg += sign * m
		eg += sign * g

		mg += sign * kingSafety(pos, c)

		m, g = threats(pos, c)
		mg += sign * m
		eg += sign * g

		mg += sign * space(pos, c)
	}

	score := (mg*phase + eg*(maxPhase-phase)) / maxPhase

	if pos.SideToMove == board.Black {
		return -score
	}
	return score
}

// gamePhase scales the count of non-pawn, non-king pieces by 16 and
// caps at 256: the full starting set of 14 such pieces already pins
// the evaluation to the midgame tables.
func gamePhase(pos *board.Position) int {
	pieces := 0
	for c := board.White; c <= board.Black; c++ {
		for pt := board.Knight; pt <= board.Queen; pt++ {
			pieces += pos.Pieces[c][pt].Count()
		}
	}
	phase := pieces * 16
	if phase > maxPhase {
		phase = maxPhase
	}
	return phase
}

func materialAndPlacement(pos *board.Position, c board.Color) (mg, eg int) {
	for pt := board.Pawn; pt <= board.King; pt++ {
		for bb := pos.Pieces[c][pt]; bb != 0; {
			sq := bb.PopFirst()
			if c == board.Black {
				sq = sq.Mirror()
			}
			mg += pieceValues[pt]
			eg += pieceValues[pt]
			if pt == board.King {
				mg += kingMidgamePST[sq]
				eg += kingEndgamePST[sq]
			} else {
				mg += psts[pt][sq]
				eg += psts[pt][sq]
			}
		}
	}
	return mg, eg
}

// pawnStructure scores one side's pawns, memoized in the pawn cache.
func (e *Evaluator) pawnStructure(pos *board.Position, c board.Color) (mg, eg int) {
	pawns := pos.Pieces[c][board.Pawn]
	// The enemy pawn set feeds the passed and backward tests, so the
	// cache key folds both occupancies.
	theirPawns := pos.Pieces[c.Opponent()][board.Pawn]
	key := PawnKey(pawns, c) ^ PawnKey(theirPawns, c.Opponent())
	if mg, eg, ok := e.pawns.Probe(key); ok {
		return mg, eg
	}

	mg, eg = pawnStructureSlow(pawns, theirPawns, c)
	e.pawns.Store(key, mg, eg)
	return mg, eg
}

func pawnStructureSlow(pawns, theirPawns board.Bitboard, c board.Color) (mg, eg int) {
	for file := 0; file < 8; file++ {
		onFile := (pawns & board.FileBB[file]).Count()
		if onFile > 1 {
			mg += doubledPawnMgPenalty * (onFile - 1)
			eg += doubledPawnEgPenalty * (onFile - 1)
		}
	}

	for bb := pawns; bb != 0; {
		sq := bb.PopFirst()
		file := sq.File()

		if pawns&adjacentFiles(file) == 0 {
			mg += isolatedPawnMgPenalty
			eg += isolatedPawnEgPenalty
		} else if isBackward(pawns, theirPawns, sq, c) {
			mg += backwardPawnMgPenalty
			eg += backwardPawnEgPenalty
		}

		if isPassed(theirPawns, sq, c) {
			bonus := passedPawnBonus[sq.RelativeRank(c)]
			mg += bonus
			eg += bonus * 3 / 2
		}
	}
	return mg, eg
}

func adjacentFiles(file int) board.Bitboard {
	var bb board.Bitboard
	if file > 0 {
		bb |= board.FileBB[file-1]
	}
	if file < 7 {
		bb |= board.FileBB[file+1]
	}
	return bb
}

// frontSpan returns the squares strictly ahead of sq from c's point
// of view, on the given file mask.
func frontSpan(files board.Bitboard, sq board.Square, c board.Color) board.Bitboard {
	behind := board.RankBB[sq.Rank()].SouthFill()
	if c == board.Black {
		behind = board.RankBB[sq.Rank()].NorthFill()
	}
	return files &^ behind
}

// isPassed reports whether no enemy pawn on the same or an adjacent
// file stands at equal or greater advancement.
func isPassed(theirPawns board.Bitboard, sq board.Square, c board.Color) bool {
	files := board.FileBB[sq.File()] | adjacentFiles(sq.File())
	return theirPawns&frontSpan(files, sq, c) == 0
}

// isBackward reports whether the pawn is blocked from advancing and
// has no pawn on an adjacent file at its rank or behind to support it.
func isBackward(pawns, theirPawns board.Bitboard, sq board.Square, c board.Color) bool {
	var stop board.Square
	if c == board.White {
		stop = sq + 8
	} else {
		stop = sq - 8
	}
	if !stop.Valid() {
		return false
	}
	blocked := theirPawns.Has(stop) || board.PawnAttacks(c, stop)&theirPawns != 0
	if !blocked {
		return false
	}
	support := adjacentFiles(sq.File()) &^ frontSpan(adjacentFiles(sq.File()), sq, c)
	return pawns&support == 0
}

// kingSafety accumulates penalties around c's king; the score feeds
// the midgame term only.
func kingSafety(pos *board.Position, c board.Color) int {
	king := pos.KingSquare(c)
	them := c.Opponent()
	occ := pos.AllOccupied()
	score := 0

	// Enemy attackers bearing on the king zone, weighted by type.
	zone := board.KingAttacks(king) | board.SquareBB(king)
	for zb := zone; zb != 0; {
		sq := zb.PopFirst()
		for ab := pos.AttackersTo(sq, them, occ); ab != 0; {
			score -= attackerWeight[pos.PieceAt(ab.PopFirst()).Type()] / 2
		}
	}

	// Pawn shield: the three squares directly in front of the king.
	var shieldZone board.Bitboard
	kb := board.SquareBB(king)
	if c == board.White {
		shieldZone = kb.North() | kb.NorthEast() | kb.NorthWest()
	} else {
		shieldZone = kb.South() | kb.SouthEast() | kb.SouthWest()
	}
	missing := shieldZone.Count() - (shieldZone & pos.Pieces[c][board.Pawn]).Count()
	score += pawnShieldMissing * missing

	// Open and semi-open files on or adjacent to the king.
	allPawns := pos.Pieces[board.White][board.Pawn] | pos.Pieces[board.Black][board.Pawn]
	files := board.FileBB[king.File()] | adjacentFiles(king.File())
	for f := 0; f < 8; f++ {
		fb := board.FileBB[f]
		if fb&files == 0 {
			continue
		}
		if allPawns&fb == 0 {
			score += openFileNearKing
		} else if pos.Pieces[c][board.Pawn]&fb == 0 {
			score += semiOpenFileNearKing
		}
	}

	// Uncastled king still on its home square with rights left.
	home := board.E1
	ourRights := board.WhiteKingside | board.WhiteQueenside
	if c == board.Black {
		home = board.E8
		ourRights = board.BlackKingside | board.BlackQueenside
	}
	if king == home && pos.CastlingRights&ourRights != 0 {
		score += uncastledKingPenalty
	}

	// Pinned friendly pieces.
	score += pinnedPiecePenalty * pos.Pinned(c).Count()

	// X-ray threats: enemy sliders aligned with the king but currently
	// blocked, a skewer or discovered attack waiting to happen.
	score += xrayThreatPenalty * kingXrays(pos, king, them)

	return score
}

// kingXrays counts enemy sliders whose line to the king is blocked by
// exactly one or two pieces.
func kingXrays(pos *board.Position, king board.Square, them board.Color) int {
	occ := pos.AllOccupied()
	count := 0
	sliders := pos.Pieces[them][board.Bishop] | pos.Pieces[them][board.Rook] | pos.Pieces[them][board.Queen]
	for sb := sliders; sb != 0; {
		sq := sb.PopFirst()
		if board.Line(sq, king) == 0 {
			continue
		}
		pt := pos.PieceAt(sq).Type()
		aligned := false
		switch pt {
		case board.Bishop:
			aligned = board.BishopAttacks(sq, 0).Has(king)
		case board.Rook:
			aligned = board.RookAttacks(sq, 0).Has(king)
		case board.Queen:
			aligned = true
		}
		if !aligned {
			continue
		}
		blockers := (board.Between(sq, king) & occ).Count()
		if blockers == 1 || blockers == 2 {
			count++
		}
	}
	return count
}

// threats scores tactical motifs for side c: hanging enemy pieces,
// favorable captures, forks, skewers on undefended pieces, and
// discovered check potential. All of it runs on attack bitboards,
// never by mutating the position.
func threats(pos *board.Position, c board.Color) (mg, eg int) {
	them := c.Opponent()
	occ := pos.AllOccupied()

	ourAttacks := sideAttacks(pos, c, occ)
	theirAttacks := sideAttacks(pos, them, occ)

	// Enemy pieces we attack that have no defender hang outright;
	// defended ones still count when the cheapest attacker costs less
	// than the victim (a one-for-nothing or winning exchange).
	for bb := pos.Occupied[them] &^ pos.Pieces[them][board.King]; bb != 0; {
		sq := bb.PopFirst()
		if !ourAttacks.Has(sq) {
			continue
		}
		victim := pos.PieceAt(sq).Type()
		if !theirAttacks.Has(sq) {
			mg += hangingPieceBonus
			eg += hangingPieceBonus
			continue
		}
		if _, pt := leastValuableAttacker(pos, sq, c, occ); pt != board.NoPieceType &&
			pieceValues[pt] < pieceValues[victim] {
			mg += favorableCaptureBonus
			eg += favorableCaptureBonus
		}
	}

	// Forks: one piece attacking two or more enemy pieces worth at
	// least a minor.
	valuable := pos.Pieces[them][board.Knight] | pos.Pieces[them][board.Bishop] |
		pos.Pieces[them][board.Rook] | pos.Pieces[them][board.Queen] | pos.Pieces[them][board.King]
	for pt := board.Pawn; pt <= board.Queen; pt++ {
		for bb := pos.Pieces[c][pt]; bb != 0; {
			sq := bb.PopFirst()
			if (board.PieceAttacks(pt, c, sq, occ) & valuable).Count() >= 2 {
				mg += forkBonus
				eg += forkBonus
			}
		}
	}

	// Skewers and pins against undefended pieces: enemy pieces pinned
	// to their king count for us, doubly so when nothing defends them.
	for bb := pos.Pinned(them); bb != 0; {
		sq := bb.PopFirst()
		mg += skewerBonus
		if !theirAttacks.Has(sq) {
			mg += skewerBonus
			eg += skewerBonus
		}
	}

	// Discovered check potential: an own piece that is the sole
	// blocker between an own slider and the enemy king can unleash a
	// check by moving.
	enemyKing := pos.KingSquare(them)
	sliders := pos.Pieces[c][board.Bishop] | pos.Pieces[c][board.Rook] | pos.Pieces[c][board.Queen]
	for sb := sliders; sb != 0; {
		sq := sb.PopFirst()
		pt := pos.PieceAt(sq).Type()
		aligned := false
		switch pt {
		case board.Bishop:
			aligned = board.BishopAttacks(sq, 0).Has(enemyKing)
		case board.Rook:
			aligned = board.RookAttacks(sq, 0).Has(enemyKing)
		case board.Queen:
			aligned = board.QueenAttacks(sq, 0).Has(enemyKing)
		}
		if !aligned {
			continue
		}
		blockers := board.Between(sq, enemyKing) & occ
		if blockers.Count() == 1 && blockers&pos.Occupied[c] != 0 {
			mg += discoveredCheckBonus
		}
	}

	return mg, eg
}

// sideAttacks returns every square attacked by any piece of c.
func sideAttacks(pos *board.Position, c board.Color, occ board.Bitboard) board.Bitboard {
	var attacks board.Bitboard
	for pt := board.Pawn; pt <= board.King; pt++ {
		for bb := pos.Pieces[c][pt]; bb != 0; {
			attacks |= board.PieceAttacks(pt, c, bb.PopFirst(), occ)
		}
	}
	return attacks
}

// space counts squares in the opponent's half controlled by c's
// non-pawn pieces, center squares weighted up. Midgame term only.
func space(pos *board.Position, c board.Color) int {
	occ := pos.AllOccupied()
	half := board.Rank5BB | board.Rank6BB | board.Rank7BB | board.Rank8BB
	if c == board.Black {
		half = board.Rank1BB | board.Rank2BB | board.Rank3BB | board.Rank4BB
	}

	score := 0
	for pt := board.Knight; pt <= board.Queen; pt++ {
		for bb := pos.Pieces[c][pt]; bb != 0; {
			controlled := board.PieceAttacks(pt, c, bb.PopFirst(), occ) & half
			score += spaceSquareBonus * controlled.Count()
			score += spaceCenterBonus * (controlled & board.ExtendedCenterBB).Count()
		}
	}
	return score
}
