package board

// Precomputed attack tables for leapers and the ray machinery the
// sliders use. Everything here is filled in at init time from the
// single-step shifts in bitboard.go.

var (
	knightAttacks [64]Bitboard
	kingAttacks   [64]Bitboard
	pawnAttacks   [2][64]Bitboard

	// rayAttacks[dir][sq] is the open-board ray from sq in dir,
	// excluding sq itself.
	rayAttacks [8][64]Bitboard

	// betweenBB[a][b] is the open segment strictly between a and b
	// when they share a rank, file or diagonal, else 0.
	betweenBB [64][64]Bitboard

	// lineBB[a][b] is the full line through a and b (both included)
	// when aligned, else 0.
	lineBB [64][64]Bitboard
)

// Ray directions, indexed into rayAttacks. Positive directions shift
// toward higher square numbers.
const (
	dirNorth = iota
	dirSouth
	dirEast
	dirWest
	dirNorthEast
	dirNorthWest
	dirSouthEast
	dirSouthWest
)

var dirShift = [8]func(Bitboard) Bitboard{
	Bitboard.North, Bitboard.South, Bitboard.East, Bitboard.West,
	Bitboard.NorthEast, Bitboard.NorthWest, Bitboard.SouthEast, Bitboard.SouthWest,
}

func init() {
	for sq := A1; sq <= H8; sq++ {
		b := SquareBB(sq)

		n := b.North()
		s := b.South()
		knightAttacks[sq] = n.NorthEast() | n.NorthWest() |
			s.SouthEast() | s.SouthWest() |
			b.East().NorthEast() | b.East().SouthEast() |
			b.West().NorthWest() | b.West().SouthWest()

		kingAttacks[sq] = b.North() | b.South() | b.East() | b.West() |
			b.NorthEast() | b.NorthWest() | b.SouthEast() | b.SouthWest()

		pawnAttacks[White][sq] = b.NorthEast() | b.NorthWest()
		pawnAttacks[Black][sq] = b.SouthEast() | b.SouthWest()

		for dir := 0; dir < 8; dir++ {
			ray := Bitboard(0)
			for step := dirShift[dir](b); step != 0; step = dirShift[dir](step) {
				ray |= step
			}
			rayAttacks[dir][sq] = ray
		}
	}

	for a := A1; a <= H8; a++ {
		for dir := 0; dir < 8; dir++ {
			ray := rayAttacks[dir][a]
			for r := ray; r != 0; {
				b := r.PopFirst()
				betweenBB[a][b] = ray &^ rayAttacks[dir][b] &^ SquareBB(b)
				lineBB[a][b] = (ray | rayAttacks[opposite(dir)][a] | SquareBB(a)) & (rayAttacks[opposite(dir)][b] | rayAttacks[dir][b] | SquareBB(b))
			}
		}
	}
}

func opposite(dir int) int {
	switch dir {
	case dirNorth:
		return dirSouth
	case dirSouth:
		return dirNorth
	case dirEast:
		return dirWest
	case dirWest:
		return dirEast
	case dirNorthEast:
		return dirSouthWest
	case dirNorthWest:
		return dirSouthEast
	case dirSouthEast:
		return dirNorthWest
	default:
		return dirNorthEast
	}
}

// KnightAttacks returns the squares a knight on sq attacks.
func KnightAttacks(sq Square) Bitboard { return knightAttacks[sq] }

// KingAttacks returns the squares a king on sq attacks.
func KingAttacks(sq Square) Bitboard { return kingAttacks[sq] }

// PawnAttacks returns the squares a pawn of color c on sq attacks.
func PawnAttacks(c Color, sq Square) Bitboard { return pawnAttacks[c][sq] }

// Between returns the open segment strictly between a and b, or 0 when
// they are not aligned.
func Between(a, b Square) Bitboard { return betweenBB[a][b] }

// Line returns the full rank, file or diagonal through a and b, or 0
// when they are not aligned.
func Line(a, b Square) Bitboard { return lineBB[a][b] }

func positiveRay(dir int, sq Square, occ Bitboard) Bitboard {
	attacks := rayAttacks[dir][sq]
	blockers := attacks & occ
	if blockers != 0 {
		attacks &^= rayAttacks[dir][blockers.First()]
	}
	return attacks
}

func negativeRay(dir int, sq Square, occ Bitboard) Bitboard {
	attacks := rayAttacks[dir][sq]
	blockers := attacks & occ
	if blockers != 0 {
		attacks &^= rayAttacks[dir][blockers.Last()]
	}
	return attacks
}

// RookAttacks returns rook attacks from sq given the occupancy occ.
func RookAttacks(sq Square, occ Bitboard) Bitboard {
	return positiveRay(dirNorth, sq, occ) |
		positiveRay(dirEast, sq, occ) |
		negativeRay(dirSouth, sq, occ) |
		negativeRay(dirWest, sq, occ)
}

// BishopAttacks returns bishop attacks from sq given the occupancy occ.
func BishopAttacks(sq Square, occ Bitboard) Bitboard {
	return positiveRay(dirNorthEast, sq, occ) |
		positiveRay(dirNorthWest, sq, occ) |
		negativeRay(dirSouthEast, sq, occ) |
		negativeRay(dirSouthWest, sq, occ)
}

// QueenAttacks returns queen attacks from sq given the occupancy occ.
func QueenAttacks(sq Square, occ Bitboard) Bitboard {
	return RookAttacks(sq, occ) | BishopAttacks(sq, occ)
}

// PieceAttacks returns the attack set of a piece of type pt and color c
// on sq over occupancy occ.
func PieceAttacks(pt PieceType, c Color, sq Square, occ Bitboard) Bitboard {
	switch pt {
	case Pawn:
		return pawnAttacks[c][sq]
	case Knight:
		return knightAttacks[sq]
	case Bishop:
		return BishopAttacks(sq, occ)
	case Rook:
		return RookAttacks(sq, occ)
	case Queen:
		return QueenAttacks(sq, occ)
	case King:
		return kingAttacks[sq]
	}
	return 0
}
