package board

import (
	"math/bits"
	"strings"
)

// Bitboard is a 64-bit set of squares, bit 0 = A1, bit 63 = H8.
type Bitboard uint64

const (
	FileABB Bitboard = 0x0101010101010101 << iota
	FileBBB
	FileCBB
	FileDBB
	FileEBB
	FileFBB
	FileGBB
	FileHBB
)

const (
	Rank1BB Bitboard = 0xFF << (8 * iota)
	Rank2BB
	Rank3BB
	Rank4BB
	Rank5BB
	Rank6BB
	Rank7BB
	Rank8BB
)

// FileBB and RankBB index the file/rank masks by number.
var (
	FileBB = [8]Bitboard{FileABB, FileBBB, FileCBB, FileDBB, FileEBB, FileFBB, FileGBB, FileHBB}
	RankBB = [8]Bitboard{Rank1BB, Rank2BB, Rank3BB, Rank4BB, Rank5BB, Rank6BB, Rank7BB, Rank8BB}
)

// CenterBB is d4/d5/e4/e5; ExtendedCenterBB the surrounding c3-f6 block.
const (
	CenterBB         = (FileDBB | FileEBB) & (Rank4BB | Rank5BB)
	ExtendedCenterBB = (FileCBB | FileDBB | FileEBB | FileFBB) & (Rank3BB | Rank4BB | Rank5BB | Rank6BB)
)

// SquareBB returns the bitboard with only sq set.
func SquareBB(sq Square) Bitboard { return 1 << sq }

// Has reports whether sq is in the set.
func (b Bitboard) Has(sq Square) bool { return b&(1<<sq) != 0 }

// Count returns the number of set squares.
func (b Bitboard) Count() int { return bits.OnesCount64(uint64(b)) }

// First returns the lowest set square, NoSquare when empty.
func (b Bitboard) First() Square {
	if b == 0 {
		return NoSquare
	}
	return Square(bits.TrailingZeros64(uint64(b)))
}

// Last returns the highest set square, NoSquare when empty.
func (b Bitboard) Last() Square {
	if b == 0 {
		return NoSquare
	}
	return Square(63 - bits.LeadingZeros64(uint64(b)))
}

// PopFirst removes and returns the lowest set square.
func (b *Bitboard) PopFirst() Square {
	sq := b.First()
	*b &= *b - 1
	return sq
}

// Single-step shifts. East/west shifts mask wrapped files.

func (b Bitboard) North() Bitboard     { return b << 8 }
func (b Bitboard) South() Bitboard     { return b >> 8 }
func (b Bitboard) East() Bitboard      { return (b &^ FileHBB) << 1 }
func (b Bitboard) West() Bitboard      { return (b &^ FileABB) >> 1 }
func (b Bitboard) NorthEast() Bitboard { return (b &^ FileHBB) << 9 }
func (b Bitboard) NorthWest() Bitboard { return (b &^ FileABB) << 7 }
func (b Bitboard) SouthEast() Bitboard { return (b &^ FileHBB) >> 7 }
func (b Bitboard) SouthWest() Bitboard { return (b &^ FileABB) >> 9 }

// NorthFill smears every set bit toward rank 8, inclusive.
func (b Bitboard) NorthFill() Bitboard {
	b |= b << 8
	b |= b << 16
	b |= b << 32
	return b
}

// SouthFill smears every set bit toward rank 1, inclusive.
func (b Bitboard) SouthFill() Bitboard {
	b |= b >> 8
	b |= b >> 16
	b |= b >> 32
	return b
}

// FileFill expands every set bit to its whole file.
func (b Bitboard) FileFill() Bitboard { return b.NorthFill() | b.SouthFill() }

// String renders the bitboard as an 8x8 diagram, rank 8 first.
func (b Bitboard) String() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		for file := 0; file < 8; file++ {
			if b.Has(MakeSquare(file, rank)) {
				sb.WriteByte('X')
			} else {
				sb.WriteByte('.')
			}
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
