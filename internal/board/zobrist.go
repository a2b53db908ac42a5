package board

// Zobrist hashing keys. The generator is a fixed-seed xorshift64* so
// every process derives the identical key set and hashes are stable
// across runs and machines.

var (
	zobristPiece    [12][64]uint64
	zobristEPFile   [8]uint64
	zobristCastling [4]uint64
	zobristSide     uint64
)

type zobristRand uint64

func (r *zobristRand) next() uint64 {
	x := uint64(*r)
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	*r = zobristRand(x)
	return x * 0x2545F4914F6CDD1D
}

func init() {
	r := zobristRand(0x9E3779B97F4A7C15)
	for p := 0; p < 12; p++ {
		for sq := 0; sq < 64; sq++ {
			zobristPiece[p][sq] = r.next()
		}
	}
	for f := 0; f < 8; f++ {
		zobristEPFile[f] = r.next()
	}
	for c := 0; c < 4; c++ {
		zobristCastling[c] = r.next()
	}
	zobristSide = r.next()
}

func pieceKey(p Piece, sq Square) uint64 { return zobristPiece[p][sq] }

func castlingKey(cr CastlingRights) uint64 {
	var k uint64
	for i := 0; i < 4; i++ {
		if cr&(1<<i) != 0 {
			k ^= zobristCastling[i]
		}
	}
	return k
}

func epKey(sq Square) uint64 {
	if sq == NoSquare {
		return 0
	}
	return zobristEPFile[sq.File()]
}
