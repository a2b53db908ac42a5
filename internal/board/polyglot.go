package board

// Polyglot hashing for opening book lookups. The key set is kept
// separate from the search Zobrist keys so the two schemes stay
// independent.
//
// Polyglot orders pieces bp, bn, bb, br, bq, bk, wp, wn, wb, wr, wq,
// wk and hashes the en passant file only when a capture is possible.

var (
	polyglotPiece  [12][64]uint64
	polyglotCastle [4]uint64
	polyglotEP     [8]uint64
	polyglotTurn   uint64
)

func init() {
	r := zobristRand(0x37B4A4B3F0D1C0D0)
	for p := 0; p < 12; p++ {
		for sq := 0; sq < 64; sq++ {
			polyglotPiece[p][sq] = r.next()
		}
	}
	for i := 0; i < 4; i++ {
		polyglotCastle[i] = r.next()
	}
	for f := 0; f < 8; f++ {
		polyglotEP[f] = r.next()
	}
	polyglotTurn = r.next()
}

// polyglotKind[color][type] maps to the Polyglot piece ordering.
var polyglotKind = [2][6]int{
	{6, 7, 8, 9, 10, 11},
	{0, 1, 2, 3, 4, 5},
}

// PolyglotHash computes the book key for the position.
func (p *Position) PolyglotHash() uint64 {
	var h uint64
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			for bb := p.Pieces[c][pt]; bb != 0; {
				h ^= polyglotPiece[polyglotKind[c][pt]][bb.PopFirst()]
			}
		}
	}
	if p.CastlingRights&WhiteKingside != 0 {
		h ^= polyglotCastle[0]
	}
	if p.CastlingRights&WhiteQueenside != 0 {
		h ^= polyglotCastle[1]
	}
	if p.CastlingRights&BlackKingside != 0 {
		h ^= polyglotCastle[2]
	}
	if p.CastlingRights&BlackQueenside != 0 {
		h ^= polyglotCastle[3]
	}
	// EnPassant is only ever set when a capture is possible, so no
	// extra adjacency test is needed here.
	if p.EnPassant != NoSquare {
		h ^= polyglotEP[p.EnPassant.File()]
	}
	if p.SideToMove == White {
		h ^= polyglotTurn
	}
	return h
}
