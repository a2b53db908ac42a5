package board

// Move packs a move into 16 bits: from in bits 0-5, to in bits 6-11,
// promotion piece type in bits 12-13 (0=knight .. 3=queen) and the
// move kind in bits 14-15.
type Move uint16

const (
	FlagNormal Move = iota << 14
	FlagPromotion
	FlagEnPassant
	FlagCastling
)

// NoMove is the zero move; it never encodes a legal move.
const NoMove Move = 0

// NewMove builds a normal move.
func NewMove(from, to Square) Move {
	return Move(from) | Move(to)<<6
}

// NewPromotion builds a promotion move. promo must be Knight..Queen.
func NewPromotion(from, to Square, promo PieceType) Move {
	return Move(from) | Move(to)<<6 | Move(promo-Knight)<<12 | FlagPromotion
}

// NewEnPassant builds an en passant capture.
func NewEnPassant(from, to Square) Move {
	return Move(from) | Move(to)<<6 | FlagEnPassant
}

// NewCastle builds a castling move, encoded king-from to king-to.
func NewCastle(from, to Square) Move {
	return Move(from) | Move(to)<<6 | FlagCastling
}

func (m Move) From() Square { return Square(m & 0x3F) }
func (m Move) To() Square   { return Square(m >> 6 & 0x3F) }
func (m Move) Flag() Move   { return m & 0xC000 }

// Promotion returns the promotion piece type, NoPieceType for
// non-promotion moves.
func (m Move) Promotion() PieceType {
	if m.Flag() != FlagPromotion {
		return NoPieceType
	}
	return PieceType(m>>12&3) + Knight
}

// String renders the move in long algebraic notation, e.g. "e2e4" or
// "e7e8q". NoMove renders as "0000".
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	s := m.From().String() + m.To().String()
	if p := m.Promotion(); p != NoPieceType {
		s += string("nbrq"[p-Knight])
	}
	return s
}

// MoveList is a fixed-capacity move buffer; 256 covers any legal
// position with room to spare.
type MoveList struct {
	moves [256]Move
	count int
}

func (ml *MoveList) Add(m Move)      { ml.moves[ml.count] = m; ml.count++ }
func (ml *MoveList) Len() int        { return ml.count }
func (ml *MoveList) At(i int) Move   { return ml.moves[i] }
func (ml *MoveList) Set(i int, m Move) { ml.moves[i] = m }
func (ml *MoveList) Clear()          { ml.count = 0 }

// Swap exchanges two entries, for in-place ordering.
func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
}

// Slice returns the live portion of the buffer. The slice aliases the
// list and is invalidated by Clear.
func (ml *MoveList) Slice() []Move { return ml.moves[:ml.count] }

// Undo snapshots the irreversible state MakeMove destroys, so
// UnmakeMove can restore the position bit for bit.
type Undo struct {
	Captured       Piece
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	Hash           uint64
	Checkers       Bitboard
}
