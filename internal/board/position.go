package board

// CastlingRights is a bit set of the four castling permissions.
type CastlingRights uint8

const (
	WhiteKingside CastlingRights = 1 << iota
	WhiteQueenside
	BlackKingside
	BlackQueenside
	AllCastling = WhiteKingside | WhiteQueenside | BlackKingside | BlackQueenside
)

// castlingMask[sq] holds the rights that survive a piece moving to or
// from sq. Touching a rook home square or a king home square clears
// the matching rights.
var castlingMask = func() [64]CastlingRights {
	var m [64]CastlingRights
	for sq := A1; sq <= H8; sq++ {
		m[sq] = AllCastling
	}
	m[A1] &^= WhiteQueenside
	m[H1] &^= WhiteKingside
	m[E1] &^= WhiteKingside | WhiteQueenside
	m[A8] &^= BlackQueenside
	m[H8] &^= BlackKingside
	m[E8] &^= BlackKingside | BlackQueenside
	return m
}()

// Position is a full chess position. Piece placement lives in the
// per-color per-type bitboards plus a redundant mailbox for O(1)
// piece lookup; both are kept in sync by MakeMove/UnmakeMove.
type Position struct {
	Pieces   [2][6]Bitboard
	Occupied [2]Bitboard
	board    [64]Piece

	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	FullMoveNumber int

	Hash     uint64
	Checkers Bitboard
}

// NewPosition returns the standard starting position.
func NewPosition() *Position {
	p, _ := ParseFEN(StartFEN)
	return p
}

// Copy returns an independent copy of the position.
func (p *Position) Copy() *Position {
	q := *p
	return &q
}

// AllOccupied returns the union occupancy.
func (p *Position) AllOccupied() Bitboard { return p.Occupied[White] | p.Occupied[Black] }

// PieceAt returns the piece on sq, NoPiece for an empty square.
func (p *Position) PieceAt(sq Square) Piece { return p.board[sq] }

// KingSquare returns the king square of color c.
func (p *Position) KingSquare(c Color) Square { return p.Pieces[c][King].First() }

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool { return p.Checkers != 0 }

func (p *Position) putPiece(pc Piece, sq Square) {
	b := SquareBB(sq)
	p.Pieces[pc.Color()][pc.Type()] |= b
	p.Occupied[pc.Color()] |= b
	p.board[sq] = pc
	p.Hash ^= pieceKey(pc, sq)
}

func (p *Position) removePiece(pc Piece, sq Square) {
	b := SquareBB(sq)
	p.Pieces[pc.Color()][pc.Type()] &^= b
	p.Occupied[pc.Color()] &^= b
	p.board[sq] = NoPiece
	p.Hash ^= pieceKey(pc, sq)
}

func (p *Position) movePiece(pc Piece, from, to Square) {
	b := SquareBB(from) | SquareBB(to)
	p.Pieces[pc.Color()][pc.Type()] ^= b
	p.Occupied[pc.Color()] ^= b
	p.board[from] = NoPiece
	p.board[to] = pc
	p.Hash ^= pieceKey(pc, from) ^ pieceKey(pc, to)
}

// AttackersTo returns all pieces of color c attacking sq over the
// given occupancy.
func (p *Position) AttackersTo(sq Square, c Color, occ Bitboard) Bitboard {
	return PawnAttacks(c.Opponent(), sq)&p.Pieces[c][Pawn] |
		KnightAttacks(sq)&p.Pieces[c][Knight] |
		BishopAttacks(sq, occ)&(p.Pieces[c][Bishop]|p.Pieces[c][Queen]) |
		RookAttacks(sq, occ)&(p.Pieces[c][Rook]|p.Pieces[c][Queen]) |
		KingAttacks(sq)&p.Pieces[c][King]
}

// Attackers returns all pieces of either color attacking sq over occ.
func (p *Position) Attackers(sq Square, occ Bitboard) Bitboard {
	return p.AttackersTo(sq, White, occ) | p.AttackersTo(sq, Black, occ)
}

// IsAttacked reports whether sq is attacked by color c.
func (p *Position) IsAttacked(sq Square, c Color) bool {
	return p.AttackersTo(sq, c, p.AllOccupied()) != 0
}

func (p *Position) computeCheckers() Bitboard {
	king := p.KingSquare(p.SideToMove)
	if king == NoSquare {
		return 0
	}
	return p.AttackersTo(king, p.SideToMove.Opponent(), p.AllOccupied())
}

// Pinned returns the pieces of color c absolutely pinned to their
// own king.
func (p *Position) Pinned(c Color) Bitboard {
	king := p.KingSquare(c)
	if king == NoSquare {
		return 0
	}
	them := c.Opponent()
	occ := p.AllOccupied()
	var pinned Bitboard

	snipers := RookAttacks(king, p.Occupied[them])&(p.Pieces[them][Rook]|p.Pieces[them][Queen]) |
		BishopAttacks(king, p.Occupied[them])&(p.Pieces[them][Bishop]|p.Pieces[them][Queen])
	for snipers != 0 {
		sniper := snipers.PopFirst()
		blockers := Between(king, sniper) & occ
		if blockers.Count() == 1 && blockers&p.Occupied[c] != 0 {
			pinned |= blockers
		}
	}
	return pinned
}

// MakeMove applies m, which must be pseudo-legal, and returns the
// snapshot needed to take it back. The caller is responsible for
// rejecting moves that leave its own king in check.
func (p *Position) MakeMove(m Move) Undo {
	u := Undo{
		CastlingRights: p.CastlingRights,
		EnPassant:      p.EnPassant,
		HalfMoveClock:  p.HalfMoveClock,
		Hash:           p.Hash,
		Checkers:       p.Checkers,
		Captured:       NoPiece,
	}

	us := p.SideToMove
	them := us.Opponent()
	from, to := m.From(), m.To()
	moving := p.board[from]

	p.Hash ^= epKey(p.EnPassant)
	p.EnPassant = NoSquare
	p.HalfMoveClock++

	switch m.Flag() {
	case FlagCastling:
		// Encoded king-from to king-to; move the rook alongside.
		p.movePiece(moving, from, to)
		rook := MakePiece(Rook, us)
		switch to {
		case G1:
			p.movePiece(rook, H1, F1)
		case C1:
			p.movePiece(rook, A1, D1)
		case G8:
			p.movePiece(rook, H8, F8)
		case C8:
			p.movePiece(rook, A8, D8)
		}

	case FlagEnPassant:
		capSq := MakeSquare(to.File(), from.Rank())
		u.Captured = p.board[capSq]
		p.removePiece(u.Captured, capSq)
		p.movePiece(moving, from, to)
		p.HalfMoveClock = 0

	case FlagPromotion:
		if cap := p.board[to]; cap != NoPiece {
			u.Captured = cap
			p.removePiece(cap, to)
		}
		p.removePiece(moving, from)
		p.putPiece(MakePiece(m.Promotion(), us), to)
		p.HalfMoveClock = 0

	default:
		if cap := p.board[to]; cap != NoPiece {
			u.Captured = cap
			p.removePiece(cap, to)
			p.HalfMoveClock = 0
		}
		p.movePiece(moving, from, to)
		if moving.Type() == Pawn {
			p.HalfMoveClock = 0
			if to-from == 16 || from-to == 16 {
				ep := (from + to) / 2
				// Only publish the ep square when a capture is possible.
				if PawnAttacks(us, ep)&p.Pieces[them][Pawn] != 0 {
					p.EnPassant = ep
					p.Hash ^= epKey(ep)
				}
			}
		}
	}

	newRights := p.CastlingRights & castlingMask[from] & castlingMask[to]
	if newRights != p.CastlingRights {
		p.Hash ^= castlingKey(p.CastlingRights) ^ castlingKey(newRights)
		p.CastlingRights = newRights
	}

	if us == Black {
		p.FullMoveNumber++
	}
	p.SideToMove = them
	p.Hash ^= zobristSide
	p.Checkers = p.computeCheckers()
	return u
}

// UnmakeMove reverses m using the snapshot from the matching MakeMove.
func (p *Position) UnmakeMove(m Move, u Undo) {
	them := p.SideToMove
	us := them.Opponent()
	from, to := m.From(), m.To()

	p.SideToMove = us
	if us == Black {
		p.FullMoveNumber--
	}

	switch m.Flag() {
	case FlagCastling:
		p.movePiece(p.board[to], to, from)
		rook := MakePiece(Rook, us)
		switch to {
		case G1:
			p.movePiece(rook, F1, H1)
		case C1:
			p.movePiece(rook, D1, A1)
		case G8:
			p.movePiece(rook, F8, H8)
		case C8:
			p.movePiece(rook, D8, A8)
		}

	case FlagEnPassant:
		p.movePiece(p.board[to], to, from)
		p.putPiece(u.Captured, MakeSquare(to.File(), from.Rank()))

	case FlagPromotion:
		p.removePiece(p.board[to], to)
		p.putPiece(MakePiece(Pawn, us), from)
		if u.Captured != NoPiece {
			p.putPiece(u.Captured, to)
		}

	default:
		p.movePiece(p.board[to], to, from)
		if u.Captured != NoPiece {
			p.putPiece(u.Captured, to)
		}
	}

	p.CastlingRights = u.CastlingRights
	p.EnPassant = u.EnPassant
	p.HalfMoveClock = u.HalfMoveClock
	p.Hash = u.Hash
	p.Checkers = u.Checkers
}

// MakeNullMove passes the turn without moving. Only legal when the
// side to move is not in check.
func (p *Position) MakeNullMove() Undo {
	u := Undo{
		CastlingRights: p.CastlingRights,
		EnPassant:      p.EnPassant,
		HalfMoveClock:  p.HalfMoveClock,
		Hash:           p.Hash,
		Checkers:       p.Checkers,
		Captured:       NoPiece,
	}
	p.Hash ^= epKey(p.EnPassant)
	p.EnPassant = NoSquare
	p.HalfMoveClock++
	p.SideToMove = p.SideToMove.Opponent()
	p.Hash ^= zobristSide
	p.Checkers = 0
	return u
}

// UnmakeNullMove reverses MakeNullMove.
func (p *Position) UnmakeNullMove(u Undo) {
	p.SideToMove = p.SideToMove.Opponent()
	p.CastlingRights = u.CastlingRights
	p.EnPassant = u.EnPassant
	p.HalfMoveClock = u.HalfMoveClock
	p.Hash = u.Hash
	p.Checkers = u.Checkers
}

// HasNonPawnMaterial reports whether the side to move has any piece
// besides pawns and the king. Null-move pruning is unsound without it.
func (p *Position) HasNonPawnMaterial() bool {
	us := p.SideToMove
	return p.Occupied[us]&^p.Pieces[us][Pawn]&^p.Pieces[us][King] != 0
}

// String renders the board as an 8x8 diagram, rank 8 first, for
// debugging output.
func (p *Position) String() string {
	buf := make([]byte, 0, 64*2+8)
	for rank := 7; rank >= 0; rank-- {
		for file := 0; file < 8; file++ {
			pc := p.board[MakeSquare(file, rank)]
			if pc == NoPiece {
				buf = append(buf, '.')
			} else {
				buf = append(buf, pc.String()[0])
			}
			buf = append(buf, ' ')
		}
		buf = append(buf, '\n')
	}
	return string(buf)
}

// InsufficientMaterial reports the dead positions FIDE declares drawn
// by material alone: bare kings, king+minor vs king, and king+bishop
// vs king+bishop with both bishops on the same color complex.
func (p *Position) InsufficientMaterial() bool {
	if p.Pieces[White][Pawn]|p.Pieces[Black][Pawn] != 0 {
		return false
	}
	if p.Pieces[White][Rook]|p.Pieces[Black][Rook]|p.Pieces[White][Queen]|p.Pieces[Black][Queen] != 0 {
		return false
	}
	minors := p.Pieces[White][Knight] | p.Pieces[White][Bishop] | p.Pieces[Black][Knight] | p.Pieces[Black][Bishop]
	switch minors.Count() {
	case 0, 1:
		return true
	case 2:
		bishops := p.Pieces[White][Bishop] | p.Pieces[Black][Bishop]
		if bishops != minors {
			return false
		}
		const dark = Bitboard(0xAA55AA55AA55AA55)
		return bishops&dark == 0 || bishops&^dark == 0
	}
	return false
}
