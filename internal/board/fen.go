package board

import (
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the standard chess starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ParseFEN builds a position from a FEN string. The halfmove clock and
// fullmove number fields may be omitted and default to 0 and 1.
func ParseFEN(fen string) (*Position, error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 {
		return nil, fmt.Errorf("board: fen %q: need at least 4 fields, got %d", fen, len(fields))
	}

	p := &Position{EnPassant: NoSquare}
	for i := range p.board {
		p.board[i] = NoPiece
	}

	rank, file := 7, 0
	for _, ch := range []byte(fields[0]) {
		switch {
		case ch == '/':
			if file != 8 {
				return nil, fmt.Errorf("board: fen %q: rank %d has %d files", fen, rank+1, file)
			}
			rank--
			file = 0
		case ch >= '1' && ch <= '8':
			file += int(ch - '0')
		default:
			pc := PieceFromChar(ch)
			if pc == NoPiece {
				return nil, fmt.Errorf("board: fen %q: bad piece %q", fen, ch)
			}
			if file > 7 || rank < 0 {
				return nil, fmt.Errorf("board: fen %q: placement overflows board", fen)
			}
			p.putPiece(pc, MakeSquare(file, rank))
			file++
		}
	}
	if rank != 0 || file != 8 {
		return nil, fmt.Errorf("board: fen %q: placement covers %d ranks", fen, 8-rank)
	}

	switch fields[1] {
	case "w":
		p.SideToMove = White
	case "b":
		p.SideToMove = Black
	default:
		return nil, fmt.Errorf("board: fen %q: bad side %q", fen, fields[1])
	}

	if fields[2] != "-" {
		for _, ch := range fields[2] {
			switch ch {
			case 'K':
				p.CastlingRights |= WhiteKingside
			case 'Q':
				p.CastlingRights |= WhiteQueenside
			case 'k':
				p.CastlingRights |= BlackKingside
			case 'q':
				p.CastlingRights |= BlackQueenside
			default:
				return nil, fmt.Errorf("board: fen %q: bad castling %q", fen, fields[2])
			}
		}
	}

	if fields[3] != "-" {
		sq, err := ParseSquare(fields[3])
		if err != nil {
			return nil, fmt.Errorf("board: fen %q: %w", fen, err)
		}
		// Keep the square only when a capture is actually possible so
		// hashes stay consistent with positions reached by MakeMove.
		them := p.SideToMove.Opponent()
		if PawnAttacks(them, sq)&p.Pieces[p.SideToMove][Pawn] != 0 {
			p.EnPassant = sq
		}
	}

	p.HalfMoveClock = 0
	p.FullMoveNumber = 1
	if len(fields) > 4 {
		n, err := strconv.Atoi(fields[4])
		if err != nil || n < 0 {
			return nil, fmt.Errorf("board: fen %q: bad halfmove clock %q", fen, fields[4])
		}
		p.HalfMoveClock = n
	}
	if len(fields) > 5 {
		n, err := strconv.Atoi(fields[5])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("board: fen %q: bad fullmove number %q", fen, fields[5])
		}
		p.FullMoveNumber = n
	}

	if p.Pieces[White][King].Count() != 1 || p.Pieces[Black][King].Count() != 1 {
		return nil, fmt.Errorf("board: fen %q: each side needs exactly one king", fen)
	}

	p.Hash = p.ComputeHash()
	p.Checkers = p.computeCheckers()
	return p, nil
}

// FEN renders the position as a FEN string.
func (p *Position) FEN() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			pc := p.board[MakeSquare(file, rank)]
			if pc == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(pc.String())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	if p.SideToMove == White {
		sb.WriteString(" w ")
	} else {
		sb.WriteString(" b ")
	}

	if p.CastlingRights == 0 {
		sb.WriteByte('-')
	} else {
		if p.CastlingRights&WhiteKingside != 0 {
			sb.WriteByte('K')
		}
		if p.CastlingRights&WhiteQueenside != 0 {
			sb.WriteByte('Q')
		}
		if p.CastlingRights&BlackKingside != 0 {
			sb.WriteByte('k')
		}
		if p.CastlingRights&BlackQueenside != 0 {
			sb.WriteByte('q')
		}
	}

	sb.WriteByte(' ')
	sb.WriteString(p.EnPassant.String())
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.HalfMoveClock))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.FullMoveNumber))
	return sb.String()
}

// ComputeHash recalculates the Zobrist hash from scratch. MakeMove
// maintains the hash incrementally; this is the reference value.
func (p *Position) ComputeHash() uint64 {
	var h uint64
	for sq := A1; sq <= H8; sq++ {
		if pc := p.board[sq]; pc != NoPiece {
			h ^= pieceKey(pc, sq)
		}
	}
	h ^= castlingKey(p.CastlingRights)
	h ^= epKey(p.EnPassant)
	if p.SideToMove == Black {
		h ^= zobristSide
	}
	return h
}

// ParseMove interprets a long-algebraic move string ("e2e4", "e7e8q")
// against the position, resolving the castling and en passant flags.
func (p *Position) ParseMove(s string) (Move, error) {
	if len(s) < 4 || len(s) > 5 {
		return NoMove, fmt.Errorf("board: bad move %q", s)
	}
	from, err := ParseSquare(s[:2])
	if err != nil {
		return NoMove, fmt.Errorf("board: bad move %q: %w", s, err)
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, fmt.Errorf("board: bad move %q: %w", s, err)
	}

	var m Move
	switch {
	case len(s) == 5:
		var promo PieceType
		switch s[4] {
		case 'n':
			promo = Knight
		case 'b':
			promo = Bishop
		case 'r':
			promo = Rook
		case 'q':
			promo = Queen
		default:
			return NoMove, fmt.Errorf("board: bad promotion in %q", s)
		}
		m = NewPromotion(from, to, promo)
	case p.board[from].Type() == King && (to-from == 2 || from-to == 2):
		m = NewCastle(from, to)
	case p.board[from].Type() == Pawn && to == p.EnPassant:
		m = NewEnPassant(from, to)
	default:
		m = NewMove(from, to)
	}

	legal := p.LegalMoves()
	for i := 0; i < legal.Len(); i++ {
		if legal.At(i) == m {
			return m, nil
		}
	}
	return NoMove, fmt.Errorf("board: illegal move %q", s)
}
