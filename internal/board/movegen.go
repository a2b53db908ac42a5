package board

// Move generation is pseudo-legal: castling through check and pinned
// pieces are handled by the make/test/unmake filter in LegalMoves
// rather than during generation.

func (p *Position) pawnPushes(ml *MoveList) {
	us := p.SideToMove
	empty := ^p.AllOccupied()
	pawns := p.Pieces[us][Pawn]

	var single, double Bitboard
	var delta Square
	if us == White {
		single = pawns.North() & empty
		double = (single & Rank3BB).North() & empty
		delta = 8
	} else {
		single = pawns.South() & empty
		double = (single & Rank6BB).South() & empty
		delta = 8
	}

	for b := single; b != 0; {
		to := b.PopFirst()
		var from Square
		if us == White {
			from = to - delta
		} else {
			from = to + delta
		}
		if to.Rank() == 0 || to.Rank() == 7 {
			for pt := Queen; pt >= Knight; pt-- {
				ml.Add(NewPromotion(from, to, pt))
			}
		} else {
			ml.Add(NewMove(from, to))
		}
	}
	for b := double; b != 0; {
		to := b.PopFirst()
		if us == White {
			ml.Add(NewMove(to-16, to))
		} else {
			ml.Add(NewMove(to+16, to))
		}
	}
}

func (p *Position) pawnCaptures(ml *MoveList) {
	us := p.SideToMove
	them := us.Opponent()
	targets := p.Occupied[them]

	for pawns := p.Pieces[us][Pawn]; pawns != 0; {
		from := pawns.PopFirst()
		for b := PawnAttacks(us, from) & targets; b != 0; {
			to := b.PopFirst()
			if to.Rank() == 0 || to.Rank() == 7 {
				for pt := Queen; pt >= Knight; pt-- {
					ml.Add(NewPromotion(from, to, pt))
				}
			} else {
				ml.Add(NewMove(from, to))
			}
		}
		if p.EnPassant != NoSquare && PawnAttacks(us, from).Has(p.EnPassant) {
			ml.Add(NewEnPassant(from, p.EnPassant))
		}
	}
}

func (p *Position) pieceMoves(ml *MoveList, targets Bitboard) {
	us := p.SideToMove
	occ := p.AllOccupied()

	for pt := Knight; pt <= King; pt++ {
		for pieces := p.Pieces[us][pt]; pieces != 0; {
			from := pieces.PopFirst()
			for b := PieceAttacks(pt, us, from, occ) & targets; b != 0; {
				ml.Add(NewMove(from, b.PopFirst()))
			}
		}
	}
}

func (p *Position) castlingMoves(ml *MoveList) {
	if p.InCheck() {
		return
	}
	us := p.SideToMove
	them := us.Opponent()
	occ := p.AllOccupied()

	type castle struct {
		right      CastlingRights
		from, to   Square
		between    Bitboard
		passThru   Square
	}
	var candidates [2]castle
	if us == White {
		candidates = [2]castle{
			{WhiteKingside, E1, G1, SquareBB(F1) | SquareBB(G1), F1},
			{WhiteQueenside, E1, C1, SquareBB(B1) | SquareBB(C1) | SquareBB(D1), D1},
		}
	} else {
		candidates = [2]castle{
			{BlackKingside, E8, G8, SquareBB(F8) | SquareBB(G8), F8},
			{BlackQueenside, E8, C8, SquareBB(B8) | SquareBB(C8) | SquareBB(D8), D8},
		}
	}
	for _, c := range candidates {
		if p.CastlingRights&c.right == 0 || occ&c.between != 0 {
			continue
		}
		// The destination square is checked by the legality filter;
		// the transit square must be tested here.
		if p.IsAttacked(c.passThru, them) {
			continue
		}
		ml.Add(NewCastle(c.from, c.to))
	}
}

// PseudoLegalMoves generates every pseudo-legal move into ml.
func (p *Position) PseudoLegalMoves(ml *MoveList) {
	ml.Clear()
	p.pawnPushes(ml)
	p.pawnCaptures(ml)
	p.pieceMoves(ml, ^p.Occupied[p.SideToMove])
	p.castlingMoves(ml)
}

// PseudoLegalCaptures generates captures and promotions into ml.
func (p *Position) PseudoLegalCaptures(ml *MoveList) {
	ml.Clear()
	p.pawnCaptures(ml)
	p.pieceMoves(ml, p.Occupied[p.SideToMove.Opponent()])
	// Queening a pawn changes material like a capture does; include
	// push promotions so quiescence sees them.
	us := p.SideToMove
	empty := ^p.AllOccupied()
	var promo Bitboard
	if us == White {
		promo = (p.Pieces[us][Pawn] & Rank7BB).North() & empty
	} else {
		promo = (p.Pieces[us][Pawn] & Rank2BB).South() & empty
	}
	for b := promo; b != 0; {
		to := b.PopFirst()
		var from Square
		if us == White {
			from = to - 8
		} else {
			from = to + 8
		}
		for pt := Queen; pt >= Knight; pt-- {
			ml.Add(NewPromotion(from, to, pt))
		}
	}
}

// IsLegal reports whether applying the pseudo-legal move m leaves the
// mover's own king safe.
func (p *Position) IsLegal(m Move) bool {
	us := p.SideToMove
	u := p.MakeMove(m)
	legal := !p.IsAttacked(p.KingSquare(us), p.SideToMove)
	p.UnmakeMove(m, u)
	return legal
}

func (p *Position) filterLegal(ml *MoveList) {
	n := 0
	for i := 0; i < ml.Len(); i++ {
		if m := ml.At(i); p.IsLegal(m) {
			ml.Set(n, m)
			n++
		}
	}
	ml.count = n
}

// LegalMoves returns every legal move in the position.
func (p *Position) LegalMoves() *MoveList {
	ml := &MoveList{}
	p.PseudoLegalMoves(ml)
	p.filterLegal(ml)
	return ml
}

// CaptureMoves returns every legal capture and promotion.
func (p *Position) CaptureMoves() *MoveList {
	ml := &MoveList{}
	p.PseudoLegalCaptures(ml)
	p.filterLegal(ml)
	return ml
}

// HasLegalMoves reports whether the side to move has any legal move.
// It stops at the first one found.
func (p *Position) HasLegalMoves() bool {
	var ml MoveList
	p.PseudoLegalMoves(&ml)
	for i := 0; i < ml.Len(); i++ {
		if p.IsLegal(ml.At(i)) {
			return true
		}
	}
	return false
}

// IsCheckmate reports whether the side to move is checkmated.
func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}

// IsStalemate reports whether the side to move is stalemated.
func (p *Position) IsStalemate() bool {
	return !p.InCheck() && !p.HasLegalMoves()
}

// IsCapture reports whether m takes a piece, en passant included.
func (p *Position) IsCapture(m Move) bool {
	return p.board[m.To()] != NoPiece || m.Flag() == FlagEnPassant
}

// GivesCheck reports whether m checks the opponent. It applies the
// move, so it is not cheap; callers should reserve it for pruning
// decisions.
func (p *Position) GivesCheck(m Move) bool {
	u := p.MakeMove(m)
	check := p.InCheck()
	p.UnmakeMove(m, u)
	return check
}

// Perft counts leaf nodes of the legal move tree to the given depth.
func (p *Position) Perft(depth int) uint64 {
	if depth == 0 {
		return 1
	}
	moves := p.LegalMoves()
	if depth == 1 {
		return uint64(moves.Len())
	}
	var nodes uint64
	for i := 0; i < moves.Len(); i++ {
		m := moves.At(i)
		u := p.MakeMove(m)
		nodes += p.Perft(depth - 1)
		p.UnmakeMove(m, u)
	}
	return nodes
}
