package engine

import (
	"testing"

	"github.com/peregrine-chess/peregrine/internal/board"
)

func TestEvaluateSymmetricPositionIsZero(t *testing.T) {
	e := NewEvaluator(1)
	if got := e.Evaluate(board.NewPosition()); got != 0 {
		t.Errorf("Evaluate(startpos) = %d, want 0", got)
	}
}

// Mirroring the board and swapping colors must give the same score,
// since both are reported from the side to move's perspective.
func TestEvaluateColorSymmetry(t *testing.T) {
	pairs := []struct{ a, b string }{
		{
			"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1",
			"rnbqkbnr/pppp1ppp/8/4p3/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		},
		{
			"4k3/8/8/8/8/8/8/Q3K3 w - - 0 1",
			"q3k3/8/8/8/8/8/8/4K3 b - - 0 1",
		},
		{
			"r3k3/pp6/8/8/8/8/6PP/4K2R w Kq - 0 1",
			"4k2r/6pp/8/8/8/8/PP6/R3K3 b Qk - 0 1",
		},
	}

	e := NewEvaluator(1)
	for _, p := range pairs {
		a := mustParse(t, p.a)
		b := mustParse(t, p.b)
		sa, sb := e.Evaluate(a), e.Evaluate(b)
		if sa != sb {
			t.Errorf("Evaluate(%q) = %d, Evaluate(mirror) = %d", p.a, sa, sb)
		}
	}
}

func TestEvaluateMaterialAdvantageIsPositive(t *testing.T) {
	e := NewEvaluator(1)
	pos := mustParse(t, "4k3/8/8/8/8/8/8/Q3K3 w - - 0 1")
	if got := e.Evaluate(pos); got <= 0 {
		t.Errorf("Evaluate(queen up, to move) = %d, want > 0", got)
	}
	pos = mustParse(t, "4k3/8/8/8/8/8/8/Q3K3 b - - 0 1")
	if got := e.Evaluate(pos); got >= 0 {
		t.Errorf("Evaluate(queen down, to move) = %d, want < 0", got)
	}
}

func TestEvaluateFiftyMoveRuleIsDraw(t *testing.T) {
	e := NewEvaluator(1)
	pos := mustParse(t, "4k3/8/8/8/8/8/4P3/4K3 w - - 100 60")
	if got := e.Evaluate(pos); got != 0 {
		t.Errorf("Evaluate(halfmove clock 100) = %d, want 0", got)
	}
}

func TestEvaluateInsufficientMaterialIsDraw(t *testing.T) {
	e := NewEvaluator(1)
	for _, fen := range []string{
		"4k3/8/8/8/8/8/8/4K3 w - - 0 1",
		"4k3/8/8/8/8/8/8/2B1K3 w - - 0 1",
		"4k3/8/8/8/8/8/8/2N1K3 b - - 0 1",
	} {
		if got := e.Evaluate(mustParse(t, fen)); got != 0 {
			t.Errorf("Evaluate(%q) = %d, want 0", fen, got)
		}
	}
}

func TestEvaluateDoesNotMutate(t *testing.T) {
	e := NewEvaluator(1)
	pos := mustParse(t, "r1bqkb1r/pppp1ppp/2n2n2/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R w KQkq - 4 4")
	before := *pos
	e.Evaluate(pos)
	if *pos != before {
		t.Error("Evaluate mutated the position")
	}
}

// The pawn structure cache must be transparent: repeated evaluations
// of the same position agree, as do evaluations that share a pawn
// structure but differ in piece placement.
func TestEvaluatePawnCacheConsistency(t *testing.T) {
	pos := mustParse(t, "r1bqkb1r/pppp1ppp/2n2n2/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R w KQkq - 4 4")

	cached := NewEvaluator(1)
	first := cached.Evaluate(pos)
	second := cached.Evaluate(pos)
	if first != second {
		t.Errorf("repeated Evaluate disagrees: %d then %d", first, second)
	}

	fresh := NewEvaluator(1)
	if got := fresh.Evaluate(pos); got != first {
		t.Errorf("fresh evaluator gives %d, cached gives %d", got, first)
	}
}

func bb(squares ...board.Square) board.Bitboard {
	var b board.Bitboard
	for _, sq := range squares {
		b |= board.SquareBB(sq)
	}
	return b
}

func TestIsPassed(t *testing.T) {
	tests := []struct {
		name  string
		sq    board.Square
		their board.Bitboard
		c     board.Color
		want  bool
	}{
		{"no enemy pawns", board.E5, 0, board.White, true},
		{"enemy pawn behind on adjacent file", board.E5, bb(board.D2), board.White, true},
		{"blocker on own file", board.E5, bb(board.E6), board.White, false},
		{"blocker on adjacent file", board.E5, bb(board.D6), board.White, false},
		{"enemy level with the pawn", board.E5, bb(board.D5), board.White, true},
		{"black passer ignores pawn behind it", board.D4, bb(board.E5), board.Black, true},
		{"black pawn blocked ahead", board.D4, bb(board.C3), board.Black, false},
	}
	for _, tt := range tests {
		if got := isPassed(tt.their, tt.sq, tt.c); got != tt.want {
			t.Errorf("%s: isPassed = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestIsBackward(t *testing.T) {
	tests := []struct {
		name         string
		pawns, their board.Bitboard
		sq           board.Square
		c            board.Color
		want         bool
	}{
		{"supported level pawn", bb(board.E4, board.D4), bb(board.D6), board.E4, board.White, false},
		{"support from behind", bb(board.E4, board.D3), bb(board.D6), board.E4, board.White, false},
		{"support only ahead", bb(board.E4, board.D5), bb(board.D6), board.E4, board.White, true},
		{"not blocked", bb(board.E4, board.D5), bb(board.A7), board.E4, board.White, false},
		{"hard blocked, no support", bb(board.E4), bb(board.E5), board.E4, board.White, true},
		{"black backward pawn", bb(board.E5, board.D4), bb(board.D3), board.E5, board.Black, true},
	}
	for _, tt := range tests {
		if got := isBackward(tt.pawns, tt.their, tt.sq, tt.c); got != tt.want {
			t.Errorf("%s: isBackward = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestPawnStructureTerms(t *testing.T) {
	// Doubled lone pawns: isolated twice, doubled once, both passed.
	mg, eg := pawnStructureSlow(bb(board.E2, board.E4), 0, board.White)
	wantMg := 2*isolatedPawnMgPenalty + doubledPawnMgPenalty +
		passedPawnBonus[1] + passedPawnBonus[3]
	wantEg := 2*isolatedPawnEgPenalty + doubledPawnEgPenalty +
		passedPawnBonus[1]*3/2 + passedPawnBonus[3]*3/2
	if mg != wantMg || eg != wantEg {
		t.Errorf("doubled isolated passers = (%d, %d), want (%d, %d)", mg, eg, wantMg, wantEg)
	}

	// e4 is blocked by the d6 guard and its only neighbor stands
	// ahead of it: backward but not isolated, and d6 stops both
	// pawns from being passed.
	mg, eg = pawnStructureSlow(bb(board.E4, board.D5), bb(board.D6), board.White)
	if mg != backwardPawnMgPenalty || eg != backwardPawnEgPenalty {
		t.Errorf("backward chain = (%d, %d), want (%d, %d)",
			mg, eg, backwardPawnMgPenalty, backwardPawnEgPenalty)
	}
}

func TestPawnTableRoundTrip(t *testing.T) {
	pt := NewPawnTable(1)
	key := PawnKey(board.Rank2BB, board.White)

	if _, _, ok := pt.Probe(key); ok {
		t.Fatal("empty table reported a hit")
	}
	pt.Store(key, 17, -4)
	mg, eg, ok := pt.Probe(key)
	if !ok || mg != 17 || eg != -4 {
		t.Errorf("Probe = (%d, %d, %v), want (17, -4, true)", mg, eg, ok)
	}

	pt.Clear()
	if _, _, ok := pt.Probe(key); ok {
		t.Error("Clear left an entry behind")
	}
}

func TestPawnKeyDistinguishesColor(t *testing.T) {
	if PawnKey(board.Rank2BB, board.White) == PawnKey(board.Rank2BB, board.Black) {
		t.Error("same pawns for opposite colors hash identically")
	}
}
