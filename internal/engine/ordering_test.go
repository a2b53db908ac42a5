package engine

import (
	"testing"

	"github.com/peregrine-chess/peregrine/internal/board"
)

func TestOrderHintComesFirst(t *testing.T) {
	pos := board.NewPosition()
	moves := pos.LegalMoves()
	hint := board.NewMove(board.G1, board.F3)

	o := NewOrderer()
	o.Order(pos, moves, 0, hint, board.NoMove)

	if got := moves.At(0); got != hint {
		t.Errorf("first move = %s, want hinted %s", got, hint)
	}
}

func TestOrderCapturesBeforeQuiets(t *testing.T) {
	pos := mustParse(t, "rnbqkbnr/ppp1pppp/8/3p4/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2")
	moves := pos.LegalMoves()

	o := NewOrderer()
	o.Order(pos, moves, 0, board.NoMove, board.NoMove)

	if first := moves.At(0); !pos.IsCapture(first) {
		t.Errorf("first move %s is not a capture", first)
	}
}

func TestOrderKillerBeforeOtherQuiets(t *testing.T) {
	pos := board.NewPosition()
	killer := board.NewMove(board.B1, board.C3)

	o := NewOrderer()
	o.RecordCutoff(pos, killer, board.NoMove, 4, 2)

	moves := pos.LegalMoves()
	o.Order(pos, moves, 4, board.NoMove, board.NoMove)

	if got := moves.At(0); got != killer {
		t.Errorf("first move = %s, want killer %s", got, killer)
	}
}

func TestOrderHistoryAccumulates(t *testing.T) {
	pos := board.NewPosition()
	favored := board.NewMove(board.D2, board.D4)

	o := NewOrderer()
	// Reward at a ply other than the one we order at, so only the
	// history score carries over.
	for i := 0; i < 10; i++ {
		o.RecordCutoff(pos, favored, board.NoMove, 9, 6)
	}

	moves := pos.LegalMoves()
	o.Order(pos, moves, 2, board.NoMove, board.NoMove)

	if got := moves.At(0); got != favored {
		t.Errorf("first move = %s, want history-favored %s", got, favored)
	}
}

func TestOrderCapturesBySEEDescending(t *testing.T) {
	// dxe5 wins a pawn outright (the h2 queen backs it up through
	// g3-f4); Qxe5 first loses the queen to dxe5 for the same pawn.
	pos := mustParse(t, "4k3/8/3p4/4p3/3P4/8/7Q/4K3 w - - 0 1")
	captures := pos.CaptureMoves()
	if captures.Len() != 2 {
		t.Fatalf("expected 2 captures, got %d", captures.Len())
	}

	sees := OrderCaptures(pos, captures)
	if captures.At(0) != board.NewMove(board.D4, board.E5) {
		t.Errorf("first capture = %s, want d4e5", captures.At(0))
	}
	if sees[0] != 100 || sees[1] != -800 {
		t.Errorf("sees = %v, want [100 -800]", sees)
	}
}

func TestOrderIsStableForEqualScores(t *testing.T) {
	pos := board.NewPosition()
	a := pos.LegalMoves()
	b := pos.LegalMoves()

	o := NewOrderer()
	o.Order(pos, a, 0, board.NoMove, board.NoMove)
	o.Order(pos, b, 0, board.NoMove, board.NoMove)

	for i := 0; i < a.Len(); i++ {
		if a.At(i) != b.At(i) {
			t.Fatalf("ordering not deterministic at index %d: %s vs %s", i, a.At(i), b.At(i))
		}
	}
}
