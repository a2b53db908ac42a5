package engine

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/peregrine-chess/peregrine/internal/board"
)

func newTestEngine() *Engine {
	return New(1, zerolog.Nop())
}

func legalIn(pos *board.Position, m board.Move) bool {
	return inList(pos.LegalMoves(), m)
}

func TestBestMoveDepthOneIsLegal(t *testing.T) {
	eng := newTestEngine()
	pos := board.NewPosition()

	var score int
	eng.OnInfo = func(info SearchInfo) { score = info.Score }

	m := eng.BestMove(pos, Limits{Depth: 1})
	if !legalIn(pos, m) {
		t.Errorf("BestMove returned %s, not a legal move", m)
	}
	if score > MateScore-MaxPly || score < -(MateScore-MaxPly) {
		t.Errorf("startpos depth 1 scored %d, want a non-mate score", score)
	}
}

func TestBestMoveFindsMateInOne(t *testing.T) {
	eng := newTestEngine()
	pos := mustParse(t, "6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1")

	var score int
	eng.OnInfo = func(info SearchInfo) { score = info.Score }

	m := eng.BestMove(pos, Limits{Depth: 3})
	if want := board.NewMove(board.A1, board.A8); m != want {
		t.Fatalf("BestMove = %s, want %s", m, want)
	}
	if score < MateScore-100 {
		t.Errorf("mate score = %d, want near %d", score, MateScore)
	}
}

// A second search of the same position runs with a populated
// transposition table, so its stored moves drive the ordering hints.
func TestWarmTranspositionTableStillFindsMate(t *testing.T) {
	eng := newTestEngine()
	pos := mustParse(t, "6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1")
	want := board.NewMove(board.A1, board.A8)

	if m := eng.BestMove(pos, Limits{Depth: 3}); m != want {
		t.Fatalf("cold search = %s, want %s", m, want)
	}
	if m := eng.BestMove(pos, Limits{Depth: 3}); m != want {
		t.Errorf("warm search = %s, want %s", m, want)
	}
}

func TestBestMoveDefendsMateInOne(t *testing.T) {
	eng := newTestEngine()
	// Black must deal with the threatened back-rank mate.
	pos := mustParse(t, "6k1/5ppp/8/8/8/8/5PPP/R5K1 b - - 0 1")
	m := eng.BestMove(pos, Limits{Depth: 4})
	if !legalIn(pos, m) {
		t.Errorf("BestMove returned %s, not a legal move", m)
	}
}

func TestBestMoveCheckmatedReturnsNoMove(t *testing.T) {
	eng := newTestEngine()
	pos := mustParse(t, "R6k/6pp/8/8/8/8/8/K7 b - - 0 1")
	if m := eng.BestMove(pos, Limits{Depth: 3}); m != board.NoMove {
		t.Errorf("BestMove in checkmate = %s, want none", m)
	}
}

func TestBestMoveStalematedReturnsNoMove(t *testing.T) {
	eng := newTestEngine()
	pos := mustParse(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	if m := eng.BestMove(pos, Limits{Depth: 3}); m != board.NoMove {
		t.Errorf("BestMove in stalemate = %s, want none", m)
	}
}

func TestBestMoveNodeCapStillMoves(t *testing.T) {
	eng := newTestEngine()
	pos := board.NewPosition()

	m := eng.BestMove(pos, Limits{Nodes: 10})
	if !legalIn(pos, m) {
		t.Errorf("BestMove under tiny node cap = %s, not legal", m)
	}
}

func TestBestMoveTinyBudgetStillMoves(t *testing.T) {
	eng := newTestEngine()
	pos := board.NewPosition()

	start := time.Now()
	m := eng.BestMove(pos, Limits{MoveTime: time.Millisecond})
	if !legalIn(pos, m) {
		t.Errorf("BestMove under 1ms budget = %s, not legal", m)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("1ms budget took %v", elapsed)
	}
}

func TestStopCancelsInfiniteSearch(t *testing.T) {
	eng := newTestEngine()
	pos := board.NewPosition()

	done := make(chan board.Move, 1)
	go func() { done <- eng.BestMove(pos, Limits{Infinite: true}) }()

	time.Sleep(100 * time.Millisecond)
	eng.Stop()

	select {
	case m := <-done:
		if !legalIn(pos, m) {
			t.Errorf("stopped search returned %s, not legal", m)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("search did not stop")
	}
}

type fixedBook struct{ m board.Move }

func (b fixedBook) Probe(*board.Position) (board.Move, bool) { return b.m, true }

func TestBookMoveShortCircuitsSearch(t *testing.T) {
	eng := newTestEngine()
	pos := board.NewPosition()
	want := board.NewMove(board.E2, board.E4)

	eng.SetBook(fixedBook{want})
	if m := eng.BestMove(pos, Limits{Depth: 3}); m != want {
		t.Errorf("BestMove = %s, want book move %s", m, want)
	}
	if eng.Nodes() != 0 {
		t.Errorf("book hit still searched %d nodes", eng.Nodes())
	}
}

func TestIllegalBookMoveIsIgnored(t *testing.T) {
	eng := newTestEngine()
	pos := board.NewPosition()

	eng.SetBook(fixedBook{board.NewMove(board.E2, board.E5)})
	m := eng.BestMove(pos, Limits{Depth: 2})
	if !legalIn(pos, m) {
		t.Errorf("BestMove = %s, not legal", m)
	}
}

type fixedTablebase struct {
	m     board.Move
	limit int
}

func (tb fixedTablebase) ProbeRoot(*board.Position) (board.Move, bool) { return tb.m, true }
func (tb fixedTablebase) MaxPieces() int                               { return tb.limit }

func TestTablebaseMoveUsedWhenFewPieces(t *testing.T) {
	eng := newTestEngine()
	pos := mustParse(t, "4k3/8/8/3q4/8/8/8/3RK3 w - - 0 1")
	want := board.NewMove(board.D1, board.D5)

	eng.SetTablebase(fixedTablebase{m: want, limit: 7})
	if m := eng.BestMove(pos, Limits{Depth: 2}); m != want {
		t.Errorf("BestMove = %s, want tablebase move %s", m, want)
	}
}

func TestTablebaseSkippedWhenTooManyPieces(t *testing.T) {
	eng := newTestEngine()
	pos := board.NewPosition()

	eng.SetTablebase(fixedTablebase{m: board.NewMove(board.E2, board.E4), limit: 7})
	m := eng.BestMove(pos, Limits{Depth: 2})
	if !legalIn(pos, m) {
		t.Errorf("BestMove = %s, not legal", m)
	}
	if eng.Nodes() == 0 {
		t.Error("full board should have been searched, not probed")
	}
}

func TestRepetitionDetection(t *testing.T) {
	pos := mustParse(t, "4k3/8/8/8/8/8/8/4K2R w - - 10 20")
	s := newSearcher(NewTranspositionTable(1), NewEvaluator(1), NewOrderer())
	s.pos = pos

	h := pos.Hash
	s.hashes = []uint64{h, 1, h, 2, h}
	if !s.isRepetition() {
		t.Error("threefold occurrence not detected")
	}

	s.hashes = []uint64{h, 1, 2, h}
	if s.isRepetition() {
		t.Error("single prior occurrence reported as repetition")
	}
}

func TestRepetitionLimitedByFiftyMoveClock(t *testing.T) {
	pos := mustParse(t, "4k3/8/8/8/8/8/8/4K2R w - - 1 20")
	s := newSearcher(NewTranspositionTable(1), NewEvaluator(1), NewOrderer())
	s.pos = pos

	// Occurrences older than the last irreversible move cannot repeat.
	h := pos.Hash
	s.hashes = []uint64{h, h, 3, h}
	if s.isRepetition() {
		t.Error("occurrences beyond the halfmove clock counted")
	}
}

func TestTimeBudget(t *testing.T) {
	tests := []struct {
		name   string
		limits Limits
		want   time.Duration
	}{
		{"fixed movetime", Limits{MoveTime: 500 * time.Millisecond}, 500 * time.Millisecond},
		{"infinite", Limits{Infinite: true}, 0},
		{"no clock", Limits{Depth: 5}, 0},
		{"movestogo split", Limits{Time: [2]time.Duration{time.Minute, 0}, MovesToGo: 60}, time.Second},
		{"clock cap", Limits{Time: [2]time.Duration{100 * time.Millisecond, 0}, MovesToGo: 1}, 90 * time.Millisecond},
		{"floor", Limits{Time: [2]time.Duration{20 * time.Millisecond, 0}, MovesToGo: 10}, 10 * time.Millisecond},
	}

	for _, tt := range tests {
		if got := timeBudget(tt.limits, board.White, 10, 0); got != tt.want {
			t.Errorf("%s: timeBudget = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestNewGameResetsState(t *testing.T) {
	eng := newTestEngine()
	pos := board.NewPosition()

	eng.BestMove(pos, Limits{Depth: 3})
	eng.NewGame()
	if m := eng.BestMove(pos, Limits{Depth: 1}); !legalIn(pos, m) {
		t.Errorf("BestMove after NewGame = %s, not legal", m)
	}
}
