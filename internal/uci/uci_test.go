package uci

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/peregrine-chess/peregrine/internal/board"
	"github.com/peregrine-chess/peregrine/internal/engine"
)

func newTestUCI() *UCI {
	return New(engine.New(1, zerolog.Nop()), zerolog.Nop())
}

func TestHandlePositionStartposMoves(t *testing.T) {
	u := newTestUCI()
	u.handlePosition(strings.Fields("startpos moves e2e4 e7e5"))

	want := "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq"
	if fen := u.position.FEN(); !strings.HasPrefix(fen, want) {
		t.Errorf("position = %q, want prefix %q", fen, want)
	}
	if len(u.hashes) != 3 {
		t.Errorf("history length = %d, want 3", len(u.hashes))
	}
	if u.lastMove != board.NewMove(board.E7, board.E5) {
		t.Errorf("last move = %s, want e7e5", u.lastMove)
	}
}

func TestHandlePositionFEN(t *testing.T) {
	u := newTestUCI()
	fen := "4k3/8/8/8/8/8/8/Q3K3 w - - 0 1"
	u.handlePosition(strings.Fields("fen " + fen))
	if got := u.position.FEN(); got != fen {
		t.Errorf("position = %q, want %q", got, fen)
	}

	u.handlePosition(strings.Fields("fen " + fen + " moves a1a8"))
	if got := u.position.PieceAt(board.A8); got != board.WhiteQueen {
		t.Errorf("after a1a8, a8 holds %v", got)
	}
}

func TestHandlePositionMalformedIsIgnored(t *testing.T) {
	u := newTestUCI()
	before := u.position.FEN()

	u.handlePosition(strings.Fields("fen not a real fen at all"))
	u.handlePosition(strings.Fields("startpos moves e2e5"))
	u.handlePosition(nil)

	if got := u.position.FEN(); got != before {
		t.Errorf("malformed command changed position to %q", got)
	}
}

func TestParseLimits(t *testing.T) {
	u := newTestUCI()
	limits := u.parseLimits(strings.Fields(
		"wtime 60000 btime 30000 winc 1000 binc 500 movestogo 20"))

	if limits.Time[board.White] != time.Minute || limits.Time[board.Black] != 30*time.Second {
		t.Errorf("clock = %v", limits.Time)
	}
	if limits.Inc[board.White] != time.Second || limits.Inc[board.Black] != 500*time.Millisecond {
		t.Errorf("increment = %v", limits.Inc)
	}
	if limits.MovesToGo != 20 {
		t.Errorf("movestogo = %d, want 20", limits.MovesToGo)
	}

	limits = u.parseLimits(strings.Fields("depth 9 nodes 12345 movetime 250"))
	if limits.Depth != 9 || limits.Nodes != 12345 || limits.MoveTime != 250*time.Millisecond {
		t.Errorf("limits = %+v", limits)
	}

	if !u.parseLimits([]string{"infinite"}).Infinite {
		t.Error("infinite flag not parsed")
	}
}

// Progress reports belong to the position the search started from;
// a position command arriving mid-search must not affect them.
func TestInfoLineUsesSearchRootPosition(t *testing.T) {
	u := newTestUCI()
	root := u.position.Copy()

	u.handlePosition(strings.Fields("fen 4k3/8/8/8/8/8/8/Q3K3 w - - 0 1"))

	line := infoLine(root, engine.SearchInfo{
		Depth: 2,
		Score: 25,
		Nodes: 100,
		PV:    []board.Move{board.NewMove(board.E2, board.E4), board.NewMove(board.E7, board.E5)},
	})
	if !strings.Contains(line, "pv e2e4 e7e5") {
		t.Errorf("info line %q lacks the pv", line)
	}
	if !strings.Contains(line, "score cp 25") {
		t.Errorf("info line %q lacks the score", line)
	}
}

func TestInfoLineTruncatesIllegalPV(t *testing.T) {
	u := newTestUCI()
	line := infoLine(u.position, engine.SearchInfo{Depth: 1, PV: []board.Move{
		board.NewMove(board.E2, board.E4),
		board.NewMove(board.A1, board.A5),
	}})
	if !strings.Contains(line, "pv e2e4") || strings.Contains(line, "a1a5") {
		t.Errorf("info line %q kept an illegal tail", line)
	}
}

// A book path that does not exist must leave the engine searching
// normally.
func TestMissingBookIsSilentMiss(t *testing.T) {
	u := newTestUCI()
	u.handleSetOption(strings.Fields("name BookPath value /no/such/book.bin"))

	m := u.engine.BestMove(u.position, engine.Limits{Depth: 1})
	if m == board.NoMove {
		t.Error("search did not proceed after a book miss")
	}
}

func TestSetOptionIgnoresGarbage(t *testing.T) {
	u := newTestUCI()
	u.handleSetOption(strings.Fields("name Hash value potato"))
	u.handleSetOption(strings.Fields("name NoSuchOption value 7"))
	u.handleSetOption(strings.Fields("value 42"))
	u.handleSetOption(nil)

	u.handleSetOption(strings.Fields("name MoveOverhead value 100"))
	u.handleSetOption(strings.Fields("name Hash value 2"))
	u.handleSetOption(strings.Fields("name NodeLimit value 100000"))
}
