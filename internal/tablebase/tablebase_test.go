package tablebase

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/peregrine-chess/peregrine/internal/board"
)

func TestNoopNeverFinds(t *testing.T) {
	var p Prober = Noop{}
	pos := board.NewPosition()
	if p.Probe(pos).Found || p.ProbeRoot(pos).Found {
		t.Error("Noop prober should never report a hit")
	}
	if p.Available() {
		t.Error("Noop prober should not report availability")
	}
}

func TestCategoryToWDL(t *testing.T) {
	tests := []struct {
		category string
		want     WDL
	}{
		{"win", WDLWin},
		{"maybe-win", WDLCursedWin},
		{"draw", WDLDraw},
		{"loss", WDLLoss},
		{"blessed-loss", WDLBlessedLoss},
		{"nonsense", WDLDraw},
	}
	for _, tc := range tests {
		if got := categoryToWDL(tc.category); got != tc.want {
			t.Errorf("categoryToWDL(%q) = %d, want %d", tc.category, got, tc.want)
		}
	}
}

func TestLichessProbeRoot(t *testing.T) {
	// KQ vs K, white to move; the mock backend recommends c2e4.
	pos, err := board.ParseFEN("8/8/8/4k3/8/8/2Q5/2K5 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"category": "win",
			"dtz":      11,
			"moves": []map[string]any{
				{"uci": "c2e4", "category": "win", "dtz": 9},
			},
		})
	}))
	defer srv.Close()

	p := NewLichessProberURL(srv.URL, zerolog.Nop())

	probe := p.Probe(pos)
	if !probe.Found || probe.WDL != WDLWin || probe.DTZ != 11 {
		t.Errorf("Probe = %+v, want found win dtz 11", probe)
	}

	root := p.ProbeRoot(pos)
	if !root.Found {
		t.Fatal("ProbeRoot should find a move")
	}
	if root.Move.String() != "c2e4" {
		t.Errorf("ProbeRoot move = %s, want c2e4", root.Move)
	}
}

func TestLichessBackendDownIsSilentMiss(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewLichessProberURL(srv.URL, zerolog.Nop())
	pos, err := board.ParseFEN("8/8/8/4k3/8/8/2Q5/2K5 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Probe(pos).Found || p.ProbeRoot(pos).Found {
		t.Error("backend failure should degrade to a miss")
	}
}

func TestLichessSkipsFullBoards(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	p := NewLichessProberURL(srv.URL, zerolog.Nop())
	if p.Probe(board.NewPosition()).Found {
		t.Error("start position cannot be in any tablebase")
	}
	if calls != 0 {
		t.Errorf("prober queried the backend %d times for a 32-piece position", calls)
	}
}

func TestCachedProberPersists(t *testing.T) {
	pos, err := board.ParseFEN("8/8/8/4k3/8/8/2Q5/2K5 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]any{
			"category": "win",
			"dtz":      11,
			"moves": []map[string]any{
				{"uci": "c2e4", "category": "win", "dtz": 9},
			},
		})
	}))
	defer srv.Close()

	dir := t.TempDir()
	cp, err := NewCachedProber(NewLichessProberURL(srv.URL, zerolog.Nop()), dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewCachedProber: %v", err)
	}
	defer cp.Close()

	first := cp.Probe(pos)
	second := cp.Probe(pos)
	if !first.Found || first != second {
		t.Errorf("cached probe mismatch: %+v vs %+v", first, second)
	}
	if calls != 1 {
		t.Errorf("backend called %d times, want 1", calls)
	}

	root := cp.ProbeRoot(pos)
	rootAgain := cp.ProbeRoot(pos)
	if !root.Found || root != rootAgain {
		t.Errorf("cached root probe mismatch: %+v vs %+v", root, rootAgain)
	}
	if calls != 2 {
		t.Errorf("backend called %d times after root probes, want 2", calls)
	}
}
