package tablebase

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/peregrine-chess/peregrine/internal/board"
)

// DefaultEndpoint is the public Lichess tablebase service.
const DefaultEndpoint = "https://tablebase.lichess.ovh/standard"

// LichessProber queries the Lichess 7-piece tablebase over HTTP.
// Network failures and rate limits degrade to a silent miss.
type LichessProber struct {
	client   *http.Client
	endpoint string
	log      zerolog.Logger
}

// NewLichessProber creates a prober against the public endpoint.
func NewLichessProber(log zerolog.Logger) *LichessProber {
	return &LichessProber{
		client:   &http.Client{Timeout: 5 * time.Second},
		endpoint: DefaultEndpoint,
		log:      log,
	}
}

// NewLichessProberURL creates a prober against a custom endpoint,
// used by tests and private mirrors.
func NewLichessProberURL(endpoint string, log zerolog.Logger) *LichessProber {
	return &LichessProber{
		client:   &http.Client{Timeout: 5 * time.Second},
		endpoint: endpoint,
		log:      log,
	}
}

type lichessResponse struct {
	Category string `json:"category"`
	DTZ      int    `json:"dtz"`
	Moves    []struct {
		UCI      string `json:"uci"`
		Category string `json:"category"`
		DTZ      int    `json:"dtz"`
	} `json:"moves"`
}

func (lp *LichessProber) fetch(pos *board.Position) (lichessResponse, bool) {
	var out lichessResponse

	fen := strings.ReplaceAll(pos.FEN(), " ", "_")
	resp, err := lp.client.Get(lp.endpoint + "?fen=" + url.QueryEscape(fen))
	if err != nil {
		lp.log.Debug().Err(err).Msg("tablebase request failed")
		return out, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		lp.log.Debug().Int("status", resp.StatusCode).Msg("tablebase request rejected")
		return out, false
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		lp.log.Debug().Err(err).Msg("tablebase response malformed")
		return out, false
	}
	return out, true
}

func (lp *LichessProber) Probe(pos *board.Position) ProbeResult {
	if CountPieces(pos) > lp.MaxPieces() {
		return ProbeResult{}
	}
	resp, ok := lp.fetch(pos)
	if !ok {
		return ProbeResult{}
	}
	return ProbeResult{
		Found: true,
		WDL:   categoryToWDL(resp.Category),
		DTZ:   resp.DTZ,
	}
}

func (lp *LichessProber) ProbeRoot(pos *board.Position) RootResult {
	if CountPieces(pos) > lp.MaxPieces() {
		return RootResult{}
	}
	resp, ok := lp.fetch(pos)
	if !ok || len(resp.Moves) == 0 {
		return RootResult{}
	}

	// The service lists moves best first for the side to move.
	best := resp.Moves[0]
	m, err := pos.ParseMove(best.UCI)
	if err != nil {
		lp.log.Debug().Str("uci", best.UCI).Err(err).Msg("tablebase move not legal here")
		return RootResult{}
	}
	return RootResult{
		Found: true,
		Move:  m,
		WDL:   categoryToWDL(best.Category),
		DTZ:   best.DTZ,
	}
}

func (lp *LichessProber) MaxPieces() int { return 7 }

func (lp *LichessProber) Available() bool { return true }

func categoryToWDL(category string) WDL {
	switch category {
	case "win":
		return WDLWin
	case "maybe-win", "cursed-win":
		return WDLCursedWin
	case "loss":
		return WDLLoss
	case "maybe-loss", "blessed-loss":
		return WDLBlessedLoss
	default:
		return WDLDraw
	}
}
