package engine

import (
	"time"

	"github.com/peregrine-chess/peregrine/internal/board"
)

// Limits carries the constraints for one search invocation, straight
// from the protocol's go command.
type Limits struct {
	Time      [2]time.Duration // remaining clock per color
	Inc       [2]time.Duration // increment per move per color
	MovesToGo int              // moves to the next time control, 0 = sudden death
	MoveTime  time.Duration    // fixed time for this move
	Depth     int              // maximum depth, 0 = no limit
	Nodes     uint64           // maximum nodes, 0 = no limit
	Infinite  bool             // search until stopped
}

// timeBudget converts the limits into a single wall-clock budget for
// this move. Returns 0 when the search is not time-bounded.
func timeBudget(limits Limits, us board.Color, ply int, overhead time.Duration) time.Duration {
	if limits.MoveTime > 0 {
		return limits.MoveTime
	}
	if limits.Infinite || limits.Time[us] == 0 {
		return 0
	}

	remaining := limits.Time[us] - overhead
	if remaining < 0 {
		remaining = 0
	}
	inc := limits.Inc[us]

	mtg := limits.MovesToGo
	if mtg == 0 {
		// Sudden death: assume the game shortens as it progresses.
		mtg = 40 - ply/4
		if mtg < 10 {
			mtg = 10
		}
	}

	budget := remaining/time.Duration(mtg) + inc*9/10

	// Never commit more than 90% of the clock to one move.
	if most := remaining * 9 / 10; budget > most {
		budget = most
	}
	if budget < 10*time.Millisecond {
		budget = 10 * time.Millisecond
	}
	return budget
}
