// Package tablebase probes endgame tablebases for proven
// win/draw/loss verdicts and best moves in low-piece positions.
package tablebase

import (
	"github.com/peregrine-chess/peregrine/internal/board"
)

// WDL is a win/draw/loss verdict from the mover's perspective.
type WDL int

const (
	WDLLoss        WDL = -2
	WDLBlessedLoss WDL = -1 // lost, but the 50-move rule may save it
	WDLDraw        WDL = 0
	WDLCursedWin   WDL = 1 // won, but the 50-move rule may spoil it
	WDLWin         WDL = 2
)

// ProbeResult is the verdict for a probed position.
type ProbeResult struct {
	Found bool
	WDL   WDL
	DTZ   int // distance to the next zeroing move
}

// RootResult is the proven best move for a root position.
type RootResult struct {
	Found bool
	Move  board.Move
	WDL   WDL
	DTZ   int
}

// Prober looks up positions in an endgame tablebase. A miss of any
// kind (position not covered, backend unreachable) is reported as
// Found == false, never as an error; the engine falls through to
// normal search.
type Prober interface {
	Probe(pos *board.Position) ProbeResult
	ProbeRoot(pos *board.Position) RootResult
	MaxPieces() int
	Available() bool
}

// CountPieces returns the total number of pieces on the board.
func CountPieces(pos *board.Position) int {
	return pos.AllOccupied().Count()
}

// Noop is a prober that never finds anything, for when no tablebase
// is configured.
type Noop struct{}

func (Noop) Probe(*board.Position) ProbeResult    { return ProbeResult{} }
func (Noop) ProbeRoot(*board.Position) RootResult { return RootResult{} }
func (Noop) MaxPieces() int                       { return 0 }
func (Noop) Available() bool                      { return false }
