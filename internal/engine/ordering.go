package engine

import (
	"sort"

	"github.com/peregrine-chess/peregrine/internal/board"
)

// Ordering score bands. The hint move always sorts first, captures by
// SEE above killers, killers above counter-moves, everything else by
// history.
const (
	hintScore    = 1 << 24
	captureBase  = 1 << 20
	killerScore1 = 1<<20 - 1
	killerScore2 = 1<<20 - 2
	counterScore = 1<<20 - 3
	historyCap   = 1 << 18
)

// Orderer ranks moves for the search. All of its tables persist
// across search invocations within one engine instance; history is
// aged rather than cleared between searches.
type Orderer struct {
	killers  [MaxPly][2]board.Move
	history  [64][64]int
	counters [12][64]board.Move
}

// NewOrderer creates an empty orderer.
func NewOrderer() *Orderer {
	return &Orderer{}
}

// NewSearch ages the history table and clears the killers so a fresh
// search is not dominated by the previous one.
func (o *Orderer) NewSearch() {
	for i := range o.killers {
		o.killers[i][0] = board.NoMove
		o.killers[i][1] = board.NoMove
	}
	for i := range o.history {
		for j := range o.history[i] {
			o.history[i][j] /= 2
		}
	}
}

// Clear wipes every table, for a new game.
func (o *Orderer) Clear() {
	*o = Orderer{}
}

// Order sorts moves in place, best first. hint is the move to try
// first (PV or TT move); prev is the opponent's last move, used for
// the counter-move lookup. Ties keep the generation order.
func (o *Orderer) Order(pos *board.Position, moves *board.MoveList, ply int, hint, prev board.Move) {
	counter := o.counterFor(pos, prev)

	n := moves.Len()
	type scored struct {
		m     board.Move
		score int
	}
	list := make([]scored, n)
	for i := 0; i < n; i++ {
		m := moves.At(i)
		list[i] = scored{m, o.score(pos, m, ply, hint, counter)}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].score > list[j].score })
	for i := range list {
		moves.Set(i, list[i].m)
	}
}

func (o *Orderer) score(pos *board.Position, m board.Move, ply int, hint, counter board.Move) int {
	if m == hint {
		return hintScore
	}
	if pos.IsCapture(m) {
		return captureBase + SEE(pos, m)
	}
	if m == o.killers[ply][0] {
		return killerScore1
	}
	if m == o.killers[ply][1] {
		return killerScore2
	}
	if m == counter {
		return counterScore
	}
	h := o.history[m.From()][m.To()]
	if h > historyCap {
		h = historyCap
	}
	if h < -historyCap {
		h = -historyCap
	}
	return h
}

// RecordCutoff updates the ordering tables after a quiet move caused
// a beta cutoff: killer slots most-recent-first, history by depth
// squared, and the counter-move slot for the refuted move.
func (o *Orderer) RecordCutoff(pos *board.Position, m, prev board.Move, ply, depth int) {
	if ply < MaxPly && o.killers[ply][0] != m {
		o.killers[ply][1] = o.killers[ply][0]
		o.killers[ply][0] = m
	}

	o.history[m.From()][m.To()] += depth * depth
	if o.history[m.From()][m.To()] > 1<<26 {
		for i := range o.history {
			for j := range o.history[i] {
				o.history[i][j] /= 2
			}
		}
	}

	if prev != board.NoMove {
		if pc := pos.PieceAt(prev.To()); pc != board.NoPiece {
			o.counters[pc][prev.To()] = m
		}
	}
}

func (o *Orderer) counterFor(pos *board.Position, prev board.Move) board.Move {
	if prev == board.NoMove {
		return board.NoMove
	}
	pc := pos.PieceAt(prev.To())
	if pc == board.NoPiece {
		return board.NoMove
	}
	return o.counters[pc][prev.To()]
}

// OrderCaptures sorts a capture list by descending SEE for the
// quiescence search and returns the SEE values in final order.
func OrderCaptures(pos *board.Position, moves *board.MoveList) []int {
	n := moves.Len()
	type scored struct {
		m   board.Move
		see int
	}
	list := make([]scored, n)
	for i := 0; i < n; i++ {
		list[i] = scored{moves.At(i), SEE(pos, moves.At(i))}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].see > list[j].see })
	sees := make([]int, n)
	for i := range list {
		moves.Set(i, list[i].m)
		sees[i] = list[i].see
	}
	return sees
}
