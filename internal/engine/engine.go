package engine

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/peregrine-chess/peregrine/internal/board"
)

// BookOracle answers with a prepared move for positions it knows.
type BookOracle interface {
	Probe(pos *board.Position) (board.Move, bool)
}

// TablebaseOracle answers with a proven best move once few enough
// pieces remain.
type TablebaseOracle interface {
	ProbeRoot(pos *board.Position) (board.Move, bool)
	MaxPieces() int
}

// SearchInfo is the per-depth progress report.
type SearchInfo struct {
	Depth    int
	Score    int
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int
}

// Aspiration window parameters: open a narrow window around the
// previous depth's score from this depth on, with one full-window
// re-search when the result lands outside it.
const (
	aspirationMinDepth = 4
	aspirationWindow   = 50
)

// Engine bundles every table and heuristic one search instance owns.
// Instances are independent; nothing is shared at package level, so
// several engines can coexist in one process.
type Engine struct {
	tt       *TranspositionTable
	eval     *Evaluator
	orderer  *Orderer
	searcher *searcher

	book      BookOracle
	tablebase TablebaseOracle

	moveOverhead time.Duration
	nodeLimit    uint64
	history      []uint64
	lastMove     board.Move

	stop atomic.Bool
	log  zerolog.Logger

	// OnInfo, when set, receives a progress report after every
	// completed depth.
	OnInfo func(SearchInfo)
}

// New creates an engine with the given transposition table size in MB.
func New(hashMB int, log zerolog.Logger) *Engine {
	tt := NewTranspositionTable(hashMB)
	eval := NewEvaluator(4)
	orderer := NewOrderer()
	return &Engine{
		tt:       tt,
		eval:     eval,
		orderer:  orderer,
		searcher: newSearcher(tt, eval, orderer),
		log:      log,
	}
}

// SetBook installs the opening book oracle; nil disables it.
func (e *Engine) SetBook(b BookOracle) { e.book = b }

// SetTablebase installs the endgame tablebase oracle; nil disables it.
func (e *Engine) SetTablebase(t TablebaseOracle) { e.tablebase = t }

// SetMoveOverhead reserves wall-clock slack per move for transport
// latency between the engine and its operator.
func (e *Engine) SetMoveOverhead(d time.Duration) { e.moveOverhead = d }

// SetNodeLimit caps every search at n nodes; 0 removes the cap.
func (e *Engine) SetNodeLimit(n uint64) { e.nodeLimit = n }

// ResizeHash replaces the transposition table with one of the given
// size in MB.
func (e *Engine) ResizeHash(sizeMB int) {
	e.tt = NewTranspositionTable(sizeMB)
	e.searcher.tt = e.tt
}

// SetHistory provides the hashes of every position of the game so
// far, root included, for repetition detection. lastMove is the move
// that produced the current position, used as counter-move context.
func (e *Engine) SetHistory(hashes []uint64, lastMove board.Move) {
	e.history = append(e.history[:0], hashes...)
	e.lastMove = lastMove
}

// Stop aborts the search in flight; the best move from the last
// completed depth is still returned.
func (e *Engine) Stop() { e.stop.Store(true) }

// NewGame clears every table for a fresh game.
func (e *Engine) NewGame() {
	e.tt.Clear()
	e.eval.Clear()
	e.orderer.Clear()
	e.searcher.pvHints = make(map[uint64]board.Move)
	e.history = nil
	e.lastMove = board.NoMove
}

// Nodes reports the node count of the last search.
func (e *Engine) Nodes() uint64 { return e.searcher.nodes }

// Evaluate exposes the static evaluation, for debugging commands.
func (e *Engine) Evaluate(pos *board.Position) int { return e.eval.Evaluate(pos) }

// BestMove picks a move for the position within the given limits. It
// consults the book and tablebase oracles before searching, never
// panics, and returns NoMove only when the position has no legal move.
func (e *Engine) BestMove(pos *board.Position, limits Limits) (best board.Move) {
	legal := pos.LegalMoves()
	if legal.Len() == 0 {
		return board.NoMove
	}

	// Whatever goes wrong below, answer with a legal move.
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Msg("search fault, falling back to first legal move")
			best = legal.At(0)
		}
		if best == board.NoMove {
			best = legal.At(0)
		}
	}()

	if e.book != nil {
		if m, ok := e.book.Probe(pos); ok && inList(legal, m) {
			e.log.Debug().Stringer("move", m).Msg("book hit")
			return m
		}
	}
	if e.tablebase != nil && pos.AllOccupied().Count() <= e.tablebase.MaxPieces() {
		if m, ok := e.tablebase.ProbeRoot(pos); ok && inList(legal, m) {
			e.log.Debug().Stringer("move", m).Msg("tablebase hit")
			return m
		}
	}

	return e.search(pos, limits)
}

func inList(ml *board.MoveList, m board.Move) bool {
	for i := 0; i < ml.Len(); i++ {
		if ml.At(i) == m {
			return true
		}
	}
	return false
}

// search runs iterative deepening with aspiration windows and keeps
// the best move of the last fully completed depth.
func (e *Engine) search(pos *board.Position, limits Limits) board.Move {
	start := time.Now()
	e.stop.Store(false)
	e.tt.NewSearch()
	e.orderer.NewSearch()

	s := e.searcher
	s.pos = pos.Copy()
	s.hashes = append(s.hashes[:0], e.history...)
	if len(s.hashes) == 0 {
		s.hashes = append(s.hashes, s.pos.Hash)
	}
	s.moveAt[0] = e.lastMove
	s.nodes = 0
	s.cancelled = false
	s.stop = &e.stop

	budget := timeBudget(limits, pos.SideToMove, pos.FullMoveNumber*2, e.moveOverhead)
	if budget > 0 {
		s.deadline = start.Add(budget)
	} else {
		s.deadline = time.Time{}
	}
	s.nodeCap = limits.Nodes
	if e.nodeLimit > 0 && (s.nodeCap == 0 || e.nodeLimit < s.nodeCap) {
		s.nodeCap = e.nodeLimit
	}

	maxDepth := MaxPly - 1
	if limits.Depth > 0 && limits.Depth < maxDepth {
		maxDepth = limits.Depth
	}

	var bestMove board.Move
	var bestScore int

	for depth := 1; depth <= maxDepth; depth++ {
		alpha, beta := -Infinity, Infinity
		if depth >= aspirationMinDepth && bestMove != board.NoMove {
			alpha = bestScore - aspirationWindow
			beta = bestScore + aspirationWindow
		}

		score := s.negamax(depth, 0, alpha, beta)
		if !s.cancelled && (score <= alpha || score >= beta) {
			// Landed outside the aspiration window: one full-window
			// re-search at the same depth.
			score = s.negamax(depth, 0, -Infinity, Infinity)
		}
		if s.cancelled {
			break
		}

		move := e.completedMove(s)
		if move == board.NoMove {
			break
		}
		bestMove = move
		bestScore = score

		if e.OnInfo != nil {
			pv := make([]board.Move, s.pvLen[0])
			copy(pv, s.pv[0][:s.pvLen[0]])
			e.OnInfo(SearchInfo{
				Depth:    depth,
				Score:    bestScore,
				Nodes:    s.nodes,
				Time:     time.Since(start),
				PV:       pv,
				HashFull: e.tt.HashFull(),
			})
		}

		if bestScore > MateScore-MaxPly || bestScore < -MateScore+MaxPly {
			break
		}
		if budget > 0 && time.Since(start) > budget*9/10 {
			break
		}
	}

	e.log.Debug().
		Int("score", bestScore).
		Uint64("nodes", s.nodes).
		Dur("elapsed", time.Since(start)).
		Stringer("move", bestMove).
		Msg("search finished")

	return bestMove
}

// completedMove extracts the root best move of the depth that just
// finished: the principal variation head, with the transposition
// entry as backup.
func (e *Engine) completedMove(s *searcher) board.Move {
	if s.pvLen[0] > 0 {
		return s.pv[0][0]
	}
	if entry, ok := e.tt.Probe(s.pos.Hash); ok {
		return entry.BestMove
	}
	return board.NoMove
}

// Perft exposes the board's move path enumeration for the protocol's
// debug command.
func (e *Engine) Perft(pos *board.Position, depth int) uint64 {
	return pos.Perft(depth)
}
