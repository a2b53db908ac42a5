package engine

import (
	"sync/atomic"
	"time"

	"github.com/peregrine-chess/peregrine/internal/board"
)

const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128
)

// Pruning gates.
const (
	nullMoveMinDepth  = 3
	nullMoveReduction = 2
	futilityMargin    = 150
	razorMargin       = 300
	razorMaxDepth     = 2
	probcutMinDepth   = 4
	probcutMargin     = 100
	probcutReduction  = 4
)

// pvHintLimit bounds the principal variation hint map; when it fills
// up it is dropped wholesale, the TT keeps the important entries.
const pvHintLimit = 1 << 20

// searcher holds the per-search state for one recursive descent. It
// is owned by a single Engine and reused across invocations.
type searcher struct {
	pos     *board.Position
	tt      *TranspositionTable
	eval    *Evaluator
	orderer *Orderer

	// pvHints maps a position hash to its best move, consulted as an
	// ordering hint when the TT has nothing deeper.
	pvHints map[uint64]board.Move

	// hashes is the game history followed by the current search path,
	// used for repetition detection.
	hashes []uint64

	// moveAt[ply] is the move that led to the node at that ply.
	moveAt [MaxPly + 2]board.Move

	pv    [MaxPly + 1][MaxPly + 1]board.Move
	pvLen [MaxPly + 1]int

	nodes     uint64
	nodeCap   uint64
	deadline  time.Time
	cancelled bool
	stop      *atomic.Bool
}

func newSearcher(tt *TranspositionTable, eval *Evaluator, orderer *Orderer) *searcher {
	return &searcher{
		tt:      tt,
		eval:    eval,
		orderer: orderer,
		pvHints: make(map[uint64]board.Move),
	}
}

// checkAbort polls the budget at node entry. Once it trips, every
// frame on the stack unwinds without storing anything new.
func (s *searcher) checkAbort() bool {
	if s.cancelled {
		return true
	}
	if s.nodeCap > 0 && s.nodes >= s.nodeCap {
		s.cancelled = true
		return true
	}
	if s.nodes&1023 == 0 {
		if s.stop != nil && s.stop.Load() {
			s.cancelled = true
			return true
		}
		if !s.deadline.IsZero() && time.Now().After(s.deadline) {
			s.cancelled = true
			return true
		}
	}
	return false
}

// isRepetition reports whether the current position already occurred
// twice earlier in the game or search path.
func (s *searcher) isRepetition() bool {
	n := len(s.hashes) - 1
	limit := s.pos.HalfMoveClock
	seen := 0
	for i := n - 1; i >= 0 && n-i <= limit; i-- {
		if s.hashes[i] == s.pos.Hash {
			seen++
			if seen >= 2 {
				return true
			}
		}
	}
	return false
}

func (s *searcher) push(m board.Move, ply int) board.Undo {
	u := s.pos.MakeMove(m)
	s.hashes = append(s.hashes, s.pos.Hash)
	s.moveAt[ply+1] = m
	return u
}

func (s *searcher) pop(m board.Move, u board.Undo) {
	s.pos.UnmakeMove(m, u)
	s.hashes = s.hashes[:len(s.hashes)-1]
}

func (s *searcher) rememberPV(hash uint64, m board.Move) {
	if len(s.pvHints) >= pvHintLimit {
		s.pvHints = make(map[uint64]board.Move)
	}
	s.pvHints[hash] = m
}

func (s *searcher) updatePV(ply int, m board.Move) {
	s.pv[ply][0] = m
	copy(s.pv[ply][1:], s.pv[ply+1][:s.pvLen[ply+1]])
	s.pvLen[ply] = s.pvLen[ply+1] + 1
}

// negamax is the principal variation search. The score is from the
// side to move's perspective; a cancelled search returns a value that
// callers must discard.
func (s *searcher) negamax(depth, ply, alpha, beta int) int {
	s.nodes++
	if s.checkAbort() {
		return 0
	}
	s.pvLen[ply] = 0

	if ply > 0 {
		if s.isRepetition() || s.pos.HalfMoveClock >= 100 || s.pos.InsufficientMaterial() {
			return 0
		}
		if ply >= MaxPly {
			return s.eval.Evaluate(s.pos)
		}

		// Mate distance pruning: even a forced mate here cannot beat
		// one already found closer to the root.
		if alpha < -MateScore+ply {
			alpha = -MateScore + ply
		}
		if beta > MateScore-ply {
			beta = MateScore - ply
		}
		if alpha >= beta {
			return alpha
		}
	}

	alphaOrig := alpha
	hash := s.pos.Hash

	var ttMove board.Move
	if e, ok := s.tt.Probe(hash); ok {
		ttMove = e.BestMove
		if ply > 0 && int(e.Depth) >= depth {
			score := scoreFromTT(int(e.Score), ply)
			switch e.Bound {
			case BoundExact:
				return score
			case BoundLower:
				if score > alpha {
					alpha = score
				}
			case BoundUpper:
				if score < beta {
					beta = score
				}
			}
			if alpha >= beta {
				return score
			}
		}
	}

	inCheck := s.pos.InCheck()
	if inCheck {
		depth++
	}

	if depth <= 0 {
		return s.quiescence(ply, alpha, beta)
	}

	if !inCheck && ply > 0 {
		static := s.eval.Evaluate(s.pos)

		// Razoring: hopeless shallow nodes drop to quiescence.
		if depth <= razorMaxDepth && static+razorMargin < alpha {
			return s.quiescence(ply, alpha, beta)
		}

		// Futility: at the frontier, a static eval so far below alpha
		// that no quiet move can recover.
		if depth == 1 && static+futilityMargin < alpha {
			return alpha
		}

		// Null move: hand the opponent a free move; if the reduced
		// search still fails high the real position surely would.
		if depth >= nullMoveMinDepth && s.pos.HasNonPawnMaterial() && beta < MateScore-MaxPly {
			u := s.pos.MakeNullMove()
			s.hashes = append(s.hashes, s.pos.Hash)
			s.moveAt[ply+1] = board.NoMove
			score := -s.negamax(depth-1-nullMoveReduction, ply+1, -beta, -beta+1)
			s.hashes = s.hashes[:len(s.hashes)-1]
			s.pos.UnmakeNullMove(u)
			if s.cancelled {
				return 0
			}
			if score >= beta {
				return beta
			}
		}

		// ProbCut: the first clearly winning capture gets a reduced
		// verification search against a raised beta.
		if depth >= probcutMinDepth && abs(beta) < MateScore-MaxPly {
			rBeta := beta + probcutMargin
			caps := s.pos.CaptureMoves()
			for i := 0; i < caps.Len(); i++ {
				m := caps.At(i)
				if SEE(s.pos, m) <= 0 {
					continue
				}
				u := s.push(m, ply)
				score := -s.negamax(depth-probcutReduction, ply+1, -rBeta, -rBeta+1)
				s.pop(m, u)
				if s.cancelled {
					return 0
				}
				if score >= rBeta {
					return rBeta
				}
				break
			}
		}
	}

	moves := s.pos.LegalMoves()
	if moves.Len() == 0 {
		if inCheck {
			return -MateScore + ply
		}
		return 0
	}

	hint := ttMove
	if hint == board.NoMove {
		hint = s.pvHints[hash]
	}
	s.orderer.Order(s.pos, moves, ply, hint, s.moveAt[ply])

	bestScore := -Infinity
	bestMove := board.NoMove

	for i := 0; i < moves.Len(); i++ {
		m := moves.At(i)
		quiet := !s.pos.IsCapture(m) && m.Flag() != board.FlagPromotion

		u := s.push(m, ply)
		var score int
		if i == 0 {
			score = -s.negamax(depth-1, ply+1, -beta, -alpha)
		} else {
			score = -s.negamax(depth-1, ply+1, -alpha-1, -alpha)
			if score > alpha && score < beta {
				score = -s.negamax(depth-1, ply+1, -beta, -alpha)
			}
		}
		s.pop(m, u)

		if s.cancelled {
			return 0
		}

		if score > bestScore {
			bestScore = score
			bestMove = m
		}
		if score > alpha {
			alpha = score
			s.updatePV(ply, m)
		}
		if alpha >= beta {
			if quiet {
				s.orderer.RecordCutoff(s.pos, m, s.moveAt[ply], ply, depth)
			}
			break
		}
	}

	var bound Bound
	switch {
	case bestScore >= beta:
		bound = BoundLower
	case bestScore <= alphaOrig:
		bound = BoundUpper
	default:
		bound = BoundExact
	}
	s.tt.Store(hash, depth, scoreToTT(bestScore, ply), bound, bestMove)
	if bestMove != board.NoMove {
		s.rememberPV(hash, bestMove)
	}

	return bestScore
}

// quiescence resolves captures until the position is quiet. The
// standing pat score is a lower bound: the side to move can always
// decline to capture. The TT is not consulted here.
func (s *searcher) quiescence(ply, alpha, beta int) int {
	s.nodes++
	if s.checkAbort() {
		return 0
	}

	standPat := s.eval.Evaluate(s.pos)
	if standPat >= beta {
		return beta
	}
	if standPat > alpha {
		alpha = standPat
	}
	if ply >= MaxPly {
		return alpha
	}

	caps := s.pos.CaptureMoves()
	sees := OrderCaptures(s.pos, caps)

	for i := 0; i < caps.Len(); i++ {
		// A priori losing exchanges are skipped; SEE-ordered, the
		// rest of the list is losing too.
		if sees[i] < 0 {
			break
		}
		m := caps.At(i)
		u := s.pos.MakeMove(m)
		score := -s.quiescence(ply+1, -beta, -alpha)
		s.pos.UnmakeMove(m, u)

		if s.cancelled {
			return 0
		}
		if score >= beta {
			return beta
		}
		if score > alpha {
			alpha = score
		}
	}
	return alpha
}
