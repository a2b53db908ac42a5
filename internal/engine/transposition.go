package engine

import "github.com/peregrine-chess/peregrine/internal/board"

// Bound classifies a transposition table score.
type Bound uint8

const (
	BoundExact Bound = iota
	BoundLower       // score failed high, true value >= Score
	BoundUpper       // score failed low, true value <= Score
)

// TTEntry is one slot of the transposition table. The full 64-bit key
// is kept for verification, so index collisions never surface wrong
// scores.
type TTEntry struct {
	Key      uint64
	BestMove board.Move
	Score    int16
	Depth    int8
	Bound    Bound
	Age      uint8
}

// TranspositionTable is a fixed-capacity hash table of search
// results. It is owned by a single engine instance and mutated by one
// search goroutine, so access is unsynchronized.
type TranspositionTable struct {
	entries []TTEntry
	mask    uint64
	age     uint8
}

// NewTranspositionTable allocates a table of the given size in MB,
// rounded down to a power-of-two entry count.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	entrySize := 16
	numEntries := sizeMB * 1024 * 1024 / entrySize
	size := 1
	for size*2 <= numEntries {
		size *= 2
	}
	return &TranspositionTable{
		entries: make([]TTEntry, size),
		mask:    uint64(size - 1),
	}
}

// Probe returns the entry for hash if one is stored.
func (tt *TranspositionTable) Probe(hash uint64) (TTEntry, bool) {
	e := tt.entries[hash&tt.mask]
	if e.Key == hash && e.Depth > 0 {
		return e, true
	}
	return TTEntry{}, false
}

// Store writes an entry. A stale occupant (older search) is always
// replaced; a current one only by an equal or deeper result.
func (tt *TranspositionTable) Store(hash uint64, depth, score int, bound Bound, best board.Move) {
	e := &tt.entries[hash&tt.mask]
	// Depth-preferred within the current generation; anything from an
	// earlier search is always replaceable.
	if e.Age == tt.age && e.Key != hash && int(e.Depth) > depth {
		return
	}
	e.Key = hash
	e.BestMove = best
	e.Score = int16(score)
	e.Depth = int8(depth)
	e.Bound = bound
	e.Age = tt.age
}

// NewSearch bumps the generation counter so entries from earlier
// searches become replaceable.
func (tt *TranspositionTable) NewSearch() {
	tt.age++
}

// Clear wipes the table.
func (tt *TranspositionTable) Clear() {
	for i := range tt.entries {
		tt.entries[i] = TTEntry{}
	}
	tt.age = 0
}

// HashFull samples the table and returns the permille in use for the
// current search generation.
func (tt *TranspositionTable) HashFull() int {
	sample := 1000
	if sample > len(tt.entries) {
		sample = len(tt.entries)
	}
	used := 0
	for i := 0; i < sample; i++ {
		if tt.entries[i].Depth > 0 && tt.entries[i].Age == tt.age {
			used++
		}
	}
	return used * 1000 / sample
}

// Mate scores are stored relative to the node that found them, not to
// the root, so the distance-to-mate stays correct when the entry is
// reused at a different ply.

func scoreToTT(score, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -MateScore+MaxPly {
		return score - ply
	}
	return score
}

func scoreFromTT(score, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -MateScore+MaxPly {
		return score + ply
	}
	return score
}
