package engine

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/peregrine-chess/peregrine/internal/board"
)

// PawnEntry stores one side's cached pawn structure scores.
type PawnEntry struct {
	Key     uint64
	MgScore int16
	EgScore int16
}

// PawnTable memoizes per-side pawn structure evaluation keyed by a
// hash of that side's pawn occupancy. Pure memoization: an entry may
// be overwritten at any time, correctness only requires that a hit
// returns the value computed for that exact occupancy.
type PawnTable struct {
	entries []PawnEntry
	mask    uint64
}

// NewPawnTable creates a pawn table with the given size in MB.
func NewPawnTable(sizeMB int) *PawnTable {
	entrySize := 16
	numEntries := sizeMB * 1024 * 1024 / entrySize
	size := 1
	for size*2 <= numEntries {
		size *= 2
	}
	return &PawnTable{
		entries: make([]PawnEntry, size),
		mask:    uint64(size - 1),
	}
}

// PawnKey hashes one side's pawn occupancy. The color is folded in so
// the two sides never alias each other's entries.
func PawnKey(pawns board.Bitboard, c board.Color) uint64 {
	var buf [9]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(pawns))
	buf[8] = byte(c)
	return xxhash.Sum64(buf[:])
}

// Probe returns the cached scores for key, if present.
func (pt *PawnTable) Probe(key uint64) (mg, eg int, ok bool) {
	e := &pt.entries[key&pt.mask]
	if e.Key == key {
		return int(e.MgScore), int(e.EgScore), true
	}
	return 0, 0, false
}

// Store saves the scores for key, overwriting any previous occupant.
func (pt *PawnTable) Store(key uint64, mg, eg int) {
	e := &pt.entries[key&pt.mask]
	e.Key = key
	e.MgScore = int16(mg)
	e.EgScore = int16(eg)
}

// Clear drops every cached entry.
func (pt *PawnTable) Clear() {
	for i := range pt.entries {
		pt.entries[i] = PawnEntry{}
	}
}
