// Package book reads Polyglot opening books and serves weighted move
// picks for known positions.
package book

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"

	"github.com/peregrine-chess/peregrine/internal/board"
)

// Entry is one book move with its selection weight.
type Entry struct {
	Move   board.Move
	Weight uint16
}

// Book is an in-memory opening book indexed by Polyglot position key.
type Book struct {
	entries map[uint64][]Entry
}

// New creates an empty book.
func New() *Book {
	return &Book{entries: make(map[uint64][]Entry)}
}

// Load reads a Polyglot book file.
func Load(path string) (*Book, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("book: open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses Polyglot book entries from r: 16 bytes each, big
// endian, laid out as 8 key, 2 move, 2 weight, 4 learn data (ignored).
func Read(r io.Reader) (*Book, error) {
	b := New()
	var raw [16]byte
	for {
		if _, err := io.ReadFull(r, raw[:]); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("book: read entry: %w", err)
		}
		key := binary.BigEndian.Uint64(raw[0:8])
		move := decodeMove(binary.BigEndian.Uint16(raw[8:10]))
		weight := binary.BigEndian.Uint16(raw[10:12])
		if move != board.NoMove {
			b.entries[key] = append(b.entries[key], Entry{Move: move, Weight: weight})
		}
	}
	return b, nil
}

// decodeMove unpacks the Polyglot move encoding: to in bits 0-5
// (file then rank), from in bits 6-11, promotion in bits 12-14.
// Castling comes encoded king-takes-rook and is rewritten to the
// king-two-squares convention.
func decodeMove(data uint16) board.Move {
	to := board.MakeSquare(int(data&7), int(data>>3&7))
	from := board.MakeSquare(int(data>>6&7), int(data>>9&7))
	promo := data >> 12 & 7

	switch {
	case from == board.E1 && to == board.H1:
		to = board.G1
	case from == board.E1 && to == board.A1:
		to = board.C1
	case from == board.E8 && to == board.H8:
		to = board.G8
	case from == board.E8 && to == board.A8:
		to = board.C8
	}

	if promo > 0 && promo <= 4 {
		return board.NewPromotion(from, to, board.PieceType(promo))
	}
	return board.NewMove(from, to)
}

// Probe returns a move for the position, picked at random weighted by
// the book weights, and reports whether the position was found. The
// returned move is always taken from the position's legal move set.
func (b *Book) Probe(pos *board.Position) (board.Move, bool) {
	if b == nil {
		return board.NoMove, false
	}
	entries, ok := b.entries[pos.PolyglotHash()]
	if !ok || len(entries) == 0 {
		return board.NoMove, false
	}

	total := uint32(0)
	for _, e := range entries {
		total += uint32(e.Weight)
	}
	if total == 0 {
		return match(pos, entries[0].Move)
	}

	r := rand.Uint32() % total
	acc := uint32(0)
	for _, e := range entries {
		acc += uint32(e.Weight)
		if r < acc {
			return match(pos, e.Move)
		}
	}
	return match(pos, entries[0].Move)
}

// Moves returns every book move for the position, heaviest first.
func (b *Book) Moves(pos *board.Position) []Entry {
	if b == nil {
		return nil
	}
	entries := b.entries[pos.PolyglotHash()]
	out := make([]Entry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Weight > out[j].Weight })
	return out
}

// Size returns the number of distinct positions in the book.
func (b *Book) Size() int {
	if b == nil {
		return 0
	}
	return len(b.entries)
}

// match maps a decoded book move onto the matching legal move, which
// carries the correct castling and en passant flags.
func match(pos *board.Position, m board.Move) (board.Move, bool) {
	legal := pos.LegalMoves()
	for i := 0; i < legal.Len(); i++ {
		lm := legal.At(i)
		if lm.From() == m.From() && lm.To() == m.To() && lm.Promotion() == m.Promotion() {
			return lm, true
		}
	}
	return board.NoMove, false
}
