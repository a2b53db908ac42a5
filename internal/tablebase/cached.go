package tablebase

import (
	"encoding/binary"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/peregrine-chess/peregrine/internal/board"
)

// CachedProber wraps another prober with a persistent on-disk cache,
// so identical endgame positions are only fetched once across engine
// runs. Verdicts never change for a position, which makes them safe
// to cache forever.
type CachedProber struct {
	inner Prober
	db    *badger.DB
	log   zerolog.Logger
}

// NewCachedProber opens (or creates) the cache database at dir and
// wraps inner with it.
func NewCachedProber(inner Prober, dir string, log zerolog.Logger) (*CachedProber, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(nil).
		WithIndexCacheSize(8 << 20)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("tablebase: open cache at %s: %w", dir, err)
	}
	return &CachedProber{inner: inner, db: db, log: log}, nil
}

// Close releases the cache database.
func (cp *CachedProber) Close() error {
	return cp.db.Close()
}

// Cache records are 6 bytes: 1 WDL (biased by +2), 4 DTZ, and the
// found flag is implied by presence. Root results append the 2-byte
// move.

func cacheKey(pos *board.Position, root bool) []byte {
	key := make([]byte, 9)
	binary.BigEndian.PutUint64(key, pos.Hash)
	if root {
		key[8] = 'r'
	} else {
		key[8] = 'p'
	}
	return key
}

func (cp *CachedProber) get(key []byte) ([]byte, bool) {
	var val []byte
	err := cp.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if err != badger.ErrKeyNotFound {
			cp.log.Debug().Err(err).Msg("tablebase cache read failed")
		}
		return nil, false
	}
	return val, true
}

func (cp *CachedProber) put(key, val []byte) {
	err := cp.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
	if err != nil {
		cp.log.Debug().Err(err).Msg("tablebase cache write failed")
	}
}

func (cp *CachedProber) Probe(pos *board.Position) ProbeResult {
	if CountPieces(pos) > cp.inner.MaxPieces() {
		return ProbeResult{}
	}

	key := cacheKey(pos, false)
	if val, ok := cp.get(key); ok && len(val) >= 5 {
		return ProbeResult{
			Found: true,
			WDL:   WDL(int(val[0]) - 2),
			DTZ:   int(int32(binary.BigEndian.Uint32(val[1:5]))),
		}
	}

	res := cp.inner.Probe(pos)
	if res.Found {
		val := make([]byte, 5)
		val[0] = byte(int(res.WDL) + 2)
		binary.BigEndian.PutUint32(val[1:5], uint32(int32(res.DTZ)))
		cp.put(key, val)
	}
	return res
}

func (cp *CachedProber) ProbeRoot(pos *board.Position) RootResult {
	if CountPieces(pos) > cp.inner.MaxPieces() {
		return RootResult{}
	}

	key := cacheKey(pos, true)
	if val, ok := cp.get(key); ok && len(val) >= 7 {
		m := board.Move(binary.BigEndian.Uint16(val[5:7]))
		// Stale or colliding entries must never inject an illegal
		// move into play.
		if legalHere(pos, m) {
			return RootResult{
				Found: true,
				Move:  m,
				WDL:   WDL(int(val[0]) - 2),
				DTZ:   int(int32(binary.BigEndian.Uint32(val[1:5]))),
			}
		}
	}

	res := cp.inner.ProbeRoot(pos)
	if res.Found {
		val := make([]byte, 7)
		val[0] = byte(int(res.WDL) + 2)
		binary.BigEndian.PutUint32(val[1:5], uint32(int32(res.DTZ)))
		binary.BigEndian.PutUint16(val[5:7], uint16(res.Move))
		cp.put(key, val)
	}
	return res
}

func (cp *CachedProber) MaxPieces() int { return cp.inner.MaxPieces() }

func (cp *CachedProber) Available() bool { return cp.inner.Available() }

func legalHere(pos *board.Position, m board.Move) bool {
	legal := pos.LegalMoves()
	for i := 0; i < legal.Len(); i++ {
		if legal.At(i) == m {
			return true
		}
	}
	return false
}
