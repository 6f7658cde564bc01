package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog/log"
)

// Badger backs core.Cache with an embedded badger store. TTLs ride on
// badger's native entry expiry; the counter uses a read-modify-write
// inside one update transaction, which badger serializes per key.
type Badger struct {
	db *badger.DB
}

// OpenBadger opens (or creates) the store at path. Empty path opens an
// in-memory store, useful for tests and cache-less deployments.
func OpenBadger(path string) (*Badger, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}
	log.Info().Str("module", "cache.badger").Str("path", path).Msg("cache opened")
	return &Badger{db: db}, nil
}

func (b *Badger) Close() error { return b.db.Close() }

func (b *Badger) Get(_ context.Context, key string) ([]byte, bool, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %q: %w", key, err)
	}
	return out, true, nil
}

func (b *Badger) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("cache set %q: %w", key, err)
	}
	return nil
}

func (b *Badger) Delete(_ context.Context, key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("cache delete %q: %w", key, err)
	}
	return nil
}

func (b *Badger) IncrWithTTL(_ context.Context, key string, window time.Duration) (int64, error) {
	var n int64
	err := b.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			n = 1
			return txn.SetEntry(badger.NewEntry([]byte(key), encodeCount(1)).WithTTL(window))
		case err != nil:
			return err
		}

		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		cur, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			cur = 0
		}
		n = cur + 1

		// Keep the original expiry so increments never stretch the window.
		e := badger.NewEntry([]byte(key), encodeCount(n))
		if exp := item.ExpiresAt(); exp > 0 {
			remaining := time.Until(time.Unix(int64(exp), 0))
			if remaining <= 0 {
				n = 1
				e = badger.NewEntry([]byte(key), encodeCount(1)).WithTTL(window)
			} else {
				e = e.WithTTL(remaining)
			}
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return 0, fmt.Errorf("cache incr %q: %w", key, err)
	}
	return n, nil
}

func encodeCount(n int64) []byte {
	return []byte(strconv.FormatInt(n, 10))
}
