package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/dgraph-io/badger/v4"
	"github.com/jamesainslie/smartzip/pkg/smartzip/logging"
)

// ErrNotFound is returned when a cache entry doesn't exist.
var ErrNotFound = errors.New("cache entry not found")

var logger = logging.Get("cache")

// Store wraps Badger for ratio lookups. It satisfies advisor.Cache.
type Store struct {
	db *badger.DB
}

// DefaultPath returns $XDG_CACHE_HOME/smartzip/ratios.
func DefaultPath() string {
	return filepath.Join(xdg.CacheHome, "smartzip", "ratios")
}

// OpenStore opens or creates a store at the given directory.
func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get retrieves the entry recorded for path.
func (s *Store) Get(path string) (*RatioEntry, error) {
	var entry RatioEntry

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(MakeKey(path))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(entry.Decode)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Put records an entry for path.
func (s *Store) Put(path string, entry *RatioEntry) error {
	value, err := entry.Encode()
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(MakeKey(path), value)
	})
}

// Delete removes the entry for path.
func (s *Store) Delete(path string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(MakeKey(path))
	})
}

// Lookup returns the cached ratio when size and mtime match exactly.
func (s *Store) Lookup(path string, size int64, modTime time.Time) (float64, bool) {
	entry, err := s.Get(path)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Warn("cache lookup failed", "path", path, "error", err)
		}
		return 0, false
	}
	if entry.Version != CacheVersion || entry.Size != size || entry.Mtime != modTime.UnixNano() {
		return 0, false
	}
	return entry.Ratio, true
}

// Store records a ratio measured for path at the given size and mtime.
func (s *Store) Store(path string, size int64, modTime time.Time, ratio float64) error {
	return s.Put(path, &RatioEntry{
		Version: CacheVersion,
		Size:    size,
		Mtime:   modTime.UnixNano(),
		Ratio:   ratio,
	})
}

// Purge removes every ratio entry.
func (s *Store) Purge() error {
	prefix := []byte(keyPrefix)
	return s.db.DropPrefix(prefix)
}

// Count returns the number of ratio entries.
func (s *Store) Count() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}
