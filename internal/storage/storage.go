// Package storage provides the persistent key-value store backing the
// storefront state managers. Values are JSON-encoded files in a state
// directory, one file per key. Persistence is best-effort: every failure is
// logged and reported through the boolean return, never raised, so callers
// must not block core logic on it succeeding.
package storage

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Keys for the state slices owned by the storefront managers. Each manager
// owns its key exclusively; absence of a key means "empty/default".
const (
	KeyCart         = "cart"
	KeyWishlist     = "wishlist"
	KeyUser         = "user"
	KeyOrderHistory = "order_history"
)

// Store is a file-backed key-value store. Safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	dir    string
	logger *slog.Logger
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string, logger *slog.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

// Get reads the value stored under key into dst and reports whether dst was
// populated. A missing key, an unavailable store, or a decode failure leaves
// dst untouched and returns false; decode failures are logged.
func (s *Store) Get(key string, dst any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("failed to read stored value", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.Warn("failed to decode stored value", "key", key, "error", err)
		return false
	}
	return true
}

// Set stores the JSON encoding of v under key and reports success.
func (s *Store) Set(key string, v any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("failed to encode value", "key", key, "error", err)
		return false
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.logger.Warn("failed to create state directory", "dir", s.dir, "error", err)
		return false
	}
	// Write-then-rename keeps a crash from leaving a half-written file behind.
	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		s.logger.Warn("failed to write stored value", "key", key, "error", err)
		return false
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		s.logger.Warn("failed to replace stored value", "key", key, "error", err)
		return false
	}
	return true
}

// Remove deletes the value stored under key and reports success. Removing an
// absent key succeeds.
func (s *Store) Remove(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("failed to remove stored value", "key", key, "error", err)
		return false
	}
	return true
}

// Available probes whether the store can currently persist values.
func (s *Store) Available() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return false
	}
	probe, err := os.CreateTemp(s.dir, ".available-*")
	if err != nil {
		return false
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return true
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}
