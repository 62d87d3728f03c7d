package persist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store holds one serialized record. Load returns (nil, nil) when nothing
// has been saved yet. Save replaces the whole record.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// MemoryStore keeps the record in memory.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte

	// SaveErr, when set, is returned by every Save.
	SaveErr error
	saves   int
}

// NewMemoryStore returns a store seeded with data (may be nil).
func NewMemoryStore(data []byte) *MemoryStore {
	return &MemoryStore{data: data}
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil, nil
	}
	return append([]byte(nil), s.data...), nil
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.data = append([]byte(nil), data...)
	s.saves++
	return nil
}

// Saves returns the number of successful writes.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// FileStore keeps the record in a single JSON file, written atomically via a
// temp file and rename.
type FileStore struct {
	Path string
}

// Load implements Store.
func (s FileStore) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}
	return data, nil
}

// Save implements Store.
func (s FileStore) Save(_ context.Context, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
