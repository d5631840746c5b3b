// Package persist provides catalog snapshot stores: a human-readable JSON
// file store and a bbolt-backed store. Both tolerate a missing or
// corrupted snapshot at load time by reporting no snapshot, so the catalog
// starts empty instead of failing.
package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ledgerfsorg/libledgerfs-go/catalog"
)

// JSONStore persists the catalog snapshot as a single JSON document,
// written atomically via a temp-file rename.
type JSONStore struct {
	path string
	mu   sync.Mutex
}

// Compile-time interface check.
var _ catalog.Persistence = (*JSONStore)(nil)

// NewJSONStore creates a store writing to the given file path. The parent
// directory is created if it does not exist.
func NewJSONStore(path string) (*JSONStore, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("persist: create directory: %w", err)
	}
	return &JSONStore{path: path}, nil
}

// LoadSnapshot reads the snapshot file. A missing or unparseable file
// yields nil, nil.
func (s *JSONStore) LoadSnapshot() (*catalog.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, nil
	}

	var snap catalog.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		// Corrupted snapshots start the catalog empty.
		return nil, nil
	}
	return &snap, nil
}

// SaveSnapshot writes the snapshot, replacing any previous one.
func (s *JSONStore) SaveSnapshot(snap *catalog.Snapshot) error {
	if snap == nil {
		return ErrNilSnapshot
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("persist: encode snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("persist: write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("persist: replace snapshot: %w", err)
	}
	return nil
}
