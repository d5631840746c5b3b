package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
)

// MemoryLedger is an in-process Client for tests and single-node use.
// Refs are the hex double-SHA256 of the record bytes, so committing the
// same record twice yields the same ref, and fetched bytes always hash
// back to their ref.
type MemoryLedger struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// Compile-time interface check.
var _ Client = (*MemoryLedger)(nil)

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{records: make(map[string][]byte)}
}

// RefForRecord computes the ref for record bytes: hex double-SHA256.
func RefForRecord(data []byte) string {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return hex.EncodeToString(second[:])
}

func validateRef(ref string) error {
	raw, err := hex.DecodeString(ref)
	if err != nil || len(raw) != sha256.Size {
		return fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return nil
}

// CommitRecord stores data under its content ref.
func (m *MemoryLedger) CommitRecord(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyRecord
	}
	if len(data) > MaxRecordSize {
		return "", fmt.Errorf("%w: %d bytes", ErrRecordTooLarge, len(data))
	}

	ref := RefForRecord(data)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[ref]; !exists {
		// Copy so callers can reuse their buffer after commit.
		stored := make([]byte, len(data))
		copy(stored, data)
		m.records[ref] = stored
	}

	return ref, nil
}

// FetchRecord returns the bytes committed under ref.
func (m *MemoryLedger) FetchRecord(ctx context.Context, ref string) ([]byte, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.records[ref]
	if !ok {
		return nil, fmt.Errorf("%w: ref %s", ErrRecordNotFound, ref)
	}

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Len reports the number of distinct committed records.
func (m *MemoryLedger) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
