package catalog

import "sync"

// MockPersistence is a test double for Persistence. Unset function fields
// fall back to an in-memory snapshot slot.
type MockPersistence struct {
	LoadSnapshotFn func() (*Snapshot, error)
	SaveSnapshotFn func(*Snapshot) error

	mu        sync.Mutex
	saved     *Snapshot
	LoadCalls int
	SaveCalls int
}

func (m *MockPersistence) LoadSnapshot() (*Snapshot, error) {
	m.mu.Lock()
	m.LoadCalls++
	saved := m.saved
	m.mu.Unlock()
	if m.LoadSnapshotFn != nil {
		return m.LoadSnapshotFn()
	}
	return saved, nil
}

func (m *MockPersistence) SaveSnapshot(snap *Snapshot) error {
	m.mu.Lock()
	m.SaveCalls++
	m.mu.Unlock()
	if m.SaveSnapshotFn != nil {
		return m.SaveSnapshotFn(snap)
	}
	m.mu.Lock()
	m.saved = snap
	m.mu.Unlock()
	return nil
}

// Saved returns the most recently saved snapshot.
func (m *MockPersistence) Saved() *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved
}
