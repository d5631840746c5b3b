package ledger

import (
	"context"
	"sync"
)

// MockClient is a test double for Client.
// Function fields must be set before the corresponding method is called.
// Call counts are tracked so tests can assert how many commits an
// operation performed.
type MockClient struct {
	CommitRecordFn func(ctx context.Context, data []byte) (string, error)
	FetchRecordFn  func(ctx context.Context, ref string) ([]byte, error)

	mu           sync.Mutex
	CommitCalls  int
	FetchCalls   int
	CommittedLen []int // payload sizes, in commit order
}

func (m *MockClient) CommitRecord(ctx context.Context, data []byte) (string, error) {
	m.mu.Lock()
	m.CommitCalls++
	m.CommittedLen = append(m.CommittedLen, len(data))
	m.mu.Unlock()
	return m.CommitRecordFn(ctx, data)
}

func (m *MockClient) FetchRecord(ctx context.Context, ref string) ([]byte, error) {
	m.mu.Lock()
	m.FetchCalls++
	m.mu.Unlock()
	return m.FetchRecordFn(ctx, ref)
}
