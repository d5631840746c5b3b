package blob

import "context"

// MockSink is a test double for Sink.
// Function fields must be set before the corresponding method is called.
type MockSink struct {
	PutFn func(ctx context.Context, data []byte) (string, error)
	GetFn func(ctx context.Context, ref string) ([]byte, error)
}

func (m *MockSink) Put(ctx context.Context, data []byte) (string, error) {
	return m.PutFn(ctx, data)
}

func (m *MockSink) Get(ctx context.Context, ref string) ([]byte, error) {
	return m.GetFn(ctx, ref)
}
