package automation

import (
	"context"
	"sync"
)

// MockVerifier is a test double for Verifier.
type MockVerifier struct {
	VerifyFn func(ctx context.Context, kind ConditionKind, params map[string]string) (bool, error)
}

func (m *MockVerifier) Verify(ctx context.Context, kind ConditionKind, params map[string]string) (bool, error) {
	return m.VerifyFn(ctx, kind, params)
}

// MockActions is a test double for Actions. Unset function fields make the
// corresponding action a recorded no-op.
type MockActions struct {
	RenewFileFn         func(ctx context.Context, fileID string, additionalDays int) error
	GrantAccessFn       func(ctx context.Context, fileID, address string, permissions []string, grantedBy string) error
	TransferOwnershipFn func(ctx context.Context, fileID, newOwner, transferredBy string) error
	UnlockAccessFn      func(ctx context.Context, fileID, address string) error

	mu             sync.Mutex
	RenewCalls     int
	GrantCalls     int
	TransferCalls  int
	UnlockCalls    int
}

func (m *MockActions) RenewFile(ctx context.Context, fileID string, additionalDays int) error {
	m.mu.Lock()
	m.RenewCalls++
	m.mu.Unlock()
	if m.RenewFileFn == nil {
		return nil
	}
	return m.RenewFileFn(ctx, fileID, additionalDays)
}

func (m *MockActions) GrantAccess(ctx context.Context, fileID, address string, permissions []string, grantedBy string) error {
	m.mu.Lock()
	m.GrantCalls++
	m.mu.Unlock()
	if m.GrantAccessFn == nil {
		return nil
	}
	return m.GrantAccessFn(ctx, fileID, address, permissions, grantedBy)
}

func (m *MockActions) TransferOwnership(ctx context.Context, fileID, newOwner, transferredBy string) error {
	m.mu.Lock()
	m.TransferCalls++
	m.mu.Unlock()
	if m.TransferOwnershipFn == nil {
		return nil
	}
	return m.TransferOwnershipFn(ctx, fileID, newOwner, transferredBy)
}

func (m *MockActions) UnlockAccess(ctx context.Context, fileID, address string) error {
	m.mu.Lock()
	m.UnlockCalls++
	m.mu.Unlock()
	if m.UnlockAccessFn == nil {
		return nil
	}
	return m.UnlockAccessFn(ctx, fileID, address)
}
