// Package automation implements condition-gated rules attached to catalog
// entries. A rule carries an ordered list of conditions; when every
// condition in a rule evaluates true in the same pass, the rule's action
// fires. Rules stay active after firing unless explicitly deactivated, so
// periodic actions like auto-renewal fire on every satisfied sweep.
package automation

import (
	"context"
	"time"
)

// RuleKind selects the action a rule fires.
type RuleKind string

const (
	RuleAutoRenewal            RuleKind = "auto-renewal"
	RuleAccessControl          RuleKind = "access-control"
	RuleCollaborativeOwnership RuleKind = "collaborative-ownership"
	RuleConditionalAccess      RuleKind = "conditional-access"
)

// ValidRuleKind reports whether k is one of the four supported kinds.
func ValidRuleKind(k RuleKind) bool {
	switch k {
	case RuleAutoRenewal, RuleAccessControl, RuleCollaborativeOwnership, RuleConditionalAccess:
		return true
	}
	return false
}

// ConditionKind selects the predicate a condition evaluates.
type ConditionKind string

const (
	ConditionTime      ConditionKind = "time-based"
	ConditionPayment   ConditionKind = "payment-based"
	ConditionSignature ConditionKind = "signature-based"
	ConditionUsage     ConditionKind = "usage-based"
)

// ValidConditionKind reports whether k is one of the four supported kinds.
func ValidConditionKind(k ConditionKind) bool {
	switch k {
	case ConditionTime, ConditionPayment, ConditionSignature, ConditionUsage:
		return true
	}
	return false
}

// Condition is one predicate in a rule. Met and LastChecked record the
// outcome of the most recent evaluation and are updated on every pass,
// whether or not the rule as a whole fired.
type Condition struct {
	Kind        ConditionKind     `json:"kind"`
	Params      map[string]string `json:"parameters,omitempty"`
	Met         bool              `json:"isMet"`
	LastChecked time.Time         `json:"lastChecked"`
}

// Rule is a condition-gated action attached to one file.
type Rule struct {
	ID         string            `json:"id"`
	FileID     string            `json:"fileId"`
	Kind       RuleKind          `json:"kind"`
	Conditions []Condition       `json:"conditions"`
	Params     map[string]string `json:"parameters,omitempty"`
	Active     bool              `json:"isActive"`
	LedgerRef  string            `json:"ledgerRef,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// Verifier evaluates payment, signature and usage conditions against
// external state. Time conditions never reach the verifier; the engine
// evaluates them locally.
type Verifier interface {
	Verify(ctx context.Context, kind ConditionKind, params map[string]string) (bool, error)
}

// Actions performs the side effects a fired rule dispatches. The engine
// decides and dispatches; the implementation (the catalog) performs the
// storage and access mutations.
type Actions interface {
	RenewFile(ctx context.Context, fileID string, additionalDays int) error
	GrantAccess(ctx context.Context, fileID, address string, permissions []string, grantedBy string) error
	TransferOwnership(ctx context.Context, fileID, newOwner, transferredBy string) error
	UnlockAccess(ctx context.Context, fileID, address string) error
}
