package automation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultRenewDays is the renewal extension an auto-renewal rule applies
// when its parameters do not name one.
const DefaultRenewDays = 30

// Engine stores automation rules and drives their evaluate/execute cycle.
// The host calls SweepOnce on whatever cadence it chooses; the engine owns
// no timer of its own.
type Engine struct {
	mu       sync.Mutex
	rules    map[string]*Rule
	verifier Verifier
	actions  Actions
	clock    func() time.Time
	logger   *slog.Logger
}

// NewEngine creates an engine with the given collaborators. verifier may
// be nil if no rule uses payment, signature or usage conditions; actions
// may be nil if rules are only ever evaluated, never executed.
func NewEngine(verifier Verifier, actions Actions) *Engine {
	return &Engine{
		rules:    make(map[string]*Rule),
		verifier: verifier,
		actions:  actions,
		clock:    time.Now,
	}
}

// SetClock overrides the time source. Tests only.
func (e *Engine) SetClock(clock func() time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clock = clock
}

// SetLogger attaches a logger for sweep-time log-and-skip reporting.
func (e *Engine) SetLogger(logger *slog.Logger) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.logger = logger
}

// AddRule registers a new active rule and returns a copy of it.
func (e *Engine) AddRule(fileID string, kind RuleKind, conditions []Condition, params map[string]string, ledgerRef string) (*Rule, error) {
	if !ValidRuleKind(kind) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRuleKind, kind)
	}
	for _, c := range conditions {
		if !ValidConditionKind(c.Kind) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownConditionKind, c.Kind)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	r := &Rule{
		ID:         uuid.NewString(),
		FileID:     fileID,
		Kind:       kind,
		Conditions: copyConditions(conditions),
		Params:     copyParams(params),
		Active:     true,
		LedgerRef:  ledgerRef,
		CreatedAt:  e.clock(),
	}
	e.rules[r.ID] = r

	out := copyRule(r)
	return &out, nil
}

// Rule returns a copy of the rule with the given id.
func (e *Engine) Rule(id string) (*Rule, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, ok := e.rules[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	out := copyRule(r)
	return &out, nil
}

// Rules returns copies of the file's rules, ordered by creation time.
func (e *Engine) Rules(fileID string) []Rule {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []Rule
	for _, r := range e.rules {
		if r.FileID == fileID {
			out = append(out, copyRule(r))
		}
	}
	sortRules(out)
	return out
}

// Deactivate marks a rule inactive. Inactive rules are never evaluated.
func (e *Engine) Deactivate(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, ok := e.rules[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	r.Active = false
	return nil
}

// Evaluate runs every condition of the rule and returns the AND of their
// outcomes. Each condition's Met and LastChecked are persisted regardless
// of the rule-level result. A rule with zero conditions is vacuously true.
// A verifier failure aborts evaluation with the conditions checked so far
// already persisted.
func (e *Engine) Evaluate(ctx context.Context, id string) (bool, error) {
	e.mu.Lock()
	r, ok := e.rules[id]
	if !ok {
		e.mu.Unlock()
		return false, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	e.mu.Unlock()

	all := true
	for i := range r.Conditions {
		met, err := e.evaluateCondition(ctx, &r.Conditions[i])

		e.mu.Lock()
		r.Conditions[i].Met = met
		r.Conditions[i].LastChecked = e.clock()
		e.mu.Unlock()

		if err != nil {
			return false, fmt.Errorf("automation: rule %s condition %d: %w", id, i, err)
		}
		if !met {
			all = false
		}
	}
	return all, nil
}

func (e *Engine) evaluateCondition(ctx context.Context, c *Condition) (bool, error) {
	switch c.Kind {
	case ConditionTime:
		target, ok := c.Params["target_time"]
		if !ok {
			return false, fmt.Errorf("%w: target_time", ErrMissingParam)
		}
		at, err := time.Parse(time.RFC3339, target)
		if err != nil {
			return false, fmt.Errorf("%w: target_time: %w", ErrInvalidParam, err)
		}
		e.mu.Lock()
		now := e.clock()
		e.mu.Unlock()
		return !now.Before(at), nil

	case ConditionPayment, ConditionSignature, ConditionUsage:
		if e.verifier == nil {
			return false, ErrNoVerifier
		}
		return e.verifier.Verify(ctx, c.Kind, c.Params)

	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownConditionKind, c.Kind)
	}
}

// Execute dispatches the action implied by the rule's kind. Action bodies
// run in the Actions collaborator; Execute's responsibility ends at
// decide-and-dispatch.
func (e *Engine) Execute(ctx context.Context, id string) error {
	e.mu.Lock()
	r, ok := e.rules[id]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	rule := copyRule(r)
	actions := e.actions
	e.mu.Unlock()

	if actions == nil {
		return ErrNoActions
	}

	switch rule.Kind {
	case RuleAutoRenewal:
		days := DefaultRenewDays
		if raw, ok := rule.Params["renew_days"]; ok {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				return fmt.Errorf("%w: renew_days %q", ErrInvalidParam, raw)
			}
			days = parsed
		}
		return actions.RenewFile(ctx, rule.FileID, days)

	case RuleAccessControl:
		address, ok := rule.Params["address"]
		if !ok {
			return fmt.Errorf("%w: address", ErrMissingParam)
		}
		var perms []string
		if raw, ok := rule.Params["permissions"]; ok && raw != "" {
			perms = strings.Split(raw, ",")
		}
		return actions.GrantAccess(ctx, rule.FileID, address, perms, rule.Params["granted_by"])

	case RuleCollaborativeOwnership:
		newOwner, ok := rule.Params["new_owner"]
		if !ok {
			return fmt.Errorf("%w: new_owner", ErrMissingParam)
		}
		return actions.TransferOwnership(ctx, rule.FileID, newOwner, rule.Params["transferred_by"])

	case RuleConditionalAccess:
		address, ok := rule.Params["address"]
		if !ok {
			return fmt.Errorf("%w: address", ErrMissingParam)
		}
		return actions.UnlockAccess(ctx, rule.FileID, address)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownRuleKind, rule.Kind)
	}
}

// SweepOnce evaluates every active rule once, in a deterministic order,
// and executes the ones whose conditions are all met. A failure in one
// rule is logged and does not block the remaining rules. Returns the
// number of rules that fired successfully.
func (e *Engine) SweepOnce(ctx context.Context) int {
	e.mu.Lock()
	ids := make([]string, 0, len(e.rules))
	for id, r := range e.rules {
		if r.Active {
			ids = append(ids, id)
		}
	}
	logger := e.logger
	e.mu.Unlock()
	sort.Strings(ids)

	fired := 0
	for _, id := range ids {
		met, err := e.Evaluate(ctx, id)
		if err != nil {
			if logger != nil {
				logger.Warn("rule evaluation failed", "rule", id, "error", err)
			}
			continue
		}
		if !met {
			continue
		}
		if err := e.Execute(ctx, id); err != nil {
			if logger != nil {
				logger.Warn("rule execution failed", "rule", id, "error", err)
			}
			continue
		}
		fired++
	}
	return fired
}

// DropFile removes every rule attached to fileID. Used when the parent
// catalog entry is deleted.
func (e *Engine) DropFile(fileID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for id, r := range e.rules {
		if r.FileID == fileID {
			delete(e.rules, id)
		}
	}
}

// Export returns a copy of every rule, ordered by creation time.
func (e *Engine) Export() []Rule {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Rule, 0, len(e.rules))
	for _, r := range e.rules {
		out = append(out, copyRule(r))
	}
	sortRules(out)
	return out
}

// Import merges rules into the engine keyed by id. A rule with an
// already-known id overwrites the existing one.
func (e *Engine) Import(rules []Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range rules {
		r := copyRule(&rules[i])
		e.rules[r.ID] = &r
	}
}

func sortRules(rules []Rule) {
	sort.Slice(rules, func(i, j int) bool {
		if rules[i].CreatedAt.Equal(rules[j].CreatedAt) {
			return rules[i].ID < rules[j].ID
		}
		return rules[i].CreatedAt.Before(rules[j].CreatedAt)
	})
}

func copyRule(r *Rule) Rule {
	out := *r
	out.Conditions = copyConditions(r.Conditions)
	out.Params = copyParams(r.Params)
	return out
}

func copyConditions(conditions []Condition) []Condition {
	out := make([]Condition, len(conditions))
	for i, c := range conditions {
		c.Params = copyParams(c.Params)
		out[i] = c
	}
	return out
}

func copyParams(params map[string]string) map[string]string {
	if params == nil {
		return nil
	}
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}
