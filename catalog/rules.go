package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ledgerfsorg/libledgerfs-go/access"
	"github.com/ledgerfsorg/libledgerfs-go/automation"
)

// ruleDocument is the on-ledger description of an automation rule.
type ruleDocument struct {
	FileID     string                 `json:"fileId"`
	Kind       automation.RuleKind    `json:"kind"`
	Conditions []automation.Condition `json:"conditions,omitempty"`
	Params     map[string]string      `json:"parameters,omitempty"`
}

// CreateRule commits the rule document to the ledger and registers the
// rule with the automation engine, carrying the returned ledger ref.
func (c *Catalog) CreateRule(ctx context.Context, fileID string, kind automation.RuleKind, conditions []automation.Condition, params map[string]string) (*automation.Rule, error) {
	if _, err := c.Get(fileID); err != nil {
		return nil, err
	}
	if !automation.ValidRuleKind(kind) {
		return nil, fmt.Errorf("%w: rule kind %q", ErrValidation, kind)
	}

	doc, err := json.Marshal(ruleDocument{
		FileID:     fileID,
		Kind:       kind,
		Conditions: conditions,
		Params:     params,
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: encode rule: %w", err)
	}

	ledgerRef, err := c.ledger.CommitRecord(ctx, doc)
	if err != nil {
		return nil, collabErr("create rule", err)
	}

	prevRules := c.engine.Rules(fileID)
	rule, err := c.engine.AddRule(fileID, kind, conditions, params, ledgerRef)
	if err != nil {
		return nil, err
	}

	if err := c.persist("create rule"); err != nil {
		c.engine.DropFile(fileID)
		c.engine.Import(prevRules)
		return nil, err
	}
	return rule, nil
}

// Rules returns the entry's automation rules in creation order.
func (c *Catalog) Rules(fileID string) []automation.Rule {
	return c.engine.Rules(fileID)
}

// DeactivateRule marks a rule inactive so sweeps skip it.
func (c *Catalog) DeactivateRule(ruleID string) error {
	if err := c.engine.Deactivate(ruleID); err != nil {
		return err
	}
	return c.persist("deactivate rule")
}

// SweepOnce evaluates every active rule and executes the satisfied ones,
// isolating per-rule failures. Returns the number of rules that fired.
// Hosts call this on whatever cadence they choose.
func (c *Catalog) SweepOnce(ctx context.Context) int {
	fired := c.engine.SweepOnce(ctx)
	if fired > 0 {
		if err := c.persist("sweep"); err != nil && c.logger != nil {
			c.logger.Warn("sweep results not persisted", "error", err)
		}
	}
	return fired
}

// The catalog is the automation engine's action dispatcher: the engine
// decides and dispatches, the catalog performs the effects.
var _ automation.Actions = (*Catalog)(nil)

// RenewFile extends the file's retention. Automation action.
func (c *Catalog) RenewFile(ctx context.Context, fileID string, additionalDays int) error {
	return c.Renew(fileID, additionalDays)
}

// GrantAccess adds or updates a collaborator. Automation action; the file
// must already be set up for collaboration.
func (c *Catalog) GrantAccess(ctx context.Context, fileID, address string, permissions []string, grantedBy string) error {
	perms := make([]access.Permission, 0, len(permissions))
	for _, p := range permissions {
		perms = append(perms, access.Permission(p))
	}
	if grantedBy == "" {
		rec := c.access.Get(fileID)
		if rec != nil {
			grantedBy = rec.Owner
		}
	}
	return c.SetCollaborator(fileID, address, perms, grantedBy)
}

// UnlockAccess grants read permission once a conditional-access rule's
// conditions are met. Automation action.
func (c *Catalog) UnlockAccess(ctx context.Context, fileID, address string) error {
	return c.GrantAccess(ctx, fileID, address, []string{string(access.PermissionRead)}, "")
}
