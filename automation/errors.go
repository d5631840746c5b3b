package automation

import "errors"

var (
	// ErrRuleNotFound is returned when a rule id does not exist.
	ErrRuleNotFound = errors.New("automation: rule not found")

	// ErrUnknownRuleKind is returned for a rule kind outside the four
	// supported kinds.
	ErrUnknownRuleKind = errors.New("automation: unknown rule kind")

	// ErrUnknownConditionKind is returned for a condition kind outside the
	// four supported kinds.
	ErrUnknownConditionKind = errors.New("automation: unknown condition kind")

	// ErrNoVerifier is returned when a payment, signature or usage
	// condition is evaluated but no verifier collaborator is configured.
	ErrNoVerifier = errors.New("automation: no condition verifier configured")

	// ErrNoActions is returned when a rule fires but no action dispatcher
	// is configured.
	ErrNoActions = errors.New("automation: no action dispatcher configured")

	// ErrMissingParam is returned when a condition or rule lacks a
	// required parameter.
	ErrMissingParam = errors.New("automation: missing parameter")

	// ErrInvalidParam is returned when a parameter cannot be parsed.
	ErrInvalidParam = errors.New("automation: invalid parameter")
)
