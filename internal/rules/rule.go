// Package rules implements the tenant-scoped business-rule engine: a registry
// of rule-number validators, a per-tenant cache of rule definitions and the
// dispatch protocol that actively blocks domain operations violating a rule.
package rules

import (
	"fmt"
	"time"
)

// Applicability flag values. A rule participates in validation only when it
// is applicable and active.
const (
	ApplicabilityYes = "Y"
	ApplicabilityNo  = "N"
)

// BusinessRule is a tenant-owned, numbered validation rule. RuleNumber is
// unique within a tenant; ControlPoint names the business checkpoint the rule
// guards; RuleValue is the free-form parameter the validator interprets.
type BusinessRule struct {
	RuleID        string
	TenantID      string
	RuleNumber    int
	ControlPoint  string
	Applicability string
	RuleValue     string
	Description   string
	Active        bool
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedBy     string
	UpdatedAt     time.Time
}

// Enforceable reports whether the rule participates in validation.
func (r *BusinessRule) Enforceable() bool {
	return r != nil && r.Active && r.Applicability == ApplicabilityYes
}

// Violation is raised by a validator when a business rule is broken. It is a
// client-correctable condition, not a system failure: the caller must abort
// the guarded operation and surface message and hint to the user.
type Violation struct {
	RuleNumber int
	Message    string
	Hint       string
}

func (v *Violation) Error() string {
	if v.Hint != "" {
		return fmt.Sprintf("rule %d violated: %s (%s)", v.RuleNumber, v.Message, v.Hint)
	}
	return fmt.Sprintf("rule %d violated: %s", v.RuleNumber, v.Message)
}

// LookupError reports a durable-store failure while resolving a rule. It is
// deliberately distinct from "rule absent": enforcement must not be silently
// bypassed during a store outage. Transient; the caller may retry.
type LookupError struct {
	RuleNumber int
	Err        error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("rules: lookup rule %d: %v", e.RuleNumber, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// Validator implements the check for a fixed set of rule numbers. Validators
// are pure functions of their inputs: no I/O, no mutation of rule or context.
// Validate returns nil when the rule is satisfied or a *Violation when not.
type Validator interface {
	RuleNumbers() []int
	Validate(rule *BusinessRule, rc *Context) error
}
