package rules

import (
	"context"
	"errors"
)

// ErrNotFound marks a rule that does not exist for the tenant. Rule absence
// is not a violation: rules are opt-in.
var ErrNotFound = errors.New("rules: not found")

// Catalog is the read surface the engine needs. Every lookup is scoped to one
// tenant.
type Catalog interface {
	FindByNumber(ctx context.Context, tenantID string, ruleNumber int) (*BusinessRule, error)
	ActiveByTenant(ctx context.Context, tenantID string) ([]BusinessRule, error)
	ByControlPoint(ctx context.Context, tenantID, controlPoint string) ([]BusinessRule, error)
}

// Store adds the administrative operations used to manage the rule catalog.
type Store interface {
	Catalog

	List(ctx context.Context, tenantID string) ([]BusinessRule, error)
	Get(ctx context.Context, tenantID, ruleID string) (*BusinessRule, error)
	ExistsByNumber(ctx context.Context, tenantID string, ruleNumber int) (bool, error)
	Create(ctx context.Context, rule *BusinessRule) error
	Update(ctx context.Context, rule *BusinessRule) error
	Delete(ctx context.Context, tenantID, ruleID string) error
}
