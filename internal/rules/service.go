package rules

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"elina.dev/internal/auth"
	"elina.dev/internal/tenant"
)

// Service exposes the administrative rule-catalog operations. Every mutation
// evicts the engine's cache for the tenant so validation never observes stale
// definitions.
type Service struct {
	store  Store
	engine *Engine
}

// NewService constructs the rule administration service.
func NewService(store Store, engine *Engine) (*Service, error) {
	if store == nil || engine == nil {
		return nil, errors.New("rules: store and engine are required")
	}
	return &Service{store: store, engine: engine}, nil
}

// RuleInput carries the editable fields of a business rule.
type RuleInput struct {
	RuleNumber    int
	ControlPoint  string
	Applicability string
	RuleValue     string
	Description   string
	Active        bool
}

func (in *RuleInput) normalize() error {
	in.ControlPoint = strings.TrimSpace(in.ControlPoint)
	in.Applicability = strings.ToUpper(strings.TrimSpace(in.Applicability))
	if in.RuleNumber <= 0 {
		return errors.New("rules: rule number must be positive")
	}
	if in.ControlPoint == "" {
		return errors.New("rules: control point is required")
	}
	if in.Applicability != ApplicabilityYes && in.Applicability != ApplicabilityNo {
		return errors.New("rules: applicability must be Y or N")
	}
	return nil
}

// List returns every rule of the current tenant ordered by rule number.
func (s *Service) List(ctx context.Context) ([]BusinessRule, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.List(ctx, tenantID)
}

// Get returns one rule of the current tenant by id.
func (s *Service) Get(ctx context.Context, ruleID string) (*BusinessRule, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.Get(ctx, tenantID, ruleID)
}

// Create adds a rule for the current tenant. Rule numbers are unique within
// the tenant.
func (s *Service) Create(ctx context.Context, in RuleInput) (*BusinessRule, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	exists, err := s.store.ExistsByNumber(ctx, tenantID, in.RuleNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("rules: rule %d already exists", in.RuleNumber)
	}

	rule := &BusinessRule{
		TenantID:      tenantID,
		RuleNumber:    in.RuleNumber,
		ControlPoint:  in.ControlPoint,
		Applicability: in.Applicability,
		RuleValue:     in.RuleValue,
		Description:   in.Description,
		Active:        in.Active,
		CreatedBy:     actorID(ctx),
		UpdatedBy:     actorID(ctx),
	}
	if err := s.store.Create(ctx, rule); err != nil {
		return nil, err
	}
	s.engine.RefreshCache(ctx)
	return rule, nil
}

// Update replaces the editable fields of an existing rule.
func (s *Service) Update(ctx context.Context, ruleID string, in RuleInput) (*BusinessRule, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	current, err := s.store.Get(ctx, tenantID, ruleID)
	if err != nil {
		return nil, err
	}
	if current.RuleNumber != in.RuleNumber {
		exists, err := s.store.ExistsByNumber(ctx, tenantID, in.RuleNumber)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("rules: rule %d already exists", in.RuleNumber)
		}
	}

	current.RuleNumber = in.RuleNumber
	current.ControlPoint = in.ControlPoint
	current.Applicability = in.Applicability
	current.RuleValue = in.RuleValue
	current.Description = in.Description
	current.Active = in.Active
	current.UpdatedBy = actorID(ctx)

	if err := s.store.Update(ctx, current); err != nil {
		return nil, err
	}
	s.engine.RefreshCache(ctx)
	return current, nil
}

// Delete removes a rule of the current tenant.
func (s *Service) Delete(ctx context.Context, ruleID string) error {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, tenantID, ruleID); err != nil {
		return err
	}
	s.engine.RefreshCache(ctx)
	return nil
}

func actorID(ctx context.Context) string {
	if principal, ok := auth.PrincipalFromContext(ctx); ok {
		return principal.UserID
	}
	return ""
}
