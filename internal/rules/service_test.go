package rules

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"elina.dev/internal/tenant"
)

// memStore extends memCatalog with the administrative Store operations.
type memStore struct {
	*memCatalog
	nextID int
}

func newMemStore() *memStore {
	return &memStore{memCatalog: newMemCatalog()}
}

func (s *memStore) List(ctx context.Context, tenantID string) ([]BusinessRule, error) {
	var out []BusinessRule
	for _, rule := range s.rules[tenantID] {
		out = append(out, *rule)
	}
	return out, nil
}

func (s *memStore) Get(ctx context.Context, tenantID, ruleID string) (*BusinessRule, error) {
	for _, rule := range s.rules[tenantID] {
		if rule.RuleID == ruleID {
			copied := *rule
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memStore) ExistsByNumber(ctx context.Context, tenantID string, ruleNumber int) (bool, error) {
	_, ok := s.rules[tenantID][ruleNumber]
	return ok, nil
}

func (s *memStore) Create(ctx context.Context, rule *BusinessRule) error {
	if rule.RuleID == "" {
		s.nextID++
		rule.RuleID = fmt.Sprintf("rule-%d", s.nextID)
	}
	copied := *rule
	s.put(&copied)
	return nil
}

func (s *memStore) Update(ctx context.Context, rule *BusinessRule) error {
	for number, existing := range s.rules[rule.TenantID] {
		if existing.RuleID == rule.RuleID {
			delete(s.rules[rule.TenantID], number)
			copied := *rule
			s.put(&copied)
			return nil
		}
	}
	return ErrNotFound
}

func (s *memStore) Delete(ctx context.Context, tenantID, ruleID string) error {
	for number, existing := range s.rules[tenantID] {
		if existing.RuleID == ruleID {
			delete(s.rules[tenantID], number)
			return nil
		}
	}
	return ErrNotFound
}

func newTestRuleService(t *testing.T) (*Service, *memStore, *Engine) {
	t.Helper()
	store := newMemStore()
	engine, err := NewEngine(store, DefaultValidators()...)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	svc, err := NewService(store, engine)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, store, engine
}

func TestServiceRequiresTenantScope(t *testing.T) {
	svc, _, _ := newTestRuleService(t)
	ctx := context.Background()

	if _, err := svc.List(ctx); !errors.Is(err, tenant.ErrScopeNotSet) {
		t.Errorf("List = %v, want ErrScopeNotSet", err)
	}
	if _, err := svc.Create(ctx, RuleInput{RuleNumber: 101, ControlPoint: "cp", Applicability: "Y"}); !errors.Is(err, tenant.ErrScopeNotSet) {
		t.Errorf("Create = %v, want ErrScopeNotSet", err)
	}
	if err := svc.Delete(ctx, "rule-1"); !errors.Is(err, tenant.ErrScopeNotSet) {
		t.Errorf("Delete = %v, want ErrScopeNotSet", err)
	}
}

func TestServiceCreateValidatesInput(t *testing.T) {
	svc, _, _ := newTestRuleService(t)
	ctx := scoped("t1")

	cases := []struct {
		name string
		in   RuleInput
	}{
		{"non-positive number", RuleInput{RuleNumber: 0, ControlPoint: "cp", Applicability: "Y"}},
		{"missing control point", RuleInput{RuleNumber: 101, Applicability: "Y"}},
		{"bad applicability", RuleInput{RuleNumber: 101, ControlPoint: "cp", Applicability: "maybe"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tc.in); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestServiceCreateEnforcesUniqueNumber(t *testing.T) {
	svc, _, _ := newTestRuleService(t)
	ctx := scoped("t1")

	in := RuleInput{RuleNumber: 101, ControlPoint: "daily_progress", Applicability: "Y", RuleValue: "7", Active: true}
	if _, err := svc.Create(ctx, in); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, in); err == nil {
		t.Error("duplicate rule number must be rejected")
	}
	// Same number under another tenant is fine.
	if _, err := svc.Create(scoped("t2"), in); err != nil {
		t.Errorf("Create for t2: %v", err)
	}
}

func TestServiceMutationsRefreshEngineCache(t *testing.T) {
	svc, store, engine := newTestRuleService(t)
	ctx := scoped("t1")

	created, err := svc.Create(ctx, RuleInput{
		RuleNumber: 101, ControlPoint: "daily_progress",
		Applicability: "Y", RuleValue: "7", Active: true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Warm the cache, then update through the service: the engine must see
	// the new definition immediately.
	if !engine.IsRuleActive(ctx, 101) {
		t.Fatal("rule must be active after create")
	}
	reads := store.findCalls

	updated := RuleInput{
		RuleNumber: 101, ControlPoint: "daily_progress",
		Applicability: "Y", RuleValue: "30", Active: true,
	}
	if _, err := svc.Update(ctx, created.RuleID, updated); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if value, _ := engine.RuleValue(ctx, 101); value != "30" {
		t.Errorf("RuleValue = %q, want 30", value)
	}
	if store.findCalls == reads {
		t.Error("engine served stale cache after update")
	}

	if err := svc.Delete(ctx, created.RuleID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if engine.IsRuleActive(ctx, 101) {
		t.Error("rule still active after delete")
	}
}

func TestServiceUpdateRejectsNumberCollision(t *testing.T) {
	svc, _, _ := newTestRuleService(t)
	ctx := scoped("t1")

	first, err := svc.Create(ctx, RuleInput{RuleNumber: 101, ControlPoint: "cp", Applicability: "Y", Active: true})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, RuleInput{RuleNumber: 201, ControlPoint: "cp", Applicability: "Y", Active: true}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	in := RuleInput{RuleNumber: 201, ControlPoint: "cp", Applicability: "Y", Active: true}
	if _, err := svc.Update(ctx, first.RuleID, in); err == nil {
		t.Error("renumbering onto an existing rule must fail")
	}
}

func TestServiceGetAndListAreTenantScoped(t *testing.T) {
	svc, _, _ := newTestRuleService(t)

	created, err := svc.Create(scoped("t1"), RuleInput{RuleNumber: 101, ControlPoint: "cp", Applicability: "Y", Active: true})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Get(scoped("t2"), created.RuleID); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-tenant Get = %v, want ErrNotFound", err)
	}
	list, err := svc.List(scoped("t2"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("t2 sees %d foreign rules", len(list))
	}
}
