package rules

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"elina.dev/internal/obs"
	"elina.dev/internal/tenant"
)

// memCatalog is an in-memory Catalog that counts store reads.
type memCatalog struct {
	rules map[string]map[int]*BusinessRule

	findCalls   int
	activeCalls int
	failWith    error
}

func newMemCatalog() *memCatalog {
	return &memCatalog{rules: make(map[string]map[int]*BusinessRule)}
}

func (c *memCatalog) put(rule *BusinessRule) {
	byNumber, ok := c.rules[rule.TenantID]
	if !ok {
		byNumber = make(map[int]*BusinessRule)
		c.rules[rule.TenantID] = byNumber
	}
	byNumber[rule.RuleNumber] = rule
}

func (c *memCatalog) FindByNumber(ctx context.Context, tenantID string, ruleNumber int) (*BusinessRule, error) {
	c.findCalls++
	if c.failWith != nil {
		return nil, c.failWith
	}
	if rule, ok := c.rules[tenantID][ruleNumber]; ok {
		copied := *rule
		return &copied, nil
	}
	return nil, ErrNotFound
}

func (c *memCatalog) ActiveByTenant(ctx context.Context, tenantID string) ([]BusinessRule, error) {
	c.activeCalls++
	if c.failWith != nil {
		return nil, c.failWith
	}
	var out []BusinessRule
	for _, rule := range c.rules[tenantID] {
		if rule.Enforceable() {
			out = append(out, *rule)
		}
	}
	return out, nil
}

func (c *memCatalog) ByControlPoint(ctx context.Context, tenantID, controlPoint string) ([]BusinessRule, error) {
	var out []BusinessRule
	for _, rule := range c.rules[tenantID] {
		if rule.ControlPoint == controlPoint {
			out = append(out, *rule)
		}
	}
	return out, nil
}

// countingValidator records invocations and fails on demand.
type countingValidator struct {
	numbers []int
	calls   int
	fail    bool
}

func (v *countingValidator) RuleNumbers() []int { return v.numbers }

func (v *countingValidator) Validate(rule *BusinessRule, rc *Context) error {
	v.calls++
	if v.fail {
		return &Violation{RuleNumber: rule.RuleNumber, Message: "boom"}
	}
	return nil
}

func activeRule(tenantID string, number int) *BusinessRule {
	return &BusinessRule{
		RuleID:        fmt.Sprintf("%s-%d", tenantID, number),
		TenantID:      tenantID,
		RuleNumber:    number,
		ControlPoint:  "test",
		Applicability: ApplicabilityYes,
		Active:        true,
	}
}

func scoped(tenantID string) context.Context {
	return tenant.WithTenant(context.Background(), tenantID)
}

func TestNewEngineRejectsDuplicateRegistration(t *testing.T) {
	catalog := newMemCatalog()
	_, err := NewEngine(catalog,
		&countingValidator{numbers: []int{7}},
		&countingValidator{numbers: []int{7}},
	)
	if err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestValidatePassesAndFails(t *testing.T) {
	catalog := newMemCatalog()
	catalog.put(activeRule("t1", 7))

	v := &countingValidator{numbers: []int{7}}
	engine, err := NewEngine(catalog, v)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	if err := engine.Validate(scoped("t1"), 7, &Context{}); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if v.calls != 1 {
		t.Errorf("validator calls = %d, want 1", v.calls)
	}

	v.fail = true
	err = engine.Validate(scoped("t1"), 7, &Context{})
	var violation *Violation
	if !errors.As(err, &violation) {
		t.Fatalf("Validate = %v, want *Violation", err)
	}
	if violation.RuleNumber != 7 {
		t.Errorf("violation rule = %d, want 7", violation.RuleNumber)
	}
}

func TestValidateSkipsMissingRule(t *testing.T) {
	catalog := newMemCatalog()
	v := &countingValidator{numbers: []int{7}, fail: true}
	engine, err := NewEngine(catalog, v)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if err := engine.Validate(scoped("t1"), 7, &Context{}); err != nil {
		t.Fatalf("missing rule must pass, got %v", err)
	}
	if v.calls != 0 {
		t.Errorf("validator ran for a missing rule")
	}
}

func TestValidateLogsMissingRuleSkip(t *testing.T) {
	logger := obs.Logger()
	original := logger.Writer()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(original)

	catalog := newMemCatalog()
	engine, err := NewEngine(catalog, &countingValidator{numbers: []int{7}})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if err := engine.Validate(scoped("t1"), 7, &Context{}); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	line := buf.String()
	if !strings.Contains(line, "no rule configured") {
		t.Errorf("missing-rule skip not logged: %q", line)
	}
	if !strings.Contains(line, `"rule_number":7`) || !strings.Contains(line, `"tenant_id":"t1"`) {
		t.Errorf("skip log lacks rule or tenant fields: %q", line)
	}
}

func TestValidateSkipsInactiveAndInapplicableRules(t *testing.T) {
	catalog := newMemCatalog()
	inactive := activeRule("t1", 7)
	inactive.Active = false
	catalog.put(inactive)
	inapplicable := activeRule("t1", 8)
	inapplicable.Applicability = ApplicabilityNo
	catalog.put(inapplicable)

	v := &countingValidator{numbers: []int{7, 8}, fail: true}
	engine, err := NewEngine(catalog, v)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	for _, n := range []int{7, 8} {
		if err := engine.Validate(scoped("t1"), n, &Context{}); err != nil {
			t.Errorf("rule %d must be skipped, got %v", n, err)
		}
	}
	if v.calls != 0 {
		t.Errorf("validator ran for unenforceable rules")
	}
}

func TestValidateSkipsUnregisteredRuleNumber(t *testing.T) {
	catalog := newMemCatalog()
	catalog.put(activeRule("t1", 999))
	engine, err := NewEngine(catalog)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if err := engine.Validate(scoped("t1"), 999, &Context{}); err != nil {
		t.Fatalf("unregistered rule must pass, got %v", err)
	}
}

func TestValidateWithoutScopeIsPermissive(t *testing.T) {
	catalog := newMemCatalog()
	catalog.put(activeRule("t1", 7))
	v := &countingValidator{numbers: []int{7}, fail: true}
	engine, err := NewEngine(catalog, v)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if err := engine.Validate(context.Background(), 7, &Context{}); err != nil {
		t.Fatalf("unscoped Validate = %v, want nil", err)
	}
	if v.calls != 0 {
		t.Errorf("validator ran without scope")
	}
}

func TestValidateReportsStoreOutage(t *testing.T) {
	catalog := newMemCatalog()
	catalog.failWith = errors.New("connection refused")
	engine, err := NewEngine(catalog, &countingValidator{numbers: []int{7}})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	err = engine.Validate(scoped("t1"), 7, &Context{})
	var lookup *LookupError
	if !errors.As(err, &lookup) {
		t.Fatalf("Validate = %v, want *LookupError", err)
	}
	if lookup.RuleNumber != 7 {
		t.Errorf("lookup rule = %d, want 7", lookup.RuleNumber)
	}
}

func TestValidateAllShortCircuits(t *testing.T) {
	catalog := newMemCatalog()
	catalog.put(activeRule("t1", 1))
	catalog.put(activeRule("t1", 2))
	catalog.put(activeRule("t1", 3))

	first := &countingValidator{numbers: []int{1}}
	second := &countingValidator{numbers: []int{2}, fail: true}
	third := &countingValidator{numbers: []int{3}}
	engine, err := NewEngine(catalog, first, second, third)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	err = engine.ValidateAll(scoped("t1"), []int{1, 2, 3}, &Context{})
	var violation *Violation
	if !errors.As(err, &violation) || violation.RuleNumber != 2 {
		t.Fatalf("ValidateAll = %v, want violation of rule 2", err)
	}
	if first.calls != 1 || second.calls != 1 || third.calls != 0 {
		t.Errorf("calls = %d/%d/%d, want 1/1/0", first.calls, second.calls, third.calls)
	}
}

func TestCacheServesRepeatLookups(t *testing.T) {
	catalog := newMemCatalog()
	catalog.put(activeRule("t1", 7))
	v := &countingValidator{numbers: []int{7}}
	engine, err := NewEngine(catalog, v)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	ctx := scoped("t1")
	for i := 0; i < 5; i++ {
		if err := engine.Validate(ctx, 7, &Context{}); err != nil {
			t.Fatalf("Validate #%d: %v", i, err)
		}
	}
	if catalog.findCalls != 1 {
		t.Errorf("store reads = %d, want 1", catalog.findCalls)
	}
}

func TestRefreshCacheForcesReload(t *testing.T) {
	catalog := newMemCatalog()
	catalog.put(activeRule("t1", 7))
	v := &countingValidator{numbers: []int{7}, fail: true}
	engine, err := NewEngine(catalog, v)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	ctx := scoped("t1")
	if err := engine.Validate(ctx, 7, &Context{}); err == nil {
		t.Fatal("expected violation while rule is active")
	}

	// Deactivate in the store. The cached copy still enforces until the
	// tenant cache is refreshed.
	catalog.rules["t1"][7].Active = false
	if err := engine.Validate(ctx, 7, &Context{}); err == nil {
		t.Fatal("expected cached rule to keep enforcing")
	}

	engine.RefreshCache(ctx)
	if err := engine.Validate(ctx, 7, &Context{}); err != nil {
		t.Fatalf("after refresh Validate = %v, want nil", err)
	}
	if catalog.findCalls != 2 {
		t.Errorf("store reads = %d, want 2", catalog.findCalls)
	}
}

func TestTenantIsolation(t *testing.T) {
	catalog := newMemCatalog()
	catalog.put(activeRule("t1", 7))

	v := &countingValidator{numbers: []int{7}, fail: true}
	engine, err := NewEngine(catalog, v)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	if err := engine.Validate(scoped("t1"), 7, &Context{}); err == nil {
		t.Fatal("tenant t1 must be blocked by its rule")
	}
	if err := engine.Validate(scoped("t2"), 7, &Context{}); err != nil {
		t.Fatalf("tenant t2 has no rule 7, got %v", err)
	}
}

func TestRefreshCacheIsPerTenant(t *testing.T) {
	catalog := newMemCatalog()
	catalog.put(activeRule("t1", 7))
	catalog.put(activeRule("t2", 7))
	engine, err := NewEngine(catalog, &countingValidator{numbers: []int{7}})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	if err := engine.Validate(scoped("t1"), 7, &Context{}); err != nil {
		t.Fatal(err)
	}
	if err := engine.Validate(scoped("t2"), 7, &Context{}); err != nil {
		t.Fatal(err)
	}
	reads := catalog.findCalls

	engine.RefreshCache(scoped("t1"))

	// t2 still cached, t1 re-read.
	if err := engine.Validate(scoped("t2"), 7, &Context{}); err != nil {
		t.Fatal(err)
	}
	if catalog.findCalls != reads {
		t.Errorf("t2 went back to the store after t1 refresh")
	}
	if err := engine.Validate(scoped("t1"), 7, &Context{}); err != nil {
		t.Fatal(err)
	}
	if catalog.findCalls != reads+1 {
		t.Errorf("store reads = %d, want %d", catalog.findCalls, reads+1)
	}
}

func TestIsRuleActiveAndRuleValue(t *testing.T) {
	catalog := newMemCatalog()
	rule := activeRule("t1", 101)
	rule.RuleValue = "7"
	catalog.put(rule)
	engine, err := NewEngine(catalog)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	ctx := scoped("t1")
	if !engine.IsRuleActive(ctx, 101) {
		t.Error("IsRuleActive = false, want true")
	}
	if engine.IsRuleActive(ctx, 999) {
		t.Error("IsRuleActive(999) = true, want false")
	}
	if engine.IsRuleActive(context.Background(), 101) {
		t.Error("IsRuleActive without scope = true, want false")
	}

	value, ok := engine.RuleValue(ctx, 101)
	if !ok || value != "7" {
		t.Errorf("RuleValue = %q/%v, want 7/true", value, ok)
	}
	if _, ok := engine.RuleValue(ctx, 999); ok {
		t.Error("RuleValue(999) reported ok")
	}
}

func TestActiveRulesUsesCacheAfterFirstLoad(t *testing.T) {
	catalog := newMemCatalog()
	catalog.put(activeRule("t1", 101))
	catalog.put(activeRule("t1", 301))
	off := activeRule("t1", 401)
	off.Applicability = ApplicabilityNo
	catalog.put(off)

	engine, err := NewEngine(catalog)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	ctx := scoped("t1")
	list, err := engine.ActiveRules(ctx)
	if err != nil {
		t.Fatalf("ActiveRules: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("active rules = %d, want 2", len(list))
	}

	if _, err := engine.ActiveRules(ctx); err != nil {
		t.Fatal(err)
	}
	if catalog.activeCalls != 1 {
		t.Errorf("store reads = %d, want 1", catalog.activeCalls)
	}

	if _, err := engine.ActiveRules(context.Background()); !errors.Is(err, tenant.ErrScopeNotSet) {
		t.Errorf("unscoped ActiveRules = %v, want ErrScopeNotSet", err)
	}
}
