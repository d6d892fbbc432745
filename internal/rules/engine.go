package rules

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"elina.dev/internal/obs"
	"elina.dev/internal/tenant"
)

// Engine routes validation requests to registered validators and caches rule
// definitions per tenant. The registry is assembled once at construction; the
// cache is the only shared mutable state and is guarded for concurrent use
// from many simultaneous requests across many tenants.
type Engine struct {
	store Catalog

	registry map[int]Validator

	mu    sync.RWMutex
	cache map[string]map[int]*BusinessRule
}

// NewEngine builds the validator registry and returns the engine. Two
// validators claiming the same rule number is a configuration error.
func NewEngine(store Catalog, validators ...Validator) (*Engine, error) {
	if store == nil {
		return nil, errors.New("rules: catalog store is required")
	}
	registry := make(map[int]Validator)
	for _, v := range validators {
		for _, n := range v.RuleNumbers() {
			if _, dup := registry[n]; dup {
				return nil, fmt.Errorf("rules: duplicate validator registration for rule %d", n)
			}
			registry[n] = v
		}
	}
	return &Engine{
		store:    store,
		registry: registry,
		cache:    make(map[string]map[int]*BusinessRule),
	}, nil
}

// IsRuleActive reports whether the rule exists for the current tenant and is
// enforceable. Missing scope or a store failure reads as inactive.
func (e *Engine) IsRuleActive(ctx context.Context, ruleNumber int) bool {
	tenantID, ok := tenant.ID(ctx)
	if !ok {
		return false
	}
	rule, err := e.rule(ctx, tenantID, ruleNumber)
	return err == nil && rule.Enforceable()
}

// RuleValue returns the rule's parameter string iff the rule is enforceable
// for the current tenant.
func (e *Engine) RuleValue(ctx context.Context, ruleNumber int) (string, bool) {
	tenantID, ok := tenant.ID(ctx)
	if !ok {
		return "", false
	}
	rule, err := e.rule(ctx, tenantID, ruleNumber)
	if err != nil || !rule.Enforceable() {
		return "", false
	}
	return rule.RuleValue, true
}

// Validate checks one rule against the context. Rule absence and missing
// validators are success: rules are opt-in and an unimplemented rule must not
// block operations (both are logged). A store failure during a cache miss is
// returned as *LookupError, never treated as "no rule": enforcement is not
// silently bypassed during an outage. A broken rule surfaces as *Violation.
func (e *Engine) Validate(ctx context.Context, ruleNumber int, rc *Context) error {
	tenantID, ok := tenant.ID(ctx)
	if !ok {
		// Callers are expected to run inside a scoped request; tolerate the
		// gap here but leave a trace for operability.
		obs.Event("warn", "rule validation without tenant scope", map[string]any{
			"rule_number": ruleNumber,
		})
		return nil
	}

	rule, err := e.rule(ctx, tenantID, ruleNumber)
	if err != nil {
		obs.RuleValidationsTotal.WithLabelValues("error").Inc()
		return err
	}
	if rule == nil {
		obs.Event("debug", "no rule configured, skipping validation", map[string]any{
			"rule_number": ruleNumber,
			"tenant_id":   tenantID,
		})
		obs.RuleValidationsTotal.WithLabelValues("skipped").Inc()
		return nil
	}
	if !rule.Enforceable() {
		obs.RuleValidationsTotal.WithLabelValues("skipped").Inc()
		return nil
	}

	validator, ok := e.registry[ruleNumber]
	if !ok {
		obs.Event("warn", "no validator registered for enforceable rule", map[string]any{
			"rule_number": ruleNumber,
			"tenant_id":   tenantID,
		})
		obs.RuleValidationsTotal.WithLabelValues("skipped").Inc()
		return nil
	}

	if err := validator.Validate(rule, rc); err != nil {
		obs.RuleValidationsTotal.WithLabelValues("violation").Inc()
		return err
	}
	obs.RuleValidationsTotal.WithLabelValues("pass").Inc()
	return nil
}

// ValidateAll validates rules in the given order and stops at the first
// violation; later rules are never evaluated once one fails.
func (e *Engine) ValidateAll(ctx context.Context, ruleNumbers []int, rc *Context) error {
	for _, n := range ruleNumbers {
		if err := e.Validate(ctx, n, rc); err != nil {
			return err
		}
	}
	return nil
}

// RefreshCache evicts every cached rule for the current tenant. Must be
// called after any administrative create/update/delete, or validation will
// observe stale data: entries have no natural expiry. The eviction is atomic
// with respect to readers.
func (e *Engine) RefreshCache(ctx context.Context) {
	tenantID, ok := tenant.ID(ctx)
	if !ok {
		return
	}
	e.mu.Lock()
	delete(e.cache, tenantID)
	e.mu.Unlock()
	obs.Event("info", "rule cache refreshed", map[string]any{"tenant_id": tenantID})
}

// ActiveRules returns the enforceable rules for the current tenant, serving
// from cache when it has been populated.
func (e *Engine) ActiveRules(ctx context.Context) ([]BusinessRule, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	cached := e.cache[tenantID]
	if len(cached) > 0 {
		out := make([]BusinessRule, 0, len(cached))
		for _, rule := range cached {
			if rule.Enforceable() {
				out = append(out, *rule)
			}
		}
		e.mu.RUnlock()
		return out, nil
	}
	e.mu.RUnlock()

	rulesList, err := e.store.ActiveByTenant(ctx, tenantID)
	if err != nil {
		return nil, &LookupError{Err: err}
	}

	fresh := make(map[int]*BusinessRule, len(rulesList))
	for i := range rulesList {
		rule := rulesList[i]
		fresh[rule.RuleNumber] = &rule
	}
	e.mu.Lock()
	e.cache[tenantID] = fresh
	e.mu.Unlock()

	return rulesList, nil
}

// RulesByControlPoint lists the current tenant's rules for one control point.
// The query is not keyed by rule number, so it always goes to the store.
func (e *Engine) RulesByControlPoint(ctx context.Context, controlPoint string) ([]BusinessRule, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	rulesList, err := e.store.ByControlPoint(ctx, tenantID, controlPoint)
	if err != nil {
		return nil, &LookupError{Err: err}
	}
	return rulesList, nil
}

// rule resolves (tenant, ruleNumber) through the cache. Only found rules are
// cached; absence is re-checked against the store each time. Concurrent
// population of the same slot is last-write-wins; rule rows change rarely
// and re-fetches are idempotent.
func (e *Engine) rule(ctx context.Context, tenantID string, ruleNumber int) (*BusinessRule, error) {
	e.mu.RLock()
	if tenantRules, ok := e.cache[tenantID]; ok {
		if rule, ok := tenantRules[ruleNumber]; ok {
			e.mu.RUnlock()
			obs.RuleCacheHits.Inc()
			return rule, nil
		}
	}
	e.mu.RUnlock()

	obs.RuleCacheMisses.Inc()
	rule, err := e.store.FindByNumber(ctx, tenantID, ruleNumber)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, &LookupError{RuleNumber: ruleNumber, Err: err}
	}

	e.mu.Lock()
	tenantRules, ok := e.cache[tenantID]
	if !ok {
		tenantRules = make(map[int]*BusinessRule)
		e.cache[tenantID] = tenantRules
	}
	tenantRules[ruleNumber] = rule
	e.mu.Unlock()

	return rule, nil
}
