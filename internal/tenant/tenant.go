// Package tenant carries the active tenant identifier through the request
// context. The gateway binds it after credential verification; every
// tenant-scoped data operation reads it back and refuses to run without it.
package tenant

import (
	"context"
	"errors"
	"strings"
)

// ErrScopeNotSet indicates a tenant-scoped operation ran outside a scoped
// request. This is an integration error and should abort the request.
var ErrScopeNotSet = errors.New("tenant: scope not set")

type scopeContextKey struct{}

// WithTenant returns a context bound to the given tenant id. Binding again
// overwrites the previous value; the scope dies with the context, so there is
// nothing to clean up on exit paths.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return ctx
	}
	return context.WithValue(ctx, scopeContextKey{}, tenantID)
}

// FromContext returns the bound tenant id or ErrScopeNotSet.
func FromContext(ctx context.Context) (string, error) {
	id, ok := ID(ctx)
	if !ok {
		return "", ErrScopeNotSet
	}
	return id, nil
}

// ID is the non-failing probe used where an unscoped context is tolerated.
func ID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(scopeContextKey{}).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Without returns a context with no tenant bound. Used by pooled workers that
// outlive the request which spawned them.
func Without(ctx context.Context) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, "")
}
