package auth

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Resolver aggregates a user's effective permission set from role-derived and
// directly-granted permissions. It performs only fresh reads; resolution
// happens at credential-issuance time, so no caching is warranted.
type Resolver struct {
	roles RoleStore
	perms PermissionStore
}

// NewResolver constructs a Resolver over the given stores.
func NewResolver(roles RoleStore, perms PermissionStore) (*Resolver, error) {
	if roles == nil || perms == nil {
		return nil, fmt.Errorf("%w: role and permission stores are required", ErrInvalidInput)
	}
	return &Resolver{roles: roles, perms: perms}, nil
}

// EffectivePermissions returns the deduplicated union of permission codes the
// user holds through role assignments and direct grants, sorted for stable
// claim encoding. A permission present via either path is granted; there is
// no deny mechanism.
func (r *Resolver) EffectivePermissions(ctx context.Context, tenantID, userID string) ([]string, error) {
	tenantID = strings.TrimSpace(tenantID)
	userID = strings.TrimSpace(userID)
	if tenantID == "" || userID == "" {
		return nil, fmt.Errorf("%w: tenant id and user id are required", ErrInvalidInput)
	}

	assignments, err := r.roles.AssignmentsForUser(ctx, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("load role assignments: %w", err)
	}

	set := make(map[string]struct{})
	for _, a := range assignments {
		codes, err := r.perms.CodesForRole(ctx, tenantID, a.RoleID)
		if err != nil {
			return nil, fmt.Errorf("load role permissions: %w", err)
		}
		for _, code := range codes {
			set[code] = struct{}{}
		}
	}

	direct, err := r.perms.DirectCodesForUser(ctx, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("load direct permissions: %w", err)
	}
	for _, code := range direct {
		set[code] = struct{}{}
	}

	out := make([]string, 0, len(set))
	for code := range set {
		out = append(out, code)
	}
	sort.Strings(out)
	return out, nil
}

// ActiveRoleCodes lists the active role codes assigned to the user, used for
// coarse role checks embedded in the credential.
func (r *Resolver) ActiveRoleCodes(ctx context.Context, tenantID, userID string) ([]string, error) {
	tenantID = strings.TrimSpace(tenantID)
	userID = strings.TrimSpace(userID)
	if tenantID == "" || userID == "" {
		return nil, fmt.Errorf("%w: tenant id and user id are required", ErrInvalidInput)
	}
	codes, err := r.roles.ActiveRoleCodes(ctx, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("load role codes: %w", err)
	}
	return dedupeCodes(codes), nil
}
