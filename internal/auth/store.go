package auth

import (
	"context"
	"time"
)

// Store describes the durable lookups the authorization core requires. Every
// operation except tenant resolution is tenant-filtered; the core never scans
// across tenants.
type Store interface {
	Tenants() TenantStore
	Users() UserStore
	Roles() RoleStore
	Permissions() PermissionStore
}

// TenantStore resolves tenants. Tenants are the identity root and are looked
// up before any scope exists, so these are the only unscoped reads.
type TenantStore interface {
	Find(ctx context.Context, id string) (*Tenant, error)
	FindByCode(ctx context.Context, code string) (*Tenant, error)
}

// UserStore manages tenant-scoped user lookups.
type UserStore interface {
	Find(ctx context.Context, tenantID, userID string) (*User, error)
	FindByEmail(ctx context.Context, tenantID, email string) (*User, error)
	RecordLogin(ctx context.Context, userID string, at time.Time) error
}

// RoleStore reads role assignments within a tenant.
type RoleStore interface {
	AssignmentsForUser(ctx context.Context, tenantID, userID string) ([]RoleAssignment, error)
	ActiveRoleCodes(ctx context.Context, tenantID, userID string) ([]string, error)
}

// PermissionStore reads permission grants within a tenant. A permission
// reaches a user either through a role or a direct grant.
type PermissionStore interface {
	CodesForRole(ctx context.Context, tenantID, roleID string) ([]string, error)
	DirectCodesForUser(ctx context.Context, tenantID, userID string) ([]string, error)
}
