package auth

import "time"

// Tenant is the identity root; every other scoped entity belongs to exactly
// one tenant. Tenants themselves are never tenant-filtered.
type Tenant struct {
	ID        string
	Code      string
	Name      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// User is a human account owned by a tenant. Email is unique within the
// tenant, not globally.
type User struct {
	ID           string
	TenantID     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Active       bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Role is a named authority bundle, unique by code within a tenant.
type Role struct {
	ID        string
	TenantID  string
	Code      string
	Name      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Permission is an atomic capability grant.
type Permission struct {
	ID        string
	TenantID  string
	Code      string
	Name      string
	Active    bool
	CreatedAt time.Time
}

// RoleAssignment links a user to a role within the owning tenant.
type RoleAssignment struct {
	UserID    string
	RoleID    string
	TenantID  string
	CreatedAt time.Time
}
