package auth

import (
	"context"
	"database/sql"
	"time"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL. Every query is tenant-filtered;
// there are no cross-tenant scans.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Tenants() TenantStore         { return &tenantStore{db: s.db} }
func (s *PGStore) Users() UserStore             { return &userStore{db: s.db} }
func (s *PGStore) Roles() RoleStore             { return &roleStore{db: s.db} }
func (s *PGStore) Permissions() PermissionStore { return &permissionStore{db: s.db} }

// Tenant store --------------------------------------------------------------

type tenantStore struct{ db *sql.DB }

func (s *tenantStore) Find(ctx context.Context, id string) (*Tenant, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, code, name, active, created_at, updated_at from tenants where id=$1`, id)
	return scanTenant(row)
}

func (s *tenantStore) FindByCode(ctx context.Context, code string) (*Tenant, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, code, name, active, created_at, updated_at from tenants where code=$1`, code)
	return scanTenant(row)
}

func scanTenant(row *sql.Row) (*Tenant, error) {
	var t Tenant
	if err := row.Scan(&t.ID, &t.Code, &t.Name, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// User store ----------------------------------------------------------------

type userStore struct{ db *sql.DB }

const userColumns = `id, tenant_id, email, password_hash, first_name, last_name, active, last_login_at, created_at, updated_at`

func (s *userStore) Find(ctx context.Context, tenantID, userID string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id=$1 and tenant_id=$2`, userID, tenantID)
	return scanUser(row)
}

func (s *userStore) FindByEmail(ctx context.Context, tenantID, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where lower(email)=lower($1) and tenant_id=$2`, email, tenantID)
	return scanUser(row)
}

func (s *userStore) RecordLogin(ctx context.Context, userID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`update users set last_login_at=$2, updated_at=now() where id=$1`, userID, at)
	return err
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.TenantID, &u.Email, &u.PasswordHash, &u.FirstName,
		&u.LastName, &u.Active, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Role store ----------------------------------------------------------------

type roleStore struct{ db *sql.DB }

func (s *roleStore) AssignmentsForUser(ctx context.Context, tenantID, userID string) ([]RoleAssignment, error) {
	rows, err := s.db.QueryContext(ctx, `
		select ur.user_id, ur.role_id, ur.tenant_id, ur.created_at
		from user_roles ur
		join roles r on r.id = ur.role_id and r.tenant_id = ur.tenant_id
		where ur.user_id=$1 and ur.tenant_id=$2 and r.active`,
		userID, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []RoleAssignment
	for rows.Next() {
		var a RoleAssignment
		if err := rows.Scan(&a.UserID, &a.RoleID, &a.TenantID, &a.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func (s *roleStore) ActiveRoleCodes(ctx context.Context, tenantID, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		select r.code
		from user_roles ur
		join roles r on r.id = ur.role_id and r.tenant_id = ur.tenant_id
		where ur.user_id=$1 and ur.tenant_id=$2 and r.active
		order by r.code`,
		userID, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCodes(rows)
}

// Permission store ----------------------------------------------------------

type permissionStore struct{ db *sql.DB }

func (s *permissionStore) CodesForRole(ctx context.Context, tenantID, roleID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		select p.code
		from role_permissions rp
		join permissions p on p.id = rp.permission_id and p.tenant_id = rp.tenant_id
		where rp.role_id=$1 and rp.tenant_id=$2 and p.active
		order by p.code`,
		roleID, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCodes(rows)
}

func (s *permissionStore) DirectCodesForUser(ctx context.Context, tenantID, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		select p.code
		from user_permissions up
		join permissions p on p.id = up.permission_id and p.tenant_id = up.tenant_id
		where up.user_id=$1 and up.tenant_id=$2 and p.active
		order by p.code`,
		userID, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCodes(rows)
}

func scanCodes(rows *sql.Rows) ([]string, error) {
	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}
