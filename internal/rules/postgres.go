package rules

import (
	"context"
	"database/sql"

	"elina.dev/internal/ids"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL. Rule numbers are unique per
// tenant; all queries are tenant-filtered.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const ruleColumns = `rule_id, tenant_id, rule_number, control_point, applicability, rule_value, description, active, created_by, created_at, updated_by, updated_at`

func (s *PGStore) FindByNumber(ctx context.Context, tenantID string, ruleNumber int) (*BusinessRule, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+ruleColumns+` from business_rules where tenant_id=$1 and rule_number=$2`,
		tenantID, ruleNumber)
	return scanRule(row)
}

func (s *PGStore) ActiveByTenant(ctx context.Context, tenantID string) ([]BusinessRule, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+ruleColumns+` from business_rules
		 where tenant_id=$1 and active and applicability='Y'
		 order by rule_number`,
		tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRules(rows)
}

func (s *PGStore) ByControlPoint(ctx context.Context, tenantID, controlPoint string) ([]BusinessRule, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+ruleColumns+` from business_rules
		 where tenant_id=$1 and control_point=$2
		 order by rule_number`,
		tenantID, controlPoint)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRules(rows)
}

func (s *PGStore) List(ctx context.Context, tenantID string) ([]BusinessRule, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+ruleColumns+` from business_rules where tenant_id=$1 order by rule_number`,
		tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRules(rows)
}

func (s *PGStore) Get(ctx context.Context, tenantID, ruleID string) (*BusinessRule, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+ruleColumns+` from business_rules where rule_id=$1 and tenant_id=$2`,
		ruleID, tenantID)
	return scanRule(row)
}

func (s *PGStore) ExistsByNumber(ctx context.Context, tenantID string, ruleNumber int) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from business_rules where tenant_id=$1 and rule_number=$2)`,
		tenantID, ruleNumber).Scan(&exists)
	return exists, err
}

func (s *PGStore) Create(ctx context.Context, rule *BusinessRule) error {
	if rule.RuleID == "" {
		rule.RuleID = ids.New()
	}
	_, err := s.db.ExecContext(ctx, `
		insert into business_rules
			(rule_id, tenant_id, rule_number, control_point, applicability, rule_value, description, active, created_by, updated_by)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		rule.RuleID, rule.TenantID, rule.RuleNumber, rule.ControlPoint, rule.Applicability,
		rule.RuleValue, rule.Description, rule.Active, rule.CreatedBy, rule.UpdatedBy)
	return err
}

func (s *PGStore) Update(ctx context.Context, rule *BusinessRule) error {
	res, err := s.db.ExecContext(ctx, `
		update business_rules
		set rule_number=$3, control_point=$4, applicability=$5, rule_value=$6,
		    description=$7, active=$8, updated_by=$9, updated_at=now()
		where rule_id=$1 and tenant_id=$2`,
		rule.RuleID, rule.TenantID, rule.RuleNumber, rule.ControlPoint, rule.Applicability,
		rule.RuleValue, rule.Description, rule.Active, rule.UpdatedBy)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, tenantID, ruleID string) error {
	res, err := s.db.ExecContext(ctx,
		`delete from business_rules where rule_id=$1 and tenant_id=$2`, ruleID, tenantID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRule(row *sql.Row) (*BusinessRule, error) {
	var r BusinessRule
	if err := row.Scan(&r.RuleID, &r.TenantID, &r.RuleNumber, &r.ControlPoint, &r.Applicability,
		&r.RuleValue, &r.Description, &r.Active, &r.CreatedBy, &r.CreatedAt, &r.UpdatedBy, &r.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func scanRules(rows *sql.Rows) ([]BusinessRule, error) {
	var res []BusinessRule
	for rows.Next() {
		var r BusinessRule
		if err := rows.Scan(&r.RuleID, &r.TenantID, &r.RuleNumber, &r.ControlPoint, &r.Applicability,
			&r.RuleValue, &r.Description, &r.Active, &r.CreatedBy, &r.CreatedAt, &r.UpdatedBy, &r.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	return res, rows.Err()
}
