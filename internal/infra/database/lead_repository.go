package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xavierca1/rwa-leads/internal/entity"
)

const leadSelect = `
	SELECT
		id,
		COALESCE(name, ''),
		COALESCE(gender, ''),
		COALESCE(contact, ''),
		COALESCE(industry, ''),
		COALESCE(job_role, ''),
		COALESCE(preference_type, ''),
		COALESCE(investment_preference, ''),
		COALESCE(incubation_info, ''),
		age,
		COALESCE(location, ''),
		COALESCE(investment_experience, ''),
		COALESCE(tech_adaptability, ''),
		COALESCE(high_net_worth, ''),
		COALESCE(expected_investment, ''),
		COALESCE(ip, ''),
		COALESCE(user_agent, ''),
		created_at
	FROM lead`

type LeadRepository struct {
	DB      *sql.DB
	Dialect Dialect
}

func NewLeadRepository(db *sql.DB, dialect Dialect) *LeadRepository {
	return &LeadRepository{DB: db, Dialect: dialect}
}

func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now().UTC()
	}

	query := r.Dialect.Rebind(`
		INSERT INTO lead (
			name, gender, contact, industry, job_role, preference_type,
			investment_preference, incubation_info, age, location,
			investment_experience, tech_adaptability, high_net_worth,
			expected_investment, ip, user_agent, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)

	err := r.DB.QueryRowContext(ctx, query,
		lead.Name,
		lead.Gender,
		lead.Contact,
		lead.Industry,
		lead.JobRole,
		lead.PreferenceType,
		nullString(lead.InvestmentPreference),
		nullString(lead.IncubationInfo),
		nullInt(lead.Age),
		nullString(lead.Location),
		nullString(lead.InvestmentExperience),
		nullString(lead.TechAdaptability),
		nullString(lead.HighNetWorth),
		nullString(lead.ExpectedInvestment),
		lead.IP,
		lead.UserAgent,
		lead.CreatedAt,
	).Scan(&lead.ID)

	return r.wrap("insert lead", err)
}

func (r *LeadRepository) FindByID(ctx context.Context, id int64) (*entity.Lead, error) {
	row := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(leadSelect+" WHERE id = ?"), id)
	lead, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrLeadNotFound
	}
	if err != nil {
		return nil, r.wrap("find lead", err)
	}
	return lead, nil
}

// UpdateFields writes exactly the given columns of one row in a single statement.
// id and created_at are not writable.
func (r *LeadRepository) UpdateFields(ctx context.Context, id int64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		if name == "id" || name == "created_at" || !LeadSchema.Has(name) {
			return fmt.Errorf("column %q is not updatable", name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	sets := make([]string, len(names))
	args := make([]any, 0, len(names)+1)
	for i, name := range names {
		sets[i] = name + " = ?"
		args = append(args, fields[name])
	}
	args = append(args, id)

	query := r.Dialect.Rebind(fmt.Sprintf("UPDATE lead SET %s WHERE id = ?", strings.Join(sets, ", ")))
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return r.wrap("update lead", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return entity.ErrLeadNotFound
	}
	return nil
}

func (r *LeadRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, r.Dialect.Rebind("DELETE FROM lead WHERE id = ?"), id)
	if err != nil {
		return r.wrap("delete lead", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return entity.ErrLeadNotFound
	}
	return nil
}

func (r *LeadRepository) List(ctx context.Context, offset, limit int) ([]*entity.Lead, error) {
	query := r.Dialect.Rebind(leadSelect + " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?")
	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, r.wrap("list leads", err)
	}
	defer rows.Close()

	var leads []*entity.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, r.wrap("scan lead", err)
		}
		leads = append(leads, lead)
	}
	return leads, r.wrap("list leads", rows.Err())
}

func (r *LeadRepository) Count(ctx context.Context) (int, error) {
	var total int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM lead").Scan(&total)
	return total, r.wrap("count leads", err)
}

// Each streams every lead, newest first, without loading the table in memory.
func (r *LeadRepository) Each(ctx context.Context, fn func(*entity.Lead) error) error {
	rows, err := r.DB.QueryContext(ctx, leadSelect+" ORDER BY created_at DESC, id DESC")
	if err != nil {
		return r.wrap("export leads", err)
	}
	defer rows.Close()

	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return r.wrap("scan lead", err)
		}
		if err := fn(lead); err != nil {
			return err
		}
	}
	return r.wrap("export leads", rows.Err())
}

// wrap tags errors caused by a stale live schema with entity.ErrSchemaDrift so the
// use cases can trigger an on-demand reconciliation.
func (r *LeadRepository) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if r.Dialect.IsSchemaError(err) {
		return fmt.Errorf("%s: %w: %v", op, entity.ErrSchemaDrift, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(s rowScanner) (*entity.Lead, error) {
	var (
		lead entity.Lead
		age  sql.NullInt64
	)
	err := s.Scan(
		&lead.ID,
		&lead.Name,
		&lead.Gender,
		&lead.Contact,
		&lead.Industry,
		&lead.JobRole,
		&lead.PreferenceType,
		&lead.InvestmentPreference,
		&lead.IncubationInfo,
		&age,
		&lead.Location,
		&lead.InvestmentExperience,
		&lead.TechAdaptability,
		&lead.HighNetWorth,
		&lead.ExpectedInvestment,
		&lead.IP,
		&lead.UserAgent,
		&lead.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if age.Valid {
		v := int(age.Int64)
		lead.Age = &v
	}
	return &lead, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}
