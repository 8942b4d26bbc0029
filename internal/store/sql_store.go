package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/matthewbaird/nightwatch/internal/db"
	"github.com/matthewbaird/nightwatch/internal/types"
)

// SQLStore implements Store on the tables created by db.Migrate.
// Queries are built with ent's SQL builder so one code path serves SQLite
// and Postgres.
type SQLStore struct {
	db  *db.DB
	loc *time.Location
}

// NewSQLStore creates a SQLStore. Calendar dates are read back in loc.
func NewSQLStore(d *db.DB, loc *time.Location) *SQLStore {
	if loc == nil {
		loc = time.Local
	}
	return &SQLStore{db: d, loc: loc}
}

func (s *SQLStore) builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.db.Dialect)
}

type querier interface {
	Query() (string, []any)
}

func (s *SQLStore) exec(ctx context.Context, q querier) (sql.Result, error) {
	query, args := q.Query()
	return s.db.ExecContext(ctx, query, args...)
}

func (s *SQLStore) OrganizationFor(ctx context.Context, actor string) (string, error) {
	b := s.builder()
	query, args := b.Select("organization_id").
		From(b.Table("members")).
		Where(entsql.EQ("actor", actor)).
		Query()
	var org string
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&org)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoOrganization
	}
	if err != nil {
		return "", fmt.Errorf("resolving organization: %w", err)
	}
	return org, nil
}

func (s *SQLStore) Organizations(ctx context.Context) ([]types.Organization, error) {
	b := s.builder()
	query, args := b.Select("id", "name").
		From(b.Table("organizations")).
		OrderBy("id").
		Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying organizations: %w", err)
	}
	defer rows.Close()

	var out []types.Organization
	for rows.Next() {
		var o types.Organization
		if err := rows.Scan(&o.ID, &o.Name); err != nil {
			return nil, fmt.Errorf("scanning organization: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

var propertyColumns = []string{
	"id", "organization_id", "address", "city", "type",
	"lease_end", "rent_due_day", "next_inspection_date",
}

func (s *SQLStore) Properties(ctx context.Context, organizationID string) ([]types.Property, error) {
	b := s.builder()
	query, args := b.Select(propertyColumns...).
		From(b.Table("properties")).
		Where(entsql.EQ("organization_id", organizationID)).
		OrderBy("id").
		Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying properties: %w", err)
	}
	defer rows.Close()

	var out []types.Property
	for rows.Next() {
		var (
			p                  types.Property
			leaseEnd, nextInsp sql.NullString
			rentDay            sql.NullInt64
		)
		if err := rows.Scan(&p.ID, &p.OrganizationID, &p.Address, &p.City, &p.Type, &leaseEnd, &rentDay, &nextInsp); err != nil {
			return nil, fmt.Errorf("scanning property: %w", err)
		}
		if p.LeaseEnd, err = db.ParseDate(leaseEnd, s.loc); err != nil {
			return nil, fmt.Errorf("property %s: %w", p.ID, err)
		}
		if p.NextInspectionDate, err = db.ParseDate(nextInsp, s.loc); err != nil {
			return nil, fmt.Errorf("property %s: %w", p.ID, err)
		}
		if rentDay.Valid {
			d := int(rentDay.Int64)
			p.RentDueDay = &d
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLStore) Tenants(ctx context.Context, organizationID string) ([]types.Tenant, error) {
	b := s.builder()
	query, args := b.Select("id", "organization_id", "full_name", "email", "phone", "property_id", "status").
		From(b.Table("tenants")).
		Where(entsql.EQ("organization_id", organizationID)).
		OrderBy("id").
		Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tenants: %w", err)
	}
	defer rows.Close()

	var out []types.Tenant
	for rows.Next() {
		var (
			t      types.Tenant
			propID sql.NullString
			status string
		)
		if err := rows.Scan(&t.ID, &t.OrganizationID, &t.FullName, &t.Email, &t.Phone, &propID, &status); err != nil {
			return nil, fmt.Errorf("scanning tenant: %w", err)
		}
		if propID.Valid {
			id := propID.String
			t.PropertyID = &id
		}
		t.Status = types.TenantStatus(status)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLStore) Policies(ctx context.Context, organizationID string) ([]types.Policy, error) {
	b := s.builder()
	sel := b.Select("id", "organization_id", "name", "scope", "metric", "operator", "value", "recipient").
		From(b.Table("policies"))
	if organizationID != "" {
		sel.Where(entsql.EQ("organization_id", organizationID))
	}
	query, args := sel.OrderBy("position", "id").Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying policies: %w", err)
	}
	defer rows.Close()

	var out []types.Policy
	for rows.Next() {
		var p types.Policy
		if err := rows.Scan(&p.ID, &p.OrganizationID, &p.Name, &p.Scope, &p.Metric, &p.Operator, &p.Value, &p.Recipient); err != nil {
			return nil, fmt.Errorf("scanning policy: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLStore) SaveOrganization(ctx context.Context, o types.Organization) error {
	if err := types.Validate(o); err != nil {
		return err
	}
	_, err := s.exec(ctx, s.builder().Insert("organizations").
		Columns("id", "name").
		Values(o.ID, o.Name).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()))
	if err != nil {
		return fmt.Errorf("saving organization: %w", err)
	}
	return nil
}

func (s *SQLStore) SaveMember(ctx context.Context, m types.Member) error {
	if err := types.Validate(m); err != nil {
		return err
	}
	_, err := s.exec(ctx, s.builder().Insert("members").
		Columns("actor", "organization_id").
		Values(m.Actor, m.OrganizationID).
		OnConflict(entsql.ConflictColumns("actor"), entsql.ResolveWithNewValues()))
	if err != nil {
		return fmt.Errorf("saving member: %w", err)
	}
	return nil
}

func (s *SQLStore) SaveProperty(ctx context.Context, p types.Property) error {
	if err := checkProperty(p); err != nil {
		return err
	}
	var rentDay sql.NullInt64
	if p.RentDueDay != nil {
		rentDay = sql.NullInt64{Int64: int64(*p.RentDueDay), Valid: true}
	}
	_, err := s.exec(ctx, s.builder().Insert("properties").
		Columns(propertyColumns...).
		Values(p.ID, p.OrganizationID, p.Address, p.City, p.Type,
			db.FormatDate(p.LeaseEnd), rentDay, db.FormatDate(p.NextInspectionDate)).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()))
	if err != nil {
		return fmt.Errorf("saving property: %w", err)
	}
	return nil
}

func (s *SQLStore) property(ctx context.Context, id string) (*types.Property, error) {
	b := s.builder()
	query, args := b.Select("id", "organization_id").
		From(b.Table("properties")).
		Where(entsql.EQ("id", id)).
		Query()
	var p types.Property
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&p.ID, &p.OrganizationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading property: %w", err)
	}
	return &p, nil
}

func (s *SQLStore) SaveTenant(ctx context.Context, t types.Tenant) error {
	var prop *types.Property
	var propID sql.NullString
	if t.PropertyID != nil {
		var err error
		if prop, err = s.property(ctx, *t.PropertyID); err != nil {
			return err
		}
		propID = sql.NullString{String: *t.PropertyID, Valid: true}
	}
	if err := types.ValidateTenant(t, prop); err != nil {
		return err
	}
	_, err := s.exec(ctx, s.builder().Insert("tenants").
		Columns("id", "organization_id", "full_name", "email", "phone", "property_id", "status").
		Values(t.ID, t.OrganizationID, t.FullName, t.Email, t.Phone, propID, string(t.Status)).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()))
	if err != nil {
		return fmt.Errorf("saving tenant: %w", err)
	}
	return nil
}

func (s *SQLStore) SavePolicy(ctx context.Context, p types.Policy) (types.Policy, error) {
	p, err := preparePolicy(p)
	if err != nil {
		return types.Policy{}, err
	}

	b := s.builder()
	query, args := b.Select("organization_id").
		From(b.Table("policies")).
		Where(entsql.EQ("id", p.ID)).
		Query()
	var owner string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&owner)
	switch {
	case err == nil && owner != p.OrganizationID:
		return types.Policy{}, fmt.Errorf("policy %s: %w", p.ID, ErrNotFound)
	case err == nil:
		_, err = s.exec(ctx, b.Update("policies").
			Set("name", p.Name).
			Set("scope", p.Scope).
			Set("metric", p.Metric).
			Set("operator", p.Operator).
			Set("value", p.Value).
			Set("recipient", p.Recipient).
			Where(entsql.And(
				entsql.EQ("id", p.ID),
				entsql.EQ("organization_id", p.OrganizationID),
			)))
		if err != nil {
			return types.Policy{}, fmt.Errorf("updating policy: %w", err)
		}
		return p, nil
	case !errors.Is(err, sql.ErrNoRows):
		return types.Policy{}, fmt.Errorf("loading policy: %w", err)
	}

	// Append after the organization's last policy.
	query, args = b.Select("MAX(position)").
		From(b.Table("policies")).
		Where(entsql.EQ("organization_id", p.OrganizationID)).
		Query()
	var last sql.NullInt64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&last); err != nil {
		return types.Policy{}, fmt.Errorf("positioning policy: %w", err)
	}
	position := 0
	if last.Valid {
		position = int(last.Int64) + 1
	}

	_, err = s.exec(ctx, b.Insert("policies").
		Columns("id", "organization_id", "name", "scope", "metric", "operator", "value", "recipient", "position").
		Values(p.ID, p.OrganizationID, p.Name, p.Scope, p.Metric, p.Operator, p.Value, p.Recipient, position))
	if err != nil {
		return types.Policy{}, fmt.Errorf("inserting policy: %w", err)
	}
	return p, nil
}

func (s *SQLStore) DeletePolicy(ctx context.Context, organizationID, id string) error {
	res, err := s.exec(ctx, s.builder().Delete("policies").
		Where(entsql.And(
			entsql.EQ("id", id),
			entsql.EQ("organization_id", organizationID),
		)))
	if err != nil {
		return fmt.Errorf("deleting policy: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("policy %s: %w", id, ErrNotFound)
	}
	return nil
}
