package activity

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/matthewbaird/nightwatch/internal/db"
	"github.com/matthewbaird/nightwatch/internal/types"
)

// Store is the interface for writing and reading activity log entries.
// The engine is the only writer; entries are never updated or deleted.
type Store interface {
	// Append writes one entry. A missing ID or CreatedAt is filled in.
	Append(ctx context.Context, entry types.ActivityLogEntry) error

	// QueryByProperty returns a property's entries, newest first.
	QueryByProperty(ctx context.Context, propertyID string, opts QueryOptions) (entries []types.ActivityLogEntry, nextCursor string, totalCount int, err error)

	// QueryRecent returns an organization's entries, newest first.
	QueryRecent(ctx context.Context, organizationID string, opts QueryOptions) (entries []types.ActivityLogEntry, nextCursor string, totalCount int, err error)

	// Pulse counts an organization's entries per day over the last days
	// calendar days ending on now's date, oldest first.
	Pulse(ctx context.Context, organizationID string, days int, now time.Time) ([]types.PulseDay, error)
}

func prepare(entry types.ActivityLogEntry) types.ActivityLogEntry {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	return entry
}

// SQLStore implements Store on the asset_log table.
type SQLStore struct {
	db *db.DB
}

// NewSQLStore creates a new SQLStore.
func NewSQLStore(d *db.DB) *SQLStore {
	return &SQLStore{db: d}
}

var logColumns = []string{
	"id", "organization_id", "property_id", "policy_id", "run_id",
	"message", "status", "classification", "created_at",
}

// Append inserts an entry into asset_log.
func (s *SQLStore) Append(ctx context.Context, entry types.ActivityLogEntry) error {
	entry = prepare(entry)
	query, args := entsql.Dialect(s.db.Dialect).Insert("asset_log").
		Columns(logColumns...).
		Values(entry.ID, entry.OrganizationID, entry.PropertyID, entry.PolicyID, entry.RunID,
			entry.Message, string(entry.Status), entry.Classification, db.FormatTime(entry.CreatedAt)).
		Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("writing activity entry: %w", err)
	}
	return nil
}

// QueryByProperty returns activity entries for a property with filtering and pagination.
func (s *SQLStore) QueryByProperty(ctx context.Context, propertyID string, opts QueryOptions) ([]types.ActivityLogEntry, string, int, error) {
	return s.query(ctx, entsql.EQ("property_id", propertyID), opts)
}

// QueryRecent returns activity entries for an organization with filtering and pagination.
func (s *SQLStore) QueryRecent(ctx context.Context, organizationID string, opts QueryOptions) ([]types.ActivityLogEntry, string, int, error) {
	return s.query(ctx, entsql.EQ("organization_id", organizationID), opts)
}

func (s *SQLStore) filters(scope *entsql.Predicate, opts QueryOptions) []*entsql.Predicate {
	preds := []*entsql.Predicate{scope}
	if opts.Since != nil {
		preds = append(preds, entsql.GTE("created_at", db.FormatTime(*opts.Since)))
	}
	if opts.Until != nil {
		preds = append(preds, entsql.LTE("created_at", db.FormatTime(*opts.Until)))
	}
	if opts.MinSeverity != "" && opts.MinSeverity != types.SeverityInfo {
		sevs := opts.severities()
		vals := make([]any, len(sevs))
		for i, sv := range sevs {
			vals[i] = string(sv)
		}
		preds = append(preds, entsql.In("status", vals...))
	}
	return preds
}

func (s *SQLStore) query(ctx context.Context, scope *entsql.Predicate, opts QueryOptions) ([]types.ActivityLogEntry, string, int, error) {
	limit := opts.limit()
	b := entsql.Dialect(s.db.Dialect)
	preds := s.filters(scope, opts)

	// Total ignores the cursor so every page reports the same count.
	countQuery, countArgs := b.Select(entsql.Count("*")).
		From(b.Table("asset_log")).
		Where(entsql.And(preds...)).
		Query()
	var totalCount int
	if err := s.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&totalCount); err != nil {
		return nil, "", 0, fmt.Errorf("counting activity entries: %w", err)
	}

	if opts.Cursor != "" {
		c, err := decodeCursor(opts.Cursor)
		if err != nil {
			return nil, "", 0, err
		}
		at := db.FormatTime(c.at)
		preds = append(preds, entsql.Or(
			entsql.LT("created_at", at),
			entsql.And(entsql.EQ("created_at", at), entsql.LT("id", c.id)),
		))
	}

	query, args := b.Select(logColumns...).
		From(b.Table("asset_log")).
		Where(entsql.And(preds...)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id")).
		Limit(limit + 1). // fetch one extra for cursor
		Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, "", 0, fmt.Errorf("querying activity entries: %w", err)
	}
	defer rows.Close()

	var entries []types.ActivityLogEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, "", 0, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, "", 0, fmt.Errorf("reading activity entries: %w", err)
	}

	var nextCursor string
	if len(entries) > limit {
		entries = entries[:limit]
		nextCursor = encodeCursor(entries[len(entries)-1])
	}
	return entries, nextCursor, totalCount, nil
}

func scanEntry(rows *sql.Rows) (types.ActivityLogEntry, error) {
	var (
		e       types.ActivityLogEntry
		status  string
		created string
	)
	if err := rows.Scan(&e.ID, &e.OrganizationID, &e.PropertyID, &e.PolicyID, &e.RunID,
		&e.Message, &status, &e.Classification, &created); err != nil {
		return e, fmt.Errorf("scanning activity entry: %w", err)
	}
	e.Status = types.Severity(status)
	at, err := db.ParseTime(created)
	if err != nil {
		return e, fmt.Errorf("activity entry %s: %w", e.ID, err)
	}
	e.CreatedAt = at
	return e, nil
}

// Pulse buckets an organization's entries per calendar day.
func (s *SQLStore) Pulse(ctx context.Context, organizationID string, days int, now time.Time) ([]types.PulseDay, error) {
	b := entsql.Dialect(s.db.Dialect)
	query, args := b.Select("created_at").
		From(b.Table("asset_log")).
		Where(entsql.And(
			entsql.EQ("organization_id", organizationID),
			entsql.GTE("created_at", db.FormatTime(pulseWindow(now, days))),
		)).
		Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying pulse: %w", err)
	}
	defer rows.Close()

	var stamps []time.Time
	for rows.Next() {
		var created string
		if err := rows.Scan(&created); err != nil {
			return nil, fmt.Errorf("scanning pulse: %w", err)
		}
		at, err := db.ParseTime(created)
		if err != nil {
			return nil, err
		}
		stamps = append(stamps, at)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading pulse: %w", err)
	}
	return bucketPulse(stamps, now, days), nil
}
