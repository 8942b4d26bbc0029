// Package db opens the SQL database behind the stores and creates its tables.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// TimeLayout is the fixed-width UTC layout timestamps are stored in, so that
// text comparison orders them the same way on every backend.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

// DB is a database handle together with the ent dialect used to build
// queries for it.
type DB struct {
	*sql.DB
	Dialect string
}

// Open connects to driver ("sqlite" or "postgres") at url.
func Open(ctx context.Context, driver, url string) (*DB, error) {
	var (
		name string
		d    string
	)
	switch driver {
	case "sqlite", "":
		name, d = "sqlite", dialect.SQLite
	case "postgres":
		name, d = "pgx", dialect.Postgres
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	sqlDB, err := sql.Open(name, url)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if d == dialect.SQLite {
		sqlDB.SetMaxOpenConns(1)
		if _, err := sqlDB.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("enabling foreign keys: %w", err)
		}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return &DB{DB: sqlDB, Dialect: d}, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS organizations (
		id   TEXT PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS members (
		actor           TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL REFERENCES organizations(id)
	)`,
	`CREATE TABLE IF NOT EXISTS properties (
		id                   TEXT PRIMARY KEY,
		organization_id      TEXT NOT NULL REFERENCES organizations(id),
		address              TEXT NOT NULL,
		city                 TEXT NOT NULL DEFAULT '',
		type                 TEXT NOT NULL DEFAULT '',
		lease_end            TEXT,
		rent_due_day         INTEGER,
		next_inspection_date TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_properties_org ON properties (organization_id)`,
	`CREATE TABLE IF NOT EXISTS tenants (
		id              TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL REFERENCES organizations(id),
		full_name       TEXT NOT NULL,
		email           TEXT NOT NULL DEFAULT '',
		phone           TEXT NOT NULL DEFAULT '',
		property_id     TEXT REFERENCES properties(id),
		status          TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tenants_org ON tenants (organization_id)`,
	`CREATE TABLE IF NOT EXISTS policies (
		id              TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL DEFAULT '',
		name            TEXT NOT NULL DEFAULT '',
		scope           TEXT NOT NULL,
		metric          TEXT NOT NULL,
		operator        TEXT NOT NULL DEFAULT '',
		value           TEXT NOT NULL DEFAULT '',
		recipient       TEXT NOT NULL,
		position        INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_policies_org ON policies (organization_id, position)`,
	`CREATE TABLE IF NOT EXISTS asset_log (
		id              TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		property_id     TEXT NOT NULL,
		policy_id       TEXT NOT NULL DEFAULT '',
		run_id          TEXT NOT NULL DEFAULT '',
		message         TEXT NOT NULL,
		status          TEXT NOT NULL,
		classification  TEXT NOT NULL DEFAULT '',
		created_at      TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_asset_log_org_time ON asset_log (organization_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_asset_log_property_time ON asset_log (property_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS notification_ledger (
		property_id    TEXT NOT NULL,
		policy_id      TEXT NOT NULL,
		classification TEXT NOT NULL,
		notified_at    TEXT NOT NULL,
		PRIMARY KEY (property_id, policy_id, classification)
	)`,
}

// Migrate creates every table the stores use. It is idempotent.
func Migrate(ctx context.Context, d *DB) error {
	for _, stmt := range schema {
		if _, err := d.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("running migration: %w", err)
		}
	}
	return nil
}

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a value written by FormatTime.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeLayout, s)
}

// FormatDate renders a nullable calendar date.
func FormatDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format("2006-01-02"), Valid: true}
}

// ParseDate parses a nullable calendar date in loc.
func ParseDate(s sql.NullString, loc *time.Location) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s.String, loc)
	if err != nil {
		return nil, fmt.Errorf("parsing date %q: %w", s.String, err)
	}
	return &t, nil
}
