// Package ledger remembers when a (property, policy, classification) was
// last notified so that repeat firings inside a window can be suppressed.
// The engine itself never suppresses; a Ledger is plugged in only when a
// dedupe window is configured.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/matthewbaird/nightwatch/internal/db"
)

// Key identifies one kind of firing.
type Key struct {
	PropertyID     string
	PolicyID       string
	Classification string
}

// Backend stores last-notified times.
type Backend interface {
	LastNotified(ctx context.Context, k Key) (time.Time, bool, error)
	Record(ctx context.Context, k Key, at time.Time) error
}

// Ledger applies a suppression window over a Backend.
type Ledger struct {
	backend Backend
	window  time.Duration
}

// New creates a Ledger. A firing is suppressed while less than window has
// passed since it was last recorded.
func New(backend Backend, window time.Duration) *Ledger {
	return &Ledger{backend: backend, window: window}
}

// Suppressed reports whether the firing was already notified inside the
// window ending at now.
func (l *Ledger) Suppressed(ctx context.Context, propertyID, policyID, classification string, now time.Time) (bool, error) {
	if l.window <= 0 {
		return false, nil
	}
	last, ok, err := l.backend.LastNotified(ctx, Key{propertyID, policyID, classification})
	if err != nil || !ok {
		return false, err
	}
	return now.Sub(last) < l.window, nil
}

// Mark records that the firing was notified at now.
func (l *Ledger) Mark(ctx context.Context, propertyID, policyID, classification string, now time.Time) error {
	return l.backend.Record(ctx, Key{propertyID, policyID, classification}, now)
}

// MemoryBackend keeps the ledger in a map.
type MemoryBackend struct {
	mu   sync.RWMutex
	last map[Key]time.Time
}

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{last: make(map[Key]time.Time)}
}

func (b *MemoryBackend) LastNotified(_ context.Context, k Key) (time.Time, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	t, ok := b.last[k]
	return t, ok, nil
}

func (b *MemoryBackend) Record(_ context.Context, k Key, at time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last[k] = at
	return nil
}

// SQLBackend keeps the ledger in the notification_ledger table.
type SQLBackend struct {
	db *db.DB
}

// NewSQLBackend creates a SQLBackend.
func NewSQLBackend(d *db.DB) *SQLBackend {
	return &SQLBackend{db: d}
}

func (b *SQLBackend) LastNotified(ctx context.Context, k Key) (time.Time, bool, error) {
	d := entsql.Dialect(b.db.Dialect)
	query, args := d.Select("notified_at").
		From(d.Table("notification_ledger")).
		Where(entsql.And(
			entsql.EQ("property_id", k.PropertyID),
			entsql.EQ("policy_id", k.PolicyID),
			entsql.EQ("classification", k.Classification),
		)).
		Query()
	var at string
	err := b.db.QueryRowContext(ctx, query, args...).Scan(&at)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("reading ledger: %w", err)
	}
	t, err := db.ParseTime(at)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("reading ledger: %w", err)
	}
	return t, true, nil
}

func (b *SQLBackend) Record(ctx context.Context, k Key, at time.Time) error {
	query, args := entsql.Dialect(b.db.Dialect).Insert("notification_ledger").
		Columns("property_id", "policy_id", "classification", "notified_at").
		Values(k.PropertyID, k.PolicyID, k.Classification, db.FormatTime(at)).
		OnConflict(
			entsql.ConflictColumns("property_id", "policy_id", "classification"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if _, err := b.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("writing ledger: %w", err)
	}
	return nil
}
