// Package engine runs Night Watch: it evaluates every policy against every
// property of one organization, dispatches notifications for the firings and
// writes one activity entry per firing.
//
// The engine keeps no state between runs. Running it twice re-fires every
// policy that still matches; callers that want once-per-window delivery
// schedule it accordingly or install a Suppressor.
package engine

import (
	"context"
	"time"

	"github.com/matthewbaird/nightwatch/internal/notify"
	"github.com/matthewbaird/nightwatch/internal/types"
)

// DataPort is the read side of the record store.
type DataPort interface {
	OrganizationFor(ctx context.Context, actor string) (string, error)
	Properties(ctx context.Context, organizationID string) ([]types.Property, error)
	Tenants(ctx context.Context, organizationID string) ([]types.Tenant, error)
	Policies(ctx context.Context, organizationID string) ([]types.Policy, error)
}

// ActivityLog receives one entry per firing.
type ActivityLog interface {
	Append(ctx context.Context, entry types.ActivityLogEntry) error
}

// Suppressor optionally skips firings that were already notified.
type Suppressor interface {
	Suppressed(ctx context.Context, propertyID, policyID, classification string, now time.Time) (bool, error)
	Mark(ctx context.Context, propertyID, policyID, classification string, now time.Time) error
}

// Engine evaluates policies. It is safe for concurrent use.
type Engine struct {
	data        DataPort
	activity    ActivityLog
	notifier    notify.Notifier
	now         func() time.Time
	loc         *time.Location
	parallelism int
	suppressor  Suppressor
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the time zone "today" is evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithParallelism evaluates up to n properties concurrently. The report is
// identical to a sequential run.
func WithParallelism(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.parallelism = n
		}
	}
}

// WithSuppressor installs a Suppressor.
func WithSuppressor(s Suppressor) Option {
	return func(e *Engine) { e.suppressor = s }
}

// New creates an Engine.
func New(data DataPort, activity ActivityLog, notifier notify.Notifier, opts ...Option) *Engine {
	e := &Engine{
		data:        data,
		activity:    activity,
		notifier:    notifier,
		now:         time.Now,
		loc:         time.Local,
		parallelism: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
