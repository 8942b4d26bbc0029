// Package activity stores the audit trail Night Watch writes, one entry per
// firing, and serves the dashboard's recent feed and portfolio pulse.
package activity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matthewbaird/nightwatch/internal/types"
)

const (
	defaultLimit = 100
	maxLimit     = 500
	// RecentFeedSize is how many entries the dashboard feed shows.
	RecentFeedSize = 5
	// DefaultPulseDays is the width of the portfolio pulse.
	DefaultPulseDays = 7
)

// QueryOptions controls filtering and pagination for activity queries.
type QueryOptions struct {
	Since       *time.Time     // inclusive
	Until       *time.Time     // inclusive
	MinSeverity types.Severity // default: info (everything)
	Limit       int            // default: 100, max: 500
	Cursor      string         // next_cursor of the previous page
}

// DefaultQueryOptions returns QueryOptions with sensible defaults.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{
		MinSeverity: types.SeverityInfo,
		Limit:       defaultLimit,
	}
}

func (o QueryOptions) limit() int {
	if o.Limit <= 0 || o.Limit > maxLimit {
		return defaultLimit
	}
	return o.Limit
}

// severities lists the statuses at or above the minimum.
func (o QueryOptions) severities() []types.Severity {
	floor := o.MinSeverity
	if floor == "" {
		floor = types.SeverityInfo
	}
	var out []types.Severity
	for s := range types.SeverityOrder {
		if s.IsAtLeast(floor) {
			out = append(out, s)
		}
	}
	return out
}

// ErrInvalidCursor is returned for a cursor that was not produced by a query.
var ErrInvalidCursor = errors.New("invalid cursor")

// cursor positions a page after the last entry of the previous one. Entries
// are ordered by (created_at, id) descending.
type cursor struct {
	at time.Time
	id string
}

func encodeCursor(e types.ActivityLogEntry) string {
	return e.CreatedAt.UTC().Format(time.RFC3339Nano) + "|" + e.ID
}

func decodeCursor(s string) (cursor, error) {
	ts, id, ok := strings.Cut(s, "|")
	if !ok {
		return cursor{}, fmt.Errorf("%w: %q", ErrInvalidCursor, s)
	}
	at, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return cursor{}, fmt.Errorf("%w: %q: %v", ErrInvalidCursor, s, err)
	}
	return cursor{at: at, id: id}, nil
}

// before reports whether e sorts after the cursor in descending order.
func (c cursor) before(e types.ActivityLogEntry) bool {
	if e.CreatedAt.Equal(c.at) {
		return e.ID < c.id
	}
	return e.CreatedAt.Before(c.at)
}
