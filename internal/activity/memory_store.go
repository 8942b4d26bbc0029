package activity

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/matthewbaird/nightwatch/internal/types"
)

// MemoryStore implements Store using an in-memory slice.
// Intended for demos and testing, no database required.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []types.ActivityLogEntry
}

// NewMemoryStore creates a new empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, entry types.ActivityLogEntry) error {
	entry = prepare(entry)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// Entries returns a copy of everything written, in write order.
func (s *MemoryStore) Entries() []types.ActivityLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.ActivityLogEntry(nil), s.entries...)
}

func (s *MemoryStore) QueryByProperty(_ context.Context, propertyID string, opts QueryOptions) ([]types.ActivityLogEntry, string, int, error) {
	return s.query(func(e types.ActivityLogEntry) bool { return e.PropertyID == propertyID }, opts)
}

func (s *MemoryStore) QueryRecent(_ context.Context, organizationID string, opts QueryOptions) ([]types.ActivityLogEntry, string, int, error) {
	return s.query(func(e types.ActivityLogEntry) bool { return e.OrganizationID == organizationID }, opts)
}

func (s *MemoryStore) query(scope func(types.ActivityLogEntry) bool, opts QueryOptions) ([]types.ActivityLogEntry, string, int, error) {
	var (
		c   cursor
		err error
	)
	if opts.Cursor != "" {
		if c, err = decodeCursor(opts.Cursor); err != nil {
			return nil, "", 0, err
		}
	}
	floor := opts.MinSeverity
	if floor == "" {
		floor = types.SeverityInfo
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []types.ActivityLogEntry
	totalCount := 0
	for _, e := range s.entries {
		if !scope(e) {
			continue
		}
		if opts.Since != nil && e.CreatedAt.Before(*opts.Since) {
			continue
		}
		if opts.Until != nil && e.CreatedAt.After(*opts.Until) {
			continue
		}
		if !e.Status.IsAtLeast(floor) {
			continue
		}
		totalCount++
		if opts.Cursor != "" && !c.before(e) {
			continue
		}
		matched = append(matched, e)
	}

	// Sort by created_at DESC, id DESC.
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	limit := opts.limit()
	var nextCursor string
	if len(matched) > limit {
		matched = matched[:limit]
		nextCursor = encodeCursor(matched[len(matched)-1])
	}
	return matched, nextCursor, totalCount, nil
}

func (s *MemoryStore) Pulse(_ context.Context, organizationID string, days int, now time.Time) ([]types.PulseDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stamps []time.Time
	for _, e := range s.entries {
		if e.OrganizationID == organizationID {
			stamps = append(stamps, e.CreatedAt)
		}
	}
	return bucketPulse(stamps, now, days), nil
}
