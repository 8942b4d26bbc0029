package activity

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/nightwatch/internal/db"
	"github.com/matthewbaird/nightwatch/internal/types"
)

var base = time.Date(2026, 5, 15, 12, 0, 0, 0, time.UTC)

func testEntry(org, property string, status types.Severity, message string, minutesAgo int) types.ActivityLogEntry {
	return types.ActivityLogEntry{
		ID:             "entry-" + message,
		OrganizationID: org,
		PropertyID:     property,
		Message:        message,
		Status:         status,
		CreatedAt:      base.Add(-time.Duration(minutesAgo) * time.Minute),
	}
}

func eachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemoryStore()) })
	t.Run("sql", func(t *testing.T) {
		ctx := context.Background()
		d, err := db.Open(ctx, "sqlite", "file:"+filepath.Join(t.TempDir(), "activity.db"))
		require.NoError(t, err)
		t.Cleanup(func() { d.Close() })
		require.NoError(t, db.Migrate(ctx, d))
		fn(t, NewSQLStore(d))
	})
}

func write(t *testing.T, s Store, entries ...types.ActivityLogEntry) {
	t.Helper()
	for _, e := range entries {
		require.NoError(t, s.Append(context.Background(), e))
	}
}

func messages(entries []types.ActivityLogEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Message
	}
	return out
}

func TestStore_AppendAndQueryByProperty(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		write(t, s,
			testEntry("org-1", "p-1", types.SeverityInfo, "older", 30),
			testEntry("org-1", "p-1", types.SeverityWarning, "newer", 5),
			testEntry("org-1", "p-2", types.SeverityInfo, "elsewhere", 1),
		)

		got, next, total, err := s.QueryByProperty(context.Background(), "p-1", DefaultQueryOptions())
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Empty(t, next)
		assert.Equal(t, []string{"newer", "older"}, messages(got))
		assert.Equal(t, types.SeverityWarning, got[0].Status)
		assert.True(t, got[0].CreatedAt.Equal(base.Add(-5*time.Minute)))
	})
}

func TestStore_AppendFillsIDAndTime(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		require.NoError(t, s.Append(context.Background(), types.ActivityLogEntry{
			OrganizationID: "org-1", PropertyID: "p-1", Message: "m", Status: types.SeverityInfo,
		}))
		got, _, _, err := s.QueryRecent(context.Background(), "org-1", DefaultQueryOptions())
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.NotEmpty(t, got[0].ID)
		assert.False(t, got[0].CreatedAt.IsZero())
	})
}

func TestStore_QueryRecent_MinSeverity(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		write(t, s,
			testEntry("org-1", "p-1", types.SeverityInfo, "info", 10),
			testEntry("org-1", "p-2", types.SeverityWarning, "warning", 5),
			testEntry("org-2", "p-3", types.SeverityWarning, "other org", 1),
		)

		opts := DefaultQueryOptions()
		opts.MinSeverity = types.SeverityWarning
		got, _, total, err := s.QueryRecent(context.Background(), "org-1", opts)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, []string{"warning"}, messages(got))
	})
}

func TestStore_QueryRecent_TimeWindow(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		write(t, s,
			testEntry("org-1", "p-1", types.SeverityInfo, "recent", 5),
			testEntry("org-1", "p-1", types.SeverityInfo, "old", 60*24*10),
		)

		since := base.AddDate(0, 0, -1)
		opts := DefaultQueryOptions()
		opts.Since = &since
		got, _, total, err := s.QueryRecent(context.Background(), "org-1", opts)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, []string{"recent"}, messages(got))

		until := base.AddDate(0, 0, -2)
		opts = DefaultQueryOptions()
		opts.Until = &until
		got, _, _, err = s.QueryRecent(context.Background(), "org-1", opts)
		require.NoError(t, err)
		assert.Equal(t, []string{"old"}, messages(got))
	})
}

func TestStore_CursorPagination(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		// Same timestamp for b and c: the id breaks the tie.
		a := testEntry("org-1", "p-1", types.SeverityInfo, "a", 3)
		b := testEntry("org-1", "p-1", types.SeverityInfo, "b", 2)
		c := testEntry("org-1", "p-1", types.SeverityInfo, "c", 2)
		d := testEntry("org-1", "p-1", types.SeverityInfo, "d", 1)
		write(t, s, a, b, c, d)

		opts := DefaultQueryOptions()
		opts.Limit = 2
		page1, next, total, err := s.QueryRecent(context.Background(), "org-1", opts)
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		assert.Equal(t, []string{"d", "c"}, messages(page1))
		require.NotEmpty(t, next)

		opts.Cursor = next
		page2, next, total, err := s.QueryRecent(context.Background(), "org-1", opts)
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		assert.Equal(t, []string{"b", "a"}, messages(page2))
		assert.Empty(t, next)
	})
}

func TestStore_BadCursor(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		opts := DefaultQueryOptions()
		opts.Cursor = "yesterday"
		_, _, _, err := s.QueryRecent(context.Background(), "org-1", opts)
		assert.Error(t, err)
	})
}

func TestStore_RecentFeed(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		for i := 0; i < 8; i++ {
			write(t, s, testEntry("org-1", "p-1", types.SeverityInfo, string(rune('a'+i)), 10-i))
		}
		opts := DefaultQueryOptions()
		opts.Limit = RecentFeedSize
		got, next, _, err := s.QueryRecent(context.Background(), "org-1", opts)
		require.NoError(t, err)
		assert.Equal(t, []string{"h", "g", "f", "e", "d"}, messages(got))
		assert.NotEmpty(t, next)
	})
}

func TestStore_Pulse(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		day := func(daysAgo int, msg string) types.ActivityLogEntry {
			e := testEntry("org-1", "p-1", types.SeverityInfo, msg, 0)
			e.CreatedAt = base.AddDate(0, 0, -daysAgo)
			return e
		}
		write(t, s,
			day(0, "today-1"), day(0, "today-2"),
			day(2, "two-days"),
			day(6, "edge"),
			day(7, "too-old"),
		)
		other := day(0, "other-org")
		other.OrganizationID = "org-2"
		write(t, s, other)

		pulse, err := s.Pulse(context.Background(), "org-1", DefaultPulseDays, base)
		require.NoError(t, err)
		require.Len(t, pulse, 7)

		assert.Equal(t, "2026-05-09", pulse[0].Date)
		assert.Equal(t, 1, pulse[0].Count)
		assert.Equal(t, 1, pulse[4].Count)
		assert.Equal(t, "2026-05-15", pulse[6].Date)
		assert.Equal(t, "Fri", pulse[6].Day)
		assert.Equal(t, 2, pulse[6].Count)

		sum := 0
		for _, d := range pulse {
			sum += d.Count
		}
		assert.Equal(t, 4, sum)
	})
}
