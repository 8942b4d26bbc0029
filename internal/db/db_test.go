package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"entgo.io/ent/dialect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAndMigrate_SQLite(t *testing.T) {
	ctx := context.Background()
	d, err := Open(ctx, "sqlite", "file:"+filepath.Join(t.TempDir(), "nw.db"))
	require.NoError(t, err)
	defer d.Close()
	assert.Equal(t, dialect.SQLite, d.Dialect)

	require.NoError(t, Migrate(ctx, d))
	require.NoError(t, Migrate(ctx, d), "migration is idempotent")

	var n int
	require.NoError(t, d.QueryRowContext(ctx, "SELECT COUNT(*) FROM asset_log").Scan(&n))
	assert.Zero(t, n)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "")
	assert.Error(t, err)
}

func TestTimeFormatsSortLexically(t *testing.T) {
	a := time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)
	b := a.Add(time.Nanosecond)
	assert.Less(t, FormatTime(a), FormatTime(b))

	parsed, err := ParseTime(FormatTime(a))
	require.NoError(t, err)
	assert.True(t, parsed.Equal(a))
}

func TestDates(t *testing.T) {
	assert.False(t, FormatDate(nil).Valid)

	d := time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC)
	ns := FormatDate(&d)
	assert.Equal(t, "2026-07-04", ns.String)

	back, err := ParseDate(ns, time.UTC)
	require.NoError(t, err)
	require.NotNil(t, back)
	assert.True(t, back.Equal(d))

	none, err := ParseDate(sql.NullString{}, time.UTC)
	require.NoError(t, err)
	assert.Nil(t, none)
}
