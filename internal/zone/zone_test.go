package zone

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		days int
		want Zone
	}{
		{365, Safe},
		{91, Safe},
		{90, Inspection},
		{45, Inspection},
		{31, Inspection},
		{30, Notice},
		{1, Notice},
		{0, Notice},
		{-1, Notice},
		{-400, Notice},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.days), "days=%d", tt.days)
	}
}

func TestClassify_NeverInspectionAtOrBelowThirty(t *testing.T) {
	for d := -200; d <= NoticeDays; d++ {
		assert.Equal(t, Notice, Classify(d))
	}
	for d := NoticeDays + 1; d <= InspectionDays; d++ {
		assert.Equal(t, Inspection, Classify(d))
	}
}

func TestZone_Triggers(t *testing.T) {
	assert.False(t, Safe.Triggers())
	assert.True(t, Inspection.Triggers())
	assert.True(t, Notice.Triggers())
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

	assert.Equal(t, 0, DaysUntil(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), now))
	assert.Equal(t, 1, DaysUntil(time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), now))
	assert.Equal(t, 45, DaysUntil(now.AddDate(0, 0, 45), now))
	assert.Equal(t, -1, DaysUntil(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), now))
}

func TestDaysUntil_UsesNowLocation(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*3600)
	now := time.Date(2026, 3, 10, 23, 0, 0, 0, loc)
	target := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 1, DaysUntil(target, now))
}

func TestDaysUntil_AcrossDaylightSavingChange(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// Clocks fall back on 2026-11-01, so the span holds a 25-hour day.
	now := time.Date(2026, 10, 31, 0, 5, 0, 0, ny)
	leaseEnd := time.Date(2026, 11, 30, 0, 0, 0, 0, ny)
	days := DaysUntil(leaseEnd, now)
	assert.Equal(t, 30, days)
	assert.Equal(t, Notice, Classify(days))

	// Clocks spring forward on 2026-03-08, a 23-hour day.
	now = time.Date(2026, 3, 7, 23, 30, 0, 0, ny)
	leaseEnd = time.Date(2026, 4, 7, 0, 0, 0, 0, ny)
	assert.Equal(t, 31, DaysUntil(leaseEnd, now))
	assert.Equal(t, 0, DaysUntil(time.Date(2026, 3, 7, 0, 0, 0, 0, ny), now))
}
