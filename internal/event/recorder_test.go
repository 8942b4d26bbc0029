package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/nightwatch/internal/activity"
	"github.com/matthewbaird/nightwatch/internal/types"
)

type capture struct{ alerts []Alert }

func (c *capture) Publish(_ context.Context, a Alert) { c.alerts = append(c.alerts, a) }

type failingStore struct{ activity.Store }

func (failingStore) Append(context.Context, types.ActivityLogEntry) error {
	return errors.New("disk full")
}

func TestActivityRecorder_WritesThenPublishes(t *testing.T) {
	store := activity.NewMemoryStore()
	rec := NewActivityRecorder(store)
	bus := &capture{}
	rec.SetPublisher(bus)

	err := rec.Append(context.Background(), types.ActivityLogEntry{
		OrganizationID: "org-1",
		PropertyID:     "p-1",
		Message:        "Lease Alert (NOTICE): 1 Oak (10 days left)",
		Status:         types.SeverityWarning,
	})
	require.NoError(t, err)

	written := store.Entries()
	require.Len(t, written, 1)
	require.Len(t, bus.alerts, 1)

	a := bus.alerts[0]
	assert.Equal(t, KindActivity, a.Kind)
	assert.Equal(t, written[0].ID, a.ID, "store and alert share the id")
	assert.Equal(t, types.SeverityWarning, a.Severity)
	assert.WithinDuration(t, time.Now(), a.OccurredAt, time.Minute)
}

func TestActivityRecorder_NoPublishOnFailure(t *testing.T) {
	rec := NewActivityRecorder(failingStore{})
	bus := &capture{}
	rec.SetPublisher(bus)

	err := rec.Append(context.Background(), types.ActivityLogEntry{OrganizationID: "org-1", Message: "x"})
	require.Error(t, err)
	assert.Empty(t, bus.alerts)
}

func TestNewOperatorAlert(t *testing.T) {
	a := NewOperatorAlert("org-1", "Rent Due: 1 Oak")
	assert.Equal(t, KindOperator, a.Kind)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "org-1", a.OrganizationID)
}
