package event

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matthewbaird/nightwatch/internal/activity"
	"github.com/matthewbaird/nightwatch/internal/types"
)

// Publisher sends alerts to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, a Alert)
}

// ActivityRecorder writes activity entries to the store and, if a Publisher
// is set, publishes each one after the write succeeds.
type ActivityRecorder struct {
	store activity.Store
	bus   Publisher
}

// NewActivityRecorder creates a new ActivityRecorder backed by the given store.
func NewActivityRecorder(store activity.Store) *ActivityRecorder {
	return &ActivityRecorder{store: store}
}

// SetPublisher attaches an event bus. Alerts are published after store writes.
func (r *ActivityRecorder) SetPublisher(p Publisher) {
	r.bus = p
}

// Append writes the entry and publishes it.
func (r *ActivityRecorder) Append(ctx context.Context, entry types.ActivityLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := r.store.Append(ctx, entry); err != nil {
		return err
	}
	if r.bus != nil {
		r.bus.Publish(ctx, NewActivityAlert(entry))
	}
	return nil
}
