package eventbus

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/nightwatch/internal/event"
	"github.com/matthewbaird/nightwatch/internal/logging"
)

type collector struct {
	mu     sync.Mutex
	alerts []event.Alert
}

func (c *collector) HandleEvent(_ context.Context, a event.Alert) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alerts = append(c.alerts, a)
	return nil
}

func (c *collector) messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.alerts))
	for i, a := range c.alerts {
		out[i] = a.Message
	}
	return out
}

func TestBus_DeliversInOrderToAllSubscribers(t *testing.T) {
	logging.Discard()
	bus := New(16)
	first, second := &collector{}, &collector{}
	bus.Subscribe("first", first)
	bus.Subscribe("failing", HandlerFunc(func(context.Context, event.Alert) error {
		return errors.New("boom")
	}))
	bus.Subscribe("second", second)
	bus.Start(context.Background())

	for _, m := range []string{"a", "b", "c"} {
		bus.Publish(context.Background(), event.NewOperatorAlert("org-1", m))
	}
	bus.Stop()

	assert.Equal(t, []string{"a", "b", "c"}, first.messages())
	assert.Equal(t, []string{"a", "b", "c"}, second.messages(), "a failing handler does not stop later ones")
}

func TestBus_DropsWhenFull(t *testing.T) {
	logging.Discard()
	bus := New(1)
	c := &collector{}
	bus.Subscribe("c", c)

	bus.Publish(context.Background(), event.NewOperatorAlert("org-1", "kept"))
	bus.Publish(context.Background(), event.NewOperatorAlert("org-1", "dropped"))

	bus.Start(context.Background())
	bus.Stop()
	assert.Equal(t, []string{"kept"}, c.messages())
}

func TestBus_PublishAfterStopIsDropped(t *testing.T) {
	logging.Discard()
	bus := New(4)
	bus.Start(context.Background())
	bus.Stop()
	require.NotPanics(t, func() {
		bus.Publish(context.Background(), event.NewOperatorAlert("org-1", "late"))
	})
	require.NotPanics(t, bus.Stop)
}

func TestBus_DrainsOnCancel(t *testing.T) {
	logging.Discard()
	bus := New(8)
	c := &collector{}
	bus.Subscribe("c", c)
	bus.Publish(context.Background(), event.NewOperatorAlert("org-1", "queued"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Start(ctx)
	<-bus.done
	assert.Equal(t, []string{"queued"}, c.messages())
}

func TestBus_StopWithoutStart(t *testing.T) {
	logging.Discard()
	bus := New(4)
	require.NotPanics(t, bus.Stop)
	bus.Start(context.Background())
	bus.Publish(context.Background(), event.NewOperatorAlert("org-1", "late"))
}
