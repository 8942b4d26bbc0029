package notify

import (
	"context"

	"github.com/matthewbaird/nightwatch/internal/event"
)

// BusOperator publishes operator alerts onto the event bus, where the log
// consumer and the websocket feed pick them up.
type BusOperator struct {
	bus event.Publisher
}

// NewBusOperator creates a BusOperator.
func NewBusOperator(bus event.Publisher) *BusOperator {
	return &BusOperator{bus: bus}
}

func (o *BusOperator) NotifyOperator(ctx context.Context, organizationID, message string) {
	o.bus.Publish(ctx, event.NewOperatorAlert(organizationID, message))
}
