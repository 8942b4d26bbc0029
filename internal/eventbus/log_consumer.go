package eventbus

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/matthewbaird/nightwatch/internal/event"
	"github.com/matthewbaird/nightwatch/internal/logging"
)

// LogConsumer logs every alert for observability.
type LogConsumer struct{}

func NewLogConsumer() *LogConsumer { return &LogConsumer{} }

func (c *LogConsumer) HandleEvent(_ context.Context, a event.Alert) error {
	logging.Logger.WithFields(logrus.Fields{
		"kind":            a.Kind,
		"organization_id": a.OrganizationID,
		"property_id":     a.PropertyID,
		"run_id":          a.RunID,
		"severity":        a.Severity,
	}).Info(a.Message)
	return nil
}
