package notify

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/matthewbaird/nightwatch/internal/logging"
)

// LogNotifier simulates delivery by logging. It is the email sender when no
// SendGrid key is configured and a convenient operator channel for the CLI.
type LogNotifier struct {
	log *logrus.Logger
}

// NewLogNotifier logs through the shared logger.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: logging.Logger}
}

func (n *LogNotifier) NotifyOperator(_ context.Context, organizationID, message string) {
	n.log.WithField("organization_id", organizationID).Infof("Night Watch Alert: %s", message)
}

func (n *LogNotifier) NotifyByEmail(_ context.Context, msg Email) error {
	n.log.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Infof("EMAIL SIMULATION\n%s", msg.Body)
	return nil
}
