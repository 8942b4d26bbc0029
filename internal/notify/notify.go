// Package notify delivers Night Watch notifications: operator alerts to the
// property manager and templated emails to tenants.
package notify

import (
	"context"
)

// Email is one message to a named recipient.
type Email struct {
	To      string
	Name    string
	Subject string
	Body    string
}

// OperatorChannel delivers a message to the manager of an organization.
// Delivery is best-effort: implementations log failures and never return
// them.
type OperatorChannel interface {
	NotifyOperator(ctx context.Context, organizationID, message string)
}

// EmailSender delivers an email and reports failure.
type EmailSender interface {
	NotifyByEmail(ctx context.Context, msg Email) error
}

// Notifier is the full notification port the engine depends on.
type Notifier interface {
	OperatorChannel
	EmailSender
}

// Dispatcher fans operator messages out to every channel and hands emails
// to a single sender.
type Dispatcher struct {
	email     EmailSender
	operators []OperatorChannel
}

// NewDispatcher creates a Dispatcher. A nil email sender falls back to the
// log simulation.
func NewDispatcher(email EmailSender, operators ...OperatorChannel) *Dispatcher {
	if email == nil {
		email = NewLogNotifier()
	}
	return &Dispatcher{email: email, operators: operators}
}

// NotifyOperator delivers to every operator channel in registration order.
func (d *Dispatcher) NotifyOperator(ctx context.Context, organizationID, message string) {
	for _, op := range d.operators {
		op.NotifyOperator(ctx, organizationID, message)
	}
}

// NotifyByEmail delivers through the configured sender.
func (d *Dispatcher) NotifyByEmail(ctx context.Context, msg Email) error {
	return d.email.NotifyByEmail(ctx, msg)
}
