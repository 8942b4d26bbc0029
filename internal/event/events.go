// Package event defines the alerts Night Watch publishes to in-process
// consumers (log, websocket feed) and the recorder that emits them.
package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/matthewbaird/nightwatch/internal/types"
)

// Kind distinguishes what produced an alert.
type Kind string

const (
	// KindOperator is a notification addressed to the property manager.
	KindOperator Kind = "operator"
	// KindActivity mirrors an activity log entry that was just written.
	KindActivity Kind = "activity"
)

// Alert carries the canonical shape of every published event.
type Alert struct {
	ID             string         `json:"id"`
	Kind           Kind           `json:"kind"`
	OrganizationID string         `json:"organization_id,omitempty"`
	PropertyID     string         `json:"property_id,omitempty"`
	RunID          string         `json:"run_id,omitempty"`
	Severity       types.Severity `json:"severity,omitempty"`
	Message        string         `json:"message"`
	OccurredAt     time.Time      `json:"occurred_at"`
}

func newID() string { return uuid.New().String() }

// NewOperatorAlert builds an alert for the operator channel.
func NewOperatorAlert(organizationID, message string) Alert {
	return Alert{
		ID:             newID(),
		Kind:           KindOperator,
		OrganizationID: organizationID,
		Message:        message,
		OccurredAt:     time.Now(),
	}
}

// NewActivityAlert mirrors a written activity entry.
func NewActivityAlert(e types.ActivityLogEntry) Alert {
	return Alert{
		ID:             e.ID,
		Kind:           KindActivity,
		OrganizationID: e.OrganizationID,
		PropertyID:     e.PropertyID,
		RunID:          e.RunID,
		Severity:       e.Status,
		Message:        e.Message,
		OccurredAt:     e.CreatedAt,
	}
}
