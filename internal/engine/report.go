package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/matthewbaird/nightwatch/internal/policy"
	"github.com/matthewbaird/nightwatch/internal/types"
)

// Report lines. The run report is shown to the operator verbatim.
const (
	LineNoActor        = "no authenticated actor"
	LineNoOrganization = "no organization found"
	LineNoProperties   = "no properties found"
	LineComplete       = "SYNC COMPLETE."
)

// Firing is the structured record of one (property, policy) pair whose
// trigger held during the run.
type Firing struct {
	PropertyID     string                `json:"property_id"`
	PolicyID       string                `json:"policy_id"`
	Recipient      string                `json:"recipient"`
	Classification policy.Classification `json:"classification"`
	Severity       types.Severity        `json:"severity"`
	DaysRemaining  *int                  `json:"days_remaining,omitempty"`
	Message        string                `json:"message"`
	Notified       bool                  `json:"notified"`
	Logged         bool                  `json:"logged"`
	Suppressed     bool                  `json:"suppressed,omitempty"`
}

// RunReport is the outcome of one run.
type RunReport struct {
	RunID          string    `json:"run_id,omitempty"`
	OrganizationID string    `json:"organization_id,omitempty"`
	Success        bool      `json:"success"`
	Logs           []string  `json:"logs"`
	Firings        []Firing  `json:"firings,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
}

// Triggered counts firings that were acted on.
func (r RunReport) Triggered() int {
	n := 0
	for _, f := range r.Firings {
		if !f.Suppressed {
			n++
		}
	}
	return n
}

// String renders the log one line per entry.
func (r RunReport) String() string {
	return strings.Join(r.Logs, "\n")
}

func failure(line string, at time.Time) RunReport {
	return RunReport{Success: false, Logs: []string{line}, StartedAt: at, FinishedAt: at}
}

func firingMessage(address string, m policy.Match) string {
	if m.Classification == policy.ClassRentDue {
		return "Rent Due: " + address
	}
	return fmt.Sprintf("Lease Alert (%s): %s (%d days left)", strings.ToUpper(string(m.Zone)), address, *m.DaysRemaining)
}

func emailSentLine(name string) string {
	return "Email sent to " + name
}

func missingTenantLine(address string) string {
	return "No tenant found for " + address
}

func emailErrorLine(err error) string {
	return fmt.Sprintf("(Email Error: %v)", err)
}

func dbErrorLine(err error) string {
	return fmt.Sprintf("(DB Error: %v)", err)
}
