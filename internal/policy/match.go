package policy

import (
	"time"

	"github.com/matthewbaird/nightwatch/internal/types"
	"github.com/matthewbaird/nightwatch/internal/zone"
)

// Classification tags a firing and selects notification content.
type Classification string

const (
	ClassInspection Classification = "inspection"
	ClassNotice     Classification = "notice"
	ClassRentDue    Classification = "rent-due"
)

// Severity returns the activity log status for the classification.
func (c Classification) Severity() types.Severity {
	if c == ClassNotice {
		return types.SeverityWarning
	}
	return types.SeverityInfo
}

// Env is the evaluation context of one run.
type Env struct {
	Now time.Time
}

// Match is the outcome of a rule that applies to a property.
type Match struct {
	Classification Classification
	Zone           zone.Zone
	// DaysRemaining is set for lease_end matches only.
	DaysRemaining *int
}

// Severity is shorthand for m.Classification.Severity().
func (m Match) Severity() types.Severity { return m.Classification.Severity() }

// ScopeMatches reports whether a policy scope selects the property: the
// reserved "global" scope, the property's category, or its exact id.
func ScopeMatches(scope string, p types.Property) bool {
	switch scope {
	case types.ScopeGlobal:
		return true
	case p.Category(), p.ID:
		return true
	}
	return false
}

// Evaluate reports whether the rule fires for the property, and how.
func (r Rule) Evaluate(p types.Property, env Env) (Match, bool) {
	if !ScopeMatches(r.Scope, p) {
		return Match{}, false
	}
	return r.Trigger.evaluate(p, env)
}

func (LeaseEnd) evaluate(p types.Property, env Env) (Match, bool) {
	if p.LeaseEnd == nil {
		return Match{}, false
	}
	days := zone.DaysUntil(*p.LeaseEnd, env.Now)
	z := zone.Classify(days)
	if !z.Triggers() {
		return Match{}, false
	}
	class := ClassInspection
	if z == zone.Notice {
		class = ClassNotice
	}
	return Match{Classification: class, Zone: z, DaysRemaining: &days}, true
}

func (t RentDue) evaluate(p types.Property, env Env) (Match, bool) {
	if p.RentDueDay == nil {
		return Match{}, false
	}
	if env.Now.Day() < t.Day {
		return Match{}, false
	}
	return Match{Classification: ClassRentDue}, true
}
