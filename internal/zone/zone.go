// Package zone classifies how close a lease end is into urgency zones.
package zone

import (
	"math"
	"time"
)

// Zone is a discrete urgency bucket for the lease_end metric.
type Zone string

const (
	Safe       Zone = "safe"
	Inspection Zone = "inspection"
	Notice     Zone = "notice"
)

// Thresholds in days. A lease more than InspectionDays away is safe; one at
// most NoticeDays away (including overdue) is in notice.
const (
	InspectionDays = 90
	NoticeDays     = 30
)

// Classify maps signed days remaining to a zone. Total over all integers.
func Classify(daysRemaining int) Zone {
	switch {
	case daysRemaining > InspectionDays:
		return Safe
	case daysRemaining > NoticeDays:
		return Inspection
	default:
		return Notice
	}
}

// Triggers reports whether the zone should fire a lease_end policy.
func (z Zone) Triggers() bool {
	return z == Inspection || z == Notice
}

// DaysUntil returns the signed number of calendar days from now's date to
// target's date. A target of today yields 0, yesterday yields -1. Clock
// changes do not affect the count.
func DaysUntil(target, now time.Time) int {
	ty, tm, td := target.Date()
	ny, nm, nd := now.Date()
	to := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	from := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	return int(math.Round(to.Sub(from).Hours() / 24))
}
