package activity

import (
	"time"

	"github.com/matthewbaird/nightwatch/internal/types"
)

// pulseWindow returns the start of the first day of a days-wide window ending
// on now's calendar day, in now's location.
func pulseWindow(now time.Time, days int) time.Time {
	if days <= 0 {
		days = DefaultPulseDays
	}
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, -(days - 1))
}

// bucketPulse counts timestamps per calendar day of the window, oldest day
// first. Days without activity are present with a zero count.
func bucketPulse(stamps []time.Time, now time.Time, days int) []types.PulseDay {
	if days <= 0 {
		days = DefaultPulseDays
	}
	start := pulseWindow(now, days)
	loc := now.Location()

	out := make([]types.PulseDay, days)
	index := make(map[string]int, days)
	for i := range out {
		day := start.AddDate(0, 0, i)
		key := day.Format(types.DateLayout)
		out[i] = types.PulseDay{Date: key, Day: day.Format("Mon")}
		index[key] = i
	}
	for _, ts := range stamps {
		if i, ok := index[ts.In(loc).Format(types.DateLayout)]; ok {
			out[i].Count++
		}
	}
	return out
}
