package notify

import (
	"fmt"

	"github.com/matthewbaird/nightwatch/internal/policy"
)

// Compose renders the tenant email for a firing. days is the signed number of
// days until lease end and is nil for rent-due firings.
func Compose(class policy.Classification, to, name, address string, days *int) Email {
	msg := Email{To: to, Name: name}
	switch class {
	case policy.ClassInspection:
		msg.Subject = "Upcoming Inspection & Lease Renewal - " + address
		msg.Body = fmt.Sprintf("Hi %s,\n\n"+
			"This is a friendly reminder that your lease at %s is coming up for renewal in %s.\n\n"+
			"We would like to schedule a routine property inspection next week. "+
			"Please let us know what time works best for you.\n\n"+
			"Best,\nProperty Management", name, address, dayCount(days))
	case policy.ClassNotice:
		msg.Subject = "URGENT: Lease Expiration Warning - " + address
		msg.Body = fmt.Sprintf("Dear %s,\n\n%s\n\n"+
			"Please contact us immediately to discuss renewal options or move-out procedures.\n\n"+
			"Sincerely,\nThe Night Watch", name, noticeLine(address, days))
	case policy.ClassRentDue:
		msg.Subject = "Rent Due Reminder - " + address
		msg.Body = fmt.Sprintf("Hi %s,\n\n"+
			"This is a reminder that rent for %s is now due.\n\n"+
			"If you have already paid, please disregard this message.\n\n"+
			"Best,\nProperty Management", name, address)
	default:
		msg.Subject = "Night Watch Notice - " + address
		msg.Body = fmt.Sprintf("Hi %s,\n\nThere is an update regarding %s.\n\nProperty Management", name, address)
	}
	return msg
}

func dayCount(days *int) string {
	if days == nil {
		return "the coming weeks"
	}
	if *days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", *days)
}

func noticeLine(address string, days *int) string {
	switch {
	case days == nil:
		return fmt.Sprintf("This is a formal notice that your lease at %s expires in less than 30 days.", address)
	case *days < 0:
		return fmt.Sprintf("This is a formal notice that your lease at %s expired %d days ago.", address, -*days)
	case *days == 0:
		return fmt.Sprintf("This is a formal notice that your lease at %s expires today.", address)
	default:
		return fmt.Sprintf("This is a formal notice that your lease at %s expires in less than 30 days (%d days remaining).", address, *days)
	}
}
