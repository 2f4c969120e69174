package billing

import (
	"time"

	"cloud.google.com/go/civil"
)

// OverflowPolicy decides what happens when a subscription's due day does not
// exist in the current month (day 31 in a 30-day month).
type OverflowPolicy string

const (
	// OverflowClamp caps the due day at the last day of the month, so a
	// day-31 subscription is charged on Feb 28. This is the default.
	OverflowClamp OverflowPolicy = "clamp"
	// OverflowRollover reproduces the original app's behavior, which relied
	// on raw date normalization: the due day is never reached in a month
	// shorter than it, so the charge for that month is skipped entirely.
	OverflowRollover OverflowPolicy = "rollover"
)

// Valid reports whether p is a known policy.
func (p OverflowPolicy) Valid() bool {
	return p == OverflowClamp || p == OverflowRollover
}

// paymentDate computes the charge date for a subscription due on dueDay in
// the month containing today, along with the day-of-month threshold the
// current day must reach before the charge is made.
func paymentDate(today civil.Date, dueDay int, policy OverflowPolicy) (target civil.Date, threshold int) {
	if policy == OverflowRollover {
		// time.Date normalizes out-of-range days into the following month,
		// exactly like the original's date construction.
		t := time.Date(today.Year, today.Month, dueDay, 0, 0, 0, 0, time.UTC)
		return civil.DateOf(t), dueDay
	}

	day := dueDay
	if last := daysIn(today.Year, today.Month); day > last {
		day = last
	}
	return civil.Date{Year: today.Year, Month: today.Month, Day: day}, day
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
