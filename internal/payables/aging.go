package payables

import (
	"math"
	"time"
)

// AgingBucket labels how overdue a payable is, for collections reporting.
type AgingBucket string

const (
	BucketCurrent AgingBucket = "Current"
	Bucket1To30   AgingBucket = "1-30"
	Bucket31To60  AgingBucket = "31-60"
	Bucket61To90  AgingBucket = "61-90"
	BucketOver90  AgingBucket = "90+"
)

// CalculateAgingBucket classifies a due date relative to now. Callers supply
// now from an injected clock.
func CalculateAgingBucket(now, dueDate time.Time) AgingBucket {
	daysOverdue := daysBetween(dueDate, now)
	switch {
	case daysOverdue < 0:
		return BucketCurrent
	case daysOverdue <= 30:
		return Bucket1To30
	case daysOverdue <= 60:
		return Bucket31To60
	case daysOverdue <= 90:
		return Bucket61To90
	default:
		return BucketOver90
	}
}

// CalculateDaysOverdue returns whole calendar days past the due date, clamped
// to zero for future due dates.
func CalculateDaysOverdue(now, dueDate time.Time) int {
	days := daysBetween(dueDate, now)
	if days < 0 {
		return 0
	}
	return days
}

// daysBetween truncates toward negative infinity so a bill due later today is
// still day -1, not day 0.
func daysBetween(from, to time.Time) int {
	return int(math.Floor(to.Sub(from).Hours() / 24))
}
