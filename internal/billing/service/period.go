// Package service implements the recurring billing engine: anniversary
// scheduling, seat proration, and invoice assembly.
package service

import "time"

// CalculateAnniversaryDay derives the monthly billing day from a
// subscription's original period start. Callers memoize the result onto the
// subscription record.
func CalculateAnniversaryDay(periodStart time.Time) int {
	return periodStart.UTC().Day()
}

// IsBillingAnniversary reports whether now falls on the subscription's
// monthly anniversary, evaluated in UTC. A day-31 anniversary simply does not
// fire in shorter months; the next period then starts from the late invoice's
// period end, so no days are lost.
func IsBillingAnniversary(now time.Time, anniversaryDay int) bool {
	return now.UTC().Day() == anniversaryDay
}

// WasInvoicedToday reports whether lastInvoicedAt falls on the current UTC
// calendar date. This gate makes repeated cron ticks on the anniversary a
// no-op after the first successful run.
func WasInvoicedToday(now time.Time, lastInvoicedAt *time.Time) bool {
	if lastInvoicedAt == nil {
		return false
	}
	a := now.UTC()
	b := lastInvoicedAt.UTC()
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// CalculateNextPeriodEnd advances one month from periodStart, landing on
// anniversaryDay or the last day of shorter months.
func CalculateNextPeriodEnd(periodStart time.Time, anniversaryDay int) time.Time {
	start := periodStart.UTC()
	year, month, _ := start.Date()

	firstOfNext := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
	day := anniversaryDay
	if last := daysInMonth(firstOfNext.Year(), firstOfNext.Month()); day > last {
		day = last
	}

	return time.Date(firstOfNext.Year(), firstOfNext.Month(), day,
		start.Hour(), start.Minute(), start.Second(), start.Nanosecond(), time.UTC)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
