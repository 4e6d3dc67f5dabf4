package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCalculateAnniversaryDay(t *testing.T) {
	assert.Equal(t, 31, CalculateAnniversaryDay(date(2024, 1, 31)))
	assert.Equal(t, 1, CalculateAnniversaryDay(date(2024, 6, 1)))

	// Day is taken in UTC regardless of the input's zone.
	lagos := time.FixedZone("WAT", 1*60*60)
	assert.Equal(t, 14, CalculateAnniversaryDay(time.Date(2024, 3, 15, 0, 30, 0, 0, lagos)))
}

func TestIsBillingAnniversary(t *testing.T) {
	assert.True(t, IsBillingAnniversary(date(2024, 3, 15), 15))
	assert.False(t, IsBillingAnniversary(date(2024, 3, 14), 15))

	// A day-31 anniversary does not fire in February at all.
	for d := 1; d <= 29; d++ {
		assert.False(t, IsBillingAnniversary(date(2024, 2, d), 31), "day %d", d)
	}
}

func TestWasInvoicedToday(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	assert.False(t, WasInvoicedToday(now, nil))

	sameDay := time.Date(2024, 3, 15, 1, 30, 0, 0, time.UTC)
	assert.True(t, WasInvoicedToday(now, &sameDay))

	yesterday := time.Date(2024, 3, 14, 23, 59, 0, 0, time.UTC)
	assert.False(t, WasInvoicedToday(now, &yesterday))

	lastYear := time.Date(2023, 3, 15, 9, 0, 0, 0, time.UTC)
	assert.False(t, WasInvoicedToday(now, &lastYear))
}

func TestCalculateNextPeriodEnd(t *testing.T) {
	cases := []struct {
		name           string
		periodStart    time.Time
		anniversaryDay int
		want           time.Time
	}{
		{"plain month", date(2024, 3, 15), 15, date(2024, 4, 15)},
		{"clamped to leap february", date(2024, 1, 31), 31, date(2024, 2, 29)},
		{"clamped to short february", date(2023, 1, 31), 31, date(2023, 2, 28)},
		{"clamped to 30-day month", date(2024, 3, 31), 31, date(2024, 4, 30)},
		{"year rollover", date(2024, 12, 10), 10, date(2025, 1, 10)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CalculateNextPeriodEnd(tc.periodStart, tc.anniversaryDay))
		})
	}
}

func TestCalculateNextPeriodEnd_PreservesTimeOfDay(t *testing.T) {
	start := time.Date(2024, 3, 15, 8, 45, 30, 0, time.UTC)
	got := CalculateNextPeriodEnd(start, 15)
	assert.Equal(t, time.Date(2024, 4, 15, 8, 45, 30, 0, time.UTC), got)
}
