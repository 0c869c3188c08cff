package types

import (
	"time"
)

// NextDeliveryDate returns the delivery date that follows current for the given cadence.
//   - weekly adds 7 days, biweekly 14 days
//   - monthly adds one calendar month, quarterly three, clamping to the last day of the target month
//   - any other frequency is treated as monthly; callers can detect this with Frequency.IsKnown
//
// A zero current date is replaced by the current UTC instant.
func NextDeliveryDate(current time.Time, freq Frequency) time.Time {
	if current.IsZero() {
		current = time.Now().UTC()
	}

	switch freq {
	case FrequencyWeekly:
		return AddClampedDate(current, 0, 0, 7)
	case FrequencyBiweekly:
		return AddClampedDate(current, 0, 0, 14)
	case FrequencyQuarterly:
		return AddClampedDate(current, 0, 3, 0)
	default:
		return AddClampedDate(current, 0, 1, 0)
	}
}

// AddClampedDate adds years and months to t keeping the day of month, clamped to the
// last day of the resulting month (Jan 31 + 1 month is Feb 28/29, never Mar 2/3).
// Days are added afterwards with the usual calendar rollover.
// Clock and location of t are preserved.
func AddClampedDate(t time.Time, years, months, days int) time.Time {
	y, m, d := t.Date()
	h, min, sec := t.Clock()

	totalMonths := int(m) - 1 + months
	newY := y + years + floorDiv(totalMonths, 12)
	newM := time.Month(totalMonths - floorDiv(totalMonths, 12)*12 + 1)

	if last := DaysIn(newY, newM, t.Location()); d > last {
		d = last
	}

	return time.Date(newY, newM, d+days, h, min, sec, t.Nanosecond(), t.Location())
}

// DaysIn returns the number of days in the given month
func DaysIn(year int, month time.Month, loc *time.Location) int {
	// day 0 of the next month normalizes to the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
