package schedule

import (
	"time"

	"streamcal/internal/model"
)

// DayOf truncates t to local midnight in its own location.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// daysBetween returns the number of calendar days from a to b, both
// taken at day resolution. Rounding absorbs DST-shifted midnights.
func daysBetween(a, b time.Time) int {
	d := DayOf(b).Sub(DayOf(a))
	days := d.Hours() / 24
	if days >= 0 {
		return int(days + 0.5)
	}
	return -int(-days + 0.5)
}

// IsSpecialMidnight reports whether the event is the near-midnight
// exception: a timed event starting at exactly 23:59 whose end falls
// on the immediately following day at 00:29 or earlier. Such events
// are treated as single-day events anchored to the start day by every
// query and layout computation, and never become multi-day bands.
func IsSpecialMidnight(ev model.Event) bool {
	if ev.AllDay {
		return false
	}
	if ev.Start.Hour() != 23 || ev.Start.Minute() != 59 {
		return false
	}
	nextDay := DayOf(ev.Start).AddDate(0, 0, 1)
	if !SameDay(ev.End, nextDay) {
		return false
	}
	return ev.End.Hour() == 0 && ev.End.Minute() <= 29
}

// OccupiedDayRange returns the inclusive day-resolution range the
// event occupies on a calendar grid:
//
//   - all-day: [day(start), day(end)-1] (the stored end is exclusive)
//   - special-midnight: [day(start), day(start)]
//   - timed: [day(start), day(end)]
func OccupiedDayRange(ev model.Event) (first, last time.Time) {
	first = DayOf(ev.Start)
	switch {
	case IsSpecialMidnight(ev):
		last = first
	case ev.AllDay:
		last = DayOf(ev.End).AddDate(0, 0, -1)
	default:
		last = DayOf(ev.End)
	}
	return first, last
}

// SpanDays returns the day-resolution span of the event: 0 for
// single-day events, n for events whose occupied range covers n+1
// days. Special-midnight events report 0 by construction.
func SpanDays(ev model.Event) int {
	first, last := OccupiedDayRange(ev)
	return daysBetween(first, last)
}

// IsMultiDay reports whether the event needs a horizontal band on the
// month grid rather than a single-cell slot.
func IsMultiDay(ev model.Event) bool {
	return SpanDays(ev) > 0
}
