package schedule

import (
	"time"

	"streamcal/internal/model"
)

// DetailWindow is the 3-hour slice of the day axis shown on an event
// detail page. StartHour/EndHour are inclusive hour slots; the window
// covers [StartHour:00, EndHour+1:00) and may extend past 24 into the
// late-night region.
type DetailWindow struct {
	StartHour int
	EndHour   int
}

// DetailWindowFor positions the window around the event's start time:
// one hour earlier when the event starts 20 minutes or less past the
// hour (floored at 0), three slots long, capped at hour 25.
func DetailWindowFor(ev model.Event) DetailWindow {
	startHour := ev.Start.Hour()
	if ev.Start.Minute() <= 20 && startHour > 0 {
		startHour--
	}
	endHour := startHour + 2
	if endHour > 25 {
		endHour = 25
	}
	return DetailWindow{StartHour: startHour, EndHour: endHour}
}

// EventsInWindow filters the store's timed events down to those
// overlapping the window on the day the anchor event starts. Start and
// end are evaluated relative to that day: events carried over from a
// previous day count from 0:00, events running past it count their end
// as hours past midnight.
func EventsInWindow(store *Store, anchor model.Event, w DetailWindow) []model.Event {
	day := DayOf(anchor.Start)

	windowStart := w.StartHour * 60
	windowEnd := (w.EndHour + 1) * 60

	out := make([]model.Event, 0)
	for _, ev := range store.Events() {
		if ev.AllDay {
			continue
		}
		evStartDay := DayOf(ev.Start)
		evEndDay := DayOf(ev.End)
		if evStartDay.After(day) || evEndDay.Before(day) {
			continue
		}

		var startMin int
		if evStartDay.Before(day) {
			startMin = 0
		} else {
			startMin = ev.Start.Hour()*60 + ev.Start.Minute()
		}

		var endMin int
		if evEndDay.After(day) {
			daysOver := daysBetween(day, evEndDay)
			endMin = ev.End.Hour()*60 + ev.End.Minute() + daysOver*24*60
		} else {
			endMin = ev.End.Hour()*60 + ev.End.Minute()
		}

		if endMin > windowStart && startMin < windowEnd {
			out = append(out, ev)
		}
	}
	return out
}

// TimeIndicator is the position of the red current-time marker.
type TimeIndicator struct {
	Show bool
	// Offset is hours from midnight of the displayed day, 0-25.
	Offset float64
	// LabelHour is the wall-clock hour for the marker label (the
	// late-night region shows 24:xx and 25:xx as 0:xx and 1:xx).
	LabelHour   int
	LabelMinute int
}

// DayIndicator computes the marker for a day view showing date at the
// given wall-clock now. The marker appears when the page shows today,
// or when it shows yesterday and the clock is inside the 24-25h
// late-night extension.
func DayIndicator(date, now time.Time) TimeIndicator {
	var displayHour int
	switch {
	case SameDay(date, now):
		displayHour = now.Hour()
	case SameDay(DayOf(date).AddDate(0, 0, 1), now):
		displayHour = 24 + now.Hour()
		if displayHour > 25 {
			return TimeIndicator{}
		}
	default:
		return TimeIndicator{}
	}

	offset := float64(displayHour) + float64(now.Minute())/60
	if offset < 0 || offset > axisEndHour {
		return TimeIndicator{}
	}

	labelHour := displayHour
	if labelHour >= 24 {
		labelHour -= 24
	}
	return TimeIndicator{
		Show:        true,
		Offset:      offset,
		LabelHour:   labelHour,
		LabelMinute: now.Minute(),
	}
}

// DetailIndicator computes the marker for a detail window anchored to
// the given event. Offset comes back relative to the window start.
func DetailIndicator(anchor model.Event, w DetailWindow, now time.Time) TimeIndicator {
	day := DayOf(anchor.Start)

	var displayHour int
	switch {
	case SameDay(day, now):
		displayHour = now.Hour()
	case SameDay(day.AddDate(0, 0, 1), now) && w.EndHour > 24:
		displayHour = 24 + now.Hour()
	default:
		return TimeIndicator{}
	}

	if displayHour < w.StartHour || displayHour > w.EndHour {
		return TimeIndicator{}
	}

	labelHour := displayHour
	if labelHour >= 24 {
		labelHour -= 24
	}
	return TimeIndicator{
		Show:        true,
		Offset:      float64(displayHour-w.StartHour) + float64(now.Minute())/60,
		LabelHour:   labelHour,
		LabelMinute: now.Minute(),
	}
}
