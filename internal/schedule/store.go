package schedule

import (
	"sort"
	"time"

	"streamcal/internal/model"
)

// Store holds the flattened, expanded event list for the active
// calendar selection and answers date and month range queries.
//
// The list is replaced wholesale when the selection or language
// changes; there is no incremental mutation. All queries are pure
// reads over the resident list and preserve its start-ascending order.
type Store struct {
	events []model.Event
}

// NewStore returns a Store over the given events. The slice is sorted
// by start time ascending (stable, so equal starts keep feed order)
// and then owned by the store; callers must not mutate it afterwards.
func NewStore(events []model.Event) *Store {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
	return &Store{events: events}
}

// Events returns the full event list in start order.
func (s *Store) Events() []model.Event {
	return s.events
}

// Len returns the number of loaded events.
func (s *Store) Len() int {
	return len(s.events)
}

// EventsOnDate returns every event whose occupied-day range includes
// the given date: all-day events on [start, end-1day], special
// near-midnight events only on their start day, and ordinary timed
// events on [day(start), day(end)].
func (s *Store) EventsOnDate(date time.Time) []model.Event {
	day := DayOf(date)
	out := make([]model.Event, 0)
	for _, ev := range s.events {
		first, last := OccupiedDayRange(ev)
		if !day.Before(first) && !day.After(last) {
			out = append(out, ev)
		}
	}
	return out
}

// EventsInMonth returns every event overlapping the month interval
// [first 00:00, last 23:59:59.999] by raw [Start, End] overlap. The
// all-day exclusive end is deliberately not applied here; callers that
// need day-occupancy go through OccupiedDayRange.
func (s *Store) EventsInMonth(year int, month time.Month) []model.Event {
	loc := time.Local
	if len(s.events) > 0 {
		loc = s.events[0].Start.Location()
	}
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	monthEnd := monthStart.AddDate(0, 1, 0).Add(-time.Millisecond)

	out := make([]model.Event, 0)
	for _, ev := range s.events {
		if !ev.Start.After(monthEnd) && !ev.End.Before(monthStart) {
			out = append(out, ev)
		}
	}
	return out
}
