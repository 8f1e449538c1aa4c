package schedule

import (
	"strings"
	"time"

	"streamcal/internal/model"
)

// Search returns the events matching the query, in start order. The
// query is split on spaces; an event matches when every term is a
// substring of its lowercased summary, description and location. An
// empty query matches nothing.
func (s *Store) Search(query string) []model.Event {
	terms := make([]string, 0)
	for _, t := range strings.Fields(strings.ToLower(query)) {
		terms = append(terms, t)
	}
	if len(terms) == 0 {
		return nil
	}

	out := make([]model.Event, 0)
	for _, ev := range s.events {
		haystack := strings.ToLower(ev.Summary + " " + ev.Description + " " + ev.Location)
		matched := true
		for _, term := range terms {
			if !strings.Contains(haystack, term) {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, ev)
		}
	}
	return out
}

// FirstUpcomingIndex returns the index of the first event starting
// today or later, for scroll positioning of result lists. -1 when all
// results are in the past.
func FirstUpcomingIndex(events []model.Event, now time.Time) int {
	today := DayOf(now)
	for i, ev := range events {
		if !ev.Start.Before(today) {
			return i
		}
	}
	return -1
}
