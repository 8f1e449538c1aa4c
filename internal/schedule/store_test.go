package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamcal/internal/model"
)

func TestNewStoreSortsByStart(t *testing.T) {
	e1 := timed("b", time.Date(2026, 4, 2, 20, 0, 0, 0, jst), time.Date(2026, 4, 2, 21, 0, 0, 0, jst))
	e2 := timed("a", time.Date(2026, 4, 1, 20, 0, 0, 0, jst), time.Date(2026, 4, 1, 21, 0, 0, 0, jst))
	e3 := timed("c", time.Date(2026, 4, 2, 20, 0, 0, 0, jst), time.Date(2026, 4, 2, 22, 0, 0, 0, jst))

	s := NewStore([]model.Event{e1, e2, e3})
	require.Equal(t, 3, s.Len())
	assert.Equal(t, "a", s.Events()[0].Summary)
	// Stable: equal starts keep insertion order.
	assert.Equal(t, "b", s.Events()[1].Summary)
	assert.Equal(t, "c", s.Events()[2].Summary)
}

func TestEventsOnDate(t *testing.T) {
	fes := allDay("fes",
		time.Date(2026, 5, 1, 0, 0, 0, 0, jst),
		time.Date(2026, 5, 3, 0, 0, 0, 0, jst))
	countdown := timed("countdown",
		time.Date(2026, 5, 1, 23, 59, 0, 0, jst),
		time.Date(2026, 5, 2, 0, 10, 0, 0, jst))
	endurance := timed("endurance",
		time.Date(2026, 5, 2, 22, 0, 0, 0, jst),
		time.Date(2026, 5, 3, 4, 0, 0, 0, jst))

	s := NewStore([]model.Event{fes, countdown, endurance})

	names := func(events []model.Event) []string {
		out := make([]string, 0, len(events))
		for _, ev := range events {
			out = append(out, ev.Summary)
		}
		return out
	}

	// fes covers the 1st and 2nd (exclusive end), countdown pins to the
	// 1st, endurance occupies the 2nd and 3rd.
	assert.Equal(t, []string{"fes", "countdown"}, names(s.EventsOnDate(time.Date(2026, 5, 1, 12, 0, 0, 0, jst))))
	assert.Equal(t, []string{"fes", "endurance"}, names(s.EventsOnDate(time.Date(2026, 5, 2, 12, 0, 0, 0, jst))))
	assert.Equal(t, []string{"endurance"}, names(s.EventsOnDate(time.Date(2026, 5, 3, 12, 0, 0, 0, jst))))
	assert.Empty(t, names(s.EventsOnDate(time.Date(2026, 5, 4, 12, 0, 0, 0, jst))))
}

func TestEventsInMonth(t *testing.T) {
	inside := timed("inside",
		time.Date(2026, 6, 15, 20, 0, 0, 0, jst),
		time.Date(2026, 6, 15, 22, 0, 0, 0, jst))
	straddleIn := timed("straddle-in",
		time.Date(2026, 5, 30, 20, 0, 0, 0, jst),
		time.Date(2026, 6, 1, 2, 0, 0, 0, jst))
	straddleOut := timed("straddle-out",
		time.Date(2026, 6, 30, 20, 0, 0, 0, jst),
		time.Date(2026, 7, 1, 2, 0, 0, 0, jst))
	outside := timed("outside",
		time.Date(2026, 7, 2, 20, 0, 0, 0, jst),
		time.Date(2026, 7, 2, 22, 0, 0, 0, jst))

	s := NewStore([]model.Event{inside, straddleIn, straddleOut, outside})

	events := s.EventsInMonth(2026, time.June)
	require.Len(t, events, 3)
	for _, ev := range events {
		assert.NotEqual(t, "outside", ev.Summary)
	}
}
