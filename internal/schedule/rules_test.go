package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"streamcal/internal/model"
)

var jst = time.FixedZone("JST", 9*60*60)

func timed(summary string, start, end time.Time) model.Event {
	return model.Event{UID: summary, Summary: summary, Start: start, End: end}
}

func allDay(summary string, start, end time.Time) model.Event {
	return model.Event{UID: summary, Summary: summary, Start: start, End: end, AllDay: true}
}

func TestIsSpecialMidnight(t *testing.T) {
	tests := []struct {
		name string
		ev   model.Event
		want bool
	}{
		{
			name: "23:59 to 00:00 next day",
			ev: timed("countdown",
				time.Date(2026, 12, 31, 23, 59, 0, 0, jst),
				time.Date(2027, 1, 1, 0, 0, 0, 0, jst)),
			want: true,
		},
		{
			name: "23:59 to 00:29 next day",
			ev: timed("premiere",
				time.Date(2026, 3, 14, 23, 59, 0, 0, jst),
				time.Date(2026, 3, 15, 0, 29, 0, 0, jst)),
			want: true,
		},
		{
			name: "23:59 to 00:30 next day is ordinary",
			ev: timed("late",
				time.Date(2026, 3, 14, 23, 59, 0, 0, jst),
				time.Date(2026, 3, 15, 0, 30, 0, 0, jst)),
			want: false,
		},
		{
			name: "23:58 start is ordinary",
			ev: timed("almost",
				time.Date(2026, 3, 14, 23, 58, 0, 0, jst),
				time.Date(2026, 3, 15, 0, 10, 0, 0, jst)),
			want: false,
		},
		{
			name: "end two days later is ordinary",
			ev: timed("long",
				time.Date(2026, 3, 14, 23, 59, 0, 0, jst),
				time.Date(2026, 3, 16, 0, 10, 0, 0, jst)),
			want: false,
		},
		{
			name: "all-day never special",
			ev: allDay("holiday",
				time.Date(2026, 3, 14, 23, 59, 0, 0, jst),
				time.Date(2026, 3, 15, 0, 0, 0, 0, jst)),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSpecialMidnight(tt.ev))
		})
	}
}

func TestOccupiedDayRange(t *testing.T) {
	t.Run("all-day end is exclusive", func(t *testing.T) {
		ev := allDay("fes",
			time.Date(2026, 5, 1, 0, 0, 0, 0, jst),
			time.Date(2026, 5, 4, 0, 0, 0, 0, jst))
		first, last := OccupiedDayRange(ev)
		assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, jst), first)
		assert.Equal(t, time.Date(2026, 5, 3, 0, 0, 0, 0, jst), last)
		assert.Equal(t, 2, SpanDays(ev))
		assert.True(t, IsMultiDay(ev))
	})

	t.Run("special midnight occupies only the start day", func(t *testing.T) {
		ev := timed("countdown",
			time.Date(2026, 12, 31, 23, 59, 0, 0, jst),
			time.Date(2027, 1, 1, 0, 0, 0, 0, jst))
		first, last := OccupiedDayRange(ev)
		assert.Equal(t, first, last)
		assert.Equal(t, 0, SpanDays(ev))
		assert.False(t, IsMultiDay(ev))
	})

	t.Run("timed crossing midnight occupies both days", func(t *testing.T) {
		ev := timed("endurance",
			time.Date(2026, 7, 10, 22, 0, 0, 0, jst),
			time.Date(2026, 7, 11, 3, 0, 0, 0, jst))
		first, last := OccupiedDayRange(ev)
		assert.Equal(t, time.Date(2026, 7, 10, 0, 0, 0, 0, jst), first)
		assert.Equal(t, time.Date(2026, 7, 11, 0, 0, 0, 0, jst), last)
		assert.True(t, IsMultiDay(ev))
	})

	t.Run("single-day timed", func(t *testing.T) {
		ev := timed("stream",
			time.Date(2026, 7, 10, 20, 0, 0, 0, jst),
			time.Date(2026, 7, 10, 22, 0, 0, 0, jst))
		assert.Equal(t, 0, SpanDays(ev))
		assert.False(t, IsMultiDay(ev))
	})
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2026, 2, 27, 15, 0, 0, 0, jst)
	b := time.Date(2026, 3, 2, 1, 0, 0, 0, jst)
	assert.Equal(t, 3, daysBetween(a, b))
	assert.Equal(t, -3, daysBetween(b, a))
	assert.Equal(t, 0, daysBetween(a, a))
}

func TestSameDayAndDayOf(t *testing.T) {
	a := time.Date(2026, 8, 30, 23, 59, 59, 0, jst)
	b := time.Date(2026, 8, 30, 0, 0, 0, 0, jst)
	assert.True(t, SameDay(a, b))
	assert.Equal(t, b, DayOf(a))
	assert.False(t, SameDay(a, b.AddDate(0, 0, 1)))
}
