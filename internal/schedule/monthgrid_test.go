package schedule

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamcal/internal/model"
)

// August 2026 starts on a Saturday and has 31 days, giving a six row
// grid with a single-day first row.
func TestMonthShape(t *testing.T) {
	firstWeekday, daysInMonth := monthShape(2026, time.August, jst)
	assert.Equal(t, 6, firstWeekday)
	assert.Equal(t, 31, daysInMonth)
}

func TestWeekDayRange(t *testing.T) {
	// firstWeekday=6, daysInMonth=31 (August 2026).
	tests := []struct {
		week       int
		start, end int
		ok         bool
	}{
		{0, 1, 1, true},
		{1, 2, 8, true},
		{2, 9, 15, true},
		{5, 30, 31, true},
		{6, 0, 0, false},
	}
	for _, tt := range tests {
		start, end, ok := weekDayRange(tt.week, 6, 31)
		assert.Equal(t, tt.ok, ok, "week %d", tt.week)
		if tt.ok {
			assert.Equal(t, tt.start, start, "week %d", tt.week)
			assert.Equal(t, tt.end, end, "week %d", tt.week)
		}
	}
}

func TestSegmentMonthWeekBandAcrossWeekBoundary(t *testing.T) {
	// Occupies Aug 7-10, crossing from week 1 into week 2.
	band := allDay("band",
		time.Date(2026, 8, 7, 0, 0, 0, 0, jst),
		time.Date(2026, 8, 11, 0, 0, 0, 0, jst))
	events := []model.Event{band}

	week1 := SegmentMonthWeek(events, 2026, time.August, 1, 6, 31)
	require.Len(t, week1, 1)
	assert.Equal(t, 6, week1[0].StartCol)
	assert.Equal(t, 7, week1[0].EndCol)
	assert.True(t, week1[0].EventStart)
	assert.False(t, week1[0].EventEnd)
	assert.Equal(t, 0, week1[0].Row)

	week2 := SegmentMonthWeek(events, 2026, time.August, 2, 6, 31)
	require.Len(t, week2, 1)
	assert.Equal(t, 1, week2[0].StartCol)
	assert.Equal(t, 2, week2[0].EndCol)
	assert.False(t, week2[0].EventStart)
	assert.True(t, week2[0].EventEnd)
}

func TestSegmentMonthWeekClipsPreviousMonthSpill(t *testing.T) {
	// Occupies Jul 30 - Aug 2; only Aug 1-2 are in this month's grid.
	spill := allDay("spill",
		time.Date(2026, 7, 30, 0, 0, 0, 0, jst),
		time.Date(2026, 8, 3, 0, 0, 0, 0, jst))
	events := []model.Event{spill}

	week0 := SegmentMonthWeek(events, 2026, time.August, 0, 6, 31)
	require.Len(t, week0, 1)
	assert.Equal(t, 7, week0[0].StartCol)
	assert.Equal(t, 7, week0[0].EndCol)
	assert.False(t, week0[0].EventStart)
	assert.False(t, week0[0].EventEnd)

	week1 := SegmentMonthWeek(events, 2026, time.August, 1, 6, 31)
	require.Len(t, week1, 1)
	assert.Equal(t, 1, week1[0].StartCol)
	assert.True(t, week1[0].EventEnd)
}

func TestSegmentMonthWeekRowPackingAndOverflow(t *testing.T) {
	mk := func(name string, fromDay, toDayExclusive int) model.Event {
		return allDay(name,
			time.Date(2026, 8, fromDay, 0, 0, 0, 0, jst),
			time.Date(2026, 8, toDayExclusive, 0, 0, 0, 0, jst))
	}
	// Four bands over the same days of week 2 (Aug 9-15); only three
	// rows exist.
	events := []model.Event{
		mk("b1", 9, 12),
		mk("b2", 9, 12),
		mk("b3", 9, 12),
		mk("b4", 9, 12),
	}

	segs := SegmentMonthWeek(events, 2026, time.August, 2, 6, 31)
	require.Len(t, segs, 4)

	rows := make([]int, 0, 4)
	overflowed := 0
	for _, s := range segs {
		rows = append(rows, s.Row)
		if s.Overflow {
			assert.Equal(t, -1, s.Row)
			overflowed++
		}
	}
	assert.ElementsMatch(t, []int{0, 1, 2, -1}, rows)
	assert.Equal(t, 1, overflowed)
}

func TestSegmentMonthWeekReusesFreedRows(t *testing.T) {
	mk := func(name string, fromDay, toDayExclusive int) model.Event {
		return allDay(name,
			time.Date(2026, 8, fromDay, 0, 0, 0, 0, jst),
			time.Date(2026, 8, toDayExclusive, 0, 0, 0, 0, jst))
	}
	// b1 ends before b2 begins, so both fit row 0.
	events := []model.Event{
		mk("b1", 9, 11),  // Aug 9-10, cols 1-2
		mk("b2", 12, 14), // Aug 12-13, cols 4-5
	}

	segs := SegmentMonthWeek(events, 2026, time.August, 2, 6, 31)
	require.Len(t, segs, 2)
	assert.Equal(t, 0, segs[0].Row)
	assert.Equal(t, 0, segs[1].Row)
}

func TestSegmentMonthWeekSkipsSpecialMidnight(t *testing.T) {
	special := timed("countdown",
		time.Date(2026, 8, 9, 23, 59, 0, 0, jst),
		time.Date(2026, 8, 10, 0, 10, 0, 0, jst))
	segs := SegmentMonthWeek([]model.Event{special}, 2026, time.August, 2, 6, 31)
	assert.Empty(t, segs)
}

func TestBuildMonthGridSlotFillingAndOverflowCount(t *testing.T) {
	band := allDay("band",
		time.Date(2026, 8, 3, 0, 0, 0, 0, jst),
		time.Date(2026, 8, 6, 0, 0, 0, 0, jst))
	s1 := timed("s1",
		time.Date(2026, 8, 4, 10, 0, 0, 0, jst),
		time.Date(2026, 8, 4, 11, 0, 0, 0, jst))
	s2 := timed("s2",
		time.Date(2026, 8, 4, 12, 0, 0, 0, jst),
		time.Date(2026, 8, 4, 13, 0, 0, 0, jst))
	s3 := timed("s3",
		time.Date(2026, 8, 4, 14, 0, 0, 0, jst),
		time.Date(2026, 8, 4, 15, 0, 0, 0, jst))

	store := NewStore([]model.Event{band, s1, s2, s3})
	grid := BuildMonthGrid(store, 2026, time.August, jst)

	require.Len(t, grid.Weeks, 6)
	assert.Equal(t, 6, grid.FirstWeekday)
	assert.Equal(t, 31, grid.DaysInMonth)

	week := grid.Weeks[1] // Aug 2-8
	assert.Equal(t, [7]int{2, 3, 4, 5, 6, 7, 8}, week.Days)

	// Band occupies row 0 over cols 2-4 (Aug 3-5).
	require.Len(t, week.Segments, 1)
	assert.Equal(t, 0, week.Segments[0].Row)
	assert.Equal(t, 2, week.Segments[0].StartCol)
	assert.Equal(t, 4, week.Segments[0].EndCol)

	// Aug 4 is column 3: two singles fit under the band, one spills
	// into the "+N" counter.
	var placed []string
	for _, single := range week.Singles {
		if single.Col == 3 {
			placed = append(placed, single.Event.Summary)
			assert.GreaterOrEqual(t, single.Row, 1)
		}
	}
	if diff := cmp.Diff([]string{"s1", "s2"}, placed); diff != "" {
		t.Errorf("placed singles mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, week.Overflow[2])
}

func TestBuildMonthGridEmptyStore(t *testing.T) {
	grid := BuildMonthGrid(NewStore(nil), 2026, time.February, jst)
	// February 2026 starts on a Sunday and fits exactly four weeks.
	assert.Equal(t, 0, grid.FirstWeekday)
	assert.Equal(t, 28, grid.DaysInMonth)
	require.Len(t, grid.Weeks, 4)
	for _, wk := range grid.Weeks {
		assert.Empty(t, wk.Segments)
		assert.Empty(t, wk.Singles)
		assert.Equal(t, [7]int{}, wk.Overflow)
	}
}
