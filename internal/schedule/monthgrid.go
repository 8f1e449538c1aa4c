package schedule

import (
	"time"

	"streamcal/internal/model"
)

// maxBandRows is the per-week budget of horizontal band rows. Events
// that cannot be packed into these rows become overflow and are only
// reported through the per-day "+N" counters.
const maxBandRows = 3

// Segment is one week-row slice of a multi-day event's band.
// Columns are 1-7 (Sunday-start weekday positions within the row).
// Row is the assigned band row (0-2), or -1 when Overflow is set.
// EventStart / EventEnd tell the renderer whether this slice contains
// the event's true first or last day, so it can pick the start, end or
// middle visual treatment.
type Segment struct {
	Event model.Event

	StartCol int
	EndCol   int
	Row      int
	Overflow bool

	EventStart bool
	EventEnd   bool
}

// SlotEntry is a single-day event placed into one of the three slots
// of a weekday cell, after multi-day bands reserved theirs.
type SlotEntry struct {
	Event model.Event
	Col   int // 1-7
	Row   int // 0-2
}

// WeekRow is the computed layout of one 7-column week row.
type WeekRow struct {
	Index int

	// Days holds the day-of-month per column, 0 for the blank cells
	// before the 1st and after the last day.
	Days [7]int

	// Segments are the multi-day bands of this row, overflow entries
	// included (flagged, with Row == -1).
	Segments []Segment

	// Singles are the single-day events that found a free slot.
	Singles []SlotEntry

	// Overflow is the per-column "+N" count: events occupying the day
	// that received neither a band row nor a slot.
	Overflow [7]int
}

// MonthGrid is the full layout of one month: week rows with band
// assignments, slot fillings and overflow counts.
type MonthGrid struct {
	Year  int
	Month time.Month

	FirstWeekday int // weekday of the 1st, Sunday = 0
	DaysInMonth  int
	Weeks        []WeekRow
}

// monthShape computes the leading-blank offset and day count that
// define the month's cell grid.
func monthShape(year int, month time.Month, loc *time.Location) (firstWeekday, daysInMonth int) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	firstWeekday = int(first.Weekday())
	daysInMonth = first.AddDate(0, 1, -1).Day()
	return firstWeekday, daysInMonth
}

// weekDayRange returns the first and last day-of-month covered by the
// given week row, or ok=false for a row with no date cells. The last
// row may be partial; blanks before the 1st shift the first row.
func weekDayRange(week, firstWeekday, daysInMonth int) (startDay, endDay int, ok bool) {
	totalCells := firstWeekday + daysInMonth
	startCell := week * 7
	endCell := (week+1)*7 - 1
	if endCell > totalCells-1 {
		endCell = totalCells - 1
	}

	if startCell >= firstWeekday {
		startDay = startCell - firstWeekday + 1
	} else if endCell >= firstWeekday {
		startDay = 1
	} else {
		return 0, 0, false
	}

	endDay = endCell - firstWeekday + 1
	if endDay > daysInMonth {
		endDay = daysInMonth
	}
	if startDay > daysInMonth || endDay < startDay {
		return 0, 0, false
	}
	return startDay, endDay, true
}

// SegmentMonthWeek computes the multi-day band segments for one week
// row of the month grid. Events must already be limited to the month
// (EventsInMonth order); special near-midnight events never produce
// bands. Segments are packed greedily into the smallest free row whose
// occupants do not overlap the segment's column range; segments that
// do not fit in three rows come back flagged Overflow with Row == -1.
//
// The computation is stateless: identical inputs yield identical
// output.
func SegmentMonthWeek(events []model.Event, year int, month time.Month, week, firstWeekday, daysInMonth int) []Segment {
	weekStartDay, weekEndDay, ok := weekDayRange(week, firstWeekday, daysInMonth)
	if !ok {
		return nil
	}

	loc := time.Local
	if len(events) > 0 {
		loc = events[0].Start.Location()
	}
	monthFirst := time.Date(year, month, 1, 0, 0, 0, 0, loc)

	segments := make([]Segment, 0)
	for _, ev := range events {
		if IsSpecialMidnight(ev) {
			continue
		}
		first, last := OccupiedDayRange(ev)
		if daysBetween(first, last) <= 0 {
			continue
		}

		// Day numbers relative to this month; events crossing the
		// month boundary land outside 1..daysInMonth and get clipped.
		evStartDay := daysBetween(monthFirst, first) + 1
		evEndDay := daysBetween(monthFirst, last) + 1

		segStart := evStartDay
		if segStart < weekStartDay {
			segStart = weekStartDay
		}
		segEnd := evEndDay
		if segEnd > weekEndDay {
			segEnd = weekEndDay
		}
		if segStart > segEnd {
			continue
		}

		segments = append(segments, Segment{
			Event:      ev,
			StartCol:   (firstWeekday+segStart-1)%7 + 1,
			EndCol:     (firstWeekday+segEnd-1)%7 + 1,
			EventStart: segStart == evStartDay,
			EventEnd:   segEnd == evEndDay,
		})
	}

	// Stable by start column so ties keep feed order, then greedy
	// smallest-free-row assignment.
	insertionSortByStartCol(segments)

	assigned := make([]Segment, 0, len(segments))
	for i := range segments {
		seg := &segments[i]
		seg.Row = -1
		for row := 0; row < maxBandRows; row++ {
			if !rowConflicts(assigned, row, seg.StartCol, seg.EndCol) {
				seg.Row = row
				assigned = append(assigned, *seg)
				break
			}
		}
		if seg.Row == -1 {
			seg.Overflow = true
		}
	}

	return segments
}

// insertionSortByStartCol sorts in place, keeping the relative order
// of equal start columns.
func insertionSortByStartCol(segs []Segment) {
	for i := 1; i < len(segs); i++ {
		for j := i; j > 0 && segs[j].StartCol < segs[j-1].StartCol; j-- {
			segs[j], segs[j-1] = segs[j-1], segs[j]
		}
	}
}

func rowConflicts(assigned []Segment, row, startCol, endCol int) bool {
	for _, s := range assigned {
		if s.Row != row {
			continue
		}
		if !(s.EndCol < startCol || s.StartCol > endCol) {
			return true
		}
	}
	return false
}

// BuildMonthGrid computes the complete month layout: band segments per
// week, single-day slot filling and the per-day overflow counters.
func BuildMonthGrid(store *Store, year int, month time.Month, loc *time.Location) MonthGrid {
	firstWeekday, daysInMonth := monthShape(year, month, loc)
	totalCells := firstWeekday + daysInMonth
	weeksNeeded := (totalCells + 6) / 7

	monthEvents := store.EventsInMonth(year, month)

	grid := MonthGrid{
		Year:         year,
		Month:        month,
		FirstWeekday: firstWeekday,
		DaysInMonth:  daysInMonth,
		Weeks:        make([]WeekRow, 0, weeksNeeded),
	}

	for week := 0; week < weeksNeeded; week++ {
		row := WeekRow{Index: week}

		for col := 0; col < 7; col++ {
			cell := week*7 + col
			if cell >= firstWeekday && cell < totalCells {
				row.Days[col] = cell - firstWeekday + 1
			}
		}

		segments := SegmentMonthWeek(monthEvents, year, month, week, firstWeekday, daysInMonth)
		row.Segments = segments

		// Band rows reserve slots; overflow segments do not.
		var slots [7][maxBandRows]bool
		for _, seg := range segments {
			if seg.Overflow {
				continue
			}
			for col := seg.StartCol; col <= seg.EndCol; col++ {
				slots[col-1][seg.Row] = true
			}
		}

		for col := 0; col < 7; col++ {
			dayOfMonth := row.Days[col]
			if dayOfMonth == 0 {
				continue
			}
			date := time.Date(year, month, dayOfMonth, 0, 0, 0, 0, loc)
			dayEvents := store.EventsOnDate(date)

			singles := make([]model.Event, 0, len(dayEvents))
			multiCount := 0
			for _, ev := range dayEvents {
				if IsMultiDay(ev) {
					// Special-midnight events never reach this branch:
					// their occupied range is a single day.
					multiCount++
				} else {
					singles = append(singles, ev)
				}
			}

			idx := 0
			for r := 0; r < maxBandRows && idx < len(singles); r++ {
				if slots[col][r] {
					continue
				}
				row.Singles = append(row.Singles, SlotEntry{
					Event: singles[idx],
					Col:   col + 1,
					Row:   r,
				})
				slots[col][r] = true
				idx++
			}

			filled := 0
			for r := 0; r < maxBandRows; r++ {
				if slots[col][r] {
					filled++
				}
			}
			row.Overflow[col] = multiCount + len(singles) - filled
		}

		grid.Weeks = append(grid.Weeks, row)
	}

	return grid
}
