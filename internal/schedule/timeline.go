package schedule

import (
	"math"
	"sort"
	"time"

	"streamcal/internal/model"
)

// The vertical axis of a day view runs 0-25 hours: hour 24-25 shows
// the following day's 00:00-01:00 so late-night streams stay on the
// page of the day they belong to.
const (
	axisEndHour = 25.0

	// Start times within this many minutes chain events into one
	// cluster group.
	clusterWindowMinutes = 20.0
)

// LayoutParams control the horizontal geometry of the timeline. All
// values are in the same unit as TotalWidth (pixels for the web UI).
type LayoutParams struct {
	TotalWidth  float64
	LeftMargin  float64
	RightMargin float64
	IndentStep  float64
	ColumnGap   float64
}

// DefaultLayoutParams returns the geometry used by the day and detail
// views.
func DefaultLayoutParams(totalWidth float64) LayoutParams {
	return LayoutParams{
		TotalWidth:  totalWidth,
		LeftMargin:  65,
		RightMargin: 10,
		IndentStep:  16,
		ColumnGap:   2,
	}
}

// TimelineEntry is one timed event positioned on the 0-25 hour axis.
// StartOffset/EndOffset are hours from midnight of the displayed day
// as floating point; Left/Width place the event horizontally within
// its cluster group. Column and TotalColumns describe the event's
// position within the group independent of geometry.
type TimelineEntry struct {
	Event model.Event

	StartHour   int
	StartMinute int

	StartOffset float64
	EndOffset   float64

	Column       int
	TotalColumns int

	Left  float64
	Width float64
}

// eventExtent computes the axis extent of one event relative to the
// displayed day:
//
//   - single-day events use their own start and end times
//   - a multi-day event on its start day runs from its start time to
//     its true elapsed hours when it ends by the next day 01:00, and
//     is truncated at 25.0 otherwise
//   - on its end day it runs from 0:00 to its end time
//   - on interior days it spans the whole 0-25 axis
func eventExtent(ev model.Event, day time.Time) (startOffset, endOffset float64, startHour, startMinute int) {
	dayStart := DayOf(day)
	evStartDay := DayOf(ev.Start)
	evEndDay := DayOf(ev.End)

	multiDay := !evStartDay.Equal(evEndDay)
	onStartDay := evStartDay.Equal(dayStart)
	onEndDay := evEndDay.Equal(dayStart)

	switch {
	case !multiDay:
		startHour, startMinute = ev.Start.Hour(), ev.Start.Minute()
		startOffset = float64(startHour) + float64(startMinute)/60
		endOffset = float64(ev.End.Hour()) + float64(ev.End.Minute())/60

	case onStartDay:
		startHour, startMinute = ev.Start.Hour(), ev.Start.Minute()
		startOffset = float64(startHour) + float64(startMinute)/60
		nextDayOneAM := dayStart.AddDate(0, 0, 1).Add(time.Hour)
		if !ev.End.After(nextDayOneAM) {
			elapsed := ev.End.Sub(dayStart).Hours()
			h := math.Floor(elapsed)
			m := math.Round((elapsed - h) * 60)
			endOffset = h + m/60
		} else {
			endOffset = axisEndHour
		}

	case onEndDay:
		startOffset = 0
		endOffset = float64(ev.End.Hour()) + float64(ev.End.Minute())/60

	default:
		startOffset = 0
		endOffset = axisEndHour
	}

	return startOffset, endOffset, startHour, startMinute
}

type clusterGroup struct {
	entries    []*TimelineEntry
	groupStart float64
	groupEnd   float64
}

// LayoutDayTimeline positions the given timed events on the 0-25 hour
// axis of the day containing date, clustering events whose start times
// chain within 20 minutes of each other and assigning equal-width
// columns within each cluster. Groups that begin while earlier groups
// are still running are indented one step per active predecessor so
// overlapping clusters cascade instead of covering each other.
//
// Events must already be filtered to timed (non-all-day) events
// overlapping the day. Entries come back sorted by start offset.
func LayoutDayTimeline(events []model.Event, date time.Time, params LayoutParams) []TimelineEntry {
	entries := make([]TimelineEntry, 0, len(events))
	for _, ev := range events {
		start, end, h, m := eventExtent(ev, date)
		entries = append(entries, TimelineEntry{
			Event:       ev,
			StartHour:   h,
			StartMinute: m,
			StartOffset: start,
			EndOffset:   end,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].StartOffset < entries[j].StartOffset
	})

	// Cluster by start proximity: an event joins the first group with
	// any member starting within 20 minutes. Because events arrive in
	// start order, chains of nearby starts accumulate transitively
	// even when the first and last member are far apart.
	groups := make([]*clusterGroup, 0)
	for i := range entries {
		e := &entries[i]
		var joined *clusterGroup
		for _, g := range groups {
			for _, member := range g.entries {
				if math.Abs(member.StartOffset-e.StartOffset)*60 <= clusterWindowMinutes {
					joined = g
					break
				}
			}
			if joined != nil {
				break
			}
		}
		if joined == nil {
			joined = &clusterGroup{}
			groups = append(groups, joined)
		}
		joined.entries = append(joined.entries, e)
	}

	for _, g := range groups {
		g.groupStart = math.Inf(1)
		g.groupEnd = math.Inf(-1)
		for _, e := range g.entries {
			g.groupStart = math.Min(g.groupStart, e.StartOffset)
			g.groupEnd = math.Max(g.groupEnd, e.EndOffset)
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].groupStart < groups[j].groupStart
	})

	for _, g := range groups {
		active := 0
		for _, other := range groups {
			if other == g {
				continue
			}
			if other.groupStart < g.groupStart && other.groupEnd > g.groupStart {
				active++
			}
		}

		left := params.LeftMargin + params.IndentStep*float64(active)
		available := params.TotalWidth - left - params.RightMargin
		columns := len(g.entries)
		columnWidth := available / float64(columns)

		for i, e := range g.entries {
			e.Column = i
			e.TotalColumns = columns
			e.Left = left + columnWidth*float64(i)
			e.Width = columnWidth - params.ColumnGap
		}
	}

	return entries
}
