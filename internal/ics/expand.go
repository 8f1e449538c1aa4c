package ics

import (
	"log/slog"
	"time"

	"github.com/teambition/rrule-go"

	"streamcal/internal/model"
)

const (
	defaultMaxOccurrencesPerEvent = 5000

	// horizonStartYear bounds recurrence expansion on the left; the
	// right edge is December 31 of next year, recomputed per load.
	horizonStartYear = 2018
)

// ExpandConfig controls how recurrence expansion is performed.
type ExpandConfig struct {
	// DisplayLocation is the timezone all occurrences are converted
	// to. If nil, time.Local is used.
	DisplayLocation *time.Location

	// Now anchors the right edge of the expansion horizon. Zero means
	// time.Now().
	Now time.Time

	// MaxOccurrencesPerEvent is a safety cap to avoid infinite or
	// extremely large expansions. If zero, the default is used.
	MaxOccurrencesPerEvent int
}

// Horizon returns the inclusive expansion window: 2018-01-01 through
// December 31 of the year after Now, in the display timezone.
func (cfg ExpandConfig) Horizon() (start, end time.Time) {
	loc := cfg.DisplayLocation
	if loc == nil {
		loc = time.Local
	}
	now := cfg.Now
	if now.IsZero() {
		now = time.Now()
	}
	start = time.Date(horizonStartYear, time.January, 1, 0, 0, 0, 0, loc)
	end = time.Date(now.Year()+1, time.December, 31, 23, 59, 59, 0, loc)
	return start, end
}

// ExpandResult wraps the expanded occurrences and, optionally,
// truncation information.
type ExpandResult struct {
	Events []model.Event
	// TruncatedUIDs records UIDs that hit the per-event cap.
	TruncatedUIDs []string
}

// ExpandOccurrences flattens a list of ParsedEvent (typically from one
// or more ICS sources) into concrete model.Events within the fixed
// horizon. It handles:
//
//   - single non-recurring events
//   - RRULE-based recurrence (occurrences keep the base duration and
//     get synthetic UIDs: base UID + "-" + occurrence start)
//   - EXDATE exception removal
//   - RECURRENCE-ID overrides
//   - all-day semantics (exclusive end, one day past the last day)
//
// Events whose end precedes their start are dropped here so everything
// downstream may assume start <= end.
func ExpandOccurrences(events []ParsedEvent, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	// Group base events and overrides by UID.
	baseByUID := make(map[string][]ParsedEvent)
	overridesByUID := make(map[string][]ParsedEvent)
	uidOrder := make([]string, 0, len(events))

	for _, ev := range events {
		if ev.IsOverride && ev.Recurrence != nil {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], ev)
			continue
		}
		if _, seen := baseByUID[ev.UID]; !seen {
			uidOrder = append(uidOrder, ev.UID)
		}
		baseByUID[ev.UID] = append(baseByUID[ev.UID], ev)
	}

	all := make([]model.Event, 0)

	for _, uid := range uidOrder {
		ov := overridesByUID[uid]
		truncated := false

		for _, ev := range baseByUID[uid] {
			occ, hitCap := expandEvent(ev, ov, cfg)
			if hitCap {
				truncated = true
			}
			for _, e := range occ {
				if e.End.Before(e.Start) {
					slog.Error("dropping event with end before start",
						"uid", e.UID, "start", e.Start, "end", e.End)
					continue
				}
				all = append(all, e)
			}
		}

		if truncated {
			result.TruncatedUIDs = append(result.TruncatedUIDs, uid)
			slog.Error("expand truncated occurrences for UID",
				"uid", uid, "cap", cfg.MaxOccurrencesPerEvent)
		}
	}

	result.Events = all
	return result, nil
}

func expandEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.Event, bool) {
	if ev.RawRRule == "" {
		return expandSingleEvent(ev, overrides, cfg), false
	}
	return expandRecurringEvent(ev, overrides, cfg)
}

func expandSingleEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) []model.Event {
	rangeStart, rangeEnd := cfg.Horizon()
	if !timeRangesOverlap(ev.Start, ev.End, rangeStart, rangeEnd) {
		return nil
	}

	baseStart := ev.Start
	baseEnd := ev.End
	if o, ok := findOverrideForStart(overrides, baseStart); ok {
		baseStart = o.Start
		baseEnd = o.End
		ev = o
	}

	return []model.Event{makeEvent(ev, ev.UID, baseStart, baseEnd, cfg.DisplayLocation)}
}

func expandRecurringEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.Event, bool) {
	out := make([]model.Event, 0)
	hitCap := false

	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		slog.Error("failed to parse RRULE", "error", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return out, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	rangeStart, rangeEnd := cfg.Horizon()
	occTimes := set.Between(rangeStart.In(ev.Start.Location()), rangeEnd.In(ev.Start.Location()), true)

	if len(occTimes) > cfg.MaxOccurrencesPerEvent {
		occTimes = occTimes[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	for _, occStart := range occTimes {
		var occEnd time.Time
		if ev.AllDay {
			// All-day: [date 00:00, next day 00:00), exclusive end.
			date := time.Date(occStart.Year(), occStart.Month(), occStart.Day(), 0, 0, 0, 0, occStart.Location())
			occStart = date
			occEnd = date.AddDate(0, 0, 1)
		} else {
			occEnd = occStart.Add(ev.End.Sub(ev.Start))
		}

		baseStart := occStart
		baseEnd := occEnd
		baseEv := ev
		if o, ok := findOverrideForStart(overrides, occStart); ok {
			baseStart = o.Start
			baseEnd = o.End
			baseEv = o
		}

		uid := ev.UID + "-" + occStart.In(cfg.DisplayLocation).Format("20060102T150405")
		out = append(out, makeEvent(baseEv, uid, baseStart, baseEnd, cfg.DisplayLocation))
	}

	return out, hitCap
}

// findOverrideForStart finds an override whose RECURRENCE-ID matches
// the given start with exact time equality.
func findOverrideForStart(overrides []ParsedEvent, baseStart time.Time) (ParsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence == nil {
			continue
		}
		if ov.Recurrence.In(baseStart.Location()).Equal(baseStart) {
			return ov, true
		}
	}
	return ParsedEvent{}, false
}

// makeEvent converts a (possibly overridden) ParsedEvent plus concrete
// start/end into a model.Event normalized into displayLoc.
func makeEvent(ev ParsedEvent, uid string, start, end time.Time, displayLoc *time.Location) model.Event {
	return model.Event{
		UID:         uid,
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		URL:         ev.URL,
		Geo:         ev.Geo,
		AllDay:      ev.AllDay,
		Start:       start.In(displayLoc),
		End:         end.In(displayLoc),
	}
}

func timeRangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	if aEnd.Before(bStart) {
		return false
	}
	if bEnd.Before(aStart) {
		return false
	}
	return true
}
