package schedule

import (
	"sync"
	"time"
)

// HorizonStartYear is the first year the viewer covers; the horizon
// ends in December of next year (relative to "now").
const HorizonStartYear = 2018

// YearMonth identifies one calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

func (ym YearMonth) index() int {
	return ym.Year*12 + int(ym.Month) - 1
}

// Before reports whether ym is earlier than other.
func (ym YearMonth) Before(other YearMonth) bool {
	return ym.index() < other.index()
}

// Add returns the month n steps away (n may be negative).
func (ym YearMonth) Add(n int) YearMonth {
	idx := ym.index() + n
	return YearMonth{Year: idx / 12, Month: time.Month(idx%12 + 1)}
}

// ClampToHorizon limits ym to [2018-01, nextYear-12].
func (ym YearMonth) ClampToHorizon(now time.Time) YearMonth {
	min := YearMonth{Year: HorizonStartYear, Month: time.January}
	max := YearMonth{Year: now.Year() + 1, Month: time.December}
	if ym.Before(min) {
		return min
	}
	if max.Before(ym) {
		return max
	}
	return ym
}

// RenderedRange tracks the contiguous span of months the month view
// has materialized, extended by infinite scroll. Extensions merge via
// min/max and are guarded by a single in-flight flag: a request
// arriving while one is running is dropped, never queued. That
// reproduces the scroll handler's drop-not-queue behavior and keeps
// re-entrant scroll events from corrupting the range.
type RenderedRange struct {
	mu       sync.Mutex
	valid    bool
	start    YearMonth
	end      YearMonth
	inFlight bool
}

// Span returns the current range. ok is false before the first
// extension.
func (r *RenderedRange) Span() (start, end YearMonth, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.start, r.end, r.valid
}

// TryExtend merges [start, end] (clamped to the horizon at now) into
// the range and runs fn for the months that need materializing. It
// returns false without calling fn when another extension is already
// in flight.
func (r *RenderedRange) TryExtend(start, end YearMonth, now time.Time, fn func(start, end YearMonth)) bool {
	start = start.ClampToHorizon(now)
	end = end.ClampToHorizon(now)
	if end.Before(start) {
		start, end = end, start
	}

	r.mu.Lock()
	if r.inFlight {
		r.mu.Unlock()
		return false
	}
	r.inFlight = true

	if !r.valid {
		r.start, r.end, r.valid = start, end, true
	} else {
		if start.Before(r.start) {
			r.start = start
		}
		if r.end.Before(end) {
			r.end = end
		}
	}
	r.mu.Unlock()

	if fn != nil {
		fn(start, end)
	}

	r.mu.Lock()
	r.inFlight = false
	r.mu.Unlock()
	return true
}

// Reset clears the range, e.g. when the month view is rebuilt after a
// selection change.
func (r *RenderedRange) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.valid = false
	r.inFlight = false
}
