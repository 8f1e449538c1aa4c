// Package viewstate models the navigable UI state and its URL query
// encoding so any view can be restored from a shared link.
package viewstate

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	"streamcal/internal/model"
)

// View names. Search is a transient view and is never written to URLs.
const (
	ViewMonth  = "month"
	ViewYear   = "year"
	ViewDay    = "day"
	ViewDetail = "detail"
	ViewSearch = "search"
)

// Defaults omitted from URLs.
const (
	DefaultLanguage = "ja"
	DefaultCalendar = "events"
)

// State is the full navigation state.
type State struct {
	View         string
	CurrentDate  time.Time
	SelectedDate time.Time
	// SelectedEventID addresses an event for the detail view, see EventID.
	SelectedEventID string
	// PreviousView is the view to return to from detail.
	PreviousView string
	Calendar     string
	Language     string
}

// NewState returns the default state for the given moment.
func NewState(now time.Time) State {
	return State{
		View:         ViewMonth,
		CurrentDate:  now,
		SelectedDate: now,
		Calendar:     DefaultCalendar,
		Language:     DefaultLanguage,
	}
}

// EventID derives a stable, URL-safe identifier from an event's summary
// and start time. The month component is zero based and the whole token
// is percent escaped before base64 so non-ASCII summaries survive.
func EventID(ev model.Event) string {
	s := ev.Start
	dateStr := fmt.Sprintf("%d-%d-%d-%d-%d",
		s.Year(), int(s.Month())-1, s.Day(), s.Hour(), s.Minute())
	raw := percentEscape(ev.Summary + "-" + dateStr)
	return base64.StdEncoding.WithPadding(base64.NoPadding).EncodeToString([]byte(raw))
}

// FindEventByID returns the first event whose EventID matches, or nil.
func FindEventByID(events []model.Event, id string) *model.Event {
	for i := range events {
		if EventID(events[i]) == id {
			return &events[i]
		}
	}
	return nil
}

// percentEscape mirrors the escaping used by URL fragments in browsers:
// unreserved ASCII plus !~*'() pass through, everything else becomes
// uppercase %XX byte sequences.
func percentEscape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, c := range []byte(s) {
		if isUnescaped(c) {
			b.WriteByte(c)
		} else {
			b.WriteString(fmt.Sprintf("%%%02X", c))
		}
	}
	return b.String()
}

func isUnescaped(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}

// EncodeQuery serializes the state to URL query parameters. Default
// language and calendar are omitted, as is the from parameter when the
// previous view was the transient search view.
func (s State) EncodeQuery() url.Values {
	params := url.Values{}

	if s.Language != "" && s.Language != DefaultLanguage {
		params.Set("lang", s.Language)
	}
	if s.Calendar != "" && s.Calendar != DefaultCalendar {
		params.Set("calendar", s.Calendar)
	}

	switch s.View {
	case ViewDetail:
		if s.SelectedEventID == "" {
			break
		}
		params.Set("view", ViewDetail)
		params.Set("event", s.SelectedEventID)
		if s.PreviousView != "" && s.PreviousView != ViewSearch {
			params.Set("from", s.PreviousView)
		}
	case ViewYear, ViewMonth:
		params.Set("view", s.View)
		params.Set("date", FormatDate(s.CurrentDate))
	case ViewDay:
		params.Set("view", ViewDay)
		params.Set("date", FormatDate(s.SelectedDate))
	}

	return params
}

// DecodeQuery restores state from URL query parameters, applying
// defaults for anything absent. Unknown or incomplete view parameters
// leave the default month view in place.
func DecodeQuery(params url.Values, now time.Time, loc *time.Location) State {
	s := NewState(now)

	if lang := params.Get("lang"); lang == "en" || lang == "ja" {
		s.Language = lang
	}
	if cal := params.Get("calendar"); cal != "" {
		s.Calendar = cal
	}

	view := params.Get("view")
	dateStr := params.Get("date")
	eventID := params.Get("event")

	switch {
	case view == ViewDetail && eventID != "":
		s.View = ViewDetail
		s.SelectedEventID = eventID
		s.PreviousView = params.Get("from")
		if s.PreviousView == "" {
			s.PreviousView = ViewMonth
		}
	case (view == ViewYear || view == ViewMonth) && dateStr != "":
		if d, err := ParseDate(dateStr, loc); err == nil {
			s.View = view
			s.CurrentDate = d
		}
	case view == ViewDay && dateStr != "":
		if d, err := ParseDate(dateStr, loc); err == nil {
			s.View = ViewDay
			s.SelectedDate = d
		}
	}

	return s
}

// FormatDate renders a date as YYYY-MM-DD for URLs.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// ParseDate parses a YYYY-MM-DD URL date in the given location.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation("2006-01-02", s, loc)
}
