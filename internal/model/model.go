package model

import "time"

// Geo is an optional latitude/longitude pair attached to an event,
// extracted from X-APPLE-STRUCTURED-LOCATION "geo:" values.
type Geo struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Event is a single concrete calendar occurrence after recurrence
// expansion. Occurrences of a recurring event carry synthetic UIDs
// (base UID + "-" + occurrence start) so every Event is unique.
//
// Start and End are local-time instants in the configured display
// timezone; no further conversion happens downstream. For all-day
// events End is exclusive (one day past the last included day) and
// only the date components of Start/End are meaningful.
//
// Events are never mutated after construction. All view structures
// (week segments, timeline entries) are derived on demand.
type Event struct {
	UID string `json:"uid"`

	Summary     string `json:"summary"`
	Description string `json:"description"`
	Location    string `json:"location"`
	URL         string `json:"url"`

	AllDay bool `json:"all_day"`

	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	Geo *Geo `json:"geo,omitempty"`
}

// Talent is one roster entry from the talent CSV, already filtered to
// active (non-graduated) members.
type Talent struct {
	Name     string `json:"name"`
	Romaji   string `json:"romaji"`
	Furigana string `json:"furigana"`
	// Filename is the per-talent ICS file, derived from the romaji
	// (lowercased, spaces replaced with underscores).
	Filename string `json:"filename"`
}
