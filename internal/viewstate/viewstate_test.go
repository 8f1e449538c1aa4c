package viewstate

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamcal/internal/model"
)

var jst = time.FixedZone("JST", 9*60*60)

func TestEventID(t *testing.T) {
	t.Run("ascii summary", func(t *testing.T) {
		ev := model.Event{
			Summary: "Live",
			Start:   time.Date(2026, 3, 5, 21, 0, 0, 0, jst),
		}
		// "Live-2026-2-5-21-0": the month is zero based.
		assert.Equal(t, "TGl2ZS0yMDI2LTItNS0yMS0w", EventID(ev))
	})

	t.Run("non-ascii summary is percent escaped first", func(t *testing.T) {
		ev := model.Event{
			Summary: "夏祭り",
			Start:   time.Date(2026, 8, 15, 20, 30, 0, 0, jst),
		}
		assert.Equal(t, "JUU1JUE0JThGJUU3JUE1JUFEJUUzJTgyJThBLTIwMjYtNy0xNS0yMC0zMA", EventID(ev))
	})

	t.Run("no padding, same event same id", func(t *testing.T) {
		ev := model.Event{
			Summary: "コラボ配信",
			Start:   time.Date(2026, 8, 1, 21, 0, 0, 0, jst),
		}
		id := EventID(ev)
		assert.False(t, strings.Contains(id, "="))
		assert.Equal(t, id, EventID(ev))
	})
}

func TestFindEventByID(t *testing.T) {
	events := []model.Event{
		{Summary: "A", Start: time.Date(2026, 8, 1, 20, 0, 0, 0, jst)},
		{Summary: "A", Start: time.Date(2026, 8, 2, 20, 0, 0, 0, jst)},
		{Summary: "B", Start: time.Date(2026, 8, 1, 20, 0, 0, 0, jst)},
	}

	// Same summary on a different day yields a different id.
	found := FindEventByID(events, EventID(events[1]))
	require.NotNil(t, found)
	assert.Equal(t, events[1].Start, found.Start)

	assert.Nil(t, FindEventByID(events, "bm9wZQ"))
}

func TestEncodeQuery(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, jst)

	t.Run("defaults are omitted", func(t *testing.T) {
		st := NewState(now)
		q := st.EncodeQuery()
		assert.Empty(t, q.Get("lang"))
		assert.Empty(t, q.Get("calendar"))
		assert.Equal(t, ViewMonth, q.Get("view"))
		assert.Equal(t, "2026-08-30", q.Get("date"))
	})

	t.Run("non-default language and calendar", func(t *testing.T) {
		st := NewState(now)
		st.Language = "en"
		st.Calendar = "kuzuha"
		q := st.EncodeQuery()
		assert.Equal(t, "en", q.Get("lang"))
		assert.Equal(t, "kuzuha", q.Get("calendar"))
	})

	t.Run("day view uses the selected date", func(t *testing.T) {
		st := NewState(now)
		st.View = ViewDay
		st.SelectedDate = time.Date(2026, 9, 1, 0, 0, 0, 0, jst)
		q := st.EncodeQuery()
		assert.Equal(t, "2026-09-01", q.Get("date"))
	})

	t.Run("detail keeps the origin view except search", func(t *testing.T) {
		st := NewState(now)
		st.View = ViewDetail
		st.SelectedEventID = "abc"
		st.PreviousView = ViewDay
		q := st.EncodeQuery()
		assert.Equal(t, "abc", q.Get("event"))
		assert.Equal(t, ViewDay, q.Get("from"))

		st.PreviousView = ViewSearch
		assert.Empty(t, st.EncodeQuery().Get("from"))
	})
}

func TestDecodeQuery(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, jst)

	t.Run("round trip for a day view", func(t *testing.T) {
		st := NewState(now)
		st.View = ViewDay
		st.SelectedDate = time.Date(2026, 9, 1, 0, 0, 0, 0, jst)
		st.Language = "en"

		got := DecodeQuery(st.EncodeQuery(), now, jst)
		assert.Equal(t, ViewDay, got.View)
		assert.Equal(t, "en", got.Language)
		assert.True(t, got.SelectedDate.Equal(st.SelectedDate))
	})

	t.Run("detail falls back to month origin", func(t *testing.T) {
		q := url.Values{}
		q.Set("view", ViewDetail)
		q.Set("event", "abc")
		got := DecodeQuery(q, now, jst)
		assert.Equal(t, ViewDetail, got.View)
		assert.Equal(t, "abc", got.SelectedEventID)
		assert.Equal(t, ViewMonth, got.PreviousView)
	})

	t.Run("invalid input keeps defaults", func(t *testing.T) {
		q := url.Values{}
		q.Set("view", ViewDay)
		q.Set("date", "not-a-date")
		q.Set("lang", "fr")
		got := DecodeQuery(q, now, jst)
		assert.Equal(t, ViewMonth, got.View)
		assert.Equal(t, DefaultLanguage, got.Language)
		assert.Equal(t, DefaultCalendar, got.Calendar)
	})
}
