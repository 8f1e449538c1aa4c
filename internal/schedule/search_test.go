package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamcal/internal/model"
)

func searchFixture() *Store {
	live := model.Event{
		UID: "live", Summary: "3D LIVE 2026",
		Description: "アニバーサリーライブ",
		Location:    "両国国技館",
		Start:       time.Date(2026, 9, 12, 18, 0, 0, 0, jst),
		End:         time.Date(2026, 9, 12, 21, 0, 0, 0, jst),
	}
	collab := model.Event{
		UID: "collab", Summary: "コラボ配信",
		Description: "Minecraft collab stream",
		Start:       time.Date(2026, 8, 1, 21, 0, 0, 0, jst),
		End:         time.Date(2026, 8, 1, 23, 0, 0, 0, jst),
	}
	return NewStore([]model.Event{live, collab})
}

func TestSearch(t *testing.T) {
	s := searchFixture()

	t.Run("case-insensitive match on summary", func(t *testing.T) {
		got := s.Search("3d live")
		require.Len(t, got, 1)
		assert.Equal(t, "live", got[0].UID)
	})

	t.Run("all terms must match across fields", func(t *testing.T) {
		// One term hits the description, the other the location.
		got := s.Search("ライブ 両国")
		require.Len(t, got, 1)
		assert.Equal(t, "live", got[0].UID)

		assert.Empty(t, s.Search("ライブ minecraft"))
	})

	t.Run("empty query matches nothing", func(t *testing.T) {
		assert.Nil(t, s.Search(""))
		assert.Nil(t, s.Search("   "))
	})
}

func TestFirstUpcomingIndex(t *testing.T) {
	s := searchFixture()
	events := s.Events() // collab (Aug 1) then live (Sep 12)

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, jst)
	assert.Equal(t, 1, FirstUpcomingIndex(events, now))

	// An event starting earlier today still counts as upcoming.
	sameDay := time.Date(2026, 8, 1, 23, 30, 0, 0, jst)
	assert.Equal(t, 0, FirstUpcomingIndex(events, sameDay))

	afterAll := time.Date(2027, 1, 1, 0, 0, 0, 0, jst)
	assert.Equal(t, -1, FirstUpcomingIndex(events, afterAll))
}
