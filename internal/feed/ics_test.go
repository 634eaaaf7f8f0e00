package feed

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chievents/internal/config"
)

func icsFixture(lines ...string) []byte {
	all := append([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//chievents//test//EN",
	}, lines...)
	all = append(all, "END:VCALENDAR", "")
	return []byte(strings.Join(all, "\r\n"))
}

func newTestICS(t *testing.T, lookaheadDays int) *ICS {
	t.Helper()
	f := NewICS(config.ICSFeedConfig{
		Key:  "navy_pier",
		Name: "Navy Pier",
		URL:  "https://example.com/events.ics",
	}, lookaheadDays, 5*time.Second, zap.NewNop())
	f.now = fixedNow("2025-12-10")
	return f
}

func TestICS_ParseSingleEvent(t *testing.T) {
	f := newTestICS(t, 30)
	body := icsFixture(
		"BEGIN:VEVENT",
		"UID:market@test",
		"SUMMARY:Winter Market",
		"DTSTART;VALUE=DATE:20251215",
		"DTEND;VALUE=DATE:20251216",
		"LOCATION:Festival Hall",
		"URL:https://example.com/market",
		"END:VEVENT",
	)

	got, err := f.parse(body)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "Winter Market", got[0].Name)
	assert.Equal(t, "2025-12-15", got[0].StartDate)
	assert.Equal(t, "2025-12-16", got[0].EndDate)
	assert.Equal(t, "Festival Hall", got[0].Location)
	assert.Equal(t, "https://example.com/market", got[0].DetailURL)
}

func TestICS_ParseDropsPastAndFarFutureEvents(t *testing.T) {
	f := newTestICS(t, 30)
	body := icsFixture(
		"BEGIN:VEVENT",
		"UID:past@test",
		"SUMMARY:Already Over",
		"DTSTART;VALUE=DATE:20251101",
		"DTEND;VALUE=DATE:20251102",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:far@test",
		"SUMMARY:Next Summer",
		"DTSTART;VALUE=DATE:20260601",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:ok@test",
		"SUMMARY:This Week",
		"DTSTART;VALUE=DATE:20251212",
		"END:VEVENT",
	)

	got, err := f.parse(body)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "This Week", got[0].Name)
}

func TestICS_ParseExpandsRecurrenceHonoringExdate(t *testing.T) {
	f := newTestICS(t, 30)
	body := icsFixture(
		"BEGIN:VEVENT",
		"UID:skate@test",
		"SUMMARY:Weekly Skate",
		"DTSTART:20251211T180000Z",
		"DTEND:20251211T200000Z",
		"RRULE:FREQ=WEEKLY;COUNT=3",
		"EXDATE:20251218T180000Z",
		"END:VEVENT",
	)

	got, err := f.parse(body)
	require.NoError(t, err)

	// Three weekly occurrences minus the excluded middle one.
	require.Len(t, got, 2)
	assert.Equal(t, "2025-12-11", got[0].StartDate)
	assert.Equal(t, "2025-12-25", got[1].StartDate)
	for _, ev := range got {
		assert.Equal(t, "Weekly Skate", ev.Name)
		assert.Equal(t, ev.StartDate, ev.EndDate)
	}
}

func TestICS_ParseRecurrenceBoundedByLookahead(t *testing.T) {
	f := newTestICS(t, 15)
	body := icsFixture(
		"BEGIN:VEVENT",
		"UID:tour@test",
		"SUMMARY:Weekly Tour",
		"DTSTART:20251211T100000Z",
		"RRULE:FREQ=WEEKLY",
		"END:VEVENT",
	)

	got, err := f.parse(body)
	require.NoError(t, err)

	// Unbounded rule stops at the expansion window.
	require.Len(t, got, 2)
	assert.Equal(t, "2025-12-11", got[0].StartDate)
	assert.Equal(t, "2025-12-18", got[1].StartDate)
}

func TestICS_ParseSkipsVEventWithoutSummary(t *testing.T) {
	f := newTestICS(t, 30)
	body := icsFixture(
		"BEGIN:VEVENT",
		"UID:nameless@test",
		"DTSTART;VALUE=DATE:20251212",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:named@test",
		"SUMMARY:Kept",
		"DTSTART;VALUE=DATE:20251212",
		"END:VEVENT",
	)

	got, err := f.parse(body)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "Kept", got[0].Name)
}

func TestICS_ParseGarbageIsAnError(t *testing.T) {
	f := newTestICS(t, 30)

	_, err := f.parse([]byte("not a calendar"))
	assert.Error(t, err)
}
