package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2026-02-07")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-07", FormatDate(got))

	for _, bad := range []string{"", "02/07/2026", "2026-2-7", "2026-02-07T00:00:00"} {
		_, err := ParseDate(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestIdentity(t *testing.T) {
	a := EventRecord{Name: "Auto Show", StartDate: "2026-02-07", Location: "WEST BUILDING"}
	b := EventRecord{Name: "Auto Show", StartDate: "2026-02-07", Location: "SOUTH BUILDING", EndDate: "2026-02-16"}
	c := EventRecord{Name: "Auto Show", StartDate: "2026-02-08"}

	assert.Equal(t, a.Identity(), b.Identity())
	assert.NotEqual(t, a.Identity(), c.Identity())
}

func TestEventRecordJSONFieldNames(t *testing.T) {
	rec := EventRecord{
		Name:      "Auto Show",
		StartDate: "2026-02-07",
		EndDate:   "2026-02-16",
		Location:  "SOUTH/NORTH BUILDINGS",
		DetailURL: "https://example.com/detail",
		Category:  "Expo",
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"event_name", "start_date", "end_date", "location", "url", "event_type"} {
		assert.Contains(t, raw, key)
	}
}
