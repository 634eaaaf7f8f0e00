package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chievents/internal/config"
)

func newTestUnitedCenter(t *testing.T, handler http.HandlerFunc, apiKey string) *UnitedCenter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewUnitedCenter(config.TicketmasterConfig{
		URL:     srv.URL,
		APIKey:  apiKey,
		VenueID: "KovZpZAJna6A",
	}, 5*time.Second, zap.NewNop())
}

func TestUnitedCenter_Fetch(t *testing.T) {
	u := newTestUnitedCenter(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "test-key", q.Get("apikey"))
		assert.Equal(t, "KovZpZAJna6A", q.Get("venueId"))
		assert.Equal(t, "200", q.Get("size"))
		assert.Equal(t, "date,asc", q.Get("sort"))
		w.Write([]byte(`{"_embedded": {"events": [
			{
				"name": "Chicago Bulls vs. Boston Celtics",
				"url": "https://www.ticketmaster.com/event/1",
				"dates": {"start": {"localDate": "2025-12-14"}},
				"classifications": [{"segment": {"name": "Sports"}}]
			},
			{
				"name": "Arena Concert",
				"url": "https://www.ticketmaster.com/event/2",
				"dates": {"start": {"localDate": "2025-12-20"}}
			},
			{
				"name": "Undated Event",
				"url": "https://www.ticketmaster.com/event/3",
				"dates": {"start": {}}
			}
		]}}`))
	}, "test-key")

	got, err := u.Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "Chicago Bulls vs. Boston Celtics", got[0].Name)
	assert.Equal(t, "2025-12-14", got[0].StartDate)
	assert.Equal(t, "2025-12-14", got[0].EndDate)
	assert.Equal(t, "United Center", got[0].Location)
	assert.Equal(t, "Sports", got[0].Category)
	assert.Equal(t, "https://www.ticketmaster.com/event/1", got[0].DetailURL)

	// No classification falls back to the generic category.
	assert.Equal(t, "Event", got[1].Category)
}

func TestUnitedCenter_FetchWithoutAPIKeySkips(t *testing.T) {
	u := newTestUnitedCenter(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected without an api key")
	}, "")

	got, err := u.Fetch(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUnitedCenter_FetchUnauthorized(t *testing.T) {
	u := newTestUnitedCenter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, "bad-key")

	_, err := u.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid API key")
}

func TestUnitedCenter_FetchRateLimited(t *testing.T) {
	u := newTestUnitedCenter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}, "test-key")

	_, err := u.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}

func TestUnitedCenter_FetchEmptyFeed(t *testing.T) {
	u := newTestUnitedCenter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}, "test-key")

	got, err := u.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}
