package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chievents/internal/config"
	"chievents/internal/flights"
	"chievents/internal/model"
)

// stubAdapter serves a fixed event list, or an error.
type stubAdapter struct {
	key    string
	name   string
	events []model.EventRecord
	err    error
}

func (s *stubAdapter) Key() string  { return s.key }
func (s *stubAdapter) Name() string { return s.name }
func (s *stubAdapter) Fetch(ctx context.Context) ([]model.EventRecord, error) {
	return s.events, s.err
}

// stubFlights serves a fixed summary, or an error.
type stubFlights struct {
	summary *flights.Summary
	err     error
}

func (s *stubFlights) Fetch(ctx context.Context) (*flights.Summary, error) {
	return s.summary, s.err
}

// recordingSender remembers every message it was asked to send.
type recordingSender struct {
	subjects []string
	err      error
}

func (s *recordingSender) Send(ctx context.Context, subject, textBody, htmlBody string) error {
	s.subjects = append(s.subjects, subject)
	return s.err
}

func newTestPipeline(t *testing.T, adapters []*stubAdapter) (*Pipeline, *recordingSender) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.DataFile = filepath.Join(t.TempDir(), "events.json")
	cfg.Feeds.McCormick.Enabled = false
	cfg.Feeds.Ticketmaster.Enabled = false

	p, err := New(cfg, zap.NewNop())
	require.NoError(t, err)

	for _, a := range adapters {
		p.adapters = append(p.adapters, a)
	}
	sender := &recordingSender{}
	p.sender = sender
	p.flights = &stubFlights{}
	p.now = func() time.Time {
		return time.Date(2025, 12, 10, 7, 0, 0, 0, time.UTC)
	}
	return p, sender
}

func record(name, start string) model.EventRecord {
	return model.EventRecord{Name: name, StartDate: start, EndDate: start}
}

func TestRun_FirstRunEverythingIsNewAndEmailGoesOut(t *testing.T) {
	adapter := &stubAdapter{
		key:  "mccormick_place",
		name: "McCormick Place",
		events: []model.EventRecord{
			record("Auto Show", "2026-02-07"),
			record("Tech Expo", "2026-03-01"),
		},
	}
	p, sender := newTestPipeline(t, []*stubAdapter{adapter})

	require.NoError(t, p.Run(context.Background()))

	require.Len(t, sender.subjects, 1)
	assert.Contains(t, sender.subjects[0], "2 New Events")
}

func TestRun_SecondRunWithSameDataSendsNothing(t *testing.T) {
	adapter := &stubAdapter{
		key:    "mccormick_place",
		name:   "McCormick Place",
		events: []model.EventRecord{record("Auto Show", "2026-02-07")},
	}
	p, sender := newTestPipeline(t, []*stubAdapter{adapter})

	require.NoError(t, p.Run(context.Background()))
	require.NoError(t, p.Run(context.Background()))

	// Only the first run had news.
	assert.Len(t, sender.subjects, 1)
}

func TestRun_NewEventAppearsOnLaterRun(t *testing.T) {
	adapter := &stubAdapter{
		key:    "mccormick_place",
		name:   "McCormick Place",
		events: []model.EventRecord{record("Auto Show", "2026-02-07")},
	}
	p, sender := newTestPipeline(t, []*stubAdapter{adapter})

	require.NoError(t, p.Run(context.Background()))
	adapter.events = append(adapter.events, record("Tech Expo", "2026-03-01"))
	require.NoError(t, p.Run(context.Background()))

	require.Len(t, sender.subjects, 2)
	assert.Contains(t, sender.subjects[1], "1 New Event")
}

func TestRun_AdapterFailureReplacesVenueWithEmpty(t *testing.T) {
	adapter := &stubAdapter{
		key:    "mccormick_place",
		name:   "McCormick Place",
		events: []model.EventRecord{record("Auto Show", "2026-02-07")},
	}
	p, sender := newTestPipeline(t, []*stubAdapter{adapter})

	require.NoError(t, p.Run(context.Background()))

	// Feed goes dark, then recovers: the event reads as new again because
	// the failed run overwrote the venue with an empty list.
	adapter.err = errors.New("connection refused")
	require.NoError(t, p.Run(context.Background()))
	adapter.err = nil
	require.NoError(t, p.Run(context.Background()))

	require.Len(t, sender.subjects, 2)
	assert.Contains(t, sender.subjects[1], "1 New Event")
}

func TestRun_HighFlightDemandAloneTriggersEmail(t *testing.T) {
	p, sender := newTestPipeline(t, nil)
	p.flights = &stubFlights{summary: &flights.Summary{Demand: flights.DemandHigh, Text: "lots of delays"}}

	require.NoError(t, p.Run(context.Background()))

	require.Len(t, sender.subjects, 1)
	assert.Contains(t, sender.subjects[0], "O'Hare: HIGH Demand")
}

func TestRun_MediumFlightDemandAloneDoesNot(t *testing.T) {
	p, sender := newTestPipeline(t, nil)
	p.flights = &stubFlights{summary: &flights.Summary{Demand: flights.DemandMedium}}

	require.NoError(t, p.Run(context.Background()))
	assert.Empty(t, sender.subjects)
}

func TestRun_AlwaysSendOverridesPolicy(t *testing.T) {
	p, sender := newTestPipeline(t, nil)
	p.cfg.Email.AlwaysSend = true

	require.NoError(t, p.Run(context.Background()))
	assert.Len(t, sender.subjects, 1)
}

func TestRun_FlightCheckFailureIsNotFatal(t *testing.T) {
	p, sender := newTestPipeline(t, nil)
	p.flights = &stubFlights{err: errors.New("api down")}

	require.NoError(t, p.Run(context.Background()))
	assert.Empty(t, sender.subjects)
}

func TestRun_SendFailureIsNotFatal(t *testing.T) {
	adapter := &stubAdapter{
		key:    "mccormick_place",
		name:   "McCormick Place",
		events: []model.EventRecord{record("Auto Show", "2026-02-07")},
	}
	p, sender := newTestPipeline(t, []*stubAdapter{adapter})
	sender.err = errors.New("smtp unreachable")

	require.NoError(t, p.Run(context.Background()))

	// The snapshot was still saved: the next run finds nothing new.
	sender.err = nil
	require.NoError(t, p.Run(context.Background()))
	assert.Len(t, sender.subjects, 1)
}

func TestRun_MalformedAdapterRecordIsFatal(t *testing.T) {
	adapter := &stubAdapter{
		key:    "mccormick_place",
		name:   "McCormick Place",
		events: []model.EventRecord{record("", "2026-02-07")},
	}
	p, _ := newTestPipeline(t, []*stubAdapter{adapter})

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mccormick_place")
}

func TestUpcoming_ReadsFromSavedSnapshot(t *testing.T) {
	adapter := &stubAdapter{
		key:  "mccormick_place",
		name: "McCormick Place",
		events: []model.EventRecord{
			record("Starts Today", "2025-12-10"),
			record("Too Far Out", "2026-02-07"),
		},
	}
	p, _ := newTestPipeline(t, []*stubAdapter{adapter})

	require.NoError(t, p.Run(context.Background()))

	upcoming, err := p.Upcoming()
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "Starts Today", upcoming[0].Name)
	assert.Equal(t, "McCormick Place", upcoming[0].Venue)
}

func TestBuildPreview(t *testing.T) {
	adapter := &stubAdapter{
		key:    "mccormick_place",
		name:   "McCormick Place",
		events: []model.EventRecord{record("Starts Today", "2025-12-10")},
	}
	p, _ := newTestPipeline(t, []*stubAdapter{adapter})

	require.NoError(t, p.Run(context.Background()))

	subject, body, err := p.BuildPreview()
	require.NoError(t, err)
	assert.NotEmpty(t, subject)
	assert.Contains(t, body, "Starts Today")
}

func TestShouldSend(t *testing.T) {
	p, _ := newTestPipeline(t, nil)

	assert.False(t, p.shouldSend(0, nil))
	assert.True(t, p.shouldSend(1, nil))
	assert.False(t, p.shouldSend(0, &flights.Summary{Demand: flights.DemandLow}))
	assert.True(t, p.shouldSend(0, &flights.Summary{Demand: flights.DemandHigh}))

	p.cfg.Email.AlwaysSend = true
	assert.True(t, p.shouldSend(0, nil))
}
