package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"chievents/internal/config"
	"chievents/internal/model"
)

// McCormick fetches events from the McCormick Place calendar API. The venue
// publishes a JSON endpoint that returns every event (past and future), so
// the adapter filters to events that have not ended yet.
type McCormick struct {
	url           string
	detailURLBase string
	client        *http.Client
	log           *zap.Logger
	now           func() time.Time
}

// mccormickEvent mirrors the relevant fields of the API payload. Dates come
// as ISO 8601 with a time component ("2026-02-07T00:00:00").
type mccormickEvent struct {
	ID      json.Number `json:"id"`
	OrgCode json.Number `json:"orgCode"`
	Title   string      `json:"title"`
	Start   string      `json:"start"`
	End     string      `json:"end"`
	Venue   string      `json:"venue"`
}

// NewMcCormick constructs the McCormick Place adapter.
func NewMcCormick(cfg config.McCormickConfig, timeout time.Duration, log *zap.Logger) *McCormick {
	return &McCormick{
		url:           cfg.URL,
		detailURLBase: cfg.DetailURLBase,
		client:        newHTTPClient(timeout),
		log:           log,
		now:           time.Now,
	}
}

func (m *McCormick) Key() string  { return "mccormick_place" }
func (m *McCormick) Name() string { return "McCormick Place" }

// Fetch downloads the full event list and returns the events that have not
// ended yet, normalized. Individual events with missing or malformed dates
// are skipped with a log entry; a transport or decode failure is an error.
func (m *McCormick) Fetch(ctx context.Context) ([]model.EventRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mccormick: fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mccormick: unexpected status %s", resp.Status)
	}

	var all []mccormickEvent
	if err := json.NewDecoder(resp.Body).Decode(&all); err != nil {
		return nil, fmt.Errorf("mccormick: decode failed: %w", err)
	}
	m.log.Info("mccormick fetch succeeded", zap.Int("total_events", len(all)))

	today := dateOnly(m.now())
	events := make([]model.EventRecord, 0, len(all))

	for _, ev := range all {
		startDate := trimDateTime(ev.Start)
		endDate := trimDateTime(ev.End)

		start, err := model.ParseDate(startDate)
		if err != nil {
			m.log.Warn("mccormick: skipping event with invalid start date",
				zap.String("event", ev.Title), zap.String("start", ev.Start))
			continue
		}
		end, err := model.ParseDate(endDate)
		if err != nil {
			// Single-date listings are normal; fall back to the start date.
			endDate = startDate
			end = start
		}
		if end.Before(today) {
			continue
		}

		name := ev.Title
		if name == "" {
			name = "Untitled Event"
		}
		location := ev.Venue
		if location == "" {
			location = "Location TBD"
		}
		orgCode := ev.OrgCode.String()
		if orgCode == "" {
			orgCode = "10"
		}

		events = append(events, model.EventRecord{
			Name:      name,
			StartDate: startDate,
			EndDate:   endDate,
			Location:  location,
			DetailURL: fmt.Sprintf("%s?eventId=%s&orgCode=%s", m.detailURLBase, ev.ID.String(), orgCode),
		})
	}

	m.log.Info("mccormick normalize complete", zap.Int("upcoming_events", len(events)))
	return events, nil
}

// trimDateTime reduces "2026-02-07T00:00:00" to "2026-02-07".
func trimDateTime(s string) string {
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		return s[:i]
	}
	return s
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
