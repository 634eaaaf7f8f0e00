package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"chievents/internal/config"
	"chievents/internal/model"
)

// UnitedCenter fetches United Center events through the Ticketmaster
// Discovery API. Bulls and Blackhawks games, concerts, everything the venue
// lists — each is a single-day record with its Ticketmaster detail link and
// segment classification (Sports, Music, ...) as the category.
type UnitedCenter struct {
	url     string
	apiKey  string
	venueID string
	client  *http.Client
	log     *zap.Logger
}

type tmResponse struct {
	Embedded struct {
		Events []tmEvent `json:"events"`
	} `json:"_embedded"`
}

type tmEvent struct {
	Name  string `json:"name"`
	URL   string `json:"url"`
	Dates struct {
		Start struct {
			LocalDate string `json:"localDate"`
		} `json:"start"`
	} `json:"dates"`
	Classifications []struct {
		Segment struct {
			Name string `json:"name"`
		} `json:"segment"`
	} `json:"classifications"`
}

// NewUnitedCenter constructs the United Center adapter.
func NewUnitedCenter(cfg config.TicketmasterConfig, timeout time.Duration, log *zap.Logger) *UnitedCenter {
	return &UnitedCenter{
		url:     cfg.URL,
		apiKey:  cfg.APIKey,
		venueID: cfg.VenueID,
		client:  newHTTPClient(timeout),
		log:     log,
	}
}

func (u *UnitedCenter) Key() string  { return "united_center" }
func (u *UnitedCenter) Name() string { return "United Center" }

// Fetch queries the Discovery API for upcoming events at the venue. An
// unconfigured API key is not an error condition worth alerting on; the
// source simply contributes nothing this run.
func (u *UnitedCenter) Fetch(ctx context.Context) ([]model.EventRecord, error) {
	if u.apiKey == "" {
		u.log.Warn("ticketmaster api key not configured, skipping united center")
		return nil, nil
	}

	params := url.Values{}
	params.Set("apikey", u.apiKey)
	params.Set("venueId", u.venueID)
	params.Set("size", "200")
	params.Set("sort", "date,asc")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.url+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ticketmaster: fetch failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, errors.New("ticketmaster: invalid API key")
	case http.StatusTooManyRequests:
		return nil, errors.New("ticketmaster: rate limit exceeded")
	default:
		return nil, fmt.Errorf("ticketmaster: unexpected status %s", resp.Status)
	}

	var body tmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("ticketmaster: decode failed: %w", err)
	}

	events := make([]model.EventRecord, 0, len(body.Embedded.Events))
	for _, ev := range body.Embedded.Events {
		startDate := ev.Dates.Start.LocalDate
		if startDate == "" {
			u.log.Warn("ticketmaster: skipping event without date", zap.String("event", ev.Name))
			continue
		}

		name := ev.Name
		if name == "" {
			name = "Untitled Event"
		}
		category := "Event"
		if len(ev.Classifications) > 0 && ev.Classifications[0].Segment.Name != "" {
			category = ev.Classifications[0].Segment.Name
		}

		events = append(events, model.EventRecord{
			Name:      name,
			StartDate: startDate,
			EndDate:   startDate, // arena events are single-day
			Location:  "United Center",
			DetailURL: ev.URL,
			Category:  category,
		})
	}

	u.log.Info("united center fetch succeeded", zap.Int("events", len(events)))
	return events, nil
}
