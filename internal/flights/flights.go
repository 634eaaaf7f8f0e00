// Package flights monitors an airport for delays and cancellations through
// the Aviationstack API. Heavy disruption means passengers scrambling for
// ground transportation, which is what the report ultimately cares about.
package flights

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"chievents/internal/config"
)

// Delays shorter than this are noise, not disruption.
const delayThresholdMinutes = 15.0

// Demand tiers.
const (
	DemandLow    = "LOW"
	DemandMedium = "MEDIUM"
	DemandHigh   = "HIGH"
)

// Summary is the per-run disruption report. A nil *Summary means the source
// is unavailable or not configured; the pipeline passes it through to the
// report builder untouched.
type Summary struct {
	TotalFlights     int       `json:"total_flights"`
	DelayedFlights   int       `json:"delayed_flights"`
	CancelledFlights int       `json:"cancelled_flights"`
	AvgDelayMinutes  int       `json:"avg_delay_minutes"`
	DelayRate        float64   `json:"delay_rate"`        // percent
	CancellationRate float64   `json:"cancellation_rate"` // percent
	PeakHours        []string  `json:"peak_hours"`        // up to 3, e.g. "6am-7am"
	Demand           string    `json:"taxi_demand"`       // LOW, MEDIUM, HIGH
	Text             string    `json:"summary"`
	CheckedAt        time.Time `json:"timestamp"`
}

type apiResponse struct {
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
	Data []Flight `json:"data"`
}

// Flight is the subset of the API payload the analysis needs.
type Flight struct {
	FlightStatus string `json:"flight_status"`
	Departure    struct {
		Scheduled string `json:"scheduled"`
		Estimated string `json:"estimated"`
		Actual    string `json:"actual"`
	} `json:"departure"`
}

// Monitor fetches and analyzes departures for one airport.
type Monitor struct {
	url     string
	apiKey  string
	airport string
	limit   int
	client  *http.Client
	log     *zap.Logger
	now     func() time.Time
}

// NewMonitor constructs a Monitor. An empty API key disables the source.
func NewMonitor(cfg config.FlightsConfig, timeout time.Duration, log *zap.Logger) *Monitor {
	return &Monitor{
		url:     cfg.URL,
		apiKey:  cfg.APIKey,
		airport: cfg.Airport,
		limit:   cfg.Limit,
		client:  &http.Client{Timeout: timeout},
		log:     log,
		now:     time.Now,
	}
}

// Fetch returns the current disruption summary, or nil when the source is
// not configured or returned no data.
func (m *Monitor) Fetch(ctx context.Context) (*Summary, error) {
	if m.apiKey == "" {
		m.log.Info("aviationstack api key not configured, skipping flight check")
		return nil, nil
	}

	params := url.Values{}
	params.Set("access_key", m.apiKey)
	params.Set("dep_iata", m.airport)
	params.Set("limit", strconv.Itoa(m.limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.url+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("flights: fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("flights: unexpected status %s", resp.Status)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("flights: decode failed: %w", err)
	}
	if body.Error != nil {
		return nil, fmt.Errorf("flights: api error %s: %s", body.Error.Code, body.Error.Info)
	}
	if len(body.Data) == 0 {
		m.log.Warn("flights: no flight data returned")
		return nil, nil
	}

	summary := Analyze(body.Data, m.now())
	m.log.Info("flight analysis complete",
		zap.String("airport", m.airport),
		zap.String("demand", summary.Demand),
		zap.String("summary", summary.Text),
	)
	return summary, nil
}

// Analyze computes the disruption summary for a list of flights. Pure
// function of its inputs so it tests without the network.
func Analyze(flights []Flight, checkedAt time.Time) *Summary {
	total := len(flights)
	delayed := 0
	cancelled := 0
	var delaySum float64
	departureHours := make(map[int]int)

	for _, f := range flights {
		if strings.EqualFold(f.FlightStatus, "cancelled") {
			cancelled++
			continue
		}

		scheduled := f.Departure.Scheduled
		actual := f.Departure.Actual
		if actual == "" {
			actual = f.Departure.Estimated
		}

		if scheduled != "" && actual != "" {
			if s, errS := parseAPITime(scheduled); errS == nil {
				if a, errA := parseAPITime(actual); errA == nil {
					delay := a.Sub(s).Minutes()
					if delay > delayThresholdMinutes {
						delayed++
						delaySum += delay
					}
				}
			}
		}

		if scheduled != "" {
			if s, err := parseAPITime(scheduled); err == nil {
				departureHours[s.Hour()]++
			}
		}
	}

	avgDelay := 0
	if delayed > 0 {
		avgDelay = int(delaySum / float64(delayed))
	}

	delayRate := 0.0
	cancellationRate := 0.0
	if total > 0 {
		delayRate = float64(delayed) / float64(total) * 100
		cancellationRate = float64(cancelled) / float64(total) * 100
	}

	demand := DemandLow
	switch {
	case cancellationRate > 5 || delayRate > 30:
		demand = DemandHigh
	case cancellationRate > 2 || delayRate > 15:
		demand = DemandMedium
	}

	text := "No significant delays or cancellations"
	if delayed > 0 || cancelled > 0 {
		text = fmt.Sprintf("%d delayed, %d cancelled", delayed, cancelled)
		if avgDelay > 0 {
			text += fmt.Sprintf(" (avg delay: %d min)", avgDelay)
		}
	}

	return &Summary{
		TotalFlights:     total,
		DelayedFlights:   delayed,
		CancelledFlights: cancelled,
		AvgDelayMinutes:  avgDelay,
		DelayRate:        round1(delayRate),
		CancellationRate: round1(cancellationRate),
		PeakHours:        peakHours(departureHours, 3),
		Demand:           demand,
		Text:             text,
		CheckedAt:        checkedAt,
	}
}

// peakHours returns the n busiest departure hours as formatted ranges,
// busiest first. Equal counts break toward the earlier hour so the output
// is deterministic.
func peakHours(counts map[int]int, n int) []string {
	hours := make([]int, 0, len(counts))
	for h := range counts {
		hours = append(hours, h)
	}
	sort.Slice(hours, func(i, j int) bool {
		if counts[hours[i]] != counts[hours[j]] {
			return counts[hours[i]] > counts[hours[j]]
		}
		return hours[i] < hours[j]
	})
	if len(hours) > n {
		hours = hours[:n]
	}

	out := make([]string, len(hours))
	for i, h := range hours {
		out[i] = FormatHourRange(h)
	}
	return out
}

// FormatHourRange renders a 24h hour as a readable one-hour range,
// e.g. 6 -> "6am-7am", 17 -> "5pm-6pm", 23 -> "11pm-12am".
func FormatHourRange(hour int) string {
	start := hour % 12
	if start == 0 {
		start = 12
	}
	next := (hour + 1) % 24
	end := next % 12
	if end == 0 {
		end = 12
	}
	startPeriod := "am"
	if hour >= 12 {
		startPeriod = "pm"
	}
	endPeriod := "am"
	if next >= 12 {
		endPeriod = "pm"
	}
	return fmt.Sprintf("%d%s-%d%s", start, startPeriod, end, endPeriod)
}

// parseAPITime handles the API's ISO 8601 timestamps, with or without zone.
func parseAPITime(v string) (time.Time, error) {
	v = strings.Replace(v, "Z", "+00:00", 1)
	if t, err := time.Parse("2006-01-02T15:04:05-07:00", v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", v)
}

func round1(f float64) float64 {
	return float64(int(f*10+0.5)) / 10
}
