// Package window implements the upcoming-window filter: which known events
// start within a rolling number of days from today, plus the presentation
// helpers (timing labels, pickup-window estimates, crowd tiers) the report
// builds on.
package window

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"chievents/internal/model"
)

// Event is an EventRecord annotated with the display name of its venue.
// The venue is attached only for reporting; it is never persisted.
type Event struct {
	model.EventRecord
	Venue string `json:"venue"`
}

// venueNames maps stable venue keys to display names. Keys not listed here
// fall back to a title-cased, underscore-to-space transform of the key.
var venueNames = map[string]string{
	"mccormick_place": "McCormick Place",
	"united_center":   "United Center",
	"ohare":           "O'Hare Airport",
}

// DisplayName resolves a venue key to its human-readable name.
func DisplayName(key string) string {
	if name, ok := venueNames[key]; ok {
		return name
	}
	return titleCase(strings.ReplaceAll(key, "_", " "))
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// Filter selects events starting inside [today, today+horizon].
type Filter struct {
	horizonDays int
	log         *zap.Logger
}

// NewFilter creates a Filter. horizonDays 0 means "starts today only".
func NewFilter(horizonDays int, log *zap.Logger) *Filter {
	if horizonDays < 0 {
		horizonDays = 0
	}
	return &Filter{horizonDays: horizonDays, log: log}
}

// Upcoming returns the events across all venues whose start date falls
// within [today, today+horizon], inclusive both ends, sorted ascending by
// start date. The sort is stable; within a venue the original order is
// preserved, and venues are walked in sorted key order so ties are
// deterministic. Records with an empty or unparseable start date are
// skipped with a log entry, never an error. Input records are not mutated.
func (f *Filter) Upcoming(byVenue map[string][]model.EventRecord, today time.Time) []Event {
	today = truncateToDay(today)
	cutoff := today.AddDate(0, 0, f.horizonDays)

	keys := make([]string, 0, len(byVenue))
	for k := range byVenue {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	upcoming := make([]Event, 0)
	for _, key := range keys {
		venue := DisplayName(key)
		for _, ev := range byVenue[key] {
			if ev.StartDate == "" {
				continue
			}
			start, err := model.ParseDate(ev.StartDate)
			if err != nil {
				f.log.Warn("skipping event with invalid start date",
					zap.String("event", ev.Name),
					zap.String("start_date", ev.StartDate),
					zap.Error(err),
				)
				continue
			}
			if start.Before(today) || start.After(cutoff) {
				continue
			}
			upcoming = append(upcoming, Event{EventRecord: ev, Venue: venue})
		}
	}

	// ISO dates compare correctly as strings.
	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].StartDate < upcoming[j].StartDate
	})

	return upcoming
}

// FormatTiming renders when an event starts relative to today:
// "TODAY (Feb 07)", "Tomorrow (Feb 08)", or "Feb 09 (2 days)". If the start
// date does not parse, the raw string is returned as-is.
func FormatTiming(ev model.EventRecord, today time.Time) string {
	start, err := model.ParseDate(ev.StartDate)
	if err != nil {
		if ev.StartDate == "" {
			return "Date TBD"
		}
		return ev.StartDate
	}

	today = truncateToDay(today)
	daysUntil := int(start.Sub(today).Hours() / 24)
	formatted := start.Format("Jan 02")

	switch daysUntil {
	case 0:
		return "TODAY (" + formatted + ")"
	case 1:
		return "Tomorrow (" + formatted + ")"
	default:
		return formatted + " (" + strconv.Itoa(daysUntil) + " days)"
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
