package feed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"chievents/internal/config"
	"chievents/internal/model"
)

// ICS fetches a venue calendar published as an ICS feed. VEVENTs are
// normalized to date-level records; recurring events (RRULE, honoring
// EXDATE) are expanded into concrete records within the lookahead window.
type ICS struct {
	key       string
	name      string
	url       string
	lookahead int // days of recurrence expansion
	client    *http.Client
	log       *zap.Logger
	now       func() time.Time
}

// NewICS constructs an ICS venue adapter.
func NewICS(cfg config.ICSFeedConfig, lookaheadDays int, timeout time.Duration, log *zap.Logger) *ICS {
	return &ICS{
		key:       cfg.Key,
		name:      cfg.Name,
		url:       cfg.URL,
		lookahead: lookaheadDays,
		client:    newHTTPClient(timeout),
		log:       log,
		now:       time.Now,
	}
}

func (f *ICS) Key() string  { return f.key }
func (f *ICS) Name() string { return f.name }

// Fetch downloads and parses the feed. A VEVENT that fails to parse is
// skipped so one bad entry cannot take down the whole venue.
func (f *ICS) Fetch(ctx context.Context) ([]model.EventRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ics %s: fetch failed: %w", f.key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ics %s: unexpected status %s", f.key, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return f.parse(body)
}

func (f *ICS) parse(body []byte) ([]model.EventRecord, error) {
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ics %s: parse failed: %w", f.key, err)
	}

	today := dateOnly(f.now())
	rangeEnd := today.AddDate(0, 0, f.lookahead)

	events := make([]model.EventRecord, 0)
	for _, ve := range cal.Events() {
		recs, err := f.expandVEvent(ve, today, rangeEnd)
		if err != nil {
			f.log.Warn("ics: skipping unparseable vevent", zap.String("venue", f.key), zap.Error(err))
			continue
		}
		events = append(events, recs...)
	}

	f.log.Info("ics fetch succeeded", zap.String("venue", f.key), zap.Int("events", len(events)))
	return events, nil
}

// expandVEvent turns one VEVENT into zero or more date-level records inside
// [today, rangeEnd]. Overridden recurrence instances show up in venue feeds
// as standalone VEVENTs, so RECURRENCE-ID handling is not needed here.
func (f *ICS) expandVEvent(ve *ical.VEvent, today, rangeEnd time.Time) ([]model.EventRecord, error) {
	summary := propValue(ve, ical.ComponentPropertySummary)
	if summary == "" {
		return nil, fmt.Errorf("vevent missing SUMMARY")
	}
	location := propValue(ve, ical.ComponentPropertyLocation)
	detailURL := propValue(ve, ical.ComponentProperty("URL"))

	start, err := ve.GetStartAt()
	if err != nil {
		return nil, fmt.Errorf("vevent %q: no usable DTSTART: %w", summary, err)
	}
	end, err := ve.GetEndAt()
	if err != nil || end.Before(start) {
		end = start
	}
	duration := end.Sub(start)

	rawRRule := propValue(ve, ical.ComponentPropertyRrule)
	if rawRRule == "" {
		// Single event: keep it while it has not ended.
		if dateOnly(end).Before(today) || dateOnly(start).After(rangeEnd) {
			return nil, nil
		}
		return []model.EventRecord{f.record(summary, location, detailURL, start, end)}, nil
	}

	r, err := rrule.StrToRRule(rawRRule)
	if err != nil {
		return nil, fmt.Errorf("vevent %q: bad RRULE %q: %w", summary, rawRRule, err)
	}
	r.DTStart(start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range exDates(ve) {
		set.ExDate(ex.In(start.Location()))
	}

	occurrences := set.Between(today.In(start.Location()), rangeEnd.In(start.Location()), true)
	records := make([]model.EventRecord, 0, len(occurrences))
	for _, occStart := range occurrences {
		records = append(records, f.record(summary, location, detailURL, occStart, occStart.Add(duration)))
	}
	return records, nil
}

func (f *ICS) record(name, location, detailURL string, start, end time.Time) model.EventRecord {
	startDate := model.FormatDate(start)
	endDate := model.FormatDate(end)
	if endDate < startDate {
		endDate = startDate
	}
	return model.EventRecord{
		Name:      name,
		StartDate: startDate,
		EndDate:   endDate,
		Location:  location,
		DetailURL: detailURL,
	}
}

func propValue(ve *ical.VEvent, prop ical.ComponentProperty) string {
	if p := ve.GetProperty(prop); p != nil {
		return p.Value
	}
	return ""
}

// exDates collects EXDATE values in their basic DATE / DATE-TIME / UTC forms.
func exDates(ve *ical.VEvent) []time.Time {
	var out []time.Time
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range splitList(p.Value) {
			if t, err := parseICSTime(part); err == nil {
				out = append(out, t)
			}
		}
	}
	return out
}

func splitList(v string) []string {
	var parts []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}

func parseICSTime(v string) (time.Time, error) {
	switch {
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, time.Local)
	default:
		return time.ParseInLocation("20060102", v, time.Local)
	}
}
