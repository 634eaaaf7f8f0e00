// Package report renders the daily summary from one data model into two
// targets: plain text and HTML, both backed by the same view so the two
// bodies can never drift apart.
package report

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"sort"
	"strings"
	texttemplate "text/template"
	"time"

	"chievents/internal/flights"
	"chievents/internal/model"
	"chievents/internal/window"
)

//go:embed templates/report.txt.tmpl templates/report.html.tmpl
var templateFS embed.FS

// VenueNews is the newly-announced events of one venue.
type VenueNews struct {
	Key    string
	Name   string
	Events []model.EventRecord
}

// Data is everything a report is built from. Rendering is a deterministic
// function of this value.
type Data struct {
	Today       time.Time
	GeneratedAt time.Time
	News        []VenueNews
	Upcoming    []window.Event
	Flights     *flights.Summary
}

// TotalNew counts new events across all venues.
func (d Data) TotalNew() int {
	n := 0
	for _, vn := range d.News {
		n += len(vn.Events)
	}
	return n
}

// Builder renders reports.
type Builder struct {
	text *texttemplate.Template
	html *htmltemplate.Template
}

// NewBuilder parses the embedded templates.
func NewBuilder() (*Builder, error) {
	text, err := texttemplate.ParseFS(templateFS, "templates/report.txt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("report: parse text template: %w", err)
	}
	html, err := htmltemplate.ParseFS(templateFS, "templates/report.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("report: parse html template: %w", err)
	}
	return &Builder{text: text, html: html}, nil
}

// Subject composes the email subject from what the report contains.
func (b *Builder) Subject(d Data) string {
	var parts []string
	if n := d.TotalNew(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d New Event%s", n, plural(n)))
	}
	if d.Flights != nil {
		parts = append(parts, fmt.Sprintf("O'Hare: %s Demand", d.Flights.Demand))
	}
	if len(parts) == 0 {
		return "🚕 Daily Chicago Taxi Monitor Summary"
	}
	return "🚕 " + strings.Join(parts, " + ")
}

// Render produces the plain-text and HTML bodies.
func (b *Builder) Render(d Data) (textBody, htmlBody string, err error) {
	v := buildView(d)

	var tbuf bytes.Buffer
	if err := b.text.Execute(&tbuf, v); err != nil {
		return "", "", fmt.Errorf("report: render text: %w", err)
	}

	var hbuf bytes.Buffer
	if err := b.html.Execute(&hbuf, v); err != nil {
		return "", "", fmt.Errorf("report: render html: %w", err)
	}

	return tbuf.String(), hbuf.String(), nil
}

// Per-tier accent colors for the HTML body.
var tierColors = map[window.CrowdTier][2]string{
	window.TierMassive: {"#e74c3c", "#ffe6e6"},
	window.TierLarge:   {"#f39c12", "#fff4e6"},
	window.TierMedium:  {"#3498db", "#e6f2ff"},
	window.TierSmall:   {"#95a5a6", "#f8f9fa"},
}

var demandColors = map[string][2]string{
	flights.DemandHigh:   {"#e74c3c", "#ffe6e6"},
	flights.DemandMedium: {"#f39c12", "#fff4e6"},
	flights.DemandLow:    {"#27ae60", "#e6f9ee"},
}

var demandEmojis = map[string]string{
	flights.DemandHigh:   "🔥🔥🔥",
	flights.DemandMedium: "🔥",
	flights.DemandLow:    "✈️",
}

type upcomingView struct {
	Name       string
	Venue      string
	Location   string
	Timing     string
	Pickup     string
	Crowd      window.CrowdInfo
	Color      string
	Background string
}

type newEventView struct {
	Index      int
	Name       string
	DateRange  string
	Location   string
	URL        string
	Crowd      window.CrowdInfo
	Color      string
	Background string
}

type newsView struct {
	VenueName string
	Count     int
	Plural    string
	Events    []newEventView
}

type flightsView struct {
	Demand     string
	Emoji      string
	Delayed    int
	Cancelled  int
	PeakHours  string
	Text       string
	Color      string
	Background string
}

type view struct {
	Upcoming      []upcomingView
	UpcomingCount int
	UpcomingPlur  string
	Flights       *flightsView
	News          []newsView
	TotalNew      int
	Timestamp     string
}

func buildView(d Data) view {
	v := view{
		TotalNew:  d.TotalNew(),
		Timestamp: d.GeneratedAt.Format("January 02, 2006 at 3:04 PM"),
	}

	for _, ev := range d.Upcoming {
		location := ev.Location
		if location == "" {
			location = ev.Venue
		}
		crowd := window.ClassifyCrowd(location)
		colors := tierColors[crowd.Tier]
		v.Upcoming = append(v.Upcoming, upcomingView{
			Name:       ev.Name,
			Venue:      ev.Venue,
			Location:   location,
			Timing:     window.FormatTiming(ev.EventRecord, d.Today),
			Pickup:     window.EstimatePickup(ev),
			Crowd:      crowd,
			Color:      colors[0],
			Background: colors[1],
		})
	}
	v.UpcomingCount = len(v.Upcoming)
	v.UpcomingPlur = plural(v.UpcomingCount)

	if d.Flights != nil {
		peak := strings.Join(d.Flights.PeakHours, ", ")
		if peak == "" {
			peak = "Normal schedule"
		}
		colors := demandColors[d.Flights.Demand]
		v.Flights = &flightsView{
			Demand:     d.Flights.Demand,
			Emoji:      demandEmojis[d.Flights.Demand],
			Delayed:    d.Flights.DelayedFlights,
			Cancelled:  d.Flights.CancelledFlights,
			PeakHours:  peak,
			Text:       d.Flights.Text,
			Color:      colors[0],
			Background: colors[1],
		}
	}

	for _, vn := range d.News {
		if len(vn.Events) == 0 {
			continue
		}
		// Largest expected crowd first: that is the planning order.
		events := make([]model.EventRecord, len(vn.Events))
		copy(events, vn.Events)
		sort.SliceStable(events, func(i, j int) bool {
			return window.ClassifyCrowd(events[i].Location).Tier < window.ClassifyCrowd(events[j].Location).Tier
		})

		nv := newsView{
			VenueName: vn.Name,
			Count:     len(events),
			Plural:    plural(len(events)),
		}
		for i, ev := range events {
			crowd := window.ClassifyCrowd(ev.Location)
			colors := tierColors[crowd.Tier]
			location := ev.Location
			if location == "" {
				location = "Location TBD"
			}
			url := ev.DetailURL
			if url == "" {
				url = "#"
			}
			nv.Events = append(nv.Events, newEventView{
				Index:      i + 1,
				Name:       ev.Name,
				DateRange:  dateRange(ev.StartDate, ev.EndDate),
				Location:   location,
				URL:        url,
				Crowd:      crowd,
				Color:      colors[0],
				Background: colors[1],
			})
		}
		v.News = append(v.News, nv)
	}

	return v
}

// dateRange renders "Feb 07, 2026 to Feb 17, 2026", falling back to the raw
// strings when a date does not parse.
func dateRange(start, end string) string {
	s, errS := model.ParseDate(start)
	e, errE := model.ParseDate(end)
	if errS != nil || errE != nil {
		return start + " to " + end
	}
	return s.Format("Jan 02, 2006") + " to " + e.Format("Jan 02, 2006")
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
