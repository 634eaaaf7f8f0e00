// Package pipeline sequences one monitoring run: load snapshot, fetch
// feeds, detect new events, check flights, window upcoming events, render
// and send the report, persist the snapshot. Fully sequential; two
// overlapping runs against the same snapshot file are a deployment mistake
// this design does not defend against.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"chievents/internal/config"
	"chievents/internal/detect"
	"chievents/internal/feed"
	"chievents/internal/flights"
	"chievents/internal/mail"
	"chievents/internal/model"
	"chievents/internal/report"
	"chievents/internal/snapshot"
	"chievents/internal/window"
)

// ReportSender abstracts the mail transport so runs can be previewed and
// tested without an SMTP server.
type ReportSender interface {
	Send(ctx context.Context, subject, textBody, htmlBody string) error
}

// FlightSource abstracts the flight monitor.
type FlightSource interface {
	Fetch(ctx context.Context) (*flights.Summary, error)
}

// Pipeline wires the collaborators for one run.
type Pipeline struct {
	cfg      *config.Config
	log      *zap.Logger
	adapters []feed.Adapter
	flights  FlightSource
	sender   ReportSender
	store    *snapshot.Store
	filter   *window.Filter
	builder  *report.Builder
	now      func() time.Time
}

// New builds a Pipeline from configuration: one adapter per enabled feed,
// the flight monitor, the snapshot store and the SMTP sender.
func New(cfg *config.Config, log *zap.Logger) (*Pipeline, error) {
	builder, err := report.NewBuilder()
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(cfg.RequestTimeoutSec) * time.Second

	var adapters []feed.Adapter
	if cfg.Feeds.McCormick.Enabled {
		adapters = append(adapters, feed.NewMcCormick(cfg.Feeds.McCormick, timeout, log))
	}
	if cfg.Feeds.Ticketmaster.Enabled {
		adapters = append(adapters, feed.NewUnitedCenter(cfg.Feeds.Ticketmaster, timeout, log))
	}
	for _, ics := range cfg.Feeds.ICS {
		adapters = append(adapters, feed.NewICS(ics, cfg.LookaheadDays, timeout, log))
	}
	for _, b := range cfg.Feeds.Browser {
		adapters = append(adapters, feed.NewBrowser(b, log))
	}

	return &Pipeline{
		cfg:      cfg,
		log:      log,
		adapters: adapters,
		flights:  flights.NewMonitor(cfg.Flights, timeout, log),
		sender:   mail.NewSender(cfg.Email, log),
		store:    snapshot.NewStore(cfg.DataFile, log),
		filter:   window.NewFilter(cfg.HorizonDays, log),
		builder:  builder,
		now:      time.Now,
	}, nil
}

// Run executes one monitoring cycle.
func (p *Pipeline) Run(ctx context.Context) error {
	now := p.now()

	snap, err := p.store.Load()
	if err != nil {
		return fmt.Errorf("pipeline: load snapshot: %w", err)
	}

	// Fetch every feed and diff against what we knew. An adapter failure
	// degrades to "no data from this source this run": the fresh fetch,
	// empty or not, becomes the new truth for the venue.
	var news []report.VenueNews
	totalNew := 0
	for _, adapter := range p.adapters {
		fetched, err := adapter.Fetch(ctx)
		if err != nil {
			p.log.Error("feed fetch failed, treating as empty",
				zap.String("venue", adapter.Key()), zap.Error(err))
			fetched = nil
		}

		newEvents, err := detect.FindNew(fetched, snap[adapter.Key()])
		if err != nil {
			// Precondition violation: an adapter emitted a malformed record.
			return fmt.Errorf("pipeline: diff %s: %w", adapter.Key(), err)
		}
		if len(newEvents) > 0 {
			p.log.Info("new events found",
				zap.String("venue", adapter.Key()), zap.Int("count", len(newEvents)))
		} else {
			p.log.Info("no new events", zap.String("venue", adapter.Key()))
		}
		totalNew += len(newEvents)

		news = append(news, report.VenueNews{
			Key:    adapter.Key(),
			Name:   adapter.Name(),
			Events: newEvents,
		})

		if fetched == nil {
			fetched = []model.EventRecord{}
		}
		snap[adapter.Key()] = fetched
	}

	flightSummary, err := p.flights.Fetch(ctx)
	if err != nil {
		p.log.Error("flight check failed, continuing without it", zap.Error(err))
		flightSummary = nil
	}

	upcoming := p.filter.Upcoming(snap, now)
	p.log.Info("upcoming window computed",
		zap.Int("horizon_days", p.cfg.HorizonDays), zap.Int("events", len(upcoming)))

	if p.shouldSend(totalNew, flightSummary) {
		data := report.Data{
			Today:       now,
			GeneratedAt: now,
			News:        news,
			Upcoming:    upcoming,
			Flights:     flightSummary,
		}
		textBody, htmlBody, err := p.builder.Render(data)
		if err != nil {
			return fmt.Errorf("pipeline: render report: %w", err)
		}
		if err := p.sender.Send(ctx, p.builder.Subject(data), textBody, htmlBody); err != nil {
			p.log.Error("email send failed", zap.Error(err))
		}
	} else {
		p.log.Info("no email sent (no new events and flight demand below HIGH)")
	}

	if err := p.store.Save(snap); err != nil {
		return fmt.Errorf("pipeline: save snapshot: %w", err)
	}

	p.log.Info("run complete",
		zap.Int("new_events", totalNew),
		zap.Int("upcoming_events", len(upcoming)),
		zap.Bool("flights_checked", flightSummary != nil),
	)
	return nil
}

// shouldSend applies the notification policy: news, HIGH flight demand, or
// the always-send daily summary override.
func (p *Pipeline) shouldSend(totalNew int, summary *flights.Summary) bool {
	if p.cfg.Email.AlwaysSend {
		return true
	}
	if totalNew > 0 {
		return true
	}
	return summary != nil && summary.Demand == flights.DemandHigh
}

// BuildPreview renders the report from the current snapshot without
// fetching or sending; used by the preview and upcoming subcommands.
func (p *Pipeline) BuildPreview() (subject, textBody string, err error) {
	snap, err := p.store.Load()
	if err != nil {
		return "", "", err
	}
	now := p.now()

	data := report.Data{
		Today:       now,
		GeneratedAt: now,
		Upcoming:    p.filter.Upcoming(snap, now),
	}
	textBody, _, err = p.builder.Render(data)
	if err != nil {
		return "", "", err
	}
	return p.builder.Subject(data), textBody, nil
}

// Upcoming returns the windowed events from the current snapshot.
func (p *Pipeline) Upcoming() ([]window.Event, error) {
	snap, err := p.store.Load()
	if err != nil {
		return nil, err
	}
	return p.filter.Upcoming(snap, p.now()), nil
}
