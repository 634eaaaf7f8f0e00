package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"chievents/internal/config"
	"chievents/internal/model"
)

// browserTimeout bounds the whole navigate/wait/evaluate sequence; page
// loads are much slower than a plain API call.
const browserTimeout = 30 * time.Second

// Browser reads a venue calendar that only exists client-side: it drives a
// headless Chromium instance to the page, waits for the calendar to render,
// and evaluates a configured JS expression that yields the events as an
// array of {name, start, end, location, url} objects.
type Browser struct {
	key          string
	name         string
	url          string
	waitSelector string
	expr         string
	log          *zap.Logger
	now          func() time.Time
}

// browserEvent is the shape the configured expression must produce.
type browserEvent struct {
	Name     string `json:"name"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Location string `json:"location"`
	URL      string `json:"url"`
}

// NewBrowser constructs a headless-browser adapter.
func NewBrowser(cfg config.BrowserFeedConfig, log *zap.Logger) *Browser {
	wait := cfg.WaitSelector
	if wait == "" {
		wait = "body"
	}
	return &Browser{
		key:          cfg.Key,
		name:         cfg.Name,
		url:          cfg.URL,
		waitSelector: wait,
		expr:         cfg.Expr,
		log:          log,
		now:          time.Now,
	}
}

func (b *Browser) Key() string  { return b.key }
func (b *Browser) Name() string { return b.name }

// Fetch navigates to the page, waits for the calendar to signal readiness
// via the configured selector, and extracts the events.
func (b *Browser) Fetch(ctx context.Context) ([]model.EventRecord, error) {
	if b.url == "" || b.expr == "" {
		return nil, errors.New("browser feed: url and expr are required")
	}

	ctx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, browserTimeout)
	defer timeoutCancel()

	var raw []browserEvent
	tasks := chromedp.Tasks{
		chromedp.Navigate(b.url),
		chromedp.WaitVisible(b.waitSelector, chromedp.ByQuery),
		// Small extra delay to allow final paints before extraction.
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.Evaluate(b.expr, &raw),
	}

	if err := chromedp.Run(ctx, tasks); err != nil {
		return nil, fmt.Errorf("browser feed %s: chromedp run failed: %w", b.key, err)
	}

	today := dateOnly(b.now())
	events := make([]model.EventRecord, 0, len(raw))
	for _, ev := range raw {
		startDate := trimDateTime(ev.Start)
		start, err := model.ParseDate(startDate)
		if err != nil {
			b.log.Warn("browser feed: skipping event with invalid start date",
				zap.String("venue", b.key), zap.String("event", ev.Name), zap.String("start", ev.Start))
			continue
		}
		endDate := trimDateTime(ev.End)
		end, err := model.ParseDate(endDate)
		if err != nil {
			endDate = startDate
			end = start
		}
		if end.Before(today) {
			continue
		}

		name := ev.Name
		if name == "" {
			name = "Untitled Event"
		}

		events = append(events, model.EventRecord{
			Name:      name,
			StartDate: startDate,
			EndDate:   endDate,
			Location:  ev.Location,
			DetailURL: ev.URL,
		})
	}

	b.log.Info("browser feed fetch succeeded", zap.String("venue", b.key), zap.Int("events", len(events)))
	return events, nil
}
