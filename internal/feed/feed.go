// Package feed contains the venue event sources. Each adapter fetches one
// feed and normalizes it into EventRecords; adapters report failures as
// errors, and the orchestrator converts those into empty results so the
// core diff/window logic never sees a partial or malformed record.
package feed

import (
	"context"
	"net/http"
	"time"

	"chievents/internal/model"
)

// userAgent is sent on plain HTTP fetches; some venue endpoints reject
// requests without a browser-looking agent.
const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// Adapter is one venue event source.
type Adapter interface {
	// Key is the stable snapshot venue key, e.g. "mccormick_place".
	Key() string
	// Name is the display name used in reports.
	Name() string
	// Fetch returns all currently known upcoming events for the venue,
	// normalized (non-empty name, YYYY-MM-DD dates, end >= start).
	Fetch(ctx context.Context) ([]model.EventRecord, error)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
