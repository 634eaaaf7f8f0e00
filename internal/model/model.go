package model

import "time"

// DateLayout is the calendar-date format used everywhere in this system:
// in feed normalization, in the snapshot file, and in identity keys.
const DateLayout = "2006-01-02"

// EventRecord is the normalized representation of one scheduled occurrence
// at a venue, independent of which feed produced it. The JSON tags match the
// snapshot file format, so snapshots written by earlier versions load as-is.
type EventRecord struct {
	Name      string `json:"event_name"`
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`   // YYYY-MM-DD, >= StartDate
	Location  string `json:"location,omitempty"`
	DetailURL string `json:"url,omitempty"`
	Category  string `json:"event_type,omitempty"` // e.g. Sports, Music; empty for sources without classification
}

// Identity is the deduplication key for event records. Two records with the
// same name and start date denote the same occurrence; location, end date
// and category deliberately do not participate.
type Identity struct {
	Name      string
	StartDate string
}

// Identity returns the record's deduplication key.
func (e EventRecord) Identity() Identity {
	return Identity{Name: e.Name, StartDate: e.StartDate}
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate renders t as a YYYY-MM-DD calendar date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
