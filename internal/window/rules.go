package window

import (
	"strings"

	"chievents/internal/model"
)

// The pickup and crowd heuristics are ordered rule tables rather than
// control flow: first matching rule wins, the last entry of each table is
// the catch-all. Extending them is a data change, not a logic change.

// pickupRule maps a venue substring plus optional name/category keywords to
// a canned pickup-window label.
type pickupRule struct {
	venue    string   // lowercase substring of the display venue; "" matches any venue
	keywords []string // any-of lowercase substrings of name+category; empty matches any event
	label    string
}

var pickupRules = []pickupRule{
	{venue: "united center", keywords: []string{"bulls", "blackhawks"}, label: "9:30-10:30 PM (after game)"},
	{venue: "united center", keywords: []string{"concert", "music"}, label: "10-11:30 PM (after show)"},
	{venue: "united center", label: "Event end + 30 min"},
	{venue: "mccormick", label: "5-7 PM (daily close)"},
	{label: "Event end time"},
}

// EstimatePickup returns a deterministic pickup-window label for an event.
// It is a presentation heuristic, not a prediction.
func EstimatePickup(ev Event) string {
	venue := strings.ToLower(ev.Venue)
	haystack := strings.ToLower(ev.Name) + " " + strings.ToLower(ev.Category)

	for _, r := range pickupRules {
		if r.venue != "" && !strings.Contains(venue, r.venue) {
			continue
		}
		if len(r.keywords) > 0 && !containsAny(haystack, r.keywords) {
			continue
		}
		return r.label
	}
	return "Event end time"
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// CrowdTier orders venues by expected attendance, largest first.
type CrowdTier int

const (
	TierMassive CrowdTier = iota
	TierLarge
	TierMedium
	TierSmall
)

// CrowdInfo describes one tier for display.
type CrowdInfo struct {
	Tier        CrowdTier
	Label       string // MASSIVE, LARGE, MEDIUM, SMALL
	Emoji       string
	Description string
}

// crowdRule matches location substrings to a tier. Patterns are checked
// against the uppercased location; the "/" rule fires before the
// "SOUTH"/"NORTH" rule so multi-building listings classify as MASSIVE.
type crowdRule struct {
	patterns []string
	info     CrowdInfo
}

var crowdRules = []crowdRule{
	{patterns: []string{"/", "ALL HALLS"}, info: CrowdInfo{TierMassive, "MASSIVE", "🔥🔥🔥", "50K-100K+ attendees expected"}},
	{patterns: []string{"SOUTH", "NORTH"}, info: CrowdInfo{TierLarge, "LARGE", "🔥🔥", "20K-50K attendees expected"}},
	{patterns: []string{"WEST"}, info: CrowdInfo{TierMedium, "MEDIUM", "🔥", "10K-20K attendees expected"}},
	{patterns: []string{"LAKESIDE", "ARIE CROWN"}, info: CrowdInfo{TierSmall, "SMALL", "📍", "5K-10K attendees expected"}},
}

var crowdDefault = CrowdInfo{TierMedium, "MEDIUM", "📍", "Moderate attendance expected"}

// ClassifyCrowd maps a location string to exactly one crowd tier. Total and
// deterministic: every input gets the first matching rule or the default.
func ClassifyCrowd(location string) CrowdInfo {
	upper := strings.ToUpper(location)
	for _, r := range crowdRules {
		for _, p := range r.patterns {
			if strings.Contains(upper, p) {
				return r.info
			}
		}
	}
	return crowdDefault
}

// CrowdOf is a convenience for records that have not been venue-annotated.
func CrowdOf(ev model.EventRecord) CrowdInfo {
	return ClassifyCrowd(ev.Location)
}
