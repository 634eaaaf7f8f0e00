// Package detect implements novelty detection: given a freshly fetched
// event list and the previously stored one, it returns the events that were
// not known before.
package detect

import (
	"fmt"

	"chievents/internal/model"
)

// FindNew returns the records in fresh whose (name, start date) identity
// does not appear in known.
//
//   - Output preserves the relative order of fresh; no re-sorting.
//   - Duplicate identities in known collapse harmlessly (set semantics).
//   - Duplicate identities in fresh that are absent from known are all
//     emitted; the detector does not deduplicate fresh against itself.
//   - A record with an empty name or start date, in either input, is a
//     precondition violation and fails fast: it signals an adapter bug, not
//     a condition to coerce around.
func FindNew(fresh, known []model.EventRecord) ([]model.EventRecord, error) {
	seen := make(map[model.Identity]struct{}, len(known))
	for i, ev := range known {
		if err := checkRecord(ev); err != nil {
			return nil, fmt.Errorf("known[%d]: %w", i, err)
		}
		seen[ev.Identity()] = struct{}{}
	}

	newEvents := make([]model.EventRecord, 0)
	for i, ev := range fresh {
		if err := checkRecord(ev); err != nil {
			return nil, fmt.Errorf("fresh[%d]: %w", i, err)
		}
		if _, ok := seen[ev.Identity()]; !ok {
			newEvents = append(newEvents, ev)
		}
	}

	return newEvents, nil
}

func checkRecord(ev model.EventRecord) error {
	if ev.Name == "" {
		return fmt.Errorf("event record has empty name (start_date=%q)", ev.StartDate)
	}
	if ev.StartDate == "" {
		return fmt.Errorf("event record %q has empty start date", ev.Name)
	}
	return nil
}
