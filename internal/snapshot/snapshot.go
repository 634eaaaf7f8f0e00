// Package snapshot persists the full set of known events per venue as a
// single JSON file. The file is the novelty-detection baseline for the next
// run and the input to window filtering; it is read once at the start of a
// run and overwritten wholesale at the end.
package snapshot

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"chievents/internal/model"
)

// Snapshot maps a stable venue key (e.g. "mccormick_place") to the ordered
// sequence of events known for that venue. No uniqueness is enforced at
// write time; only the diff logic treats identity as unique.
type Snapshot map[string][]model.EventRecord

// Store reads and writes the snapshot file.
type Store struct {
	path string
	log  *zap.Logger
}

// NewStore creates a Store for the given file path.
func NewStore(path string, log *zap.Logger) *Store {
	return &Store{path: path, log: log}
}

// Load reads the snapshot from disk.
//
//   - Missing file is the first-run state: an empty snapshot, no error.
//   - An unreadable or unparseable file degrades to an empty snapshot with a
//     log entry, so one corrupt write never wedges the monitor.
//   - Unknown JSON fields on records are ignored (permissive read).
func (s *Store) Load() (Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Info("snapshot file not found, starting empty (first run)", zap.String("path", s.path))
			return Snapshot{}, nil
		}
		return nil, err
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.log.Error("snapshot file unparseable, starting empty", zap.String("path", s.path), zap.Error(err))
		return Snapshot{}, nil
	}
	if snap == nil {
		snap = Snapshot{}
	}

	s.log.Info("snapshot loaded", zap.String("path", s.path), zap.Int("venues", len(snap)))
	return snap, nil
}

// Save overwrites the snapshot file with the given state. The write goes to
// a temp file in the same directory and is renamed into place, so readers
// never observe a partial file. Pretty-printed for human inspection.
func (s *Store) Save(snap Snapshot) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".chievents-snapshot-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return err
	}

	s.log.Info("snapshot saved", zap.String("path", s.path), zap.Int("venues", len(snap)))
	return nil
}
