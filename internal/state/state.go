// Package state persists the tracker's score snapshot between runs as a
// small JSON file. It owns atomic writes and migration of the legacy
// on-disk format; the in-memory snapshot itself lives in internal/track.
package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// File is the current on-disk representation: every tracked slot mapped to
// its best known score, plus the time of the last write.
type File struct {
	ScoreValues map[string]int `json:"score_values"`
	LastUpdated int64          `json:"last_updated"`
}

// legacyFile is the original format: a bare set of known keys with no score
// values. It cannot distinguish a tie from an improvement, which is why the
// format changed.
type legacyFile struct {
	KnownScores []string `json:"known_scores"`
}

// LoadResult reports what Load found on disk.
type LoadResult struct {
	File *File
	// FirstRun is true when no state file existed. The caller should seed
	// the snapshot from the current store without announcing anything.
	FirstRun bool
	// Migrated is true when a legacy set-of-keys file was found. Score
	// values are unknown in that format, so the caller must re-seed from
	// the current store the same way it does on a first run.
	Migrated bool
}

// Load reads the state file at path, detecting and handling the legacy
// format. A missing file is not an error.
func Load(path string) (*LoadResult, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &LoadResult{File: &File{ScoreValues: map[string]int{}}, FirstRun: true}, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "state: read %s", path)
	}

	var current File
	if err := json.Unmarshal(raw, &current); err == nil && current.ScoreValues != nil {
		return &LoadResult{File: &current}, nil
	}

	var legacy legacyFile
	if err := json.Unmarshal(raw, &legacy); err == nil && legacy.KnownScores != nil {
		zap.L().Info("state: migrating legacy set-of-keys state file",
			zap.String("path", path),
			zap.Int("keys", len(legacy.KnownScores)),
		)
		return &LoadResult{File: &File{ScoreValues: map[string]int{}}, Migrated: true}, nil
	}

	return nil, eris.Errorf("state: %s is neither current nor legacy format", path)
}

// Save writes scores to path atomically: the file is written to a temp
// sibling and renamed into place so a crash mid-write can never leave a
// half-written state file behind.
func Save(path string, scores map[string]int) error {
	f := File{ScoreValues: scores, LastUpdated: time.Now().Unix()}

	raw, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return eris.Wrap(err, "state: marshal")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "state: mkdir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return eris.Wrap(err, "state: create temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return eris.Wrap(err, "state: write temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return eris.Wrap(err, "state: close temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return eris.Wrapf(err, "state: rename into %s", path)
	}

	return nil
}
