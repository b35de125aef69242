// Package track holds the cross-run score memory and the reconciliation
// engine that diffs a freshly decoded score store against it. Everything
// here is plain in-memory data with no I/O and no locking; the caller owns
// serializing reconcile runs and persisting the snapshot between them.
package track

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/chtrack/internal/model"
)

// ErrInvalidKey marks a malformed composite key in persisted snapshot data.
// Hitting it means the persistence layer handed over a state file it should
// have migrated or rejected; it is a programming error, not a data
// condition to recover from.
var ErrInvalidKey = eris.New("track: invalid score key")

// Snapshot maps each (chart, instrument, difficulty) slot to the highest
// score ever observed for it. It is the sole unit of cross-run memory:
// losing it re-announces history, corrupting it hides new scores.
type Snapshot struct {
	scores map[model.ScoreKey]int
}

// NewSnapshot returns an empty snapshot, as used on a first-ever run.
func NewSnapshot() *Snapshot {
	return &Snapshot{scores: make(map[model.ScoreKey]int)}
}

// Load builds a snapshot from a persisted key→score mapping in the current
// on-disk format ("hash:instrument:difficulty" keys). Older formats must be
// migrated by the persistence layer before calling Load.
func Load(persisted map[string]int) (*Snapshot, error) {
	snap := &Snapshot{scores: make(map[model.ScoreKey]int, len(persisted))}
	for raw, score := range persisted {
		key, err := model.ParseScoreKey(raw)
		if err != nil {
			return nil, eris.Wrapf(ErrInvalidKey, "%q: %v", raw, err)
		}
		if score < 0 {
			return nil, eris.Wrapf(ErrInvalidKey, "%q: negative score %d", raw, score)
		}
		snap.scores[key] = score
	}
	return snap, nil
}

// Lookup returns the last-known score for key, if any.
func (s *Snapshot) Lookup(key model.ScoreKey) (int, bool) {
	score, ok := s.scores[key]
	return score, ok
}

// Apply unconditionally records score for key. It performs no comparison of
// its own: whether an overwrite is warranted is decided entirely by the
// reconciliation engine, which only ever applies brand-new keys or scores
// greater than or equal to the stored value.
func (s *Snapshot) Apply(key model.ScoreKey, score int) {
	s.scores[key] = score
}

// Export returns the snapshot in its persisted string-keyed form.
func (s *Snapshot) Export() map[string]int {
	out := make(map[string]int, len(s.scores))
	for key, score := range s.scores {
		out[key.String()] = score
	}
	return out
}

// Len returns the number of tracked slots.
func (s *Snapshot) Len() int {
	return len(s.scores)
}
