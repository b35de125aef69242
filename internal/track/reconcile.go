package track

import (
	"go.uber.org/zap"

	"github.com/sells-group/chtrack/internal/model"
)

// Engine classifies freshly decoded score records against a snapshot. It is
// purely computational: no I/O, no new error conditions, total over every
// valid input. An optional metadata map enriches emitted events with song
// titles; reconciliation itself never depends on it.
type Engine struct {
	meta map[model.ChartID]model.SongMetadata
}

// NewEngine returns an engine with no metadata attached.
func NewEngine() *Engine {
	return &Engine{}
}

// SetMetadata attaches song metadata used to enrich change events. Passing
// nil detaches. The engine never mutates the map.
func (e *Engine) SetMetadata(meta map[model.ChartID]model.SongMetadata) {
	e.meta = meta
}

// Reconcile diffs records against snap and returns one event per record, in
// input order. Classification:
//
//	key unseen            → new_chart
//	score > previous      → improved
//	score == previous     → unchanged (exact tie, never improved)
//	score < previous      → unchanged (a rebuilt or overwritten store is
//	                        "no new information", never an error)
//
// The snapshot is updated immediately after classifying each key, before
// the next record is examined, so a multi-key batch can never leave the
// snapshot mixing scores from two different store versions. Keys absent
// from records are left untouched; the engine only acts on presence.
//
// Calling Reconcile twice with the same records yields only unchanged
// events the second time, which makes spurious file-touch notifications
// harmless.
func (e *Engine) Reconcile(records []model.ScoreRecord, snap *Snapshot) []model.ChangeEvent {
	events := make([]model.ChangeEvent, 0, len(records))

	var newCharts, improved int
	for _, rec := range records {
		key := rec.Key()
		ev := model.ChangeEvent{Record: rec}

		previous, seen := snap.Lookup(key)
		switch {
		case !seen:
			ev.Kind = model.ChangeNewChart
			newCharts++
		case rec.Score > previous:
			prev := previous
			ev.Kind = model.ChangeImproved
			ev.PreviousScore = &prev
			improved++
		default:
			prev := previous
			ev.Kind = model.ChangeUnchanged
			ev.PreviousScore = &prev
		}

		if ev.Kind != model.ChangeUnchanged {
			snap.Apply(key, rec.Score)
		}

		if e.meta != nil {
			if m, ok := e.meta[rec.ChartID]; ok {
				song := m
				ev.Song = &song
			}
		}

		events = append(events, ev)
	}

	if newCharts > 0 || improved > 0 {
		zap.L().Debug("track: reconciled score store",
			zap.Int("records", len(records)),
			zap.Int("new_charts", newCharts),
			zap.Int("improved", improved),
		)
	}

	return events
}
