package model

// ChangeKind classifies one reconciled score record.
type ChangeKind string

const (
	// ChangeNewChart is a key the snapshot has never seen.
	ChangeNewChart ChangeKind = "new_chart"
	// ChangeImproved is a strictly higher score for a known key.
	ChangeImproved ChangeKind = "improved"
	// ChangeUnchanged covers ties and apparent regressions. A lower score in
	// the store is not an error and never surfaces as its own kind.
	ChangeUnchanged ChangeKind = "unchanged"
)

// ChangeEvent is the output of one reconciliation pass for one record.
// PreviousScore is nil exactly when Kind is ChangeNewChart.
type ChangeEvent struct {
	Record        ScoreRecord   `json:"record"`
	Kind          ChangeKind    `json:"kind"`
	PreviousScore *int          `json:"previous_score,omitempty"`
	Song          *SongMetadata `json:"song,omitempty"`
}

// Announceable reports whether the event represents new information worth
// surfacing downstream.
func (e ChangeEvent) Announceable() bool {
	return e.Kind != ChangeUnchanged
}
