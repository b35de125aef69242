package model

// TitleSource records how a song's title/artist were resolved during the
// song cache decode. The cache's own index tables are unreliable, so the
// provenance stays attached to the metadata for debugging.
type TitleSource string

const (
	TitleSourceFilepath TitleSource = "filepath" // derived from the chart's folder name
	TitleSourceIndex    TitleSource = "index"    // category-table lookup, secondary signal
	TitleSourceNone     TitleSource = "none"     // neither yielded anything usable
)

// SongMetadata is the per-chart descriptive data. All fields except ChartID
// are optional; a chart seen in the cache with nothing resolvable still gets
// an entry with nil Title so "unknown title" stays distinguishable from
// "chart never seen".
type SongMetadata struct {
	ChartID  ChartID     `json:"chart_id"`
	Title    *string     `json:"title,omitempty"`
	Artist   *string     `json:"artist,omitempty"`
	Charter  *string     `json:"charter,omitempty"`
	Album    *string     `json:"album,omitempty"`
	Genre    *string     `json:"genre,omitempty"`
	Year     *string     `json:"year,omitempty"`
	LengthMS *int        `json:"length_ms,omitempty"`
	Source   TitleSource `json:"source"`
}

// DisplayTitle returns the title or a hash-prefix placeholder.
func (m SongMetadata) DisplayTitle() string {
	if m.Title != nil && *m.Title != "" {
		return *m.Title
	}
	return "Unknown (" + m.ChartID.String()[:8] + ")"
}

// Merge returns a copy of m with any non-nil fields of override applied on
// top. Used for sidecar song.ini data and manual overrides, which always win
// over the cache decode.
func (m SongMetadata) Merge(override SongMetadata) SongMetadata {
	out := m
	if override.Title != nil {
		out.Title = override.Title
	}
	if override.Artist != nil {
		out.Artist = override.Artist
	}
	if override.Charter != nil {
		out.Charter = override.Charter
	}
	if override.Album != nil {
		out.Album = override.Album
	}
	if override.Genre != nil {
		out.Genre = override.Genre
	}
	if override.Year != nil {
		out.Year = override.Year
	}
	if override.LengthMS != nil {
		out.LengthMS = override.LengthMS
	}
	if override.Source != "" && override.Source != TitleSourceNone {
		out.Source = override.Source
	}
	return out
}
