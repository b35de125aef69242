package chbin

import (
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/chtrack/internal/model"
)

// songcache.bin layout:
//
//	20B  header
//	7 category tables (title, artist, album, genre, year, charter, playlist):
//	  u8   marker
//	  u32  string count
//	  count length-prefixed strings
//	u32  song count
//	per song:
//	  u32  record length
//	  record bytes:
//	    str  filepath
//	    16B  per-file id
//	    str  filename
//	    u8   delimiter
//	    7×u32 category-table indices (same order as the tables)
//	    u32  song length in ms
//	    4B   reserved
//	    16B  chart id (authoritative, matches the score store)
const (
	songCacheHeaderLen = 20
	songCategoryCount  = 7
)

// SongCacheResult is the decode output. Every song record that parsed gets
// an entry keyed by its authoritative chart id, including ones where no
// title could be resolved. Skipped counts the individual records dropped as
// malformed; the caller decides whether that number warrants alerting.
type SongCacheResult struct {
	Songs map[model.ChartID]model.SongMetadata
	// Paths maps each chart to the filepath string its record carried, for
	// callers that want to find sidecar files next to the chart.
	Paths   map[model.ChartID]string
	Skipped int
}

// DecodeSongCache decodes a complete songcache.bin buffer.
//
// The cache's per-song category-table indices are unreliable: the game is
// known to write indices pointing at unrelated strings. Title and artist are
// therefore derived from the song's filepath (charts conventionally live in
// an "Artist - Title" folder) and the index tables are consulted only when
// the filepath yields nothing. The chosen signal is recorded in each entry's
// Source field.
//
// A malformed individual song record is skipped and counted rather than
// failing the decode; truncation of the outer structure is fatal.
func DecodeSongCache(buf []byte) (*SongCacheResult, error) {
	cur := NewCursor(buf)

	if err := cur.Skip(songCacheHeaderLen); err != nil {
		return nil, eris.Wrap(err, "chbin: songcache header")
	}

	tables := make([][]string, songCategoryCount)
	for t := 0; t < songCategoryCount; t++ {
		table, err := decodeCategoryTable(cur)
		if err != nil {
			return nil, eris.Wrapf(err, "chbin: songcache category table %d", t)
		}
		tables[t] = table
	}

	songCount, err := cur.ReadU32()
	if err != nil {
		return nil, eris.Wrap(err, "chbin: songcache song count")
	}

	result := &SongCacheResult{
		Songs: make(map[model.ChartID]model.SongMetadata, songCount),
		Paths: make(map[model.ChartID]string, songCount),
	}
	for i := 0; i < songCount; i++ {
		recLen, err := cur.ReadU32()
		if err != nil {
			return nil, eris.Wrapf(err, "chbin: songcache record %d length", i)
		}
		raw, err := cur.ReadBytes(recLen)
		if err != nil {
			return nil, eris.Wrapf(err, "chbin: songcache record %d", i)
		}

		meta, path, ok := decodeSongRecord(raw, tables)
		if !ok {
			result.Skipped++
			continue
		}
		result.Songs[meta.ChartID] = meta
		if path != "" {
			result.Paths[meta.ChartID] = path
		}
	}

	if result.Skipped > 0 {
		zap.L().Debug("chbin: skipped malformed songcache records",
			zap.Int("skipped", result.Skipped),
			zap.Int("decoded", len(result.Songs)),
		)
	}

	return result, nil
}

func decodeCategoryTable(cur *Cursor) ([]string, error) {
	if _, err := cur.ReadU8(); err != nil { // marker, value not trusted
		return nil, err
	}
	count, err := cur.ReadU32()
	if err != nil {
		return nil, err
	}
	if count > cur.Remaining() {
		return nil, eris.Wrapf(ErrTruncated, "table count %d exceeds buffer", count)
	}
	table := make([]string, 0, count)
	for i := 0; i < count; i++ {
		s, err := cur.ReadString()
		if err != nil {
			return nil, err
		}
		table = append(table, s)
	}
	return table, nil
}

// Category-table positions, in file order.
const (
	catTitle = iota
	catArtist
	catAlbum
	catGenre
	catYear
	catCharter
	catPlaylist
)

func decodeSongRecord(raw []byte, tables [][]string) (model.SongMetadata, string, bool) {
	var meta model.SongMetadata
	cur := NewCursor(raw)

	path, err := cur.ReadString()
	if err != nil {
		return meta, "", false
	}
	if err := cur.Skip(model.ChartIDLen); err != nil { // per-file id, unused
		return meta, "", false
	}
	if _, err := cur.ReadString(); err != nil { // filename
		return meta, "", false
	}
	if _, err := cur.ReadU8(); err != nil { // delimiter
		return meta, "", false
	}

	indices := make([]int, songCategoryCount)
	for t := 0; t < songCategoryCount; t++ {
		idx, err := cur.ReadU32()
		if err != nil {
			return meta, "", false
		}
		indices[t] = idx
	}

	lengthMS, err := cur.ReadU32()
	if err != nil {
		return meta, "", false
	}
	if err := cur.Skip(4); err != nil { // reserved
		return meta, "", false
	}
	hash, err := cur.ReadBytes(model.ChartIDLen)
	if err != nil {
		return meta, "", false
	}
	copy(meta.ChartID[:], hash)

	if lengthMS > 0 {
		meta.LengthMS = intPtr(lengthMS)
	}

	// Primary signal: the structured filepath. The index tables are only
	// consulted when the path gives us nothing.
	title, artist := titleArtistFromPath(path)
	switch {
	case title != "":
		meta.Title = strPtr(title)
		if artist != "" {
			meta.Artist = strPtr(artist)
		}
		meta.Source = model.TitleSourceFilepath
	default:
		if s := tableLookup(tables, catTitle, indices[catTitle]); s != "" {
			meta.Title = strPtr(s)
			meta.Source = model.TitleSourceIndex
		} else {
			meta.Source = model.TitleSourceNone
		}
		if s := tableLookup(tables, catArtist, indices[catArtist]); s != "" {
			meta.Artist = strPtr(s)
		}
	}

	// No filepath equivalent exists for the remaining categories, so the
	// index tables are the only available signal there.
	if s := tableLookup(tables, catAlbum, indices[catAlbum]); s != "" {
		meta.Album = strPtr(s)
	}
	if s := tableLookup(tables, catGenre, indices[catGenre]); s != "" {
		meta.Genre = strPtr(s)
	}
	if s := tableLookup(tables, catYear, indices[catYear]); s != "" {
		meta.Year = strPtr(s)
	}
	if s := tableLookup(tables, catCharter, indices[catCharter]); s != "" {
		meta.Charter = strPtr(s)
	}

	return meta, path, true
}

func tableLookup(tables [][]string, cat, idx int) string {
	if idx < 0 || idx >= len(tables[cat]) {
		return ""
	}
	return strings.TrimSpace(tables[cat][idx])
}

var chartFileSuffixes = []string{".chart", ".mid", ".sng", ".ini"}

// titleArtistFromPath derives title and artist from a chart filepath. The
// community convention is ".../Artist - Title/notes.chart"; the trailing
// chart file is stripped and the containing folder split on the first
// " - ". An artist shorter than two runes or made entirely of digits is
// assumed to be a track-number prefix and rejected, in which case the whole
// folder name becomes the title.
func titleArtistFromPath(path string) (title, artist string) {
	norm := strings.ReplaceAll(path, `\`, "/")
	segs := strings.Split(norm, "/")

	var parts []string
	for _, s := range segs {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "", ""
	}

	last := parts[len(parts)-1]
	if hasChartSuffix(last) {
		parts = parts[:len(parts)-1]
		if len(parts) == 0 {
			// Bare filename: fall back to the stem itself.
			return titleCaseIfLower(stripChartSuffix(last)), ""
		}
	}

	folder := parts[len(parts)-1]
	if before, after, found := strings.Cut(folder, " - "); found {
		a := strings.TrimSpace(before)
		t := strings.TrimSpace(after)
		if plausibleArtist(a) && t != "" {
			return titleCaseIfLower(t), titleCaseIfLower(a)
		}
	}
	return titleCaseIfLower(folder), ""
}

func hasChartSuffix(name string) bool {
	lower := strings.ToLower(name)
	for _, suf := range chartFileSuffixes {
		if strings.HasSuffix(lower, suf) {
			return true
		}
	}
	return false
}

func stripChartSuffix(name string) string {
	lower := strings.ToLower(name)
	for _, suf := range chartFileSuffixes {
		if strings.HasSuffix(lower, suf) {
			return name[:len(name)-len(suf)]
		}
	}
	return name
}

func plausibleArtist(s string) bool {
	if len([]rune(s)) < 2 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return true
		}
	}
	return false
}

var titleCaser = cases.Title(language.Und)

// titleCaseIfLower title-cases all-lowercase folder names (a common habit in
// chart packs) but leaves mixed-case names exactly as written, since those
// already carry intentional casing.
func titleCaseIfLower(s string) string {
	if s != strings.ToLower(s) {
		return s
	}
	return titleCaser.String(s)
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
