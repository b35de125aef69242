// Package songmeta supplies metadata enrichment on top of the song cache
// decode: song.ini sidecar files shipped inside chart folders, and the
// currentsong.txt file the game writes while a song is playing. Both are
// richer than the cache's unreliable index tables, so their values win when
// merged.
package songmeta

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/chtrack/internal/model"
)

// ParseSongINI parses the contents of a chart folder's song.ini. Only the
// [song] section is read; keys are case-insensitive and unknown keys are
// ignored. Charter packs disagree on key names, so both "charter" and the
// older "frets" are accepted for the charter field.
func ParseSongINI(contents []byte) (model.SongMetadata, error) {
	var meta model.SongMetadata

	inSong := false
	sawSection := false
	scanner := bufio.NewScanner(strings.NewReader(string(contents)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section := strings.ToLower(strings.Trim(line, "[]"))
			inSong = section == "song"
			if inSong {
				sawSection = true
			}
			continue
		}
		if !inSong {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}

		switch key {
		case "name":
			meta.Title = &value
		case "artist":
			meta.Artist = &value
		case "album":
			meta.Album = &value
		case "genre":
			meta.Genre = &value
		case "year":
			meta.Year = &value
		case "charter", "frets":
			meta.Charter = &value
		case "song_length":
			if ms, err := strconv.Atoi(value); err == nil && ms > 0 {
				meta.LengthMS = &ms
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return meta, eris.Wrap(err, "songmeta: scan song.ini")
	}
	if !sawSection {
		return meta, eris.New("songmeta: song.ini has no [song] section")
	}

	return meta, nil
}
