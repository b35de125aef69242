package songmeta

import (
	"strings"
	"sync"
	"time"
)

// NowPlaying is one observation of the game's currentsong.txt: three lines,
// title / artist / charter.
type NowPlaying struct {
	Title   string
	Artist  string
	Charter string
	SeenAt  time.Time
}

// Empty reports whether the observation carried no data, which is what the
// file looks like between songs.
func (n NowPlaying) Empty() bool {
	return n.Title == "" && n.Artist == "" && n.Charter == ""
}

// ParseCurrentSong parses currentsong.txt contents. The file holds up to
// three lines; missing trailing lines are fine.
func ParseCurrentSong(contents []byte) NowPlaying {
	lines := strings.Split(strings.ReplaceAll(string(contents), "\r\n", "\n"), "\n")
	var np NowPlaying
	if len(lines) > 0 {
		np.Title = strings.TrimSpace(lines[0])
	}
	if len(lines) > 1 {
		np.Artist = strings.TrimSpace(lines[1])
	}
	if len(lines) > 2 {
		np.Charter = strings.TrimSpace(lines[2])
	}
	np.SeenAt = time.Now()
	return np
}

// NowPlayingCache remembers the most recent non-empty currentsong.txt
// observation. The game clears the file when a song ends, before it writes
// the score store, so at reconcile time the current file is already empty
// and only the cached value identifies what was just played.
type NowPlayingCache struct {
	mu   sync.Mutex
	last NowPlaying
	ok   bool
}

// Observe records an observation. Empty observations are ignored so the
// end-of-song clear does not wipe the cache.
func (c *NowPlayingCache) Observe(np NowPlaying) {
	if np.Empty() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = np
	c.ok = true
}

// Last returns the most recent non-empty observation, if any, provided it
// is not older than maxAge (zero maxAge means no age limit).
func (c *NowPlayingCache) Last(maxAge time.Duration) (NowPlaying, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ok {
		return NowPlaying{}, false
	}
	if maxAge > 0 && time.Since(c.last.SeenAt) > maxAge {
		return NowPlaying{}, false
	}
	return c.last, true
}
