package songmeta

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSongINI(t *testing.T) {
	ini := `
[song]
name = Through the Fire and Flames
artist = DragonForce
album = Inhuman Rampage
genre = Power Metal
year = 2006
charter = Harmonix
song_length = 441000
delay = 0
`
	meta, err := ParseSongINI([]byte(ini))
	require.NoError(t, err)
	require.NotNil(t, meta.Title)
	assert.Equal(t, "Through the Fire and Flames", *meta.Title)
	require.NotNil(t, meta.Artist)
	assert.Equal(t, "DragonForce", *meta.Artist)
	require.NotNil(t, meta.Album)
	assert.Equal(t, "Inhuman Rampage", *meta.Album)
	require.NotNil(t, meta.Charter)
	assert.Equal(t, "Harmonix", *meta.Charter)
	require.NotNil(t, meta.LengthMS)
	assert.Equal(t, 441000, *meta.LengthMS)
}

func TestParseSongINIFretsAliasAndCaseInsensitivity(t *testing.T) {
	ini := "[Song]\nName=Freebird\nFrets=SomeCharter\n"
	meta, err := ParseSongINI([]byte(ini))
	require.NoError(t, err)
	require.NotNil(t, meta.Title)
	assert.Equal(t, "Freebird", *meta.Title)
	require.NotNil(t, meta.Charter)
	assert.Equal(t, "SomeCharter", *meta.Charter)
}

func TestParseSongINIIgnoresOtherSections(t *testing.T) {
	ini := "[video]\nname = not a title\n[song]\nname = Real Title\n"
	meta, err := ParseSongINI([]byte(ini))
	require.NoError(t, err)
	require.NotNil(t, meta.Title)
	assert.Equal(t, "Real Title", *meta.Title)
}

func TestParseSongINIMissingSection(t *testing.T) {
	_, err := ParseSongINI([]byte("name = Orphan Key\n"))
	require.Error(t, err)
}

func TestParseSongINIBadSongLengthIgnored(t *testing.T) {
	meta, err := ParseSongINI([]byte("[song]\nname = X\nsong_length = soon\n"))
	require.NoError(t, err)
	assert.Nil(t, meta.LengthMS)
}

func TestParseCurrentSong(t *testing.T) {
	np := ParseCurrentSong([]byte("Through the Fire and Flames\r\nDragonForce\r\nHarmonix\r\n"))
	assert.Equal(t, "Through the Fire and Flames", np.Title)
	assert.Equal(t, "DragonForce", np.Artist)
	assert.Equal(t, "Harmonix", np.Charter)
	assert.False(t, np.Empty())
}

func TestParseCurrentSongPartial(t *testing.T) {
	np := ParseCurrentSong([]byte("Only Title"))
	assert.Equal(t, "Only Title", np.Title)
	assert.Empty(t, np.Artist)
	assert.False(t, np.Empty())
}

func TestParseCurrentSongEmpty(t *testing.T) {
	assert.True(t, ParseCurrentSong(nil).Empty())
	assert.True(t, ParseCurrentSong([]byte("\n\n")).Empty())
}

func TestNowPlayingCacheIgnoresEmptyObservations(t *testing.T) {
	var cache NowPlayingCache

	_, ok := cache.Last(0)
	assert.False(t, ok)

	cache.Observe(NowPlaying{Title: "Song A", SeenAt: time.Now()})
	// The game clearing the file must not wipe the cached song.
	cache.Observe(NowPlaying{SeenAt: time.Now()})

	last, ok := cache.Last(0)
	require.True(t, ok)
	assert.Equal(t, "Song A", last.Title)
}

func TestNowPlayingCacheMaxAge(t *testing.T) {
	var cache NowPlayingCache
	cache.Observe(NowPlaying{Title: "Old Song", SeenAt: time.Now().Add(-time.Hour)})

	_, ok := cache.Last(10 * time.Minute)
	assert.False(t, ok)

	last, ok := cache.Last(0)
	require.True(t, ok)
	assert.Equal(t, "Old Song", last.Title)
}
