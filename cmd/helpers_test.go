package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/chtrack/internal/model"
)

func TestReadFileIfExists(t *testing.T) {
	dir := t.TempDir()

	raw, err := readFileIfExists(filepath.Join(dir, "missing.bin"))
	require.NoError(t, err)
	assert.Nil(t, raw)

	path := filepath.Join(dir, "present.bin")
	require.NoError(t, os.WriteFile(path, []byte{0x01, 0x02}, 0o644))
	raw, err = readFileIfExists(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, raw)
}

func TestWriteScoreTable(t *testing.T) {
	var id model.ChartID
	id[0] = 0xab

	title := "Through the Fire and Flames"
	meta := map[model.ChartID]model.SongMetadata{
		id: {ChartID: id, Title: &title},
	}
	records := []model.ScoreRecord{{
		ChartID:    id,
		Instrument: model.InstrumentLeadGuitar,
		Difficulty: model.DifficultyExpert,
		Score:      123456,
		Stars:      5,
		PlayCount:  3,
	}}

	var buf bytes.Buffer
	writeScoreTable(&buf, records, meta)

	out := buf.String()
	assert.Contains(t, out, "Through the Fire and Flames")
	assert.Contains(t, out, "Lead Guitar")
	assert.Contains(t, out, "Expert")
	assert.Contains(t, out, "123456")
}

func TestWriteEventTable(t *testing.T) {
	prev := 100
	events := []model.ChangeEvent{{
		Record: model.ScoreRecord{
			Instrument: model.InstrumentDrums,
			Difficulty: model.DifficultyHard,
			Score:      150,
		},
		Kind:          model.ChangeImproved,
		PreviousScore: &prev,
	}}

	var buf bytes.Buffer
	writeEventTable(&buf, events)

	out := buf.String()
	assert.Contains(t, out, "improved")
	assert.Contains(t, out, "150")
	assert.Contains(t, out, "100")
}
