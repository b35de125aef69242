package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/chtrack/internal/model"
)

func TestWriteScores(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.xlsx")
	subs := []model.Submission{
		{
			PlayerName:  "alice",
			Title:       "Through the Fire and Flames",
			Artist:      "DragonForce",
			Instrument:  model.InstrumentLeadGuitar,
			Difficulty:  model.DifficultyExpert,
			Score:       123456,
			Stars:       5,
			PlayCount:   12,
			SubmittedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	}

	require.NoError(t, WriteScores(path, subs))

	file, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)

	sheet := file.Sheets[0]
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "Player", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "alice", sheet.Rows[1].Cells[0].String())
	assert.Equal(t, "Lead Guitar", sheet.Rows[1].Cells[3].String())
	assert.Equal(t, "Expert", sheet.Rows[1].Cells[4].String())

	score, err := sheet.Rows[1].Cells[5].Int()
	require.NoError(t, err)
	assert.Equal(t, 123456, score)
}

func TestWriteLeaderboard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.xlsx")
	entries := []model.LeaderboardEntry{
		{Rank: 1, PlayerName: "bob", Instrument: model.InstrumentDrums, Difficulty: model.DifficultyHard, Score: 900, Stars: 4},
		{Rank: 2, PlayerName: "alice", Instrument: model.InstrumentDrums, Difficulty: model.DifficultyHard, Score: 800, Stars: 4},
	}

	require.NoError(t, WriteLeaderboard(path, "Some Chart", entries))

	file, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	sheet := file.Sheets[0]
	require.Len(t, sheet.Rows, 4) // title + header + 2 entries
	assert.Equal(t, "Some Chart", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "bob", sheet.Rows[2].Cells[1].String())
}

func TestWriteScoresEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, WriteScores(path, nil))

	file, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, file.Sheets[0].Rows, 1) // header only
}
