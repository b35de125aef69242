// Package export writes score data to spreadsheet files for sharing
// outside the bot.
package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/chtrack/internal/model"
)

var scoreHeader = []string{
	"Player", "Title", "Artist", "Instrument", "Difficulty",
	"Score", "Stars", "Play Count", "Submitted",
}

// WriteScores writes submissions to an xlsx workbook at path, one row per
// submission in the given order.
func WriteScores(path string, subs []model.Submission) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Scores")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range scoreHeader {
		header.AddCell().SetString(h)
	}

	for _, sub := range subs {
		row := sheet.AddRow()
		row.AddCell().SetString(sub.PlayerName)
		row.AddCell().SetString(sub.Title)
		row.AddCell().SetString(sub.Artist)
		row.AddCell().SetString(sub.Instrument.String())
		row.AddCell().SetString(sub.Difficulty.String())
		row.AddCell().SetInt(sub.Score)
		row.AddCell().SetInt(sub.Stars)
		row.AddCell().SetInt(sub.PlayCount)
		row.AddCell().SetString(sub.SubmittedAt.UTC().Format("2006-01-02 15:04:05"))
	}

	if err := file.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

// WriteLeaderboard writes one chart's leaderboard to an xlsx workbook.
func WriteLeaderboard(path, chartName string, entries []model.LeaderboardEntry) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Leaderboard")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	title := sheet.AddRow()
	title.AddCell().SetString(chartName)

	header := sheet.AddRow()
	for _, h := range []string{"Rank", "Player", "Instrument", "Difficulty", "Score", "Stars"} {
		header.AddCell().SetString(h)
	}

	for _, e := range entries {
		row := sheet.AddRow()
		row.AddCell().SetInt(e.Rank)
		row.AddCell().SetString(e.PlayerName)
		row.AddCell().SetString(e.Instrument.String())
		row.AddCell().SetString(e.Difficulty.String())
		row.AddCell().SetInt(e.Score)
		row.AddCell().SetInt(e.Stars)
	}

	if err := file.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}
