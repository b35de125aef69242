package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/sells-group/chtrack/internal/model"
)

// readFileIfExists reads path, returning (nil, nil) when the file is absent.
func readFileIfExists(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	return raw, err
}

func writeScoreTable(w io.Writer, records []model.ScoreRecord, meta map[model.ChartID]model.SongMetadata) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHART\tTITLE\tINSTRUMENT\tDIFFICULTY\tSCORE\tSTARS\tPLAYS")
	for _, rec := range records {
		title := ""
		if m, ok := meta[rec.ChartID]; ok {
			title = m.DisplayTitle()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			rec.ChartID.String()[:12], title,
			rec.Instrument, rec.Difficulty,
			rec.Score, rec.Stars, rec.PlayCount,
		)
	}
	tw.Flush()
}

func writeEventTable(w io.Writer, events []model.ChangeEvent) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tCHART\tTITLE\tINSTRUMENT\tDIFFICULTY\tSCORE\tPREVIOUS")
	for _, ev := range events {
		title := ""
		if ev.Song != nil {
			title = ev.Song.DisplayTitle()
		}
		prev := "-"
		if ev.PreviousScore != nil {
			prev = fmt.Sprintf("%d", *ev.PreviousScore)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			ev.Kind, ev.Record.ChartID.String()[:12], title,
			ev.Record.Instrument, ev.Record.Difficulty,
			ev.Record.Score, prev,
		)
	}
	tw.Flush()
}
