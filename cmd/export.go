package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/chtrack/internal/export"
	"github.com/sells-group/chtrack/internal/model"
	"github.com/sells-group/chtrack/internal/store"
)

var (
	exportOut   string
	exportChart string
	exportLimit int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export scores from the server store to an xlsx workbook",
	Long: `Exports recent submissions, or one chart's leaderboard when --chart is
given, to a spreadsheet.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		s, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer s.Close()

		if exportChart != "" {
			chartID, err := model.ParseChartID(exportChart)
			if err != nil {
				return err
			}
			entries, err := s.Leaderboard(ctx, chartID, store.LeaderboardFilter{Limit: exportLimit})
			if err != nil {
				return err
			}
			if err := export.WriteLeaderboard(exportOut, exportChart, entries); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d leaderboard rows to %s\n", len(entries), exportOut)
			return nil
		}

		subs, err := s.Recent(ctx, exportLimit)
		if err != nil {
			return err
		}
		if len(subs) == 0 {
			return eris.New("export: no submissions to export")
		}
		if err := export.WriteScores(exportOut, subs); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d submissions to %s\n", len(subs), exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "scores.xlsx", "output file path")
	exportCmd.Flags().StringVar(&exportChart, "chart", "", "export one chart's leaderboard (hex chart id)")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 500, "maximum rows to export")
	rootCmd.AddCommand(exportCmd)
}
