package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/chtrack/internal/chbin"
	"github.com/sells-group/chtrack/internal/state"
	"github.com/sells-group/chtrack/internal/track"
)

var (
	scanScoreData string
	scanJSON      bool
	scanAll       bool
	scanDryRun    bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "One-shot reconcile of the score store against tracked history",
	RunE: func(cmd *cobra.Command, args []string) error {
		scorePath := scanScoreData
		if scorePath == "" {
			scorePath = cfg.Tracker.ScoreDataPath
		}
		if scorePath == "" {
			return eris.New("scan: no score store path configured (set tracker.scoredata_path or --scoredata)")
		}

		raw, err := os.ReadFile(scorePath)
		if err != nil {
			return eris.Wrapf(err, "scan: read %s", scorePath)
		}
		records, err := chbin.DecodeScoreData(raw)
		if err != nil {
			return err
		}

		loaded, err := state.Load(cfg.Tracker.StatePath)
		if err != nil {
			return err
		}
		snap, err := track.Load(loaded.File.ScoreValues)
		if err != nil {
			return err
		}

		engine := track.NewEngine()
		engine.SetMetadata(loadMetadata(cfg.Tracker))
		events := engine.Reconcile(records, snap)

		if !scanDryRun {
			if err := state.Save(cfg.Tracker.StatePath, snap.Export()); err != nil {
				return err
			}
		}

		shown := events
		if !scanAll {
			shown = shown[:0:0]
			for _, ev := range events {
				if ev.Announceable() {
					shown = append(shown, ev)
				}
			}
		}

		if scanJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return eris.Wrap(enc.Encode(shown), "scan: encode events")
		}

		writeEventTable(cmd.OutOrStdout(), shown)
		zap.L().Info("scan: complete",
			zap.Int("records", len(records)),
			zap.Int("shown", len(shown)),
			zap.Bool("dry_run", scanDryRun),
		)
		return nil
	},
}

func init() {
	scanCmd.Flags().StringVar(&scanScoreData, "scoredata", "", "score store path (default from config)")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "emit events as JSON")
	scanCmd.Flags().BoolVar(&scanAll, "all", false, "include unchanged entries")
	scanCmd.Flags().BoolVar(&scanDryRun, "dry-run", false, "do not update the state file")
	rootCmd.AddCommand(scanCmd)
}
