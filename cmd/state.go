package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/chtrack/internal/chbin"
	"github.com/sells-group/chtrack/internal/state"
	"github.com/sells-group/chtrack/internal/track"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect or migrate the tracker's persisted score history",
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Summarize the state file",
	RunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := state.Load(cfg.Tracker.StatePath)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		switch {
		case loaded.FirstRun:
			fmt.Fprintf(out, "no state file at %s (first run)\n", cfg.Tracker.StatePath)
			return nil
		case loaded.Migrated:
			fmt.Fprintf(out, "%s is in the legacy set-of-keys format; run 'chtrack state migrate'\n", cfg.Tracker.StatePath)
			return nil
		}

		fmt.Fprintf(out, "state file:   %s\n", cfg.Tracker.StatePath)
		fmt.Fprintf(out, "tracked:      %d slots\n", len(loaded.File.ScoreValues))
		if loaded.File.LastUpdated > 0 {
			fmt.Fprintf(out, "last updated: %s\n", time.Unix(loaded.File.LastUpdated, 0).Format(time.RFC3339))
		}
		return nil
	},
}

var stateMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Re-seed the state file from the current score store",
	Long: `Rebuilds the state file in the current key-to-score format by decoding
the score store and recording every present score. Used after upgrading from
the legacy set-of-keys format, which carried no score values.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		scorePath := cfg.Tracker.ScoreDataPath
		if scorePath == "" {
			return eris.New("state: no score store path configured (set tracker.scoredata_path)")
		}

		raw, err := os.ReadFile(scorePath)
		if err != nil {
			return eris.Wrapf(err, "state: read %s", scorePath)
		}
		records, err := chbin.DecodeScoreData(raw)
		if err != nil {
			return err
		}

		snap := track.NewSnapshot()
		track.NewEngine().Reconcile(records, snap)

		if err := state.Save(cfg.Tracker.StatePath, snap.Export()); err != nil {
			return err
		}

		zap.L().Info("state: migrated",
			zap.String("path", cfg.Tracker.StatePath),
			zap.Int("slots", snap.Len()),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d slots from %s\n", snap.Len(), scorePath)
		return nil
	},
}

func init() {
	stateCmd.AddCommand(stateShowCmd)
	stateCmd.AddCommand(stateMigrateCmd)
	rootCmd.AddCommand(stateCmd)
}
