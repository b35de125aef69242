package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/chtrack/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "chtrack",
	Short: "Clone Hero score tracker and leaderboard server",
	Long:  "Watches Clone Hero's score store for new records, reconciles them against tracked history, submits record-breaks to a shared leaderboard server, and serves that leaderboard.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
