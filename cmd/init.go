package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/chtrack/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config.yaml in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		const path = "config.yaml"
		if _, err := os.Stat(path); err == nil && !initForce {
			return eris.Errorf("init: %s already exists (use --force to overwrite)", path)
		}

		defaults := config.Config{
			Tracker: config.TrackerConfig{
				StatePath:  "state.json",
				DebounceMS: 2000,
				SettleMS:   500,
			},
			Submit: config.SubmitConfig{
				RatePerSec:  2,
				Burst:       4,
				MaxRetries:  3,
				TimeoutSecs: 10,
			},
			Server: config.ServerConfig{
				Port:           8080,
				AllowedOrigins: []string{"*"},
			},
			Store: config.StoreConfig{
				Driver:      "sqlite",
				DatabaseURL: "chtrack.db",
			},
			Log: config.LogConfig{
				Level:  "info",
				Format: "json",
			},
		}

		raw, err := yaml.Marshal(defaults)
		if err != nil {
			return eris.Wrap(err, "init: marshal defaults")
		}
		if err := os.WriteFile(path, raw, 0o644); err != nil {
			return eris.Wrapf(err, "init: write %s", path)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config.yaml")
	rootCmd.AddCommand(initCmd)
}
