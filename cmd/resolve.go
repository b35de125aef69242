package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/chtrack/internal/chbin"
)

var resolveCache string

var resolveCmd = &cobra.Command{
	Use:   "resolve <hash-prefix>",
	Short: "Resolve a chart hash (or prefix) to song metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prefix := strings.ToLower(args[0])
		if prefix == "" {
			return eris.New("resolve: empty hash prefix")
		}

		cachePath := resolveCache
		if cachePath == "" {
			cachePath = cfg.Tracker.SongCachePath
		}
		if cachePath == "" {
			return eris.New("resolve: no song cache path configured (set tracker.songcache_path or --cache)")
		}

		raw, err := os.ReadFile(cachePath)
		if err != nil {
			return eris.Wrapf(err, "resolve: read %s", cachePath)
		}
		result, err := chbin.DecodeSongCache(raw)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		matches := 0
		for id, m := range result.Songs {
			if !strings.HasPrefix(id.String(), prefix) {
				continue
			}
			matches++
			fmt.Fprintf(out, "chart:   %s\n", id)
			fmt.Fprintf(out, "title:   %s\n", m.DisplayTitle())
			if m.Artist != nil {
				fmt.Fprintf(out, "artist:  %s\n", *m.Artist)
			}
			if m.Charter != nil {
				fmt.Fprintf(out, "charter: %s\n", *m.Charter)
			}
			if m.LengthMS != nil {
				fmt.Fprintf(out, "length:  %dms\n", *m.LengthMS)
			}
			fmt.Fprintf(out, "source:  %s\n\n", m.Source)
		}

		if matches == 0 {
			return eris.Errorf("resolve: no chart matches prefix %q", prefix)
		}
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveCache, "cache", "", "song cache path (default from config)")
	rootCmd.AddCommand(resolveCmd)
}
