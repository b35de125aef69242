package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/chtrack/internal/chbin"
	"github.com/sells-group/chtrack/internal/model"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Decode and print Clone Hero binary files",
}

var dumpScoresCmd = &cobra.Command{
	Use:   "scores <scoredata.bin>",
	Short: "Decode a score store and print every record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "dump: read %s", args[0])
		}
		records, err := chbin.DecodeScoreData(raw)
		if err != nil {
			return err
		}

		meta := loadMetadata(cfg.Tracker)
		writeScoreTable(cmd.OutOrStdout(), records, meta)
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d records\n", len(records))
		return nil
	},
}

var dumpCacheCmd = &cobra.Command{
	Use:   "cache <songcache.bin>",
	Short: "Decode a song cache and print resolved metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "dump: read %s", args[0])
		}
		result, err := chbin.DecodeSongCache(raw)
		if err != nil {
			return err
		}

		ids := make([]model.ChartID, 0, len(result.Songs))
		for id := range result.Songs {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool {
			return ids[i].String() < ids[j].String()
		})

		out := cmd.OutOrStdout()
		for _, id := range ids {
			m := result.Songs[id]
			artist := ""
			if m.Artist != nil {
				artist = *m.Artist
			}
			fmt.Fprintf(out, "%s  %-40s  %-25s  [%s]\n",
				id.String()[:12], m.DisplayTitle(), artist, m.Source)
		}
		fmt.Fprintf(out, "\n%d charts, %d malformed records skipped\n",
			len(result.Songs), result.Skipped)
		return nil
	},
}

func init() {
	dumpCmd.AddCommand(dumpScoresCmd)
	dumpCmd.AddCommand(dumpCacheCmd)
	rootCmd.AddCommand(dumpCmd)
}
