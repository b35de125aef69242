package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/chtrack/internal/chbin"
	"github.com/sells-group/chtrack/internal/model"
	"github.com/sells-group/chtrack/internal/songmeta"
	"github.com/sells-group/chtrack/internal/state"
	"github.com/sells-group/chtrack/internal/submit"
	"github.com/sells-group/chtrack/internal/track"
	"github.com/sells-group/chtrack/internal/watch"
)

var (
	watchScoreData string
	watchOffline   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Track the score store and submit record-breaks",
	Long: `Runs the tracker: loads persisted score history, does a catch-up scan
over the current score store (covering plays made while the tracker was not
running), then watches the file for writes. New and improved scores are
submitted to the configured server unless --offline is set.

The very first run (or a run migrating an old state file) only seeds local
history; pre-existing scores are not announced.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		scorePath := watchScoreData
		if scorePath == "" {
			scorePath = cfg.Tracker.ScoreDataPath
		}
		if scorePath == "" {
			return eris.New("watch: no score store path configured (set tracker.scoredata_path or --scoredata)")
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

		var client *submit.Client
		if !watchOffline && cfg.Submit.BaseURL != "" {
			client = submit.NewClient(submit.Config{
				BaseURL:    cfg.Submit.BaseURL,
				Token:      cfg.Submit.Token,
				PlayerName: cfg.Submit.PlayerName,
				RatePerSec: cfg.Submit.RatePerSec,
				Burst:      cfg.Submit.Burst,
				MaxRetries: cfg.Submit.MaxRetries,
				Timeout:    time.Duration(cfg.Submit.TimeoutSecs) * time.Second,
			})
		}

		var nowPlaying songmeta.NowPlayingCache

		// The first pass after a fresh or migrated state file only seeds
		// history: announcing a player's entire back catalog is noise.
		seeding := loaded.FirstRun || loaded.Migrated

		reconcile := func(ctx context.Context, data []byte) error {
			records, err := chbin.DecodeScoreData(data)
			if err != nil {
				return err
			}
			events := engine.Reconcile(records, snap)
			if err := state.Save(cfg.Tracker.StatePath, snap.Export()); err != nil {
				return err
			}

			if seeding {
				seeding = false
				zap.L().Info("watch: seeded score history",
					zap.Int("slots", snap.Len()),
					zap.Bool("migrated", loaded.Migrated),
				)
				return nil
			}

			announce := announceable(events, &nowPlaying)
			if len(announce) == 0 {
				return nil
			}
			for _, ev := range announce {
				logEvent(ev)
			}
			if client != nil {
				if err := client.SubmitEvents(ctx, announce); err != nil {
					// History is already saved; a failed submission only
					// loses this announcement, never local tracking.
					zap.L().Error("watch: submit failed", zap.Error(err))
				}
			}
			return nil
		}

		watcher := watch.New(watch.Config{
			Path:     scorePath,
			Debounce: time.Duration(cfg.Tracker.DebounceMS) * time.Millisecond,
			Settle:   time.Duration(cfg.Tracker.SettleMS) * time.Millisecond,
		}, reconcile)

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error { return watcher.Run(ctx) })
		if cfg.Tracker.CurrentSongPath != "" {
			g.Go(func() error {
				pollCurrentSong(ctx, cfg.Tracker.CurrentSongPath, &nowPlaying)
				return nil
			})
		}
		return g.Wait()
	},
}

// announceable filters events worth submitting and fills in missing song
// metadata from the now-playing cache. The game clears currentsong.txt
// before writing the score store, so the cached value is the only link
// between a fresh score and the song that produced it when the song cache
// has no title.
func announceable(events []model.ChangeEvent, nowPlaying *songmeta.NowPlayingCache) []model.ChangeEvent {
	var out []model.ChangeEvent
	for _, ev := range events {
		if !ev.Announceable() {
			continue
		}
		if ev.Song == nil || ev.Song.Title == nil {
			if np, ok := nowPlaying.Last(10 * time.Minute); ok {
				song := model.SongMetadata{ChartID: ev.Record.ChartID, Source: model.TitleSourceNone}
				if ev.Song != nil {
					song = *ev.Song
				}
				if song.Title == nil && np.Title != "" {
					song.Title = &np.Title
				}
				if song.Artist == nil && np.Artist != "" {
					song.Artist = &np.Artist
				}
				ev.Song = &song
			}
		}
		out = append(out, ev)
	}
	return out
}

func pollCurrentSong(ctx context.Context, path string, cache *songmeta.NowPlayingCache) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			raw, err := readFileIfExists(path)
			if err != nil {
				zap.L().Debug("watch: read currentsong", zap.Error(err))
				continue
			}
			if raw != nil {
				cache.Observe(songmeta.ParseCurrentSong(raw))
			}
		}
	}
}

func logEvent(ev model.ChangeEvent) {
	fields := []zap.Field{
		zap.String("kind", string(ev.Kind)),
		zap.String("chart", ev.Record.ChartID.String()),
		zap.String("instrument", ev.Record.Instrument.String()),
		zap.String("difficulty", ev.Record.Difficulty.String()),
		zap.Int("score", ev.Record.Score),
		zap.Int("stars", ev.Record.Stars),
	}
	if ev.PreviousScore != nil {
		fields = append(fields, zap.Int("previous_score", *ev.PreviousScore))
	}
	if ev.Song != nil && ev.Song.Title != nil {
		fields = append(fields, zap.String("title", *ev.Song.Title))
	}
	zap.L().Info("watch: record-break", fields...)
}

func init() {
	watchCmd.Flags().StringVar(&watchScoreData, "scoredata", "", "score store path (default from config)")
	watchCmd.Flags().BoolVar(&watchOffline, "offline", false, "track locally without submitting to the server")
	rootCmd.AddCommand(watchCmd)
}
