package main

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/sells-group/chtrack/internal/chbin"
	"github.com/sells-group/chtrack/internal/config"
	"github.com/sells-group/chtrack/internal/model"
	"github.com/sells-group/chtrack/internal/songmeta"
)

// loadMetadata builds the chart metadata map used to enrich change events:
// the song cache decode, with song.ini sidecars merged on top where the
// cached filepath points at a readable chart folder. Missing cache or
// sidecars are fine; enrichment is best-effort and never blocks tracking.
func loadMetadata(cfg config.TrackerConfig) map[model.ChartID]model.SongMetadata {
	if cfg.SongCachePath == "" {
		return nil
	}

	raw, err := os.ReadFile(cfg.SongCachePath)
	if err != nil {
		if !os.IsNotExist(err) {
			zap.L().Warn("meta: read song cache", zap.Error(err))
		}
		return nil
	}

	result, err := chbin.DecodeSongCache(raw)
	if err != nil {
		zap.L().Warn("meta: decode song cache", zap.Error(err))
		return nil
	}
	if result.Skipped > 0 {
		zap.L().Warn("meta: song cache had malformed records",
			zap.Int("skipped", result.Skipped),
		)
	}

	meta := make(map[model.ChartID]model.SongMetadata, len(result.Songs))
	var enriched int
	for id, m := range result.Songs {
		if path, ok := result.Paths[id]; ok {
			if ini := readSongINI(path); ini != nil {
				m = m.Merge(*ini)
				enriched++
			}
		}
		meta[id] = m
	}

	zap.L().Info("meta: loaded song metadata",
		zap.Int("charts", len(meta)),
		zap.Int("ini_enriched", enriched),
	)
	return meta
}

// readSongINI looks for a song.ini in the folder the cached filepath points
// at and parses it. Returns nil when there is nothing usable.
func readSongINI(chartPath string) *model.SongMetadata {
	dir := chartPath
	if filepath.Ext(chartPath) != "" {
		dir = filepath.Dir(chartPath)
	}
	raw, err := os.ReadFile(filepath.Join(dir, "song.ini"))
	if err != nil {
		return nil
	}
	meta, err := songmeta.ParseSongINI(raw)
	if err != nil {
		zap.L().Debug("meta: bad song.ini", zap.String("dir", dir), zap.Error(err))
		return nil
	}
	return &meta
}
