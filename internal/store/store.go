// Package store persists accepted score submissions on the server side and
// answers leaderboard queries. Two backends exist: SQLite for the common
// single-host deployment and Postgres for shared ones.
package store

import (
	"context"

	"github.com/sells-group/chtrack/internal/model"
)

// LeaderboardFilter narrows a leaderboard query. Nil fields mean "any".
type LeaderboardFilter struct {
	Instrument *model.Instrument
	Difficulty *model.Difficulty
	Limit      int
}

// Store is the server persistence interface.
type Store interface {
	// Players
	RegisterPlayer(ctx context.Context, name, token string) (*model.Player, error)
	GetPlayerByToken(ctx context.Context, token string) (*model.Player, error)

	// Charts
	UpsertChart(ctx context.Context, meta model.SongMetadata) error

	// Scores. UpsertScore keeps the maximum score per
	// (player, chart, instrument, difficulty) slot and reports whether the
	// submission actually raised it.
	UpsertScore(ctx context.Context, sub model.Submission) (bool, error)
	Leaderboard(ctx context.Context, chartID model.ChartID, filter LeaderboardFilter) ([]model.LeaderboardEntry, error)
	Recent(ctx context.Context, limit int) ([]model.Submission, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
