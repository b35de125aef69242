package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/chtrack/internal/db"
	"github.com/sells-group/chtrack/internal/model"
)

// PostgresStore implements Store using a pgx connection pool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS players (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	token      TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS charts (
	id        TEXT PRIMARY KEY,
	title     TEXT,
	artist    TEXT,
	charter   TEXT,
	album     TEXT,
	genre     TEXT,
	year      TEXT,
	length_ms INTEGER,
	source    TEXT NOT NULL DEFAULT 'none'
);

CREATE TABLE IF NOT EXISTS scores (
	id           TEXT PRIMARY KEY,
	player_id    TEXT NOT NULL REFERENCES players(id),
	chart_id     TEXT NOT NULL,
	instrument   INTEGER NOT NULL,
	difficulty   INTEGER NOT NULL,
	score        BIGINT NOT NULL,
	stars        INTEGER NOT NULL DEFAULT 0,
	play_count   INTEGER NOT NULL DEFAULT 0,
	submitted_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (player_id, chart_id, instrument, difficulty)
);

CREATE INDEX IF NOT EXISTS idx_scores_chart ON scores(chart_id, score);
CREATE INDEX IF NOT EXISTS idx_scores_submitted ON scores(submitted_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) RegisterPlayer(ctx context.Context, name, token string) (*model.Player, error) {
	player := &model.Player{
		ID:        uuid.New().String(),
		Name:      name,
		Token:     token,
		CreatedAt: time.Now().UTC(),
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO players (id, name, token, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (token) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, created_at`,
		player.ID, name, token, player.CreatedAt,
	).Scan(&player.ID, &player.CreatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: register player")
	}
	return player, nil
}

func (s *PostgresStore) GetPlayerByToken(ctx context.Context, token string) (*model.Player, error) {
	var p model.Player
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, token, created_at FROM players WHERE token = $1`, token,
	).Scan(&p.ID, &p.Name, &p.Token, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get player by token")
	}
	return &p, nil
}

func (s *PostgresStore) UpsertChart(ctx context.Context, meta model.SongMetadata) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO charts (id, title, artist, charter, album, genre, year, length_ms, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			title     = COALESCE(EXCLUDED.title, charts.title),
			artist    = COALESCE(EXCLUDED.artist, charts.artist),
			charter   = COALESCE(EXCLUDED.charter, charts.charter),
			album     = COALESCE(EXCLUDED.album, charts.album),
			genre     = COALESCE(EXCLUDED.genre, charts.genre),
			year      = COALESCE(EXCLUDED.year, charts.year),
			length_ms = COALESCE(EXCLUDED.length_ms, charts.length_ms),
			source    = EXCLUDED.source`,
		meta.ChartID.String(), meta.Title, meta.Artist, meta.Charter,
		meta.Album, meta.Genre, meta.Year, meta.LengthMS, string(meta.Source),
	)
	return eris.Wrap(err, "postgres: upsert chart")
}

func (s *PostgresStore) UpsertScore(ctx context.Context, sub model.Submission) (bool, error) {
	// One round trip: insert, and on conflict only overwrite when the new
	// score is strictly higher. xmax = 0 distinguishes a fresh insert from
	// an update; a no-op conflict returns no row at all.
	var inserted bool
	err := s.pool.QueryRow(ctx, `
		INSERT INTO scores (id, player_id, chart_id, instrument, difficulty, score, stars, play_count, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (player_id, chart_id, instrument, difficulty) DO UPDATE SET
			score = EXCLUDED.score, stars = EXCLUDED.stars,
			play_count = EXCLUDED.play_count, submitted_at = EXCLUDED.submitted_at
		WHERE EXCLUDED.score > scores.score
		RETURNING (xmax = 0)`,
		uuid.New().String(), sub.PlayerID, sub.ChartID.String(),
		int(sub.Instrument), int(sub.Difficulty),
		sub.Score, sub.Stars, sub.PlayCount, time.Now().UTC(),
	).Scan(&inserted)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil // tie or lower score, stored best kept
	}
	if err != nil {
		return false, eris.Wrap(err, "postgres: upsert score")
	}
	return true, nil
}

func (s *PostgresStore) Leaderboard(ctx context.Context, chartID model.ChartID, filter LeaderboardFilter) ([]model.LeaderboardEntry, error) {
	query := `SELECT p.name, s.instrument, s.difficulty, s.score, s.stars, s.submitted_at
		FROM scores s JOIN players p ON p.id = s.player_id
		WHERE s.chart_id = $1`
	args := []any{chartID.String()}

	if filter.Instrument != nil {
		args = append(args, int(*filter.Instrument))
		query += ` AND s.instrument = $` + strconv.Itoa(len(args))
	}
	if filter.Difficulty != nil {
		args = append(args, int(*filter.Difficulty))
		query += ` AND s.difficulty = $` + strconv.Itoa(len(args))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	query += ` ORDER BY s.score DESC, s.submitted_at ASC LIMIT $` + strconv.Itoa(len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: leaderboard query")
	}
	defer rows.Close()

	var entries []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		var inst, diff int
		if err := rows.Scan(&e.PlayerName, &inst, &diff, &e.Score, &e.Stars, &e.SubmittedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan leaderboard row")
		}
		e.Instrument = model.Instrument(inst)
		e.Difficulty = model.Difficulty(diff)
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "postgres: leaderboard rows")
}

func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]model.Submission, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT s.id, s.player_id, p.name, s.chart_id, s.instrument, s.difficulty,
		       s.score, s.stars, s.play_count, s.submitted_at,
		       COALESCE(c.title, ''), COALESCE(c.artist, '')
		FROM scores s
		JOIN players p ON p.id = s.player_id
		LEFT JOIN charts c ON c.id = s.chart_id
		ORDER BY s.submitted_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: recent query")
	}
	defer rows.Close()

	var subs []model.Submission
	for rows.Next() {
		var sub model.Submission
		var chartHex string
		var inst, diff int
		if err := rows.Scan(&sub.ID, &sub.PlayerID, &sub.PlayerName, &chartHex, &inst, &diff,
			&sub.Score, &sub.Stars, &sub.PlayCount, &sub.SubmittedAt, &sub.Title, &sub.Artist,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan recent row")
		}
		chartID, err := model.ParseChartID(chartHex)
		if err != nil {
			return nil, err
		}
		sub.ChartID = chartID
		sub.Instrument = model.Instrument(inst)
		sub.Difficulty = model.Difficulty(diff)
		subs = append(subs, sub)
	}
	return subs, eris.Wrap(rows.Err(), "postgres: recent rows")
}
