package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/chtrack/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS players (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	token      TEXT NOT NULL UNIQUE,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
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
	score        INTEGER NOT NULL,
	stars        INTEGER NOT NULL DEFAULT 0,
	play_count   INTEGER NOT NULL DEFAULT 0,
	submitted_at DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (player_id, chart_id, instrument, difficulty)
);

CREATE INDEX IF NOT EXISTS idx_scores_chart ON scores(chart_id, score);
CREATE INDEX IF NOT EXISTS idx_scores_submitted ON scores(submitted_at);
CREATE INDEX IF NOT EXISTS idx_players_token ON players(token);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) RegisterPlayer(ctx context.Context, name, token string) (*model.Player, error) {
	existing, err := s.GetPlayerByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Name != name {
			if _, err := s.db.ExecContext(ctx,
				`UPDATE players SET name = ? WHERE id = ?`, name, existing.ID,
			); err != nil {
				return nil, eris.Wrap(err, "sqlite: update player name")
			}
			existing.Name = name
		}
		return existing, nil
	}

	player := &model.Player{
		ID:        uuid.New().String(),
		Name:      name,
		Token:     token,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO players (id, name, token, created_at) VALUES (?, ?, ?, ?)`,
		player.ID, player.Name, player.Token, player.CreatedAt,
	); err != nil {
		return nil, eris.Wrap(err, "sqlite: insert player")
	}
	return player, nil
}

func (s *SQLiteStore) GetPlayerByToken(ctx context.Context, token string) (*model.Player, error) {
	var p model.Player
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, token, created_at FROM players WHERE token = ?`, token,
	).Scan(&p.ID, &p.Name, &p.Token, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get player by token")
	}
	return &p, nil
}

func (s *SQLiteStore) UpsertChart(ctx context.Context, meta model.SongMetadata) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO charts (id, title, artist, charter, album, genre, year, length_ms, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title     = COALESCE(excluded.title, charts.title),
			artist    = COALESCE(excluded.artist, charts.artist),
			charter   = COALESCE(excluded.charter, charts.charter),
			album     = COALESCE(excluded.album, charts.album),
			genre     = COALESCE(excluded.genre, charts.genre),
			year      = COALESCE(excluded.year, charts.year),
			length_ms = COALESCE(excluded.length_ms, charts.length_ms),
			source    = excluded.source`,
		meta.ChartID.String(), meta.Title, meta.Artist, meta.Charter,
		meta.Album, meta.Genre, meta.Year, meta.LengthMS, string(meta.Source),
	)
	return eris.Wrap(err, "sqlite: upsert chart")
}

func (s *SQLiteStore) UpsertScore(ctx context.Context, sub model.Submission) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: begin upsert score")
	}
	defer func() { _ = tx.Rollback() }()

	var existing int
	err = tx.QueryRowContext(ctx,
		`SELECT score FROM scores WHERE player_id = ? AND chart_id = ? AND instrument = ? AND difficulty = ?`,
		sub.PlayerID, sub.ChartID.String(), int(sub.Instrument), int(sub.Difficulty),
	).Scan(&existing)

	switch {
	case err == sql.ErrNoRows:
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO scores (id, player_id, chart_id, instrument, difficulty, score, stars, play_count, submitted_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), sub.PlayerID, sub.ChartID.String(),
			int(sub.Instrument), int(sub.Difficulty),
			sub.Score, sub.Stars, sub.PlayCount, time.Now().UTC(),
		); err != nil {
			return false, eris.Wrap(err, "sqlite: insert score")
		}
	case err != nil:
		return false, eris.Wrap(err, "sqlite: select existing score")
	case sub.Score > existing:
		if _, err := tx.ExecContext(ctx,
			`UPDATE scores SET score = ?, stars = ?, play_count = ?, submitted_at = ?
			 WHERE player_id = ? AND chart_id = ? AND instrument = ? AND difficulty = ?`,
			sub.Score, sub.Stars, sub.PlayCount, time.Now().UTC(),
			sub.PlayerID, sub.ChartID.String(), int(sub.Instrument), int(sub.Difficulty),
		); err != nil {
			return false, eris.Wrap(err, "sqlite: update score")
		}
	default:
		// Tie or lower score: keep the stored best.
		return false, tx.Commit()
	}

	if err := tx.Commit(); err != nil {
		return false, eris.Wrap(err, "sqlite: commit upsert score")
	}
	return true, nil
}

func (s *SQLiteStore) Leaderboard(ctx context.Context, chartID model.ChartID, filter LeaderboardFilter) ([]model.LeaderboardEntry, error) {
	query := `SELECT p.name, s.instrument, s.difficulty, s.score, s.stars, s.submitted_at
		FROM scores s JOIN players p ON p.id = s.player_id
		WHERE s.chart_id = ?`
	args := []any{chartID.String()}

	if filter.Instrument != nil {
		query += ` AND s.instrument = ?`
		args = append(args, int(*filter.Instrument))
	}
	if filter.Difficulty != nil {
		query += ` AND s.difficulty = ?`
		args = append(args, int(*filter.Difficulty))
	}
	query += ` ORDER BY s.score DESC, s.submitted_at ASC`
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: leaderboard query")
	}
	defer rows.Close()

	var entries []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		var inst, diff int
		if err := rows.Scan(&e.PlayerName, &inst, &diff, &e.Score, &e.Stars, &e.SubmittedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan leaderboard row")
		}
		e.Instrument = model.Instrument(inst)
		e.Difficulty = model.Difficulty(diff)
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: leaderboard rows")
}

func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]model.Submission, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.player_id, p.name, s.chart_id, s.instrument, s.difficulty,
		       s.score, s.stars, s.play_count, s.submitted_at,
		       COALESCE(c.title, ''), COALESCE(c.artist, '')
		FROM scores s
		JOIN players p ON p.id = s.player_id
		LEFT JOIN charts c ON c.id = s.chart_id
		ORDER BY s.submitted_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: recent query")
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
			return nil, eris.Wrap(err, "sqlite: scan recent row")
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
	return subs, eris.Wrap(rows.Err(), "sqlite: recent rows")
}
