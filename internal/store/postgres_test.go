package store

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_GetPlayerByToken_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, name, token, created_at FROM players WHERE token = \$1`).
		WithArgs("unknown-token").
		WillReturnError(pgx.ErrNoRows)

	player, err := s.GetPlayerByToken(context.Background(), "unknown-token")
	require.NoError(t, err)
	assert.Nil(t, player)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertScore_NoRowMeansNotRaised(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	// A tie or lower score hits the conditional DO UPDATE's WHERE clause
	// and returns no row.
	mock.ExpectQuery(`INSERT INTO scores`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	sub := testSubmission("player-1", 0x01, 100)
	raised, err := s.UpsertScore(context.Background(), sub)
	require.NoError(t, err)
	assert.False(t, raised)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertScore_InsertRaises(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`INSERT INTO scores`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"?column?"}).AddRow(true))

	sub := testSubmission("player-1", 0x01, 100)
	raised, err := s.UpsertScore(context.Background(), sub)
	require.NoError(t, err)
	assert.True(t, raised)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS players`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Leaderboard_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT p.name, s.instrument, s.difficulty`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"name", "instrument", "difficulty", "score", "stars", "submitted_at"}))

	entries, err := s.Leaderboard(context.Background(), testChartID(0x01), LeaderboardFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}
