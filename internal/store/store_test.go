package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/chtrack/internal/model"
)

func newTestSQLite(t *testing.T) Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testChartID(fill byte) model.ChartID {
	var id model.ChartID
	for i := range id {
		id[i] = fill
	}
	return id
}

func testSubmission(playerID string, fill byte, score int) model.Submission {
	return model.Submission{
		PlayerID:   playerID,
		ChartID:    testChartID(fill),
		Instrument: model.InstrumentLeadGuitar,
		Difficulty: model.DifficultyExpert,
		Score:      score,
		Stars:      4,
		PlayCount:  3,
	}
}

func TestSQLiteStore(t *testing.T) {
	storeTestSuite(t, newTestSQLite)
}

func storeTestSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("RegisterAndGetPlayer", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		player, err := s.RegisterPlayer(ctx, "goofenthol", "tok-abc")
		require.NoError(t, err)
		assert.NotEmpty(t, player.ID)

		got, err := s.GetPlayerByToken(ctx, "tok-abc")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, player.ID, got.ID)
		assert.Equal(t, "goofenthol", got.Name)
	})

	t.Run("RegisterPlayerSameTokenKeepsIdentity", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		first, err := s.RegisterPlayer(ctx, "old name", "tok-same")
		require.NoError(t, err)
		second, err := s.RegisterPlayer(ctx, "new name", "tok-same")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "new name", second.Name)
	})

	t.Run("GetPlayerUnknownToken", func(t *testing.T) {
		s := newStore(t)
		got, err := s.GetPlayerByToken(context.Background(), "nope")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("UpsertScoreKeepsMax", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		player, err := s.RegisterPlayer(ctx, "p", "tok-1")
		require.NoError(t, err)

		raised, err := s.UpsertScore(ctx, testSubmission(player.ID, 0x01, 100))
		require.NoError(t, err)
		assert.True(t, raised)

		// Lower score does not overwrite.
		raised, err = s.UpsertScore(ctx, testSubmission(player.ID, 0x01, 80))
		require.NoError(t, err)
		assert.False(t, raised)

		// Tie does not count as a raise.
		raised, err = s.UpsertScore(ctx, testSubmission(player.ID, 0x01, 100))
		require.NoError(t, err)
		assert.False(t, raised)

		raised, err = s.UpsertScore(ctx, testSubmission(player.ID, 0x01, 150))
		require.NoError(t, err)
		assert.True(t, raised)

		board, err := s.Leaderboard(ctx, testChartID(0x01), LeaderboardFilter{})
		require.NoError(t, err)
		require.Len(t, board, 1)
		assert.Equal(t, 150, board[0].Score)
	})

	t.Run("LeaderboardOrderingAndFilter", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		alice, err := s.RegisterPlayer(ctx, "alice", "tok-a")
		require.NoError(t, err)
		bob, err := s.RegisterPlayer(ctx, "bob", "tok-b")
		require.NoError(t, err)

		_, err = s.UpsertScore(ctx, testSubmission(alice.ID, 0x02, 200))
		require.NoError(t, err)
		_, err = s.UpsertScore(ctx, testSubmission(bob.ID, 0x02, 300))
		require.NoError(t, err)

		drums := testSubmission(alice.ID, 0x02, 999)
		drums.Instrument = model.InstrumentDrums
		_, err = s.UpsertScore(ctx, drums)
		require.NoError(t, err)

		board, err := s.Leaderboard(ctx, testChartID(0x02), LeaderboardFilter{})
		require.NoError(t, err)
		require.Len(t, board, 3)
		assert.Equal(t, "alice", board[0].PlayerName)
		assert.Equal(t, 999, board[0].Score)
		assert.Equal(t, 1, board[0].Rank)
		assert.Equal(t, "bob", board[1].PlayerName)
		assert.Equal(t, 3, board[2].Rank)

		guitar := model.InstrumentLeadGuitar
		board, err = s.Leaderboard(ctx, testChartID(0x02), LeaderboardFilter{Instrument: &guitar})
		require.NoError(t, err)
		require.Len(t, board, 2)
		assert.Equal(t, "bob", board[0].PlayerName)
	})

	t.Run("UpsertChartMergesMetadata", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		title := "Through the Fire and Flames"
		artist := "DragonForce"
		meta := model.SongMetadata{
			ChartID: testChartID(0x03),
			Title:   &title,
			Artist:  &artist,
			Source:  model.TitleSourceFilepath,
		}
		require.NoError(t, s.UpsertChart(ctx, meta))

		// A later decode with a charter but no title must not blank the title.
		charter := "Harmonix"
		require.NoError(t, s.UpsertChart(ctx, model.SongMetadata{
			ChartID: testChartID(0x03),
			Charter: &charter,
			Source:  model.TitleSourceIndex,
		}))

		player, err := s.RegisterPlayer(ctx, "p", "tok-c")
		require.NoError(t, err)
		_, err = s.UpsertScore(ctx, testSubmission(player.ID, 0x03, 100))
		require.NoError(t, err)

		recent, err := s.Recent(ctx, 10)
		require.NoError(t, err)
		require.Len(t, recent, 1)
		assert.Equal(t, title, recent[0].Title)
		assert.Equal(t, artist, recent[0].Artist)
	})

	t.Run("RecentLimit", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		player, err := s.RegisterPlayer(ctx, "p", "tok-d")
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			_, err = s.UpsertScore(ctx, testSubmission(player.ID, byte(0x10+i), 100+i))
			require.NoError(t, err)
		}

		recent, err := s.Recent(ctx, 3)
		require.NoError(t, err)
		assert.Len(t, recent, 3)
	})
}
