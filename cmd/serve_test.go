package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/chtrack/internal/model"
	"github.com/sells-group/chtrack/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(t.Context()))

	srv := httptest.NewServer(newRouter(s, nil))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func registerTestPlayer(t *testing.T, srv *httptest.Server, name string) (playerID, token string) {
	t.Helper()
	resp := postJSON(t, srv.URL+"/api/players", map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	require.NotEmpty(t, body["player_id"])
	require.NotEmpty(t, body["token"])
	return body["player_id"], body["token"]
}

func TestServerHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServerRegisterPlayerRequiresName(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/players", map[string]string{})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServerScoreFlow(t *testing.T) {
	srv := newTestServer(t)
	_, token := registerTestPlayer(t, srv, "goofenthol")

	chartID := strings.Repeat("ab", 16)
	sub := model.ScoreSubmission{
		Token:      token,
		ChartID:    chartID,
		Instrument: int(model.InstrumentLeadGuitar),
		Difficulty: int(model.DifficultyExpert),
		Score:      123456,
		Stars:      5,
		PlayCount:  7,
		Kind:       "new_chart",
		Title:      "Through the Fire and Flames",
		Artist:     "DragonForce",
	}

	resp := postJSON(t, srv.URL+"/api/scores", sub)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var accepted struct {
		Status string `json:"status"`
		Raised bool   `json:"raised"`
	}
	decodeBody(t, resp, &accepted)
	assert.Equal(t, "accepted", accepted.Status)
	assert.True(t, accepted.Raised)

	// A lower score for the same chart is stored only if higher, so the
	// server reports it as not raised.
	sub.Score = 100
	resp = postJSON(t, srv.URL+"/api/scores", sub)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decodeBody(t, resp, &accepted)
	assert.False(t, accepted.Raised)

	resp, err := http.Get(srv.URL + "/api/leaderboard/" + chartID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var board struct {
		Entries []model.LeaderboardEntry `json:"entries"`
	}
	decodeBody(t, resp, &board)
	require.Len(t, board.Entries, 1)
	assert.Equal(t, "goofenthol", board.Entries[0].PlayerName)
	assert.Equal(t, 123456, board.Entries[0].Score)
	assert.Equal(t, 1, board.Entries[0].Rank)
}

func TestServerScoreUnknownToken(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/scores", model.ScoreSubmission{
		Token:   "not-a-token",
		ChartID: strings.Repeat("cd", 16),
		Score:   10,
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServerScoreInvalidChartID(t *testing.T) {
	srv := newTestServer(t)
	_, token := registerTestPlayer(t, srv, "someone")

	resp := postJSON(t, srv.URL+"/api/scores", model.ScoreSubmission{
		Token:   token,
		ChartID: "zzzz",
		Score:   10,
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServerRecent(t *testing.T) {
	srv := newTestServer(t)
	_, token := registerTestPlayer(t, srv, "someone")

	for i, fill := range []string{"11", "22", "33"} {
		resp := postJSON(t, srv.URL+"/api/scores", model.ScoreSubmission{
			Token:   token,
			ChartID: strings.Repeat(fill, 16),
			Score:   1000 + i,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp, err := http.Get(srv.URL + "/api/recent?limit=2")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Submissions []model.Submission `json:"submissions"`
	}
	decodeBody(t, resp, &body)
	assert.Len(t, body.Submissions, 2)
}

func TestServerLeaderboardBadChartID(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/leaderboard/nothex")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
