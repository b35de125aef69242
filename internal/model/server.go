package model

import "time"

// Player is a registered tracker client on the server side. Token is the
// uuid pairing token the tracker presents on every submission.
type Player struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Token     string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Submission is one accepted score on the server side.
type Submission struct {
	ID          string     `json:"id"`
	PlayerID    string     `json:"player_id"`
	PlayerName  string     `json:"player_name,omitempty"`
	ChartID     ChartID    `json:"chart_id"`
	Instrument  Instrument `json:"instrument"`
	Difficulty  Difficulty `json:"difficulty"`
	Score       int        `json:"score"`
	Stars       int        `json:"stars"`
	PlayCount   int        `json:"play_count"`
	Title       string     `json:"title,omitempty"`
	Artist      string     `json:"artist,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
}

// LeaderboardEntry is one row of a per-chart leaderboard.
type LeaderboardEntry struct {
	Rank        int        `json:"rank"`
	PlayerName  string     `json:"player_name"`
	Instrument  Instrument `json:"instrument"`
	Difficulty  Difficulty `json:"difficulty"`
	Score       int        `json:"score"`
	Stars       int        `json:"stars"`
	SubmittedAt time.Time  `json:"submitted_at"`
}
