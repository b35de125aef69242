package model

// ScoreSubmission is the wire form of one announceable change event, as
// POSTed by the tracker to the server's /api/scores endpoint.
type ScoreSubmission struct {
	Token         string `json:"token"`
	PlayerName    string `json:"player_name,omitempty"`
	ChartID       string `json:"chart_id"`
	Instrument    int    `json:"instrument"`
	Difficulty    int    `json:"difficulty"`
	Score         int    `json:"score"`
	Stars         int    `json:"stars"`
	PlayCount     int    `json:"play_count"`
	Kind          string `json:"kind"`
	PreviousScore *int   `json:"previous_score,omitempty"`
	Title         string `json:"title,omitempty"`
	Artist        string `json:"artist,omitempty"`
}

// NewScoreSubmission converts a change event into its wire form.
func NewScoreSubmission(token, playerName string, ev ChangeEvent) ScoreSubmission {
	sub := ScoreSubmission{
		Token:         token,
		PlayerName:    playerName,
		ChartID:       ev.Record.ChartID.String(),
		Instrument:    int(ev.Record.Instrument),
		Difficulty:    int(ev.Record.Difficulty),
		Score:         ev.Record.Score,
		Stars:         ev.Record.Stars,
		PlayCount:     ev.Record.PlayCount,
		Kind:          string(ev.Kind),
		PreviousScore: ev.PreviousScore,
	}
	if ev.Song != nil {
		if ev.Song.Title != nil {
			sub.Title = *ev.Song.Title
		}
		if ev.Song.Artist != nil {
			sub.Artist = *ev.Song.Artist
		}
	}
	return sub
}
