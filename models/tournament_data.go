package models

// WinnerSlot names the side of a bracket match that won.
type WinnerSlot string

const (
	WinnerPlayer1 WinnerSlot = "player1"
	WinnerPlayer2 WinnerSlot = "player2"
)

func (w WinnerSlot) Valid() bool {
	return w == WinnerPlayer1 || w == WinnerPlayer2
}

// BracketMatch is one node of the fixed single-elimination tree.
// JSON field names match the persisted blob layout.
type BracketMatch struct {
	ID          string      `json:"id"`
	NextMatchID *string     `json:"nextMatchId,omitempty"`
	Player1     string      `json:"player1"`
	Player2     string      `json:"player2"`
	Score1      int         `json:"score1"`
	Score2      int         `json:"score2"`
	Winner      *WinnerSlot `json:"winner,omitempty"`
}

type LeaderboardEntry struct {
	ID       string `json:"id"`
	Rank     int    `json:"rank"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Score    int    `json:"score"`
	Coins    int    `json:"coins"`
}

// TournamentData is the whole value stored at tournaments/{id}.
// Writes always replace it in full; there is no per-field patch at the
// storage layer.
type TournamentData struct {
	Matches     map[string]BracketMatch `json:"matches"`
	Leaderboard []LeaderboardEntry      `json:"leaderboard"`
}
