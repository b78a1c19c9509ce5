package model

import "time"

// EndReason records why a game ended
type EndReason string

const (
	EndReasonTimeUp     EndReason = "time_up"
	EndReasonWinScore   EndReason = "win_score"
	EndReasonForfeit    EndReason = "forfeit"
	EndReasonDisconnect EndReason = "disconnect"
)

// PlayerResult is one player's line in a duel summary
type PlayerResult struct {
	Label string `json:"label"`
	Score int    `json:"score"`
}

// DuelSummary records the outcome of one completed game
type DuelSummary struct {
	SessionID SessionID      `json:"session_id"`
	Round     int            `json:"round"`
	Players   []PlayerResult `json:"players"`
	Winner    string         `json:"winner"`
	Reason    EndReason      `json:"reason"`
	EndedAt   time.Time      `json:"ended_at"`
}

// IsDraw reports whether the game ended level
func (d *DuelSummary) IsDraw() bool {
	return d.Winner == OutcomeDraw
}
