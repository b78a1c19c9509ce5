package response

import (
	"time"

	"github.com/mcoot/warduel/internal/model"
	"github.com/mcoot/warduel/internal/services/duel"
)

// Health is the response for the health endpoint
type Health struct {
	Status string `json:"status"`
}

// Stats represents live server counts
type Stats struct {
	Clients        int   `json:"clients"`
	Connections    int   `json:"connections"`
	Sessions       int   `json:"sessions"`
	WaitingPlayers int   `json:"waiting_players"`
	RunningGames   int   `json:"running_games"`
	CompletedGames int64 `json:"completed_games"`
	RecordedGames  int   `json:"recorded_games"`
}

// StatsFromModel combines orchestrator stats with transport and storage counts
func StatsFromModel(s duel.Stats, clients, recorded int) Stats {
	return Stats{
		Clients:        clients,
		Connections:    s.Connections,
		Sessions:       s.Sessions,
		WaitingPlayers: s.WaitingPlayers,
		RunningGames:   s.RunningGames,
		CompletedGames: s.CompletedGames,
		RecordedGames:  recorded,
	}
}

// PlayerResult is one player's final score
type PlayerResult struct {
	Label string `json:"label"`
	Score int    `json:"score"`
}

// Result represents a finished game
type Result struct {
	SessionID string         `json:"session_id"`
	Round     int            `json:"round"`
	Players   []PlayerResult `json:"players"`
	Winner    string         `json:"winner"`
	Draw      bool           `json:"draw"`
	Reason    string         `json:"reason"`
	EndedAt   time.Time      `json:"ended_at"`
}

// ResultFromModel converts a model.DuelSummary
func ResultFromModel(s *model.DuelSummary) Result {
	players := make([]PlayerResult, len(s.Players))
	for i, p := range s.Players {
		players[i] = PlayerResult{Label: p.Label, Score: p.Score}
	}
	return Result{
		SessionID: string(s.SessionID),
		Round:     s.Round,
		Players:   players,
		Winner:    s.Winner,
		Draw:      s.IsDraw(),
		Reason:    string(s.Reason),
		EndedAt:   s.EndedAt,
	}
}

// ResultList is a page of results
type ResultList struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
}

// ResultListFromModel converts a slice of summaries
func ResultListFromModel(summaries []*model.DuelSummary, total int) ResultList {
	results := make([]Result, len(summaries))
	for i, s := range summaries {
		results[i] = ResultFromModel(s)
	}
	return ResultList{Results: results, Total: total}
}
