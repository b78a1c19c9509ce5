package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		fmt.Printf("Status: %s\n", v.Status)
	case StatsResult:
		o.printStats(v)
	case ResultList:
		o.printResults(v)
	case GameRecord:
		o.printGameRecord(v)
	default:
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

// StatsResult response type
type StatsResult struct {
	Clients        int   `json:"clients"`
	Connections    int   `json:"connections"`
	Sessions       int   `json:"sessions"`
	WaitingPlayers int   `json:"waiting_players"`
	RunningGames   int   `json:"running_games"`
	CompletedGames int64 `json:"completed_games"`
	RecordedGames  int   `json:"recorded_games"`
}

// PlayerScore response type
type PlayerScore struct {
	Label string `json:"label"`
	Score int    `json:"score"`
}

// Result response type
type Result struct {
	SessionID string        `json:"session_id"`
	Round     int           `json:"round"`
	Players   []PlayerScore `json:"players"`
	Winner    string        `json:"winner"`
	Draw      bool          `json:"draw"`
	Reason    string        `json:"reason"`
	EndedAt   time.Time     `json:"ended_at"`
}

// ResultList response type
type ResultList struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
}

// GameRecord is what the play command reports after each game
type GameRecord struct {
	Game          int    `json:"game"`
	YourName      string `json:"your_name"`
	YourScore     int    `json:"your_score"`
	OpponentScore int    `json:"opponent_score"`
	Outcome       string `json:"outcome"`
	Note          string `json:"note,omitempty"`
}

func (o *Output) printStats(s StatsResult) {
	fmt.Printf("WebSocket clients: %d\n", s.Clients)
	fmt.Printf("Connections:       %d\n", s.Connections)
	fmt.Printf("Sessions:          %d\n", s.Sessions)
	fmt.Printf("Waiting players:   %d\n", s.WaitingPlayers)
	fmt.Printf("Running games:     %d\n", s.RunningGames)
	fmt.Printf("Completed games:   %d\n", s.CompletedGames)
	fmt.Printf("Recorded results:  %d\n", s.RecordedGames)
}

func (o *Output) printResults(l ResultList) {
	if len(l.Results) == 0 {
		fmt.Println("No results recorded")
		return
	}

	fmt.Printf("Results (%d of %d):\n", len(l.Results), l.Total)
	for _, r := range l.Results {
		scores := make([]string, len(r.Players))
		for i, p := range r.Players {
			scores[i] = fmt.Sprintf("%s %d", p.Label, p.Score)
		}

		winner := r.Winner
		if r.Draw {
			winner = "draw"
		}
		fmt.Printf("  %s  %s round %d: %s - %s (%s)\n",
			r.EndedAt.Local().Format(time.DateTime), r.SessionID, r.Round,
			strings.Join(scores, " / "), winner, r.Reason)
	}
}

func (o *Output) printGameRecord(g GameRecord) {
	fmt.Printf("Game %d as %s: %s %d-%d\n", g.Game, g.YourName, g.Outcome, g.YourScore, g.OpponentScore)
	if g.Note != "" {
		fmt.Printf("  %s\n", g.Note)
	}
}
