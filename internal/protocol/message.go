// Package protocol defines the JSON messages exchanged with duel clients.
//
// Every message is a JSON object carrying a "type" discriminant. The set of
// message kinds is closed: only types declared in this package satisfy
// Message.
package protocol

// Kind is the value of the "type" discriminant
type Kind string

// Client to server kinds
const (
	KindJoinGame  Kind = "JOIN_GAME"
	KindAnswer    Kind = "ANSWER"
	KindRematch   Kind = "REMATCH"
	KindForfeit   Kind = "FORFEIT"
	KindHeartbeat Kind = "HEARTBEAT"
)

// Server to client kinds. REMATCH is shared with the client direction.
const (
	KindGameState   Kind = "GAME_STATE"
	KindCountdown   Kind = "COUNTDOWN"
	KindQuestion    Kind = "QUESTION"
	KindScoreUpdate Kind = "SCORE_UPDATE"
	KindGameOver    Kind = "GAME_OVER"
	KindError       Kind = "ERROR"
)

// Message is implemented by every protocol message
type Message interface {
	Kind() Kind
	message()
}

// JoinGame asks to be matched. A connected client is matched automatically,
// so this only re-requests the current game state.
type JoinGame struct {
	PreferredName string `json:"preferredName,omitempty"`
	GameID        string `json:"gameId,omitempty"`
}

// Answer submits a value for the sender's current question
type Answer struct {
	Answer int `json:"answer"`
}

// RematchRequest sets or withdraws the sender's rematch flag
type RematchRequest struct {
	RequestRematch bool `json:"requestRematch"`
}

// Forfeit concedes a running game
type Forfeit struct{}

// Heartbeat keeps an idle connection alive
type Heartbeat struct{}

// GameState describes the session from the receiver's perspective
type GameState struct {
	GameStatus       string `json:"gameStatus"`
	YourName         string `json:"yourName"`
	OpponentName     string `json:"opponentName,omitempty"`
	RemainingSeconds int    `json:"remainingSeconds"`
}

// Countdown is one tick of the pre-game countdown
type Countdown struct {
	Countdown int    `json:"countdown"`
	Message   string `json:"message"`
}

// Question delivers the receiver's next question
type Question struct {
	QuestionText     string `json:"questionText"`
	QuestionNumber   int    `json:"questionNumber"`
	RemainingSeconds int    `json:"remainingSeconds"`
}

// ScoreUpdate reports both scores after an answer
type ScoreUpdate struct {
	YourScore     int  `json:"yourScore"`
	OpponentScore int  `json:"opponentScore"`
	WasCorrect    bool `json:"wasCorrect"`
}

// GameOver is the final result of a game
type GameOver struct {
	YourScore         int    `json:"yourScore"`
	OpponentScore     int    `json:"opponentScore"`
	YouWon            bool   `json:"youWon"`
	Draw              bool   `json:"draw"`
	WinnerName        string `json:"winnerName"`
	DisconnectMessage string `json:"disconnectMessage,omitempty"`
}

// RematchStatus reports progress of the rematch handshake
type RematchStatus struct {
	RequestRematch   bool   `json:"requestRematch"`
	OpponentAccepted bool   `json:"opponentAccepted"`
	StatusMessage    string `json:"statusMessage"`
}

// Error is a notice for the receiving connection only
type Error struct {
	ErrorMessage string `json:"errorMessage"`
}

// Unknown holds a message whose discriminant is not recognised
type Unknown struct {
	Type string
	Raw  []byte
}

func (*JoinGame) Kind() Kind       { return KindJoinGame }
func (*Answer) Kind() Kind         { return KindAnswer }
func (*RematchRequest) Kind() Kind { return KindRematch }
func (*Forfeit) Kind() Kind        { return KindForfeit }
func (*Heartbeat) Kind() Kind      { return KindHeartbeat }
func (*GameState) Kind() Kind      { return KindGameState }
func (*Countdown) Kind() Kind      { return KindCountdown }
func (*Question) Kind() Kind       { return KindQuestion }
func (*ScoreUpdate) Kind() Kind    { return KindScoreUpdate }
func (*GameOver) Kind() Kind       { return KindGameOver }
func (*RematchStatus) Kind() Kind  { return KindRematch }
func (*Error) Kind() Kind          { return KindError }
func (u *Unknown) Kind() Kind      { return Kind(u.Type) }

func (*JoinGame) message()       {}
func (*Answer) message()         {}
func (*RematchRequest) message() {}
func (*Forfeit) message()        {}
func (*Heartbeat) message()      {}
func (*GameState) message()      {}
func (*Countdown) message()      {}
func (*Question) message()       {}
func (*ScoreUpdate) message()    {}
func (*GameOver) message()       {}
func (*RematchStatus) message()  {}
func (*Error) message()          {}
func (*Unknown) message()        {}
