package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed is returned when a frame is not a valid message object
var ErrMalformed = errors.New("malformed message")

var clientKinds = map[Kind]func() Message{
	KindJoinGame:  func() Message { return &JoinGame{} },
	KindAnswer:    func() Message { return &Answer{} },
	KindRematch:   func() Message { return &RematchRequest{} },
	KindForfeit:   func() Message { return &Forfeit{} },
	KindHeartbeat: func() Message { return &Heartbeat{} },
}

var serverKinds = map[Kind]func() Message{
	KindGameState:   func() Message { return &GameState{} },
	KindCountdown:   func() Message { return &Countdown{} },
	KindQuestion:    func() Message { return &Question{} },
	KindScoreUpdate: func() Message { return &ScoreUpdate{} },
	KindGameOver:    func() Message { return &GameOver{} },
	KindRematch:     func() Message { return &RematchStatus{} },
	KindError:       func() Message { return &Error{} },
}

type envelope struct {
	Type string `json:"type"`
}

// Encode marshals msg as a JSON object with its "type" discriminant first
func Encode(msg Message) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("%w: nil message", ErrMalformed)
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", msg.Kind(), err)
	}
	kind, err := json.Marshal(string(msg.Kind()))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", msg.Kind(), err)
	}

	var buf bytes.Buffer
	buf.Grow(len(body) + len(kind) + 10)
	buf.WriteString(`{"type":`)
	buf.Write(kind)
	if len(body) > 2 {
		buf.WriteByte(',')
		buf.Write(body[1:])
	} else {
		buf.WriteByte('}')
	}
	return buf.Bytes(), nil
}

// DecodeClient parses a frame sent by a client.
// Unrecognised kinds decode to *Unknown without error.
func DecodeClient(data []byte) (Message, error) {
	return decode(data, clientKinds)
}

// DecodeServer parses a frame sent by the server
func DecodeServer(data []byte) (Message, error) {
	return decode(data, serverKinds)
}

func decode(data []byte, kinds map[Kind]func() Message) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}

	newMsg, ok := kinds[Kind(env.Type)]
	if !ok {
		return &Unknown{Type: env.Type, Raw: append([]byte(nil), data...)}, nil
	}

	msg := newMsg()
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Type, err)
	}
	return msg, nil
}
