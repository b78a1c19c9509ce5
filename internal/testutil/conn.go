package testutil

import (
	"sync"

	"github.com/mcoot/warduel/internal/model"
	"github.com/mcoot/warduel/internal/protocol"
)

// RecordingConn is a model.Conn that keeps every message sent to it
type RecordingConn struct {
	id model.ConnID

	mu       sync.Mutex
	messages []protocol.Message
	closed   bool
}

var _ model.Conn = (*RecordingConn)(nil)

// NewRecordingConn creates a RecordingConn with the given id
func NewRecordingConn(id string) *RecordingConn {
	return &RecordingConn{id: model.ConnID(id)}
}

func (c *RecordingConn) ID() model.ConnID { return c.id }

func (c *RecordingConn) Send(msg protocol.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
	return nil
}

func (c *RecordingConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Closed reports whether Close was called
func (c *RecordingConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Messages returns a copy of everything sent so far
func (c *RecordingConn) Messages() []protocol.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]protocol.Message(nil), c.messages...)
}

// Clear forgets recorded messages
func (c *RecordingConn) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}

// Received returns the messages of type T in send order
func Received[T protocol.Message](c *RecordingConn) []T {
	var result []T
	for _, m := range c.Messages() {
		if typed, ok := m.(T); ok {
			result = append(result, typed)
		}
	}
	return result
}

// Last returns the most recent message of type T
func Last[T protocol.Message](c *RecordingConn) (T, bool) {
	msgs := Received[T](c)
	if len(msgs) == 0 {
		var zero T
		return zero, false
	}
	return msgs[len(msgs)-1], true
}

// ErrorTexts returns the text of every ERROR notice received
func ErrorTexts(c *RecordingConn) []string {
	var texts []string
	for _, e := range Received[*protocol.Error](c) {
		texts = append(texts, e.ErrorMessage)
	}
	return texts
}
