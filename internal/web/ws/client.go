package ws

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mcoot/warduel/internal/model"
	"github.com/mcoot/warduel/internal/protocol"
)

var (
	ErrClientClosed   = errors.New("client is closed")
	ErrSendBufferFull = errors.New("client send buffer is full")
)

// Config holds websocket connection settings
type Config struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	SendBufferSize  int
	ReadBufferSize  int
	WriteBufferSize int
	// AllowedOrigins lists browser origins that may open a socket.
	// Empty or containing "*" allows any origin.
	AllowedOrigins []string
}

// DefaultConfig returns the standard connection settings
func DefaultConfig() Config {
	return Config{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		SendBufferSize:  256,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}

// Client is one websocket connection. It implements model.Conn.
type Client struct {
	id          model.ConnID
	conn        *websocket.Conn
	config      Config
	logger      *slog.Logger
	connectedAt time.Time

	send chan []byte
	done chan struct{}

	mu         sync.RWMutex
	closed     bool
	closeCode  int
	closeText  string
	pumpExited chan struct{}
}

var _ model.Conn = (*Client)(nil)

func newClient(conn *websocket.Conn, config Config, logger *slog.Logger) *Client {
	id := model.ConnID(uuid.NewString())
	return &Client{
		id:          id,
		conn:        conn,
		config:      config,
		logger:      logger.With(slog.String("conn_id", string(id))),
		connectedAt: time.Now(),
		send:        make(chan []byte, config.SendBufferSize),
		done:        make(chan struct{}),
		closeCode:   websocket.CloseNormalClosure,
		pumpExited:  make(chan struct{}),
	}
}

// ID returns the connection id
func (c *Client) ID() model.ConnID {
	return c.id
}

// Send queues msg for delivery without blocking
func (c *Client) Send(msg protocol.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close flushes queued messages and closes the socket. Safe to call repeatedly.
func (c *Client) Close() error {
	c.closeWith(websocket.CloseNormalClosure, "")
	return nil
}

func (c *Client) closeWith(code int, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.closeCode = code
	c.closeText = text
	close(c.done)
}

// Done is closed once Close has been called
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// writePump is the only writer on the socket
func (c *Client) writePump() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
		close(c.pumpExited)
	}()

	for {
		select {
		case data := <-c.send:
			if err := c.write(websocket.TextMessage, data); err != nil {
				c.logger.Debug("websocket write failed", slog.String("error", err.Error()))
				c.closeWith(websocket.CloseAbnormalClosure, "")
				return
			}

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("websocket ping failed", slog.String("error", err.Error()))
				c.closeWith(websocket.CloseAbnormalClosure, "")
				return
			}

		case <-c.done:
			c.flush()
			c.mu.RLock()
			code, text := c.closeCode, c.closeText
			c.mu.RUnlock()
			_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(code, text))
			return
		}
	}
}

// flush writes whatever is still queued
func (c *Client) flush() {
	for {
		select {
		case data := <-c.send:
			if err := c.write(websocket.TextMessage, data); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *Client) write(messageType int, data []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	return c.conn.WriteMessage(messageType, data)
}

// readPump delivers inbound text frames to onMessage until the socket fails
func (c *Client) readPump(onMessage func([]byte)) {
	c.conn.SetReadLimit(c.config.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn("unexpected websocket close", slog.String("error", err.Error()))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		if messageType != websocket.TextMessage {
			continue
		}
		onMessage(data)
	}
}
