package ws

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	sendBufferSize = 16
	writeTimeout   = 5 * time.Second
	readDeadline   = 60 * time.Second
	maxMessageSize = 4096
)

// Client wraps one subscriber connection with a buffered outbound queue.
type Client struct {
	id        string
	conn      *websocket.Conn
	send      chan []byte
	logger    *zap.Logger
	done      chan struct{}
	closeOnce sync.Once
}

// NewClient builds a client wrapper around an upgraded connection.
func NewClient(conn *websocket.Conn, logger *zap.Logger) *Client {
	return &Client{
		id:     uuid.NewString(),
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		logger: logger,
		done:   make(chan struct{}),
	}
}

// ID returns the connection identifier.
func (c *Client) ID() string {
	return c.id
}

// Start launches the pumps and blocks until the connection ends. onClose runs
// exactly once when the client goes away.
func (c *Client) Start(ctx context.Context, onClose func(*Client)) {
	defer func() {
		c.Close()
		if onClose != nil {
			onClose(c)
		}
	}()

	go c.writePump(ctx)
	c.readPump(ctx)
}

// TrySend queues data without blocking; the event is dropped if the client
// cannot keep up.
func (c *Client) TrySend(data []byte) {
	select {
	case c.send <- data:
	case <-c.done:
	default:
		c.logger.Debug("dropping ws event, client buffer full", zap.String("client_id", c.id))
	}
}

// Ping sends a control ping.
func (c *Client) Ping() error {
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

// Close terminates the connection. Safe to call from multiple goroutines.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *Client) readPump(ctx context.Context) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(readDeadline))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		default:
		}

		// Subscribers only listen; inbound frames are drained for control handling.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			c.logger.Debug("ws client read closed", zap.String("client_id", c.id), zap.Error(err))
			return
		}
	}
}

func (c *Client) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug("ws client write failed", zap.String("client_id", c.id), zap.Error(err))
				c.Close()
				return
			}
		}
	}
}
