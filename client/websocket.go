package client

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const defaultHandshakeTimeout = 10 * time.Second

type WebSocketTransport struct {
	Dialer *websocket.Dialer
	conn   *websocket.Conn
}

func NewWebSocketTransport() *WebSocketTransport {
	return &WebSocketTransport{
		Dialer: &websocket.Dialer{
			Proxy:            nil,
			HandshakeTimeout: defaultHandshakeTimeout,
		},
	}
}

// Connect dials ws://addr. addr may also be a full ws:// URL.
func (t *WebSocketTransport) Connect(addr string) error {
	if !strings.Contains(addr, "://") {
		addr = "ws://" + addr
	}
	u, err := url.Parse(addr)
	if err != nil {
		return fmt.Errorf("invalid WebSocket URL: %w", err)
	}

	dialer := t.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", u.String(), err)
	}

	slog.Debug("Connected WebSocket", "url", u.String())
	t.conn = conn
	return nil
}

func (t *WebSocketTransport) Send(msg []byte) error {
	if t.conn == nil {
		return fmt.Errorf("transport is not connected")
	}

	if err := t.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		return fmt.Errorf("failed to send WebSocket message: %w", err)
	}

	slog.Debug("Sent WebSocket message", "size", len(msg))
	return nil
}

func (t *WebSocketTransport) Read() ([]byte, error) {
	if t.conn == nil {
		return nil, fmt.Errorf("transport is not connected")
	}

	_, msg, err := t.conn.ReadMessage()
	if err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
			return nil, fmt.Errorf("WebSocket connection error: %w", err)
		}
		return nil, fmt.Errorf("connection closed: %w", err)
	}

	slog.Debug("Received WebSocket message", "size", len(msg))
	return msg, nil
}

func (t *WebSocketTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	conn := t.conn
	t.conn = nil

	err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		// Still close the socket.
		slog.Warn("Failed to send close message", "error", err)
	}

	return conn.Close()
}
