package client

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
)

// Transport is the realtime channel as the controller sees it. The
// websocket implementation below is the production one; tests supply
// a fake.
type Transport interface {
	Connect(ctx context.Context) error
	Send(data []byte) error
	Receive() ([]byte, error)
	Close() error
	Connected() bool
}

// WSTransport connects to the server's /ws endpoint over
// gorilla/websocket. The bearer token travels as a query parameter
// because browser websocket clients cannot set headers.
type WSTransport struct {
	serverURL string
	token     string

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewWSTransport(serverURL, token string) *WSTransport {
	return &WSTransport{serverURL: serverURL, token: token}
}

func (t *WSTransport) wsURL() (string, error) {
	u, err := url.Parse(t.serverURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	q := u.Query()
	q.Set("token", t.token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (t *WSTransport) Connect(ctx context.Context) error {
	addr, err := t.wsURL()
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, addr, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}

	t.mu.Lock()
	if t.conn != nil {
		_ = t.conn.Close()
	}
	t.conn = conn
	t.mu.Unlock()
	return nil
}

func (t *WSTransport) Send(data []byte) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("not connected")
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (t *WSTransport) Receive() ([]byte, error) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return nil, fmt.Errorf("not connected")
	}

	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.mu.Lock()
		if t.conn == conn {
			_ = t.conn.Close()
			t.conn = nil
		}
		t.mu.Unlock()
		return nil, err
	}
	return raw, nil
}

func (t *WSTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

func (t *WSTransport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}
