package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/akozyrev/stocktake/internal/event"
)

// Subscriber defines the broadcast hub operations required by the
// websocket handler.
type Subscriber interface {
	Subscribe(room string) (<-chan []byte, func())
}

const (
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = 50 * time.Second
	maxFrameBytes = 512
)

// The bearer token is the access gate, not the Origin header, so
// cross-origin upgrades are allowed.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

var errExpectedJoin = errors.New("first frame must be join_room")

// WSHandler upgrades HTTP connections to websockets and streams
// broadcast events to them.
type WSHandler struct {
	Hub Subscriber
	Log *zap.Logger
}

// Serve upgrades the connection and waits for the client's join_room
// frame before subscribing it to that room. Every event published to
// the room is then forwarded until either side closes.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Info("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxFrameBytes)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	room, err := readJoinRoom(conn)
	if err != nil {
		h.Log.Info("websocket rejected", zap.Error(err))
		return
	}

	events, cancel := h.Hub.Subscribe(room)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Drain client frames so control messages are processed and a
		// closed peer is noticed promptly.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case raw, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// readJoinRoom reads the initial frame, which must be a join_room
// event naming the room to subscribe to.
func readJoinRoom(conn *websocket.Conn) (string, error) {
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return "", err
	}

	env, err := event.Unmarshal(raw)
	if err != nil {
		return "", err
	}
	if env.Event != event.JoinRoom {
		return "", errExpectedJoin
	}

	var payload event.JoinRoomPayload
	if err := env.Decode(&payload); err != nil {
		return "", err
	}
	if payload.Room == "" {
		return "", errExpectedJoin
	}
	return payload.Room, nil
}
