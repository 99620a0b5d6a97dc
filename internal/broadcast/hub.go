// Package broadcast implements the real-time channel: a room-based
// fan-out hub for connected clients, optionally bridged through redis
// so events reach clients connected to other server instances.
package broadcast

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/akozyrev/stocktake/internal/event"
)

// Publisher is the emit side of the channel, as seen by the services.
type Publisher interface {
	// Publish frames the payload and delivers it to every subscriber
	// of the room. Delivery is best-effort; slow subscribers are
	// dropped rather than blocking the caller.
	Publish(room string, kind event.Kind, payload any)
}

// subscriber is one connected client's outbound queue.
type subscriber chan []byte

// sendBuffer bounds per-client queueing before the client is
// considered too slow and disconnected.
const sendBuffer = 64

// Hub fans framed events out to room subscribers.
type Hub struct {
	log *zap.Logger

	mu    sync.RWMutex
	rooms map[string]map[subscriber]struct{}

	// bridge, when set, carries published events through redis so all
	// server instances see them. Local delivery then happens on the
	// bridge's receive path only, which keeps single- and
	// multi-instance deployments on one code path.
	bridge *RedisBridge
}

// NewHub returns a Hub without a redis bridge; Publish delivers to
// local subscribers only.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		log:   log,
		rooms: make(map[string]map[subscriber]struct{}),
	}
}

// NewBridgedHub returns a Hub whose published events travel through
// the given redis bridge. The bridge must be started by the caller.
func NewBridgedHub(log *zap.Logger, bridge *RedisBridge) *Hub {
	h := NewHub(log)
	h.bridge = bridge
	bridge.deliver = h.deliverLocal
	return h
}

// Subscribe registers a new subscriber on the room and returns its
// receive channel plus a cancel func that must be called exactly once.
func (h *Hub) Subscribe(room string) (<-chan []byte, func()) {
	sub := make(subscriber, sendBuffer)

	h.mu.Lock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[subscriber]struct{})
	}
	h.rooms[room][sub] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if subs, ok := h.rooms[room]; ok {
			delete(subs, sub)
			if len(subs) == 0 {
				delete(h.rooms, room)
			}
		}
		h.mu.Unlock()
		close(sub)
	}
	return sub, cancel
}

// Publish implements Publisher.
func (h *Hub) Publish(room string, kind event.Kind, payload any) {
	raw, err := event.Marshal(kind, payload)
	if err != nil {
		h.log.Error("failed to frame event", zap.String("kind", string(kind)), zap.Error(err))
		return
	}

	if h.bridge != nil {
		if err := h.bridge.Publish(context.Background(), room, raw); err != nil {
			h.log.Error("redis publish failed, delivering locally",
				zap.String("room", room), zap.Error(err))
			h.deliverLocal(room, raw)
		}
		return
	}
	h.deliverLocal(room, raw)
}

func (h *Hub) deliverLocal(room string, raw []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.rooms[room] {
		select {
		case sub <- raw:
		default:
			// Queue full: the subscriber stopped draining. Skip it;
			// its connection handler will notice and tear down.
			h.log.Warn("dropping event for slow subscriber", zap.String("room", room))
		}
	}
}

// SubscriberCount reports how many clients are in a room.
func (h *Hub) SubscriberCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
