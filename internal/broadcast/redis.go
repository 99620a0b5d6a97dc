package broadcast

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const channelPrefix = "stocktake:events:"

// RedisBridge relays hub events through redis pub/sub so every server
// instance delivers them to its own websocket clients.
type RedisBridge struct {
	client *redis.Client
	log    *zap.Logger

	// deliver is wired by NewBridgedHub.
	deliver func(room string, raw []byte)
}

// NewRedisBridge creates a bridge over the given redis client.
func NewRedisBridge(client *redis.Client, log *zap.Logger) *RedisBridge {
	return &RedisBridge{client: client, log: log}
}

// Publish sends a framed event to the room's redis channel.
func (b *RedisBridge) Publish(ctx context.Context, room string, raw []byte) error {
	return b.client.Publish(ctx, channelPrefix+room, raw).Err()
}

// Run subscribes to every room channel and delivers received events to
// the local hub until the context is cancelled. Intended to run in its
// own goroutine.
func (b *RedisBridge) Run(ctx context.Context) {
	pubsub := b.client.PSubscribe(ctx, channelPrefix+"*")
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			room := strings.TrimPrefix(msg.Channel, channelPrefix)
			if b.deliver != nil {
				b.deliver(room, []byte(msg.Payload))
			}
		}
	}
}
