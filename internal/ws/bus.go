package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// BusMessage is one broadcast mirrored across instances. Origin lets each
// instance drop its own echoes; Exclude names the sender's user id so the
// skip-sender rule survives the hop.
type BusMessage struct {
	RoomID  string          `json:"room_id"`
	Origin  string          `json:"origin"`
	Exclude string          `json:"exclude,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// Bus bridges room broadcasts between instances over Redis pub/sub.
type Bus struct {
	rdb *redis.Client
	log *slog.Logger
}

// NewBus connects to redis and verifies connectivity.
func NewBus(ctx context.Context, addr string, db int, log *slog.Logger) (*Bus, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Bus{rdb: rdb, log: log}, nil
}

// Publish sends a message to the redis channel for a room.
func (b *Bus) Publish(ctx context.Context, m BusMessage) error {
	raw, _ := json.Marshal(m)
	return b.rdb.Publish(ctx, channel(m.RoomID), raw).Err()
}

// Subscribe listens to all room channels and invokes fn for each message.
func (b *Bus) Subscribe(ctx context.Context, fn func(BusMessage)) {
	pubsub := b.rdb.PSubscribe(ctx, channel("*"))
	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			_ = pubsub.Close()
			return
		case msg := <-ch:
			var bm BusMessage
			if err := json.Unmarshal([]byte(msg.Payload), &bm); err != nil {
				b.log.Warn("bus.decode", "err", err)
				continue
			}
			if bm.RoomID != "" {
				fn(bm)
			}
		}
	}
}

// Close shuts down the redis connection.
func (b *Bus) Close() { _ = b.rdb.Close() }

// channel namespacing for room pub/sub.
func channel(roomID string) string { return "room:" + roomID }
