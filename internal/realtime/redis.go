package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

var _ Publisher = (*RedisPublisher)(nil)

// RedisPublisher fans events out over a Redis pub/sub channel so every
// storefront instance sees every change.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("realtime: marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("realtime: publish to %s: %w", p.channel, err)
	}
	return nil
}

// RedisBridge consumes the pub/sub channel and replays remote events into
// the local hub. Run blocks until ctx is cancelled.
type RedisBridge struct {
	client  *redis.Client
	channel string
	hub     *Hub
}

func NewRedisBridge(client *redis.Client, channel string, hub *Hub) *RedisBridge {
	return &RedisBridge{client: client, channel: channel, hub: hub}
}

func (b *RedisBridge) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	for {
		msg, err := sub.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("realtime: receive from %s: %w", b.channel, err)
		}

		var event Event
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			slog.ErrorContext(ctx, "realtime: drop malformed event", "channel", b.channel, "error", err)
			continue
		}
		b.hub.Deliver(event)
	}
}
