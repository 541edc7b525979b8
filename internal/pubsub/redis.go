package pubsub

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBus is grounded on the pack's multiple go-redis/v9 references; it
// is the natural fit for spec §4.9's cross-process pub/sub bus.
type RedisBus struct {
	client *redis.Client
	pubsub *redis.PubSub
}

// NewRedisBus dials dsn (a redis:// URL).
func NewRedisBus(dsn string) (*RedisBus, error) {
	opt, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, err
	}
	return &RedisBus{client: redis.NewClient(opt)}, nil
}

func (b *RedisBus) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.client.Publish(ctx, channel, payload).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context, channels ...string) error {
	if b.pubsub == nil {
		b.pubsub = b.client.Subscribe(ctx, channels...)
		return nil
	}
	return b.pubsub.Subscribe(ctx, channels...)
}

func (b *RedisBus) GetMessage(ctx context.Context, timeout time.Duration) (*Message, error) {
	if b.pubsub == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	msg, err := b.pubsub.ReceiveMessage(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil // timeout: not an error, just nothing to dispatch
		}
		return nil, err
	}
	return &Message{Channel: msg.Channel, Payload: []byte(msg.Payload)}, nil
}

func (b *RedisBus) Close() error {
	if b.pubsub != nil {
		_ = b.pubsub.Close()
	}
	return b.client.Close()
}
