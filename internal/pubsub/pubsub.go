// Package pubsub implements the cross-process update bus named in spec
// §4.9/§6: publish/subscribe/get_message over Redis, with a background
// consumer dispatching recognised topics by name.
package pubsub

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// Message is one payload received from the bus.
type Message struct {
	Channel string
	Payload []byte
}

// Bus is the collaborator interface named in spec §6: publish(channel,
// bytes), subscribe(channels), get_message(timeout).
type Bus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channels ...string) error
	GetMessage(ctx context.Context, timeout time.Duration) (*Message, error)
	Close() error
}

// Handler processes one decoded topic payload.
type Handler func(ctx context.Context, payload json.RawMessage) error

// Consumer polls Bus.GetMessage in a loop and dispatches to the handler
// registered for each channel name, per spec §4.9's recognised topics
// (user-status, user-activity, user-stats, user-privileges, and the two
// chat-relay topics).
//
// Grounded on the teacher's own background-ticker goroutines in main.go
// (RunMetrics / mute-expiry / SQLite-optimize loops): a single goroutine,
// a ticker-shaped poll, select on ctx.Done.
type Consumer struct {
	bus      Bus
	handlers map[string]Handler
	timeout  time.Duration
	yield    time.Duration
}

// NewConsumer returns a Consumer polling bus with a 1s get_message
// timeout and a 10ms yield between empty polls, per spec §4.9.
func NewConsumer(bus Bus) *Consumer {
	return &Consumer{
		bus:      bus,
		handlers: make(map[string]Handler),
		timeout:  1 * time.Second,
		yield:    10 * time.Millisecond,
	}
}

// On registers handler for channel, and subscribes to it.
func (c *Consumer) On(ctx context.Context, channel string, handler Handler) error {
	c.handlers[channel] = handler
	return c.bus.Subscribe(ctx, channel)
}

// Run blocks, dispatching messages until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msg, err := c.bus.GetMessage(ctx, c.timeout)
		if err != nil {
			log.Printf("[pubsub] get_message: %v", err)
			time.Sleep(c.yield)
			continue
		}
		if msg == nil {
			time.Sleep(c.yield)
			continue
		}

		handler, ok := c.handlers[msg.Channel]
		if !ok {
			continue
		}
		if err := handler(ctx, msg.Payload); err != nil {
			log.Printf("[pubsub] handler %q: %v", msg.Channel, err)
		}
	}
}
