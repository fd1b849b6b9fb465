package infrastructure

import (
	"context"

	"github.com/nkosarev/picshare/internal/event"
)

type (
	// Message is a delivered event plus its transport metadata. The metadata
	// travels in message headers, never inside the payload body.
	Message struct {
		Body       []byte
		EventType  string
		RoutingKey string
		Timestamp  int64 // Unix milliseconds
		Version    string
	}

	// Handler processes one delivery. A nil return acknowledges the message;
	// an error nacks it without requeue, which permanently drops it — there
	// is no dead-letter exchange. Handlers that can recover from their own
	// failures must swallow them instead of returning them.
	Handler func(ctx context.Context, msg Message) error

	// EventBus provides durable, at-least-once delivery of catalog events.
	EventBus interface {
		// Publish serializes the event and hands it to the exchange. Success
		// means the exchange accepted it, not that any subscriber ran.
		Publish(ctx context.Context, e event.Event, opts ...PublishOption) error
		// Subscribe binds a durable queue for the event name and consumes it
		// with manual acknowledgment. Safe to call repeatedly for the same
		// event; declarations are idempotent.
		Subscribe(ctx context.Context, eventName string, h Handler, opts ...SubscribeOption) error
	}
)

type PublishOptions struct {
	RoutingKey string
}

type PublishOption func(*PublishOptions)

// WithRoutingKey overrides the key derived from the event name.
func WithRoutingKey(key string) PublishOption {
	return func(o *PublishOptions) {
		o.RoutingKey = key
	}
}

type SubscribeOptions struct {
	Queue string
}

type SubscribeOption func(*SubscribeOptions)

// WithQueue overrides the queue name derived from the routing key.
func WithQueue(queue string) SubscribeOption {
	return func(o *SubscribeOptions) {
		o.Queue = queue
	}
}
