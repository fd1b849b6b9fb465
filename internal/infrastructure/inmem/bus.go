// Package inmem carries the bus contract without a broker. It backs local
// development (BUS_DRIVER=memory) and the test doubles.
package inmem

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nkosarev/picshare/internal/event"
	"github.com/nkosarev/picshare/internal/infrastructure"
	"github.com/nkosarev/picshare/pkg/clock"
	"github.com/nkosarev/picshare/pkg/logger"
)

const _queueBuffer = 128

type queue struct {
	tasks chan infrastructure.Message
}

// EventBus matches the AMQP bus semantics closely enough to swap in: exact
// routing-key matching, named queues shared by competing consumers,
// asynchronous delivery and drop-on-handler-error.
type EventBus struct {
	logger  logger.Interface
	clock   clock.Clock
	workers int

	mu       sync.Mutex
	queues   map[string]*queue
	bindings map[string][]*queue
	closed   bool

	wg sync.WaitGroup
}

var _ infrastructure.EventBus = (*EventBus)(nil)

func NewEventBus(l logger.Interface, c clock.Clock, workers int) *EventBus {
	return &EventBus{
		logger:   l,
		clock:    c,
		workers:  workers,
		queues:   make(map[string]*queue),
		bindings: make(map[string][]*queue),
	}
}

func (b *EventBus) Publish(ctx context.Context, e event.Event, opts ...infrastructure.PublishOption) error {
	options := infrastructure.PublishOptions{
		RoutingKey: event.RoutingKey(e.Name()),
	}
	for _, opt := range opts {
		opt(&options)
	}

	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("EventBus - Publish - json.Marshal: %w", err)
	}

	msg := infrastructure.Message{
		Body:       body,
		EventType:  e.Name(),
		RoutingKey: options.RoutingKey,
		Timestamp:  b.clock.Now().UnixMilli(),
		Version:    event.Version,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("EventBus - Publish - bus is closed")
	}

	// An unrouted message is silently dropped, as a topic exchange would.
	for _, q := range b.bindings[options.RoutingKey] {
		select {
		case q.tasks <- msg:
		case <-ctx.Done():
			return fmt.Errorf("EventBus - Publish - ctx done: %w", ctx.Err())
		}
	}

	return nil
}

func (b *EventBus) Subscribe(ctx context.Context, eventName string, h infrastructure.Handler, opts ...infrastructure.SubscribeOption) error {
	key := event.RoutingKey(eventName)

	options := infrastructure.SubscribeOptions{
		Queue: event.QueueName(key),
	}
	for _, opt := range opts {
		opt(&options)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("EventBus - Subscribe - bus is closed")
	}

	q, ok := b.queues[options.Queue]
	if !ok {
		q = &queue{tasks: make(chan infrastructure.Message, _queueBuffer)}
		b.queues[options.Queue] = q
	}

	if !b.bound(key, q) {
		b.bindings[key] = append(b.bindings[key], q)
	}

	for i := 0; i < b.workers; i++ {
		b.wg.Add(1)
		go b.worker(ctx, q, h)
	}

	return nil
}

func (b *EventBus) bound(key string, q *queue) bool {
	for _, existing := range b.bindings[key] {
		if existing == q {
			return true
		}
	}

	return false
}

func (b *EventBus) worker(ctx context.Context, q *queue, h infrastructure.Handler) {
	defer b.wg.Done()

	for msg := range q.tasks {
		b.handle(ctx, msg, h)
	}
}

func (b *EventBus) handle(ctx context.Context, msg infrastructure.Message, h infrastructure.Handler) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error(fmt.Errorf("panic %v", r), "EventBus - handle - panic")
		}
	}()

	// Same discipline as the broker: a handler error drops the message.
	if err := h(ctx, msg); err != nil {
		b.logger.Error(err, "EventBus - handle - handler failed")
	}
}

func (b *EventBus) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		for _, q := range b.queues {
			close(q.tasks)
		}
	}
	b.mu.Unlock()

	done := make(chan struct{})

	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return nil
	}
}
