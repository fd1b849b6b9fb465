package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nkosarev/picshare/internal/event"
	"github.com/nkosarev/picshare/internal/infrastructure"
	"github.com/nkosarev/picshare/pkg/clock"
	"github.com/nkosarev/picshare/pkg/logger"
	"github.com/nkosarev/picshare/pkg/rabbitmq"
)

const (
	_headerEventType = "eventType"
	_headerTimestamp = "timestamp"
	_headerVersion   = "version"
)

// EventBus implements the bus contract on a durable AMQP topic exchange.
// Each subscription consumes its queue with manual acknowledgment and runs
// handlers on a bounded worker pool.
type EventBus struct {
	rmq    *rabbitmq.RabbitMQ
	logger logger.Interface
	clock  clock.Clock

	workers int
	wg      sync.WaitGroup
}

var _ infrastructure.EventBus = (*EventBus)(nil)

func NewEventBus(rmq *rabbitmq.RabbitMQ, l logger.Interface, c clock.Clock, workers int) *EventBus {
	return &EventBus{
		rmq:     rmq,
		logger:  l,
		clock:   c,
		workers: workers,
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

	err = b.rmq.Ch.PublishWithContext(
		ctx,
		b.rmq.Exchange,
		options.RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Headers: amqp.Table{
				_headerEventType: e.Name(),
				_headerTimestamp: b.clock.Now().UnixMilli(),
				_headerVersion:   event.Version,
			},
		},
	)
	if err != nil {
		return fmt.Errorf("EventBus - Publish - b.rmq.Ch.PublishWithContext: %w", err)
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

	q, err := b.rmq.Ch.QueueDeclare(
		options.Queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("EventBus - Subscribe - b.rmq.Ch.QueueDeclare: %w", err)
	}

	err = b.rmq.Ch.QueueBind(q.Name, key, b.rmq.Exchange, false, nil)
	if err != nil {
		return fmt.Errorf("EventBus - Subscribe - b.rmq.Ch.QueueBind: %w", err)
	}

	deliveries, err := b.rmq.Ch.Consume(
		q.Name,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("EventBus - Subscribe - b.rmq.Ch.Consume: %w", err)
	}

	tasks := make(chan amqp.Delivery, b.workers*2)

	for i := 0; i < b.workers; i++ {
		b.wg.Add(1)
		go b.worker(ctx, tasks, h)
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer close(tasks)

		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}

				select {
				case tasks <- d:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return nil
}

func (b *EventBus) worker(ctx context.Context, tasks <-chan amqp.Delivery, h infrastructure.Handler) {
	defer b.wg.Done()

	for d := range tasks {
		b.handle(ctx, d, h)
	}
}

func (b *EventBus) handle(ctx context.Context, d amqp.Delivery, h infrastructure.Handler) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error(fmt.Errorf("panic %v", r), "EventBus - handle - panic")
			b.nack(d)
		}
	}()

	err := h(ctx, toMessage(d))
	if err != nil {
		// Nack without requeue: the message is dropped for good. A failing
		// handler must not be retried through redelivery.
		b.logger.Error(err, "EventBus - handle - handler failed")
		b.nack(d)

		return
	}

	if ackErr := d.Ack(false); ackErr != nil {
		b.logger.Error(ackErr, "EventBus - handle - d.Ack")
	}
}

func (b *EventBus) nack(d amqp.Delivery) {
	if err := d.Nack(false, false); err != nil {
		b.logger.Error(err, "EventBus - nack - d.Nack")
	}
}

// Shutdown waits for in-flight handlers after the subscription contexts are
// cancelled. The broker connection itself is closed by the owner of RabbitMQ.
func (b *EventBus) Shutdown(ctx context.Context) error {
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

func toMessage(d amqp.Delivery) infrastructure.Message {
	msg := infrastructure.Message{
		Body:       d.Body,
		RoutingKey: d.RoutingKey,
	}

	if v, ok := d.Headers[_headerEventType].(string); ok {
		msg.EventType = v
	}
	if v, ok := d.Headers[_headerTimestamp].(int64); ok {
		msg.Timestamp = v
	}
	if v, ok := d.Headers[_headerVersion].(string); ok {
		msg.Version = v
	}

	return msg
}
