package rabbitmq

import (
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	_defaultConnAttempts = 10
	_defaultConnTimeout  = time.Second
)

// RabbitMQ owns one connection, one channel and one durable topic exchange.
// There is no reconnect loop: if the broker goes away after startup, the
// process is expected to be restarted by its supervisor.
type RabbitMQ struct {
	connAttempts int
	connTimeout  time.Duration

	url      string
	Exchange string

	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func New(url, exchange string, opts ...Option) (*RabbitMQ, error) {
	r := &RabbitMQ{
		connAttempts: _defaultConnAttempts,
		connTimeout:  _defaultConnTimeout,
		url:          url,
		Exchange:     exchange,
	}

	for _, opt := range opts {
		opt(r)
	}

	var err error
	for r.connAttempts > 0 {
		err = r.connect()
		if err == nil {
			break
		}

		log.Printf("RabbitMQ is trying to connect, attempts left: %d", r.connAttempts)

		time.Sleep(r.connTimeout)

		r.connAttempts--
	}

	if err != nil {
		return nil, fmt.Errorf("RabbitMQ - New - connAttempts == 0: %w", err)
	}

	err = r.Ch.ExchangeDeclare(
		r.Exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("RabbitMQ - New - r.Ch.ExchangeDeclare: %w", err)
	}

	return r, nil
}

func (r *RabbitMQ) connect() error {
	conn, err := amqp.Dial(r.url)
	if err != nil {
		return fmt.Errorf("RabbitMQ - amqp.Dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()

		return fmt.Errorf("RabbitMQ - conn.Channel: %w", err)
	}

	r.Conn = conn
	r.Ch = ch

	return nil
}

func (r *RabbitMQ) Close() error {
	if r.Ch != nil {
		if err := r.Ch.Close(); err != nil {
			return fmt.Errorf("RabbitMQ - Close - r.Ch.Close: %w", err)
		}
	}

	if r.Conn != nil {
		if err := r.Conn.Close(); err != nil {
			return fmt.Errorf("RabbitMQ - Close - r.Conn.Close: %w", err)
		}
	}

	return nil
}
