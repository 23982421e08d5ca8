package notifications

import (
	"context"
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Delivery is one broker message with its settlement callbacks.
type Delivery struct {
	Type string
	Body []byte
	Ack  func() error
	Nack func(requeue bool) error
}

// AMQPConsumer reads the queue AMQPNotifier publishes to, with manual acks.
type AMQPConsumer struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	queue    string
	tag      string
	prefetch int
}

func NewAMQPConsumer(url, queue, tag string, prefetch int) (*AMQPConsumer, error) {
	conn, ch, err := dialQueue(url, queue)
	if err != nil {
		return nil, err
	}
	if prefetch <= 0 {
		prefetch = 1
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &AMQPConsumer{conn: conn, ch: ch, queue: queue, tag: tag, prefetch: prefetch}, nil
}

// Deliveries starts consuming. The returned channel closes when ctx is done or
// the broker closes the channel.
func (c *AMQPConsumer) Deliveries(ctx context.Context) (<-chan Delivery, error) {
	msgs, err := c.ch.Consume(
		c.queue,
		c.tag,
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		return nil, err
	}

	out := make(chan Delivery)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				_ = c.ch.Cancel(c.tag, false)
				return
			case d, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- Delivery{
					Type: d.Type,
					Body: d.Body,
					Ack:  func() error { return d.Ack(false) },
					Nack: func(requeue bool) error { return d.Nack(false, requeue) },
				}:
				case <-ctx.Done():
					_ = d.Nack(false, true)
					_ = c.ch.Cancel(c.tag, false)
					return
				}
			}
		}
	}()

	return out, nil
}

// Ping reports whether the broker connection is still open.
func (c *AMQPConsumer) Ping(context.Context) error {
	if c.conn == nil || c.conn.IsClosed() {
		return errors.New("amqp connection closed")
	}
	return nil
}

func (c *AMQPConsumer) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
