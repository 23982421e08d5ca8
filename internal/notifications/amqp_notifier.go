package notifications

import (
	"context"
	"errors"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPNotifier publishes events as persistent JSON messages on a durable queue
// through the default exchange. A dropped connection is redialed on the next send.
type AMQPNotifier struct {
	mu    sync.Mutex
	dial  func() (brokerConn, brokerChannel, error)
	conn  brokerConn
	ch    brokerChannel
	queue string
}

type brokerConn interface {
	IsClosed() bool
	Close() error
}

type brokerChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

func NewAMQPNotifier(url, queue string) (*AMQPNotifier, error) {
	n := &AMQPNotifier{queue: queue, dial: func() (brokerConn, brokerChannel, error) {
		conn, ch, err := dialQueue(url, queue)
		if err != nil {
			return nil, nil, err
		}
		return conn, ch, nil
	}}

	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.connectLocked(); err != nil {
		return nil, err
	}
	return n, nil
}

// connectLocked redials when there is no live connection. Callers hold mu.
func (n *AMQPNotifier) connectLocked() error {
	if n.conn != nil && !n.conn.IsClosed() {
		return nil
	}
	n.dropLocked()

	conn, ch, err := n.dial()
	if err != nil {
		return err
	}
	n.conn, n.ch = conn, ch
	return nil
}

func (n *AMQPNotifier) dropLocked() {
	if n.ch != nil {
		_ = n.ch.Close()
	}
	if n.conn != nil {
		_ = n.conn.Close()
	}
	n.conn, n.ch = nil, nil
}

// dialQueue opens a channel and declares the durable queue both sides share.
func dialQueue(url, queue string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	_, err = ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}

func (n *AMQPNotifier) RegistrationCreated(ctx context.Context, msg RegistrationCreated) error {
	b, err := EncodeRegistrationCreated(msg)
	if err != nil {
		return err
	}
	return n.publish(ctx, TypeRegistrationCreated, b)
}

func (n *AMQPNotifier) publish(ctx context.Context, msgType string, b []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.connectLocked(); err != nil {
		return err
	}

	err := n.ch.PublishWithContext(ctx,
		"",      // default exchange
		n.queue, // routing key = queue
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Type:         msgType,
			Timestamp:    time.Now().UTC(),
			Body:         b,
		},
	)
	if errors.Is(err, amqp.ErrClosed) {
		// channel died under a live connection; start over next time
		n.dropLocked()
	}
	return err
}

func (n *AMQPNotifier) Close() error {
	if n == nil {
		return nil
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dropLocked()
	return nil
}
