package notifications

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	closed bool
}

func (c *fakeConn) IsClosed() bool { return c.closed }

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

type fakeChannel struct {
	published []amqp.Publishing
	err       error
	closed    bool
}

func (c *fakeChannel) PublishWithContext(_ context.Context, _, _ string, _, _ bool, msg amqp.Publishing) error {
	if c.err != nil {
		return c.err
	}
	c.published = append(c.published, msg)
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

type fakeBroker struct {
	dials    int
	dialErr  error
	conns    []*fakeConn
	channels []*fakeChannel
}

func (b *fakeBroker) dial() (brokerConn, brokerChannel, error) {
	b.dials++
	if b.dialErr != nil {
		return nil, nil, b.dialErr
	}
	conn, ch := &fakeConn{}, &fakeChannel{}
	b.conns = append(b.conns, conn)
	b.channels = append(b.channels, ch)
	return conn, ch, nil
}

func newTestAMQPNotifier(t *testing.T, b *fakeBroker) *AMQPNotifier {
	t.Helper()
	n := &AMQPNotifier{queue: "registrations", dial: b.dial}
	n.mu.Lock()
	require.NoError(t, n.connectLocked())
	n.mu.Unlock()
	return n
}

var sampleRegistration = RegistrationCreated{RegistrationID: "r1", UserID: "u1", EventID: "e1"}

func TestAMQPNotifier_RedialsAfterConnectionDrop(t *testing.T) {
	b := &fakeBroker{}
	n := newTestAMQPNotifier(t, b)

	require.NoError(t, n.RegistrationCreated(context.Background(), sampleRegistration))
	require.Len(t, b.channels[0].published, 1)
	require.Equal(t, TypeRegistrationCreated, b.channels[0].published[0].Type)

	// broker restarts
	b.conns[0].closed = true

	require.NoError(t, n.RegistrationCreated(context.Background(), sampleRegistration))
	require.Equal(t, 2, b.dials)
	require.True(t, b.channels[0].closed)
	require.Len(t, b.channels[1].published, 1)
}

func TestAMQPNotifier_ClosedChannelForcesRedial(t *testing.T) {
	b := &fakeBroker{}
	n := newTestAMQPNotifier(t, b)

	b.channels[0].err = amqp.ErrClosed
	require.ErrorIs(t, n.RegistrationCreated(context.Background(), sampleRegistration), amqp.ErrClosed)

	require.NoError(t, n.RegistrationCreated(context.Background(), sampleRegistration))
	require.Equal(t, 2, b.dials)
	require.Len(t, b.channels[1].published, 1)
}

func TestAMQPNotifier_DialFailureSurfacesAndRetries(t *testing.T) {
	b := &fakeBroker{}
	n := newTestAMQPNotifier(t, b)

	b.conns[0].closed = true
	b.dialErr = errors.New("connection refused")
	require.Error(t, n.RegistrationCreated(context.Background(), sampleRegistration))

	b.dialErr = nil
	require.NoError(t, n.RegistrationCreated(context.Background(), sampleRegistration))
	require.Equal(t, 3, b.dials)
	require.NoError(t, n.Close())
}
