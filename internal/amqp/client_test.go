package amqp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/expense"
)

type fakeChannel struct {
	exchange, key string
	published     []amqp091.Publishing
	err           error
	closed        bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.exchange, f.key = exchange, key
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestNotifyPublishesChange(t *testing.T) {
	ch := &fakeChannel{}
	c := &Client{channel: ch, exchangeName: "tally", queueName: "expense_changes", timeout: time.Second}
	ts := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)

	require.NoError(t, c.Notify(context.Background(), expense.Change{Op: "update", ID: 42, Timestamp: ts}))

	require.Len(t, ch.published, 1)
	assert.Equal(t, "tally", ch.exchange)
	assert.Equal(t, "expense_changes", ch.key)
	pub := ch.published[0]
	assert.Equal(t, "application/json", pub.ContentType)
	assert.Equal(t, amqp091.Persistent, pub.DeliveryMode)
	assert.Equal(t, "expense.update", pub.Type)

	msg, err := ExpenseChangeMessageFromJSON(pub.Body)
	require.NoError(t, err)
	assert.Equal(t, &ExpenseChangeMessage{Op: "update", ID: 42, Timestamp: ts}, msg)

	require.NoError(t, c.Close())
	assert.True(t, ch.closed)
}

func TestNotifyWrapsPublishError(t *testing.T) {
	c := &Client{channel: &fakeChannel{err: errors.New("channel closed")}, timeout: time.Second}
	err := c.Notify(context.Background(), expense.Change{Op: "create", ID: 1})
	assert.ErrorContains(t, err, "publish message: channel closed")
}

func TestNewExpenseChangeMessageDefaultsTimestamp(t *testing.T) {
	msg := NewExpenseChangeMessage(expense.Change{Op: "delete", ID: 3})
	assert.False(t, msg.Timestamp.IsZero())
}
