package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/users-api/internal/models"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	calls []published
	err   error
}

func (f *fakeChannel) Publish(exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func TestPublishMessage(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ch := &fakeChannel{}
		require.NoError(t, PublishMessage(ch, "users", "user.created", map[string]int{"id": 1}))

		require.Len(t, ch.calls, 1)
		assert.Equal(t, "users", ch.calls[0].exchange)
		assert.Equal(t, "user.created", ch.calls[0].key)
		assert.Equal(t, "application/json", ch.calls[0].msg.ContentType)
		assert.Equal(t, amqp.Persistent, ch.calls[0].msg.DeliveryMode)
		assert.JSONEq(t, `{"id":1}`, string(ch.calls[0].msg.Body))
	})

	t.Run("marshal error", func(t *testing.T) {
		ch := &fakeChannel{}
		err := PublishMessage(ch, "users", "user.created", make(chan int))
		assert.Error(t, err)
		assert.Empty(t, ch.calls)
	})

	t.Run("channel error", func(t *testing.T) {
		ch := &fakeChannel{err: errors.New("channel closed")}
		err := PublishMessage(ch, "users", "user.created", "payload")
		assert.ErrorContains(t, err, "channel closed")
	})
}

func TestPublisher_PublishUserCreated(t *testing.T) {
	ch := &fakeChannel{}
	p := NewPublisher(ch, "users", "user.created")

	event := models.UserCreatedEvent{
		UID:       "550e8400-e29b-41d4-a716-446655440000",
		Email:     "test@example.com",
		Zip:       "78705",
		State:     "TX",
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.PublishUserCreated(context.Background(), event))
	require.Len(t, ch.calls, 1)

	var got models.UserCreatedEvent
	require.NoError(t, json.Unmarshal(ch.calls[0].msg.Body, &got))
	assert.Equal(t, event, got)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.PublishUserCreated(ctx, event), context.Canceled)
	assert.Len(t, ch.calls, 1)
}
