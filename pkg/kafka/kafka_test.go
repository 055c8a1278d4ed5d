package kafka

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageBuilder(t *testing.T) {
	ts := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	msg, err := NewMessage().
		WithKey("acc-1").
		WithValue(map[string]string{"type": "BOOKING_CREATED"}).
		WithEventType("BOOKING_CREATED").
		WithSource("bookings").
		WithTimestamp(ts).
		Build()

	require.NoError(t, err)
	assert.Equal(t, "acc-1", msg.Key)
	assert.JSONEq(t, `{"type":"BOOKING_CREATED"}`, string(msg.Value))
	assert.NotEmpty(t, msg.GetEventID())
	assert.Equal(t, "BOOKING_CREATED", msg.GetEventType())
	assert.Equal(t, "2026-01-05T10:00:00Z", msg.Headers[HeaderTimestamp])
}

func TestMessageBuilder_EncodingError(t *testing.T) {
	_, err := NewMessage().WithKey("k").WithValue(make(chan int)).Build()
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestRetryCount(t *testing.T) {
	msg := Message{}
	assert.Equal(t, 0, msg.GetRetryCount())
	for i := 0; i < 12; i++ {
		msg.IncrementRetryCount()
	}
	assert.Equal(t, 12, msg.GetRetryCount())
	assert.Equal(t, "12", msg.Headers[HeaderRetryCount])
}

func TestKafkaMessageRoundTripKeepsHeaders(t *testing.T) {
	in := Message{Key: "k", Value: []byte("v"), Headers: map[string]string{HeaderEventID: "e-1"}}
	km := toKafkaMessage(in)
	km.Topic = "ebooking.notifications"
	km.Offset = 42

	out := fromKafkaMessage(km)
	assert.Equal(t, "e-1", out.GetEventID())
	assert.Equal(t, int64(42), out.Offset)
	assert.Equal(t, "ebooking.notifications", out.Topic)
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorType
	}{
		{nil, ErrorTypeUnknown},
		{NewTransientError("telegram down", errors.New("503")), ErrorTypeTransient},
		{fmt.Errorf("wrapped: %w", NewPermanentError("bad payload", nil)), ErrorTypePermanent},
		{errors.New("dial tcp: Connection Refused"), ErrorTypeTransient},
		{context.DeadlineExceeded, ErrorTypeTransient},
		{errors.New("json: cannot unmarshal"), ErrorTypePermanent},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyError(tt.err), "%v", tt.err)
	}
}

func TestShouldRetry(t *testing.T) {
	transient := NewTransientError("timeout", nil)
	assert.True(t, ShouldRetry(transient, 0, 3))
	assert.False(t, ShouldRetry(transient, 3, 3))
	assert.False(t, ShouldRetry(NewPermanentError("bad", nil), 0, 3))
}

func TestProcessMessage_RetriesTransientThenSucceeds(t *testing.T) {
	calls := 0
	c := &Consumer{
		maxRetries: 3,
		handler: func(ctx context.Context, msg Message) error {
			calls++
			if calls < 2 {
				return NewTransientError("flaky", nil)
			}
			return nil
		},
		log: testLogger(),
	}

	err := c.processMessage(context.Background(), Message{Headers: map[string]string{}})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestProcessMessage_PermanentIsNotRetried(t *testing.T) {
	calls := 0
	c := &Consumer{
		maxRetries: 3,
		handler: func(ctx context.Context, msg Message) error {
			calls++
			return NewPermanentError("malformed", nil)
		},
		log: testLogger(),
	}

	err := c.processMessage(context.Background(), Message{Headers: map[string]string{}})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestProcessMessage_MiddlewareOrder(t *testing.T) {
	var order []string
	c := &Consumer{
		handler: func(ctx context.Context, msg Message) error {
			order = append(order, "handler")
			return nil
		},
		log: testLogger(),
	}
	c.Use(func(ctx context.Context, msg Message, next MessageHandler) error {
		order = append(order, "outer")
		return next(ctx, msg)
	})
	c.Use(func(ctx context.Context, msg Message, next MessageHandler) error {
		order = append(order, "inner")
		return next(ctx, msg)
	})

	require.NoError(t, c.processMessage(context.Background(), Message{Headers: map[string]string{}}))
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}
