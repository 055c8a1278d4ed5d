package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ebooking/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSink struct {
	mu        sync.Mutex
	delivered []Event
	deliverFn func(ctx context.Context, e Event) error
}

func (m *mockSink) Name() string { return "mock" }

func (m *mockSink) Deliver(ctx context.Context, e Event) error {
	if m.deliverFn != nil {
		if err := m.deliverFn(ctx, e); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delivered = append(m.delivered, e)
	return nil
}

func (m *mockSink) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.delivered)
}

func TestDispatcher_DeliversAndDrains(t *testing.T) {
	sink := &mockSink{}
	d := NewDispatcher(sink, DispatcherConfig{Workers: 2, QueueSize: 10, Timeout: time.Second}, logger.Discard())

	for i := 0; i < 5; i++ {
		d.Notify(context.Background(), AccommodationCreated(occurred, sampleAccommodation()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))
	assert.Equal(t, 5, sink.count())
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	sink := &mockSink{deliverFn: func(ctx context.Context, e Event) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return nil
	}}
	d := NewDispatcher(sink, DispatcherConfig{Workers: 1, QueueSize: 1}, logger.Discard())

	d.Notify(context.Background(), AccommodationCreated(occurred, nil))
	<-started // worker is busy with the first event
	d.Notify(context.Background(), AccommodationCreated(occurred, nil))
	d.Notify(context.Background(), AccommodationCreated(occurred, nil))

	close(release)
	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, 2, sink.count())
}

func TestDispatcher_SinkErrorDoesNotStopWorkers(t *testing.T) {
	calls := 0
	var mu sync.Mutex
	sink := &mockSink{deliverFn: func(ctx context.Context, e Event) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			return errors.New("boom")
		}
		return nil
	}}
	d := NewDispatcher(sink, DispatcherConfig{Workers: 1, QueueSize: 5}, logger.Discard())
	d.Notify(context.Background(), AccommodationCreated(occurred, nil))
	d.Notify(context.Background(), AccommodationCreated(occurred, nil))

	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, 1, sink.count())
}

func TestDispatcher_NotifyAfterClose(t *testing.T) {
	sink := &mockSink{}
	d := NewDispatcher(sink, DispatcherConfig{}, logger.Discard())
	require.NoError(t, d.Close(context.Background()))
	require.NoError(t, d.Close(context.Background()))

	assert.NotPanics(t, func() {
		d.Notify(context.Background(), AccommodationCreated(occurred, nil))
	})
	assert.Equal(t, 0, sink.count())
}
