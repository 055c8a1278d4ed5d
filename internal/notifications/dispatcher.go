package notifications

import (
	"context"
	"sync"
	"time"

	"ebooking/pkg/logger"
)

// Notifier accepts events without blocking the caller. Delivery is best
// effort and its failures never reach the caller.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}

type Noop struct{}

func (Noop) Notify(context.Context, Event) {}

// Sink delivers one event to an external channel.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, e Event) error
}

type DispatcherConfig struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

// Dispatcher queues events on a bounded channel drained by a fixed pool of
// workers. A full queue drops the event with a warning.
type Dispatcher struct {
	sink    Sink
	queue   chan Event
	timeout time.Duration
	log     *logger.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(sink Sink, cfg DispatcherConfig, log *logger.Logger) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	d := &Dispatcher{
		sink:    sink,
		queue:   make(chan Event, cfg.QueueSize),
		timeout: cfg.Timeout,
		log:     log.Component("notifications"),
	}

	d.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go d.worker()
	}

	d.log.Info("Notification dispatcher started",
		"sink", sink.Name(),
		"workers", cfg.Workers,
		"queue_size", cfg.QueueSize,
	)
	return d
}

func (d *Dispatcher) Notify(_ context.Context, e Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.log.Warn("Notification dropped, dispatcher closed", "event_id", e.ID, "type", e.Type)
		return
	}

	select {
	case d.queue <- e:
	default:
		d.log.Warn("Notification dropped, queue full", "event_id", e.ID, "type", e.Type)
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for e := range d.queue {
		d.deliver(e)
	}
}

// Workers use their own context: the request that produced the event has
// usually finished by the time it is delivered.
func (d *Dispatcher) deliver(e Event) {
	ctx := context.Background()
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	if err := d.sink.Deliver(ctx, e); err != nil {
		d.log.Error("Notification delivery failed",
			"event_id", e.ID,
			"type", e.Type,
			"sink", d.sink.Name(),
			"error", err,
		)
		return
	}
	d.log.Debug("Notification delivered", "event_id", e.ID, "type", e.Type, "sink", d.sink.Name())
}

// Close stops accepting events and waits for queued ones to be delivered or
// for ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.log.Info("Notification dispatcher drained")
		return nil
	case <-ctx.Done():
		d.log.Warn("Notification dispatcher closed before draining", "pending", len(d.queue))
		return ctx.Err()
	}
}
