package notifications

import (
	"context"
	"fmt"

	"ebooking/pkg/kafka"
	"ebooking/pkg/logger"
)

// Relay consumes published events and hands them to a sink. Bad payloads are
// permanent failures; sink errors are transient so the consumer retries.
type Relay struct {
	sink Sink
	log  *logger.Logger
}

func NewRelay(sink Sink, log *logger.Logger) *Relay {
	return &Relay{sink: sink, log: log.Component("relay")}
}

func (r *Relay) Handle(ctx context.Context, msg kafka.Message) error {
	var e Event
	if err := msg.DecodeValue(&e); err != nil {
		return kafka.NewPermanentError("malformed notification payload", err)
	}
	if !e.Type.IsValid() {
		return kafka.NewPermanentError(fmt.Sprintf("unknown notification type %q", e.Type), nil)
	}

	if err := r.sink.Deliver(ctx, e); err != nil {
		return kafka.NewTransientError("notification delivery failed", err)
	}
	r.log.Debug("Notification relayed", "event_id", e.ID, "type", e.Type, "sink", r.sink.Name())
	return nil
}
