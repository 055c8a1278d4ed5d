package notifications

import (
	"context"
	"fmt"

	"ebooking/pkg/kafka"
)

const schemaVersion = "1"

type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// KafkaSink publishes events as JSON so a separate notifier process can
// deliver them.
type KafkaSink struct {
	publisher Publisher
	source    string
}

func NewKafkaSink(publisher Publisher, source string) *KafkaSink {
	return &KafkaSink{publisher: publisher, source: source}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Deliver(ctx context.Context, e Event) error {
	msg, err := kafka.NewMessage().
		WithKey(e.Key()).
		WithValue(e).
		WithEventID(e.ID).
		WithEventType(string(e.Type)).
		WithSchemaVersion(schemaVersion).
		WithSource(s.source).
		WithTimestamp(e.OccurredAt).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build notification message: %w", err)
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}
