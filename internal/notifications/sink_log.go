package notifications

import (
	"context"
	"strings"

	"ebooking/pkg/logger"
)

// LogSink writes rendered notifications to the service log. Used when no
// external channel is configured.
type LogSink struct {
	log *logger.Logger
}

func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Deliver(_ context.Context, e Event) error {
	s.log.Info("Notification",
		"event_id", e.ID,
		"type", e.Type,
		"text", strings.Join(Render(e), "\n"),
	)
	return nil
}
