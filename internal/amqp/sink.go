package amqp

import (
	"context"
	"log/slog"
)

// Sink adapts the publisher to the debounced refresh fan-out. Publish
// failures are logged and swallowed so a broker outage never blocks
// ledger writes.
type Sink struct {
	client       *Client
	currentMonth func() string
}

func NewSink(client *Client, currentMonth func() string) *Sink {
	return &Sink{client: client, currentMonth: currentMonth}
}

func (s *Sink) Refresh(ctx context.Context) {
	month := s.currentMonth()
	if err := s.client.PublishRefresh(ctx, month); err != nil {
		slog.WarnContext(ctx, "Failed to publish refresh event",
			"month", month,
			"error", err)
	}
}
