package clicks

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/avtorres/shortlink/internal"
)

// CountStore applies batched click-count increments to the durable store.
type CountStore interface {
	AddClickCounts(ctx context.Context, counts map[string]int64) error
}

// CountConsumer drains click-count events from the queue and folds them into
// links.click_count, batching by size and by time. Batches are acked only
// after the increments commit; failed batches are requeued.
type CountConsumer struct {
	store         CountStore
	batchSize     int
	flushInterval time.Duration
}

func NewCountConsumer(store CountStore, batchSize int, flushInterval time.Duration) *CountConsumer {
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = 2 * time.Second
	}
	return &CountConsumer{store: store, batchSize: batchSize, flushInterval: flushInterval}
}

// Run blocks until ctx is cancelled or the delivery channel closes. Any
// buffered batch is flushed before returning.
func (c *CountConsumer) Run(ctx context.Context, msgs <-chan amqp091.Delivery) {
	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	var events []internal.ClickCountEvent
	var deliveries []amqp091.Delivery

	flush := func() {
		c.flush(ctx, events, deliveries)
		events, deliveries = nil, nil
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return

		case d, ok := <-msgs:
			if !ok {
				slog.Warn("click queue channel closed")
				flush()
				return
			}
			var event internal.ClickCountEvent
			if err := json.Unmarshal(d.Body, &event); err != nil {
				slog.Error("dropping undecodable click count event", "err", err)
				d.Reject(false)
				continue
			}
			events = append(events, event)
			deliveries = append(deliveries, d)

			if len(events) >= c.batchSize {
				flush()
				ticker.Reset(c.flushInterval)
			}

		case <-ticker.C:
			if len(events) > 0 {
				flush()
			}
		}
	}
}

func (c *CountConsumer) flush(ctx context.Context, events []internal.ClickCountEvent, deliveries []amqp091.Delivery) {
	if len(events) == 0 {
		return
	}

	counts := make(map[string]int64)
	for _, event := range events {
		counts[event.ShortCode] += event.Clicks
	}

	if err := c.store.AddClickCounts(ctx, counts); err != nil {
		slog.Error("click count batch failed, requeueing", "events", len(events), "err", err)
		for _, d := range deliveries {
			d.Nack(false, true)
		}
		return
	}

	for _, d := range deliveries {
		d.Ack(false)
	}
	slog.Info("click count batch applied", "events", len(events), "codes", len(counts))
}
