package clicks

import (
	"context"
	"log/slog"
	"time"

	"github.com/avtorres/shortlink/internal"
)

// LinkLookup resolves a short code to its durable link record.
type LinkLookup interface {
	GetLinkByShortCode(ctx context.Context, shortCode string) (*internal.Link, error)
}

// ClickStore persists raw click rows.
type ClickStore interface {
	CreateClick(ctx context.Context, click *internal.Click) error
}

// CountPublisher hands click-count events to the aggregation pipeline.
type CountPublisher interface {
	PublishClickCount(ctx context.Context, event internal.ClickCountEvent) error
}

// Event is one observed resolution, as seen by the HTTP layer.
type Event struct {
	ShortCode   string
	IPAddress   string
	UserAgent   string
	Referer     *string
	CountryCode *string
}

// Recorder writes click records off the redirect hot path. Every failure in
// here is logged and dropped; nothing propagates back to the caller.
type Recorder struct {
	links     LinkLookup
	clicks    ClickStore
	publisher CountPublisher
	timeout   time.Duration
}

func NewRecorder(links LinkLookup, clicks ClickStore, publisher CountPublisher) *Recorder {
	return &Recorder{
		links:     links,
		clicks:    clicks,
		publisher: publisher,
		timeout:   5 * time.Second,
	}
}

// RecordAsync dispatches Record on its own goroutine with a fresh context,
// so the redirect response never waits on it and request teardown cannot
// cancel it mid-write.
func (r *Recorder) RecordAsync(event Event) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		r.Record(ctx, event)
	}()
}

// Record looks up the link, inserts the click row and publishes the count
// event. The link may have disappeared between resolution and logging; that
// is a warning, not an error.
func (r *Recorder) Record(ctx context.Context, event Event) {
	link, err := r.links.GetLinkByShortCode(ctx, event.ShortCode)
	if err != nil {
		slog.Error("click logging: link lookup failed", "short_code", event.ShortCode, "err", err)
		return
	}
	if link == nil {
		slog.Warn("click logging: short code does not exist", "short_code", event.ShortCode)
		return
	}

	click := &internal.Click{
		LinkID:      link.ID,
		IPAddress:   event.IPAddress,
		UserAgent:   event.UserAgent,
		Referer:     event.Referer,
		CountryCode: event.CountryCode,
		CreatedAt:   time.Now(),
	}
	if err := r.clicks.CreateClick(ctx, click); err != nil {
		slog.Error("click logging: insert failed", "short_code", event.ShortCode, "err", err)
		return
	}

	if r.publisher == nil {
		return
	}
	countEvent := internal.ClickCountEvent{
		ShortCode: event.ShortCode,
		Clicks:    1,
		Timestamp: click.CreatedAt,
	}
	if err := r.publisher.PublishClickCount(ctx, countEvent); err != nil {
		slog.Error("click logging: publish failed", "short_code", event.ShortCode, "err", err)
	}
}
