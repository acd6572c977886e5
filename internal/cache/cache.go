package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/avtorres/shortlink/internal"
)

// ErrMiss is returned by a KV when the key is absent.
var ErrMiss = errors.New("cache miss")

// KV is the volatile store behind the resolution cache.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// LinkSource is the durable fallback consulted on a miss. It stays the
// source of truth: the cache never decides not-found on its own.
type LinkSource interface {
	GetLinkByShortCode(ctx context.Context, shortCode string) (*internal.Link, error)
}

// ResolutionCache implements cache-aside reads over the durable store and
// write-through population on create.
type ResolutionCache struct {
	kv         KV
	links      LinkSource
	defaultTTL time.Duration
	now        func() time.Time
}

func New(kv KV, links LinkSource, defaultTTL time.Duration) *ResolutionCache {
	return &ResolutionCache{
		kv:         kv,
		links:      links,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

const keyPrefix = "url:"

// Resolve returns the original URL for a short code. A hit answers straight
// from the cache; a miss falls back to the durable store, repopulates the
// cache and returns. Inactive, expired and missing links all report
// found == false. Cache read failures degrade to the durable path.
func (c *ResolutionCache) Resolve(ctx context.Context, shortCode string) (originalURL string, found bool, err error) {
	key := keyPrefix + shortCode

	cached, err := c.kv.Get(ctx, key)
	if err == nil {
		return cached, true, nil
	}
	if !errors.Is(err, ErrMiss) {
		slog.Warn("cache read failed, falling back to database", "short_code", shortCode, "err", err)
	}

	link, err := c.links.GetLinkByShortCode(ctx, shortCode)
	if err != nil {
		return "", false, err
	}
	if link == nil || !c.resolvable(link) {
		// Negative results are never cached.
		return "", false, nil
	}

	c.set(ctx, key, link.OriginalURL, link.ExpiresAt)
	return link.OriginalURL, true, nil
}

// Populate pre-warms the cache right after a durable insert. Failures are
// logged and dropped; the record is durable regardless.
func (c *ResolutionCache) Populate(ctx context.Context, link *internal.Link) {
	c.set(ctx, keyPrefix+link.ShortCode, link.OriginalURL, link.ExpiresAt)
}

func (c *ResolutionCache) set(ctx context.Context, key, value string, expiresAt *time.Time) {
	ttl, ok := c.ttlFor(expiresAt)
	if !ok {
		return
	}
	if err := c.kv.Set(ctx, key, value, ttl); err != nil {
		slog.Warn("cache write failed", "key", key, "err", err)
	}
}

// ttlFor bounds a cache entry by the link's own expiry so staleness cannot
// outlive the link. Entries whose remaining lifetime is not positive are not
// cached at all.
func (c *ResolutionCache) ttlFor(expiresAt *time.Time) (time.Duration, bool) {
	if expiresAt == nil {
		return c.defaultTTL, true
	}
	remaining := expiresAt.Sub(c.now())
	if remaining <= 0 {
		return 0, false
	}
	return remaining, true
}

func (c *ResolutionCache) resolvable(link *internal.Link) bool {
	if !link.IsActive {
		return false
	}
	if link.ExpiresAt != nil && link.ExpiresAt.Before(c.now()) {
		return false
	}
	return true
}
