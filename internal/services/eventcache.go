package services

import (
	"context"
	"time"

	"cardify-api/pkg/logging"

	"github.com/redis/go-redis/v9"
)

// EventCache remembers provider event ids that finished processing, so a
// redelivery can be acknowledged without touching the store. Strictly a fast
// path: the database's unique constraints remain the real idempotency
// mechanism, which is why a cache miss (or no Redis at all) is always safe.
type EventCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewEventCache wraps a Redis client; a nil client yields a cache whose
// methods are no-ops.
func NewEventCache(client *redis.Client) *EventCache {
	return &EventCache{
		client: client,
		ttl:    24 * time.Hour,
	}
}

func (c *EventCache) key(eventID string) string {
	return "webhook_event:" + eventID
}

// Seen reports whether the event id was already fully processed.
func (c *EventCache) Seen(ctx context.Context, eventID string) bool {
	if c == nil || c.client == nil || eventID == "" {
		return false
	}
	exists, err := c.client.Exists(ctx, c.key(eventID)).Result()
	if err != nil {
		logging.Warnf("event cache lookup failed for %s: %v", eventID, err)
		return false
	}
	return exists > 0
}

// MarkProcessed records the event id. Called only after the handler
// succeeded; a crash before this point leaves the id unmarked so the
// provider's retry reprocesses it.
func (c *EventCache) MarkProcessed(ctx context.Context, eventID string) {
	if c == nil || c.client == nil || eventID == "" {
		return
	}
	if err := c.client.Set(ctx, c.key(eventID), "1", c.ttl).Err(); err != nil {
		logging.Warnf("event cache write failed for %s: %v", eventID, err)
	}
}
