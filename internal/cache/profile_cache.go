package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/5-VED/nest-notification-svc/internal/model"
	"github.com/5-VED/nest-notification-svc/internal/retry"
)

// profileTTL bounds how long a recipient profile lookup is cached in front
// of the external system-of-record, per SPEC_FULL §3.
const profileTTL = 60 * time.Second

// ProfileCache fronts recipient-profile lookups with Redis, mirroring the
// teacher's cache-then-store pattern in service.GetNotificationStatusByID.
type ProfileCache struct {
	rdb *redis.Client
}

// NewProfileCache wraps an open Redis client.
func NewProfileCache(rdb *redis.Client) *ProfileCache {
	return &ProfileCache{rdb: rdb}
}

// Get returns the cached profile for userID, or (zero, false) on a miss.
// Cache errors degrade to a miss rather than propagating, matching the
// resolver's read-degrades-to-empty policy.
func (c *ProfileCache) Get(ctx context.Context, userID string) (model.RecipientProfile, bool) {
	raw, err := c.rdb.Get(ctx, profileKey(userID)).Result()
	if err != nil {
		return model.RecipientProfile{}, false
	}

	var p model.RecipientProfile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return model.RecipientProfile{}, false
	}

	return p, true
}

// Set caches a profile with the profile TTL, retrying transient Redis
// failures with the given strategy. A write failure here is logged by the
// caller, not surfaced, since the cache is an optimisation.
func (c *ProfileCache) Set(ctx context.Context, strategy retry.Strategy, p model.RecipientProfile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	return retry.Do(ctx, strategy, func() error {
		return c.rdb.Set(ctx, profileKey(p.UserID), raw, profileTTL).Err()
	})
}

func profileKey(userID string) string {
	return "notify:profile:" + userID
}

// IsMiss reports whether err represents a cache miss (as opposed to a
// genuine Redis failure).
func IsMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}
