package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	domainlistings "homestay/internal/domain/listings"
)

const keyPrefix = "availability:unavailable:"

// AvailabilityCache stores the per-listing unavailable-day expansion as a
// JSON array of YYYY-MM-DD strings. Cache failures degrade to misses; the
// store stays the source of truth.
type AvailabilityCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewAvailabilityCache(client *redis.Client, ttl time.Duration) *AvailabilityCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &AvailabilityCache{Client: client, TTL: ttl}
}

func (c *AvailabilityCache) Get(ctx context.Context, listingID domainlistings.ListingID) ([]time.Time, bool, error) {
	if c.Client == nil {
		return nil, false, nil
	}
	raw, err := c.Client.Get(ctx, cacheKey(listingID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, nil
	}
	var encoded []string
	if err := json.Unmarshal([]byte(raw), &encoded); err != nil {
		return nil, false, nil
	}
	days := make([]time.Time, 0, len(encoded))
	for _, s := range encoded {
		day, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, false, nil
		}
		days = append(days, day)
	}
	return days, true, nil
}

func (c *AvailabilityCache) Set(ctx context.Context, listingID domainlistings.ListingID, days []time.Time) error {
	if c.Client == nil {
		return nil
	}
	encoded := make([]string, 0, len(days))
	for _, day := range days {
		encoded = append(encoded, day.UTC().Format("2006-01-02"))
	}
	raw, err := json.Marshal(encoded)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, cacheKey(listingID), raw, c.TTL).Err()
}

func (c *AvailabilityCache) Invalidate(ctx context.Context, listingID domainlistings.ListingID) error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Del(ctx, cacheKey(listingID)).Err()
}

func cacheKey(id domainlistings.ListingID) string {
	return keyPrefix + string(id)
}
