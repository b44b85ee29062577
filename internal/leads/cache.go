package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"prospect-composer/internal/models"
)

const cacheKeyPrefix = "lead:"

// DefaultCacheTTL applies when the config leaves the TTL unset.
const DefaultCacheTTL = 10 * time.Minute

// Cache keeps whole lead documents in Redis under lead:<id>.
type Cache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewCache(client redis.Cmdable, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func cacheKey(leadID string) string {
	return cacheKeyPrefix + leadID
}

// Get reports found=false on a miss.
func (c *Cache) Get(ctx context.Context, leadID string) (*models.Lead, bool, error) {
	raw, err := c.client.Get(ctx, cacheKey(leadID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	var lead models.Lead
	if err := json.Unmarshal(raw, &lead); err != nil {
		return nil, false, fmt.Errorf("cache decode: %w", err)
	}
	return &lead, true, nil
}

func (c *Cache) Set(ctx context.Context, lead *models.Lead) error {
	raw, err := json.Marshal(lead)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(lead.LeadID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (c *Cache) Invalidate(ctx context.Context, leadID string) error {
	if err := c.client.Del(ctx, cacheKey(leadID)).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}
