package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache keeps tier sets hot in Redis so price resolution avoids a query
// per quotation line. Invalidated whenever an item or its tiers change.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func tierKey(itemID int64) string {
	return fmt.Sprintf("pricing:tiers:%d", itemID)
}

// FetchTiers loads tiers from cache or populates via the loader.
func (c *Cache) FetchTiers(ctx context.Context, itemID int64, loader func(context.Context) ([]Tier, error)) ([]Tier, error) {
	if loader == nil {
		return nil, errors.New("pricing: cache loader required")
	}
	if c == nil || c.client == nil {
		return loader(ctx)
	}

	key := tierKey(itemID)
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var tiers []Tier
		if err := json.Unmarshal(raw, &tiers); err == nil {
			return tiers, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		return nil, err
	}

	tiers, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	if encoded, err := json.Marshal(tiers); err == nil {
		_ = c.client.Set(ctx, key, encoded, c.ttl).Err()
	}
	return tiers, nil
}

// InvalidateItem drops the cached tiers for an item.
func (c *Cache) InvalidateItem(ctx context.Context, itemID int64) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, tierKey(itemID)).Err()
}
