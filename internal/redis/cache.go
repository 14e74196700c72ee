package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jypsi/cabs/internal/domain"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Cache TTL constants
const (
	// RateCacheTTL is long: rate tables change through rare staff edits.
	RateCacheTTL = 10 * time.Minute
)

// Key prefixes
const (
	rateCachePrefix = "cache:rate:"
)

func rateCacheKey(code, category string) string {
	return rateCachePrefix + code + ":" + category
}

// GetRate retrieves a rate from cache. A nil rate with nil error is a miss.
func (s *CacheStore) GetRate(ctx context.Context, code, category string) (*domain.Rate, error) {
	data, err := s.client.Get(ctx, rateCacheKey(code, category)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var rate domain.Rate
	if err := json.Unmarshal(data, &rate); err != nil {
		return nil, err
	}
	return &rate, nil
}

// SetRate stores a rate in cache.
func (s *CacheStore) SetRate(ctx context.Context, rate *domain.Rate) error {
	data, err := json.Marshal(rate)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, rateCacheKey(rate.Code, rate.VehicleCategory), data, RateCacheTTL).Err()
}

// InvalidateRate removes a rate from cache.
func (s *CacheStore) InvalidateRate(ctx context.Context, code, category string) error {
	return s.client.Del(ctx, rateCacheKey(code, category)).Err()
}
