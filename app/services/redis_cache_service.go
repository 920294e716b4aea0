package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Alex-AIMS/nz-addresses/app/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisCacheService is the Redis result cache
type RedisCacheService struct {
	client *redis.Client
	logger *zap.Logger
	prefix string
	ttl    time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedisCacheService connects to Redis
func NewRedisCacheService(redisURL string, ttl time.Duration, logger *zap.Logger) (*RedisCacheService, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cannot connect to Redis: %w", err)
	}

	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &RedisCacheService{
		client: client,
		logger: logger,
		prefix: "nzaddr:verify:",
		ttl:    ttl,
	}, nil
}

// Get returns the cached result for key
func (rcs *RedisCacheService) Get(ctx context.Context, key string) (*models.MatchResult, bool, error) {
	cacheKey := rcs.prefix + key

	val, err := rcs.client.Get(ctx, cacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		rcs.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		rcs.logger.Error("Redis get failed", zap.Error(err), zap.String("key", cacheKey))
		return nil, false, err
	}

	var result models.MatchResult
	if err := json.Unmarshal(val, &result); err != nil {
		rcs.logger.Error("Cannot decode cached result", zap.Error(err))
		return nil, false, err
	}

	rcs.hits.Add(1)
	rcs.logger.Debug("Redis cache hit", zap.String("key", key))
	return &result, true, nil
}

// Set stores result with the service TTL
func (rcs *RedisCacheService) Set(ctx context.Context, key string, result *models.MatchResult) error {
	cacheKey := rcs.prefix + key

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode cached result: %w", err)
	}

	if err := rcs.client.Set(ctx, cacheKey, data, rcs.ttl).Err(); err != nil {
		rcs.logger.Error("Redis set failed", zap.Error(err), zap.String("key", cacheKey))
		return err
	}

	rcs.logger.Debug("Stored in Redis cache", zap.String("key", key))
	return nil
}

// Delete removes key
func (rcs *RedisCacheService) Delete(ctx context.Context, key string) error {
	return rcs.client.Del(ctx, rcs.prefix+key).Err()
}

// scanKeys walks the keys under the service prefix without blocking the server
func (rcs *RedisCacheService) scanKeys(ctx context.Context, fn func(keys []string) error) error {
	var cursor uint64
	for {
		keys, next, err := rcs.client.Scan(ctx, cursor, rcs.prefix+"*", 500).Result()
		if err != nil {
			return fmt.Errorf("scan keys: %w", err)
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Clear removes every key under the prefix
func (rcs *RedisCacheService) Clear(ctx context.Context) error {
	deleted := 0
	err := rcs.scanKeys(ctx, func(keys []string) error {
		if err := rcs.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("delete keys: %w", err)
		}
		deleted += len(keys)
		return nil
	})
	if err != nil {
		return err
	}

	rcs.hits.Store(0)
	rcs.misses.Store(0)
	rcs.logger.Info("Cleared Redis cache", zap.Int("keys_deleted", deleted))
	return nil
}

// InvalidateByDatasetVersion clears the cache; keys carry no version
func (rcs *RedisCacheService) InvalidateByDatasetVersion(ctx context.Context, datasetVersion string) error {
	return rcs.Clear(ctx)
}

// GetStats returns the counters and the number of cached keys
func (rcs *RedisCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	var items int64
	if err := rcs.scanKeys(ctx, func(keys []string) error {
		items += int64(len(keys))
		return nil
	}); err != nil {
		rcs.logger.Warn("Cannot count Redis keys", zap.Error(err))
	}

	hits, misses := rcs.hits.Load(), rcs.misses.Load()
	return &CacheStats{
		HitRate:    hitRate(hits, misses),
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: items,
	}, nil
}

// Exists reports whether key is cached
func (rcs *RedisCacheService) Exists(ctx context.Context, key string) (bool, error) {
	n, err := rcs.client.Exists(ctx, rcs.prefix+key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetTTL returns the remaining lifetime of key
func (rcs *RedisCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	return rcs.client.TTL(ctx, rcs.prefix+key).Result()
}

// Close closes the Redis client
func (rcs *RedisCacheService) Close() error {
	return rcs.client.Close()
}

// Ping checks the connection
func (rcs *RedisCacheService) Ping(ctx context.Context) error {
	return rcs.client.Ping(ctx).Err()
}
