package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Alex-AIMS/nz-addresses/app/models"
	"go.uber.org/zap"
)

// HybridCacheService layers a fast cache (Redis) over a persistent one (MongoDB)
type HybridCacheService struct {
	l1     ICacheService
	l2     ICacheService
	logger *zap.Logger
}

// NewHybridCacheService creates a hybrid cache
func NewHybridCacheService(l1, l2 ICacheService, logger *zap.Logger) *HybridCacheService {
	return &HybridCacheService{
		l1:     l1,
		l2:     l2,
		logger: logger,
	}
}

// both runs op against the two tiers in parallel and joins their errors
func (hcs *HybridCacheService) both(op func(ICacheService) error) error {
	errCh := make(chan error, 2)
	for _, tier := range []ICacheService{hcs.l1, hcs.l2} {
		go func(tier ICacheService) {
			errCh <- op(tier)
		}(tier)
	}

	var errs []error
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Get reads L1, then L2; an L2 hit is copied back to L1 in the background
func (hcs *HybridCacheService) Get(ctx context.Context, key string) (*models.MatchResult, bool, error) {
	result, found, err := hcs.l1.Get(ctx, key)
	if err != nil {
		hcs.logger.Warn("L1 cache error, falling back to L2", zap.Error(err))
	} else if found {
		hcs.logger.Debug("L1 cache hit", zap.String("key", key))
		return result, true, nil
	}

	result, found, err = hcs.l2.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !found {
		hcs.logger.Debug("Cache miss in both tiers", zap.String("key", key))
		return nil, false, nil
	}

	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := hcs.l1.Set(bgCtx, key, result); err != nil {
			hcs.logger.Warn("Cannot backfill L1", zap.Error(err), zap.String("key", key))
		}
	}()

	hcs.logger.Debug("L2 cache hit", zap.String("key", key))
	return result, true, nil
}

// Set writes both tiers
func (hcs *HybridCacheService) Set(ctx context.Context, key string, result *models.MatchResult) error {
	if err := hcs.both(func(c ICacheService) error { return c.Set(ctx, key, result) }); err != nil {
		hcs.logger.Warn("Hybrid cache write failed", zap.Error(err))
		return fmt.Errorf("cache errors: %w", err)
	}
	return nil
}

// Delete removes key from both tiers
func (hcs *HybridCacheService) Delete(ctx context.Context, key string) error {
	if err := hcs.both(func(c ICacheService) error { return c.Delete(ctx, key) }); err != nil {
		return fmt.Errorf("delete errors: %w", err)
	}
	return nil
}

// Clear empties both tiers
func (hcs *HybridCacheService) Clear(ctx context.Context) error {
	if err := hcs.both(func(c ICacheService) error { return c.Clear(ctx) }); err != nil {
		return fmt.Errorf("clear errors: %w", err)
	}

	hcs.logger.Info("Cleared hybrid cache")
	return nil
}

// InvalidateByDatasetVersion invalidates both tiers
func (hcs *HybridCacheService) InvalidateByDatasetVersion(ctx context.Context, datasetVersion string) error {
	err := hcs.both(func(c ICacheService) error { return c.InvalidateByDatasetVersion(ctx, datasetVersion) })
	if err != nil {
		return fmt.Errorf("invalidate errors: %w", err)
	}

	hcs.logger.Info("Invalidated hybrid cache", zap.String("dataset_version", datasetVersion))
	return nil
}

// GetStats sums the counters of whichever tiers respond
func (hcs *HybridCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	l1Stats, l1Err := hcs.l1.GetStats(ctx)
	l2Stats, l2Err := hcs.l2.GetStats(ctx)

	switch {
	case l1Err != nil && l2Err != nil:
		return nil, fmt.Errorf("both cache tiers failed: %w", errors.Join(l1Err, l2Err))
	case l1Err != nil:
		return l2Stats, nil
	case l2Err != nil:
		return l1Stats, nil
	}

	hits := l1Stats.TotalHits + l2Stats.TotalHits
	misses := l1Stats.TotalMiss + l2Stats.TotalMiss
	return &CacheStats{
		HitRate:    hitRate(hits, misses),
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: l1Stats.TotalItems + l2Stats.TotalItems,
	}, nil
}

// Exists checks L1, then L2
func (hcs *HybridCacheService) Exists(ctx context.Context, key string) (bool, error) {
	exists, err := hcs.l1.Exists(ctx, key)
	if err != nil {
		hcs.logger.Warn("L1 exists check failed, falling back to L2", zap.Error(err))
	} else if exists {
		return true, nil
	}

	return hcs.l2.Exists(ctx, key)
}

// GetTTL returns the L1 lifetime of key
func (hcs *HybridCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	return hcs.l1.GetTTL(ctx, key)
}

// Close closes both tiers
func (hcs *HybridCacheService) Close() error {
	if err := hcs.both(func(c ICacheService) error { return c.Close() }); err != nil {
		return fmt.Errorf("close errors: %w", err)
	}
	return nil
}

// WarmUp preloads the persistent tier's LRU when it supports it
func (hcs *HybridCacheService) WarmUp(ctx context.Context, limit int) error {
	if warm, ok := hcs.l2.(interface {
		WarmUp(ctx context.Context, limit int) error
	}); ok {
		return warm.WarmUp(ctx, limit)
	}
	return nil
}
