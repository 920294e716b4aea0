package services

import (
	"context"
	"time"

	"github.com/Alex-AIMS/nz-addresses/app/models"
)

// CacheStats are the counters of a result cache
type CacheStats struct {
	HitRate    float64 `json:"hit_rate"`
	TotalHits  int64   `json:"total_hits"`
	TotalMiss  int64   `json:"total_miss"`
	TotalItems int64   `json:"total_items"`
}

// ICacheService caches resolutions keyed by normalized query
type ICacheService interface {
	// Get returns the cached result for key
	Get(ctx context.Context, key string) (*models.MatchResult, bool, error)

	// Set stores a result
	Set(ctx context.Context, key string, result *models.MatchResult) error

	// Delete removes one key
	Delete(ctx context.Context, key string) error

	// Clear removes every entry
	Clear(ctx context.Context) error

	// InvalidateByDatasetVersion drops entries built from another register snapshot
	InvalidateByDatasetVersion(ctx context.Context, datasetVersion string) error

	// GetStats returns hit/miss counters
	GetStats(ctx context.Context) (*CacheStats, error)

	// Exists reports whether key is cached
	Exists(ctx context.Context, key string) (bool, error)

	// GetTTL returns the remaining lifetime of key
	GetTTL(ctx context.Context, key string) (time.Duration, error)

	// Close releases connections
	Close() error
}

func hitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
