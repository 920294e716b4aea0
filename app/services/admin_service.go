package services

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/Alex-AIMS/nz-addresses/internal/search"
	"go.uber.org/zap"
)

// ErrIndexDisabled is returned by index operations when no search index is configured
var ErrIndexDisabled = errors.New("search index not configured")

// RegisterCounter estimates the size of the address register
type RegisterCounter interface {
	EstimateAddressCount(ctx context.Context) (int64, error)
}

// IndexSyncer maintains the autocomplete search index
type IndexSyncer interface {
	ConfigureIndex(ctx context.Context) error
	Sync(ctx context.Context, source search.AddressSource, batch int) (int, error)
}

// AdminService runs operational tasks: stats, cache invalidation and index sync
type AdminService struct {
	register  RegisterCounter
	source    search.AddressSource
	index     IndexSyncer // nil when search is disabled
	cache     ICacheService
	logger    *zap.Logger
	startTime time.Time
}

// SyncResult reports an index sync
type SyncResult struct {
	DocumentsIndexed int   `json:"documents_indexed"`
	ProcessingTimeMs int64 `json:"processing_time_ms"`
}

// SystemStats are the operational counters
type SystemStats struct {
	Uptime           string                 `json:"uptime"`
	RegisterEstimate int64                  `json:"register_estimate"`
	Cache            *CacheStats            `json:"cache,omitempty"`
	MemoryUsage      map[string]interface{} `json:"memory_usage"`
	Goroutines       int                    `json:"goroutines"`
	IndexEnabled     bool                   `json:"index_enabled"`
}

// NewAdminService creates an AdminService. index and cache may be nil.
func NewAdminService(register RegisterCounter, source search.AddressSource, index IndexSyncer, cache ICacheService, logger *zap.Logger) *AdminService {
	return &AdminService{
		register:  register,
		source:    source,
		index:     index,
		cache:     cache,
		logger:    logger,
		startTime: time.Now(),
	}
}

// GetSystemStats collects register, cache and runtime statistics
func (as *AdminService) GetSystemStats(ctx context.Context) (*SystemStats, error) {
	estimate, err := as.register.EstimateAddressCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("estimate register size: %w", err)
	}

	var cacheStats *CacheStats
	if as.cache != nil {
		cacheStats, err = as.cache.GetStats(ctx)
		if err != nil {
			as.logger.Warn("Cannot read cache stats", zap.Error(err))
		}
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return &SystemStats{
		Uptime:           time.Since(as.startTime).Round(time.Second).String(),
		RegisterEstimate: estimate,
		Cache:            cacheStats,
		MemoryUsage: map[string]interface{}{
			"alloc_mb":       bToMb(m.Alloc),
			"total_alloc_mb": bToMb(m.TotalAlloc),
			"sys_mb":         bToMb(m.Sys),
			"num_gc":         m.NumGC,
		},
		Goroutines:   runtime.NumGoroutine(),
		IndexEnabled: as.index != nil,
	}, nil
}

// InvalidateCache drops cached results. An empty datasetVersion clears
// everything; otherwise entries from other register snapshots are removed.
func (as *AdminService) InvalidateCache(ctx context.Context, datasetVersion string) error {
	if as.cache == nil {
		return nil
	}

	if datasetVersion == "" {
		if err := as.cache.Clear(ctx); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		as.logger.Info("Cache cleared")
		return nil
	}

	if err := as.cache.InvalidateByDatasetVersion(ctx, datasetVersion); err != nil {
		return fmt.Errorf("invalidate cache: %w", err)
	}
	return nil
}

// SyncIndex configures the search index and copies the register into it
func (as *AdminService) SyncIndex(ctx context.Context, batch int) (*SyncResult, error) {
	if as.index == nil {
		return nil, ErrIndexDisabled
	}
	start := time.Now()

	if err := as.index.ConfigureIndex(ctx); err != nil {
		return nil, err
	}

	total, err := as.index.Sync(ctx, as.source, batch)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	as.logger.Info("Index sync completed",
		zap.Int("documents", total),
		zap.Duration("processing_time", elapsed))

	return &SyncResult{
		DocumentsIndexed: total,
		ProcessingTimeMs: elapsed.Milliseconds(),
	}, nil
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
