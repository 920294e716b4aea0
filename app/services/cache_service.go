package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Alex-AIMS/nz-addresses/app/models"
)

type memoryEntry struct {
	result   models.MatchResult
	storedAt time.Time
}

// CacheService is the in-memory result cache
type CacheService struct {
	entries map[string]memoryEntry
	mu      sync.RWMutex
	ttl     time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCacheService creates a CacheService. ttl <= 0 keeps entries forever.
func NewCacheService(ttl time.Duration) *CacheService {
	return &CacheService{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
	}
}

// Get returns a copy of the cached result
func (cs *CacheService) Get(ctx context.Context, key string) (*models.MatchResult, bool, error) {
	cs.mu.RLock()
	entry, exists := cs.entries[key]
	cs.mu.RUnlock()

	if !exists || cs.isExpired(entry) {
		if exists {
			go cs.deleteExpired(key)
		}
		cs.misses.Add(1)
		return nil, false, nil
	}

	cs.hits.Add(1)
	result := entry.result
	return &result, true, nil
}

// Set stores a copy of result
func (cs *CacheService) Set(ctx context.Context, key string, result *models.MatchResult) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.entries[key] = memoryEntry{result: *result, storedAt: time.Now()}
	return nil
}

// Delete removes key
func (cs *CacheService) Delete(ctx context.Context, key string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	delete(cs.entries, key)
	return nil
}

// Clear removes every entry and resets the counters
func (cs *CacheService) Clear(ctx context.Context) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.entries = make(map[string]memoryEntry)
	cs.hits.Store(0)
	cs.misses.Store(0)
	return nil
}

// InvalidateByDatasetVersion clears the cache; memory entries carry no version
func (cs *CacheService) InvalidateByDatasetVersion(ctx context.Context, datasetVersion string) error {
	return cs.Clear(ctx)
}

// Size returns the number of entries, expired ones included
func (cs *CacheService) Size() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	return len(cs.entries)
}

// GetStats returns the counters
func (cs *CacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	hits, misses := cs.hits.Load(), cs.misses.Load()
	return &CacheStats{
		HitRate:    hitRate(hits, misses),
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: int64(cs.Size()),
	}, nil
}

// CleanupExpired removes expired entries
func (cs *CacheService) CleanupExpired() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for key, entry := range cs.entries {
		if cs.isExpired(entry) {
			delete(cs.entries, key)
		}
	}
}

func (cs *CacheService) isExpired(entry memoryEntry) bool {
	return cs.ttl > 0 && time.Since(entry.storedAt) > cs.ttl
}

func (cs *CacheService) deleteExpired(key string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if entry, ok := cs.entries[key]; ok && cs.isExpired(entry) {
		delete(cs.entries, key)
	}
}

// Exists reports whether a live entry exists for key
func (cs *CacheService) Exists(ctx context.Context, key string) (bool, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	entry, exists := cs.entries[key]
	return exists && !cs.isExpired(entry), nil
}

// GetTTL returns the remaining lifetime of key
func (cs *CacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	entry, exists := cs.entries[key]
	if !exists || cs.ttl <= 0 {
		return 0, nil
	}

	remaining := cs.ttl - time.Since(entry.storedAt)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// StartCleanupWorker removes expired entries every interval until ctx is done
func (cs *CacheService) StartCleanupWorker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cs.CleanupExpired()
			}
		}
	}()
}

// Close is a no-op for the in-memory cache
func (cs *CacheService) Close() error {
	return nil
}
