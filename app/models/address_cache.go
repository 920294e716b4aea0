package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AddressCache is a persisted resolution, keyed by the normalized query
type AddressCache struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Fingerprint    string             `bson:"fingerprint" json:"fingerprint"`         // sha256 of the cache key
	CacheKey       string             `bson:"cache_key" json:"cache_key"`             // normalized query
	Result         MatchResult        `bson:"result" json:"result"`                   // cached resolution
	Strategy       string             `bson:"strategy" json:"strategy"`               // strategy that matched
	DatasetVersion string             `bson:"dataset_version" json:"dataset_version"` // register snapshot
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	LastAccessed   time.Time          `bson:"last_accessed" json:"last_accessed"`
	AccessCount    int                `bson:"access_count" json:"access_count"`
}

// NewAddressCache creates a cache entry for a resolution
func NewAddressCache(fingerprint, key string, result MatchResult, datasetVersion string) *AddressCache {
	now := time.Now()
	return &AddressCache{
		Fingerprint:    fingerprint,
		CacheKey:       key,
		Result:         result,
		Strategy:       result.Strategy,
		DatasetVersion: datasetVersion,
		CreatedAt:      now,
		LastAccessed:   now,
		AccessCount:    1,
	}
}

// UpdateAccess records a read of the entry
func (ac *AddressCache) UpdateAccess() {
	ac.LastAccessed = time.Now()
	ac.AccessCount++
}

// IsExpired reports whether the entry is older than ttl
func (ac *AddressCache) IsExpired(ttl time.Duration) bool {
	return ttl > 0 && time.Since(ac.CreatedAt) > ttl
}

// IsValidDatasetVersion reports whether the entry was built from currentVersion
func (ac *AddressCache) IsValidDatasetVersion(currentVersion string) bool {
	return ac.DatasetVersion == currentVersion
}
