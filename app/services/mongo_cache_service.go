package services

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Alex-AIMS/nz-addresses/app/models"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoCacheService is a persistent result cache: MongoDB behind an in-process LRU
type MongoCacheService struct {
	collection     *mongo.Collection
	l1Cache        *lru.Cache[string, *models.MatchResult]
	logger         *zap.Logger
	datasetVersion atomic.Value
	ttl            time.Duration

	totalHits atomic.Int64
	totalMiss atomic.Int64
	l1Hits    atomic.Int64
	l1Miss    atomic.Int64
	mongoHits atomic.Int64
	mongoMiss atomic.Int64
}

// NewMongoCacheService creates the cache over db.address_cache and ensures its indexes
func NewMongoCacheService(db *mongo.Database, l1Size int, ttl time.Duration, datasetVersion string, logger *zap.Logger) (*MongoCacheService, error) {
	if l1Size <= 0 {
		l1Size = 10000
	}
	l1Cache, err := lru.New[string, *models.MatchResult](l1Size)
	if err != nil {
		return nil, fmt.Errorf("create LRU cache: %w", err)
	}

	collection := db.Collection("address_cache")

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{bson.E{Key: "fingerprint", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{bson.E{Key: "dataset_version", Value: 1}},
		},
		{
			Keys: bson.D{bson.E{Key: "last_accessed", Value: 1}},
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexModels); err != nil {
		logger.Warn("Cannot create address_cache indexes", zap.Error(err))
	}

	service := &MongoCacheService{
		collection: collection,
		l1Cache:    l1Cache,
		logger:     logger,
		ttl:        ttl,
	}
	service.datasetVersion.Store(datasetVersion)
	return service, nil
}

func (mcs *MongoCacheService) version() string {
	v, _ := mcs.datasetVersion.Load().(string)
	return v
}

// Get looks in the LRU, then MongoDB
func (mcs *MongoCacheService) Get(ctx context.Context, key string) (*models.MatchResult, bool, error) {
	if result, found := mcs.l1Cache.Get(key); found {
		mcs.l1Hits.Add(1)
		mcs.totalHits.Add(1)
		mcs.logger.Debug("L1 cache hit", zap.String("key", key))
		return result, true, nil
	}
	mcs.l1Miss.Add(1)

	fingerprint := generateFingerprint(key)

	var entry models.AddressCache
	err := mcs.collection.FindOne(ctx, bson.M{"fingerprint": fingerprint}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			mcs.mongoMiss.Add(1)
			mcs.totalMiss.Add(1)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("query MongoDB cache: %w", err)
	}

	if entry.IsExpired(mcs.ttl) || !entry.IsValidDatasetVersion(mcs.version()) {
		mcs.mongoMiss.Add(1)
		mcs.totalMiss.Add(1)
		return nil, false, nil
	}

	mcs.mongoHits.Add(1)
	mcs.totalHits.Add(1)

	go mcs.updateAccessStats(entry.ID)

	result := entry.Result
	mcs.l1Cache.Add(key, &result)

	mcs.logger.Debug("MongoDB cache hit",
		zap.String("key", key),
		zap.String("fingerprint", fingerprint))

	return &result, true, nil
}

// Set writes result to the LRU and upserts it into MongoDB
func (mcs *MongoCacheService) Set(ctx context.Context, key string, result *models.MatchResult) error {
	mcs.l1Cache.Add(key, result)

	fingerprint := generateFingerprint(key)
	entry := models.NewAddressCache(fingerprint, key, *result, mcs.version())

	opts := options.Replace().SetUpsert(true)
	if _, err := mcs.collection.ReplaceOne(ctx, bson.M{"fingerprint": fingerprint}, entry, opts); err != nil {
		mcs.logger.Error("Cannot write MongoDB cache",
			zap.Error(err),
			zap.String("fingerprint", fingerprint))
		return fmt.Errorf("write MongoDB cache: %w", err)
	}

	mcs.logger.Debug("Stored in cache",
		zap.String("key", key),
		zap.String("strategy", result.Strategy))
	return nil
}

// Delete removes key from both tiers
func (mcs *MongoCacheService) Delete(ctx context.Context, key string) error {
	mcs.l1Cache.Remove(key)

	if _, err := mcs.collection.DeleteOne(ctx, bson.M{"fingerprint": generateFingerprint(key)}); err != nil {
		return fmt.Errorf("delete from MongoDB cache: %w", err)
	}
	return nil
}

// Clear removes everything and resets the counters
func (mcs *MongoCacheService) Clear(ctx context.Context) error {
	mcs.l1Cache.Purge()

	if _, err := mcs.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("clear MongoDB cache: %w", err)
	}

	for _, counter := range []*atomic.Int64{&mcs.totalHits, &mcs.totalMiss, &mcs.l1Hits, &mcs.l1Miss, &mcs.mongoHits, &mcs.mongoMiss} {
		counter.Store(0)
	}
	return nil
}

// InvalidateByDatasetVersion deletes entries not built from datasetVersion
func (mcs *MongoCacheService) InvalidateByDatasetVersion(ctx context.Context, datasetVersion string) error {
	mcs.l1Cache.Purge()

	result, err := mcs.collection.DeleteMany(ctx, bson.M{"dataset_version": bson.M{"$ne": datasetVersion}})
	if err != nil {
		return fmt.Errorf("invalidate cache by dataset version: %w", err)
	}
	mcs.datasetVersion.Store(datasetVersion)

	mcs.logger.Info("Invalidated cache",
		zap.String("dataset_version", datasetVersion),
		zap.Int64("deleted_count", result.DeletedCount))
	return nil
}

// GetStats returns the counters and the persisted entry count
func (mcs *MongoCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	mongoCount, err := mcs.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("count MongoDB cache documents: %w", err)
	}

	hits, misses := mcs.totalHits.Load(), mcs.totalMiss.Load()
	return &CacheStats{
		HitRate:    hitRate(hits, misses),
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: mongoCount,
	}, nil
}

// Exists checks the LRU, then MongoDB
func (mcs *MongoCacheService) Exists(ctx context.Context, key string) (bool, error) {
	if mcs.l1Cache.Contains(key) {
		return true, nil
	}

	count, err := mcs.collection.CountDocuments(ctx, bson.M{"fingerprint": generateFingerprint(key)})
	if err != nil {
		return false, fmt.Errorf("check MongoDB cache: %w", err)
	}
	return count > 0, nil
}

// GetTTL returns the remaining lifetime of a persisted entry
func (mcs *MongoCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	if mcs.ttl <= 0 {
		return 0, nil
	}

	var entry models.AddressCache
	err := mcs.collection.FindOne(ctx, bson.M{"fingerprint": generateFingerprint(key)}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query MongoDB cache: %w", err)
	}

	remaining := mcs.ttl - time.Since(entry.CreatedAt)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// Close is a no-op; the MongoDB client belongs to the caller
func (mcs *MongoCacheService) Close() error {
	return nil
}

func generateFingerprint(key string) string {
	return fmt.Sprintf("sha256:%x", sha256.Sum256([]byte(key)))
}

func (mcs *MongoCacheService) updateAccessStats(id primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	update := bson.M{
		"$set": bson.M{"last_accessed": time.Now()},
		"$inc": bson.M{"access_count": 1},
	}
	if _, err := mcs.collection.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		mcs.logger.Warn("Cannot update access stats", zap.Error(err))
	}
}

// GetL1Stats returns the per-tier counters
func (mcs *MongoCacheService) GetL1Stats() map[string]interface{} {
	return map[string]interface{}{
		"l1_size":    mcs.l1Cache.Len(),
		"l1_hits":    mcs.l1Hits.Load(),
		"l1_miss":    mcs.l1Miss.Load(),
		"mongo_hits": mcs.mongoHits.Load(),
		"mongo_miss": mcs.mongoMiss.Load(),
		"total_hits": mcs.totalHits.Load(),
		"total_miss": mcs.totalMiss.Load(),
	}
}

// WarmUp loads the most accessed current-version entries into the LRU
func (mcs *MongoCacheService) WarmUp(ctx context.Context, limit int) error {
	opts := options.Find().
		SetSort(bson.D{bson.E{Key: "access_count", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := mcs.collection.Find(ctx, bson.M{"dataset_version": mcs.version()}, opts)
	if err != nil {
		return fmt.Errorf("warm up cache: %w", err)
	}
	defer cursor.Close(ctx)

	count := 0
	for cursor.Next(ctx) {
		var entry models.AddressCache
		if err := cursor.Decode(&entry); err != nil {
			mcs.logger.Warn("Cannot decode cache entry", zap.Error(err))
			continue
		}
		if entry.IsExpired(mcs.ttl) {
			continue
		}

		result := entry.Result
		mcs.l1Cache.Add(entry.CacheKey, &result)
		count++
	}

	mcs.logger.Info("Cache warm up done",
		zap.Int("loaded_items", count),
		zap.Int("l1_size", mcs.l1Cache.Len()))

	return cursor.Err()
}
