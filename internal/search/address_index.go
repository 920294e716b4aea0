package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Alex-AIMS/nz-addresses/app/models"
	"github.com/Alex-AIMS/nz-addresses/internal/normalizer"
	"github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"
)

// AddressDoc is one register address in the search index
type AddressDoc struct {
	AddressID        int64  `json:"address_id"`
	FullAddress      string `json:"full_address"`
	FullAddressASCII string `json:"full_address_ascii"`
	StreetName       string `json:"street_name,omitempty"`
	Suburb           string `json:"suburb,omitempty"`
	City             string `json:"city,omitempty"`
}

// DocFromRecord builds the index document of a register record
func DocFromRecord(rec models.AddressRecord) AddressDoc {
	ascii := rec.FullAddressASCII
	if ascii == "" {
		ascii = normalizer.FoldASCII(rec.FullAddress)
	}
	return AddressDoc{
		AddressID:        rec.AddressID,
		FullAddress:      rec.FullAddress,
		FullAddressASCII: ascii,
		StreetName:       rec.FullRoadName,
		Suburb:           rec.SuburbLocality,
		City:             rec.TownCity,
	}
}

// Result converts the document to an autocomplete suggestion
func (d AddressDoc) Result() models.AutocompleteResult {
	return models.AutocompleteResult{
		AddressID:   d.AddressID,
		FullAddress: d.FullAddress,
		StreetName:  optional(d.StreetName),
		Suburb:      optional(d.Suburb),
		City:        optional(d.City),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// IndexConfig configures the Meilisearch address index
type IndexConfig struct {
	Host      string
	APIKey    string
	IndexName string
	Timeout   time.Duration
}

// hitSearcher is the part of ClientWrapper the index searches through
type hitSearcher interface {
	SearchIndex(ctx context.Context, index, q, filter string, limit int64) (*meilisearch.SearchResponse, error)
}

// AddressIndex keeps the register in Meilisearch for autocomplete. Meilisearch
// only retrieves candidates; filtering and ranking happen here so results
// match the Postgres backend.
type AddressIndex struct {
	client    *ClientWrapper
	searcher  hitSearcher
	logger    *zap.Logger
	indexName string
	timeout   time.Duration
}

// candidatePool is how many hits are fetched per suggestion requested
const candidatePool = 5

// NewAddressIndex connects to Meilisearch
func NewAddressIndex(config IndexConfig, logger *zap.Logger) (*AddressIndex, error) {
	client := NewClientWrapper(config.Host, config.APIKey)
	if err := client.Healthy(); err != nil {
		return nil, fmt.Errorf("cannot connect to Meilisearch: %w", err)
	}

	if config.IndexName == "" {
		config.IndexName = "addresses"
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}

	return &AddressIndex{
		client:    client,
		searcher:  client,
		logger:    logger,
		indexName: config.IndexName,
		timeout:   config.Timeout,
	}, nil
}

// Name returns the index uid
func (ai *AddressIndex) Name() string {
	return ai.indexName
}

// Healthy reports whether Meilisearch is reachable
func (ai *AddressIndex) Healthy(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return ai.client.Healthy()
}

// Suggest implements Backend. Only the first limit*candidatePool hits in
// Meilisearch relevance order are ranked, so a match outside that pool is not
// returned even when the Postgres backend would rank it first.
func (ai *AddressIndex) Suggest(ctx context.Context, query string, limit int) ([]models.AutocompleteResult, error) {
	ctx, cancel := context.WithTimeout(ctx, ai.timeout)
	defer cancel()

	resp, err := ai.searcher.SearchIndex(ctx, ai.indexName, query, "", int64(limit*candidatePool))
	if err != nil {
		return nil, fmt.Errorf("meilisearch search: %w", err)
	}

	docs := parseHits(resp.Hits)
	ai.logger.Debug("Meilisearch candidates",
		zap.String("query", query),
		zap.Int("hits", len(docs)))
	return RankDocuments(query, docs, limit), nil
}

// parseHits decodes Meilisearch hits into documents
func parseHits(hits []interface{}) []AddressDoc {
	docs := make([]AddressDoc, 0, len(hits))
	for _, hit := range hits {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}

		var doc AddressDoc
		if id, ok := hitMap["address_id"].(float64); ok {
			doc.AddressID = int64(id)
		}
		if s, ok := hitMap["full_address"].(string); ok {
			doc.FullAddress = s
		}
		if s, ok := hitMap["full_address_ascii"].(string); ok {
			doc.FullAddressASCII = s
		}
		if s, ok := hitMap["street_name"].(string); ok {
			doc.StreetName = s
		}
		if s, ok := hitMap["suburb"].(string); ok {
			doc.Suburb = s
		}
		if s, ok := hitMap["city"].(string); ok {
			doc.City = s
		}

		if doc.AddressID <= 0 || doc.FullAddress == "" {
			continue
		}
		docs = append(docs, doc)
	}
	return docs
}

// ConfigureIndex applies the index settings and waits for the task
func (ai *AddressIndex) ConfigureIndex(ctx context.Context) error {
	index := ai.client.Index(ai.indexName)

	synonyms := map[string][]string{
		"st":   {"street"},
		"rd":   {"road"},
		"ave":  {"avenue"},
		"dr":   {"drive"},
		"ln":   {"lane"},
		"pl":   {"place"},
		"tce":  {"terrace"},
		"cres": {"crescent"},
		"ct":   {"court"},
		"hwy":  {"highway"},
	}

	task, err := index.UpdateSettings(&meilisearch.Settings{
		SearchableAttributes: []string{"full_address_ascii", "full_address", "street_name", "suburb", "city"},
		FilterableAttributes: []string{"city", "suburb"},
		SortableAttributes:   []string{"full_address_ascii"},
		RankingRules:         []string{"words", "typo", "proximity", "attribute", "sort", "exactness"},
		Synonyms:             synonyms,
		TypoTolerance: &meilisearch.TypoTolerance{
			Enabled: true,
			MinWordSizeForTypos: meilisearch.MinWordSizeForTypos{
				OneTypo:  4,
				TwoTypos: 8,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("configure index: %w", err)
	}

	ai.logger.Info("Configured Meilisearch index",
		zap.String("index", ai.indexName),
		zap.Int64("task_uid", task.TaskUID))
	return ai.waitForTask(ctx, task.TaskUID)
}

func (ai *AddressIndex) waitForTask(ctx context.Context, uid int64) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		task, err := ai.client.Client().GetTask(uid)
		if err != nil {
			return fmt.Errorf("check task %d: %w", uid, err)
		}
		switch task.Status {
		case meilisearch.TaskStatusSucceeded:
			return nil
		case meilisearch.TaskStatusFailed, meilisearch.TaskStatusCanceled:
			return fmt.Errorf("task %d %s: %s", uid, task.Status, task.Error.Message)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// AddDocuments queues documents for indexing and returns the task uid
func (ai *AddressIndex) AddDocuments(docs []AddressDoc) (int64, error) {
	if len(docs) == 0 {
		return 0, errors.New("no documents to index")
	}
	task, err := ai.client.Index(ai.indexName).AddDocuments(docs, "address_id")
	if err != nil {
		return 0, fmt.Errorf("add documents: %w", err)
	}
	return task.TaskUID, nil
}

// AddressSource streams register records in batches
type AddressSource interface {
	ForEachAddress(ctx context.Context, batch int, fn func([]models.AddressRecord) error) (int, error)
}

// Sync copies the register into the index, batch records at a time
func (ai *AddressIndex) Sync(ctx context.Context, source AddressSource, batch int) (int, error) {
	if batch <= 0 {
		batch = 1000
	}
	start := time.Now()

	total, err := source.ForEachAddress(ctx, batch, func(records []models.AddressRecord) error {
		docs := make([]AddressDoc, len(records))
		for i, rec := range records {
			docs[i] = DocFromRecord(rec)
		}
		uid, err := ai.AddDocuments(docs)
		if err != nil {
			return err
		}
		ai.logger.Debug("Queued address batch",
			zap.Int("documents", len(docs)),
			zap.Int64("task_uid", uid))
		return nil
	})
	if err != nil {
		return total, fmt.Errorf("sync index: %w", err)
	}

	ai.logger.Info("Synced address index",
		zap.String("index", ai.indexName),
		zap.Int("documents", total),
		zap.Duration("duration", time.Since(start)))
	return total, nil
}
