package search

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Alex-AIMS/nz-addresses/app/models"
	"github.com/Alex-AIMS/nz-addresses/internal/store"
	"go.uber.org/zap"
)

// Autocomplete limits
const (
	MinQueryLength = 3
	DefaultLimit   = 10
	MaxLimit       = 50
)

// Backend retrieves suggestions for a trimmed query of valid length
type Backend interface {
	Suggest(ctx context.Context, query string, limit int) ([]models.AutocompleteResult, error)
}

// Autocompleter guards and clamps autocomplete requests before they reach a
// backend
type Autocompleter struct {
	backend Backend
	name    string
	logger  *zap.Logger
}

// NewAutocompleter creates an Autocompleter. name labels the backend in logs.
func NewAutocompleter(backend Backend, name string, logger *zap.Logger) *Autocompleter {
	return &Autocompleter{backend: backend, name: name, logger: logger}
}

// Backend returns the backend name
func (a *Autocompleter) Backend() string {
	return a.name
}

// Autocomplete returns up to limit addresses containing query. A query
// shorter than MinQueryLength yields an empty result without a lookup.
func (a *Autocompleter) Autocomplete(ctx context.Context, query string, limit int) ([]models.AutocompleteResult, error) {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < MinQueryLength {
		return []models.AutocompleteResult{}, nil
	}

	results, err := a.backend.Suggest(ctx, q, ClampLimit(limit))
	if err != nil {
		a.logger.Error("Autocomplete failed",
			zap.String("backend", a.name),
			zap.String("query", q),
			zap.Error(err))
		return nil, err
	}
	if results == nil {
		results = []models.AutocompleteResult{}
	}
	return results, nil
}

// ClampLimit maps a limit outside [1, MaxLimit] to DefaultLimit
func ClampLimit(limit int) int {
	if limit < 1 || limit > MaxLimit {
		return DefaultLimit
	}
	return limit
}

// StoreBackend serves suggestions straight from the register
type StoreBackend struct {
	addresses store.AddressStore
}

// NewStoreBackend creates a StoreBackend
func NewStoreBackend(addresses store.AddressStore) *StoreBackend {
	return &StoreBackend{addresses: addresses}
}

// Suggest implements Backend
func (sb *StoreBackend) Suggest(ctx context.Context, query string, limit int) ([]models.AutocompleteResult, error) {
	return sb.addresses.SearchAddresses(ctx, query, limit)
}

// RankDocuments keeps the documents whose ASCII full address contains query,
// case-insensitively, and orders prefix matches first, then lexically.
func RankDocuments(query string, docs []AddressDoc, limit int) []models.AutocompleteResult {
	q := strings.ToLower(query)

	type ranked struct {
		doc    AddressDoc
		key    string
		prefix bool
	}
	var kept []ranked
	seen := make(map[int64]struct{}, len(docs))
	for _, d := range docs {
		key := strings.ToLower(d.FullAddressASCII)
		if !strings.Contains(key, q) {
			continue
		}
		if _, dup := seen[d.AddressID]; dup {
			continue
		}
		seen[d.AddressID] = struct{}{}
		kept = append(kept, ranked{doc: d, key: d.FullAddressASCII, prefix: strings.HasPrefix(key, q)})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].prefix != kept[j].prefix {
			return kept[i].prefix
		}
		if kept[i].key != kept[j].key {
			return kept[i].key < kept[j].key
		}
		return kept[i].doc.AddressID < kept[j].doc.AddressID
	})

	if len(kept) > limit {
		kept = kept[:limit]
	}
	out := make([]models.AutocompleteResult, len(kept))
	for i, r := range kept {
		out[i] = r.doc.Result()
	}
	return out
}
