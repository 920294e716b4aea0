package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/Alex-AIMS/nz-addresses/app/models"
	"github.com/Alex-AIMS/nz-addresses/internal/parser"
	"github.com/Alex-AIMS/nz-addresses/internal/search"
	"github.com/Alex-AIMS/nz-addresses/internal/store"
	"go.uber.org/zap"
)

// fakeRegister is a concurrency-safe in-memory register
type fakeRegister struct {
	mu        sync.Mutex
	exact     map[string]*models.AddressRecord // "61/otonga"
	nearest   *store.NearestRow
	hierarchy models.Hierarchy
	err       error
	exactHits int
	estimate  int64
	records   []models.AddressRecord
}

func newFakeRegister() *fakeRegister {
	return &fakeRegister{exact: map[string]*models.AddressRecord{}}
}

func (f *fakeRegister) FindByNumberAndRoad(_ context.Context, number int, road string) (*models.AddressRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exactHits++
	if f.err != nil {
		return nil, f.err
	}
	return f.exact[fmt.Sprintf("%d/%s", number, road)], nil
}

func (f *fakeRegister) FindRanked(context.Context, int, string, string, int) ([]store.RankedRow, error) {
	return nil, f.currentErr()
}

func (f *fakeRegister) FindSimilar(context.Context, string, float64) (*store.SimilarRow, error) {
	return nil, f.currentErr()
}

func (f *fakeRegister) FindNearest(context.Context, float64, float64) (*store.NearestRow, error) {
	if err := f.currentErr(); err != nil {
		return nil, err
	}
	return f.nearest, nil
}

func (f *fakeRegister) SearchAddresses(_ context.Context, query string, limit int) ([]models.AutocompleteResult, error) {
	return []models.AutocompleteResult{{AddressID: 1, FullAddress: query}}, nil
}

func (f *fakeRegister) ResolveHierarchy(context.Context, float64, float64) (models.Hierarchy, error) {
	return f.hierarchy, nil
}

func (f *fakeRegister) Regions(context.Context) ([]models.Region, error) {
	return []models.Region{{RegionID: "04", Name: "Bay of Plenty Region"}}, f.currentErr()
}

func (f *fakeRegister) Districts(_ context.Context, regionID string) ([]models.District, error) {
	return []models.District{{DistrictID: "024", RegionID: regionID, Name: "Rotorua District"}}, f.currentErr()
}

func (f *fakeRegister) Suburbs(_ context.Context, districtID string) ([]models.Suburb, error) {
	return []models.Suburb{{SuburbID: "1001", DistrictID: districtID, Name: "Fenton Park"}}, f.currentErr()
}

func (f *fakeRegister) Streets(context.Context, string) ([]models.Street, error) {
	return []models.Street{{StreetName: "Otonga Road"}}, f.currentErr()
}

func (f *fakeRegister) EstimateAddressCount(context.Context) (int64, error) {
	return f.estimate, f.currentErr()
}

func (f *fakeRegister) ForEachAddress(ctx context.Context, batch int, fn func([]models.AddressRecord) error) (int, error) {
	total := 0
	for start := 0; start < len(f.records); start += batch {
		end := start + batch
		if end > len(f.records) {
			end = len(f.records)
		}
		if err := fn(f.records[start:end]); err != nil {
			return total, err
		}
		total += end - start
	}
	return total, nil
}

func (f *fakeRegister) currentErr() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *fakeRegister) exactCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exactHits
}

func otongaRecord(withGeom bool) *models.AddressRecord {
	x, y := 1885000.5, 5771000.25
	rec := &models.AddressRecord{
		AddressID:        2001,
		FullAddress:      "61 Otonga Road, Rotorua",
		FullAddressASCII: "61 Otonga Road, Rotorua",
		X:                &x,
		Y:                &y,
	}
	if withGeom {
		rec.Geom = &models.Point{X: x, Y: y}
	}
	return rec
}

func newTestService(reg *fakeRegister, cache ICacheService) *AddressService {
	logger := zap.NewNop()
	matcher := parser.NewMatcher(reg, reg, nil, logger)
	auto := search.NewAutocompleter(search.NewStoreBackend(reg), "postgres", logger)
	return NewAddressService(matcher, reg, reg, auto, cache, logger)
}
