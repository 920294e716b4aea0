package parser

import (
	"context"
	"fmt"
	"strings"

	"github.com/Alex-AIMS/nz-addresses/app/models"
	"github.com/Alex-AIMS/nz-addresses/internal/store"
)

// fakeStore answers from fixed tables and records every call
type fakeStore struct {
	exact   map[string]*models.AddressRecord // "61/otonga"
	ranked  map[string][]store.RankedRow     // "61/otonga/rotorua"
	similar map[string]*store.SimilarRow
	regions map[[2]float64]models.Hierarchy

	err   error
	panic bool
	calls []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		exact:   map[string]*models.AddressRecord{},
		ranked:  map[string][]store.RankedRow{},
		similar: map[string]*store.SimilarRow{},
		regions: map[[2]float64]models.Hierarchy{},
	}
}

func (f *fakeStore) FindByNumberAndRoad(_ context.Context, number int, road string) (*models.AddressRecord, error) {
	f.calls = append(f.calls, fmt.Sprintf("exact:%d/%s", number, road))
	if f.panic {
		panic("driver exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.exact[fmt.Sprintf("%d/%s", number, road)], nil
}

func (f *fakeStore) FindRanked(_ context.Context, number int, street, city string, limit int) ([]store.RankedRow, error) {
	f.calls = append(f.calls, fmt.Sprintf("partial:%d/%s/%s", number, street, city))
	if f.err != nil {
		return nil, f.err
	}
	rows := f.ranked[fmt.Sprintf("%d/%s/%s", number, street, city)]
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (f *fakeStore) FindSimilar(_ context.Context, text string, _ float64) (*store.SimilarRow, error) {
	f.calls = append(f.calls, "fuzzy:"+text)
	if f.err != nil {
		return nil, f.err
	}
	return f.similar[text], nil
}

func (f *fakeStore) FindNearest(context.Context, float64, float64) (*store.NearestRow, error) {
	f.calls = append(f.calls, "nearest")
	return nil, nil
}

func (f *fakeStore) SearchAddresses(context.Context, string, int) ([]models.AutocompleteResult, error) {
	f.calls = append(f.calls, "search")
	return nil, nil
}

func (f *fakeStore) ResolveHierarchy(_ context.Context, x, y float64) (models.Hierarchy, error) {
	f.calls = append(f.calls, "hierarchy")
	return f.regions[[2]float64{x, y}], nil
}

func (f *fakeStore) stages() []string {
	var out []string
	for _, c := range f.calls {
		if c == "hierarchy" {
			continue
		}
		name, _, _ := strings.Cut(c, ":")
		out = append(out, name)
	}
	return out
}

func strp(s string) *string { return &s }

func f64p(v float64) *float64 { return &v }

func record(id int64, full string, x, y float64, withGeom bool) models.AddressRecord {
	rec := models.AddressRecord{
		AddressID:        id,
		FullAddress:      full,
		FullAddressASCII: full,
		X:                f64p(x),
		Y:                f64p(y),
	}
	if withGeom {
		rec.Geom = &models.Point{X: x, Y: y}
	}
	return rec
}

func ranked(rec models.AddressRecord, priority, quality int) store.RankedRow {
	return store.RankedRow{Record: rec, Priority: priority, StreetMatchQuality: quality}
}
