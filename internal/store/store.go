// Package store reads the LINZ address register and the administrative
// boundaries. Every query shape returns a typed row that is validated here,
// before it reaches the matcher.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Alex-AIMS/nz-addresses/app/models"
)

// ErrInvalidRow is returned when the register returns a row that breaks the
// shape the matcher relies on.
var ErrInvalidRow = errors.New("invalid register row")

// AddressStore is the read capability the matcher needs from the register.
type AddressStore interface {
	// FindByNumberAndRoad returns the first record with the address number
	// whose road name contains road. nil when nothing matches.
	FindByNumberAndRoad(ctx context.Context, number int, road string) (*models.AddressRecord, error)

	// FindRanked returns up to limit records with the address number whose
	// road name contains street, ranked by locality match, street match
	// quality and identifier. city may be empty.
	FindRanked(ctx context.Context, number int, street, city string, limit int) ([]RankedRow, error)

	// FindSimilar returns the record whose ASCII full address is most similar
	// to text, if the similarity is above threshold.
	FindSimilar(ctx context.Context, text string, threshold float64) (*SimilarRow, error)

	// FindNearest returns the geocoded record closest to a WGS84 point.
	FindNearest(ctx context.Context, latitude, longitude float64) (*NearestRow, error)

	// SearchAddresses returns records whose ASCII full address contains query,
	// prefix matches first.
	SearchAddresses(ctx context.Context, query string, limit int) ([]models.AutocompleteResult, error)
}

// SpatialStore resolves the administrative hierarchy of a point
type SpatialStore interface {
	ResolveHierarchy(ctx context.Context, x, y float64) (models.Hierarchy, error)
}

// BrowseStore lists the administrative hierarchy
type BrowseStore interface {
	Regions(ctx context.Context) ([]models.Region, error)
	Districts(ctx context.Context, regionID string) ([]models.District, error)
	Suburbs(ctx context.Context, districtID string) ([]models.Suburb, error)
	Streets(ctx context.Context, suburbID string) ([]models.Street, error)
}

// Priority tiers of a ranked row
const (
	PriorityCityMatch = 1
	PriorityOther     = 2
)

// Street match quality of a ranked row
const (
	StreetExact     = 1
	StreetPrefix    = 2
	StreetSubstring = 3
)

// RankedRow is a candidate of the ranked street query
type RankedRow struct {
	Record             models.AddressRecord
	Priority           int
	StreetMatchQuality int
}

func (r RankedRow) validate() error {
	if err := validateRecord(&r.Record); err != nil {
		return err
	}
	if r.Priority != PriorityCityMatch && r.Priority != PriorityOther {
		return fmt.Errorf("%w: address %d has priority %d", ErrInvalidRow, r.Record.AddressID, r.Priority)
	}
	if r.StreetMatchQuality < StreetExact || r.StreetMatchQuality > StreetSubstring {
		return fmt.Errorf("%w: address %d has street match quality %d", ErrInvalidRow, r.Record.AddressID, r.StreetMatchQuality)
	}
	return nil
}

// SimilarRow is the result of the similarity search
type SimilarRow struct {
	Record     models.AddressRecord
	Similarity float64
}

func (r SimilarRow) validate() error {
	if err := validateRecord(&r.Record); err != nil {
		return err
	}
	if r.Similarity < 0 || r.Similarity > 1 {
		return fmt.Errorf("%w: address %d has similarity %f", ErrInvalidRow, r.Record.AddressID, r.Similarity)
	}
	return nil
}

// NearestRow is the result of the nearest neighbour search. Distance is in
// register units (metres for NZTM).
type NearestRow struct {
	Record   models.AddressRecord
	Distance float64
}

func (r NearestRow) validate() error {
	if err := validateRecord(&r.Record); err != nil {
		return err
	}
	if r.Distance < 0 {
		return fmt.Errorf("%w: address %d has negative distance", ErrInvalidRow, r.Record.AddressID)
	}
	return nil
}

func validateRecord(rec *models.AddressRecord) error {
	if rec.AddressID <= 0 {
		return fmt.Errorf("%w: missing address id", ErrInvalidRow)
	}
	if rec.FullAddress == "" {
		return fmt.Errorf("%w: address %d has no full address", ErrInvalidRow, rec.AddressID)
	}
	return nil
}
