package parser

import (
	"context"

	"github.com/Alex-AIMS/nz-addresses/app/models"
	"github.com/Alex-AIMS/nz-addresses/internal/store"
	"go.uber.org/zap"
)

// HierarchyResolver attaches region, district and suburb to matched records
type HierarchyResolver struct {
	spatial store.SpatialStore
	logger  *zap.Logger
}

// NewHierarchyResolver creates a HierarchyResolver
func NewHierarchyResolver(spatial store.SpatialStore, logger *zap.Logger) *HierarchyResolver {
	return &HierarchyResolver{spatial: spatial, logger: logger}
}

// Resolve returns the hierarchy enclosing the record geometry. A record
// without geometry has an empty hierarchy and causes no store call.
func (hr *HierarchyResolver) Resolve(ctx context.Context, rec *models.AddressRecord) (models.Hierarchy, error) {
	if !rec.HasGeometry() {
		return models.Hierarchy{}, nil
	}
	h, err := hr.spatial.ResolveHierarchy(ctx, rec.Geom.X, rec.Geom.Y)
	if err != nil {
		return models.Hierarchy{}, err
	}
	if h.IsEmpty() {
		hr.logger.Debug("Point outside every boundary",
			zap.Int64("address_id", rec.AddressID),
			zap.Float64("x", rec.Geom.X),
			zap.Float64("y", rec.Geom.Y))
	}
	return h, nil
}

// BuildResult turns a matched record into a found result. message is used
// when the record has geometry, missingMessage when it does not.
func (hr *HierarchyResolver) BuildResult(ctx context.Context, normalized string, rec *models.AddressRecord, message, missingMessage string) (*models.MatchResult, error) {
	result := FoundResult(rec)
	result.Quality = Measure(normalized, rec)

	if !rec.HasGeometry() {
		hr.logger.Warn("Address found but missing spatial data", zap.Int64("address_id", rec.AddressID))
		result.Message = missingMessage
		return &result, nil
	}

	h, err := hr.Resolve(ctx, rec)
	if err != nil {
		return nil, err
	}
	result.RegionID = h.RegionID
	result.DistrictID = h.DistrictID
	result.SuburbID = h.SuburbID
	result.Message = message
	return &result, nil
}

// FoundResult copies the identifying fields of rec into a found result
func FoundResult(rec *models.AddressRecord) models.MatchResult {
	id := rec.AddressID
	fullAddress := rec.FullAddress
	return models.MatchResult{
		Found:       true,
		AddressID:   &id,
		FullAddress: &fullAddress,
		X:           copyFloat(rec.X),
		Y:           copyFloat(rec.Y),
	}
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v
	return &f
}
