package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Alex-AIMS/nz-addresses/app/models"
)

const resolveHierarchySQL = `
SELECT region_id, district_id, suburb_id
FROM nz_addresses.resolve_hierarchy(ST_SetSRID(ST_MakePoint($1, $2), 2193))`

// ResolveHierarchy implements SpatialStore. A point outside every polygon
// yields an empty hierarchy, not an error.
func (ps *PostgresStore) ResolveHierarchy(ctx context.Context, x, y float64) (models.Hierarchy, error) {
	var region, district, suburb sql.NullString

	err := ps.db.QueryRowContext(ctx, resolveHierarchySQL, x, y).Scan(&region, &district, &suburb)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Hierarchy{}, nil
		}
		return models.Hierarchy{}, fmt.Errorf("resolve hierarchy: %w", err)
	}

	return models.Hierarchy{
		RegionID:   nullString(region),
		DistrictID: nullString(district),
		SuburbID:   nullString(suburb),
	}, nil
}

// Regions implements BrowseStore
func (ps *PostgresStore) Regions(ctx context.Context) ([]models.Region, error) {
	rows, err := ps.db.QueryContext(ctx, `
SELECT region_id, name, COALESCE(district_count, 0)
FROM nz_addresses.v_regions
ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}
	defer rows.Close()

	out := []models.Region{}
	for rows.Next() {
		var r models.Region
		if err := rows.Scan(&r.RegionID, &r.Name, &r.DistrictCount); err != nil {
			return nil, fmt.Errorf("scan region: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Districts implements BrowseStore
func (ps *PostgresStore) Districts(ctx context.Context, regionID string) ([]models.District, error) {
	rows, err := ps.db.QueryContext(ctx, `
SELECT district_id, region_id, display_name, COALESCE(suburb_count, 0)
FROM nz_addresses.v_districts
WHERE region_id = $1
ORDER BY display_name`, regionID)
	if err != nil {
		return nil, fmt.Errorf("list districts: %w", err)
	}
	defer rows.Close()

	out := []models.District{}
	for rows.Next() {
		var d models.District
		if err := rows.Scan(&d.DistrictID, &d.RegionID, &d.Name, &d.SuburbCount); err != nil {
			return nil, fmt.Errorf("scan district: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Suburbs implements BrowseStore
func (ps *PostgresStore) Suburbs(ctx context.Context, districtID string) ([]models.Suburb, error) {
	rows, err := ps.db.QueryContext(ctx, `
SELECT suburb_id, district_id, name, name, COALESCE(street_count, 0),
	COALESCE(is_major_suburb, false), COALESCE(population_category, 'unknown')
FROM nz_addresses.v_suburbs
WHERE district_id = $1
ORDER BY sort_priority, name`, districtID)
	if err != nil {
		return nil, fmt.Errorf("list suburbs: %w", err)
	}
	defer rows.Close()

	out := []models.Suburb{}
	for rows.Next() {
		var (
			s         models.Suburb
			majorName sql.NullString
		)
		if err := rows.Scan(&s.SuburbID, &s.DistrictID, &s.Name, &majorName,
			&s.StreetCount, &s.IsMajorSuburb, &s.PopulationCategory); err != nil {
			return nil, fmt.Errorf("scan suburb: %w", err)
		}
		s.MajorName = nullString(majorName)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Streets implements BrowseStore
func (ps *PostgresStore) Streets(ctx context.Context, suburbID string) ([]models.Street, error) {
	rows, err := ps.db.QueryContext(ctx, `
SELECT street_name
FROM nz_addresses.streets_by_suburb
WHERE suburb_id = $1
ORDER BY street_name`, suburbID)
	if err != nil {
		return nil, fmt.Errorf("list streets: %w", err)
	}
	defer rows.Close()

	out := []models.Street{}
	for rows.Next() {
		var s models.Street
		if err := rows.Scan(&s.StreetName); err != nil {
			return nil, fmt.Errorf("scan street: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
