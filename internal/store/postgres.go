package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Alex-AIMS/nz-addresses/app/models"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// PostgresConfig configures the connection pool
type PostgresConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// PostgresStore implements AddressStore, SpatialStore and BrowseStore on the
// nz_addresses schema (PostGIS + pg_trgm).
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open connects to Postgres and verifies the connection
func Open(ctx context.Context, cfg PostgresConfig, logger *zap.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Connected to Postgres",
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns))

	return NewPostgresStore(db, logger), nil
}

// NewPostgresStore wraps an existing pool
func NewPostgresStore(db *sql.DB, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

// Ping checks the connection
func (ps *PostgresStore) Ping(ctx context.Context) error {
	return ps.db.PingContext(ctx)
}

// Close closes the pool
func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}

const addressColumns = `
	address_id,
	full_address,
	full_address_ascii,
	full_road_name,
	full_road_name_ascii,
	address_number,
	suburb_locality,
	town_city,
	x_coord,
	y_coord,
	ST_X(geom),
	ST_Y(geom)`

const findByNumberAndRoadSQL = `
SELECT` + addressColumns + `
FROM nz_addresses.addresses
WHERE address_number = $1
	AND (full_road_name_ascii ILIKE $2 OR full_road_name ILIKE $2)
LIMIT 1`

// FindByNumberAndRoad implements AddressStore
func (ps *PostgresStore) FindByNumberAndRoad(ctx context.Context, number int, road string) (*models.AddressRecord, error) {
	row := ps.db.QueryRowContext(ctx, findByNumberAndRoadSQL, number, containsPattern(road))

	var rec models.AddressRecord
	if err := scanRecord(row, &rec); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("exact address query: %w", err)
	}
	if err := validateRecord(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Priority is 1 when the locality or town contains the city. Street match
// quality is 1 for case-insensitive equality, 2 for a prefix and 3 otherwise.
// The street argument is normalized text, so it is already lowercase. An empty city
// puts every row in priority 2.
const findRankedSQL = `
SELECT` + addressColumns + `,
	CASE
		WHEN $5 <> '' AND (suburb_locality ILIKE $6 OR town_city ILIKE $6) THEN 1
		ELSE 2
	END AS priority,
	CASE
		WHEN lower(full_road_name) = $3 THEN 1
		WHEN full_road_name ILIKE $4 THEN 2
		ELSE 3
	END AS street_match_quality
FROM nz_addresses.addresses
WHERE address_number = $1
	AND (full_road_name_ascii ILIKE $2 OR full_road_name ILIKE $2)
ORDER BY priority, street_match_quality, address_id
LIMIT $7`

// FindRanked implements AddressStore
func (ps *PostgresStore) FindRanked(ctx context.Context, number int, street, city string, limit int) ([]RankedRow, error) {
	rows, err := ps.db.QueryContext(ctx, findRankedSQL,
		number,
		containsPattern(street),
		street,
		prefixPattern(street),
		city,
		containsPattern(city),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("ranked address query: %w", err)
	}
	defer rows.Close()

	var out []RankedRow
	for rows.Next() {
		var r RankedRow
		if err := scanRecord(rows, &r.Record, &r.Priority, &r.StreetMatchQuality); err != nil {
			return nil, fmt.Errorf("scan ranked address: %w", err)
		}
		if err := r.validate(); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ranked address rows: %w", err)
	}
	return out, nil
}

const findSimilarSQL = `
SELECT` + addressColumns + `,
	similarity(full_address_ascii, $1) AS sim
FROM nz_addresses.addresses
WHERE full_address_ascii IS NOT NULL
	AND similarity(full_address_ascii, $1) > $2
ORDER BY sim DESC, address_id
LIMIT 1`

// FindSimilar implements AddressStore
func (ps *PostgresStore) FindSimilar(ctx context.Context, text string, threshold float64) (*SimilarRow, error) {
	row := ps.db.QueryRowContext(ctx, findSimilarSQL, text, threshold)

	var r SimilarRow
	if err := scanRecord(row, &r.Record, &r.Similarity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("similarity query: %w", err)
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

const findNearestSQL = `
SELECT` + addressColumns + `,
	ST_Distance(geom, ST_Transform(ST_SetSRID(ST_MakePoint($1, $2), 4326), 2193)) AS distance
FROM nz_addresses.addresses
WHERE geom IS NOT NULL
ORDER BY geom <-> ST_Transform(ST_SetSRID(ST_MakePoint($1, $2), 4326), 2193)
LIMIT 1`

// FindNearest implements AddressStore
func (ps *PostgresStore) FindNearest(ctx context.Context, latitude, longitude float64) (*NearestRow, error) {
	row := ps.db.QueryRowContext(ctx, findNearestSQL, longitude, latitude)

	var r NearestRow
	if err := scanRecord(row, &r.Record, &r.Distance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("nearest address query: %w", err)
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

const searchAddressesSQL = `
SELECT address_id, full_address, full_road_name, suburb_locality, town_city
FROM nz_addresses.addresses
WHERE full_address_ascii ILIKE $1
ORDER BY
	CASE WHEN full_address_ascii ILIKE $2 THEN 0 ELSE 1 END,
	full_address_ascii
LIMIT $3`

// SearchAddresses implements AddressStore
func (ps *PostgresStore) SearchAddresses(ctx context.Context, query string, limit int) ([]models.AutocompleteResult, error) {
	rows, err := ps.db.QueryContext(ctx, searchAddressesSQL, containsPattern(query), prefixPattern(query), limit)
	if err != nil {
		return nil, fmt.Errorf("autocomplete query: %w", err)
	}
	defer rows.Close()

	out := make([]models.AutocompleteResult, 0, limit)
	for rows.Next() {
		var (
			r                    models.AutocompleteResult
			street, suburb, city sql.NullString
		)
		if err := rows.Scan(&r.AddressID, &r.FullAddress, &street, &suburb, &city); err != nil {
			return nil, fmt.Errorf("scan autocomplete row: %w", err)
		}
		r.StreetName = nullString(street)
		r.Suburb = nullString(suburb)
		r.City = nullString(city)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("autocomplete rows: %w", err)
	}
	return out, nil
}

// ForEachAddress walks the ASCII-addressable part of the register in id
// order, batch rows at a time. Used to feed the search index.
func (ps *PostgresStore) ForEachAddress(ctx context.Context, batch int, fn func([]models.AddressRecord) error) (int, error) {
	const q = `
SELECT` + addressColumns + `
FROM nz_addresses.addresses
WHERE address_id > $1 AND full_address_ascii IS NOT NULL
ORDER BY address_id
LIMIT $2`

	var (
		lastID int64
		total  int
	)
	for {
		rows, err := ps.db.QueryContext(ctx, q, lastID, batch)
		if err != nil {
			return total, fmt.Errorf("address export query: %w", err)
		}

		records := make([]models.AddressRecord, 0, batch)
		for rows.Next() {
			var rec models.AddressRecord
			if err := scanRecord(rows, &rec); err != nil {
				rows.Close()
				return total, fmt.Errorf("scan exported address: %w", err)
			}
			records = append(records, rec)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return total, fmt.Errorf("address export rows: %w", err)
		}

		if len(records) == 0 {
			return total, nil
		}
		if err := fn(records); err != nil {
			return total, err
		}
		total += len(records)
		lastID = records[len(records)-1].AddressID

		if len(records) < batch {
			return total, nil
		}
	}
}

// EstimateAddressCount returns the planner estimate of the register size
func (ps *PostgresStore) EstimateAddressCount(ctx context.Context) (int64, error) {
	var n float64
	err := ps.db.QueryRowContext(ctx,
		`SELECT reltuples FROM pg_class WHERE oid = 'nz_addresses.addresses'::regclass`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("address count estimate: %w", err)
	}
	return int64(n), nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRecord scans addressColumns into rec, followed by any extra columns
func scanRecord(s scanner, rec *models.AddressRecord, extra ...any) error {
	var (
		fullAddress, fullASCII, road, roadASCII sql.NullString
		suburb, town                            sql.NullString
		number                                  sql.NullInt64
		x, y, gx, gy                            sql.NullFloat64
	)

	dest := []any{
		&rec.AddressID,
		&fullAddress,
		&fullASCII,
		&road,
		&roadASCII,
		&number,
		&suburb,
		&town,
		&x,
		&y,
		&gx,
		&gy,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return err
	}

	rec.FullAddress = fullAddress.String
	rec.FullAddressASCII = fullASCII.String
	rec.FullRoadName = road.String
	rec.FullRoadNameASCII = roadASCII.String
	rec.SuburbLocality = suburb.String
	rec.TownCity = town.String
	if number.Valid {
		n := int(number.Int64)
		rec.AddressNumber = &n
	}
	rec.X = nullFloat(x)
	rec.Y = nullFloat(y)
	if gx.Valid && gy.Valid {
		rec.Geom = &models.Point{X: gx.Float64, Y: gy.Float64}
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching s anywhere
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// prefixPattern builds an ILIKE pattern matching s at the start
func prefixPattern(s string) string {
	return likeEscaper.Replace(s) + "%"
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
