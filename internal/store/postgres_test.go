package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var recordColumns = []string{
	"address_id", "full_address", "full_address_ascii", "full_road_name", "full_road_name_ascii",
	"address_number", "suburb_locality", "town_city", "x_coord", "y_coord", "st_x", "st_y",
}

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db, zap.NewNop()), mock
}

func otongaRow(extra ...string) *sqlmock.Rows {
	return sqlmock.NewRows(append(append([]string{}, recordColumns...), extra...))
}

func TestFindByNumberAndRoad_MissingGeometry(t *testing.T) {
	ps, mock := newMockStore(t)

	mock.ExpectQuery(`FROM nz_addresses.addresses\s+WHERE address_number = \$1`).
		WithArgs(int64(61), "%otonga%").
		WillReturnRows(otongaRow().AddRow(
			int64(1001), "61 Otonga Road, Springfield, Rotorua", "61 Otonga Road, Springfield, Rotorua",
			"Otonga Road", "Otonga Road", int64(61), "Springfield", "Rotorua",
			1883000.5, 5772000.25, nil, nil,
		))

	rec, err := ps.FindByNumberAndRoad(context.Background(), 61, "otonga")
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, int64(1001), rec.AddressID)
	assert.Equal(t, "Otonga Road", rec.FullRoadName)
	require.NotNil(t, rec.AddressNumber)
	assert.Equal(t, 61, *rec.AddressNumber)
	require.NotNil(t, rec.X)
	assert.Equal(t, 1883000.5, *rec.X)
	assert.Nil(t, rec.Geom)
	assert.False(t, rec.HasGeometry())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByNumberAndRoad_NoRows(t *testing.T) {
	ps, mock := newMockStore(t)

	mock.ExpectQuery(`FROM nz_addresses.addresses`).
		WillReturnRows(otongaRow())

	rec, err := ps.FindByNumberAndRoad(context.Background(), 9999, "nowhere")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestFindByNumberAndRoad_QueryError(t *testing.T) {
	ps, mock := newMockStore(t)

	boom := errors.New("connection reset")
	mock.ExpectQuery(`FROM nz_addresses.addresses`).WillReturnError(boom)

	_, err := ps.FindByNumberAndRoad(context.Background(), 1, "queen")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestFindRanked(t *testing.T) {
	ps, mock := newMockStore(t)

	mock.ExpectQuery(`ORDER BY priority, street_match_quality, address_id`).
		WithArgs(int64(1), "%queen street%", "queen street", "queen street%", "auckland", "%auckland%", int64(5)).
		WillReturnRows(otongaRow("priority", "street_match_quality").
			AddRow(int64(10), "1 Queen Street, Auckland Central, Auckland", "1 Queen Street, Auckland Central, Auckland",
				"Queen Street", "Queen Street", int64(1), "Auckland Central", "Auckland",
				1757000.0, 5920000.0, 1757000.0, 5920000.0, int64(1), int64(3)).
			AddRow(int64(20), "1 Queen Street, Waiuku", "1 Queen Street, Waiuku",
				"Queen Street", "Queen Street", int64(1), "Waiuku", "Waiuku",
				1760000.0, 5880000.0, 1760000.0, 5880000.0, int64(2), int64(3)))

	rows, err := ps.FindRanked(context.Background(), 1, "queen street", "auckland", 5)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, int64(10), rows[0].Record.AddressID)
	assert.Equal(t, PriorityCityMatch, rows[0].Priority)
	assert.Equal(t, StreetSubstring, rows[0].StreetMatchQuality)
	require.NotNil(t, rows[0].Record.Geom)
	assert.Equal(t, 5920000.0, rows[0].Record.Geom.Y)
	assert.Equal(t, PriorityOther, rows[1].Priority)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindRanked_ExactStreetIgnoresCase(t *testing.T) {
	ps, mock := newMockStore(t)

	mock.ExpectQuery(`WHEN lower\(full_road_name\) = \$3 THEN 1\s+WHEN full_road_name ILIKE \$4 THEN 2`).
		WithArgs(int64(1), "%queen street%", "queen street", "queen street%", "", "%%", int64(5)).
		WillReturnRows(otongaRow("priority", "street_match_quality").
			AddRow(int64(10), "1 Queen Street, Auckland Central, Auckland", "1 Queen Street, Auckland Central, Auckland",
				"Queen Street", "Queen Street", int64(1), "Auckland Central", "Auckland",
				1757000.0, 5920000.0, 1757000.0, 5920000.0, int64(2), int64(1)).
			AddRow(int64(11), "1 Queen Street West, Auckland", "1 Queen Street West, Auckland",
				"Queen Street West", "Queen Street West", int64(1), "Auckland Central", "Auckland",
				1757100.0, 5920100.0, 1757100.0, 5920100.0, int64(2), int64(2)))

	rows, err := ps.FindRanked(context.Background(), 1, "queen street", "", 5)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, StreetExact, rows[0].StreetMatchQuality)
	assert.Equal(t, StreetPrefix, rows[1].StreetMatchQuality)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindRanked_InvalidRow(t *testing.T) {
	ps, mock := newMockStore(t)

	mock.ExpectQuery(`ORDER BY priority`).
		WillReturnRows(otongaRow("priority", "street_match_quality").
			AddRow(int64(10), "1 Queen Street", nil, "Queen Street", nil, int64(1), nil, nil,
				nil, nil, nil, nil, int64(7), int64(1)))

	_, err := ps.FindRanked(context.Background(), 1, "queen", "", 5)
	assert.ErrorIs(t, err, ErrInvalidRow)
}

func TestFindSimilar(t *testing.T) {
	ps, mock := newMockStore(t)

	mock.ExpectQuery(`similarity\(full_address_ascii, \$1\) > \$2`).
		WithArgs("61 otonga rd rotorua", 0.6).
		WillReturnRows(otongaRow("sim").
			AddRow(int64(1001), "61 Otonga Road, Rotorua", "61 Otonga Road, Rotorua",
				"Otonga Road", "Otonga Road", int64(61), "Springfield", "Rotorua",
				1883000.5, 5772000.25, 1883000.5, 5772000.25, 0.8712))

	row, err := ps.FindSimilar(context.Background(), "61 otonga rd rotorua", 0.6)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.InDelta(t, 0.8712, row.Similarity, 1e-9)
	assert.True(t, row.Record.HasGeometry())
}

func TestFindNearest_ArgumentOrder(t *testing.T) {
	ps, mock := newMockStore(t)

	// ST_MakePoint takes longitude first
	mock.ExpectQuery(`ORDER BY geom <->`).
		WithArgs(176.25, -38.14).
		WillReturnRows(otongaRow("distance").
			AddRow(int64(1001), "61 Otonga Road, Rotorua", "61 Otonga Road, Rotorua",
				"Otonga Road", "Otonga Road", int64(61), "Springfield", "Rotorua",
				1883000.5, 5772000.25, 1883000.5, 5772000.25, 42.5))

	row, err := ps.FindNearest(context.Background(), -38.14, 176.25)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, 42.5, row.Distance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveHierarchy(t *testing.T) {
	ps, mock := newMockStore(t)

	mock.ExpectQuery(`resolve_hierarchy`).
		WithArgs(1883000.5, 5772000.25).
		WillReturnRows(sqlmock.NewRows([]string{"region_id", "district_id", "suburb_id"}).
			AddRow("04", "024", nil))

	h, err := ps.ResolveHierarchy(context.Background(), 1883000.5, 5772000.25)
	require.NoError(t, err)
	require.NotNil(t, h.RegionID)
	assert.Equal(t, "04", *h.RegionID)
	assert.Equal(t, "024", *h.DistrictID)
	assert.Nil(t, h.SuburbID)
}

func TestResolveHierarchy_Offshore(t *testing.T) {
	ps, mock := newMockStore(t)

	mock.ExpectQuery(`resolve_hierarchy`).
		WillReturnRows(sqlmock.NewRows([]string{"region_id", "district_id", "suburb_id"}))

	h, err := ps.ResolveHierarchy(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.True(t, h.IsEmpty())
}

func TestSearchAddresses(t *testing.T) {
	ps, mock := newMockStore(t)

	mock.ExpectQuery(`WHERE full_address_ascii ILIKE \$1`).
		WithArgs("%queen%", "queen%", int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"address_id", "full_address", "full_road_name", "suburb_locality", "town_city"}).
			AddRow(int64(1), "Queen Street, Auckland", "Queen Street", "Auckland Central", "Auckland").
			AddRow(int64(2), "1 Queen Street, Waiuku", "Queen Street", nil, nil))

	out, err := ps.SearchAddresses(context.Background(), "queen", 10)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Queen Street", *out[0].StreetName)
	assert.Nil(t, out[1].Suburb)
}

func TestLikePatterns(t *testing.T) {
	assert.Equal(t, "%otonga%", containsPattern("otonga"))
	assert.Equal(t, `%100\%%`, containsPattern("100%"))
	assert.Equal(t, `a\_b%`, prefixPattern("a_b"))
	assert.Equal(t, `%c:\\dir%`, containsPattern(`c:\dir`))
}

func TestRegions(t *testing.T) {
	ps, mock := newMockStore(t)

	mock.ExpectQuery(`FROM nz_addresses.v_regions`).
		WillReturnRows(sqlmock.NewRows([]string{"region_id", "name", "district_count"}).
			AddRow("02", "Auckland Region", int64(1)).
			AddRow("04", "Bay of Plenty Region", int64(7)))

	regions, err := ps.Regions(context.Background())
	require.NoError(t, err)
	require.Len(t, regions, 2)
	assert.Equal(t, 7, regions[1].DistrictCount)
}
