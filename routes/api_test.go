package routes

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Alex-AIMS/nz-addresses/app/controllers"
	"github.com/Alex-AIMS/nz-addresses/app/models"
	"github.com/Alex-AIMS/nz-addresses/app/responses"
	"github.com/Alex-AIMS/nz-addresses/app/services"
	"github.com/Alex-AIMS/nz-addresses/internal/parser"
	"github.com/Alex-AIMS/nz-addresses/internal/search"
	"github.com/Alex-AIMS/nz-addresses/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// register answers from one fixed record
type register struct {
	browseErr error
}

func (r *register) FindByNumberAndRoad(_ context.Context, number int, road string) (*models.AddressRecord, error) {
	if number == 61 && road == "otonga" {
		x, y := 1885000.5, 5771000.25
		return &models.AddressRecord{
			AddressID:   2001,
			FullAddress: "61 Otonga Road, Rotorua",
			X:           &x,
			Y:           &y,
			Geom:        &models.Point{X: x, Y: y},
		}, nil
	}
	return nil, nil
}

func (r *register) FindRanked(context.Context, int, string, string, int) ([]store.RankedRow, error) {
	return nil, nil
}

func (r *register) FindSimilar(context.Context, string, float64) (*store.SimilarRow, error) {
	return nil, nil
}

func (r *register) FindNearest(_ context.Context, lat, lon float64) (*store.NearestRow, error) {
	rec, _ := r.FindByNumberAndRoad(context.Background(), 61, "otonga")
	return &store.NearestRow{Record: *rec, Distance: 42}, nil
}

func (r *register) SearchAddresses(_ context.Context, query string, limit int) ([]models.AutocompleteResult, error) {
	return []models.AutocompleteResult{{AddressID: 2001, FullAddress: "61 Otonga Road, Rotorua"}}, nil
}

func (r *register) ResolveHierarchy(context.Context, float64, float64) (models.Hierarchy, error) {
	region := "04"
	return models.Hierarchy{RegionID: &region}, nil
}

func (r *register) Regions(context.Context) ([]models.Region, error) {
	return []models.Region{{RegionID: "04", Name: "Bay of Plenty Region"}}, r.browseErr
}

func (r *register) Districts(_ context.Context, regionID string) ([]models.District, error) {
	return []models.District{{DistrictID: "024", RegionID: regionID}}, r.browseErr
}

func (r *register) Suburbs(context.Context, string) ([]models.Suburb, error) {
	return nil, r.browseErr
}

func (r *register) Streets(context.Context, string) ([]models.Street, error) {
	return nil, r.browseErr
}

func (r *register) EstimateAddressCount(context.Context) (int64, error) {
	return 2_300_000, nil
}

func newRouter(t *testing.T, reg *register, readyErr error) (*gin.Engine, *services.AddressService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	matcher := parser.NewMatcher(reg, reg, nil, logger)
	auto := search.NewAutocompleter(search.NewStoreBackend(reg), "postgres", logger)
	cache := services.NewCacheService(time.Hour)
	addressService := services.NewAddressService(matcher, reg, reg, auto, cache, logger)
	t.Cleanup(addressService.Close)
	adminService := services.NewAdminService(reg, nil, nil, cache, logger)

	health := controllers.NewHealthController(map[string]controllers.HealthCheck{
		"database": func(context.Context) error { return readyErr },
	})

	router := gin.New()
	SetupAllRoutes(router, Controllers{
		Address: controllers.NewAddressController(addressService, logger),
		Browse:  controllers.NewBrowseController(addressService, logger),
		Admin:   controllers.NewAdminController(adminService, logger),
		Health:  health,
	}, time.Second, logger)
	return router, addressService
}

func get(router *gin.Engine, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestVerifyRoutes(t *testing.T) {
	router, _ := newRouter(t, &register{}, nil)

	for _, path := range []string{"/verify", "/v1/addresses/verify"} {
		w := get(router, path+"?rawAddress=61+Otonga")
		require.Equal(t, http.StatusOK, w.Code)

		var result models.MatchResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.True(t, result.Found)
		assert.Equal(t, "Match found", result.Message)
		assert.Equal(t, "04", *result.RegionID)
	}
}

func TestVerify_MissingParamIsEmptyAddress(t *testing.T) {
	router, _ := newRouter(t, &register{}, nil)

	w := get(router, "/verify")
	require.Equal(t, http.StatusOK, w.Code)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, false, result["existsInLinz"])
	assert.Equal(t, models.MessageEmptyAddress, result["message"])
}

func TestCoordinatesForAddressRoute(t *testing.T) {
	router, _ := newRouter(t, &register{}, nil)

	w := get(router, "/coordinatesForAddress?rawAddress=61%20Otonga")
	require.Equal(t, http.StatusOK, w.Code)

	var result models.CoordinatesResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, 5771000.25, *result.Latitude)
	assert.Equal(t, 1885000.5, *result.Longitude)
}

func TestAddressForCoordinatesRoute(t *testing.T) {
	router, _ := newRouter(t, &register{}, nil)

	w := get(router, "/addressForCoordinates?latitude=-38.14&longitude=176.25")
	require.Equal(t, http.StatusOK, w.Code)

	var result models.MatchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "Nearest address found", result.Message)

	for _, query := range []string{"latitude=abc&longitude=1", "longitude=176.25", "latitude=95&longitude=176"} {
		w := get(router, "/v1/addresses/reverse?"+query)
		assert.Equal(t, http.StatusBadRequest, w.Code, query)

		var errResp responses.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
		assert.Equal(t, "INVALID_REQUEST", errResp.Error)
	}
}

func TestAutocompleteRoute(t *testing.T) {
	router, _ := newRouter(t, &register{}, nil)

	w := get(router, "/autocomplete?query=ot")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = get(router, "/autocomplete?query=otonga&limit=500")
	require.Equal(t, http.StatusOK, w.Code)
	var results []models.AutocompleteResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	assert.Len(t, results, 1)
}

func TestBrowseRoutes(t *testing.T) {
	router, _ := newRouter(t, &register{}, nil)

	w := get(router, "/regions/04/districts")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"regionId":"04"`)

	failing, _ := newRouter(t, &register{browseErr: errors.New("relation does not exist")}, nil)
	w = get(failing, "/regions")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "DATABASE_ERROR")
}

func TestJobRoutes(t *testing.T) {
	router, _ := newRouter(t, &register{}, nil)

	body := `{"addresses":["61 Otonga","99 Nowhere"]}`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/addresses/jobs", strings.NewReader(body)))
	require.Equal(t, http.StatusAccepted, w.Code)

	var job responses.BatchJobResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
	require.NotEmpty(t, job.JobID)

	require.Eventually(t, func() bool {
		w := get(router, "/v1/addresses/jobs/"+job.JobID+"/status")
		var status responses.JobStatusResponse
		_ = json.Unmarshal(w.Body.Bytes(), &status)
		return status.Status == services.JobDone
	}, 2*time.Second, 10*time.Millisecond)

	w = get(router, "/v1/addresses/jobs/"+job.JobID+"/results?format=ndjson&gzip=1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	gz, err := gzip.NewReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	scanner := bufio.NewScanner(gz)
	var lines []models.BatchResult
	for scanner.Scan() {
		var line models.BatchResult
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	require.Len(t, lines, 2)
	assert.True(t, lines[0].Result.Found)
	assert.False(t, lines[1].Result.Found)

	w = get(router, "/v1/addresses/jobs/unknown/status")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminAndOpsRoutes(t *testing.T) {
	router, _ := newRouter(t, &register{}, nil)

	w := get(router, "/v1/admin/stats")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"register_estimate":2300000`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/admin/cache/invalidate", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/admin/index/sync", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	assert.Equal(t, http.StatusOK, get(router, "/ready").Code)
	assert.Equal(t, http.StatusOK, get(router, "/metrics").Code)
	assert.Equal(t, http.StatusNotFound, get(router, "/nope").Code)

	down, _ := newRouter(t, &register{}, errors.New("connection refused"))
	w = get(down, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
	assert.Equal(t, http.StatusOK, get(down, "/live").Code)
}
