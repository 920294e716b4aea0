package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/Alex-AIMS/nz-addresses/app/models"
	"github.com/Alex-AIMS/nz-addresses/app/services"
	"github.com/Alex-AIMS/nz-addresses/internal/parser"
	"github.com/Alex-AIMS/nz-addresses/internal/search"
	"github.com/Alex-AIMS/nz-addresses/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// emptyRegister has no addresses
type emptyRegister struct{}

func (emptyRegister) FindByNumberAndRoad(context.Context, int, string) (*models.AddressRecord, error) {
	return nil, nil
}
func (emptyRegister) FindRanked(context.Context, int, string, string, int) ([]store.RankedRow, error) {
	return nil, nil
}
func (emptyRegister) FindSimilar(context.Context, string, float64) (*store.SimilarRow, error) {
	return nil, nil
}
func (emptyRegister) FindNearest(context.Context, float64, float64) (*store.NearestRow, error) {
	return nil, nil
}
func (emptyRegister) SearchAddresses(context.Context, string, int) ([]models.AutocompleteResult, error) {
	return nil, nil
}
func (emptyRegister) ResolveHierarchy(context.Context, float64, float64) (models.Hierarchy, error) {
	return models.Hierarchy{}, nil
}
func (emptyRegister) Regions(context.Context) ([]models.Region, error) { return nil, nil }
func (emptyRegister) Districts(context.Context, string) ([]models.District, error) {
	return nil, nil
}
func (emptyRegister) Suburbs(context.Context, string) ([]models.Suburb, error) { return nil, nil }
func (emptyRegister) Streets(context.Context, string) ([]models.Street, error) { return nil, nil }

func TestReadAddresses(t *testing.T) {
	in := "61 Otonga Road\n\n   \n  1 Queen Street, Auckland  \n"

	addresses, err := readAddresses(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"61 Otonga Road", "1 Queen Street, Auckland"}, addresses)
}

func TestVerifyAll_KeepsInputOrder(t *testing.T) {
	logger := zap.NewNop()
	reg := emptyRegister{}
	svc := services.NewAddressService(
		parser.NewMatcher(reg, reg, nil, logger),
		reg, reg,
		search.NewAutocompleter(search.NewStoreBackend(reg), "postgres", logger),
		nil, logger)
	defer svc.Close()

	addresses := []string{"1 Queen Street", "", "99 Nowhere"}
	var out bytes.Buffer
	require.NoError(t, verifyAll(context.Background(), svc, addresses, &out))

	var lines []models.BatchResult
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var line models.BatchResult
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}

	require.Len(t, lines, 3)
	for i, line := range lines {
		assert.Equal(t, i, line.Index)
		assert.Equal(t, addresses[i], line.RawAddress)
		assert.False(t, line.Result.Found)
	}
	assert.Equal(t, models.MessageEmptyAddress, lines[1].Result.Message)
	assert.Equal(t, models.MessageNotFound, lines[2].Result.Message)
}
