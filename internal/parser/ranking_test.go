package parser

import (
	"math/rand"
	"testing"

	"github.com/Alex-AIMS/nz-addresses/app/models"
	"github.com/Alex-AIMS/nz-addresses/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(rows []store.RankedRow) []int64 {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = r.Record.AddressID
	}
	return out
}

func TestSortCandidates_TotalOrder(t *testing.T) {
	rows := []store.RankedRow{
		ranked(record(50, "a", 0, 0, true), 2, 1),
		ranked(record(40, "b", 0, 0, true), 1, 3),
		ranked(record(30, "c", 0, 0, true), 1, 1),
		ranked(record(20, "d", 0, 0, true), 1, 3),
		ranked(record(10, "e", 0, 0, true), 2, 1),
	}
	want := []int64{30, 20, 40, 10, 50}

	assert.Equal(t, want, ids(SortCandidates(rows)))

	// any input permutation gives the same order
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]store.RankedRow(nil), rows...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, ids(SortCandidates(shuffled)))
	}
}

func TestSortCandidates_DoesNotModifyInput(t *testing.T) {
	rows := []store.RankedRow{
		ranked(record(2, "a", 0, 0, true), 2, 1),
		ranked(record(1, "b", 0, 0, true), 1, 1),
	}
	SortCandidates(rows)
	assert.Equal(t, []int64{2, 1}, ids(rows))
}

func TestSelectCandidate(t *testing.T) {
	cityMatch := ranked(record(7, "in city", 0, 0, true), 1, 3)
	better := ranked(record(3, "elsewhere", 0, 0, true), 2, 1)

	t.Run("single candidate", func(t *testing.T) {
		got := SelectCandidate([]store.RankedRow{better}, true)
		assert.Equal(t, int64(3), got.Record.AddressID)
	})

	t.Run("city prefers priority one", func(t *testing.T) {
		got := SelectCandidate([]store.RankedRow{better, cityMatch}, true)
		assert.Equal(t, int64(7), got.Record.AddressID)
	})

	t.Run("city without priority one falls back to top", func(t *testing.T) {
		other := ranked(record(9, "other", 0, 0, true), 2, 2)
		got := SelectCandidate([]store.RankedRow{better, other}, true)
		assert.Equal(t, int64(3), got.Record.AddressID)
	})

	t.Run("no city takes top", func(t *testing.T) {
		got := SelectCandidate([]store.RankedRow{better, cityMatch}, false)
		assert.Equal(t, int64(3), got.Record.AddressID)
	})
}

func TestMeasure(t *testing.T) {
	rec := models.AddressRecord{AddressID: 1, FullAddress: "61 Ōtonga Road, Rotorua"}

	q := Measure("61 otonga road rotorua", &rec)
	require.NotNil(t, q)
	assert.InDelta(t, 1.0, q.Similarity, 1e-9)
	assert.Equal(t, 0, q.EditDistance)

	q = Measure("61 otonga rd rotorua", &rec)
	require.NotNil(t, q)
	assert.Less(t, q.Similarity, 1.0)
	assert.Equal(t, 2, q.EditDistance)

	assert.Nil(t, Measure("", &rec))
}
