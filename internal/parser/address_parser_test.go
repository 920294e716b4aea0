package parser

import (
	"testing"

	"github.com/Alex-AIMS/nz-addresses/internal/normalizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		tokens    []string
		number    *int
		remainder []string
	}{
		{"number first", []string{"61", "otonga", "rotorua"}, intp(61), []string{"otonga", "rotorua"}},
		{"words before number are dropped", []string{"flat", "2", "12", "queen", "street"}, intp(2), []string{"12", "queen", "street"}},
		{"number last", []string{"queen", "street", "1"}, intp(1), []string{}},
		{"no number", []string{"queen", "street", "auckland"}, nil, nil},
		{"alphanumeric is not a number", []string{"61a", "otonga"}, nil, nil},
		{"empty", nil, nil, nil},
		{"out of range number is skipped", []string{"99999999999", "12", "queen", "street"}, intp(12), []string{"queen", "street"}},
		{"largest 32-bit number", []string{"2147483647", "queen"}, intp(2147483647), []string{"queen"}},
		{"only out of range number", []string{"2147483648", "queen"}, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := Classify(tt.tokens)
			if tt.number == nil {
				assert.Nil(t, ts.Number)
				assert.False(t, ts.HasNumber())
				assert.Empty(t, ts.Remainder)
				return
			}
			require.NotNil(t, ts.Number)
			assert.Equal(t, *tt.number, *ts.Number)
			assert.Equal(t, len(tt.remainder), len(ts.Remainder))
			if len(tt.remainder) > 0 {
				assert.Equal(t, tt.remainder, ts.Remainder)
			}
		})
	}
}

func TestFirstStreetToken(t *testing.T) {
	assert.Equal(t, "otonga", FirstStreetToken([]string{"61", "otonga", "rotorua"}))
	assert.Equal(t, "queen", FirstStreetToken([]string{"queen", "1"}))
	assert.Equal(t, "", FirstStreetToken([]string{"1", "2"}))
	assert.Equal(t, "", FirstStreetToken(nil))
	assert.Equal(t, "99999999999", FirstStreetToken([]string{"99999999999", "queen"}))
}

func TestSegment(t *testing.T) {
	rt := normalizer.DefaultRoadTypes()

	tests := []struct {
		name      string
		remainder []string
		want      []Segmentation
	}{
		{"empty", nil, nil},
		{"single token", []string{"otonga"}, []Segmentation{{Street: "otonga"}}},
		{"street and road type", []string{"queen", "street"}, []Segmentation{{Street: "queen street"}}},
		{"street and city", []string{"otonga", "rotorua"}, []Segmentation{{Street: "otonga", City: "rotorua"}}},
		{"road type then city", []string{"queen", "street", "auckland"},
			[]Segmentation{{Street: "queen street", City: "auckland"}}},
		{"road type then two word city", []string{"queen", "st", "new", "plymouth"},
			[]Segmentation{{Street: "queen st", City: "new plymouth"}}},
		{"one word street with two word fallback", []string{"spring", "creek", "blenheim"},
			[]Segmentation{
				{Street: "spring", City: "creek blenheim"},
				{Street: "spring creek", City: "blenheim"},
			}},
		{"road type is case insensitive", []string{"queen", "STREET", "auckland"},
			[]Segmentation{{Street: "queen STREET", City: "auckland"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Segment(tt.remainder, rt))
		})
	}
}

func TestSegment_ExtraRoadType(t *testing.T) {
	rt, err := normalizer.NewRoadTypes("esplanade")
	require.NoError(t, err)

	got := Segment([]string{"marine", "esplanade", "tauranga"}, rt)
	assert.Equal(t, []Segmentation{{Street: "marine esplanade", City: "tauranga"}}, got)
}

func TestNewQuery(t *testing.T) {
	q := NewQuery("  61 Otonga, Rotorua. ")
	assert.Equal(t, "61 otonga rotorua", q.Normalized)
	assert.Equal(t, []string{"61", "otonga", "rotorua"}, q.Tokens.Tokens)
	require.True(t, q.Tokens.HasNumber())
	assert.Equal(t, 61, *q.Tokens.Number)
	assert.Equal(t, []string{"otonga", "rotorua"}, q.Tokens.Remainder)
}

func intp(v int) *int { return &v }
