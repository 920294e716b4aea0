package normalizer

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/road_types.yaml
var roadTypesYAML []byte

// RulesConfig is the embedded rule data
type RulesConfig struct {
	RoadTypes []string `yaml:"road_types"`
}

// RoadTypes is the closed, case-insensitive set of road-type suffix words
// ("street", "rd", ...) used to find where a street name ends.
type RoadTypes struct {
	words map[string]struct{}
}

// LoadRulesConfig parses the embedded rule data
func LoadRulesConfig() (*RulesConfig, error) {
	config := &RulesConfig{}
	if err := yaml.Unmarshal(roadTypesYAML, config); err != nil {
		return nil, fmt.Errorf("parse road types: %w", err)
	}
	if len(config.RoadTypes) == 0 {
		return nil, fmt.Errorf("parse road types: empty list")
	}
	return config, nil
}

// NewRoadTypes builds the set from the embedded list plus any extra words.
func NewRoadTypes(extra ...string) (*RoadTypes, error) {
	config, err := LoadRulesConfig()
	if err != nil {
		return nil, err
	}

	rt := &RoadTypes{words: make(map[string]struct{}, len(config.RoadTypes)+len(extra))}
	for _, w := range append(config.RoadTypes, extra...) {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			rt.words[w] = struct{}{}
		}
	}
	return rt, nil
}

// DefaultRoadTypes returns the embedded set. It panics if the embedded data
// is broken, which would be a build defect.
func DefaultRoadTypes() *RoadTypes {
	rt, err := NewRoadTypes()
	if err != nil {
		panic(err)
	}
	return rt
}

// IsRoadType reports whether word is a road-type suffix
func (rt *RoadTypes) IsRoadType(word string) bool {
	if rt == nil {
		return false
	}
	_, ok := rt.words[strings.ToLower(word)]
	return ok
}

// Words returns the set in sorted order
func (rt *RoadTypes) Words() []string {
	out := make([]string, 0, len(rt.words))
	for w := range rt.words {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}
