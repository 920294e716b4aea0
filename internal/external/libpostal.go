//go:build cgo

package external

import (
	"strings"

	"github.com/openvenues/gopostal/expand"
	"github.com/openvenues/gopostal/parser"
)

// Available reports whether libpostal is linked in
const Available = true

// Parse expands raw with English rules and labels the best expansion
func Parse(raw string) Components {
	opts := expand.GetDefaultExpansionOptions()
	opts.Languages = []string{"en"}
	exps := expand.ExpandAddressOptions(raw, opts)
	best := raw
	if len(exps) > 0 {
		best = exps[0]
	}

	comps := parser.ParseAddress(best)
	covered, total := 0, len(strings.Fields(best))
	var out Components
	for _, c := range comps {
		switch c.Label {
		case "house_number":
			out.HouseNumber = c.Value
		case "road":
			out.Road = c.Value
		case "unit":
			out.Unit = c.Value
		case "suburb":
			out.Suburb = c.Value
		case "city":
			out.City = c.Value
		case "postcode":
			out.Postcode = c.Value
		}
		covered += len(strings.Fields(c.Value))
	}
	if total > 0 {
		out.Coverage = float64(covered) / float64(total)
	}
	return out
}
