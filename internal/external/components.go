// Package external wraps libpostal for the diagnostic components endpoint.
// It is never part of the match cascade.
package external

// Components holds the libpostal labels relevant to NZ addresses
type Components struct {
	HouseNumber string
	Road        string
	Unit        string
	Suburb      string
	City        string
	Postcode    string
	Coverage    float64 // share of expanded words assigned to a label
}

// Map returns the non-empty components keyed by libpostal label
func (c Components) Map() map[string]string {
	out := map[string]string{}
	for label, value := range map[string]string{
		"house_number": c.HouseNumber,
		"road":         c.Road,
		"unit":         c.Unit,
		"suburb":       c.Suburb,
		"city":         c.City,
		"postcode":     c.Postcode,
	} {
		if value != "" {
			out[label] = value
		}
	}
	return out
}
