package models

// Point is a geometry point in the register projection (EPSG:2193)
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// AddressRecord is one row of the LINZ address register. The store owns it;
// the matcher only reads it.
type AddressRecord struct {
	AddressID            int64    `json:"addressId"`
	FullAddress          string   `json:"fullAddress"`
	FullAddressASCII     string   `json:"fullAddressAscii,omitempty"`
	FullRoadName         string   `json:"fullRoadName,omitempty"`
	FullRoadNameASCII    string   `json:"fullRoadNameAscii,omitempty"`
	AddressNumberPrefix  string   `json:"addressNumberPrefix,omitempty"`
	AddressNumber        *int     `json:"addressNumber,omitempty"`
	AddressNumberSuffix  string   `json:"addressNumberSuffix,omitempty"`
	SuburbLocality       string   `json:"suburbLocality,omitempty"`
	TownCity             string   `json:"townCity,omitempty"`
	TerritorialAuthority string   `json:"territorialAuthority,omitempty"`
	X                    *float64 `json:"x"`
	Y                    *float64 `json:"y"`
	Geom                 *Point   `json:"geom,omitempty"` // nil when the record has no geometry
}

// HasGeometry reports whether the record can be placed in the hierarchy
func (ar *AddressRecord) HasGeometry() bool {
	return ar.Geom != nil
}

// AutocompleteResult is one suggestion for a partially typed address
type AutocompleteResult struct {
	AddressID   int64   `json:"addressId"`
	FullAddress string  `json:"fullAddress"`
	StreetName  *string `json:"streetName"`
	Suburb      *string `json:"suburb"`
	City        *string `json:"city"`
}
