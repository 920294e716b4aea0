package models

// Region is a regional council area
type Region struct {
	RegionID      string `json:"regionId"`
	Name          string `json:"name"`
	DistrictCount int    `json:"districtCount"`
}

// District is a territorial authority within a region
type District struct {
	DistrictID  string `json:"districtId"`
	RegionID    string `json:"regionId"`
	Name        string `json:"name"`
	SuburbCount int    `json:"suburbCount"`
}

// Suburb is a suburb or locality within a district
type Suburb struct {
	SuburbID           string  `json:"suburbId"`
	DistrictID         string  `json:"districtId"`
	Name               string  `json:"name"`
	NameASCII          *string `json:"nameAscii"`
	MajorName          *string `json:"majorName"`
	StreetCount        int     `json:"streetCount"`
	IsMajorSuburb      bool    `json:"isMajorSuburb"`
	PopulationCategory string  `json:"populationCategory"`
}

// Street is a road name within a suburb
type Street struct {
	StreetName string `json:"streetName"`
}

// Population categories
const (
	PopulationUnknown = "unknown"
)

// IsValid reports whether the suburb carries its keys
func (s *Suburb) IsValid() bool {
	return s.SuburbID != "" && s.DistrictID != "" && s.Name != ""
}
