package models

// MatchResult is the outcome of resolving one raw address. It is built once by
// the matcher and never modified afterwards.
type MatchResult struct {
	Found       bool     `json:"existsInLinz" bson:"found"`                         // matched a register record
	AddressID   *int64   `json:"addressId" bson:"address_id,omitempty"`             // register identifier
	FullAddress *string  `json:"fullAddress" bson:"full_address,omitempty"`         // display address
	X           *float64 `json:"x" bson:"x,omitempty"`                               // NZTM easting
	Y           *float64 `json:"y" bson:"y,omitempty"`                               // NZTM northing
	RegionID    *string  `json:"regionId" bson:"region_id,omitempty"`
	DistrictID  *string  `json:"districtId" bson:"district_id,omitempty"`
	SuburbID    *string  `json:"suburbId" bson:"suburb_id,omitempty"`
	Message     string   `json:"message" bson:"message"`

	Strategy   string       `json:"strategy,omitempty" bson:"strategy,omitempty"`     // exact, partial, fuzzy, nearest
	Normalized string       `json:"normalized,omitempty" bson:"normalized,omitempty"` // normalized query text
	Quality    *QualityInfo `json:"quality,omitempty" bson:"quality,omitempty"`
}

// QualityInfo compares the normalized query with the matched address
type QualityInfo struct {
	Similarity   float64 `json:"similarity" bson:"similarity"`       // Jaro-Winkler, 0..1
	EditDistance int     `json:"editDistance" bson:"edit_distance"` // Levenshtein
}

// Hierarchy is the region/district/suburb chain enclosing a point. Every id is
// nil when no polygon contains the point.
type Hierarchy struct {
	RegionID   *string `json:"regionId"`
	DistrictID *string `json:"districtId"`
	SuburbID   *string `json:"suburbId"`
}

// IsEmpty reports whether no polygon was found
func (h Hierarchy) IsEmpty() bool {
	return h.RegionID == nil && h.DistrictID == nil && h.SuburbID == nil
}

// CoordinatesResult answers the address to coordinates lookup
type CoordinatesResult struct {
	Success        bool         `json:"success"`
	Latitude       *float64     `json:"latitude"`
	Longitude      *float64     `json:"longitude"`
	AddressDetails *MatchResult `json:"addressDetails,omitempty"`
	Message        string       `json:"message"`
}

// Strategy names
const (
	StrategyExact   = "exact"
	StrategyPartial = "partial"
	StrategyFuzzy   = "fuzzy"
	StrategyNearest = "nearest"
)

// Result messages
const (
	MessageEmptyAddress   = "Address cannot be empty"
	MessageNotFound       = "Address not found in LINZ data"
	MessageMatchFound     = "Match found"
	MessageUniqueMatch    = "Unique match found"
	MessageMissingSpatial = "Address found but missing spatial data"
	MessageCoordinatesOK  = "Coordinates found successfully"
	MessageNoNearby       = "No address found near the specified coordinates"
)

// NotFound builds a result for an unresolved address
func NotFound(message string) MatchResult {
	return MatchResult{Found: false, Message: message}
}

// IsValidStrategy reports whether the strategy is one the service produces
func (mr *MatchResult) IsValidStrategy() bool {
	switch mr.Strategy {
	case "", StrategyExact, StrategyPartial, StrategyFuzzy, StrategyNearest:
		return true
	}
	return false
}

// HasCoordinates reports whether both projected coordinates are present
func (mr *MatchResult) HasCoordinates() bool {
	return mr.X != nil && mr.Y != nil
}

// BatchResult is one line of a batch verification output
type BatchResult struct {
	Index      int         `json:"index"`
	RawAddress string      `json:"rawAddress"`
	Result     MatchResult `json:"result"`
}
