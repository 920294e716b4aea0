package requests

// VerifyRequest is the query of the verification endpoints. A missing
// rawAddress is treated as an empty address.
type VerifyRequest struct {
	RawAddress string `form:"rawAddress"`
}

// ReverseRequest is the query of the reverse geocoding endpoints
type ReverseRequest struct {
	Latitude  *float64 `form:"latitude" binding:"required,min=-90,max=90"`
	Longitude *float64 `form:"longitude" binding:"required,min=-180,max=180"`
}

// AutocompleteRequest is the query of the autocomplete endpoints. Limits
// outside 1..50 fall back to the default.
type AutocompleteRequest struct {
	Query string `form:"query"`
	Limit int    `form:"limit"`
}

// BatchVerifyRequest creates a batch verification job
type BatchVerifyRequest struct {
	Addresses []string `json:"addresses" binding:"required,min=1"` // up to 20000 addresses
}

// InvalidateCacheRequest drops cached results. An empty dataset version
// clears the whole cache.
type InvalidateCacheRequest struct {
	DatasetVersion string `json:"dataset_version"`
}

// SyncIndexRequest copies the register into the search index
type SyncIndexRequest struct {
	BatchSize int `json:"batch_size,omitempty"`
}
