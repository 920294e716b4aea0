package responses

import "time"

// BatchJobResponse acknowledges a batch job
type BatchJobResponse struct {
	JobID          string `json:"job_id"`
	TotalAddresses int    `json:"total_addresses"`
	Status         string `json:"status"`
	Message        string `json:"message"`
}

// JobStatusResponse is the progress of a batch job
type JobStatusResponse struct {
	JobID     string  `json:"job_id"`
	Status    string  `json:"status"`
	Progress  float64 `json:"progress"` // 0.0 - 1.0
	Processed int     `json:"processed"`
	Total     int     `json:"total"`
	Found     int     `json:"found"`
	Message   string  `json:"message"`
}

// ErrorResponse is the body of every non-2xx answer
type ErrorResponse struct {
	Error     string      `json:"error"`   // error code
	Message   string      `json:"message"` // human readable
	Details   interface{} `json:"details,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// NewError creates an ErrorResponse stamped with the current time
func NewError(code, message string) ErrorResponse {
	return ErrorResponse{
		Error:     code,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// SuccessResponse wraps a payload
type SuccessResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// NewSuccess creates a SuccessResponse stamped with the current time
func NewSuccess(message string, data interface{}) SuccessResponse {
	return SuccessResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// HealthCheckResponse reports the service and its dependencies
type HealthCheckResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Version   string            `json:"version"`
	Services  map[string]string `json:"services,omitempty"`
}

// ComponentsResponse lists the parsed components of a raw address
type ComponentsResponse struct {
	RawAddress string            `json:"rawAddress"`
	Components map[string]string `json:"components"`
}
