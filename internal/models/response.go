package models

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// SourceResponse describes one configured source
type SourceResponse struct {
	Name       string  `json:"name"`
	Title      string  `json:"title,omitempty"`
	DateField  string  `json:"date_field"`
	ValueField string  `json:"value_field"`
	Scale      float64 `json:"scale"`
}

// SourceListResponse represents list sources response
type SourceListResponse struct {
	Sources []SourceResponse `json:"sources"`
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Path    string                 `json:"path,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}
