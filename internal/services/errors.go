// Package services provides the business logic layer between the HTTP
// handlers and the XmR engine: request resolution, caching, metrics and
// signal notifications.
package services

import "errors"

// Error codes returned by services
const (
	CodeInvalidInput     = "INVALID_INPUT"
	CodeInvalidOptions   = "INVALID_OPTIONS"
	CodeSourceNotFound   = "SOURCE_NOT_FOUND"
	CodeSourceReadFailed = "SOURCE_READ_FAILED"
	CodeAnalysisFailed   = "ANALYSIS_FAILED"
)

// ServiceError represents a service layer error
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// NewServiceError creates a new ServiceError
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
	}
}

// NewServiceErrorWithDetails creates a new ServiceError with details
func NewServiceErrorWithDetails(code, message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// AsServiceError finds the first ServiceError in err's chain
func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
