// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	// Data carries the conflicting record on duplicate-detection failures.
	Data any `json:"data,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Message: msg}
}

// WithData attaches a payload to the error envelope.
func WithData(msg string, data any) *APIError {
	return &APIError{Message: msg, Data: data}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Message: "Error de validacion", Errors: fields}
}
