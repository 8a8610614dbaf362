package models

// ErrorCode is a machine-readable error discriminator returned to clients.
type ErrorCode string

const (
	ErrCodeBadRequest ErrorCode = "bad_request"
	ErrCodeValidation ErrorCode = "validation_failed"
	ErrCodeNotFound   ErrorCode = "not_found"
	ErrCodeForbidden  ErrorCode = "forbidden"
	ErrCodeConflict   ErrorCode = "version_conflict"
	ErrCodeUpstream   ErrorCode = "upstream_failed"
	ErrCodeInternal   ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body for every non-2xx answer.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`

	// Заполняются только для version_conflict
	ExpectedVersion *int `json:"expected_version,omitempty"`
	ActualVersion   *int `json:"actual_version,omitempty"`
}
