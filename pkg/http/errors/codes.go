package errors

// Error codes for standardized error responses
const (
	// Access gate errors
	ErrCodeUnauthorized           = "unauthorized"
	ErrCodeAccessDenied           = "access_denied"
	ErrCodeInvalidToken           = "invalid_token"
	ErrCodeAuthenticationRequired = "authentication_required"

	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeInvalidIndex     = "invalid_index"
	ErrCodeInvalidID        = "invalid_id"

	// Resource errors
	ErrCodeNotFound         = "not_found"
	ErrCodeQuestionNotFound = "question_not_found"
	ErrCodeConflict         = "conflict"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
	ErrCodeUpstreamError      = "upstream_error"
)
