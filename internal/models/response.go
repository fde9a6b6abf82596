package models

// ErrorResponse is the standard JSON error body returned by every endpoint.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes used in ErrorResponse.Code.
const (
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeTokenInvalid     = "TOKEN_INVALID"
	ErrCodeTokenExpired     = "TOKEN_EXPIRED"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeConflict         = "CONFLICT"
	ErrCodeLastFile         = "LAST_FILE"
	ErrCodeStepGate         = "STEP_GATE"
	ErrCodeAIGateway        = "AI_GATEWAY_ERROR"
	ErrCodeInternal         = "INTERNAL_ERROR"
	ErrCodeWrongCredentials = "WRONG_CREDENTIALS"
)
