// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable: clients branch on them, never on
// messages. Generic codes mirror HTTP semantics; domain codes name the
// entitlement, guard and generation failures the UI words differently.
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeRateLimited      = "rate_limited"
	ErrCodeInternal         = "internal_error"

	// Domain-specific:
	ErrCodeInvalidInput           = "invalid_input"
	ErrCodeFileTooLarge           = "file_too_large"
	ErrCodeSignInRequired         = "sign_in_required"
	ErrCodeQuotaExhausted         = "quota_exhausted"
	ErrCodeEntitlementUnavailable = "entitlement_unavailable"
	ErrCodeDuplicateSubmission    = "duplicate_submission"
	ErrCodeCooldownActive         = "cooldown_active"
	ErrCodeGenerationTimeout      = "generation_timeout"
	ErrCodeGenerationRateLimited  = "generation_rate_limited"
	ErrCodeGenerationFailed       = "generation_failed"
	ErrCodeAIResponseMalformed    = "ai_response_malformed"
	ErrCodeGenerationUnavailable  = "generation_unavailable"
)
