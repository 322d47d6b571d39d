// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the shared response utilities: the error envelope, the
// mapping from service errors to status codes, and success writers.
//
// Example error response:
//
//	HTTP/1.1 403 Forbidden
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "quota_exhausted",
//	  "message": "You've used your free roadmap generations. Sign in to get more."
//	}
package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/careerfix-backend/internal/ai"
	"github.com/tbourn/careerfix-backend/internal/domain"
	"github.com/tbourn/careerfix-backend/internal/http/middleware"
	"github.com/tbourn/careerfix-backend/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"quota_exhausted"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"You've used your free roadmap generations. Sign in to get more."`
	// RetryAfterSeconds is set for cool-down rejections.
	RetryAfterSeconds int `json:"retry_after_seconds,omitempty" example:"2"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// fail aborts with the error envelope. 5xx responses are logged with the
// request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	failWith(c, status, ErrorResponse{Code: code, Message: msg})
}

func failWith(c *gin.Context, status int, resp ErrorResponse) {
	resp.RequestID = middleware.RequestIDFrom(c)
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", resp.Code).
			Str("message", resp.Message).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail for the router's fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// failService translates a service or AI error for id's request. Unknown
// errors are logged and reported as internal without leaking detail.
func failService(c *gin.Context, id domain.Identity, kind domain.Resource, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		fail(c, http.StatusBadRequest, ErrCodeInvalidInput, err.Error())
	case errors.Is(err, services.ErrQuotaExhausted):
		fail(c, http.StatusForbidden, ErrCodeQuotaExhausted, quotaMessage(id, kind))
	case errors.Is(err, services.ErrEntitlementUnavailable):
		fail(c, http.StatusServiceUnavailable, ErrCodeEntitlementUnavailable,
			"We couldn't check your usage right now. Please try again in a moment.")
	case errors.Is(err, services.ErrDuplicateSubmission):
		fail(c, http.StatusConflict, ErrCodeDuplicateSubmission,
			"This is the same request as your last one. Change something to generate again.")
	case errors.Is(err, services.ErrCooldownActive):
		secs := retrySeconds(services.RetryAfter(err))
		c.Header("Retry-After", strconv.Itoa(secs))
		failWith(c, http.StatusTooManyRequests, ErrorResponse{
			Code:              ErrCodeCooldownActive,
			Message:           "Please wait a moment before trying again.",
			RetryAfterSeconds: secs,
		})
	case errors.Is(err, services.ErrArtifactNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "artifact not found")
	case errors.Is(err, services.ErrSignInRequired):
		fail(c, http.StatusForbidden, ErrCodeSignInRequired, "Please sign in to download your roadmap as PDF.")
	case ai.KindOf(err) != "":
		failGeneration(c, ai.KindOf(err))
	default:
		middleware.LoggerFrom(c).Error().Err(err).Msg("unhandled service error")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}

// failGeneration words each AI failure kind. All of them are retryable.
func failGeneration(c *gin.Context, k ai.Kind) {
	switch k {
	case ai.KindTimeout:
		fail(c, http.StatusGatewayTimeout, ErrCodeGenerationTimeout,
			"The generator took too long to respond. Please try again; you were not charged.")
	case ai.KindRateLimited:
		c.Header("Retry-After", "30")
		fail(c, http.StatusTooManyRequests, ErrCodeGenerationRateLimited,
			"The generator is busy right now. Please try again shortly; you were not charged.")
	case ai.KindMalformed:
		fail(c, http.StatusBadGateway, ErrCodeAIResponseMalformed,
			"The generator returned an unreadable response. Please try again; you were not charged.")
	case ai.KindUnavailable:
		fail(c, http.StatusServiceUnavailable, ErrCodeGenerationUnavailable,
			"The generator is unavailable. Please try again later; you were not charged.")
	default:
		fail(c, http.StatusBadGateway, ErrCodeGenerationFailed,
			"We couldn't reach the generator. Please check your connection and try again; you were not charged.")
	}
}

func quotaMessage(id domain.Identity, kind domain.Resource) string {
	noun := "roadmap generations"
	if kind == domain.ResourceResumeReview {
		noun = "resume reviews"
	}
	if id.IsAccount() {
		return "You have reached your free limit of " + noun + ". Please contact support for more."
	}
	return "You've used your free " + noun + ". Sign in to get more."
}

func retrySeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}
