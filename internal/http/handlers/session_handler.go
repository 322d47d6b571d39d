package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/careerfix-backend/internal/http/middleware"
	"github.com/tbourn/careerfix-backend/internal/services"
)

// SessionResponse reports the sign-in reconciliation.
type SessionResponse struct {
	AccountID string                    `json:"account_id" example:"acct_123"`
	Migration services.MigrationOutcome `json:"migration"`
}

// CreateSession godoc
// @ID          createSession
// @Summary     Sign-in event
// @Description Called once after the client signs in. Moves the device's history and usage to the
// @Description account and clears the device key. Migration problems never fail this call: they are
// @Description reported in migration.notice and retried on the next sign-in.
// @Tags        Session
// @Produce     json
// @Param       Authorization  header  string  true   "Bearer token of the signed-in account"
// @Param       X-Device-Key   header  string  false  "Device key for clients without cookies"
// @Success     200  {object}  handlers.SessionResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Not signed in"
// @Router      /session [post]
func (h *Handlers) CreateSession(c *gin.Context) {
	auth := middleware.AuthFrom(c)
	if !auth.Authenticated() {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "sign in first")
		return
	}
	out := h.migrator.Migrate(c.Request.Context(), auth.AccountID, auth.DisplayName, middleware.KeyStoreFrom(c))
	if out.Failed() {
		middleware.LoggerFrom(c).Warn().Str("account_id", auth.AccountID).Msg("migration deferred")
	}
	ok(c, http.StatusOK, SessionResponse{AccountID: auth.AccountID, Migration: out})
}
