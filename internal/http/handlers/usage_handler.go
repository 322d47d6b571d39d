package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/careerfix-backend/internal/domain"
	"github.com/tbourn/careerfix-backend/internal/services"
)

// UsageResponse is the entitlement snapshot for the caller.
type UsageResponse struct {
	IdentityKind domain.IdentityKind `json:"identity_kind" example:"anonymous"`
	// Resources lists roadmap then resume_review.
	Resources []services.Usage `json:"resources"`
}

// GetUsage godoc
// @ID          getUsage
// @Summary     Usage and quotas
// @Description Returns count, quota and remaining generations per resource for the caller.
// @Description A degraded entry means the usage store could not be read; generation is refused until it recovers.
// @Tags        Usage
// @Produce     json
// @Param       Authorization  header  string  false  "Bearer token of a signed-in account"
// @Param       X-Device-Key   header  string  false  "Device key for clients without cookies"
// @Success     200  {object}  handlers.UsageResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid token"
// @Router      /usage [get]
func (h *Handlers) GetUsage(c *gin.Context) {
	id, found := currentIdentity(c)
	if !found {
		return
	}
	ok(c, http.StatusOK, UsageResponse{
		IdentityKind: id.Kind,
		Resources:    h.usage.Snapshot(c.Request.Context(), id),
	})
}
