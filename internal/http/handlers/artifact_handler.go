// Artifact HTTP handlers.
//
//   - GET /artifacts           (history, paginated, optional q search, ETag)
//   - GET /artifacts/{id}      (one artifact with its typed content)
//   - GET /artifacts/{id}/pdf  (download, guarded by the cool-down)
package handlers

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/careerfix-backend/internal/domain"
	"github.com/tbourn/careerfix-backend/internal/utils"
)

//
// DTOs
//

// ListArtifactsResponse is a page of history plus pagination metadata.
type ListArtifactsResponse struct {
	Artifacts  []domain.Artifact `json:"artifacts"`
	Pagination Pagination        `json:"pagination"`
}

// SearchArtifactsResponse holds ranked matches for q.
type SearchArtifactsResponse struct {
	Query     string            `json:"query"`
	Artifacts []domain.Artifact `json:"artifacts"`
}

// ArtifactResponse is one artifact with its decoded content.
type ArtifactResponse struct {
	Artifact *domain.Artifact `json:"artifact"`
	Content  any              `json:"content"`
}

// clampPagination parses page/page_size with defaults 1/10 and a cap of 50.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPageSize = 10
		maxPageSize     = 50
	)
	return utils.ClampPage(
		utils.AtoiDefault(c.Query("page"), 1),
		utils.AtoiDefault(c.Query("page_size"), defaultPageSize),
		defaultPageSize, maxPageSize,
	)
}

// kindParam reads ?kind=; empty means all kinds.
func kindParam(c *gin.Context) (domain.Resource, bool) {
	raw := strings.TrimSpace(c.Query("kind"))
	if raw == "" {
		return "", true
	}
	return domain.ParseResource(raw)
}

var artifactIDRE = regexp.MustCompile(`^[A-Za-z0-9-]{1,64}$`)

// ListArtifacts godoc
// @ID          listArtifacts
// @Summary     List history
// @Description Returns the caller's artifacts newest first. With q, returns the best keyword matches instead.
// @Description Supports conditional requests via ETag / If-None-Match.
// @Tags        Artifacts
// @Produce     json
// @Param       kind       query  string  false  "roadmap or resume_review"
// @Param       q          query  string  false  "Search terms"
// @Param       page       query  int     false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false  "Items per page"  minimum(1) maximum(50) default(10)
// @Success     200  {object}  handlers.ListArtifactsResponse
// @Success     304  "Not modified"
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown kind"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /artifacts [get]
func (h *Handlers) ListArtifacts(c *gin.Context) {
	id, found := currentIdentity(c)
	if !found {
		return
	}
	kind, valid := kindParam(c)
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "kind must be roadmap or resume_review")
		return
	}
	ctx := c.Request.Context()

	if q := strings.TrimSpace(c.Query("q")); q != "" {
		_, limit := clampPagination(c)
		hits, err := h.artifacts.Search(ctx, id, kind, q, limit)
		if err != nil {
			failService(c, id, kind, err)
			return
		}
		ok(c, http.StatusOK, SearchArtifactsResponse{Query: q, Artifacts: hits})
		return
	}

	// ETag pre-check (best effort).
	if etag, err := h.artifacts.Version(ctx, id, kind); err == nil {
		c.Header("ETag", etag)
		c.Header("Cache-Control", "private, no-cache")
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	page, pageSize := clampPagination(c)
	items, total, err := h.artifacts.ListPage(ctx, id, kind, page, pageSize)
	if err != nil {
		failService(c, id, kind, err)
		return
	}
	totalPages := utils.TotalPages(total, pageSize)
	ok(c, http.StatusOK, ListArtifactsResponse{
		Artifacts: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetArtifact godoc
// @ID          getArtifact
// @Summary     Get an artifact
// @Description Returns an artifact owned by the caller with its typed content
// @Description (markdown for roadmaps, the structured review for resume reviews).
// @Tags        Artifacts
// @Produce     json
// @Param       id   path  string  true  "Artifact ID"
// @Success     200  {object}  handlers.ArtifactResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /artifacts/{id} [get]
func (h *Handlers) GetArtifact(c *gin.Context) {
	id, found := currentIdentity(c)
	if !found {
		return
	}
	artifactID := c.Param("id")
	if !artifactIDRE.MatchString(artifactID) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "artifact not found")
		return
	}
	a, err := h.artifacts.Get(c.Request.Context(), id, artifactID)
	if err != nil {
		failService(c, id, "", err)
		return
	}
	content, err := h.artifacts.Content(*a)
	if err != nil {
		failService(c, id, a.Kind, err)
		return
	}
	ok(c, http.StatusOK, ArtifactResponse{Artifact: a, Content: content})
}

// DownloadArtifactPDF godoc
// @ID          downloadArtifactPDF
// @Summary     Download an artifact as PDF
// @Description Roadmap downloads require a signed-in account. Repeated downloads inside the
// @Description cool-down window are rejected with cooldown_active and Retry-After.
// @Tags        Artifacts
// @Produce     application/pdf
// @Param       id   path  string  true  "Artifact ID"
// @Success     200  {file}    binary
// @Failure     403  {object}  handlers.ErrorResponse  "sign_in_required"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     429  {object}  handlers.ErrorResponse  "cooldown_active"
// @Router      /artifacts/{id}/pdf [get]
func (h *Handlers) DownloadArtifactPDF(c *gin.Context) {
	id, found := currentIdentity(c)
	if !found {
		return
	}
	artifactID := c.Param("id")
	if !artifactIDRE.MatchString(artifactID) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "artifact not found")
		return
	}
	pdf, a, err := h.reports.PDF(c.Request.Context(), id, artifactID)
	if err != nil {
		failService(c, id, "", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+pdfFileName(a)+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

var fileNameRE = regexp.MustCompile(`[^A-Za-z0-9]+`)

// pdfFileName derives an ASCII file name from the title.
func pdfFileName(a *domain.Artifact) string {
	base := strings.Trim(fileNameRE.ReplaceAllString(strings.ToLower(a.Title), "-"), "-")
	if base == "" {
		base = string(a.Kind)
	}
	if len(base) > 80 {
		base = strings.TrimRight(base[:80], "-")
	}
	return base + ".pdf"
}
