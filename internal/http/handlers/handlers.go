// Package handlers exposes the REST API: usage snapshot, roadmap and resume
// review generation, history, PDF downloads and the sign-in session hook.
//
// Handlers are transport-thin. They read the identity resolved by the
// middleware, bind and validate input, delegate to services and translate
// results and errors into responses.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/careerfix-backend/internal/domain"
	"github.com/tbourn/careerfix-backend/internal/http/middleware"
	"github.com/tbourn/careerfix-backend/internal/identity"
	"github.com/tbourn/careerfix-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// UsageService reports entitlements.
type UsageService interface {
	Snapshot(ctx context.Context, id domain.Identity) []services.Usage
}

// GenerationService runs gated generations.
type GenerationService interface {
	GenerateRoadmap(ctx context.Context, id domain.Identity, in domain.RoadmapInput, meta services.RequestMeta) (*services.GenerationResult, error)
	ReviewResume(ctx context.Context, id domain.Identity, in domain.ResumeInput, meta services.RequestMeta) (*services.GenerationResult, error)
}

// ArtifactService reads an identity's history.
type ArtifactService interface {
	ListPage(ctx context.Context, id domain.Identity, kind domain.Resource, page, pageSize int) ([]domain.Artifact, int64, error)
	Search(ctx context.Context, id domain.Identity, kind domain.Resource, q string, limit int) ([]domain.Artifact, error)
	Get(ctx context.Context, id domain.Identity, artifactID string) (*domain.Artifact, error)
	Version(ctx context.Context, id domain.Identity, kind domain.Resource) (string, error)
	Content(a domain.Artifact) (any, error)
}

// ReportService renders downloads.
type ReportService interface {
	PDF(ctx context.Context, id domain.Identity, artifactID string) ([]byte, *domain.Artifact, error)
}

// MigrationService reconciles a device into an account at sign-in.
type MigrationService interface {
	Migrate(ctx context.Context, accountID, displayName string, store identity.KeyStore) services.MigrationOutcome
}

//
// Handler wiring
//

// Handlers groups the API endpoints.
type Handlers struct {
	usage     UsageService
	gen       GenerationService
	artifacts ArtifactService
	reports   ReportService
	migrator  MigrationService

	// MaxUploadBytes caps multipart resume uploads; <= 0 means 5 MiB.
	MaxUploadBytes int64
}

// New constructs Handlers bound to the given services.
func New(usage UsageService, gen GenerationService, artifacts ArtifactService, reports ReportService, migrator MigrationService) *Handlers {
	return &Handlers{usage: usage, gen: gen, artifacts: artifacts, reports: reports, migrator: migrator}
}

// currentIdentity returns the resolved identity or aborts with 500; the
// router always mounts ResolveIdentity in front of the API group.
func currentIdentity(c *gin.Context) (domain.Identity, bool) {
	id, found := middleware.IdentityFrom(c)
	if !found {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "identity not resolved")
		return domain.Identity{}, false
	}
	return id, true
}

// requestMeta gathers the descriptive metadata stored on usage records.
func requestMeta(c *gin.Context) services.RequestMeta {
	key, _ := middleware.GetIdempotencyKey(c)
	return services.RequestMeta{
		Metadata: services.Metadata{
			DisplayName: middleware.AuthFrom(c).DisplayName,
			IP:          c.ClientIP(),
			UserAgent:   c.Request.UserAgent(),
		},
		IdempotencyKey: key,
	}
}
