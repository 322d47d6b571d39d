// Package services – ArtifactService
//
// ArtifactService serves an identity's history: paginated listing, keyword
// search over titles and content, single-artifact reads and the version
// stamp used for HTTP caching. Every read is scoped to the current owner, so
// artifacts moved by a migration disappear from the guest's view.
package services

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/careerfix-backend/internal/domain"
	"github.com/tbourn/careerfix-backend/internal/repo"
	"github.com/tbourn/careerfix-backend/internal/search"
	"github.com/tbourn/careerfix-backend/internal/utils"
)

// searchWindow caps how many recent artifacts a search considers.
const searchWindow = 500

// ArtifactService reads generated artifacts.
type ArtifactService struct {
	DB *gorm.DB
	// MinScore drops weak search matches.
	MinScore float64
}

// NewArtifactService constructs an ArtifactService.
func NewArtifactService(db *gorm.DB, minScore float64) *ArtifactService {
	return &ArtifactService{DB: db, MinScore: minScore}
}

// ListPage returns a page of id's artifacts, newest first, and the total.
// An empty kind lists all kinds.
func (s *ArtifactService) ListPage(ctx context.Context, id domain.Identity, kind domain.Resource, page, pageSize int) ([]domain.Artifact, int64, error) {
	tr := otel.Tracer("services/ArtifactService")
	ctx, span := tr.Start(ctx, "ListPage", trace.WithAttributes(
		attribute.String("resource", string(kind)),
		attribute.Int("page", page),
		attribute.Int("page_size", pageSize),
	))
	defer span.End()

	page, pageSize = utils.ClampPage(page, pageSize, 10, 0)
	offset := utils.Offset(page, pageSize)

	total, err := repo.CountArtifacts(ctx, s.DB, id.String(), kind)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Artifact{}, 0, nil
	}
	items, err := repo.ListArtifactsPage(ctx, s.DB, id.String(), kind, offset, pageSize)
	return items, total, err
}

// Search ranks id's recent artifacts by keyword overlap with q and returns
// at most limit matches, best first.
func (s *ArtifactService) Search(ctx context.Context, id domain.Identity, kind domain.Resource, q string, limit int) ([]domain.Artifact, error) {
	tr := otel.Tracer("services/ArtifactService")
	ctx, span := tr.Start(ctx, "Search", trace.WithAttributes(
		attribute.String("resource", string(kind)),
		attribute.String("query", q),
	))
	defer span.End()

	if limit <= 0 {
		limit = 10
	}
	items, err := repo.ListArtifactsPage(ctx, s.DB, id.String(), kind, 0, searchWindow)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Artifact, len(items))
	docs := make([]search.Document, 0, len(items))
	for _, a := range items {
		byID[a.ID] = a
		docs = append(docs, search.Document{ID: a.ID, Text: search.FlattenMarkdown(a.SearchText())})
	}

	idx := search.NewIndex(docs, search.WithMinScore(s.MinScore))
	hits := idx.TopK(q, limit)
	out := make([]domain.Artifact, 0, len(hits))
	for _, h := range hits {
		out = append(out, byID[h.ID])
	}
	span.SetAttributes(attribute.Int("hits", len(out)))
	return out, nil
}

// Get returns one artifact owned by id.
func (s *ArtifactService) Get(ctx context.Context, id domain.Identity, artifactID string) (*domain.Artifact, error) {
	a, err := repo.GetArtifact(ctx, s.DB, artifactID, id.String())
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrArtifactNotFound
	}
	return a, err
}

// Version returns a weak ETag that changes whenever id's history of kind
// changes: an artifact is added, or migrated in or out.
func (s *ArtifactService) Version(ctx context.Context, id domain.Identity, kind domain.Resource) (string, error) {
	count, latest, err := repo.ArtifactsStats(ctx, s.DB, id.String(), kind)
	if err != nil {
		return "", err
	}
	var ts int64
	if latest != nil {
		ts = latest.UTC().UnixNano()
	}
	scope := string(kind)
	if scope == "" {
		scope = "all"
	}
	return fmt.Sprintf(`W/"artifacts:%s:%s:%d:%d"`, id.String(), scope, count, ts), nil
}

// Content decodes the typed payload of a.
func (s *ArtifactService) Content(a domain.Artifact) (any, error) {
	return decodeContent(a)
}
