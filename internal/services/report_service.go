package services

import (
	"context"
	"fmt"

	"github.com/tbourn/careerfix-backend/internal/domain"
	"github.com/tbourn/careerfix-backend/internal/report"
)

// ReportService renders artifacts as PDF downloads. Roadmap downloads are
// reserved to accounts and every download passes the cool-down guard.
type ReportService struct {
	Artifacts *ArtifactService
	Cooldown  Cooldown

	render func(domain.Artifact) ([]byte, error)
}

// NewReportService constructs a ReportService using report.Render.
func NewReportService(artifacts *ArtifactService, cd Cooldown) *ReportService {
	return &ReportService{Artifacts: artifacts, Cooldown: cd, render: report.Render}
}

// PDF returns the rendered document and the artifact it came from.
func (s *ReportService) PDF(ctx context.Context, id domain.Identity, artifactID string) ([]byte, *domain.Artifact, error) {
	a, err := s.Artifacts.Get(ctx, id, artifactID)
	if err != nil {
		return nil, nil, err
	}
	if a.Kind == domain.ResourceRoadmap && !id.IsAccount() {
		return nil, nil, ErrSignInRequired
	}

	if s.Cooldown != nil {
		release, err := s.Cooldown.Acquire(ctx, DownloadKey(id.String()))
		if err != nil {
			return nil, nil, err
		}
		defer release()
	}

	render := s.render
	if render == nil {
		render = report.Render
	}
	pdf, err := render(*a)
	if err != nil {
		return nil, nil, fmt.Errorf("render %s: %w", a.ID, err)
	}
	return pdf, a, nil
}
