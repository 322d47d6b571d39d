// Package services – GenerationService
//
// GenerationService runs one strictly ordered pipeline per request:
// validate, replay, duplicate guard, cool-down, usage reservation, AI call,
// artifact save, submission record, metadata touch. The reservation is the
// quota gate and the increment in one step; a failed or timed-out AI call
// returns it, so only completed generations are charged. Steps after the AI
// call are soft: their failures are logged and returned as notices while the
// generated content still reaches the caller.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tbourn/careerfix-backend/internal/ai"
	"github.com/tbourn/careerfix-backend/internal/domain"
	"github.com/tbourn/careerfix-backend/internal/observability"
	"github.com/tbourn/careerfix-backend/internal/repo"
	"github.com/tbourn/careerfix-backend/internal/tasks"
)

// Generator is the generative-AI collaborator.
type Generator interface {
	GenerateRoadmap(ctx context.Context, in domain.RoadmapInput) (string, error)
	ReviewResume(ctx context.Context, resumeText string) (domain.ResumeReview, error)
}

// NoticeNotSaved is returned with a generation whose artifact could not be
// stored.
const NoticeNotSaved = "Your result is ready, but it could not be saved to your history. Download or copy it now."

// RequestMeta carries per-request data that is not part of the input.
type RequestMeta struct {
	Metadata
	// IdempotencyKey replays the stored result of an earlier request with
	// the same key instead of generating again.
	IdempotencyKey string
}

// GenerationResult is what a successful generation returns.
type GenerationResult struct {
	// Artifact is nil when the save failed.
	Artifact *domain.Artifact `json:"artifact,omitempty"`
	Content  any              `json:"content"`
	Usage    Usage            `json:"usage"`
	// Billed reports that the generation counted against the quota.
	Billed   bool     `json:"billed"`
	Replayed bool     `json:"replayed,omitempty"`
	Notices  []string `json:"notices,omitempty"`
}

// GenerationService orchestrates roadmap and resume review generation.
type GenerationService struct {
	DB       *gorm.DB
	Usage    *UsageService
	Guard    *SubmissionGuard
	Cooldown Cooldown
	AI       Generator
	Tasks    *tasks.Dispatcher

	IdempotencyTTL time.Duration
	MaxResumeRunes int
	TitleMaxLen    int
	TitleLocale    language.Tag
}

// NewGenerationService wires a GenerationService with default limits.
func NewGenerationService(db *gorm.DB, usage *UsageService, gen Generator, cd Cooldown, d *tasks.Dispatcher) *GenerationService {
	return &GenerationService{
		DB:             db,
		Usage:          usage,
		Guard:          &SubmissionGuard{DB: db},
		Cooldown:       cd,
		AI:             gen,
		Tasks:          d,
		IdempotencyTTL: 24 * time.Hour,
		MaxResumeRunes: 60000,
		TitleMaxLen:    120,
		TitleLocale:    language.English,
	}
}

// job is one pass through the pipeline.
type job struct {
	kind   domain.Resource
	fields []string
	title  string
	inputs any
	call   func(ctx context.Context) (any, error)
}

// GenerateRoadmap produces a career roadmap for id.
func (s *GenerationService) GenerateRoadmap(ctx context.Context, id domain.Identity, in domain.RoadmapInput, meta RequestMeta) (*GenerationResult, error) {
	in = in.Normalize()
	if missing := in.Missing(); len(missing) > 0 {
		return nil, invalidInput("missing %s", strings.Join(missing, ", "))
	}
	return s.run(ctx, id, meta, job{
		kind:   domain.ResourceRoadmap,
		fields: in.Fields(),
		title:  s.roadmapTitle(in),
		inputs: in,
		call: func(ctx context.Context) (any, error) {
			md, err := s.AI.GenerateRoadmap(ctx, in)
			if err != nil {
				return nil, err
			}
			return domain.RoadmapContent{Markdown: md}, nil
		},
	})
}

// ReviewResume produces a structured resume review for id.
func (s *GenerationService) ReviewResume(ctx context.Context, id domain.Identity, in domain.ResumeInput, meta RequestMeta) (*GenerationResult, error) {
	in.Text = strings.TrimSpace(in.Text)
	in.FileName = strings.TrimSpace(in.FileName)
	if in.Text == "" {
		return nil, invalidInput("resume text is empty")
	}
	if s.MaxResumeRunes > 0 && utf8.RuneCountInString(in.Text) > s.MaxResumeRunes {
		return nil, invalidInput("resume text exceeds %d characters", s.MaxResumeRunes)
	}
	title := "Resume Review"
	if in.FileName != "" {
		title += ": " + in.FileName
	}
	return s.run(ctx, id, meta, job{
		kind:   domain.ResourceResumeReview,
		fields: in.Fields(),
		title:  s.clip(title),
		inputs: in,
		call: func(ctx context.Context) (any, error) {
			r, err := s.AI.ReviewResume(ctx, in.Text)
			if err != nil {
				return nil, err
			}
			return r, nil
		},
	})
}

func (s *GenerationService) run(ctx context.Context, id domain.Identity, meta RequestMeta, j job) (*GenerationResult, error) {
	tr := otel.Tracer("services/GenerationService")
	ctx, span := tr.Start(ctx, "Generate", trace.WithAttributes(
		attribute.String("identity.kind", string(id.Kind)),
		attribute.String("resource", string(j.kind)),
	))
	defer span.End()

	kind := string(j.kind)
	logger := log.Ctx(ctx).With().Str("identity", id.String()).Str("resource", kind).Logger()

	if res, ok := s.replay(ctx, id, j.kind, meta.IdempotencyKey); ok {
		observability.RecordGeneration(kind, "replayed")
		return res, nil
	}

	if err := s.Guard.Check(ctx, id, j.kind, j.fields); err != nil {
		observability.RecordGeneration(kind, "duplicate")
		return nil, err
	}

	if s.Cooldown != nil {
		release, err := s.Cooldown.Acquire(ctx, GenerateKey(id.String(), kind))
		if err != nil {
			observability.RecordGeneration(kind, "cooldown")
			return nil, err
		}
		defer release()
	}

	reserved, err := s.Usage.Reserve(ctx, id, j.kind)
	if err != nil {
		observability.RecordGeneration(kind, "denied")
		return nil, err
	}

	content, err := j.call(ctx)
	if err != nil {
		span.RecordError(err)
		observability.RecordGeneration(kind, failureOutcome(err))
		s.refund(ctx, id, j.kind)
		logger.Info().Err(err).Msg("generation failed; reservation returned")
		return nil, err
	}

	res := &GenerationResult{Content: content, Usage: reserved, Billed: true}

	art, err := s.save(ctx, id, j, content)
	if err != nil {
		logger.Warn().Err(err).Str("op", "artifact_save").Msg("artifact not saved")
		observability.RecordSoftFailure("artifact_save")
		res.Notices = append(res.Notices, NoticeNotSaved)
	} else {
		res.Artifact = art
	}

	artifactID := ""
	if art != nil {
		artifactID = art.ID
	}
	if err := s.Guard.Remember(ctx, id, j.kind, j.fields, artifactID); err != nil {
		logger.Warn().Err(err).Str("op", "submission_record").Msg("submission not recorded")
		observability.RecordSoftFailure("submission_record")
	}
	if meta.IdempotencyKey != "" && artifactID != "" {
		if _, err := repo.CreateIdempotency(ctx, s.DB, id.String(), j.kind, meta.IdempotencyKey, artifactID, 201, s.IdempotencyTTL); err != nil {
			logger.Warn().Err(err).Str("op", "idempotency_record").Msg("idempotency key not stored")
		}
	}

	s.touch(ctx, id, meta.Metadata)

	observability.RecordGeneration(kind, "success")
	return res, nil
}

// refund returns the reserved unit after a failed AI call. It outlives a
// canceled request so a client disconnect cannot leave the unit spent.
func (s *GenerationService) refund(ctx context.Context, id domain.Identity, r domain.Resource) {
	if err := s.Usage.Release(context.WithoutCancel(ctx), id, r); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("op", "usage_refund").Str("identity", id.String()).
			Msg("reserved usage not returned")
		observability.RecordSoftFailure("usage_refund")
	}
}

// replay returns the stored result for an idempotency key seen before.
func (s *GenerationService) replay(ctx context.Context, id domain.Identity, kind domain.Resource, key string) (*GenerationResult, bool) {
	if key == "" {
		return nil, false
	}
	rec, err := repo.GetIdempotency(ctx, s.DB, id.String(), kind, key, time.Now().UTC())
	if err != nil || rec.ArtifactID == "" {
		return nil, false
	}
	art, err := repo.GetArtifact(ctx, s.DB, rec.ArtifactID, id.String())
	if err != nil {
		return nil, false
	}
	content, err := decodeContent(*art)
	if err != nil {
		return nil, false
	}
	return &GenerationResult{
		Artifact: art,
		Content:  content,
		Usage:    s.Usage.Get(ctx, id, kind),
		Billed:   true,
		Replayed: true,
	}, true
}

func (s *GenerationService) save(ctx context.Context, id domain.Identity, j job, content any) (*domain.Artifact, error) {
	payload, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}
	inputs, err := json.Marshal(j.inputs)
	if err != nil {
		return nil, err
	}
	a := &domain.Artifact{
		OwnerIdentityKey: id.String(),
		Kind:             j.kind,
		Title:            j.title,
		Payload:          datatypes.JSON(payload),
		SourceInputs:     datatypes.JSON(inputs),
	}
	if err := repo.CreateArtifact(ctx, s.DB, a); err != nil {
		return nil, err
	}
	return a, nil
}

// touch dispatches the metadata update; it is never awaited.
func (s *GenerationService) touch(ctx context.Context, id domain.Identity, m Metadata) {
	fn := func(ctx context.Context) error { return s.Usage.Touch(ctx, id, m) }
	if s.Tasks == nil || !s.Tasks.Go(ctx, "usage.touch", fn) {
		if err := fn(ctx); err != nil {
			log.Ctx(ctx).Debug().Err(err).Msg("usage touch failed")
		}
	}
}

func (s *GenerationService) roadmapTitle(in domain.RoadmapInput) string {
	goal := strings.Join(strings.Fields(in.CareerGoal), " ")
	if goal == "" {
		return "Career Roadmap"
	}
	return s.clip(cases.Title(s.TitleLocale).String(goal) + " Roadmap")
}

func (s *GenerationService) clip(title string) string {
	if s.TitleMaxLen > 0 && utf8.RuneCountInString(title) > s.TitleMaxLen {
		return strings.TrimSpace(string([]rune(title)[:s.TitleMaxLen]))
	}
	return title
}

// decodeContent returns the typed payload of a.
func decodeContent(a domain.Artifact) (any, error) {
	switch a.Kind {
	case domain.ResourceRoadmap:
		return a.Roadmap()
	case domain.ResourceResumeReview:
		return a.Review()
	}
	return nil, errors.New("unknown artifact kind")
}

func failureOutcome(err error) string {
	if k := ai.KindOf(err); k != "" {
		return "ai_" + string(k)
	}
	return "ai_error"
}
