// Package ai talks to the generative-AI service. Calls run under a timeout;
// replies are unwrapped before parsing, and failures are classified into the
// kinds listed in errors.go.
package ai

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"

	"github.com/tbourn/careerfix-backend/internal/domain"
)

// contentGenerator is the subset of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClient generates roadmaps and reviews with a Gemini model.
type GeminiClient struct {
	models  contentGenerator
	model   string
	timeout time.Duration
}

// NewGeminiClient creates a client for the Gemini API.
func NewGeminiClient(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrDisabled
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return newGeminiClient(c.Models, model, timeout), nil
}

func newGeminiClient(m contentGenerator, model string, timeout time.Duration) *GeminiClient {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &GeminiClient{models: m, model: model, timeout: timeout}
}

// GenerateRoadmap returns roadmap markdown.
func (c *GeminiClient) GenerateRoadmap(ctx context.Context, in domain.RoadmapInput) (string, error) {
	text, err := c.generate(ctx, "roadmap", RoadmapPrompt(in), &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.7),
	})
	if err != nil {
		return "", err
	}
	md := CleanMarkdown(text)
	if md == "" {
		return "", &Error{Kind: KindMalformed, Op: "roadmap", Err: errors.New("empty response")}
	}
	return md, nil
}

// ReviewResume returns a structured review of resumeText.
func (c *GeminiClient) ReviewResume(ctx context.Context, resumeText string) (domain.ResumeReview, error) {
	text, err := c.generate(ctx, "review", ReviewPrompt(resumeText), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.2),
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return domain.ResumeReview{}, err
	}
	return ParseReview(text)
}

func (c *GeminiClient) generate(ctx context.Context, op, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	ctx, span := otel.Tracer("ai/GeminiClient").Start(ctx, op)
	defer span.End()
	span.SetAttributes(attribute.String("ai.model", c.model), attribute.Int("ai.prompt_chars", len(prompt)))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
	if err != nil {
		e := classify(op, err)
		span.RecordError(e)
		span.SetStatus(codes.Error, string(e.Kind))
		return "", e
	}
	if resp == nil {
		return "", &Error{Kind: KindMalformed, Op: op, Err: errors.New("nil response")}
	}
	return resp.Text(), nil
}

// Disabled fails every call with KindUnavailable. It stands in when no API
// key is configured so the rest of the service still runs.
type Disabled struct{}

func (Disabled) GenerateRoadmap(context.Context, domain.RoadmapInput) (string, error) {
	return "", &Error{Kind: KindUnavailable, Op: "roadmap", Err: ErrDisabled}
}

func (Disabled) ReviewResume(context.Context, string) (domain.ResumeReview, error) {
	return domain.ResumeReview{}, &Error{Kind: KindUnavailable, Op: "review", Err: ErrDisabled}
}
