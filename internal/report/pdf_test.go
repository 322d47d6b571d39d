package report

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/tbourn/careerfix-backend/internal/domain"
)

func TestRender_Roadmap(t *testing.T) {
	payload, _ := json.Marshal(domain.RoadmapContent{Markdown: "# Roadmap\n\n## Executive Summary\nMove from **QA** to backend.\n- Learn Go\n- Ship a service\n"})
	a := domain.Artifact{ID: "a1", Kind: domain.ResourceRoadmap, Title: "QA Engineer To Backend Developer", Payload: payload, CreatedAt: time.Now()}

	b, err := Render(a)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF")) {
		t.Fatalf("output is not a PDF")
	}
}

func TestRender_Review(t *testing.T) {
	payload, _ := json.Marshal(domain.ResumeReview{
		Scores:       domain.Scores{Overall: 80, Impact: 70, ATS: 90, Formatting: 60, Content: 75},
		Summary:      "Clear and focused.",
		Improvements: []string{"Add metrics"},
	})
	a := domain.Artifact{ID: "r1", Kind: domain.ResourceResumeReview, Title: "Resume Review", Payload: payload, CreatedAt: time.Now()}
	b, err := Render(a)
	if err != nil || !bytes.HasPrefix(b, []byte("%PDF")) {
		t.Fatalf("Render review: %v", err)
	}
}

func TestRender_BadPayload(t *testing.T) {
	a := domain.Artifact{ID: "x", Kind: domain.ResourceRoadmap, Title: "t", Payload: []byte("{not json")}
	if _, err := Render(a); err == nil {
		t.Fatalf("expected decode error")
	}
	if _, err := Render(domain.Artifact{Kind: "poem"}); err == nil {
		t.Fatalf("expected unsupported kind error")
	}
}

func TestInline(t *testing.T) {
	if got := inline("Use **bold** and `code`"); got != "Use bold and code" {
		t.Fatalf("inline = %q", got)
	}
}
