package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RoadmapInput is the questionnaire behind a roadmap generation.
type RoadmapInput struct {
	CurrentRole    string `json:"current_role"`
	CareerGoal     string `json:"career_goal"`
	Skills         string `json:"skills"`
	Timeline       string `json:"timeline"`
	AdditionalInfo string `json:"additional_info,omitempty"`
}

// Normalize trims every field.
func (in RoadmapInput) Normalize() RoadmapInput {
	return RoadmapInput{
		CurrentRole:    strings.TrimSpace(in.CurrentRole),
		CareerGoal:     strings.TrimSpace(in.CareerGoal),
		Skills:         strings.TrimSpace(in.Skills),
		Timeline:       strings.TrimSpace(in.Timeline),
		AdditionalInfo: strings.TrimSpace(in.AdditionalInfo),
	}
}

// Missing returns the names of required fields left empty.
func (in RoadmapInput) Missing() []string {
	var out []string
	n := in.Normalize()
	if n.CurrentRole == "" {
		out = append(out, "current_role")
	}
	if n.CareerGoal == "" {
		out = append(out, "career_goal")
	}
	if n.Skills == "" {
		out = append(out, "skills")
	}
	if n.Timeline == "" {
		out = append(out, "timeline")
	}
	return out
}

// Fields lists the compared fields in a fixed order.
func (in RoadmapInput) Fields() []string {
	n := in.Normalize()
	return []string{n.CurrentRole, n.CareerGoal, n.Skills, n.Timeline, n.AdditionalInfo}
}

// RoadmapContent is the stored roadmap payload.
type RoadmapContent struct {
	Markdown string `json:"markdown"`
}

// ResumeInput is the resume text submitted for review. FileName is
// informational and not part of the duplicate comparison.
type ResumeInput struct {
	FileName string `json:"file_name,omitempty"`
	Text     string `json:"resume_text"`
}

// Fields lists the compared fields in a fixed order.
func (in ResumeInput) Fields() []string {
	return []string{strings.TrimSpace(in.Text)}
}

// Scores are 0-100 ratings produced by the reviewer.
type Scores struct {
	Overall    int `json:"overall"`
	Impact     int `json:"impact"`
	ATS        int `json:"ats"`
	Formatting int `json:"formatting"`
	Content    int `json:"content"`
}

// DetailedAnalysis holds the narrative assessment per area.
type DetailedAnalysis struct {
	Formatting string `json:"formatting"`
	Content    string `json:"content"`
	Grammar    string `json:"grammar"`
}

// ATSOptimization summarizes applicant-tracking-system fitness.
type ATSOptimization struct {
	KeywordsFound    []string `json:"keywordsFound"`
	MissingKeywords  []string `json:"missingKeywords"`
	FormattingIssues []string `json:"formattingIssues"`
}

// ValueAssessment is the reviewer's market estimate.
type ValueAssessment struct {
	SalaryRange  string `json:"salaryRange"`
	MarketDemand string `json:"marketDemand"`
}

// ResumeReview is the structured review returned by the AI service. JSON
// names follow the service's camelCase schema.
type ResumeReview struct {
	Scores           Scores           `json:"scores"`
	Summary          string           `json:"summary"`
	DetailedAnalysis DetailedAnalysis `json:"detailedAnalysis"`
	ATSOptimization  ATSOptimization  `json:"atsOptimization"`
	ValueAssessment  ValueAssessment  `json:"valueAssessment"`
	Improvements     []string         `json:"improvements"`
	BestPractices    []string         `json:"bestPractices"`
}

// Validate rejects reviews that decoded but carry no usable content.
func (r ResumeReview) Validate() error {
	if strings.TrimSpace(r.Summary) == "" {
		return fmt.Errorf("review: summary is empty")
	}
	for name, v := range map[string]int{
		"overall": r.Scores.Overall, "impact": r.Scores.Impact, "ats": r.Scores.ATS,
		"formatting": r.Scores.Formatting, "content": r.Scores.Content,
	} {
		if v < 0 || v > 100 {
			return fmt.Errorf("review: score %s=%d out of range", name, v)
		}
	}
	return nil
}

// Roadmap decodes the payload of a roadmap artifact.
func (a Artifact) Roadmap() (RoadmapContent, error) {
	var c RoadmapContent
	if a.Kind != ResourceRoadmap {
		return c, fmt.Errorf("artifact %s is a %s", a.ID, a.Kind)
	}
	err := json.Unmarshal(a.Payload, &c)
	return c, err
}

// Review decodes the payload of a resume review artifact.
func (a Artifact) Review() (ResumeReview, error) {
	var r ResumeReview
	if a.Kind != ResourceResumeReview {
		return r, fmt.Errorf("artifact %s is a %s", a.ID, a.Kind)
	}
	err := json.Unmarshal(a.Payload, &r)
	return r, err
}

// SearchText returns the text used for history search.
func (a Artifact) SearchText() string {
	switch a.Kind {
	case ResourceRoadmap:
		if c, err := a.Roadmap(); err == nil {
			return a.Title + "\n" + c.Markdown
		}
	case ResourceResumeReview:
		if r, err := a.Review(); err == nil {
			parts := append([]string{a.Title, r.Summary}, r.ATSOptimization.KeywordsFound...)
			parts = append(parts, r.Improvements...)
			return strings.Join(parts, "\n")
		}
	}
	return a.Title
}
