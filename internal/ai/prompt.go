package ai

import (
	"fmt"
	"strings"

	"github.com/tbourn/careerfix-backend/internal/domain"
)

var roadmapSections = []string{
	"Executive Summary: two or three sentences on the overall path",
	"Gap Analysis: skills, experience and qualifications missing between the current role and the goal",
	"Learning Path: technical skills, soft skills, certifications and concrete resources, in priority order",
	"Action Plan: short term (0-3 months), medium term (3-12 months) and long term (1-2+ years)",
	"Milestones: checkpoints that show progress",
	"Networking: communities, ways to gain experience and networking tactics",
	"Job Search Strategy: how to position for the transition",
}

// RoadmapPrompt renders the roadmap request.
func RoadmapPrompt(in domain.RoadmapInput) string {
	in = in.Normalize()
	var b strings.Builder
	b.WriteString("You are a senior career coach. Write a personalised career roadmap for this person.\n\n")
	fmt.Fprintf(&b, "Current role: %s\nCareer goal: %s\nCurrent skills: %s\nTimeline: %s\n", in.CurrentRole, in.CareerGoal, in.Skills, in.Timeline)
	if in.AdditionalInfo != "" {
		fmt.Fprintf(&b, "Additional context: %s\n", in.AdditionalInfo)
	}
	b.WriteString("\nUse these markdown sections, each with a level-2 heading:\n")
	for i, s := range roadmapSections {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	b.WriteString("\nBe specific and actionable. Answer in markdown only.")
	return b.String()
}

const reviewSchema = `{
  "scores": {"overall": 0, "impact": 0, "ats": 0, "formatting": 0, "content": 0},
  "summary": "",
  "detailedAnalysis": {"formatting": "", "content": "", "grammar": ""},
  "atsOptimization": {"keywordsFound": [], "missingKeywords": [], "formattingIssues": []},
  "valueAssessment": {"salaryRange": "", "marketDemand": ""},
  "improvements": [],
  "bestPractices": []
}`

// ReviewPrompt renders the resume review request. Scores are integers 0-100.
func ReviewPrompt(resumeText string) string {
	return "You are an expert resume reviewer and ATS specialist. Review the resume below.\n" +
		"Reply with a single JSON object matching this shape, with every score an integer from 0 to 100:\n" +
		reviewSchema + "\n\nResume:\n" + strings.TrimSpace(resumeText)
}
