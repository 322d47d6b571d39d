// Package report renders artifacts as downloadable PDF documents.
package report

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/tbourn/careerfix-backend/internal/domain"
)

// charsPerLine approximates how many 10pt characters fit across an A4 body.
const charsPerLine = 95

// Render produces a PDF for a roadmap or a resume review.
func Render(a domain.Artifact) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()
	m := maroto.New(cfg)

	m.AddRow(14, text.NewCol(12, a.Title, props.Text{Size: 18, Style: fontstyle.Bold, Align: align.Left}))
	m.AddRow(8, text.NewCol(12, "Generated "+a.CreatedAt.UTC().Format(time.RFC1123), props.Text{Size: 8, Style: fontstyle.Italic}))

	switch a.Kind {
	case domain.ResourceRoadmap:
		c, err := a.Roadmap()
		if err != nil {
			return nil, fmt.Errorf("report: decode roadmap: %w", err)
		}
		addMarkdown(m, c.Markdown)
	case domain.ResourceResumeReview:
		r, err := a.Review()
		if err != nil {
			return nil, fmt.Errorf("report: decode review: %w", err)
		}
		addReview(m, r)
	default:
		return nil, fmt.Errorf("report: unsupported kind %q", a.Kind)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

func addMarkdown(m core.Maroto, md string) {
	for _, raw := range strings.Split(md, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "", line == "---":
			m.AddRow(3)
		case strings.HasPrefix(line, "#"):
			level := len(line) - len(strings.TrimLeft(line, "#"))
			size := 15 - float64(min(level, 4))
			heading := inline(strings.TrimSpace(strings.TrimLeft(line, "#")))
			m.AddRow(size*0.7+4, text.NewCol(12, heading, props.Text{Size: size, Style: fontstyle.Bold, Top: 2}))
		case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
			paragraph(m, "- "+inline(line[2:]), 4)
		default:
			paragraph(m, inline(line), 0)
		}
	}
}

func addReview(m core.Maroto, r domain.ResumeReview) {
	m.AddRow(8, text.NewCol(12, "Scores", props.Text{Size: 13, Style: fontstyle.Bold}))
	scores := []struct {
		label string
		v     int
	}{
		{"Overall", r.Scores.Overall}, {"Impact", r.Scores.Impact}, {"ATS", r.Scores.ATS},
		{"Formatting", r.Scores.Formatting}, {"Content", r.Scores.Content},
	}
	for _, s := range scores {
		m.AddRow(6,
			text.NewCol(4, s.label, props.Text{Size: 10}),
			col.New(8).Add(text.New(fmt.Sprintf("%d / 100", s.v), props.Text{Size: 10, Style: fontstyle.Bold})),
		)
	}

	section(m, "Summary")
	paragraph(m, r.Summary, 0)

	section(m, "Detailed analysis")
	paragraph(m, "Formatting: "+r.DetailedAnalysis.Formatting, 0)
	paragraph(m, "Content: "+r.DetailedAnalysis.Content, 0)
	paragraph(m, "Grammar: "+r.DetailedAnalysis.Grammar, 0)

	section(m, "ATS optimization")
	paragraph(m, "Keywords found: "+joinOrDash(r.ATSOptimization.KeywordsFound), 0)
	paragraph(m, "Missing keywords: "+joinOrDash(r.ATSOptimization.MissingKeywords), 0)
	bullets(m, r.ATSOptimization.FormattingIssues)

	section(m, "Market value")
	paragraph(m, "Salary range: "+r.ValueAssessment.SalaryRange, 0)
	paragraph(m, "Market demand: "+r.ValueAssessment.MarketDemand, 0)

	section(m, "Improvements")
	bullets(m, r.Improvements)
	section(m, "Best practices")
	bullets(m, r.BestPractices)
}

func section(m core.Maroto, title string) {
	m.AddRow(10, text.NewCol(12, title, props.Text{Size: 13, Style: fontstyle.Bold, Top: 3}))
}

func bullets(m core.Maroto, items []string) {
	for _, it := range items {
		paragraph(m, "- "+it, 4)
	}
}

// paragraph adds a wrapped text row sized from the text length.
func paragraph(m core.Maroto, s string, indent float64) {
	lines := math.Ceil(float64(utf8.RuneCountInString(s)) / charsPerLine)
	if lines < 1 {
		lines = 1
	}
	m.AddRow(lines*5+1, text.NewCol(12, s, props.Text{Size: 10, Left: indent}))
}

var inlineMarks = strings.NewReplacer("**", "", "__", "", "`", "")

func inline(s string) string { return inlineMarks.Replace(s) }

func joinOrDash(xs []string) string {
	if len(xs) == 0 {
		return "-"
	}
	return strings.Join(xs, ", ")
}
