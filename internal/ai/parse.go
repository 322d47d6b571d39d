package ai

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/tbourn/careerfix-backend/internal/domain"
)

// CleanJSON strips the markdown code fences models like to wrap JSON in,
// plus any chatter before the first '{' or after the last '}'.
func CleanJSON(input string) string {
	clean := strings.TrimSpace(input)
	switch {
	case strings.HasPrefix(clean, "```json"):
		clean = strings.TrimPrefix(clean, "```json")
	case strings.HasPrefix(clean, "```JSON"):
		clean = strings.TrimPrefix(clean, "```JSON")
	case strings.HasPrefix(clean, "```"):
		clean = strings.TrimPrefix(clean, "```")
	}
	clean = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(clean), "```"))

	if i := strings.IndexByte(clean, '{'); i > 0 {
		clean = clean[i:]
	}
	if j := strings.LastIndexByte(clean, '}'); j >= 0 && j < len(clean)-1 {
		clean = clean[:j+1]
	}
	return clean
}

// ParseReview decodes a resume review from raw model output. Any failure is
// reported as a KindMalformed *Error.
func ParseReview(raw string) (domain.ResumeReview, error) {
	var r domain.ResumeReview
	body := CleanJSON(raw)
	if body == "" {
		return r, &Error{Kind: KindMalformed, Op: "review", Err: errors.New("empty response")}
	}
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return r, &Error{Kind: KindMalformed, Op: "review", Err: err}
	}
	if err := r.Validate(); err != nil {
		return r, &Error{Kind: KindMalformed, Op: "review", Err: err}
	}
	return r, nil
}

// CleanMarkdown removes a ```markdown wrapper around roadmap output.
func CleanMarkdown(raw string) string {
	s := strings.TrimSpace(raw)
	for _, p := range []string{"```markdown", "```md", "```"} {
		if strings.HasPrefix(s, p) && strings.HasSuffix(s, "```") && len(s) > len(p)+3 {
			return strings.TrimSpace(s[len(p) : len(s)-3])
		}
	}
	return s
}
