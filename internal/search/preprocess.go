package search

import (
	"strings"
)

// FlattenMarkdown turns roadmap markdown into plain searchable text: heading
// and list markers are dropped, emphasis is removed and table rows become
// space-separated facts. Separator rows vanish.
func FlattenMarkdown(md string) string {
	var b strings.Builder
	for _, raw := range strings.Split(md, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "|") && strings.HasSuffix(line, "|") {
			if fact := tableFact(line); fact != "" {
				b.WriteString(fact)
				b.WriteByte('\n')
			}
			continue
		}
		line = strings.TrimLeft(line, "#>*-+ ")
		line = emphasis.Replace(line)
		if line != "" {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

var emphasis = strings.NewReplacer("**", "", "__", "", "`", "")

func tableFact(line string) string {
	cells := strings.Split(strings.Trim(line, "|"), "|")
	out := make([]string, 0, len(cells))
	allSep := true
	for _, c := range cells {
		cell := strings.TrimSpace(c)
		if strings.Trim(cell, ":- ") != "" {
			allSep = false
		}
		if cell != "" {
			out = append(out, emphasis.Replace(cell))
		}
	}
	if allSep {
		return ""
	}
	return strings.Join(out, " ")
}
