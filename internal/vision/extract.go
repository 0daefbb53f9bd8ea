package vision

import (
	"regexp"
	"strings"
)

var (
	fencedJSON = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")
	rawJSON    = regexp.MustCompile(`(\[[\s\S]*\]|\{[\s\S]*\})`)
)

// extractJSON pulls the JSON payload out of a model response that may wrap
// it in a fenced code block or surround it with prose.
func extractJSON(text string) string {
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := rawJSON.FindString(text); m != "" {
		return strings.TrimSpace(m)
	}
	return strings.TrimSpace(text)
}
