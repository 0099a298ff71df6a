package classification

import (
	"regexp"
	"strings"
)

var fencedBlock = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*\\n?(.*?)\\n?```")

// StripWrappers removes the formatting models put around JSON: code fences,
// leading prose and trailing commentary. It returns the best candidate for a
// JSON object; the caller still has to parse it.
func StripWrappers(raw string) string {
	s := strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))

	if m := fencedBlock.FindStringSubmatch(s); len(m) >= 2 {
		s = strings.TrimSpace(m[1])
	} else {
		// unterminated fence
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}

	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		return s
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
