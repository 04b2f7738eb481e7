package workspace

import (
	"regexp"
	"strings"
)

const maxReadmeChars = 3000

const readmeTruncationMarker = "\n... (truncated)"

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

// extractReadme reads the README content from contents (preferring
// README.md), strips HTML tags, and truncates to maxReadmeChars.
func extractReadme(contents map[string]string) string {
	var raw string
	for _, name := range []string{"README.md", "README.rst", "README", "readme.md"} {
		if c, ok := contents[name]; ok {
			raw = c
			break
		}
	}
	if raw == "" {
		return ""
	}

	stripped := strings.TrimSpace(htmlTagRe.ReplaceAllString(raw, ""))
	if len(stripped) <= maxReadmeChars {
		return stripped
	}
	cut := maxReadmeChars - len(readmeTruncationMarker)
	if cut < 0 {
		cut = 0
	}
	return stripped[:cut] + readmeTruncationMarker
}
