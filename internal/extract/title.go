package extract

import (
	"fmt"
	"regexp"
	"strings"
)

var reChapterPrefix = regexp.MustCompile(`(?i)^Chapter\s+\d+\s*[-:]?\s*`)

// ChapterTitle builds "Chapter <n> <rest>" from a page heading, where rest
// is the heading without its own "Chapter <n>:" prefix.
func ChapterTitle(n int, heading string) string {
	heading = strings.TrimSpace(heading)
	if heading == "" {
		return fmt.Sprintf("Chapter %d", n)
	}

	if rest := reChapterPrefix.ReplaceAllString(heading, ""); rest != "" {
		return fmt.Sprintf("Chapter %d %s", n, rest)
	}

	return heading
}

// StripHeading drops heading from the start of content.
func StripHeading(content, heading string) string {
	if heading == "" || !strings.HasPrefix(content, heading) {
		return content
	}

	return strings.TrimLeft(content[len(heading):], "\n")
}
