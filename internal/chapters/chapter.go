package chapters

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var (
	reNonSlug = regexp.MustCompile(`[^a-z0-9-]`)
	reDashes  = regexp.MustCompile(`-+`)
)

// Slug turns a title into the lowercase, hyphen-joined path segment most
// novel sites use in their book URLs.
func Slug(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = strings.ReplaceAll(s, " ", "-")
	s = reNonSlug.ReplaceAllString(s, "")
	s = reDashes.ReplaceAllString(s, "-")

	return strings.Trim(s, "-")
}

// SanitizeFilename replaces characters that are invalid in file names on
// common filesystems.
func SanitizeFilename(name string) string {
	r := strings.NewReplacer(
		"<", "_", ">", "_", ":", "_", `"`, "_",
		"/", "_", `\`, "_", "|", "_", "?", "_", "*", "_",
	)
	s := strings.TrimSpace(r.Replace(name))
	if s == "" {
		return "untitled"
	}

	return s
}

// IDPart maps a content name onto [A-Za-z0-9_] for use inside download ids.
func IDPart(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}

	return b.String()
}

// NovelFile is the chapter record file name inside a novel's chapters dir.
func NovelFile(n int) string {
	return fmt.Sprintf("chapter%d.json", n)
}

// MangaDir is the directory name of one manga chapter.
func MangaDir(n int) string {
	return fmt.Sprintf("Chapter_%03d", n)
}

// PageName is the base name (without extension) of page i, counted from 1.
func PageName(i int) string {
	return fmt.Sprintf("page_%03d", i)
}
