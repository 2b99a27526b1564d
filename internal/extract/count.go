package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	reNumber       = regexp.MustCompile(`\d+`)
	reChapterCount = regexp.MustCompile(`(?i)(\d{3,})\s*Chapters?`)
)

// ChapterCount estimates the number of chapters advertised on a book page.
// Three heuristics run in order: a "<small>Chapters</small>" label next to
// a <strong> number, the text around a book-open icon, then a scan of the
// page text for "<3+ digits> Chapters". def is returned when all fail.
func ChapterCount(root *goquery.Selection, def int) int {
	if n, ok := labeledCount(root); ok {
		return n
	}

	if icon := root.Find("i.icon-book-open").First(); icon.Length() > 0 {
		if n, ok := firstNumber(icon.Parent().Text()); ok {
			return n
		}
	}

	if m := reChapterCount.FindStringSubmatch(root.Text()); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}

	return def
}

func labeledCount(root *goquery.Selection) (int, bool) {
	var (
		n     int
		found bool
	)

	root.Find("small").EachWithBreak(func(_ int, small *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(small.Text()), "chapters") {
			return true
		}

		strong := small.Parent().Find("strong").First()
		if strong.Length() == 0 {
			return true
		}

		n, found = firstNumber(strong.Text())
		return false
	})

	return n, found
}

func firstNumber(s string) (int, bool) {
	m := reNumber.FindString(s)
	if m == "" {
		return 0, false
	}

	n, err := strconv.Atoi(m)
	return n, err == nil
}
