package generic

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/brogergvhs/noveld/internal/extract"
)

var (
	reChapterWord = regexp.MustCompile(`(?i)(?:vol(?:ume)?[_\-\s]*\d+[_\-\s]*)?(?:chapter|ch)[_\-\s]*0*([0-9]+)(?:[_\-\s]*([.\-])[_\-\s]*([0-9]+))?`)
	reChapterDash = regexp.MustCompile(`chapter[_\-]?0*([0-9]+)[_\-]?([0-9]+)?`)
	reVolChapter  = regexp.MustCompile(`vol[_\-]?(\d+)[/_\-]ch[_\-]?(\d+(?:\.\d+)?)`)
	reShortCh     = regexp.MustCompile(`(?:^|[/\-_])ch[_\-]?(\d+(?:\.\d+)?)`)
	rePathNumber  = regexp.MustCompile(`[/\-](\d+(?:\.\d+)?)(?:$|[/\-_])`)
	reTitleNumber = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)\s*[.\- ]`)

	reLikelyChapter = regexp.MustCompile(`(?i)(?:^|[-_/])(?:ch|chapter)[-_]?\d+`)
)

// label is a parsed chapter number such as 12, 12.5 or 12-2.
type label struct {
	main int
	sep  string
	sub  int
}

func (l label) String() string {
	if l.sep == "" {
		return strconv.Itoa(l.main)
	}

	return fmt.Sprintf("%d%s%d", l.main, l.sep, l.sub)
}

// Whole reports whether the label has no sub-chapter part.
func (l label) Whole() bool { return l.sep == "" }

type chapterLink struct {
	URL   string
	Title string
	Label label
}

func parseLabel(href, title string) (label, bool) {
	h := strings.ToLower(href)
	t := strings.ToLower(title)

	if !hasChapterKeyword(h) && !hasChapterKeyword(t) {
		return label{}, false
	}
	if strings.Contains(h, "/u/") || strings.Contains(h, "batolists") {
		return label{}, false
	}

	for _, match := range []func(string) (label, bool){
		matchChapterDash,
		matchVolChapter,
		matchShortCh,
		matchPathNumber,
	} {
		if l, ok := match(h); ok {
			return l, true
		}
	}

	if l, ok := matchTitleNumber(title); ok {
		return l, true
	}

	return matchChapterWord(title)
}

func hasChapterKeyword(s string) bool {
	return strings.Contains(s, "ch") || strings.Contains(s, "vol")
}

func matchChapterDash(h string) (label, bool) {
	m := reChapterDash.FindStringSubmatch(h)
	if m == nil {
		return label{}, false
	}

	main, _ := strconv.Atoi(m[1])
	if m[2] == "" {
		return label{main: main}, true
	}

	sub, _ := strconv.Atoi(m[2])
	return label{main: main, sep: "-", sub: sub}, true
}

// vol-2/ch-15 numbers the chapter, not the volume
func matchVolChapter(h string) (label, bool) {
	m := reVolChapter.FindStringSubmatch(h)
	if m == nil {
		return label{}, false
	}

	return splitDecimal(m[2]), true
}

func matchShortCh(h string) (label, bool) {
	m := reShortCh.FindStringSubmatch(h)
	if m == nil {
		return label{}, false
	}

	return splitDecimal(m[1]), true
}

func matchPathNumber(h string) (label, bool) {
	m := rePathNumber.FindStringSubmatch(h)
	if m == nil {
		return label{}, false
	}

	return splitDecimal(m[1]), true
}

func matchTitleNumber(title string) (label, bool) {
	m := reTitleNumber.FindStringSubmatch(title)
	if m == nil {
		return label{}, false
	}

	return splitDecimal(m[1]), true
}

func matchChapterWord(title string) (label, bool) {
	m := reChapterWord.FindStringSubmatch(title)
	if m == nil {
		return label{}, false
	}

	main, _ := strconv.Atoi(m[1])
	if m[2] == "" {
		return label{main: main}, true
	}

	sub, _ := strconv.Atoi(m[3])
	return label{main: main, sep: m[2], sub: sub}, true
}

func splitDecimal(s string) label {
	whole, frac, ok := strings.Cut(s, ".")
	main, _ := strconv.Atoi(whole)
	if !ok {
		return label{main: main}
	}

	sub, _ := strconv.Atoi(frac)
	return label{main: main, sep: ".", sub: sub}
}

func looksLikeChapterLink(href, title string) bool {
	h := strings.ToLower(href)
	if reLikelyChapter.MatchString(h) || reVolChapter.MatchString(h) || reShortCh.MatchString(h) {
		return true
	}

	t := strings.ToLower(title)
	return strings.HasPrefix(t, "ch ") || strings.HasPrefix(t, "chapter ")
}

// collectChapterLinks finds every chapter-looking anchor on a series page,
// de-duplicated by absolute URL and ordered by chapter number.
func collectChapterLinks(doc *goquery.Selection, pageURL string) []chapterLink {
	var out []chapterLink
	seen := map[string]bool{}

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		text := extract.Text(a)

		if !looksLikeChapterLink(href, text) {
			return
		}

		l, ok := parseLabel(href, text)
		if !ok {
			return
		}

		u := extract.Join(pageURL, href)
		if seen[u] {
			return
		}
		seen[u] = true

		if text == "" {
			text = "Chapter " + l.String()
		}

		out = append(out, chapterLink{URL: u, Title: text, Label: l})
	})

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Label, out[j].Label
		if a.main != b.main {
			return a.main < b.main
		}
		if a.sep != b.sep {
			return a.sep < b.sep
		}
		return a.sub < b.sub
	})

	return out
}
