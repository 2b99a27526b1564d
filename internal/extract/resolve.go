// Package extract pulls structured fields and cleaned chapter text out of
// parsed HTML pages using ordered selector fallbacks.
package extract

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

var (
	TitleFallbacks       = []string{"h1", ".title", `[class*="title"]`, "title"}
	AuthorFallbacks      = []string{".author", `[class*="author"]`, ".by", ".writer"}
	DescriptionFallbacks = []string{".summary", ".synopsis", ".description", `[class*="desc"]`, ".content p"}
)

// Find matches selector below root. An invalid selector matches nothing.
func Find(root *goquery.Selection, selector string) *goquery.Selection {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return root.Slice(0, 0)
	}

	return root.FindMatcher(m)
}

// Text is the element text with runs of whitespace collapsed.
func Text(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.Text()), " ")
}

// Resolve tries each selector in order and returns the text of the first
// match accepted by accept. A nil accept takes any non-empty text.
func Resolve(root *goquery.Selection, selectors []string, accept func(string) bool) (string, bool) {
	if accept == nil {
		accept = nonEmpty
	}

	for _, s := range selectors {
		el := Find(root, s).First()
		if el.Length() == 0 {
			continue
		}
		if text := Text(el); accept(text) {
			return text, true
		}
	}

	return "", false
}

func nonEmpty(s string) bool { return s != "" }

func titleLike(s string) bool {
	n := utf8.RuneCountInString(s)
	return n > 0 && n < 200
}

func authorLike(s string) bool {
	return s != "" && !strings.HasPrefix(strings.ToLower(s), "author")
}

// Title resolves the page title, falling back to generic title selectors.
func Title(root *goquery.Selection, primary []string) string {
	if t, ok := Resolve(root, primary, nil); ok {
		return t
	}
	t, _ := Resolve(root, TitleFallbacks, titleLike)
	return t
}

// Author resolves the author. Fallback matches that are only a label such
// as "Author:" are rejected.
func Author(root *goquery.Selection, primary []string) string {
	if a, ok := Resolve(root, primary, nil); ok {
		return a
	}
	a, _ := Resolve(root, AuthorFallbacks, authorLike)
	return a
}

// Description joins every match of the primary selectors. Fallback
// selectors only contribute fragments longer than 20 characters.
func Description(root *goquery.Selection, primary []string) string {
	for _, s := range primary {
		if d := joinAll(Find(root, s), 0); d != "" {
			return d
		}
	}

	for _, s := range DescriptionFallbacks {
		if d := joinAll(Find(root, s), 20); d != "" {
			return d
		}
	}

	return ""
}

func joinAll(sel *goquery.Selection, minLen int) string {
	var parts []string
	sel.Each(func(_ int, el *goquery.Selection) {
		if t := Text(el); t != "" && utf8.RuneCountInString(t) > minLen {
			parts = append(parts, t)
		}
	})

	return strings.Join(parts, " ")
}

// Cover returns the absolute image URL of the first match of selectors,
// reading src and then data-src.
func Cover(root *goquery.Selection, selectors []string, base string) string {
	for _, s := range selectors {
		img := Find(root, s).First()
		if img.Length() == 0 {
			continue
		}
		if src := ImageSource(img); src != "" {
			return Join(base, src)
		}
		return ""
	}

	return ""
}

// ImageSource reads the first non-empty lazy-loading aware source attribute.
func ImageSource(img *goquery.Selection) string {
	for _, attr := range []string{"src", "data-src", "data-lazy-src", "data-original"} {
		if v, ok := img.Attr(attr); ok {
			if v = strings.TrimSpace(v); v != "" && !strings.HasPrefix(v, "data:") {
				return v
			}
		}
	}

	return ""
}

// Join resolves ref against base. Unparseable input returns ref unchanged.
func Join(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "//") {
		return "https:" + ref
	}

	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}

	return b.ResolveReference(r).String()
}
