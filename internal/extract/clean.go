package extract

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	ErrNoContent       = errors.New("chapter content not found")
	ErrContentTooShort = errors.New("chapter content too short or empty")
)

const minParagraph = 10

var (
	noise = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^Chapter \d+.*$`),
		regexp.MustCompile(`^[\d\s]*$`),
		regexp.MustCompile(`^\s*\*{3,}\s*$`),
		regexp.MustCompile(`^\s*-{3,}\s*$`),
		regexp.MustCompile(`^\s*_{3,}\s*$`),
	}

	reBlankLine    = regexp.MustCompile(`\n[ \t\r]*\n`)
	reManyNewlines = regexp.MustCompile(`\n{3,}`)

	// applied in order, literally
	entities = [][2]string{
		{"&nbsp;", " "},
		{"&amp;", "&"},
		{"&lt;", "<"},
		{"&gt;", ">"},
		{"&quot;", `"`},
		{"&#39;", "'"},
	}
)

var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "blockquote": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "ul": true, "ol": true, "pre": true, "table": true, "tr": true,
}

// Clean turns a chapter container into paragraph text separated by blank
// lines. Elements matching remove are dropped first; invalid selectors are
// skipped. The input selection is not modified.
func Clean(node *goquery.Selection, remove []string) string {
	c := node.Clone()
	for _, s := range remove {
		Find(c, s).Remove()
	}

	var paragraphs []string
	c.Filter("p").AddSelection(c.Find("p")).Each(func(_ int, p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())
		if utf8.RuneCountInString(text) <= minParagraph {
			return
		}
		if cleaned := CleanParagraph(text); cleaned != "" {
			paragraphs = append(paragraphs, cleaned)
		}
	})

	if len(paragraphs) == 0 {
		for _, block := range textBlocks(c) {
			cleaned := CleanParagraph(block)
			if utf8.RuneCountInString(cleaned) > minParagraph {
				paragraphs = append(paragraphs, cleaned)
			}
		}
	}

	return finalize(strings.Join(paragraphs, "\n\n"))
}

// CleanParagraph collapses whitespace and returns "" for noise: chapter
// headings, bare numbers, separator rules and fragments under 10 chars.
func CleanParagraph(text string) string {
	text = strings.Join(strings.Fields(text), " ")

	for _, re := range noise {
		if re.MatchString(text) {
			return ""
		}
	}

	if utf8.RuneCountInString(text) < minParagraph {
		return ""
	}

	return text
}

// textBlocks splits all text below sel on blank lines, treating <br> as a
// line break and block elements as paragraph breaks.
func textBlocks(sel *goquery.Selection) []string {
	var b strings.Builder

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
			if n.Data == "br" {
				b.WriteString("\n")
				return
			}
		}

		block := n.Type == html.ElementNode && blockElements[n.Data]
		if block {
			b.WriteString("\n\n")
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
		if block {
			b.WriteString("\n\n")
		}
	}

	for _, n := range sel.Nodes {
		walk(n)
	}

	var out []string
	for _, part := range reBlankLine.Split(b.String(), -1) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}

func finalize(content string) string {
	if content == "" {
		return ""
	}

	var (
		kept []string
		prev string
	)
	for _, line := range strings.Split(content, "\n\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == prev {
			continue
		}
		kept = append(kept, line)
		prev = line
	}

	content = strings.Join(kept, "\n\n")
	content = reManyNewlines.ReplaceAllString(content, "\n\n")

	for _, e := range entities {
		content = strings.ReplaceAll(content, e[0], e[1])
	}

	return strings.TrimSpace(content)
}

// Long reports whether content holds at least min characters.
func Long(content string, min int) bool {
	return utf8.RuneCountInString(strings.TrimSpace(content)) >= min
}
