package generic

import (
	"net/url"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/brogergvhs/noveld/internal/extract"
)

var DefaultImageExtensions = []string{"jpg", "jpeg", "png", "webp", "gif"}

var (
	reSizeSuffix    = regexp.MustCompile(`[-_]\d{2,5}x\d{2,5}`)
	reSize          = regexp.MustCompile(`[-_](\d{2,5})x(\d{2,5})`)
	reBackgroundURL = regexp.MustCompile(`url\((?:["']?)([^"')]+)(?:["']?)\)`)
	reLooseURL      = regexp.MustCompile(`https?://[^\s"'<>]+`)
	reNuxtState     = regexp.MustCompile(`window\.__NUXT__\s*=\s*(\{.*?});`)

	nonPageWords = []string{"logo", "cover", "profile", "avatar", "banner", "icon"}
)

type candidate struct {
	URL   string
	Index int // data-index of the page, -1 when unknown
	Order int
}

// imageCollector gathers page-image candidates from several parts of a
// chapter page and reduces them to one URL per page.
type imageCollector struct {
	allowed *regexp.Regexp
	log     debugLogger
	items   []candidate
	seen    map[string]bool
}

type debugLogger interface {
	Debugf(string, ...any)
}

func newImageCollector(exts []string, log debugLogger) *imageCollector {
	return &imageCollector{
		allowed: extensionPattern(exts),
		log:     log,
		seen:    map[string]bool{},
	}
}

func extensionPattern(exts []string) *regexp.Regexp {
	var clean []string
	for _, e := range exts {
		e = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(e)), ".")
		if e != "" {
			clean = append(clean, regexp.QuoteMeta(e))
		}
	}
	if len(clean) == 0 {
		clean = DefaultImageExtensions
	}

	return regexp.MustCompile(`(?i)\.(` + strings.Join(clean, "|") + `)(?:\?.*)?$`)
}

func (c *imageCollector) add(raw string, idx int) {
	lu := strings.ToLower(raw)
	if raw == "" || strings.HasPrefix(lu, "javascript:") || strings.HasPrefix(lu, "data:") {
		return
	}
	if !c.allowed.MatchString(lu) {
		return
	}

	for _, w := range nonPageWords {
		if strings.Contains(lu, w) {
			c.log.Debugf("skipping non-page image %s", raw)
			return
		}
	}

	if c.seen[raw] {
		return
	}
	c.seen[raw] = true
	c.items = append(c.items, candidate{URL: raw, Index: idx, Order: len(c.items)})
}

func indexOf(sel *goquery.Selection) int {
	for _, s := range []*goquery.Selection{sel, sel.ParentsFiltered("[data-index]").First()} {
		if v, ok := s.Attr("data-index"); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n
			}
		}
	}

	return -1
}

func (c *imageCollector) addSrcset(srcset, pageURL string, idx int) {
	for _, part := range strings.Split(srcset, ",") {
		if f := strings.Fields(part); len(f) > 0 {
			c.add(extract.Join(pageURL, f[0]), idx)
		}
	}
}

// scanDOM looks at <img>, <picture> sources, image anchors and inline
// background images.
func (c *imageCollector) scanDOM(doc *goquery.Selection, pageURL string) {
	before := len(c.items)

	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		idx := indexOf(img)
		if ss, ok := img.Attr("srcset"); ok {
			c.addSrcset(ss, pageURL, idx)
		}
		for _, k := range []string{"src", "data-src", "data-lazy-src", "data-original"} {
			if v, ok := img.Attr(k); ok && strings.TrimSpace(v) != "" {
				c.add(extract.Join(pageURL, v), idx)
			}
		}
	})

	doc.Find("source[srcset]").Each(func(_ int, src *goquery.Selection) {
		ss, _ := src.Attr("srcset")
		c.addSrcset(ss, pageURL, indexOf(src))
	})

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") ||
			strings.HasPrefix(href, "/") || strings.HasPrefix(href, "./") {
			c.add(extract.Join(pageURL, href), indexOf(a))
		}
	})

	doc.Find("[style]").Each(func(_ int, el *goquery.Selection) {
		style := el.AttrOr("style", "")
		if !strings.Contains(strings.ToLower(style), "background-image") {
			return
		}
		for _, m := range reBackgroundURL.FindAllStringSubmatch(style, -1) {
			if u := strings.TrimSpace(m[1]); u != "" {
				c.add(extract.Join(pageURL, u), indexOf(el))
			}
		}
	})

	c.log.Debugf("DOM scan: +%d image candidates", len(c.items)-before)
}

// scanState walks decoded server-side state (e.g. a Nuxt payload) for
// absolute image URLs and embedded HTML fragments.
func (c *imageCollector) scanState(v any, pageURL string) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		ls := strings.ToLower(s)
		if strings.HasPrefix(ls, "http://") || strings.HasPrefix(ls, "https://") {
			c.add(s, -1)
			return
		}
		if strings.Contains(s, "<img") || strings.Contains(s, "<source") {
			if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
				c.scanDOM(doc.Selection, pageURL)
			}
		}
	case []any:
		for _, x := range t {
			c.scanState(x, pageURL)
		}
	case map[string]any:
		for _, x := range t {
			c.scanState(x, pageURL)
		}
	}
}

func (c *imageCollector) scanText(body string) {
	for _, u := range reLooseURL.FindAllString(body, -1) {
		c.add(u, -1)
	}
}

// pages reduces the candidates to one URL per page in reading order.
// Resized variants of the same image are grouped and the original (or the
// largest) is kept.
func (c *imageCollector) pages() []string {
	groups := map[string][]candidate{}
	var keys []string
	for _, it := range c.items {
		k := sizeless(it.URL)
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], it)
	}

	chosen := make([]candidate, 0, len(keys))
	for _, k := range keys {
		chosen = append(chosen, pick(groups[k]))
	}

	sort.SliceStable(chosen, func(i, j int) bool {
		a, b := chosen[i], chosen[j]
		switch {
		case a.Index >= 0 && b.Index >= 0 && a.Index != b.Index:
			return a.Index < b.Index
		case a.Index >= 0 && b.Index < 0:
			return true
		case a.Index < 0 && b.Index >= 0:
			return false
		}
		return a.Order < b.Order
	})

	out := make([]string, len(chosen))
	for i, it := range chosen {
		out[i] = it.URL
	}

	return out
}

func sizeless(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	ext := path.Ext(u.Path)
	base := strings.TrimSuffix(u.Path, ext)
	base = strings.TrimRight(reSizeSuffix.ReplaceAllString(base, ""), "-_")

	return u.Host + base + ext
}

// pick keeps the earliest unsized variant, else the largest sized one. The
// result carries the smallest known index and earliest order of the group.
func pick(group []candidate) candidate {
	best := group[0]
	bestArea := -1

	for _, it := range group {
		if !reSizeSuffix.MatchString(it.URL) {
			best = it
			break
		}
		if a := area(it.URL); a > bestArea {
			best, bestArea = it, a
		}
	}

	for _, it := range group {
		if it.Index >= 0 && (best.Index < 0 || it.Index < best.Index) {
			best.Index = it.Index
		}
		if it.Order < best.Order {
			best.Order = it.Order
		}
	}

	return best
}

func area(u string) int {
	m := reSize.FindStringSubmatch(u)
	if m == nil {
		return 0
	}

	w, _ := strconv.Atoi(m[1])
	h, _ := strconv.Atoi(m[2])
	return w * h
}
