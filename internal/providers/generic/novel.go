package generic

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/brogergvhs/noveld/internal/chapters"
	"github.com/brogergvhs/noveld/internal/config"
	"github.com/brogergvhs/noveld/internal/extract"
	"github.com/brogergvhs/noveld/internal/providers"
)

const Key = "generic"

const (
	DefaultBookURL    = "{base}/book/{slug}"
	DefaultChapterURL = "{book}/chapter-{n}"
)

// DefaultSearchItems select one result on common listing layouts.
var DefaultSearchItems = []string{".novel-item", ".book-item", ".search-item", ".list-novel .row", "li.item"}

// NovelSite builds URLs from the "book_url" and "chapter_url" templates of
// a source. Templates may use {base}, {slug}, {book} and {n}.
type NovelSite struct {
	src config.Source
}

func NewNovelSite(src config.Source) *NovelSite {
	return &NovelSite{src: src}
}

func (s *NovelSite) Name() string { return s.src.Name }

func (s *NovelSite) template(key, def string) string {
	if v := s.src.Selector(key); len(v) > 0 {
		return v[0]
	}

	return def
}

func (s *NovelSite) BookURL(name string) string {
	return strings.NewReplacer(
		"{base}", s.src.BaseURL,
		"{slug}", chapters.Slug(name),
	).Replace(s.template("book_url", DefaultBookURL))
}

func (s *NovelSite) ChapterURL(bookURL string, n int) string {
	book := strings.TrimRight(bookURL, "/")
	slug := book[strings.LastIndex(book, "/")+1:]

	return strings.NewReplacer(
		"{base}", s.src.BaseURL,
		"{book}", book,
		"{slug}", slug,
		"{n}", strconv.Itoa(n),
	).Replace(s.template("chapter_url", DefaultChapterURL))
}

func (s *NovelSite) ResolveCover(doc *goquery.Selection) string {
	return extract.Cover(doc, s.src.Selector("novel_cover", "img"), s.src.BaseURL)
}

// Search uses the listing endpoint when one is configured and probes the
// slug URL otherwise.
func (s *NovelSite) Search(query string) providers.SearchRequest {
	if s.src.SearchEndpoint == "" {
		return providers.SearchRequest{URL: s.BookURL(query)}
	}

	return providers.SearchRequest{
		URL:          SearchURL(s.src.BaseURL, s.src.SearchEndpoint, query),
		Listing:      true,
		ItemSelector: s.src.Selector("search_item", DefaultSearchItems...),
	}
}

// SearchURL expands {query} in endpoint, or appends a q parameter.
func SearchURL(base, endpoint, query string) string {
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = base + "/" + strings.TrimLeft(endpoint, "/")
	}

	q := url.QueryEscape(query)
	if strings.Contains(endpoint, "{query}") {
		return strings.ReplaceAll(endpoint, "{query}", q)
	}

	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}

	return endpoint + sep + "q=" + q
}
