// Package novelfire implements the NovelFire URL conventions: books live
// under /book/<slug> and chapters under /book/<slug>/chapter-<n>.
package novelfire

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/brogergvhs/noveld/internal/chapters"
	"github.com/brogergvhs/noveld/internal/config"
	"github.com/brogergvhs/noveld/internal/extract"
	"github.com/brogergvhs/noveld/internal/providers"
)

const Key = "novelfire"

type Strategy struct {
	src config.Source
}

func New(src config.Source) *Strategy {
	return &Strategy{src: src}
}

func (s *Strategy) Name() string { return s.src.Name }

func (s *Strategy) BookURL(name string) string {
	return fmt.Sprintf("%s/book/%s", s.src.BaseURL, chapters.Slug(name))
}

// ChapterURL rebuilds the chapter link from the book slug, so book URLs
// with trailing segments still map onto the canonical chapter path.
func (s *Strategy) ChapterURL(bookURL string, n int) string {
	slug := bookURL
	if i := strings.LastIndex(bookURL, "/book/"); i >= 0 {
		slug = bookURL[i+len("/book/"):]
	}
	slug = strings.Trim(slug, "/")

	return fmt.Sprintf("%s/book/%s/chapter-%d", s.src.BaseURL, slug, n)
}

func (s *Strategy) ResolveCover(doc *goquery.Selection) string {
	return extract.Cover(doc, s.src.Selector("novel_cover", ".cover img", "figure.cover img", "img"), s.src.BaseURL)
}

// Search probes the slug URL of the query as a book page.
func (s *Strategy) Search(query string) providers.SearchRequest {
	return providers.SearchRequest{URL: s.BookURL(query)}
}
