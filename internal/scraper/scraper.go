// Package scraper reads novel book pages and chapter pages of one source.
package scraper

import (
	"context"
	"fmt"
	"net/http"

	"github.com/PuerkitoBio/goquery"

	"github.com/brogergvhs/noveld/internal/config"
	"github.com/brogergvhs/noveld/internal/extract"
	"github.com/brogergvhs/noveld/internal/library"
	"github.com/brogergvhs/noveld/internal/providers"
	"github.com/brogergvhs/noveld/internal/ui"
	"github.com/brogergvhs/noveld/internal/util"
)

// MaxChapterURLs caps the chapter list of an info response.
const MaxChapterURLs = 3000

type Options struct {
	DefaultChapters  int
	MinContentLength int
}

type Scraper struct {
	client   *http.Client
	src      config.Source
	strategy providers.NovelStrategy
	log      *ui.Logger
	opts     Options
}

func New(c *http.Client, src config.Source, strategy providers.NovelStrategy, log *ui.Logger, opts Options) *Scraper {
	if opts.DefaultChapters <= 0 {
		opts.DefaultChapters = 3000
	}
	if opts.MinContentLength <= 0 {
		opts.MinContentLength = 100
	}

	return &Scraper{client: c, src: src, strategy: strategy, log: log, opts: opts}
}

// Info fetches a book page and resolves its fields.
func (s *Scraper) Info(ctx context.Context, bookURL string) (providers.ContentInfo, error) {
	s.log.Debugf("fetching novel info from %s", bookURL)

	doc, err := util.FetchDocument(ctx, s.client, bookURL)
	if err != nil {
		return providers.ContentInfo{}, fmt.Errorf("failed to fetch novel page: %w", err)
	}

	info := s.parseInfo(doc.Selection, bookURL)
	s.log.Debugf("resolved %q by %q, %d chapters", info.Title, info.Author, info.TotalChapters)

	return info, nil
}

func (s *Scraper) parseInfo(root *goquery.Selection, bookURL string) providers.ContentInfo {
	info := providers.ContentInfo{
		Title:         extract.Title(root, s.src.Selector("novel_title", "h1")),
		Author:        extract.Author(root, s.src.Selector("novel_author", ".author")),
		Description:   extract.Description(root, s.src.Selector("novel_description", ".description")),
		CoverURL:      s.strategy.ResolveCover(root),
		TotalChapters: extract.ChapterCount(root, s.opts.DefaultChapters),
		URL:           bookURL,
		Source:        s.src.Name,
	}

	n := min(info.TotalChapters, MaxChapterURLs)
	info.ChapterURLs = make([]providers.ChapterLink, 0, n)
	for i := 1; i <= n; i++ {
		info.ChapterURLs = append(info.ChapterURLs, providers.ChapterLink{
			Number: i,
			Title:  fmt.Sprintf("Chapter %d", i),
			URL:    s.strategy.ChapterURL(bookURL, i),
		})
	}

	return info
}

// Chapter fetches and cleans chapter n of the book at bookURL. Fetches are
// not retried.
func (s *Scraper) Chapter(ctx context.Context, bookURL string, n int) (library.ChapterRecord, error) {
	target := s.strategy.ChapterURL(bookURL, n)
	s.log.Debugf("downloading chapter %d: %s", n, target)

	doc, err := util.FetchDocument(ctx, s.client, target)
	if err != nil {
		return library.ChapterRecord{}, err
	}

	return s.parseChapter(doc.Selection, n)
}

func (s *Scraper) parseChapter(root *goquery.Selection, n int) (library.ChapterRecord, error) {
	heading, _ := extract.Resolve(root, s.src.Selector("chapter_title", "h1"), nil)

	var container *goquery.Selection
	for _, sel := range s.src.Selector("chapter_content", ".content", "#content", ".chapter-content") {
		if c := extract.Find(root, sel).First(); c.Length() > 0 {
			container = c
			break
		}
	}
	if container == nil {
		return library.ChapterRecord{}, fmt.Errorf("chapter %d: %w", n, extract.ErrNoContent)
	}

	content := extract.Clean(container, s.src.Selector("remove_selectors"))
	content = extract.StripHeading(content, heading)

	if !extract.Long(content, s.opts.MinContentLength) {
		return library.ChapterRecord{}, fmt.Errorf("chapter %d: %w", n, extract.ErrContentTooShort)
	}

	return library.ChapterRecord{
		ChapterNumber: n,
		Title:         extract.ChapterTitle(n, heading),
		Content:       content,
	}, nil
}

// Search runs the source's search strategy. A probe that does not resolve
// to a titled book page yields no results rather than an error.
func (s *Scraper) Search(ctx context.Context, query string) ([]providers.SearchResult, error) {
	req := s.strategy.Search(query)

	if !req.Listing {
		info, err := s.Info(ctx, req.URL)
		if err != nil || info.Title == "" {
			s.log.Debugf("probe %s found nothing: %v", req.URL, err)
			return []providers.SearchResult{}, nil
		}

		return []providers.SearchResult{{
			Title:         extract.ASCII(info.Title),
			Author:        extract.ASCII(info.Author),
			URL:           req.URL,
			Description:   extract.ASCII(info.Description),
			SourceName:    s.src.Name,
			TotalChapters: info.TotalChapters,
			CoverURL:      info.CoverURL,
		}}, nil
	}

	doc, err := util.FetchDocument(ctx, s.client, req.URL)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", s.src.Name, err)
	}

	out := []providers.SearchResult{}
	for _, sel := range req.ItemSelector {
		extract.Find(doc.Selection, sel).Each(func(_ int, item *goquery.Selection) {
			it := extract.ParseListingItem(item, s.src.BaseURL)
			if it.Title == "" || it.URL == "" {
				return
			}
			out = append(out, providers.SearchResult{
				Title:       extract.ASCII(it.Title),
				Author:      extract.ASCII(it.Author),
				URL:         it.URL,
				Description: extract.ASCII(it.Description),
				SourceName:  s.src.Name,
				CoverURL:    it.CoverURL,
			})
		})
		if len(out) > 0 {
			break
		}
	}

	return out, nil
}
