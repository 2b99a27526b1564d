// Package providers defines the per-site strategies used to locate books,
// chapters and pages. A strategy is picked once per configured source.
package providers

import (
	"context"

	"github.com/PuerkitoBio/goquery"
)

// ContentInfo describes a book or series page.
type ContentInfo struct {
	Title         string        `json:"title"`
	Author        string        `json:"author"`
	Description   string        `json:"description"`
	CoverURL      string        `json:"cover_url"`
	TotalChapters int           `json:"total_chapters"`
	URL           string        `json:"url"`
	Source        string        `json:"source"`
	ChapterURLs   []ChapterLink `json:"chapter_urls,omitempty"`
}

type ChapterLink struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	URL    string `json:"url"`
}

type SearchResult struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	URL           string `json:"url"`
	Description   string `json:"description"`
	SourceName    string `json:"source_name"`
	TotalChapters int    `json:"total_chapters"`
	CoverURL      string `json:"cover_url"`
	ID            string `json:"id,omitempty"`
}

// SearchRequest tells the scraper how to search a site. Listing requests
// fetch a results page; the others probe URL as a book page directly.
type SearchRequest struct {
	URL     string
	Listing bool
	// ItemSelector selects one result container on a listing page.
	ItemSelector []string
}

// NovelStrategy holds the URL and page conventions of a novel site.
type NovelStrategy interface {
	Name() string
	BookURL(name string) string
	ChapterURL(bookURL string, n int) string
	ResolveCover(doc *goquery.Selection) string
	Search(query string) SearchRequest
}

// Provider is one scanlation or translation of a manga chapter.
type Provider struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language"`
}

type MangaChapter struct {
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	Providers []Provider `json:"providers"`
}

type MangaInfo struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	Description   string `json:"description"`
	CoverURL      string `json:"cover_url"`
	Status        string `json:"status,omitempty"`
	TotalChapters int    `json:"total_chapters"`
	URL           string `json:"url"`
	Source        string `json:"source"`
}

// MangaSource lists series, chapters and page images of an image-based
// site.
type MangaSource interface {
	Name() string
	Search(ctx context.Context, query string) ([]MangaInfo, error)
	Info(ctx context.Context, id string) (MangaInfo, error)
	Chapters(ctx context.Context, id string) ([]MangaChapter, error)
	Pages(ctx context.Context, p Provider) ([]string, error)
}

// BestProvider returns the first provider in lang, else the first one.
func BestProvider(list []Provider, lang string) (Provider, bool) {
	if len(list) == 0 {
		return Provider{}, false
	}

	for _, p := range list {
		if p.Language == lang {
			return p, true
		}
	}

	return list[0], true
}
