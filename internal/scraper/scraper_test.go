package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/noveld/internal/config"
	"github.com/brogergvhs/noveld/internal/extract"
	"github.com/brogergvhs/noveld/internal/providers/generic"
	"github.com/brogergvhs/noveld/internal/providers/novelfire"
	"github.com/brogergvhs/noveld/internal/ui"
)

var paragraph = strings.Repeat("The night was long and the road was longer still. ", 3)

func novelServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/book/shadow-slave", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `<html><head><title>Shadow Slave - NovelFire</title></head><body>
			<h1 class="novel-title">Shadow Slave</h1>
			<div class="author"><span>Author:</span> <a>Guiltythree</a></div>
			<div class="summary"><p>Growing up in poverty, Sunny never expected anything good from life.</p></div>
			<figure class="cover"><img data-src="/covers/shadow.jpg"></figure>
			<div class="header-stats"><span><strong>4</strong><small>Chapters</small></span></div>
		</body></html>`)
	})
	mux.HandleFunc("/book/shadow-slave/chapter-1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, `<h1>Chapter 1: Nightmare Begins</h1>
			<div id="content"><p>Chapter 1: Nightmare Begins</p><p>%s</p><div class="ads"><p>Read more at our site!</p></div></div>`, paragraph)
	})
	mux.HandleFunc("/book/shadow-slave/chapter-2", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `<h1>Chapter 2</h1><div id="content"><p>Too short to keep.</p></div>`)
	})
	mux.HandleFunc("/book/shadow-slave/chapter-3", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `<h1>Chapter 3</h1><div class="nothing-here"></div>`)
	})

	return httptest.NewServer(mux)
}

func newScraper(srv *httptest.Server) *Scraper {
	src := config.Source{
		Name:    "NovelFire",
		BaseURL: srv.URL,
		Selectors: map[string]config.Selector{
			"novel_title":      {".novel-title"},
			"novel_author":     {".author a"},
			"novel_cover":      {"figure.cover img"},
			"chapter_content":  {"#content"},
			"remove_selectors": {".ads", "script"},
		},
	}

	return New(srv.Client(), src, novelfire.New(src), ui.Nop(), Options{DefaultChapters: 3000, MinContentLength: 100})
}

func TestInfo(t *testing.T) {
	srv := novelServer(t)
	defer srv.Close()

	info, err := newScraper(srv).Info(context.Background(), srv.URL+"/book/shadow-slave")
	require.NoError(t, err)

	assert.Equal(t, "Shadow Slave", info.Title)
	assert.Equal(t, "Guiltythree", info.Author)
	assert.Equal(t, "Growing up in poverty, Sunny never expected anything good from life.", info.Description)
	assert.Equal(t, srv.URL+"/covers/shadow.jpg", info.CoverURL)
	assert.Equal(t, 4, info.TotalChapters)
	assert.Equal(t, "NovelFire", info.Source)
	require.Len(t, info.ChapterURLs, 4)
	assert.Equal(t, srv.URL+"/book/shadow-slave/chapter-4", info.ChapterURLs[3].URL)
}

func TestChapter(t *testing.T) {
	srv := novelServer(t)
	defer srv.Close()

	s := newScraper(srv)
	book := srv.URL + "/book/shadow-slave"

	rec, err := s.Chapter(context.Background(), book, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.ChapterNumber)
	assert.Equal(t, "Chapter 1 Nightmare Begins", rec.Title)
	assert.Equal(t, strings.TrimSpace(paragraph), rec.Content)

	_, err = s.Chapter(context.Background(), book, 2)
	assert.ErrorIs(t, err, extract.ErrContentTooShort)

	_, err = s.Chapter(context.Background(), book, 3)
	assert.ErrorIs(t, err, extract.ErrNoContent)

	_, err = s.Chapter(context.Background(), book, 9)
	assert.Error(t, err)
}

func TestSearchProbe(t *testing.T) {
	srv := novelServer(t)
	defer srv.Close()

	s := newScraper(srv)

	hits, err := s.Search(context.Background(), "Shadow Slave")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, srv.URL+"/book/shadow-slave", hits[0].URL)
	assert.Equal(t, "NovelFire", hits[0].SourceName)

	hits, err = s.Search(context.Background(), "Unknown Book")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "solo leveling", r.URL.Query().Get("q"))
		_, _ = fmt.Fprint(w, `<ul>
			<li class="novel-item"><a href="/book/solo-leveling">Solo Leveling</a><span class="author">Chugong</span></li>
			<li class="novel-item"><span>broken entry</span></li>
		</ul>`)
	}))
	defer srv.Close()

	src := config.Source{Name: "Lib", BaseURL: srv.URL, SearchEndpoint: "/search"}
	s := New(srv.Client(), src, generic.NewNovelSite(src), ui.Nop(), Options{})

	hits, err := s.Search(context.Background(), "solo leveling")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Solo Leveling", hits[0].Title)
	assert.Equal(t, "Chugong", hits[0].Author)
	assert.Equal(t, srv.URL+"/book/solo-leveling", hits[0].URL)
}
