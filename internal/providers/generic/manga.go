package generic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/brogergvhs/noveld/internal/chapters"
	"github.com/brogergvhs/noveld/internal/config"
	"github.com/brogergvhs/noveld/internal/extract"
	"github.com/brogergvhs/noveld/internal/providers"
	"github.com/brogergvhs/noveld/internal/util"
)

const DefaultSeriesURL = "{base}/manga/{slug}"

var ErrNoImages = errors.New("no usable images found")

// MangaSite scrapes series pages for chapter links and chapter pages for
// images. Series ids are either absolute URLs or names turned into a slug.
type MangaSite struct {
	client   *http.Client
	src      config.Source
	log      debugLogger
	exts     []string
	fallback int
}

// NewMangaSite reads series pages of src. fallback is the chapter total
// reported when a series page links no chapters.
func NewMangaSite(c *http.Client, src config.Source, log debugLogger, fallback int) *MangaSite {
	exts := src.Selector("image_extensions")
	if len(exts) == 0 {
		exts = DefaultImageExtensions
	}

	return &MangaSite{client: c, src: src, log: log, exts: exts, fallback: fallback}
}

func (m *MangaSite) Name() string { return m.src.Name }

func (m *MangaSite) language() string {
	if m.src.Language != "" {
		return m.src.Language
	}

	return "en"
}

func (m *MangaSite) seriesURL(id string) string {
	if strings.HasPrefix(id, "http://") || strings.HasPrefix(id, "https://") {
		return id
	}

	tpl := DefaultSeriesURL
	if v := m.src.Selector("series_url"); len(v) > 0 {
		tpl = v[0]
	}

	return strings.NewReplacer("{base}", m.src.BaseURL, "{slug}", chapters.Slug(id)).Replace(tpl)
}

func (m *MangaSite) Search(ctx context.Context, query string) ([]providers.MangaInfo, error) {
	if m.src.SearchEndpoint == "" {
		info, err := m.Info(ctx, query)
		if err != nil {
			m.log.Debugf("search %s: %v", query, err)
			return nil, nil
		}
		return []providers.MangaInfo{info}, nil
	}

	target := SearchURL(m.src.BaseURL, m.src.SearchEndpoint, query)
	doc, err := util.FetchDocument(ctx, m.client, target)
	if err != nil {
		return nil, err
	}

	var out []providers.MangaInfo
	for _, sel := range m.src.Selector("search_item", DefaultSearchItems...) {
		extract.Find(doc.Selection, sel).Each(func(_ int, item *goquery.Selection) {
			it := extract.ParseListingItem(item, m.src.BaseURL)
			if it.Title == "" || it.URL == "" {
				return
			}
			out = append(out, providers.MangaInfo{
				ID:          it.URL,
				Title:       it.Title,
				Author:      it.Author,
				Description: it.Description,
				CoverURL:    it.CoverURL,
				URL:         it.URL,
				Source:      m.src.Name,
			})
		})
		if len(out) > 0 {
			break
		}
	}

	return out, nil
}

func (m *MangaSite) Info(ctx context.Context, id string) (providers.MangaInfo, error) {
	target := m.seriesURL(id)

	doc, err := util.FetchDocument(ctx, m.client, target)
	if err != nil {
		return providers.MangaInfo{}, err
	}

	root := doc.Selection

	total := len(wholeChapters(collectChapterLinks(root, target), m.src.Name, m.language()))
	if total == 0 {
		total = extract.ChapterCount(root, m.fallback)
	}

	return providers.MangaInfo{
		ID:            target,
		Title:         extract.Title(root, m.src.Selector("manga_title", "h1")),
		Author:        extract.Author(root, m.src.Selector("manga_author", ".author")),
		Description:   extract.Description(root, m.src.Selector("manga_description", ".description")),
		CoverURL:      extract.Cover(root, m.src.Selector("manga_cover", ".cover img", "img"), m.src.BaseURL),
		TotalChapters: total,
		URL:           target,
		Source:        m.src.Name,
	}, nil
}

func (m *MangaSite) Chapters(ctx context.Context, id string) ([]providers.MangaChapter, error) {
	target := m.seriesURL(id)

	doc, err := util.FetchDocument(ctx, m.client, target)
	if err != nil {
		return nil, err
	}

	return wholeChapters(collectChapterLinks(doc.Selection, target), m.src.Name, m.language()), nil
}

// wholeChapters groups links by chapter number. Every link of a number is
// one provider; sub-chapters such as 12.5 are left out.
func wholeChapters(links []chapterLink, source, lang string) []providers.MangaChapter {
	var out []providers.MangaChapter
	pos := map[int]int{}

	for _, l := range links {
		if !l.Label.Whole() {
			continue
		}

		p := providers.Provider{ID: l.URL, Name: source, Language: lang}
		if i, ok := pos[l.Label.main]; ok {
			out[i].Providers = append(out[i].Providers, p)
			continue
		}

		pos[l.Label.main] = len(out)
		out = append(out, providers.MangaChapter{
			Number:    l.Label.main,
			Title:     l.Title,
			Providers: []providers.Provider{p},
		})
	}

	return out
}

// Pages collects the page images of the chapter at p.ID.
func (m *MangaSite) Pages(ctx context.Context, p providers.Provider) ([]string, error) {
	body, _, err := util.FetchBytes(ctx, m.client, p.ID, nil)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", p.ID, err)
	}

	col := newImageCollector(m.exts, m.log)

	// chapter_images narrows the scan to the reader container
	root := doc.Selection
	if sel := m.src.Selector("chapter_images"); len(sel) > 0 {
		for _, s := range sel {
			if found := extract.Find(root, s); found.Length() > 0 {
				root = found
				break
			}
		}
	}
	col.scanDOM(root, p.ID)

	if match := reNuxtState.FindStringSubmatch(string(body)); len(match) > 1 {
		var state map[string]any
		if json.Unmarshal([]byte(match[1]), &state) == nil {
			m.log.Debugf("found embedded page state on %s", p.ID)
			col.scanState(state, p.ID)
		}
	}

	if len(col.items) == 0 {
		col.scanText(string(body))
	}

	pages := col.pages()
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w on %s", ErrNoImages, p.ID)
	}

	return pages, nil
}
