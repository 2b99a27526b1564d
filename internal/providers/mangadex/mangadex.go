// Package mangadex is a MangaDex API client exposing series as a
// providers.MangaSource. Scanlation groups become chapter providers.
package mangadex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/brogergvhs/noveld/internal/config"
	"github.com/brogergvhs/noveld/internal/providers"
	"github.com/brogergvhs/noveld/internal/util"
)

const (
	Key        = "mangadex"
	DefaultAPI = "https://api.mangadex.org"
	SiteURL    = "https://mangadex.org"
	CoversURL  = "https://uploads.mangadex.org/covers"

	feedPage = 500
)

type MangaDex struct {
	client *http.Client
	api    string
	name   string
}

// New builds a client for src. BaseURL, when set, overrides the API root.
func New(c *http.Client, src config.Source) *MangaDex {
	api := src.BaseURL
	if api == "" {
		api = DefaultAPI
	}
	name := src.Name
	if name == "" {
		name = "MangaDex"
	}

	return &MangaDex{client: c, api: strings.TrimRight(api, "/"), name: name}
}

func (m *MangaDex) Name() string { return m.name }

type relationship struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes struct {
		Name     string `json:"name"`
		FileName string `json:"fileName"`
	} `json:"attributes"`
}

type manga struct {
	ID         string `json:"id"`
	Attributes struct {
		Title       map[string]string   `json:"title"`
		AltTitles   []map[string]string `json:"altTitles"`
		Description map[string]string   `json:"description"`
		Status      string              `json:"status"`
		LastChapter string              `json:"lastChapter"`
	} `json:"attributes"`
	Relationships []relationship `json:"relationships"`
}

type chapter struct {
	ID         string `json:"id"`
	Attributes struct {
		Title    string `json:"title"`
		Language string `json:"translatedLanguage"`
		Volume   string `json:"volume"`
		Number   string `json:"chapter"`
		Pages    int    `json:"pages"`
	} `json:"attributes"`
	Relationships []relationship `json:"relationships"`
}

func (m *MangaDex) get(ctx context.Context, path string, q url.Values, v any) error {
	target := m.api + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	body, _, err := util.FetchBytes(ctx, m.client, target, http.Header{"Accept": {"application/json"}})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	return nil
}

func localized(m map[string]string, alts ...map[string]string) string {
	if v := m["en"]; v != "" {
		return v
	}
	for _, alt := range alts {
		if v := alt["en"]; v != "" {
			return v
		}
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if m[k] != "" {
			return m[k]
		}
	}

	return ""
}

func (m *MangaDex) toInfo(x manga) providers.MangaInfo {
	info := providers.MangaInfo{
		ID:          x.ID,
		Title:       localized(x.Attributes.Title, x.Attributes.AltTitles...),
		Description: localized(x.Attributes.Description),
		Status:      x.Attributes.Status,
		URL:         SiteURL + "/title/" + x.ID,
		Source:      m.name,
	}
	if n, err := strconv.Atoi(x.Attributes.LastChapter); err == nil {
		info.TotalChapters = n
	}

	for _, r := range x.Relationships {
		switch r.Type {
		case "author":
			if info.Author == "" {
				info.Author = r.Attributes.Name
			}
		case "cover_art":
			if r.Attributes.FileName != "" {
				info.CoverURL = fmt.Sprintf("%s/%s/%s", CoversURL, x.ID, r.Attributes.FileName)
			}
		}
	}

	return info
}

func (m *MangaDex) Search(ctx context.Context, query string) ([]providers.MangaInfo, error) {
	q := url.Values{
		"title":      {query},
		"limit":      {"20"},
		"includes[]": {"author", "cover_art"},
	}

	var res struct {
		Data []manga `json:"data"`
	}
	if err := m.get(ctx, "/manga", q, &res); err != nil {
		return nil, fmt.Errorf("mangadex search: %w", err)
	}

	out := make([]providers.MangaInfo, 0, len(res.Data))
	for _, x := range res.Data {
		out = append(out, m.toInfo(x))
	}

	return out, nil
}

func (m *MangaDex) Info(ctx context.Context, id string) (providers.MangaInfo, error) {
	var res struct {
		Data manga `json:"data"`
	}
	q := url.Values{"includes[]": {"author", "cover_art"}}
	if err := m.get(ctx, "/manga/"+url.PathEscape(id), q, &res); err != nil {
		return providers.MangaInfo{}, fmt.Errorf("mangadex manga %s: %w", id, err)
	}

	info := m.toInfo(res.Data)
	if info.TotalChapters == 0 {
		if list, err := m.Chapters(ctx, id); err == nil && len(list) > 0 {
			info.TotalChapters = list[len(list)-1].Number
		}
	}

	return info, nil
}

// Chapters pages through the feed and groups releases by chapter number.
// Fractional and unnumbered chapters are skipped.
func (m *MangaDex) Chapters(ctx context.Context, id string) ([]providers.MangaChapter, error) {
	byNumber := map[int]*providers.MangaChapter{}

	for offset := 0; ; offset += feedPage {
		q := url.Values{
			"limit":              {strconv.Itoa(feedPage)},
			"offset":             {strconv.Itoa(offset)},
			"order[chapter]":     {"asc"},
			"includes[]":         {"scanlation_group"},
			"includeExternalUrl": {"0"},
		}

		var res struct {
			Data  []chapter `json:"data"`
			Total int       `json:"total"`
		}
		if err := m.get(ctx, "/manga/"+url.PathEscape(id)+"/feed", q, &res); err != nil {
			return nil, fmt.Errorf("mangadex feed %s: %w", id, err)
		}

		for _, c := range res.Data {
			n, err := strconv.Atoi(strings.TrimSpace(c.Attributes.Number))
			if err != nil {
				continue
			}

			ch, ok := byNumber[n]
			if !ok {
				ch = &providers.MangaChapter{Number: n, Title: c.Attributes.Title}
				byNumber[n] = ch
			}
			ch.Providers = append(ch.Providers, providers.Provider{
				ID:       c.ID,
				Name:     groupName(c.Relationships),
				Language: c.Attributes.Language,
			})
		}

		if len(res.Data) == 0 || offset+len(res.Data) >= res.Total {
			break
		}
	}

	out := make([]providers.MangaChapter, 0, len(byNumber))
	for _, ch := range byNumber {
		out = append(out, *ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })

	return out, nil
}

func groupName(rels []relationship) string {
	for _, r := range rels {
		if r.Type == "scanlation_group" && r.Attributes.Name != "" {
			return r.Attributes.Name
		}
	}

	return "MangaDex"
}

// Pages resolves the at-home server image URLs of one chapter release.
func (m *MangaDex) Pages(ctx context.Context, p providers.Provider) ([]string, error) {
	var server struct {
		BaseURL string `json:"baseUrl"`
		Chapter struct {
			Hash string   `json:"hash"`
			Data []string `json:"data"`
		} `json:"chapter"`
	}
	if err := m.get(ctx, "/at-home/server/"+url.PathEscape(p.ID), nil, &server); err != nil {
		return nil, fmt.Errorf("mangadex pages %s: %w", p.ID, err)
	}

	pages := make([]string, len(server.Chapter.Data))
	for i, file := range server.Chapter.Data {
		pages[i] = fmt.Sprintf("%s/data/%s/%s", server.BaseURL, server.Chapter.Hash, file)
	}

	return pages, nil
}
