// Package registry resolves the strategy of every configured source once,
// at load time.
package registry

import (
	"fmt"
	"net/http"

	"github.com/brogergvhs/noveld/internal/config"
	"github.com/brogergvhs/noveld/internal/providers"
	"github.com/brogergvhs/noveld/internal/providers/generic"
	"github.com/brogergvhs/noveld/internal/providers/mangadex"
	"github.com/brogergvhs/noveld/internal/providers/novelfire"
	"github.com/brogergvhs/noveld/internal/ui"
)

type Entry struct {
	Source   config.Source
	Strategy string
	Novel    providers.NovelStrategy
	Manga    providers.MangaSource
}

type Registry struct {
	sources  *config.Sources
	entries  map[string]Entry
	defaults Defaults
}

// Defaults are the chapter totals assumed when a page shows no count.
type Defaults struct {
	NovelChapters int
	Chapters      int
}

// ChapterFallback picks the novel total for NovelFire style sources and the
// generic total for every other one.
func (d Defaults) ChapterFallback(src config.Source) int {
	if src.StrategyKey() == novelfire.Key {
		return d.NovelChapters
	}

	return d.Chapters
}

// New builds one entry per source. Sources with a novel content type get a
// NovelStrategy; image-based ones get a MangaSource.
func New(sources *config.Sources, c *http.Client, log *ui.Logger, defaults Defaults) *Registry {
	r := &Registry{sources: sources, entries: map[string]Entry{}, defaults: defaults}

	for _, src := range sources.Sources {
		key := src.StrategyKey()
		e := Entry{Source: src, Strategy: key}
		if key != novelfire.Key && key != mangadex.Key {
			e.Strategy = generic.Key
		}

		if src.Supports(config.Novel) || len(src.ContentTypes) == 0 {
			e.Novel = novelStrategy(key, src)
		}
		if src.SupportsImages() || key == mangadex.Key {
			e.Manga = mangaSource(key, src, c, log.With(src.Name), defaults.ChapterFallback(src))
		}

		r.entries[src.Name] = e
	}

	return r
}

func novelStrategy(key string, src config.Source) providers.NovelStrategy {
	switch key {
	case novelfire.Key:
		return novelfire.New(src)
	default:
		return generic.NewNovelSite(src)
	}
}

func mangaSource(key string, src config.Source, c *http.Client, log *ui.Logger, fallback int) providers.MangaSource {
	switch key {
	case mangadex.Key:
		return mangadex.New(c, src)
	default:
		return generic.NewMangaSite(c, src, log, fallback)
	}
}

// ChapterFallback is the chapter total assumed for src.
func (r *Registry) ChapterFallback(src config.Source) int {
	return r.defaults.ChapterFallback(src)
}

func (r *Registry) lookup(name string) (Entry, error) {
	src, err := r.sources.Find(name)
	if err != nil {
		return Entry{}, err
	}

	return r.entries[src.Name], nil
}

// Novel returns the novel strategy of the named source.
func (r *Registry) Novel(name string) (config.Source, providers.NovelStrategy, error) {
	e, err := r.lookup(name)
	if err != nil {
		return config.Source{}, nil, err
	}
	if e.Novel == nil {
		return config.Source{}, nil, fmt.Errorf("%w: %s does not serve novels", config.ErrUnsupportedType, name)
	}

	return e.Source, e.Novel, nil
}

// Manga returns the manga source of the named source.
func (r *Registry) Manga(name string) (config.Source, providers.MangaSource, error) {
	e, err := r.lookup(name)
	if err != nil {
		return config.Source{}, nil, err
	}
	if e.Manga == nil {
		return config.Source{}, nil, fmt.Errorf("%w: %s does not serve manga", config.ErrUnsupportedType, name)
	}

	return e.Source, e.Manga, nil
}

// Describe lists every source with its resolved strategies.
func (r *Registry) Describe() []SourceInfo {
	out := make([]SourceInfo, 0, len(r.sources.Sources))
	for _, src := range r.sources.Sources {
		e := r.entries[src.Name]
		out = append(out, SourceInfo{
			Name:         src.Name,
			BaseURL:      src.BaseURL,
			Enabled:      src.IsEnabled(),
			ContentTypes: src.ContentTypes,
			Strategy:     e.Strategy,
			Novels:       e.Novel != nil,
			Manga:        e.Manga != nil,
		})
	}

	return out
}

type SourceInfo struct {
	Name         string               `json:"name"`
	BaseURL      string               `json:"base_url"`
	Enabled      bool                 `json:"enabled"`
	ContentTypes []config.ContentType `json:"content_types"`
	Strategy     string               `json:"strategy"`
	Novels       bool                 `json:"novels"`
	Manga        bool                 `json:"manga"`
}
