package registry

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/noveld/internal/config"
	"github.com/brogergvhs/noveld/internal/providers/generic"
	"github.com/brogergvhs/noveld/internal/providers/mangadex"
	"github.com/brogergvhs/noveld/internal/providers/novelfire"
	"github.com/brogergvhs/noveld/internal/ui"
)

const sourcesJSON = `{"sources": [
	{"name": "NovelFire", "base_url": "https://novelfire.net/", "content_types": ["novel"]},
	{"name": "MangaDex", "base_url": "https://api.mangadex.org", "content_types": ["manga"]},
	{"name": "Toon", "base_url": "https://toon.test", "content_types": ["manhwa"]},
	{"name": "Off", "base_url": "https://off.test", "enabled": false, "content_types": ["novel"]}
]}`

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	s, err := config.ParseSources([]byte(sourcesJSON))
	require.NoError(t, err)
	return New(s, http.DefaultClient, ui.Nop(), Defaults{NovelChapters: 3000, Chapters: 1000})
}

func TestStrategiesResolvedOnce(t *testing.T) {
	r := newRegistry(t)

	_, nf, err := r.Novel("NovelFire")
	require.NoError(t, err)
	assert.IsType(t, &novelfire.Strategy{}, nf)

	_, md, err := r.Manga("MangaDex")
	require.NoError(t, err)
	assert.IsType(t, &mangadex.MangaDex{}, md)

	_, toon, err := r.Manga("Toon")
	require.NoError(t, err)
	assert.IsType(t, &generic.MangaSite{}, toon)
}

func TestLookupErrors(t *testing.T) {
	r := newRegistry(t)

	_, _, err := r.Novel("Nope")
	assert.ErrorIs(t, err, config.ErrUnknownSource)

	_, _, err = r.Novel("Off")
	assert.ErrorIs(t, err, config.ErrSourceDisabled)

	_, _, err = r.Manga("NovelFire")
	assert.ErrorIs(t, err, config.ErrUnsupportedType)

	_, _, err = r.Novel("Toon")
	assert.ErrorIs(t, err, config.ErrUnsupportedType)
}

func TestDescribe(t *testing.T) {
	list := newRegistry(t).Describe()
	require.Len(t, list, 4)

	assert.Equal(t, "novelfire", list[0].Strategy)
	assert.Equal(t, "https://novelfire.net", list[0].BaseURL)
	assert.True(t, list[0].Novels)
	assert.Equal(t, "generic", list[2].Strategy)
	assert.True(t, list[2].Manga)
	assert.False(t, list[3].Enabled)
}

func TestChapterFallbackPerStrategy(t *testing.T) {
	r := newRegistry(t)

	nf, _, err := r.Novel("NovelFire")
	require.NoError(t, err)
	assert.Equal(t, 3000, r.ChapterFallback(nf))

	toon, _, err := r.Manga("Toon")
	require.NoError(t, err)
	assert.Equal(t, 1000, r.ChapterFallback(toon))
}
