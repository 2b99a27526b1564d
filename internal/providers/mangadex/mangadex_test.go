package mangadex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/noveld/internal/config"
	"github.com/brogergvhs/noveld/internal/providers"
)

func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(v))
	}

	mux.HandleFunc("/manga", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "naruto", r.URL.Query().Get("title"))
		write(w, map[string]any{"data": []any{map[string]any{
			"id": "m1",
			"attributes": map[string]any{
				"title":       map[string]string{"ja-ro": "Naruto"},
				"description": map[string]string{"en": "Ninja."},
				"lastChapter": "700",
			},
			"relationships": []any{
				map[string]any{"type": "author", "attributes": map[string]string{"name": "Kishimoto"}},
				map[string]any{"type": "cover_art", "attributes": map[string]string{"fileName": "c.jpg"}},
			},
		}}})
	})

	mux.HandleFunc("/manga/m1/feed", func(w http.ResponseWriter, r *http.Request) {
		ch := func(id, num, lang, group string) map[string]any {
			return map[string]any{
				"id":         id,
				"attributes": map[string]any{"chapter": num, "translatedLanguage": lang, "title": "T" + num},
				"relationships": []any{
					map[string]any{"type": "scanlation_group", "attributes": map[string]string{"name": group}},
				},
			}
		}

		if r.URL.Query().Get("offset") == "0" {
			write(w, map[string]any{"total": 4, "data": []any{
				ch("c1-es", "1", "es", "Grupo"),
				ch("c1-en", "1", "en", "Team"),
				ch("c1.5", "1.5", "en", "Team"),
			}})
			return
		}
		write(w, map[string]any{"total": 4, "data": []any{ch("c2", "2", "fr", "Equipe")}})
	})

	mux.HandleFunc("/at-home/server/c1-en", func(w http.ResponseWriter, r *http.Request) {
		write(w, map[string]any{
			"baseUrl": "https://uploads.test",
			"chapter": map[string]any{"hash": "h", "data": []string{"1.png", "2.png"}},
		})
	})

	return httptest.NewServer(mux)
}

func TestSearch(t *testing.T) {
	srv := fakeAPI(t)
	defer srv.Close()

	md := New(srv.Client(), config.Source{BaseURL: srv.URL})
	list, err := md.Search(context.Background(), "naruto")
	require.NoError(t, err)
	require.Len(t, list, 1)

	got := list[0]
	assert.Equal(t, "Naruto", got.Title)
	assert.Equal(t, "Kishimoto", got.Author)
	assert.Equal(t, "Ninja.", got.Description)
	assert.Equal(t, 700, got.TotalChapters)
	assert.Equal(t, CoversURL+"/m1/c.jpg", got.CoverURL)
	assert.Equal(t, "MangaDex", got.Source)
}

func TestChaptersGroupsReleasesAcrossPages(t *testing.T) {
	srv := fakeAPI(t)
	defer srv.Close()

	md := New(srv.Client(), config.Source{Name: "MangaDex", BaseURL: srv.URL})

	list, err := md.Chapters(context.Background(), "m1")
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, 1, list[0].Number)
	require.Len(t, list[0].Providers, 2)

	best, ok := providers.BestProvider(list[0].Providers, "en")
	require.True(t, ok)
	assert.Equal(t, providers.Provider{ID: "c1-en", Name: "Team", Language: "en"}, best)

	best, _ = providers.BestProvider(list[1].Providers, "en")
	assert.Equal(t, "c2", best.ID)
}

func TestPages(t *testing.T) {
	srv := fakeAPI(t)
	defer srv.Close()

	md := New(srv.Client(), config.Source{BaseURL: srv.URL})
	pages, err := md.Pages(context.Background(), providers.Provider{ID: "c1-en"})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://uploads.test/data/h/1.png", "https://uploads.test/data/h/2.png"}, pages)
}
