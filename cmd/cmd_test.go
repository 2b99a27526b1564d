package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/brogergvhs/noveld/internal/downloader"
	"github.com/brogergvhs/noveld/internal/providers"
	"github.com/brogergvhs/noveld/internal/state"

	"github.com/spf13/cobra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestStateCommands(t *testing.T) {
	dir := t.TempDir()
	store := state.NewStore(dir)
	require.NoError(t, store.Write(&state.State{ID: "novel_a_1", Status: state.Downloading}))

	out, err := run(t, "--ignore-config", "--downloads-dir", dir, "state", "pause", "novel_a_1")
	require.NoError(t, err)

	var act stateAction
	require.NoError(t, json.Unmarshal([]byte(out), &act))
	assert.Equal(t, stateAction{ID: "novel_a_1", Action: "pause", OK: true}, act)
	assert.Equal(t, state.Pause, store.Signal("novel_a_1"))

	out, err = run(t, "--ignore-config", "--downloads-dir", dir, "state", "list")
	require.NoError(t, err)

	var list []state.State
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "novel_a_1", list[0].ID)

	_, err = run(t, "--ignore-config", "--downloads-dir", dir, "state", "get", "missing")
	require.ErrorIs(t, err, state.ErrNotFound)
}

func TestSourcesCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"sources": [
		{"name": "NovelFire", "base_url": "https://novelfire.net/", "content_types": ["novel"]}
	]}`), 0o644))

	out, err := run(t, "--ignore-config", "--config", path, "sources")
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "novelfire", got[0]["strategy"])
	assert.Equal(t, "https://novelfire.net", got[0]["base_url"])
}

func TestSearchWithoutQueryPrintsEmptyList(t *testing.T) {
	out, err := run(t, "--ignore-config", "search")
	require.Error(t, err)

	var reported *reportedError
	assert.True(t, errors.As(err, &reported))
	assert.JSONEq(t, "[]", out)
}

func TestBookFlagsRequireSourceAndBook(t *testing.T) {
	_, _, _, err := (&bookFlags{url: "https://x"}).resolve(&app{})
	require.ErrorIs(t, err, errNoBook)

	_, _, _, err = (&bookFlags{source: "NovelFire"}).resolve(&app{})
	require.ErrorIs(t, err, errNoBook)
}

func TestWriteJSONIsOneDocument(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, errorDoc{Error: "unknown source: X"}))

	assert.Equal(t, "{\n  \"error\": \"unknown source: X\"\n}\n", buf.String())
}

type novelSite struct {
	url      string
	sources  string
	fetches  atomic.Int32
	onInfo   func()
	infoHits atomic.Int32
}

// newNovelSite serves one book with a single chapter and writes a sources
// file naming it "Local" (generic) and "NovelFire".
func newNovelSite(t *testing.T) *novelSite {
	t.Helper()

	site := &novelSite{}
	mux := http.NewServeMux()
	mux.HandleFunc("/book/demo", func(w http.ResponseWriter, r *http.Request) {
		site.infoHits.Add(1)
		if site.onInfo != nil {
			site.onInfo()
		}
		_, _ = fmt.Fprint(w, `<html><body><h1>Demo Novel</h1><div class="author">Ana</div></body></html>`)
	})
	mux.HandleFunc("/book/demo/chapter-1", func(w http.ResponseWriter, r *http.Request) {
		site.fetches.Add(1)
		var body strings.Builder
		for i := 1; i <= 3; i++ {
			fmt.Fprintf(&body, "<p>Paragraph %d: the night was long and quiet over the city.</p>", i)
		}
		_, _ = fmt.Fprint(w, `<h1>Chapter 1 Dawn</h1><div class="content">`+body.String()+`</div>`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	site.url = srv.URL

	site.sources = filepath.Join(t.TempDir(), "sources.json")
	require.NoError(t, os.WriteFile(site.sources, []byte(fmt.Sprintf(`{"sources": [
		{"name": "Local", "base_url": %q, "content_types": ["novel"]},
		{"name": "NovelFire", "base_url": %q, "content_types": ["novel"]}
	]}`, srv.URL, srv.URL)), 0o644))

	return site
}

func (s *novelSite) download(t *testing.T, downloads, id string) (downloader.Result, error) {
	t.Helper()

	out, err := run(t, "--ignore-config", "--config", s.sources, "--downloads-dir", downloads,
		"download", "--source", "Local", "--url", s.url+"/book/demo",
		"--output", t.TempDir(), "--start", "1", "--end", "1", "--download-id", id)

	var res downloader.Result
	if out != "" {
		require.NoError(t, json.Unmarshal([]byte(out), &res))
	}

	return res, err
}

func TestDownloadKeepsCancelRequestedDuringStartup(t *testing.T) {
	site := newNovelSite(t)
	downloads := t.TempDir()
	store := state.NewStore(downloads)
	site.onInfo = func() { require.NoError(t, store.RequestCancel("dl1")) }

	res, err := site.download(t, downloads, "dl1")
	require.NoError(t, err)

	assert.Equal(t, state.Stopped, res.Status)
	assert.Zero(t, site.fetches.Load())

	st, err := store.Read("dl1")
	require.NoError(t, err)
	assert.Equal(t, state.Stopped, st.Status)
	assert.Equal(t, 0, st.CurrentChapter)
	assert.Equal(t, state.Cancel, store.Signal("dl1"))
}

func TestDownloadDropsStaleStopBeforeStarting(t *testing.T) {
	site := newNovelSite(t)
	downloads := t.TempDir()
	store := state.NewStore(downloads)
	require.NoError(t, store.RequestStop("dl2"))

	res, err := site.download(t, downloads, "dl2")
	require.NoError(t, err)

	assert.Equal(t, state.Complete, res.Status)
	assert.Equal(t, 1, res.Downloaded)
	assert.Equal(t, int32(1), site.fetches.Load())
	assert.Equal(t, state.None, store.Signal("dl2"))
}

func TestDownloadRejectsIDOutsideDownloadsDir(t *testing.T) {
	site := newNovelSite(t)
	downloads := filepath.Join(t.TempDir(), "downloads")

	_, err := site.download(t, downloads, "../escape")
	require.ErrorIs(t, err, state.ErrInvalidID)
	assert.Zero(t, site.infoHits.Load())
	assert.NoFileExists(t, filepath.Join(filepath.Dir(downloads), "state_escape.json"))

	_, err = run(t, "--ignore-config", "--downloads-dir", downloads, "state", "pause", "../escape")
	require.ErrorIs(t, err, state.ErrInvalidID)
	assert.NoFileExists(t, filepath.Join(filepath.Dir(downloads), ".pause_escape"))
}

func TestInfoUsesChapterFallbackOfSource(t *testing.T) {
	site := newNovelSite(t)

	totals := map[string]int{}
	for _, source := range []string{"Local", "NovelFire"} {
		out, err := run(t, "--ignore-config", "--config", site.sources,
			"info", "--source", source, "--url", site.url+"/book/demo")
		require.NoError(t, err)

		var info providers.ContentInfo
		require.NoError(t, json.Unmarshal([]byte(out), &info))
		assert.Equal(t, "Demo Novel", info.Title)
		totals[source] = info.TotalChapters
	}

	assert.Equal(t, map[string]int{"Local": 1000, "NovelFire": 3000}, totals)
}

func TestPanicBecomesErrorDocument(t *testing.T) {
	c := &cobra.Command{
		Use:           "boom",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          func(*cobra.Command, []string) error { panic("nil page") },
	}
	c.SetArgs([]string{})

	err := executeGuarded(context.Background(), c)
	require.Error(t, err)

	var buf bytes.Buffer
	assert.Equal(t, 1, report(&buf, err))

	var doc errorDoc
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "unexpected error: nil page", doc.Error)

	buf.Reset()
	assert.Equal(t, 1, report(&buf, &reportedError{err: errors.New("failed")}))
	assert.Empty(t, buf.String())
	assert.Equal(t, 0, report(&buf, nil))
}
