package library

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/noveld/internal/util"
)

func TestUpsertNovelAppendsThenReplaces(t *testing.T) {
	out := t.TempDir()

	require.NoError(t, UpsertNovel(out, NovelEntry{Name: "A", TotalChapters: 10}))
	require.NoError(t, UpsertNovel(out, NovelEntry{Name: "B", TotalChapters: 5}))
	require.NoError(t, UpsertNovel(out, NovelEntry{Name: "A", AuthorName: "X", TotalChapters: 12, DownloadedChapters: 3}))

	entries := LoadIndex(out)
	require.Len(t, entries, 2)
	assert.Equal(t, "A", entries[0]["name"])
	assert.Equal(t, "X", entries[0]["authorname"])
	assert.EqualValues(t, 12, entries[0]["totalchapters"])
	assert.EqualValues(t, 3, entries[0]["downloadedchapters"])
	assert.Equal(t, "B", entries[1]["name"])
}

func TestUpsertNovelKeepsProgressAndUnknownKeys(t *testing.T) {
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(out, IndexFile), []byte(`{"novels":[
		{"name":"A","favorite":true,"progress":{"readchapters":7,"progresspercentage":70.0}}
	]}`), 0o644))

	require.NoError(t, UpsertNovel(out, NovelEntry{Name: "A", TotalChapters: 10}))

	entries := LoadIndex(out)
	require.Len(t, entries, 1)
	assert.Equal(t, true, entries[0]["favorite"])
	progress := entries[0]["progress"].(map[string]any)
	assert.EqualValues(t, 7, progress["readchapters"])
}

func TestUpsertNovelRecoversFromMalformedIndex(t *testing.T) {
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(out, IndexFile), []byte(`not json`), 0o644))

	require.NoError(t, UpsertNovel(out, NovelEntry{Name: "A"}))
	assert.Len(t, LoadIndex(out), 1)
}

func TestUpsertNovelKeepsEntriesThatAreNotObjects(t *testing.T) {
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(out, IndexFile), []byte(`{"version":2,"novels":[
		{"name":"Keep Me","progress":{"readchapters":4,"progresspercentage":40.0}},
		"stray",
		null
	]}`), 0o644))

	require.NoError(t, UpsertNovel(out, NovelEntry{Name: "New", TotalChapters: 3}))

	var doc struct {
		Version int               `json:"version"`
		Novels  []json.RawMessage `json:"novels"`
	}
	require.NoError(t, util.ReadJSON(filepath.Join(out, IndexFile), &doc))
	assert.Equal(t, 2, doc.Version)
	require.Len(t, doc.Novels, 4)
	assert.JSONEq(t, `"stray"`, string(doc.Novels[1]))
	assert.JSONEq(t, `null`, string(doc.Novels[2]))

	entries := LoadIndex(out)
	require.Len(t, entries, 2)
	assert.Equal(t, "Keep Me", entries[0]["name"])
	progress := entries[0]["progress"].(map[string]any)
	assert.EqualValues(t, 4, progress["readchapters"])
	assert.Equal(t, "New", entries[1]["name"])
}

func TestChapterRecordsAreWriteOnce(t *testing.T) {
	dir := ChaptersDir(NovelDir(t.TempDir(), "Re:Zero"))
	assert.Equal(t, "Re_Zero", filepath.Base(filepath.Dir(dir)))

	require.NoError(t, WriteChapter(dir, ChapterRecord{ChapterNumber: 2, Title: "Chapter 2", Content: "two"}))
	require.NoError(t, WriteChapter(dir, ChapterRecord{ChapterNumber: 10, Title: "Chapter 10", Content: "ten"}))

	err := WriteChapter(dir, ChapterRecord{ChapterNumber: 2, Content: "changed"})
	assert.ErrorIs(t, err, ErrExists)

	assert.True(t, HasChapter(dir, 2))
	assert.False(t, HasChapter(dir, 3))
	assert.Equal(t, []int{2, 10}, ChapterNumbers(dir))

	recs, err := ReadChapters(dir)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "two", recs[0].Content)
}

func TestChapterComplete(t *testing.T) {
	dir := MangaChapterDir(t.TempDir(), 3)
	assert.Equal(t, "Chapter_003", filepath.Base(dir))
	assert.False(t, ChapterComplete(dir))

	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, n := range []string{"page_001.jpg", "page_002.webp"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644))
	}
	require.NoError(t, WriteMetadata(dir, MangaMetadata{ChapterNumber: 3, PageCount: 3}))
	assert.False(t, ChapterComplete(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "page_003.png"), []byte("x"), 0o644))
	assert.True(t, ChapterComplete(dir))
	assert.Len(t, Pages(dir), 3)

	m, err := ReadMetadata(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, m.DownloadDate)
}

func TestSeriesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteSeries(dir, Series{ID: "m1", Title: "Naruto"}))

	s, err := ReadSeries(dir)
	require.NoError(t, err)
	assert.Equal(t, "Naruto", s.Title)
	assert.True(t, util.Exists(filepath.Join(dir, SeriesFile)))
}
