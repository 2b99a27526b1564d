package export

import (
	"archive/zip"
	"bytes"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brogergvhs/noveld/internal/library"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string) {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func zipText(t *testing.T, path string) (names []string, text string) {
	t.Helper()

	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	var sb strings.Builder
	for _, f := range r.File {
		names = append(names, f.Name)
		if !strings.HasSuffix(f.Name, ".xhtml") {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		_ = rc.Close()
		sb.Write(b)
	}

	return names, sb.String()
}

func setupNovel(t *testing.T) string {
	t.Helper()

	out := t.TempDir()
	require.NoError(t, library.UpsertNovel(out, library.NovelEntry{
		Name:       "Lord of: Mysteries",
		AuthorName: "Cuttlefish",
		Synopsis:   "Steam and mysticism.",
	}))

	dir := library.NovelDir(out, "Lord of: Mysteries")
	chDir := library.ChaptersDir(dir)
	require.NoError(t, library.WriteChapter(chDir, library.ChapterRecord{ChapterNumber: 2, Title: "Chapter 2: Dusk", Content: "Second."}))
	require.NoError(t, library.WriteChapter(chDir, library.ChapterRecord{ChapterNumber: 1, Title: "Chapter 1: Dawn", Content: "Klein <b>woke</b>.\n\nThen slept."}))
	writePNG(t, filepath.Join(dir, library.CoverFile))

	return dir
}

func TestNovelBookReadsIndex(t *testing.T) {
	dir := setupNovel(t)

	b := NovelBook(dir)
	assert.Equal(t, "Lord of: Mysteries", b.Title)
	assert.Equal(t, "Cuttlefish", b.Author)
	assert.Equal(t, "Steam and mysticism.", b.Description)

	assert.Equal(t, "Unknown", NovelBook(filepath.Join(t.TempDir(), "Unknown")).Title)
}

func TestNovelEPUB(t *testing.T) {
	dir := setupNovel(t)
	out := filepath.Join(t.TempDir(), "book.epub")

	got, err := NovelEPUB(dir, out)
	require.NoError(t, err)
	assert.Equal(t, out, got)

	names, text := zipText(t, out)
	assert.Equal(t, "mimetype", names[0])
	assert.Contains(t, text, "Chapter 1: Dawn")
	assert.Contains(t, text, "Klein &lt;b&gt;woke&lt;/b&gt;.")
	assert.Contains(t, text, "<p>Then slept.</p>")
	assert.Less(t, strings.Index(text, "Chapter 1: Dawn"), strings.Index(text, "Chapter 2: Dusk"))

	var hasCover bool
	for _, n := range names {
		if strings.Contains(n, "cover") && strings.HasSuffix(n, ".jpg") {
			hasCover = true
		}
	}
	assert.True(t, hasCover, "cover image missing from %v", names)
}

func TestNovelEPUBDefaultPath(t *testing.T) {
	dir := setupNovel(t)

	got, err := NovelEPUB(dir, "")
	require.NoError(t, err)
	assert.Equal(t, dir+".epub", got)
	assert.FileExists(t, got)
}

func TestNovelEPUBWithoutChapters(t *testing.T) {
	_, err := NovelEPUB(t.TempDir(), "")
	require.ErrorIs(t, err, ErrNothingToExport)
}

func TestChapterBody(t *testing.T) {
	got := chapterBody("A & B", "one\ntwo\n\n\n\nthree")
	assert.Equal(t, "<h1>A &amp; B</h1>\n<p>one<br/>two</p>\n<p>three</p>\n", got)
}

func setupManga(t *testing.T) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "Blue Box")
	require.NoError(t, library.WriteSeries(dir, library.Series{Title: "Blue Box", Author: "Kouji Miura"}))

	for _, n := range []int{1, 2} {
		ch := library.MangaChapterDir(dir, n)
		writePNG(t, filepath.Join(ch, "page_002.png"))
		writePNG(t, filepath.Join(ch, "page_001.png"))
		require.NoError(t, library.WriteMetadata(ch, library.MangaMetadata{ChapterNumber: n, PageCount: 2}))
	}

	// incomplete: metadata claims three pages
	ch := library.MangaChapterDir(dir, 3)
	writePNG(t, filepath.Join(ch, "page_001.png"))
	require.NoError(t, library.WriteMetadata(ch, library.MangaMetadata{ChapterNumber: 3, PageCount: 3}))

	return dir
}

func TestChapterCBZ(t *testing.T) {
	dir := library.MangaChapterDir(setupManga(t), 1)

	out, err := ChapterCBZ(dir, "")
	require.NoError(t, err)
	assert.Equal(t, dir+".cbz", out)

	names, _ := zipText(t, out)
	assert.Equal(t, []string{"page_001.png", "page_002.png"}, names)
}

func TestChapterCBZEmptyDir(t *testing.T) {
	_, err := ChapterCBZ(t.TempDir(), "")
	require.ErrorIs(t, err, ErrNothingToExport)
}

func TestMangaCBZSkipsIncompleteChapters(t *testing.T) {
	dir := setupManga(t)
	outDir := t.TempDir()

	written, err := MangaCBZ(dir, outDir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(outDir, "Chapter_001.cbz"),
		filepath.Join(outDir, "Chapter_002.cbz"),
	}, written)
}

func TestMangaEPUB(t *testing.T) {
	dir := setupManga(t)

	out, err := MangaEPUB(dir, "")
	require.NoError(t, err)

	names, text := zipText(t, out)
	assert.Contains(t, text, "Chapter 1")
	assert.Contains(t, text, "Chapter 3")

	images := 0
	for _, n := range names {
		if strings.HasSuffix(n, ".png") {
			images++
		}
	}
	assert.Equal(t, 5, images)
}
