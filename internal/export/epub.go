// Package export packs downloaded chapters into EPUB and CBZ files.
package export

import (
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/brogergvhs/noveld/internal/chapters"
	"github.com/brogergvhs/noveld/internal/library"
	"github.com/brogergvhs/noveld/internal/util"

	"github.com/go-shiori/go-epub"
)

var ErrNothingToExport = errors.New("nothing to export")

// Book describes the EPUB being written.
type Book struct {
	Title       string
	Author      string
	Description string
	Language    string
}

// NovelBook reads the metadata of novelDir from the Novels.json next to it.
// The directory name is used as title when no entry matches.
func NovelBook(novelDir string) Book {
	base := filepath.Base(novelDir)
	b := Book{Title: base, Language: "en"}

	for _, e := range library.LoadIndex(filepath.Dir(novelDir)) {
		name, _ := e["name"].(string)
		if name == "" || chapters.SanitizeFilename(name) != base {
			continue
		}
		b.Title = name
		b.Author, _ = e["authorname"].(string)
		b.Description, _ = e["synopsis"].(string)
		break
	}

	return b
}

// NovelEPUB writes every chapter record of novelDir into out and returns the
// written path. An empty out puts "<dir>.epub" next to the novel dir.
func NovelEPUB(novelDir, out string) (string, error) {
	records, err := library.ReadChapters(library.ChaptersDir(novelDir))
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", fmt.Errorf("%w: no chapters in %s", ErrNothingToExport, novelDir)
	}

	book := NovelBook(novelDir)
	e, err := newEpub(book, filepath.Join(novelDir, library.CoverFile))
	if err != nil {
		return "", err
	}

	for _, rec := range records {
		title := rec.Title
		if title == "" {
			title = fmt.Sprintf("Chapter %d", rec.ChapterNumber)
		}
		if _, err := e.AddSection(chapterBody(title, rec.Content), title, "", ""); err != nil {
			return "", fmt.Errorf("failed to add chapter %d: %w", rec.ChapterNumber, err)
		}
	}

	if out == "" {
		out = strings.TrimRight(novelDir, string(os.PathSeparator)) + ".epub"
	}

	return out, write(e, out)
}

// MangaEPUB writes the page images of every Chapter_NNN dir of mangaDir,
// one section per chapter.
func MangaEPUB(mangaDir, out string) (string, error) {
	dirs := chapterDirs(mangaDir)
	if len(dirs) == 0 {
		return "", fmt.Errorf("%w: no chapters in %s", ErrNothingToExport, mangaDir)
	}

	book := Book{Title: filepath.Base(mangaDir), Language: "en"}
	if s, err := library.ReadSeries(mangaDir); err == nil && s.Title != "" {
		book.Title, book.Author, book.Description = s.Title, s.Author, s.Description
	}

	e, err := newEpub(book, filepath.Join(mangaDir, library.CoverFile))
	if err != nil {
		return "", err
	}

	for _, dir := range dirs {
		pages := library.Pages(dir)
		if len(pages) == 0 {
			continue
		}

		title := filepath.Base(dir)
		if m, err := library.ReadMetadata(dir); err == nil {
			title = fmt.Sprintf("Chapter %d", m.ChapterNumber)
			if m.Title != "" {
				title += ": " + m.Title
			}
		}

		var body strings.Builder
		fmt.Fprintf(&body, "<h1>%s</h1>\n", html.EscapeString(title))
		for i, p := range pages {
			internal, err := e.AddImage(p, "")
			if err != nil {
				return "", fmt.Errorf("failed to add image %s: %w", p, err)
			}
			fmt.Fprintf(&body, `<div class="page"><img src="%s" alt="Page %d" style="width:100%%;height:auto;"/></div>`+"\n", internal, i+1)
		}

		if _, err := e.AddSection(body.String(), title, "", ""); err != nil {
			return "", fmt.Errorf("failed to add section: %w", err)
		}
	}

	if out == "" {
		out = strings.TrimRight(mangaDir, string(os.PathSeparator)) + ".epub"
	}

	return out, write(e, out)
}

func newEpub(b Book, cover string) (*epub.Epub, error) {
	e, err := epub.NewEpub(b.Title)
	if err != nil {
		return nil, fmt.Errorf("failed to create EPub: %w", err)
	}

	if b.Author != "" {
		e.SetAuthor(b.Author)
	}
	if b.Description != "" {
		e.SetDescription(b.Description)
	}
	lang := b.Language
	if lang == "" {
		lang = "en"
	}
	e.SetLang(lang)

	if util.Exists(cover) {
		internal, err := e.AddImage(cover, "cover"+filepath.Ext(cover))
		if err != nil {
			return nil, fmt.Errorf("failed to add cover: %w", err)
		}
		body := fmt.Sprintf(`<div class="cover"><img src="%s" alt="Cover" style="width:100%%;height:auto;"/></div>`, internal)
		if _, err := e.AddSection(body, "Cover", "cover.xhtml", ""); err != nil {
			return nil, fmt.Errorf("failed to add cover: %w", err)
		}
	}

	return e, nil
}

func write(e *epub.Epub, out string) error {
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	if err := e.Write(out); err != nil {
		return fmt.Errorf("failed to write EPub: %w", err)
	}

	return nil
}

// chapterBody renders content as one <p> per blank-line separated block.
func chapterBody(title, content string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(title))

	for _, para := range strings.Split(content, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		lines := strings.Split(para, "\n")
		for i := range lines {
			lines[i] = html.EscapeString(lines[i])
		}
		fmt.Fprintf(&b, "<p>%s</p>\n", strings.Join(lines, "<br/>"))
	}

	return b.String()
}

// chapterDirs lists the Chapter_NNN dirs of mangaDir in name order.
func chapterDirs(mangaDir string) []string {
	entries, err := os.ReadDir(mangaDir)
	if err != nil {
		return nil
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), "Chapter_") {
			out = append(out, filepath.Join(mangaDir, e.Name()))
		}
	}
	sort.Strings(out)

	return out
}
