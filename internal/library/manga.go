package library

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/brogergvhs/noveld/internal/chapters"
	"github.com/brogergvhs/noveld/internal/util"
)

const (
	MetadataFile = "metadata.json"
	SeriesFile   = "series.json"
)

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true,
}

type MangaMetadata struct {
	ChapterNumber int    `json:"chapter_number"`
	Title         string `json:"title"`
	PageCount     int    `json:"page_count"`
	Provider      string `json:"provider"`
	Language      string `json:"language"`
	DownloadDate  string `json:"download_date"`
}

// Series is written once per manga directory.
type Series struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description"`
	CoverURL    string `json:"cover_url"`
	Source      string `json:"source"`
	URL         string `json:"url"`
}

func MangaDir(output, title string) string {
	return filepath.Join(output, chapters.SanitizeFilename(title))
}

func MangaChapterDir(mangaDir string, n int) string {
	return filepath.Join(mangaDir, chapters.MangaDir(n))
}

func WriteSeries(mangaDir string, s Series) error {
	return util.WriteJSON(filepath.Join(mangaDir, SeriesFile), s)
}

func ReadSeries(mangaDir string) (Series, error) {
	var s Series
	err := util.ReadJSON(filepath.Join(mangaDir, SeriesFile), &s)
	return s, err
}

func WriteMetadata(chapterDir string, m MangaMetadata) error {
	if m.DownloadDate == "" {
		m.DownloadDate = time.Now().Format(time.RFC3339)
	}

	return util.WriteJSON(filepath.Join(chapterDir, MetadataFile), m)
}

func ReadMetadata(chapterDir string) (MangaMetadata, error) {
	var m MangaMetadata
	err := util.ReadJSON(filepath.Join(chapterDir, MetadataFile), &m)
	return m, err
}

// Pages lists the image files of a chapter dir sorted by name.
func Pages(chapterDir string) []string {
	entries, err := os.ReadDir(chapterDir)
	if err != nil {
		return nil
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			out = append(out, filepath.Join(chapterDir, e.Name()))
		}
	}
	sort.Strings(out)

	return out
}

// ChapterComplete reports whether metadata exists and its page count
// matches the image files on disk.
func ChapterComplete(chapterDir string) bool {
	m, err := ReadMetadata(chapterDir)
	if err != nil || m.PageCount <= 0 {
		return false
	}

	return len(Pages(chapterDir)) == m.PageCount
}
