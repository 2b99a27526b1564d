package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/brogergvhs/noveld/internal/chapters"
	"github.com/brogergvhs/noveld/internal/util"
)

// ErrExists is returned when a chapter record is already on disk.
var ErrExists = errors.New("chapter already downloaded")

type ChapterRecord struct {
	ChapterNumber int    `json:"chapterNumber"`
	Title         string `json:"title"`
	Content       string `json:"content"`
}

var reChapterFile = regexp.MustCompile(`^chapter(\d+)\.json$`)

func ChapterPath(chaptersDir string, n int) string {
	return filepath.Join(chaptersDir, chapters.NovelFile(n))
}

func HasChapter(chaptersDir string, n int) bool {
	return util.Exists(ChapterPath(chaptersDir, n))
}

// WriteChapter stores rec unless a record for the same number exists.
func WriteChapter(chaptersDir string, rec ChapterRecord) error {
	path := ChapterPath(chaptersDir, rec.ChapterNumber)
	if util.Exists(path) {
		return fmt.Errorf("%w: %s", ErrExists, path)
	}

	return util.WriteJSON(path, rec)
}

// ChapterNumbers lists the downloaded chapter numbers in ascending order.
func ChapterNumbers(chaptersDir string) []int {
	entries, err := os.ReadDir(chaptersDir)
	if err != nil {
		return nil
	}

	var out []int
	for _, e := range entries {
		m := reChapterFile.FindStringSubmatch(e.Name())
		if e.IsDir() || m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil {
			out = append(out, n)
		}
	}
	sort.Ints(out)

	return out
}

// ReadChapters loads every record of a chapters dir in chapter order.
func ReadChapters(chaptersDir string) ([]ChapterRecord, error) {
	nums := ChapterNumbers(chaptersDir)
	out := make([]ChapterRecord, 0, len(nums))

	for _, n := range nums {
		var rec ChapterRecord
		if err := util.ReadJSON(ChapterPath(chaptersDir, n), &rec); err != nil {
			return nil, fmt.Errorf("failed to read chapter %d: %w", n, err)
		}
		out = append(out, rec)
	}

	return out, nil
}
