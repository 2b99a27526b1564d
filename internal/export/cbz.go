package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/brogergvhs/noveld/internal/library"
	"github.com/brogergvhs/noveld/internal/util"
)

// ChapterCBZ zips the page images of chapterDir. An empty out writes
// "<dir>.cbz" next to it.
func ChapterCBZ(chapterDir, out string) (string, error) {
	pages := library.Pages(chapterDir)
	if len(pages) == 0 {
		return "", fmt.Errorf("%w: no pages in %s", ErrNothingToExport, chapterDir)
	}

	if out == "" {
		out = strings.TrimRight(chapterDir, string(os.PathSeparator)) + ".cbz"
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", err
	}

	if err := util.CreateCBZ(pages, out); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", out, err)
	}

	return out, nil
}

// MangaCBZ writes one archive per complete chapter of mangaDir into outDir
// (mangaDir itself when empty) and returns the written paths.
func MangaCBZ(mangaDir, outDir string) ([]string, error) {
	if outDir == "" {
		outDir = mangaDir
	}

	var written []string
	for _, dir := range chapterDirs(mangaDir) {
		if !library.ChapterComplete(dir) {
			continue
		}

		out, err := ChapterCBZ(dir, filepath.Join(outDir, filepath.Base(dir)+".cbz"))
		if err != nil {
			return written, err
		}
		written = append(written, out)
	}

	if len(written) == 0 {
		return nil, fmt.Errorf("%w: no complete chapters in %s", ErrNothingToExport, mangaDir)
	}

	return written, nil
}
