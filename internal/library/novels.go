// Package library owns the on-disk layout read by the reader application:
// Novels.json, per-chapter records and manga chapter directories.
package library

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/brogergvhs/noveld/internal/chapters"
	"github.com/brogergvhs/noveld/internal/util"
)

const (
	IndexFile = "Novels.json"
	CoverFile = "cover.jpg"
)

// NovelEntry is the part of a Novels.json entry written by downloads.
type NovelEntry struct {
	Name               string
	AuthorName         string
	CoverPath          string
	Synopsis           string
	TotalChapters      int
	DownloadedChapters int
}

func NovelDir(output, title string) string {
	return filepath.Join(output, chapters.SanitizeFilename(title))
}

func ChaptersDir(novelDir string) string {
	return filepath.Join(novelDir, "chapters")
}

// readIndex returns the top-level keys of output/Novels.json and the raw
// elements of its "novels" list. A missing or malformed file, or a
// "novels" value that is not a list, yields an empty index.
func readIndex(output string) (map[string]json.RawMessage, []json.RawMessage) {
	var doc map[string]json.RawMessage
	if err := util.ReadJSON(filepath.Join(output, IndexFile), &doc); err != nil || doc == nil {
		return map[string]json.RawMessage{}, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(doc["novels"], &raw); err != nil {
		return doc, nil
	}

	return doc, raw
}

// object decodes a list element that is a JSON object; ok is false for any
// other value.
func object(raw json.RawMessage) (map[string]any, bool) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		return nil, false
	}

	return m, true
}

// LoadIndex returns the object entries of output/Novels.json. Entries that
// are not objects are left out.
func LoadIndex(output string) []map[string]any {
	_, raw := readIndex(output)

	var entries []map[string]any
	for _, r := range raw {
		if m, ok := object(r); ok {
			entries = append(entries, m)
		}
	}

	return entries
}

// UpsertNovel updates the first object entry with the same name or appends
// a new one. Reading progress and unknown keys of an existing entry are
// kept; every other element of the list and of the document is written
// back unchanged.
func UpsertNovel(output string, e NovelEntry) error {
	if err := os.MkdirAll(output, 0o755); err != nil {
		return err
	}

	doc, raw := readIndex(output)

	entries := make([]any, 0, len(raw)+1)
	var target map[string]any
	for _, r := range raw {
		if m, ok := object(r); ok && target == nil && m["name"] == e.Name {
			target = m
			entries = append(entries, m)
			continue
		}
		entries = append(entries, r)
	}
	if target == nil {
		target = map[string]any{}
		entries = append(entries, target)
	}

	target["name"] = e.Name
	target["authorname"] = e.AuthorName
	target["coverpath"] = e.CoverPath
	target["synopsis"] = e.Synopsis
	target["totalchapters"] = e.TotalChapters
	target["downloadedchapters"] = e.DownloadedChapters
	if _, ok := target["progress"]; !ok {
		target["progress"] = map[string]any{
			"readchapters":       0,
			"progresspercentage": 0.0,
		}
	}

	list, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode %s: %w", IndexFile, err)
	}
	doc["novels"] = list

	if err := util.WriteJSON(filepath.Join(output, IndexFile), doc); err != nil {
		return fmt.Errorf("failed to write %s: %w", IndexFile, err)
	}

	return nil
}
