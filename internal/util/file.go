package util

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
)

// WriteFileAtomic writes data next to path under a unique temp name and
// renames it into place, so readers never observe a half-written file.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	return nil
}

// WriteJSON stores v as indented JSON via WriteFileAtomic.
func WriteJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	return WriteFileAtomic(path, append(b, '\n'))
}

func ReadJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return json.Unmarshal(b, v)
}

func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CreateCBZ zips files into output, ordered by name with flat entry names.
func CreateCBZ(files []string, output string) (err error) {
	if len(files) == 0 {
		return errors.New("cbz: no files")
	}

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("cbz: %w", err)
	}

	tmp := output + "." + uuid.NewString() + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("cbz: %w", err)
	}

	defer func() {
		if err != nil {
			_ = out.Close()
			_ = os.Remove(tmp)
		}
	}()

	z := zip.NewWriter(out)

	sorted := append([]string(nil), files...)
	sort.Strings(sorted)
	for _, file := range sorted {
		if err = addFileToZip(z, file); err != nil {
			return fmt.Errorf("cbz: %w", err)
		}
	}

	if err = z.Close(); err != nil {
		return fmt.Errorf("cbz: %w", err)
	}
	if err = out.Close(); err != nil {
		return fmt.Errorf("cbz: %w", err)
	}

	return os.Rename(tmp, output)
}

func addFileToZip(z *zip.Writer, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}

	header.Name = filepath.Base(file)
	header.Method = zip.Deflate

	w, err := z.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = io.Copy(w, f)
	return err
}
