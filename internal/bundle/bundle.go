// Package bundle packs a model directory into a zip archive for upload.
// Archives are reproducible: the same tree always yields the same bytes.
package bundle

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
)

// Epoch is the modification time stored for every entry.
var Epoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Files lists the regular files under dir as sorted slash-separated paths.
// Hidden files and directories are skipped.
func Files(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Write zips every file of dir into w and returns the entry names.
func Write(w io.Writer, dir string) ([]string, error) {
	files, err := Files(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("bundle: %s is empty", dir)
	}

	zw := zip.NewWriter(w)
	for _, name := range files {
		if err := addFile(zw, dir, name); err != nil {
			zw.Close()
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return files, nil
}

// Bytes is Write into memory.
func Bytes(dir string) ([]byte, []string, error) {
	var buf bytes.Buffer
	files, err := Write(&buf, dir)
	if err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), files, nil
}

func addFile(zw *zip.Writer, dir, name string) error {
	f, err := os.Open(filepath.Join(dir, filepath.FromSlash(name)))
	if err != nil {
		return err
	}
	defer f.Close()

	hdr := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: Epoch,
	}
	hdr.SetMode(0o644)
	entry, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("adding %s: %w", name, err)
	}
	if _, err := io.Copy(entry, f); err != nil {
		return fmt.Errorf("adding %s: %w", name, err)
	}
	return nil
}
