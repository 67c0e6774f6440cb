// Copyright 2021 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package pipeline

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// ArchiveError is returned for any problem with the archive itself,
// which stops a run before any text is written.
type ArchiveError struct {
	Path string
	Err  error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("Error with archive %s: %v", e.Path, e.Err)
}

func (e *ArchiveError) Unwrap() error {
	return e.Err
}

// isPage reports whether an archive member is a page to extract
func isPage(name string) bool {
	return strings.HasSuffix(name, ".xml") || strings.HasSuffix(name, ".hocr")
}

// ExtractArchive extracts all of the ALTO (.xml) and hOCR (.hocr)
// files from a zip archive into dir, keeping any folder structure
// inside the archive. The paths of the extracted files are returned
// in the order they appear in the archive.
func ExtractArchive(ctx context.Context, zipPath string, dir string, logger zerolog.Logger) ([]string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, &ArchiveError{zipPath, err}
	}
	defer r.Close()

	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return nil, fmt.Errorf("Failed to create directory %s: %w", dir, err)
	}

	var paths []string
	for _, f := range r.File {
		select {
		case <-ctx.Done():
			return paths, ctx.Err()
		default:
		}
		if f.FileInfo().IsDir() || !isPage(f.Name) {
			continue
		}
		dest := filepath.Join(dir, filepath.FromSlash(f.Name))
		rel, err := filepath.Rel(dir, dest)
		if err != nil || rel == "." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || rel == ".." {
			return paths, &ArchiveError{zipPath, fmt.Errorf("illegal file path %s", f.Name)}
		}
		logger.Debug().Str("file", f.Name).Msg("Extracting")
		err = extractFile(f, dest)
		if err != nil {
			return paths, &ArchiveError{zipPath, fmt.Errorf("Error extracting %s: %w", f.Name, err)}
		}
		paths = append(paths, dest)
	}

	return paths, nil
}

func extractFile(f *zip.File, dest string) error {
	err := os.MkdirAll(filepath.Dir(dest), 0755)
	if err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, rc)
	if err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return err
	}
	return out.Close()
}

// uploadResults uploads each file to the storage prefix given by
// dest, e.g. s3://bucket/texts, keeping its base name.
func uploadResults(conn Uploader, dest string, files []string) error {
	bucket, prefix, err := ParseStorageURL(dest)
	if err != nil {
		return err
	}
	for _, fn := range files {
		key := storageKey(prefix, filepath.Base(fn))
		conn.Log("Uploading", key)
		err = conn.Upload(bucket, key, fn)
		if err != nil {
			return fmt.Errorf("Failed to upload %s: %w", fn, err)
		}
	}
	return nil
}
