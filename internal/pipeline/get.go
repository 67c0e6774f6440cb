// Copyright 2019 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
)

// ErrNotRegularFile is returned if the archive given is a directory
// or some other special file.
var ErrNotRegularFile = errors.New("not a regular file")

// GetArchive makes sure the archive is available locally, returning
// its local path. Storage URLs are downloaded into dir; local paths
// are checked to exist and to be a regular file.
func GetArchive(archive string, dir string, conn Downloader) (string, error) {
	if !IsStorageURL(archive) {
		info, err := os.Stat(archive)
		if err != nil {
			return "", &ArchiveError{archive, err}
		}
		if !info.Mode().IsRegular() {
			return "", &ArchiveError{archive, ErrNotRegularFile}
		}
		return archive, nil
	}

	if conn == nil {
		return "", &ArchiveError{archive, errors.New("no storage connection set up")}
	}
	bucket, key, err := ParseStorageURL(archive)
	if err != nil {
		return "", &ArchiveError{archive, err}
	}
	if key == "" {
		return "", &ArchiveError{archive, errors.New("no key in storage URL")}
	}
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return "", fmt.Errorf("Failed to create directory %s: %w", dir, err)
	}
	fn := filepath.Join(dir, path.Base(key))
	conn.Log("Downloading", archive)
	err = conn.Download(bucket, key, fn)
	if err != nil {
		_ = os.Remove(fn)
		return "", &ArchiveError{archive, fmt.Errorf("Failed to download: %w", err)}
	}
	return fn, nil
}

// ArchiveBase returns the name of an archive without any folder or
// extension, which is used to name the output files.
func ArchiveBase(archive string) string {
	base := path.Base(filepath.ToSlash(archive))
	return base[:len(base)-len(path.Ext(base))]
}
