// Copyright 2022 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package pipeline

import (
	"fmt"
	"path"
	"strings"
)

const storageScheme = "s3://"

// IsStorageURL reports whether s refers to a storage location, like
// s3://bucket/key, rather than a local path.
func IsStorageURL(s string) bool {
	return strings.HasPrefix(s, storageScheme)
}

// ParseStorageURL splits a storage URL into a bucket and key. The
// key may be empty, for the root of a bucket.
func ParseStorageURL(s string) (string, string, error) {
	if !IsStorageURL(s) {
		return "", "", fmt.Errorf("Not a storage URL: %s", s)
	}
	rest := strings.TrimPrefix(s, storageScheme)
	parts := strings.SplitN(rest, "/", 2)
	if parts[0] == "" {
		return "", "", fmt.Errorf("No bucket in storage URL: %s", s)
	}
	if len(parts) == 1 {
		return parts[0], "", nil
	}
	return parts[0], strings.Trim(parts[1], "/"), nil
}

// StorageURL creates a storage URL from a bucket and key
func StorageURL(bucket string, key string) string {
	return storageScheme + bucket + "/" + strings.TrimPrefix(key, "/")
}

// storageKey joins a prefix and name with '/', whatever the
// local path separator is.
func storageKey(prefix string, name string) string {
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// resultSuffixes are the endings of the files Convert can produce
var resultSuffixes = []string{".txt", ".pdf", ".graph.png"}

// ResultKeys picks out from a storage listing the results which were
// produced for the archive with the given key, which are saved next
// to it.
func ResultKeys(archiveKey string, objs []string) []string {
	dir := path.Dir(archiveKey)
	if dir == "." {
		dir = ""
	}
	prefix := storageKey(dir, ArchiveBase(archiveKey))
	var keys []string
	for _, o := range objs {
		for _, s := range resultSuffixes {
			if o == prefix+s {
				keys = append(keys, o)
				break
			}
		}
	}
	return keys
}
