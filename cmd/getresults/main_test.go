// Copyright 2026 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"rescribe.xyz/altotxt"
)

func TestGetResults(t *testing.T) {
	dir := t.TempDir()
	conn := localGetter{&altotxt.LocalConn{TempDir: filepath.Join(dir, "conn"), Logger: zerolog.Nop()}}
	err := conn.MinimalInit()
	if err != nil {
		t.Fatalf("Error initialising: %v", err)
	}

	src := filepath.Join(dir, "src")
	err = os.WriteFile(src, []byte("Hello world.\n"), 0644)
	if err != nil {
		t.Fatalf("Could not write test file: %v", err)
	}
	for _, k := range []string{"books/book.zip", "books/book.txt", "books/book.pdf", "books/other.txt"} {
		err = conn.Upload(conn.WIPStorageId(), k, src)
		if err != nil {
			t.Fatalf("Error uploading %s: %v", k, err)
		}
	}

	var buf bytes.Buffer
	out := filepath.Join(dir, "out")
	files, err := getResults(conn, "books/book.zip", out, zerolog.New(&buf))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	expected := []string{filepath.Join(out, "book.pdf"), filepath.Join(out, "book.txt")}
	if !reflect.DeepEqual(files, expected) {
		t.Fatalf("Expected %v, got %v", expected, files)
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			t.Fatalf("Expected %s to be downloaded: %v", f, err)
		}
	}
	if !strings.Contains(buf.String(), "Downloaded") {
		t.Fatalf("Expected downloads to be logged, got: %s", buf.String())
	}

	_, err = getResults(conn, "books/missing.zip", out, zerolog.Nop())
	if err == nil {
		t.Fatalf("Expected an error for an archive with no results")
	}
}
