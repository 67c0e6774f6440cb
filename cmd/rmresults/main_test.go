// Copyright 2026 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"rescribe.xyz/altotxt"
)

func TestRemoveResults(t *testing.T) {
	cases := []struct {
		name    string
		key     string
		all     bool
		removed []string
		left    []string
		err     bool
	}{
		{"results", "books/book.zip", false, []string{"books/book.graph.png", "books/book.txt"}, []string{"books/book.zip", "books/other.txt"}, false},
		{"all", "books/book.zip", true, []string{"books/book.graph.png", "books/book.txt", "books/book.zip"}, []string{"books/other.txt"}, false},
		{"missing", "books/missing.zip", true, nil, []string{"books/book.graph.png", "books/book.txt", "books/book.zip", "books/other.txt"}, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			dir := t.TempDir()
			conn := &altotxt.LocalConn{TempDir: filepath.Join(dir, "conn"), Logger: zerolog.Nop()}
			err := conn.Init()
			if err != nil {
				t.Fatalf("Error initialising: %v", err)
			}
			src := filepath.Join(dir, "src")
			err = os.WriteFile(src, []byte("x"), 0644)
			if err != nil {
				t.Fatalf("Could not write test file: %v", err)
			}
			for _, k := range []string{"books/book.zip", "books/book.txt", "books/book.graph.png", "books/other.txt"} {
				err = conn.Upload(conn.WIPStorageId(), k, src)
				if err != nil {
					t.Fatalf("Error uploading %s: %v", k, err)
				}
			}

			var buf bytes.Buffer
			removed, err := removeResults(conn, c.key, c.all, zerolog.New(&buf))
			if err == nil && c.err {
				t.Fatalf("Expected an error, got none")
			}
			if err != nil && !c.err {
				t.Fatalf("Expected no error, got error '%v'", err)
			}
			sort.Strings(removed)
			if !reflect.DeepEqual(removed, c.removed) {
				t.Fatalf("Expected %v removed, got %v", c.removed, removed)
			}
			left, err := conn.ListObjects(conn.WIPStorageId(), "")
			if err != nil {
				t.Fatalf("Error listing objects: %v", err)
			}
			sort.Strings(left)
			if !reflect.DeepEqual(left, c.left) {
				t.Fatalf("Expected %v left, got %v", c.left, left)
			}
			if !c.err && !strings.Contains(buf.String(), "Finished deleting files") {
				t.Fatalf("Expected deletion to be logged, got: %s", buf.String())
			}
		})
	}
}
