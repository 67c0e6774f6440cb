// Copyright 2026 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package main

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"rescribe.xyz/altotxt"
)

func TestParseFlags(t *testing.T) {
	cases := []struct {
		name    string
		args    []string
		archive string
		outdir  string
		gui     bool
		err     bool
	}{
		{"archive", []string{"book.zip"}, "book.zip", ".", false, false},
		{"outdir", []string{"-output-folder", "texts", "book.zip"}, "book.zip", "texts", false, false},
		{"storage", []string{"-v", "s3://bucket/book.zip"}, "s3://bucket/book.zip", ".", false, false},
		{"guionly", []string{"-gui"}, "", ".", true, false},
		{"guiarchive", []string{"-gui", "book.zip"}, "book.zip", ".", true, false},
		{"none", []string{}, "", "", false, true},
		{"toomany", []string{"a.zip", "b.zip"}, "", "", false, true},
		{"badflag", []string{"-nonsense", "book.zip"}, "", "", false, true},
		{"badworkers", []string{"-workers", "lots", "book.zip"}, "", "", false, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f, err := parseFlags(c.args, io.Discard)
			if err == nil && c.err {
				t.Fatalf("Expected an error, got none")
			}
			if err != nil && !c.err {
				t.Fatalf("Expected no error, got error '%v'", err)
			}
			if c.err {
				return
			}
			if f.archive != c.archive || f.outdir != c.outdir || f.gui != c.gui {
				t.Fatalf("Expected %s %s %v, got %s %s %v", c.archive, c.outdir, c.gui, f.archive, f.outdir, f.gui)
			}
		})
	}
}

func TestApplyFlags(t *testing.T) {
	base := altotxt.Config{Workers: 4, PDF: true, Storage: "local", Upload: "s3://bucket/texts"}

	cases := []struct {
		name     string
		args     []string
		expected altotxt.Config
	}{
		{"unset", []string{"book.zip"}, base},
		{"workers", []string{"-workers", "2", "book.zip"},
			altotxt.Config{Workers: 2, PDF: true, Storage: "local", Upload: "s3://bucket/texts"}},
		{"zeroworkers", []string{"-workers", "0", "book.zip"}, base},
		{"nopdf", []string{"-pdf=false", "-graph", "-keep", "book.zip"},
			altotxt.Config{Workers: 4, Graph: true, Keep: true, Storage: "local", Upload: "s3://bucket/texts"}},
		{"upload", []string{"-upload", "s3://other/out", "book.zip"},
			altotxt.Config{Workers: 4, PDF: true, Storage: "local", Upload: "s3://other/out"}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f, err := parseFlags(c.args, io.Discard)
			if err != nil {
				t.Fatalf("Unexpected error parsing flags: %v", err)
			}
			got := f.apply(base)
			if !reflect.DeepEqual(got, c.expected) {
				t.Fatalf("Expected %+v, got %+v", c.expected, got)
			}
		})
	}
}

func writeBook(t *testing.T, fn string) {
	t.Helper()
	pages := []string{
		`<String CONTENT="Hel¬"/>`,
		`<String CONTENT="lo"/><String CONTENT="world."/><String CONTENT="tail"/>`,
	}
	f, err := os.Create(fn)
	if err != nil {
		t.Fatalf("Could not create zip file %s: %v", fn, err)
	}
	defer f.Close()
	w := zip.NewWriter(f)
	for i, p := range pages {
		fw, err := w.Create("book/page_000" + string(rune('1'+i)) + ".xml")
		if err != nil {
			t.Fatalf("Could not add page to zip: %v", err)
		}
		_, err = fw.Write([]byte(`<alto xmlns="http://www.loc.gov/standards/alto/ns-v4#"><Layout>` + p + `</Layout></alto>`))
		if err != nil {
			t.Fatalf("Could not write page to zip: %v", err)
		}
	}
	err = w.Close()
	if err != nil {
		t.Fatalf("Could not finish zip file %s: %v", fn, err)
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("TMPDIR", dir)
	t.Setenv("ALTOTXT_STORAGE", "local")
	t.Setenv("ALTOTXT_UPLOAD", "")

	book := filepath.Join(dir, "book.zip")
	writeBook(t, book)
	notzip := filepath.Join(dir, "notzip.zip")
	err := os.WriteFile(notzip, []byte("I am just a basic string"), 0644)
	if err != nil {
		t.Fatalf("Could not create test file: %v", err)
	}

	cases := []struct {
		name   string
		args   []string
		status int
		output string
		text   string
	}{
		{"ok", []string{"-output-folder", filepath.Join(dir, "ok"), book}, 0, filepath.Join(dir, "ok", "book.txt"), "Hello world.\ntail\n"},
		{"notpresent", []string{"-output-folder", filepath.Join(dir, "notpresent"), filepath.Join(dir, "notpresent.zip")}, 1, "", ""},
		{"notzip", []string{"-output-folder", filepath.Join(dir, "notzip"), notzip}, 1, "", ""},
		{"directory", []string{"-output-folder", filepath.Join(dir, "directory"), dir}, 1, "", ""},
		{"noarchive", []string{"-output-folder", filepath.Join(dir, "noarchive")}, 2, "", ""},
		{"badflag", []string{"-nonsense", book}, 2, "", ""},
		{"badconfig", []string{"-config", filepath.Join(dir, "notpresent.yaml"), book}, 2, "", ""},
		{"help", []string{"-h"}, 0, "", ""},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			status := run(c.args, &stdout, &stderr)
			if status != c.status {
				t.Fatalf("Expected exit status %d, got %d\nstderr: %s", c.status, status, stderr.String())
			}
			if c.output == "" {
				if stdout.Len() != 0 {
					t.Fatalf("Expected nothing on stdout, got %q", stdout.String())
				}
				txt, _ := filepath.Glob(filepath.Join(dir, c.name, "*.txt"))
				if len(txt) != 0 {
					t.Fatalf("Output was written despite a failure: %v", txt)
				}
				return
			}
			expected := "Extracted content saved to: " + c.output + "\n"
			if stdout.String() != expected {
				t.Fatalf("Expected %q, got %q", expected, stdout.String())
			}
			b, err := os.ReadFile(c.output)
			if err != nil {
				t.Fatalf("Could not read output: %v", err)
			}
			if string(b) != c.text {
				t.Fatalf("Expected %q, got %q", c.text, string(b))
			}
		})
	}
}
