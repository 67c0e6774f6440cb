// Copyright 2022 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"testing"

	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"
)

func TestFormatProgress(t *testing.T) {
	cases := []struct {
		done, total int
		str         string
	}{
		{0, 0, ""},
		{3, 0, ""},
		{0, 10, "Reading page 0 of 10"},
		{4, 10, "Reading page 4 of 10"},
		{10, 10, "Read all 10 pages"},
		{11, 10, "Read all 10 pages"},
	}

	for _, c := range cases {
		t.Run(fmt.Sprintf("%d_%d", c.done, c.total), func(t *testing.T) {
			got := formatProgress(c.done, c.total)
			if got != c.str {
				t.Fatalf("Expected %s, got %s", c.str, got)
			}
		})
	}
}

func TestProgressValue(t *testing.T) {
	cases := []struct {
		done, total int
		val         float64
	}{
		{0, 0, 0},
		{0, 4, 0},
		{2, 4, 0.475},
		{4, 4, 0.95},
		{5, 4, 0.95},
	}

	for _, c := range cases {
		t.Run(fmt.Sprintf("%d_%d", c.done, c.total), func(t *testing.T) {
			got := progressValue(c.done, c.total)
			if got != c.val {
				t.Fatalf("Expected %f, got %f", c.val, got)
			}
		})
	}
}

func TestEntryWriter(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	entry := widget.NewMultiLineEntry()
	w := &entryWriter{entry: entry}
	for _, s := range []string{"first line\n", "second line\n"} {
		n, err := w.Write([]byte(s))
		if err != nil || n != len(s) {
			t.Fatalf("Expected %d bytes written with no error, got %d, %v", len(s), n, err)
		}
	}
	if entry.Text != "first line\nsecond line\n" {
		t.Fatalf("Unexpected entry text %q", entry.Text)
	}
	if entry.CursorRow != 2 {
		t.Fatalf("Expected cursor on row 2, got %d", entry.CursorRow)
	}
}
