// Copyright 2026 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package altotxt

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestGraph(t *testing.T) {
	var many []PageCount
	for i := 1; i <= 120; i++ {
		many = append(many, PageCount{Name: fmt.Sprintf("book/page_%04d.xml", i), Words: 200 + i%7})
	}

	cases := []struct {
		name  string
		pages []PageCount
		err   error
	}{
		{"none", nil, ErrNotEnoughPages},
		{"one", []PageCount{{"page_0001.xml", 10}}, ErrNotEnoughPages},
		{"two", []PageCount{{"page_0001.xml", 10}, {"page_0002.xml", 12}}, nil},
		{"unordered", []PageCount{{"b_0003.xml", 3}, {"b_0001.xml", 150}, {"b_0002.xml", 140}}, nil},
		{"unnumbered", []PageCount{{"front.xml", 5}, {"page_0001.xml", 120}, {"back.xml", 2}}, nil},
		{"allempty", []PageCount{{"1.xml", 0}, {"2.xml", 0}, {"3.xml", 0}}, nil},
		{"many", many, nil},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := Graph(c.pages, "Test Book", &buf)
			if !errors.Is(err, c.err) {
				t.Fatalf("Expected error '%v', got '%v'", c.err, err)
			}
			if c.err != nil {
				return
			}
			if !bytes.HasPrefix(buf.Bytes(), pngMagic) {
				t.Fatalf("Expected a PNG to be written")
			}
		})
	}
}

func TestPageNumber(t *testing.T) {
	cases := []struct {
		name string
		num  float64
		ok   bool
	}{
		{"page_0012.xml", 12, true},
		{"vol2/page_0003.xml", 3, true},
		{"1799_book_0040.xml", 40, true},
		{"cover.xml", 0, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			n, ok := pageNumber(c.name)
			if n != c.num || ok != c.ok {
				t.Fatalf("Expected %.0f %v, got %.0f %v", c.num, c.ok, n, ok)
			}
		})
	}
}
