// Copyright 2026 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package pipeline

import (
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"rescribe.xyz/altotxt/alto"
	"rescribe.xyz/utils/pkg/hocr"
)

// Document is the result of reading the words from one page file.
// If Err is set, Tokens is empty.
type Document struct {
	Name   string
	Tokens []string
	Err    error
}

// hocrTokens returns the text of each ocrx_word in an hOCR file
func hocrTokens(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Error reading %s: %w", path, err)
	}
	h, err := hocr.Parse(b)
	if err != nil {
		return nil, fmt.Errorf("Error parsing %s: %w", path, err)
	}
	var tokens []string
	for _, l := range h.Lines {
		for _, w := range l.Words {
			if w.Class != "ocrx_word" {
				continue
			}
			t := strings.TrimSpace(html.UnescapeString(w.Text))
			if t != "" {
				tokens = append(tokens, t)
			}
		}
	}
	return tokens, nil
}

// DocumentTokens returns the words in a page file, which is read as
// hOCR if it has a .hocr extension and as ALTO otherwise.
func DocumentTokens(p alto.Parser, path string) ([]string, error) {
	if strings.ToLower(filepath.Ext(path)) == ".hocr" {
		return hocrTokens(path)
	}
	return p.ParseFile(path)
}

// ExtractTokens reads the words from each page file, using up to
// workers goroutines. The results are in the same order as paths.
// A page which can't be read is logged and has its error recorded
// in its Document, but doesn't stop the others being read; only
// cancellation of ctx causes an error to be returned. If progress is
// not nil it is called after each page is read, from whichever
// goroutine read it.
func ExtractTokens(ctx context.Context, paths []string, workers int, p alto.Parser, logger zerolog.Logger, progress func(done, total int)) ([]Document, error) {
	if workers < 1 {
		workers = 1
	}
	docs := make([]Document, len(paths))
	var done int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			err := gctx.Err()
			if err != nil {
				return err
			}
			logger.Debug().Str("document", path).Msg("Reading")
			tokens, err := DocumentTokens(p, path)
			if err != nil {
				logger.Error().Err(err).Str("document", path).Msg("Error processing document")
				tokens = nil
			}
			docs[i] = Document{Name: path, Tokens: tokens, Err: err}
			n := atomic.AddInt64(&done, 1)
			if progress != nil {
				progress(int(n), len(paths))
			}
			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// Flatten joins the tokens of all documents, in order
func Flatten(docs []Document) []string {
	var tokens []string
	for _, d := range docs {
		tokens = append(tokens, d.Tokens...)
	}
	return tokens
}
