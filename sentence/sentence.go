// Copyright 2026 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// sentence joins a stream of OCR word tokens back into sentences,
// rejoining words which were hyphenated across a line break.
package sentence

import (
	"bufio"
	"io"
	"strings"
)

// Hyphen is the character OCR engines put at the end of the first
// part of a word which was broken across lines.
const Hyphen = "¬"

// Terminator ends a sentence when it is the last character of a word.
const Terminator = "."

// Builder accumulates tokens into sentences. The zero value is ready
// to use.
type Builder struct {
	pending string   // word being built, possibly ending in Hyphen
	buffer  []string // completed words of the current sentence
}

// Add adds the next token, returning a sentence if the token
// completed one. When the word being built ends in Hyphen, every
// Hyphen in it is removed and the token is joined directly onto it.
func (b *Builder) Add(token string) (string, bool) {
	if token == "" {
		return "", false
	}

	if strings.HasSuffix(b.pending, Hyphen) {
		b.pending = strings.ReplaceAll(b.pending, Hyphen, "") + token
	} else {
		if b.pending != "" {
			b.buffer = append(b.buffer, b.pending)
		}
		b.pending = token
	}

	if !strings.HasSuffix(b.pending, Terminator) {
		return "", false
	}
	b.buffer = append(b.buffer, b.pending)
	s := strings.Join(b.buffer, " ")
	b.buffer = b.buffer[:0]
	b.pending = ""
	return s, true
}

// Flush returns any remaining words as a final sentence, even though
// it has no terminator, and resets the Builder.
func (b *Builder) Flush() (string, bool) {
	if b.pending != "" {
		b.buffer = append(b.buffer, b.pending)
		b.pending = ""
	}
	if len(b.buffer) == 0 {
		return "", false
	}
	s := strings.Join(b.buffer, " ")
	b.buffer = b.buffer[:0]
	return s, true
}

// Sentences reconstructs all of the sentences in a token sequence
func Sentences(tokens []string) []string {
	var b Builder
	var sentences []string
	for _, t := range tokens {
		if s, ok := b.Add(t); ok {
			sentences = append(sentences, s)
		}
	}
	if s, ok := b.Flush(); ok {
		sentences = append(sentences, s)
	}
	return sentences
}

// Write reconstructs the sentences in a token sequence and writes
// them to w, one per line, returning the number of sentences written.
func Write(w io.Writer, tokens []string) (int, error) {
	bw := bufio.NewWriter(w)
	n := 0
	for _, s := range Sentences(tokens) {
		_, err := bw.WriteString(s + "\n")
		if err != nil {
			return n, err
		}
		n++
	}
	return n, bw.Flush()
}
