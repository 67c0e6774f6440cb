// Copyright 2026 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// alto reads the words from ALTO XML files.
//
// Only the CONTENT attribute of String elements is used; layout,
// geometry and confidence information is ignored.
package alto

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"

	"golang.org/x/net/html/charset"
)

// NsV4 is the namespace of ALTO version 4, which is the only one
// read by default.
const NsV4 = "http://www.loc.gov/standards/alto/ns-v4#"

// Older ALTO namespaces, which can be added to Parser.Namespaces.
const (
	NsV2 = "http://www.loc.gov/standards/alto/ns-v2#"
	NsV3 = "http://www.loc.gov/standards/alto/ns-v3#"
)

// Parser extracts words from ALTO documents. The zero value reads
// ALTO v4 documents.
type Parser struct {
	// Namespaces lists the namespaces whose String elements are
	// read. If empty, only NsV4 is used.
	Namespaces []string
}

func (p Parser) wanted(ns string) bool {
	if len(p.Namespaces) == 0 {
		return ns == NsV4
	}
	for _, n := range p.Namespaces {
		if n == ns {
			return true
		}
	}
	return false
}

// Tokens returns the non-empty CONTENT attribute of every String
// element in the document, in document order. If the document can't
// be parsed no tokens are returned, so a broken page contributes
// nothing rather than part of its text.
func (p Parser) Tokens(r io.Reader) ([]string, error) {
	d := xml.NewDecoder(r)
	d.CharsetReader = charset.NewReaderLabel

	var tokens []string
	for {
		t, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		e, ok := t.(xml.StartElement)
		if !ok || e.Name.Local != "String" || !p.wanted(e.Name.Space) {
			continue
		}
		for _, a := range e.Attr {
			if a.Name.Local == "CONTENT" && a.Name.Space == "" && a.Value != "" {
				tokens = append(tokens, a.Value)
				break
			}
		}
	}
	return tokens, nil
}

// ParseFile returns the tokens from an ALTO file
func (p Parser) ParseFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("Error opening %s: %w", path, err)
	}
	defer f.Close()

	tokens, err := p.Tokens(f)
	if err != nil {
		return nil, fmt.Errorf("Error parsing %s: %w", path, err)
	}
	return tokens, nil
}

// Tokens returns the tokens from an ALTO v4 document
func Tokens(r io.Reader) ([]string, error) {
	return Parser{}.Tokens(r)
}

// ParseFile returns the tokens from an ALTO v4 file
func ParseFile(path string) ([]string, error) {
	return Parser{}.ParseFile(path)
}
