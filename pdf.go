// Copyright 2020 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package altotxt

import (
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfMargin   = 56 // in pt, a little under 2cm
	pdfFontSize = 11
	pdfLeading  = 14
)

// Fpdf renders reconstructed sentences as a simple text PDF, with
// each sentence starting a new paragraph.
type Fpdf struct {
	fpdf *gofpdf.Fpdf
	tr   func(string) string
}

// Setup creates a new PDF with appropriate settings and fonts.
// A core font is used so that no font files are needed, with
// text translated to cp1252; characters outside of that are
// replaced when rendered.
func (p *Fpdf) Setup(title string) error {
	p.fpdf = gofpdf.New("P", "pt", "A4", "")
	p.fpdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	p.fpdf.SetAutoPageBreak(true, pdfMargin)
	p.fpdf.SetFont("Times", "", pdfFontSize)
	p.tr = p.fpdf.UnicodeTranslatorFromDescriptor("")
	p.fpdf.SetTitle(title, true)
	p.fpdf.SetCreator("altotxt", true)
	p.fpdf.AddPage()
	return p.fpdf.Error()
}

// AddSentences adds sentences to the PDF, one paragraph each
func (p *Fpdf) AddSentences(sentences []string) error {
	if p.fpdf == nil {
		return fmt.Errorf("PDF has not been set up")
	}
	for _, s := range sentences {
		p.fpdf.MultiCell(0, pdfLeading, p.tr(s), "", "L", false)
		if p.fpdf.Err() {
			break
		}
	}
	return p.fpdf.Error()
}

// Save saves the PDF to the file at path
func (p *Fpdf) Save(path string) error {
	if p.fpdf == nil {
		return fmt.Errorf("PDF has not been set up")
	}
	return p.fpdf.OutputFileAndClose(path)
}
