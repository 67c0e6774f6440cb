// Copyright 2021 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"
	"rescribe.xyz/altotxt"
	"rescribe.xyz/altotxt/internal/pipeline"
)

// entryWriter appends anything written to it to a text entry
type entryWriter struct {
	mu    sync.Mutex
	entry *widget.Entry
}

func (w *entryWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entry.SetText(w.entry.Text + string(p))
	w.entry.CursorRow = strings.Count(w.entry.Text, "\n")
	return len(p), nil
}

// formatProgress describes how far through reading the pages we are
func formatProgress(done, total int) string {
	switch {
	case total <= 0:
		return ""
	case done >= total:
		return fmt.Sprintf("Read all %d pages", total)
	default:
		return fmt.Sprintf("Reading page %d of %d", done, total)
	}
}

// progressValue turns a count of pages read into a value for a
// progress bar. Reading the pages is most of the work, so the bar
// is kept just short of the end until the text is saved.
func progressValue(done, total int) float64 {
	if total <= 0 {
		return 0
	}
	v := 0.95 * float64(done) / float64(total)
	if v > 0.95 {
		v = 0.95
	}
	return v
}

// startGui starts the gui process
func startGui(cfg altotxt.Config, conn pipeline.DownloadUploader, archive string, outdir string, logger zerolog.Logger) error {
	myApp := app.New()
	myWindow := myApp.NewWindow("ALTO to text")

	var gobtn *widget.Button

	zipentry := widget.NewEntry()
	zipentry.SetPlaceHolder("Archive to convert")
	zipentry.SetText(archive)
	zipentry.OnChanged = func(s string) {
		if s != "" {
			gobtn.Enable()
		} else {
			gobtn.Disable()
		}
	}

	outentry := widget.NewEntry()
	outentry.SetPlaceHolder("Folder to save text in")
	outentry.SetText(outdir)

	openbtn := widget.NewButtonWithIcon("Choose archive", theme.FileIcon(), func() {
		d := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
			if err == nil && r != nil {
				zipentry.SetText(r.URI().Path())
				_ = r.Close()
			}
		}, myWindow)
		d.SetFilter(storage.NewExtensionFileFilter([]string{".zip"}))
		d.Show()
	})

	outbtn := widget.NewButtonWithIcon("Choose folder", theme.FolderOpenIcon(), func() {
		dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
			if err == nil && uri != nil {
				outentry.SetText(uri.Path())
			}
		}, myWindow)
	})

	progressBar := widget.NewProgressBar()
	status := widget.NewLabel("")

	logarea := widget.NewMultiLineEntry()
	logarea.Disable()
	guilogger := zerolog.New(zerolog.ConsoleWriter{Out: &entryWriter{entry: logarea}, NoColor: true}).Level(logger.GetLevel()).With().Timestamp().Logger()

	gobtn = widget.NewButtonWithIcon("Extract text", theme.DocumentSaveIcon(), func() {
		if zipentry.Text == "" {
			return
		}

		gobtn.Disable()
		gobtn.SetText("Processing...")
		progressBar.SetValue(0)
		status.SetText("Extracting pages")

		opts := options(cfg, outentry.Text, guilogger)
		opts.Progress = func(done, total int) {
			progressBar.SetValue(progressValue(done, total))
			status.SetText(formatProgress(done, total))
		}

		go func() {
			defer func() {
				gobtn.SetText("Extract text")
				gobtn.Enable()
			}()

			res, err := pipeline.Convert(context.Background(), conn, zipentry.Text, opts)
			if res.Output != "" {
				progressBar.SetValue(1.0)
				status.SetText("Extracted content saved to: " + res.Output)
			}
			if err != nil {
				guilogger.Error().Err(err).Msg("Conversion failed")
				dialog.ShowError(err, myWindow)
			}
		}()
	})
	if zipentry.Text == "" {
		gobtn.Disable()
	}

	zipopener := container.New(layout.NewGridLayout(2), zipentry, openbtn)
	outopener := container.New(layout.NewGridLayout(2), outentry, outbtn)

	content := container.NewVBox(zipopener, outopener, gobtn, progressBar, status, logarea)

	myWindow.SetContent(content)
	myWindow.Resize(fyne.NewSize(600, 400))

	myWindow.Show()
	myApp.Run()

	return nil
}
