// Copyright 2020 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// pipeline is a package used by the altotxt commands, which
// handles the core functionality of turning an archive of pages
// into text. Note that it is considered an "internal" package,
// not intended for external use, and no guarantee is made of the
// stability of any interfaces provided.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"rescribe.xyz/altotxt"
	"rescribe.xyz/altotxt/alto"
	"rescribe.xyz/altotxt/sentence"
)

const HeartbeatSeconds = 60

type Downloader interface {
	Download(bucket string, key string, fn string) error
	Log(v ...interface{})
	WIPStorageId() string
}

type Uploader interface {
	Log(v ...interface{})
	Upload(bucket string, key string, path string) error
	WIPStorageId() string
}

type DownloadUploader interface {
	Download(bucket string, key string, fn string) error
	Log(v ...interface{})
	Upload(bucket string, key string, path string) error
	WIPStorageId() string
}

type Queuer interface {
	AddToQueue(url string, msg string) error
	CheckQueue(url string, timeout int64) (altotxt.Qmsg, error)
	ConvertQueueId() string
	DelFromQueue(url string, handle string) error
	Log(v ...interface{})
	QueueHeartbeat(msg altotxt.Qmsg, qurl string, duration int64) (altotxt.Qmsg, error)
}

type Pipeliner interface {
	AddToQueue(url string, msg string) error
	CheckQueue(url string, timeout int64) (altotxt.Qmsg, error)
	ConvertQueueId() string
	DelFromQueue(url string, handle string) error
	Download(bucket string, key string, fn string) error
	GetLogger() zerolog.Logger
	Init() error
	Log(v ...interface{})
	QueueHeartbeat(msg altotxt.Qmsg, qurl string, duration int64) (altotxt.Qmsg, error)
	Upload(bucket string, key string, path string) error
	WIPStorageId() string
}

// Options control a conversion
type Options struct {
	OutputDir string
	Workers   int
	Parser    alto.Parser
	PDF       bool
	Graph     bool
	Keep      bool   // keep the extracted pages
	Upload    string // storage URL prefix to upload results to
	Logger    zerolog.Logger

	// Progress, if set, is called as each page is read
	Progress func(done, total int)
}

// Result describes a completed conversion
type Result struct {
	Output    string
	PDF       string
	Graph     string
	Documents int
	Failed    int
	Tokens    int
	Sentences int
}

// Files returns all of the files produced
func (r Result) Files() []string {
	files := []string{r.Output}
	for _, f := range []string{r.PDF, r.Graph} {
		if f != "" {
			files = append(files, f)
		}
	}
	return files
}

// Convert turns an archive of page files into a text file with one
// sentence on each line, named after the archive and saved in
// opts.OutputDir. The archive may be a local path or a storage URL,
// in which case conn is used to download it; conn is also used to
// upload the results if opts.Upload is set, and may otherwise be nil.
//
// Any problem with the archive stops the conversion before anything
// is written. Pages which can't be read are logged and skipped.
func Convert(ctx context.Context, conn DownloadUploader, archive string, opts Options) (Result, error) {
	var res Result
	logger := opts.Logger

	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	err := os.MkdirAll(opts.OutputDir, 0755)
	if err != nil {
		return res, fmt.Errorf("Failed to create directory %s: %w", opts.OutputDir, err)
	}
	workdir := filepath.Join(opts.OutputDir, ".altotxt-"+uuid.NewString())

	// a nil interface is needed for GetArchive to spot a missing conn
	var dl Downloader
	if conn != nil {
		dl = conn
	}
	zipPath, err := GetArchive(archive, workdir, dl)
	if err != nil {
		_ = os.RemoveAll(workdir)
		return res, err
	}

	logger.Info().Str("archive", archive).Msg("Extracting pages")
	paths, err := ExtractArchive(ctx, zipPath, workdir, logger)
	if err != nil {
		_ = os.RemoveAll(workdir)
		return res, err
	}
	logger.Info().Int("pages", len(paths)).Msg("Reading pages")

	docs, err := ExtractTokens(ctx, paths, opts.Workers, opts.Parser, logger, opts.Progress)
	if err != nil {
		_ = os.RemoveAll(workdir)
		return res, err
	}

	tokens := Flatten(docs)
	res.Documents = len(docs)
	res.Tokens = len(tokens)
	for _, d := range docs {
		if d.Err != nil {
			res.Failed++
		}
	}

	base := ArchiveBase(archive)
	res.Output = filepath.Join(opts.OutputDir, base+".txt")
	res.Sentences, err = writeText(res.Output, tokens)
	if err != nil {
		_ = os.RemoveAll(workdir)
		res.Output = ""
		return res, err
	}

	var errs []error
	if opts.PDF {
		fn := filepath.Join(opts.OutputDir, base+".pdf")
		err = savePdf(fn, base, sentence.Sentences(tokens))
		if err != nil {
			errs = append(errs, err)
		} else {
			res.PDF = fn
		}
	}

	if opts.Graph {
		fn := filepath.Join(opts.OutputDir, base+".graph.png")
		err = saveGraph(fn, base, docs, workdir)
		switch {
		case errors.Is(err, altotxt.ErrNotEnoughPages):
			logger.Warn().Msg("Not enough pages to create a graph, skipping")
		case err != nil:
			errs = append(errs, err)
		default:
			res.Graph = fn
		}
	}

	if opts.Keep {
		logger.Info().Str("dir", workdir).Msg("Keeping extracted pages")
	} else {
		Cleanup(paths, workdir, logger)
	}

	if opts.Upload != "" && len(errs) == 0 {
		if conn == nil {
			errs = append(errs, errors.New("No storage connection to upload with"))
		} else {
			err = uploadResults(conn, opts.Upload, res.Files())
			if err != nil {
				errs = append(errs, err)
			}
		}
	}

	return res, errors.Join(errs...)
}

// writeText saves the sentences in tokens to fn, one per line,
// returning how many there were. A partly written file is removed.
func writeText(fn string, tokens []string) (int, error) {
	f, err := os.Create(fn)
	if err != nil {
		return 0, fmt.Errorf("Error creating file %s: %w", fn, err)
	}
	n, err := sentence.Write(f, tokens)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(fn)
		return 0, fmt.Errorf("Error writing to file %s: %w", fn, err)
	}
	err = f.Close()
	if err != nil {
		_ = os.Remove(fn)
		return 0, fmt.Errorf("Error closing file %s: %w", fn, err)
	}
	return n, nil
}

func savePdf(fn string, title string, sentences []string) error {
	pdf := new(altotxt.Fpdf)
	err := pdf.Setup(title)
	if err != nil {
		return fmt.Errorf("Failed to set up PDF: %w", err)
	}
	err = pdf.AddSentences(sentences)
	if err != nil {
		return fmt.Errorf("Failed to add text to PDF: %w", err)
	}
	err = pdf.Save(fn)
	if err != nil {
		return fmt.Errorf("Failed to save PDF %s: %w", fn, err)
	}
	return nil
}

func saveGraph(fn string, title string, docs []Document, workdir string) error {
	var pages []altotxt.PageCount
	for _, d := range docs {
		name, err := filepath.Rel(workdir, d.Name)
		if err != nil {
			name = d.Name
		}
		pages = append(pages, altotxt.PageCount{Name: name, Words: len(d.Tokens)})
	}
	f, err := os.Create(fn)
	if err != nil {
		return fmt.Errorf("Error creating file %s: %w", fn, err)
	}
	err = altotxt.Graph(pages, title, f)
	cerr := f.Close()
	if err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(fn)
	}
	if err != nil && !errors.Is(err, altotxt.ErrNotEnoughPages) {
		return fmt.Errorf("Error rendering graph: %w", err)
	}
	return err
}

// Cleanup removes the extracted page files and then the directory
// they were extracted into. Failures are logged but otherwise
// ignored, as they don't affect the text which has been saved; the
// number of failures is returned.
func Cleanup(paths []string, dir string, logger zerolog.Logger) int {
	failed := 0
	for _, p := range paths {
		err := os.Remove(p)
		if err != nil && !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("file", p).Msg("Failed to remove extracted file")
			failed++
		}
	}
	err := os.RemoveAll(dir)
	if err != nil {
		logger.Warn().Err(err).Str("dir", dir).Msg("Failed to remove extraction directory")
		failed++
	}
	if failed == 0 {
		logger.Debug().Int("files", len(paths)).Msg("All extracted files have been removed")
	}
	return failed
}

// heartbeat keeps a message hidden on the queue until the ticker is
// stopped. Any new message handle is sent to msgc. If the heartbeat
// fails cancel is called, as the message may be picked up by another
// process.
func heartbeat(conn Queuer, t *time.Ticker, msg altotxt.Qmsg, queue string, msgc chan altotxt.Qmsg, cancel context.CancelFunc, done chan struct{}) {
	currentmsg := msg
	for {
		select {
		case <-done:
			return
		case <-t.C:
		}
		m, err := conn.QueueHeartbeat(currentmsg, queue, HeartbeatSeconds*2)
		if err != nil {
			conn.Log("Error with heartbeat", err)
			cancel()
			return
		}
		if m.Id != "" {
			conn.Log("Replaced message handle as visibilitytimeout limit was reached")
			currentmsg = m
			// only the newest handle matters
			select {
			case <-msgc:
			default:
			}
			msgc <- m
		}
	}
}

// ProcessArchive converts an archive named in a queue message. The
// message body is the storage key of the archive, in the
// connection's WIP storage. The results are uploaded alongside the
// archive, and the message is deleted from the queue once done. If
// the archive itself is bad the message is deleted anyway, as it
// would never succeed.
func ProcessArchive(ctx context.Context, msg altotxt.Qmsg, conn Pipeliner, opts Options) error {
	key := strings.TrimSpace(msg.Body)
	queue := conn.ConvertQueueId()

	d, err := os.MkdirTemp("", "altotxt-")
	if err != nil {
		return fmt.Errorf("Failed to create temporary directory: %w", err)
	}
	defer os.RemoveAll(d)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	msgc := make(chan altotxt.Qmsg, 1)
	done := make(chan struct{})
	t := time.NewTicker(HeartbeatSeconds * time.Second)
	go heartbeat(conn, t, msg, queue, msgc, cancel, done)

	opts.OutputDir = d
	opts.Keep = false
	prefix := path.Dir(key)
	if prefix == "." {
		prefix = ""
	}
	opts.Upload = StorageURL(conn.WIPStorageId(), prefix)

	res, err := Convert(ctx, conn, StorageURL(conn.WIPStorageId(), key), opts)

	t.Stop()
	close(done)

	var aerr *ArchiveError
	if err != nil && !errors.As(err, &aerr) {
		return err
	}

	// check whether we're using a newer msg handle
	select {
	case m := <-msgc:
		msg = m
		conn.Log("Using new message handle to delete message from queue")
	default:
	}

	conn.Log("Deleting message from queue", queue)
	delerr := conn.DelFromQueue(queue, msg.Handle)
	if err != nil {
		return err
	}
	if delerr != nil {
		return fmt.Errorf("Error deleting message from queue: %w", delerr)
	}

	conn.Log("Converted", key, "into", res.Sentences, "sentences from", res.Documents, "pages")
	return nil
}
