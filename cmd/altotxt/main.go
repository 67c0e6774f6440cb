// Copyright 2019 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// altotxt converts a zip archive of ALTO XML pages into a plain text
// file with one sentence on each line.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"rescribe.xyz/altotxt"
	"rescribe.xyz/altotxt/alto"
	"rescribe.xyz/altotxt/internal/pipeline"
)

const usage = `Usage: altotxt [-v] [-output-folder dir] [-config file] [-workers n] [-pdf] [-graph] [-keep] [-upload dest] [-gui] archive.zip

Extracts the text from a zip archive of ALTO XML (or hOCR) pages,
joining words split across lines with '¬', and saves it with one
sentence per line in a .txt file named after the archive.

The archive may be a local file or a storage URL like
s3://bucket/key.zip. Settings are read from the config file
(default ~/.config/altotxt/config.yaml) and ALTOTXT_* environment
variables, and can be overridden by the flags below.
`

// cliFlags holds the parsed command line, along with which flags
// were explicitly set, so that only those override the config.
type cliFlags struct {
	verbose bool
	outdir  string
	config  string
	workers int
	pdf     bool
	graph   bool
	keep    bool
	upload  string
	gui     bool
	archive string
	set     map[string]bool
}

func parseFlags(args []string, output io.Writer) (cliFlags, error) {
	var f cliFlags
	fs := flag.NewFlagSet("altotxt", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.BoolVar(&f.verbose, "v", false, "verbose")
	fs.StringVar(&f.outdir, "output-folder", ".", "directory to save the results in")
	fs.StringVar(&f.config, "config", "", "config file to use (default "+altotxt.DefaultConfigPath()+")")
	fs.IntVar(&f.workers, "workers", 0, "number of pages to read at once (default from config, or the number of CPUs)")
	fs.BoolVar(&f.pdf, "pdf", false, "also save the sentences as a PDF")
	fs.BoolVar(&f.graph, "graph", false, "also save a graph of the words found on each page")
	fs.BoolVar(&f.keep, "keep", false, "keep the extracted pages rather than removing them")
	fs.StringVar(&f.upload, "upload", "", "storage URL to upload the results to, e.g. s3://bucket/texts")
	fs.BoolVar(&f.gui, "gui", false, "use the graphical interface")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), usage)
		fs.PrintDefaults()
	}

	err := fs.Parse(args)
	if err != nil {
		return f, err
	}

	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) {
		f.set[fl.Name] = true
	})

	switch {
	case fs.NArg() == 1:
		f.archive = fs.Arg(0)
	case fs.NArg() == 0 && f.gui:
	default:
		fs.Usage()
		return f, errors.New("Error: exactly one archive must be given")
	}

	return f, nil
}

// apply overrides the config with any flags which were set
func (f cliFlags) apply(cfg altotxt.Config) altotxt.Config {
	if f.set["workers"] && f.workers > 0 {
		cfg.Workers = f.workers
	}
	if f.set["pdf"] {
		cfg.PDF = f.pdf
	}
	if f.set["graph"] {
		cfg.Graph = f.graph
	}
	if f.set["keep"] {
		cfg.Keep = f.keep
	}
	if f.set["upload"] {
		cfg.Upload = f.upload
	}
	return cfg
}

// connect sets up the storage connection the config asks for
func connect(cfg altotxt.Config, logger zerolog.Logger) (pipeline.DownloadUploader, error) {
	if cfg.Storage == "aws" {
		conn := &altotxt.AwsConn{Region: cfg.Region, Bucket: cfg.Bucket, Logger: logger}
		err := conn.MinimalInit()
		if err != nil {
			return nil, fmt.Errorf("Error setting up cloud connection: %w", err)
		}
		return conn, nil
	}
	conn := &altotxt.LocalConn{Logger: logger}
	err := conn.Init()
	if err != nil {
		return nil, fmt.Errorf("Error setting up local storage: %w", err)
	}
	return conn, nil
}

func options(cfg altotxt.Config, outdir string, logger zerolog.Logger) pipeline.Options {
	return pipeline.Options{
		OutputDir: outdir,
		Workers:   cfg.Workers,
		Parser:    alto.Parser{Namespaces: cfg.Namespaces},
		PDF:       cfg.PDF,
		Graph:     cfg.Graph,
		Keep:      cfg.Keep,
		Upload:    cfg.Upload,
		Logger:    logger,
	}
}

// run is the whole command, returning the exit status: 0 on
// success, 1 if the conversion failed and 2 for a usage error.
func run(args []string, stdout io.Writer, stderr io.Writer) int {
	f, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		return 2
	}

	level := zerolog.InfoLevel
	if f.verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr}).Level(level).With().Timestamp().Logger()

	cfg, err := altotxt.LoadConfig(f.config)
	if err != nil {
		logger.Error().Err(err).Msg("Error loading config")
		return 2
	}
	cfg = f.apply(cfg)

	conn, err := connect(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Setup failed")
		return 1
	}

	if f.gui {
		err = startGui(cfg, conn, f.archive, f.outdir, logger)
		if err != nil {
			logger.Error().Err(err).Msg("Error starting graphical interface")
			return 1
		}
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := pipeline.Convert(ctx, conn, f.archive, options(cfg, f.outdir, logger))
	if res.Output != "" {
		logger.Debug().Int("documents", res.Documents).Int("failed", res.Failed).Int("sentences", res.Sentences).Msg("Finished")
		abs, aerr := filepath.Abs(res.Output)
		if aerr != nil {
			abs = res.Output
		}
		fmt.Fprintf(stdout, "Extracted content saved to: %s\n", abs)
	}
	if err != nil {
		logger.Error().Err(err).Msg("Conversion failed")
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
