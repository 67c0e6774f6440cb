// Copyright 2019 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// getresults downloads the results of converting an archive
// through the altotxtd queue.
package main

import (
	"flag"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/rs/zerolog"
	"rescribe.xyz/altotxt"
	"rescribe.xyz/altotxt/internal/pipeline"
)

const usage = `Usage: getresults [-v] [-config file] [-local dir] [-o dir] key

Downloads the results of converting the archive with the given
storage key, which are saved next to it: the .txt file, and the
.pdf and .graph.png files if they were made.
`

type Getter interface {
	MinimalInit() error
	ListObjects(bucket string, prefix string) ([]string, error)
	Download(bucket string, key string, fn string) error
	WIPStorageId() string
}

// localGetter lets LocalConn stand in where a MinimalInit is needed
type localGetter struct {
	*altotxt.LocalConn
}

func (l localGetter) MinimalInit() error {
	return l.Init()
}

// getResults downloads the results for the archive key into outdir,
// returning the paths of the downloaded files.
func getResults(conn Getter, key string, outdir string, logger zerolog.Logger) ([]string, error) {
	dir := path.Dir(key)
	if dir == "." {
		dir = ""
	}
	objs, err := conn.ListObjects(conn.WIPStorageId(), dir)
	if err != nil {
		return nil, fmt.Errorf("Failed to get list of files for %s: %w", key, err)
	}
	keys := pipeline.ResultKeys(key, objs)
	if len(keys) == 0 {
		return nil, fmt.Errorf("No results found for %s", key)
	}

	err = os.MkdirAll(outdir, 0755)
	if err != nil {
		return nil, fmt.Errorf("Failed to create directory %s: %w", outdir, err)
	}

	var files []string
	for _, k := range keys {
		fn := filepath.Join(outdir, path.Base(k))
		logger.Debug().Str("key", k).Msg("Downloading")
		err = conn.Download(conn.WIPStorageId(), k, fn)
		if err != nil {
			return files, fmt.Errorf("Failed to download %s: %w", k, err)
		}
		logger.Info().Str("file", fn).Msg("Downloaded")
		files = append(files, fn)
	}
	return files, nil
}

func main() {
	verbose := flag.Bool("v", false, "Verbose")
	cfgpath := flag.String("config", "", "config file to use (default "+altotxt.DefaultConfigPath()+")")
	localdir := flag.String("local", "", "use a local directory for storage rather than the configured storage")
	outdir := flag.String("o", ".", "directory to save the results in")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return
	}

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	cfg, err := altotxt.LoadConfig(*cfgpath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Error loading config")
	}

	var conn Getter
	if *localdir != "" || cfg.Storage != "aws" {
		conn = localGetter{&altotxt.LocalConn{TempDir: *localdir, Logger: logger}}
	} else {
		conn = &altotxt.AwsConn{Region: cfg.Region, Bucket: cfg.Bucket, Logger: logger}
	}

	logger.Debug().Msg("Setting up session")
	err = conn.MinimalInit()
	if err != nil {
		logger.Fatal().Err(err).Msg("Error setting up connection")
	}

	_, err = getResults(conn, flag.Arg(0), *outdir, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to get results")
	}
}
