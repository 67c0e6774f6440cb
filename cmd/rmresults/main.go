// Copyright 2020 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// rmresults removes the results of converting an archive from
// storage.
package main

import (
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/rs/zerolog"
	"rescribe.xyz/altotxt"
	"rescribe.xyz/altotxt/internal/pipeline"
)

const usage = `Usage: rmresults [-v] [-a] [-config file] [-local dir] key

Removes the results of converting the archive with the given
storage key from storage. With -a the archive is removed too.
`

type RmPipeliner interface {
	Init() error
	WIPStorageId() string
	DeleteObjects(bucket string, keys []string) error
	ListObjects(bucket string, prefix string) ([]string, error)
}

// awsRemover only needs storage, not the queue
type awsRemover struct {
	*altotxt.AwsConn
}

func (a awsRemover) Init() error {
	return a.MinimalInit()
}

// removeResults deletes the results for the archive key, and the
// archive itself if all is set, returning the keys deleted.
func removeResults(conn RmPipeliner, key string, all bool, logger zerolog.Logger) ([]string, error) {
	dir := path.Dir(key)
	if dir == "." {
		dir = ""
	}
	logger.Debug().Str("key", key).Msg("Getting list of results")
	objs, err := conn.ListObjects(conn.WIPStorageId(), dir)
	if err != nil {
		return nil, fmt.Errorf("Error listing storage items: %w", err)
	}

	keys := pipeline.ResultKeys(key, objs)
	if all {
		for _, o := range objs {
			if o == key {
				keys = append(keys, o)
			}
		}
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("No files found for %s", key)
	}

	logger.Debug().Strs("keys", keys).Msg("Deleting")
	err = conn.DeleteObjects(conn.WIPStorageId(), keys)
	if err != nil {
		return nil, fmt.Errorf("Error deleting files: %w", err)
	}
	logger.Info().Int("files", len(keys)).Msg("Finished deleting files")
	return keys, nil
}

func main() {
	verbose := flag.Bool("v", false, "verbose")
	all := flag.Bool("a", false, "remove the archive as well as the results")
	cfgpath := flag.String("config", "", "config file to use (default "+altotxt.DefaultConfigPath()+")")
	localdir := flag.String("local", "", "use a local directory for storage rather than the configured storage")
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

	var conn RmPipeliner
	if *localdir != "" || cfg.Storage != "aws" {
		conn = &altotxt.LocalConn{TempDir: *localdir, Logger: logger}
	} else {
		conn = awsRemover{&altotxt.AwsConn{Region: cfg.Region, Bucket: cfg.Bucket, Logger: logger}}
	}

	logger.Debug().Msg("Setting up connection")
	err = conn.Init()
	if err != nil {
		logger.Fatal().Err(err).Msg("Error setting up connection")
	}

	_, err = removeResults(conn, flag.Arg(0), *all, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to remove results")
	}
}
