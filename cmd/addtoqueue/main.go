// Copyright 2019 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"rescribe.xyz/altotxt"
)

const usage = `Usage: addtoqueue [-v] [-config file] [-local dir] key...

addtoqueue adds the storage keys of archives to the conversion
queue, for altotxtd to process.

The archives should already be uploaded to the storage bucket.
`

type QueuePipeliner interface {
	Init() error
	AddToQueue(url string, msg string) error
	ConvertQueueId() string
}

// addAll adds each key to the conversion queue, stopping at the
// first failure.
func addAll(conn QueuePipeliner, keys []string, logger zerolog.Logger) error {
	for _, key := range keys {
		logger.Debug().Str("key", key).Msg("Adding to queue")
		err := conn.AddToQueue(conn.ConvertQueueId(), key)
		if err != nil {
			return fmt.Errorf("Error adding %s to queue: %w", key, err)
		}
	}
	logger.Info().Int("messages", len(keys)).Msg("Added messages to the queue")
	return nil
}

func main() {
	verbose := flag.Bool("v", false, "verbose")
	cfgpath := flag.String("config", "", "config file to use (default "+altotxt.DefaultConfigPath()+")")
	localdir := flag.String("local", "", "use a local directory for the queue rather than the configured storage")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
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

	var conn QueuePipeliner
	if *localdir != "" || cfg.Storage != "aws" {
		conn = &altotxt.LocalConn{TempDir: *localdir, Logger: logger}
	} else {
		conn = &altotxt.AwsConn{Region: cfg.Region, Bucket: cfg.Bucket, QueueName: cfg.Queue, Logger: logger}
	}

	err = conn.Init()
	if err != nil {
		logger.Fatal().Err(err).Msg("Error setting up connection")
	}

	err = addAll(conn, flag.Args(), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to queue archives")
	}
}
