// Copyright 2019 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"rescribe.xyz/altotxt"
	"rescribe.xyz/altotxt/alto"
	"rescribe.xyz/altotxt/internal/pipeline"
)

const usage = `Usage: altotxtd [-v] [-config file] [-local dir] [-quit]

Watches the conversion queue for archive keys. When one is found
this general process is followed:

- The key is hidden from the queue, and a 'heartbeat' is started
  which keeps it hidden (this will time out after 2 minutes if the
  program is terminated)
- The archive is downloaded from storage
- The pages are extracted and converted to text, one sentence per
  line, along with any PDF or graph the config asks for
- The resulting files are uploaded next to the archive
- The heartbeat is stopped
- The key is removed from the queue

`

const QueueTimeoutSecs = 2 * 60
const PauseBetweenChecks = 1 * time.Minute
const LocalPauseBetweenChecks = 1 * time.Second

func main() {
	verbose := flag.Bool("v", false, "verbose")
	cfgpath := flag.String("config", "", "config file to use (default "+altotxt.DefaultConfigPath()+")")
	localdir := flag.String("local", "", "use a local directory for the queue and storage rather than the configured storage")
	quit := flag.Bool("quit", false, "quit once the queue is empty")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 0 {
		flag.Usage()
		os.Exit(2)
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

	var conn pipeline.Pipeliner
	pause := PauseBetweenChecks
	if *localdir != "" || cfg.Storage != "aws" {
		conn = &altotxt.LocalConn{TempDir: *localdir, Logger: logger}
		pause = LocalPauseBetweenChecks
	} else {
		conn = &altotxt.AwsConn{Region: cfg.Region, Bucket: cfg.Bucket, QueueName: cfg.Queue, Logger: logger}
	}

	conn.Log("Setting up session")
	err = conn.Init()
	if err != nil {
		logger.Fatal().Err(err).Msg("Error setting up connection")
	}
	conn.Log("Finished setting up session")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := pipeline.Options{
		Workers: cfg.Workers,
		Parser:  alto.Parser{Namespaces: cfg.Namespaces},
		PDF:     cfg.PDF,
		Graph:   cfg.Graph,
		Logger:  conn.GetLogger(),
	}

	checkQueue := time.After(0)
	for {
		select {
		case <-ctx.Done():
			conn.Log("Stopping")
			return
		case <-checkQueue:
		}

		msg, err := conn.CheckQueue(conn.ConvertQueueId(), QueueTimeoutSecs)
		checkQueue = time.After(pause)
		if err != nil {
			conn.Log("Error checking convert queue", err)
			continue
		}
		if msg.Handle == "" {
			if *quit {
				conn.Log("Convert queue is empty, quitting")
				return
			}
			conn.Log("No message received on convert queue, sleeping")
			continue
		}
		conn.Log("Message received on convert queue, processing", msg.Body)
		err = pipeline.ProcessArchive(ctx, msg, conn, opts)
		if err != nil {
			conn.Log("Error during conversion", err)
		}
		checkQueue = time.After(0)
	}
}
