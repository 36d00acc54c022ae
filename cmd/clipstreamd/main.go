// Package main provides the clipstreamd entry point.
//
// clipstreamd is the clipstream backend: it accepts uploads, transcodes
// quality renditions in the background, and serves range-capable video
// streams with live per-video stats.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/clipstream/clipstream/internal/config"
	"github.com/clipstream/clipstream/internal/logging"
	"github.com/clipstream/clipstream/internal/media"
	"github.com/clipstream/clipstream/internal/metrics"
	"github.com/clipstream/clipstream/internal/server"
	"github.com/clipstream/clipstream/internal/store"
	"github.com/clipstream/clipstream/internal/transcode"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0" ./cmd/clipstreamd
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) > 1 {
		arg := os.Args[1]
		if arg == "-version" || arg == "--version" || arg == "version" {
			fmt.Printf("clipstreamd %s\n", version)
			return 0
		}
	}

	cfg, err := config.ParseServerFlags("clipstreamd", os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	logger := logging.NewLogger(cfg.LogFormat, "info", cfg.Verbose)
	logging.SetDefault(logger)

	if err := config.ValidateServer(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return 1
	}

	if err := os.MkdirAll(cfg.VideoDir, 0o755); err != nil {
		logger.Error("data_dir_create_failed", "dir", cfg.VideoDir, "error", err)
		return 1
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Error("store_open_failed", "path", cfg.DBPath, "error", err)
		return 1
	}
	defer db.Close()
	repo := store.NewRepo(db)

	// With -ffprobe left at its default, prefer the ffprobe that ships
	// alongside the configured ffmpeg binary.
	ffprobePath := cfg.FFprobePath
	if ffprobePath == config.DefaultServerConfig().FFprobePath {
		ffprobePath = media.FindFFprobe(cfg.FFmpegPath)
		if ffprobePath != cfg.FFprobePath {
			logger.Info("ffprobe_resolved", "path", ffprobePath)
		}
	}

	reg := prometheus.NewRegistry()
	collector := metrics.NewServerCollector(reg)

	backoff := transcode.DefaultBackoffConfig()
	backoff.Initial = cfg.BackoffInitial
	backoff.Max = cfg.BackoffMax
	backoff.Multiplier = cfg.BackoffMultiply

	worker := transcode.NewWorker(transcode.Config{
		FFmpegPath:  cfg.FFmpegPath,
		OutputDir:   cfg.VideoDir,
		QueueSize:   cfg.QueueSize,
		MaxAttempts: cfg.MaxAttempts,
		Backoff:     backoff,
		Repo:        repo,
		Metrics:     collector,
		Logger:      logger,
	})

	srv := server.New(server.Config{
		ListenAddr:   cfg.ListenAddr,
		VideoDir:     cfg.VideoDir,
		FFprobePath:  ffprobePath,
		Repo:         repo,
		Worker:       worker,
		Registry:     server.NewRegistry(collector),
		Metrics:      collector,
		PromRegistry: reg,
		Logger:       logger,
	})

	logger.Info("starting",
		"version", version,
		"listen", cfg.ListenAddr,
		"data_dir", cfg.VideoDir,
		"db", cfg.DBPath,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Run(ctx)
	}()

	if err := srv.Start(); err != nil {
		logger.Error("server_start_failed", "error", err)
		return 1
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_failed", "error", err)
	}

	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		logger.Warn("transcode_worker_shutdown_timeout")
	}

	logger.Info("stopped")
	return 0
}
