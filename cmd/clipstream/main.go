// Package main provides the clipstream CLI entry point.
//
// clipstream is a terminal video streaming client: it plays videos from a
// clipstream backend through FFmpeg, uploads new ones, and lists the
// library.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/clipstream/clipstream/internal/api"
	"github.com/clipstream/clipstream/internal/config"
	"github.com/clipstream/clipstream/internal/format"
	"github.com/clipstream/clipstream/internal/logging"
	"github.com/clipstream/clipstream/internal/media"
	"github.com/clipstream/clipstream/internal/metrics"
	"github.com/clipstream/clipstream/internal/playback"
	"github.com/clipstream/clipstream/internal/statspoll"
	"github.com/clipstream/clipstream/internal/tui"
	"github.com/clipstream/clipstream/internal/upload"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0" ./cmd/clipstream
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// Handle version flag early (before flag parsing)
	if len(os.Args) > 1 {
		arg := os.Args[1]
		if arg == "-version" || arg == "--version" || arg == "version" {
			fmt.Printf("clipstream %s\n", version)
			return 0
		}
	}

	cfg, args, err := config.ParseClientFlags("clipstream", os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if err := config.ValidateClient(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return 1
	}

	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: clipstream [flags] <play|upload|list> ...")
		return 2
	}
	command := args[0]

	// The dashboard owns the terminal during playback; logs would corrupt
	// its rendering.
	var logger *slog.Logger
	if command == "play" && cfg.TUIEnabled {
		logger = logging.NewLoggerWithWriter(io.Discard, "json", "info")
	} else {
		logger = logging.NewLogger(cfg.LogFormat, "info", cfg.Verbose)
	}
	logging.SetDefault(logger)

	client := api.NewClient(cfg.ServerURL, 10*time.Second, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case "play":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: clipstream [flags] play <video-id>")
			return 2
		}
		return runPlay(ctx, cfg, client, logger, args[1])

	case "upload":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: clipstream [flags] upload <file>")
			return 2
		}
		return runUpload(ctx, client, logger, args[1], os.Stdout)

	case "list":
		return runList(ctx, client)

	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q (want play, upload, or list)\n", command)
		return 2
	}
}

// runPlay wires the playback stack: FFmpeg engine, stats poller, playback
// controller, and (unless disabled) the terminal dashboard.
func runPlay(ctx context.Context, cfg *config.ClientConfig, client *api.Client, logger *slog.Logger, videoID string) int {
	quality, err := api.ParseQuality(cfg.Quality)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return 1
	}

	var collector *metrics.ClientCollector
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		collector = metrics.NewClientCollector(reg)

		msrv := metrics.NewServer(cfg.MetricsAddr, reg, logger)
		if err := msrv.Start(); err != nil {
			logger.Error("metrics_server_start_failed", "error", err)
			return 1
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			msrv.Shutdown(shutdownCtx)
		}()
	}

	engineCfg := media.DefaultEngineConfig()
	engineCfg.FFmpegPath = cfg.FFmpegPath
	engineCfg.StallSpeed = cfg.StallSpeed
	engineCfg.StallAfter = cfg.StallAfter
	engine := media.NewEngine(engineCfg, logger)

	if !cfg.TUIEnabled {
		return runPlayHeadless(ctx, cfg, client, engine, collector, logger, videoID, quality)
	}

	// The model needs the poller for overlay percentiles, the poller needs
	// the display, and the display needs the program built from the model.
	// The display starts unattached and the controller is late-bound to
	// break the cycle; quality keys are inert until Play wires it.
	var controller *playback.Controller

	display := tui.NewProgramDisplay()
	poller := statspoll.New(statspoll.Config{
		Client:   client,
		Interval: cfg.StatsInterval,
		Window:   cfg.StatsWindow,
		Sink:     display,
		Metrics:  collector,
		Logger:   logger,
	})

	model := tui.New(tui.Config{
		ServerURL: cfg.ServerURL,
		Window:    poller,
		OnQuality: func(q api.Quality) {
			if controller == nil {
				return
			}
			if err := controller.ChangeQuality(ctx, q); err != nil {
				logger.Warn("quality_change_failed", "quality", q, "error", err)
			}
		},
	})
	program := tea.NewProgram(model, tea.WithAltScreen())
	display.Attach(program)

	controller, err = playback.NewController(playback.ControllerConfig{
		Element:  engine,
		API:      client,
		Stats:    poller,
		Display:  display,
		Metrics:  collector,
		Quality:  quality,
		Debounce: cfg.IndicatorDebounce,
		Logger:   logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	pollCtx, cancelPoll := context.WithCancel(ctx)
	defer cancelPoll()
	go poller.Run(pollCtx)

	go func() {
		if err := controller.Play(ctx, videoID, videoID); err != nil {
			program.Send(tui.NoticeMsg(err.Error()))
		}
	}()

	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Dashboard error: %v\n", err)
		controller.Teardown()
		return 1
	}

	controller.Teardown()
	return 0
}

// runPlayHeadless plays without the dashboard, logging events instead.
func runPlayHeadless(ctx context.Context, cfg *config.ClientConfig, client *api.Client, engine *media.Engine, collector *metrics.ClientCollector, logger *slog.Logger, videoID string, quality api.Quality) int {
	poller := statspoll.New(statspoll.Config{
		Client:   client,
		Interval: cfg.StatsInterval,
		Window:   cfg.StatsWindow,
		Metrics:  collector,
		Logger:   logger,
	})

	controller, err := playback.NewController(playback.ControllerConfig{
		Element:  engine,
		API:      client,
		Stats:    poller,
		Metrics:  collector,
		Quality:  quality,
		Debounce: cfg.IndicatorDebounce,
		Logger:   logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	go poller.Run(ctx)

	if err := controller.Play(ctx, videoID, videoID); err != nil {
		fmt.Fprintf(os.Stderr, "Playback error: %v\n", err)
		return 1
	}
	fmt.Printf("Playing %s (%s). Press Ctrl+C to stop.\n", videoID, quality)

	<-ctx.Done()
	controller.Teardown()
	return 0
}

// runUpload streams one file to the backend, printing progress.
func runUpload(ctx context.Context, client *api.Client, logger *slog.Logger, path string, out io.Writer) int {
	session := upload.NewSession(upload.Config{
		UploadURL: client.UploadURL(),
		OnProgress: func(fraction float64) {
			fmt.Fprintf(out, "\rUploading %s... %3.0f%%", path, fraction*100)
		},
		Logger: logger,
	})

	result, err := session.Submit(ctx, path)
	if err != nil {
		fmt.Fprintln(out)
		fmt.Fprintf(os.Stderr, "Upload failed: %v\n", err)
		return 1
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Uploaded %s as %q\n", result.Filename, result.VideoID)
	if result.Message != "" {
		fmt.Fprintln(out, result.Message)
	}
	return 0
}

// runList prints the backend's video library.
func runList(ctx context.Context, client *api.Client) int {
	listCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	videos, err := client.ListVideos(listCtx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "List failed: %v\n", err)
		return 1
	}

	if len(videos) == 0 {
		fmt.Println("No videos.")
		return 0
	}

	fmt.Printf("%-24s %-32s %10s %10s\n", "ID", "FILENAME", "SIZE", "DURATION")
	for _, v := range videos {
		duration := time.Duration(v.Metadata.Duration * float64(time.Second))
		fmt.Printf("%-24s %-32s %10s %10s\n",
			v.ID, v.Filename, format.Bytes(v.Size), format.Clock(duration))
	}
	return 0
}
