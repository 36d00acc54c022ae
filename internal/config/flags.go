package config

import (
	"flag"
	"fmt"
	"io"
)

// ParseClientFlags parses client command-line flags from args (not
// including the program or subcommand name). Remaining positional
// arguments are returned for the subcommand to interpret.
func ParseClientFlags(name string, args []string, output io.Writer) (*ClientConfig, []string, error) {
	cfg := DefaultClientConfig()

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintf(output, `clipstream - terminal video streaming client

Usage:
  clipstream [flags] play <video-id>
  clipstream [flags] upload <file>
  clipstream [flags] list

Flags:
`)
		fs.PrintDefaults()
	}

	// Backend
	fs.StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Backend base URL")

	// Playback
	fs.StringVar(&cfg.Quality, "quality", cfg.Quality, `Quality selector: "auto", "low", "medium", "high"`)
	fs.DurationVar(&cfg.IndicatorDebounce, "debounce", cfg.IndicatorDebounce, "Buffering indicator debounce")
	fs.Float64Var(&cfg.StallSpeed, "stall-speed", cfg.StallSpeed, "Playback speed below which a stall is suspected")
	fs.DurationVar(&cfg.StallAfter, "stall-after", cfg.StallAfter, "How long low speed must persist before reporting a stall")

	// Stats polling
	fs.DurationVar(&cfg.StatsInterval, "stats-interval", cfg.StatsInterval, "Stream stats poll interval")
	fs.DurationVar(&cfg.StatsWindow, "stats-window", cfg.StatsWindow, "Rolling window for bitrate percentiles")

	// FFmpeg
	fs.StringVar(&cfg.FFmpegPath, "ffmpeg", cfg.FFmpegPath, "Path to FFmpeg binary")

	// Observability
	fs.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "Prometheus metrics address (empty = disabled)")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Verbose logging")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, `Log format: "json" or "text"`)

	// Dashboard
	fs.BoolVar(&cfg.TUIEnabled, "tui", cfg.TUIEnabled, "Enable live terminal dashboard (use -tui=false to disable)")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return cfg, fs.Args(), nil
}

// ParseServerFlags parses server command-line flags from args.
func ParseServerFlags(name string, args []string, output io.Writer) (*ServerConfig, error) {
	cfg := DefaultServerConfig()

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintf(output, `clipstreamd - clipstream backend server

Usage:
  clipstreamd [flags]

Flags:
`)
		fs.PrintDefaults()
	}

	// HTTP
	fs.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "HTTP listen address")

	// Storage
	fs.StringVar(&cfg.VideoDir, "data-dir", cfg.VideoDir, "Directory for uploads and renditions")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite index path")

	// Transcoding
	fs.StringVar(&cfg.FFmpegPath, "ffmpeg", cfg.FFmpegPath, "Path to FFmpeg binary")
	fs.StringVar(&cfg.FFprobePath, "ffprobe", cfg.FFprobePath, "Path to ffprobe binary (empty = skip probing)")
	fs.IntVar(&cfg.QueueSize, "queue", cfg.QueueSize, "Transcode queue capacity")
	fs.IntVar(&cfg.MaxAttempts, "max-attempts", cfg.MaxAttempts, "Transcode attempts per rendition")

	// Observability
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Verbose logging")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, `Log format: "json" or "text"`)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cfg, nil
}
