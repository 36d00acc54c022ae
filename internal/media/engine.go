package media

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"
)

const (
	// DefaultStallSpeed is the realtime multiple below which playback
	// counts as stalling.
	DefaultStallSpeed = 0.9

	// DefaultStallAfter is how long speed must stay below the threshold
	// before a waiting event fires.
	DefaultStallAfter = 2 * time.Second
)

// EngineConfig holds FFmpeg playback engine settings.
type EngineConfig struct {
	// FFmpegPath is the ffmpeg binary path.
	FFmpegPath string

	// UserAgent is sent on HTTP stream requests.
	UserAgent string

	// StallSpeed is the speed threshold for stall detection.
	StallSpeed float64

	// StallAfter is the sustain period for stall detection.
	StallAfter time.Duration
}

// DefaultEngineConfig returns an EngineConfig with sensible defaults.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		FFmpegPath: "ffmpeg",
		UserAgent:  "clipstream/1.0",
		StallSpeed: DefaultStallSpeed,
		StallAfter: DefaultStallAfter,
	}
}

// Engine is the production Element. It plays a stream URL by running FFmpeg
// with a null sink at realtime read rate and deriving events from the
// -progress output.
type Engine struct {
	cfg    *EngineConfig
	logger *slog.Logger
}

// NewEngine creates an FFmpeg playback engine.
func NewEngine(cfg *EngineConfig, logger *slog.Logger) *Engine {
	if cfg == nil {
		cfg = DefaultEngineConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{cfg: cfg, logger: logger}
}

type playback struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Stop kills the FFmpeg process and waits for the event goroutine to drain.
func (p *playback) Stop() {
	p.cancel()
	<-p.done
}

// Start implements Element.
func (e *Engine) Start(ctx context.Context, url string, onEvent func(Event)) (Handle, error) {
	runCtx, cancel := context.WithCancel(ctx)

	cmd := exec.CommandContext(runCtx, e.cfg.FFmpegPath, e.buildArgs(url)...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	e.logger.Debug("playback_started",
		"url", url,
		"pid", cmd.Process.Pid,
	)

	errLines := newStderrBuffer(e.logger)
	go errLines.consume(stderr)

	done := make(chan struct{})
	go func() {
		defer close(done)

		trk := newTracker(onEvent, e.cfg.StallSpeed, e.cfg.StallAfter)
		parser := newProgressParser(trk.handle)

		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			parser.parseLine(scanner.Text())
		}

		waitErr := cmd.Wait()

		// Deliberate stop: the handle owns teardown, no terminal event.
		if runCtx.Err() != nil {
			return
		}

		if waitErr != nil {
			classified := classifyExit(errLines.recent(), waitErr, trk.startedOK())
			e.logger.Warn("playback_failed",
				"url", url,
				"error", classified,
			)
			trk.finish(classified)
			return
		}

		e.logger.Debug("playback_ended", "url", url)
		trk.finish(nil)
	}()

	return &playback{cancel: cancel, done: done}, nil
}

// buildArgs constructs the FFmpeg invocation. The stream is decoded at
// realtime read rate into a null sink, which makes FFmpeg behave like a
// player without writing output anywhere.
func (e *Engine) buildArgs(url string) []string {
	args := []string{
		"-hide_banner",
		"-nostdin",
		"-loglevel", "warning",
		"-progress", "pipe:1",
		"-stats_period", "1",
		"-readrate", "1.0",
	}
	if e.cfg.UserAgent != "" {
		args = append(args, "-user_agent", e.cfg.UserAgent)
	}
	args = append(args,
		"-i", url,
		"-map", "0",
		"-c", "copy",
		"-f", "null", "-",
	)
	return args
}
