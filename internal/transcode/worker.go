package transcode

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/clipstream/clipstream/internal/api"
	"github.com/clipstream/clipstream/internal/metrics"
	"github.com/clipstream/clipstream/internal/store"
)

const (
	// DefaultQueueSize bounds the pending job queue.
	DefaultQueueSize = 32

	// DefaultMaxAttempts bounds retries per job.
	DefaultMaxAttempts = 3
)

// Job is one rendition to produce.
type Job struct {
	VideoID    string
	SourcePath string
	Profile    Profile
}

// Config holds transcode worker dependencies and settings.
type Config struct {
	// FFmpegPath is the ffmpeg binary path.
	FFmpegPath string

	// OutputDir receives rendition files.
	OutputDir string

	// QueueSize bounds pending jobs. Zero uses DefaultQueueSize.
	QueueSize int

	// MaxAttempts bounds retries per job. Zero uses DefaultMaxAttempts.
	MaxAttempts int

	// Backoff configures retry delays. Zero values use defaults.
	Backoff BackoffConfig

	// Repo marks renditions ready. Required.
	Repo *store.Repo

	// Metrics counts job outcomes. Optional.
	Metrics *metrics.ServerCollector

	Logger *slog.Logger
}

// Worker consumes rendition jobs sequentially. A failed job leaves the
// rendition row unready, and the stream endpoint keeps serving the original.
type Worker struct {
	ffmpegPath  string
	outputDir   string
	maxAttempts int
	backoffCfg  BackoffConfig
	repo        *store.Repo
	collector   *metrics.ServerCollector
	logger      *slog.Logger

	jobs chan Job
}

// NewWorker creates a worker. Call Run to start consuming.
func NewWorker(cfg Config) *Worker {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	backoffCfg := cfg.Backoff
	if backoffCfg.Initial <= 0 {
		backoffCfg = DefaultBackoffConfig()
	}
	ffmpegPath := cfg.FFmpegPath
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		ffmpegPath:  ffmpegPath,
		outputDir:   cfg.OutputDir,
		maxAttempts: maxAttempts,
		backoffCfg:  backoffCfg,
		repo:        cfg.Repo,
		collector:   cfg.Metrics,
		logger:      logger,
		jobs:        make(chan Job, queueSize),
	}
}

// Enqueue adds one job without blocking. Returns false when the queue is
// full; the rendition stays unready and the original keeps serving.
func (w *Worker) Enqueue(job Job) bool {
	select {
	case w.jobs <- job:
		return true
	default:
		w.logger.Warn("transcode_queue_full",
			"video_id", job.VideoID,
			"quality", job.Profile.Quality.String(),
		)
		return false
	}
}

// EnqueueAll queues every profile for a video and returns how many fit.
func (w *Worker) EnqueueAll(videoID, sourcePath string) int {
	queued := 0
	for _, p := range Profiles() {
		if w.Enqueue(Job{VideoID: videoID, SourcePath: sourcePath, Profile: p}) {
			queued++
		}
	}
	return queued
}

// Run consumes jobs until ctx is canceled.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("transcode_worker_started", "ffmpeg", w.ffmpegPath)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("transcode_worker_stopped")
			return
		case job := <-w.jobs:
			w.runJob(ctx, job)
		}
	}
}

// runJob attempts one job with bounded retries.
func (w *Worker) runJob(ctx context.Context, job Job) {
	outPath := OutputPath(w.outputDir, job.VideoID, job.Profile.Quality)
	retry := newBackoff(jobSeed(job), w.backoffCfg)
	started := time.Now()

	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		err := w.transcodeOnce(ctx, job, outPath)
		if err == nil {
			if err := w.repo.MarkRenditionReady(ctx, job.VideoID, job.Profile.Quality.String(), outPath); err != nil {
				w.logger.Error("rendition_index_update_failed",
					"video_id", job.VideoID,
					"quality", job.Profile.Quality.String(),
					"error", err,
				)
				return
			}
			elapsed := time.Since(started)
			w.logger.Info("transcode_succeeded",
				"video_id", job.VideoID,
				"quality", job.Profile.Quality.String(),
				"attempts", attempt,
				"elapsed", elapsed,
			)
			if w.collector != nil {
				w.collector.RecordTranscode("success")
				w.collector.ObserveTranscodeDuration(elapsed.Seconds())
			}
			return
		}

		os.Remove(outPath)
		w.logger.Warn("transcode_attempt_failed",
			"video_id", job.VideoID,
			"quality", job.Profile.Quality.String(),
			"attempt", attempt,
			"error", err,
		)

		if attempt == w.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(retry.next()):
		}
	}

	w.logger.Error("transcode_failed",
		"video_id", job.VideoID,
		"quality", job.Profile.Quality.String(),
		"attempts", w.maxAttempts,
	)
	if w.collector != nil {
		w.collector.RecordTranscode("failure")
	}
}

// transcodeOnce runs a single ffmpeg invocation.
func (w *Worker) transcodeOnce(ctx context.Context, job Job, outPath string) error {
	args := buildArgs(job.SourcePath, outPath, job.Profile)
	cmd := exec.CommandContext(ctx, w.ffmpegPath, args...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, tail(output, 300))
	}
	return nil
}

// buildArgs constructs the scale/transcode invocation for one profile.
func buildArgs(sourcePath, outPath string, p Profile) []string {
	scale := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", p.Width, p.Height)
	return []string{
		"-hide_banner",
		"-nostdin",
		"-loglevel", "error",
		"-y",
		"-i", sourcePath,
		"-vf", scale,
		"-c:v", "libx264",
		"-preset", "fast",
		"-b:v", p.VideoBitrate,
		"-c:a", "aac",
		"-b:a", p.AudioBitrate,
		"-movflags", "+faststart",
		outPath,
	}
}

// OutputPath returns the rendition file path for a video and quality.
func OutputPath(dir, videoID string, q api.Quality) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.mp4", videoID, q))
}

// jobSeed derives a deterministic backoff seed from the job identity.
func jobSeed(job Job) int64 {
	h := fnv.New64a()
	h.Write([]byte(job.VideoID))
	h.Write([]byte(job.Profile.Quality))
	return int64(h.Sum64())
}

// tail returns the last n bytes of output as a string.
func tail(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[len(b)-n:])
}
