// Package statspoll periodically fetches per-video stream stats from the
// backend for the active playback session.
package statspoll

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/influxdata/tdigest"

	"github.com/clipstream/clipstream/internal/api"
	"github.com/clipstream/clipstream/internal/metrics"
)

const (
	// DefaultInterval is the poll cadence.
	DefaultInterval = 5 * time.Second

	// DefaultWindow is the rolling window for bitrate percentiles.
	DefaultWindow = 60 * time.Second
)

// Sink receives each successfully fetched stats document.
type Sink interface {
	UpdateStreamStats(stats api.StreamStats)
}

// Config holds stats poller dependencies and settings.
type Config struct {
	// Client fetches stats from the backend. Required.
	Client *api.Client

	// Interval between polls. Zero uses DefaultInterval.
	Interval time.Duration

	// Window bounds the bitrate percentile history. Zero uses
	// DefaultWindow.
	Window time.Duration

	// Sink receives fetched stats. Optional.
	Sink Sink

	// Metrics counts poll failures. Optional.
	Metrics *metrics.ClientCollector

	Logger *slog.Logger
}

type sample struct {
	value float64
	at    time.Time
}

// Poller polls stream stats for one target video at a fixed interval.
//
// A tick with no target is a no-op. A failed fetch is logged and skipped;
// the next tick retries. Bitrate samples feed a rolling t-digest so the
// dashboard can show p50 and max over the window.
type Poller struct {
	client    *api.Client
	interval  time.Duration
	window    time.Duration
	sink      Sink
	collector *metrics.ClientCollector
	logger    *slog.Logger

	mu      sync.Mutex
	target  string
	digest  *tdigest.TDigest
	samples []sample
}

// New creates a poller with no target.
func New(cfg Config) *Poller {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	window := cfg.Window
	if window <= 0 {
		window = DefaultWindow
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		client:    cfg.Client,
		interval:  interval,
		window:    window,
		sink:      cfg.Sink,
		collector: cfg.Metrics,
		logger:    logger,
		digest:    tdigest.New(),
	}
}

// Run polls until ctx is canceled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Debug("stats_poller_started", "interval", p.interval)
	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("stats_poller_stopped")
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// poll runs one tick.
func (p *Poller) poll(ctx context.Context) {
	target := p.Target()
	if target == "" {
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, p.interval)
	defer cancel()

	stats, err := p.client.StreamStats(fetchCtx, target)
	if err != nil {
		p.logger.Debug("stats_fetch_failed",
			"video_id", target,
			"error", err,
		)
		if p.collector != nil {
			p.collector.RecordPollFailure()
		}
		return
	}

	p.mu.Lock()
	// The target may have been cleared or switched while the fetch was
	// in flight. A stale result is dropped.
	if p.target != target {
		p.mu.Unlock()
		return
	}
	p.addSampleLocked(stats.AverageBitrate, time.Now())
	p.mu.Unlock()

	if p.sink != nil {
		p.sink.UpdateStreamStats(*stats)
	}
}

// SetTarget points the poller at a video and resets the sample window.
func (p *Poller) SetTarget(videoID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.target == videoID {
		return
	}
	p.target = videoID
	p.resetLocked()
	p.logger.Debug("stats_target_set", "video_id", videoID)
}

// ClearTarget stops polling until a new target is set.
func (p *Poller) ClearTarget() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.target == "" {
		return
	}
	p.target = ""
	p.resetLocked()
	p.logger.Debug("stats_target_cleared")
}

// Target returns the current target video ID, empty when idle.
func (p *Poller) Target() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.target
}

// BitrateQuantile returns the q quantile of bitrate samples in the window,
// or 0 with no samples.
func (p *Poller) BitrateQuantile(q float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.samples) == 0 {
		return 0
	}
	return p.digest.Quantile(q)
}

// BitrateMax returns the highest bitrate sample in the window.
func (p *Poller) BitrateMax() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	max := 0.0
	for _, s := range p.samples {
		if s.value > max {
			max = s.value
		}
	}
	return max
}

func (p *Poller) resetLocked() {
	p.digest = tdigest.New()
	p.samples = p.samples[:0]
}

// addSampleLocked records a bitrate sample, expiring samples older than the
// window. The t-digest cannot remove points, so expiry rebuilds it from the
// surviving samples.
func (p *Poller) addSampleLocked(value float64, now time.Time) {
	cutoff := now.Add(-p.window)

	if len(p.samples) > 0 && p.samples[0].at.Before(cutoff) {
		kept := p.samples[:0]
		for _, s := range p.samples {
			if !s.at.Before(cutoff) {
				kept = append(kept, s)
			}
		}
		p.samples = kept
		p.digest = tdigest.New()
		for _, s := range p.samples {
			p.digest.Add(s.value, 1)
		}
	}

	p.samples = append(p.samples, sample{value: value, at: now})
	p.digest.Add(value, 1)
}
