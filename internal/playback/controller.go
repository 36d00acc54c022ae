package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/clipstream/clipstream/internal/api"
	"github.com/clipstream/clipstream/internal/media"
	"github.com/clipstream/clipstream/internal/metrics"
)

// StatsTarget is where the controller points the stats poller.
type StatsTarget interface {
	// SetTarget starts polling stats for the video.
	SetTarget(videoID string)

	// ClearTarget stops polling. Later ticks are no-ops.
	ClearTarget()
}

// Display receives playback state for rendering. Implementations must be
// safe to call from the media event goroutine.
type Display interface {
	// SetLoading toggles the buffering indicator.
	SetLoading(visible bool)

	// SetNowPlaying announces the active video.
	SetNowPlaying(videoID, displayName string, quality api.Quality)

	// SetOverlayVisible toggles the stats overlay.
	SetOverlayVisible(visible bool)

	// SetProgress reports the playback position and bytes fetched.
	SetProgress(position time.Duration, bytes int64)

	// Notify surfaces a user-facing message.
	Notify(message string)
}

// ControllerConfig holds playback controller dependencies and settings.
type ControllerConfig struct {
	// Element plays stream URLs. Required.
	Element media.Element

	// API builds stream URLs for the backend. Required.
	API *api.Client

	// Stats is the poller retargeted per session. Optional.
	Stats StatsTarget

	// Display renders playback state. Optional.
	Display Display

	// Metrics records session counters. Optional.
	Metrics *metrics.ClientCollector

	// Quality is the initial quality selector. Empty means auto.
	Quality api.Quality

	// Debounce is the loading indicator delay. Zero uses DefaultDebounce.
	Debounce time.Duration

	Logger *slog.Logger
}

// session is one playback attempt. Its token is compared against the
// controller generation, so callbacks from a superseded session no-op even
// if the element delivers them late.
type session struct {
	token       uint64
	videoID     string
	displayName string
	quality     api.Quality
	handle      media.Handle
}

// Controller owns the playback session lifecycle: at most one session is
// active, and starting a new one always tears the previous one down first.
type Controller struct {
	element   media.Element
	apiClient *api.Client
	stats     StatsTarget
	display   Display
	collector *metrics.ClientCollector
	logger    *slog.Logger
	indicator *Indicator

	// gen invalidates event callbacks. Bumped on every teardown and on
	// every new session.
	gen atomic.Uint64

	// opMu serializes Play, ChangeQuality, and Teardown.
	opMu sync.Mutex

	mu      sync.Mutex
	current *session
	quality api.Quality
}

// NewController creates a playback controller with no active session.
func NewController(cfg ControllerConfig) (*Controller, error) {
	if cfg.Element == nil {
		return nil, errors.New("playback: Element is required")
	}
	if cfg.API == nil {
		return nil, errors.New("playback: API is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	quality := cfg.Quality
	if quality == "" {
		quality = api.QualityAuto
	}

	c := &Controller{
		element:   cfg.Element,
		apiClient: cfg.API,
		stats:     cfg.Stats,
		display:   cfg.Display,
		collector: cfg.Metrics,
		logger:    logger,
		quality:   quality,
	}

	c.indicator = NewIndicator(IndicatorConfig{
		Delay:  cfg.Debounce,
		Logger: logger,
		OnShow: func() {
			if c.display != nil {
				c.display.SetLoading(true)
			}
			if c.collector != nil {
				c.collector.RecordIndicatorShow()
			}
		},
		OnHide: func() {
			if c.display != nil {
				c.display.SetLoading(false)
			}
		},
	})

	return c, nil
}

// Play starts a session for videoID, tearing down any previous session
// first. It blocks until the element reports it can play, the element
// fails, or ctx is canceled.
func (c *Controller) Play(ctx context.Context, videoID, displayName string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.play(ctx, videoID, displayName)
}

func (c *Controller) play(ctx context.Context, videoID, displayName string) error {
	c.teardown()

	token := c.gen.Add(1)
	quality := c.Quality()
	url := c.apiClient.StreamURL(videoID, quality)

	c.logger.Info("session_starting",
		"video_id", videoID,
		"quality", quality.String(),
		"url", url,
	)

	// The first canplay or error resolves Play; anything after that is
	// surfaced by the event handler itself.
	var resolveOnce sync.Once
	resolved := make(chan error, 1)
	report := func(err error) bool {
		delivered := false
		resolveOnce.Do(func() {
			resolved <- err
			delivered = true
		})
		return delivered
	}

	onEvent := func(ev media.Event) {
		c.handleEvent(token, videoID, ev, report)
	}

	// Register the session before starting the element: a terminal event
	// can be delivered before Start returns control, and finishSession
	// must find the session it is ending. The handle is filled in below.
	sess := &session{
		token:       token,
		videoID:     videoID,
		displayName: displayName,
		quality:     quality,
	}
	c.mu.Lock()
	c.current = sess
	c.mu.Unlock()

	handle, err := c.element.Start(ctx, url, onEvent)
	if err != nil {
		c.mu.Lock()
		if c.current == sess {
			c.current = nil
		}
		c.mu.Unlock()
		perr := &Error{Kind: MediaLoadFailed, VideoID: videoID, Err: err}
		c.notifyFailure(perr)
		return perr
	}

	c.mu.Lock()
	alive := c.current == sess
	if alive {
		sess.handle = handle
	}
	c.mu.Unlock()
	if !alive {
		// The session ended during startup. finishSession already ran its
		// cleanup but had no handle to stop yet.
		handle.Stop()
	}

	select {
	case err := <-resolved:
		if err != nil {
			c.finishSession(token)
			var perr *Error
			if !errors.As(err, &perr) {
				perr = classifyMediaError(videoID, err)
			}
			c.notifyFailure(perr)
			return perr
		}
	case <-ctx.Done():
		c.finishSession(token)
		return ctx.Err()
	}

	// The session may have ended right after canplay resolved. The overlay
	// hide in finishSession runs under mu, so showing it under the same
	// lock only while the session is still current keeps the two ordered.
	c.mu.Lock()
	if c.current != sess {
		c.mu.Unlock()
		c.logger.Info("session_ended_at_start", "video_id", videoID)
		return nil
	}
	if c.stats != nil {
		c.stats.SetTarget(videoID)
	}
	if c.display != nil {
		c.display.SetNowPlaying(videoID, displayName, quality)
		c.display.SetOverlayVisible(true)
	}
	c.mu.Unlock()

	c.logger.Info("session_started",
		"video_id", videoID,
		"quality", quality.String(),
	)

	if c.collector != nil {
		c.collector.RecordSessionStart()
	}
	return nil
}

// ChangeQuality records the new selector and, when a session is active,
// replays the current video with it. Without a session it only records
// the selector.
func (c *Controller) ChangeQuality(ctx context.Context, q api.Quality) error {
	c.opMu.Lock()

	c.mu.Lock()
	c.quality = q
	sess := c.current
	var videoID, displayName string
	if sess != nil {
		videoID = sess.videoID
		displayName = sess.displayName
	}
	c.mu.Unlock()

	c.logger.Info("quality_selected", "quality", q.String())

	if sess == nil {
		c.opMu.Unlock()
		return nil
	}

	if c.collector != nil {
		c.collector.RecordQualitySwitch()
	}
	defer c.opMu.Unlock()
	return c.play(ctx, videoID, displayName)
}

// Teardown stops the active session, cancels the indicator, and clears the
// poller target. Idempotent.
func (c *Controller) Teardown() {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.teardown()
}

func (c *Controller) teardown() {
	// Invalidate callbacks before stopping anything, so in-flight events
	// from the old session cannot touch the new one.
	c.gen.Add(1)

	c.mu.Lock()
	sess := c.current
	c.current = nil
	c.mu.Unlock()

	if sess != nil {
		if sess.handle != nil {
			sess.handle.Stop()
		}
		c.logger.Info("session_stopped", "video_id", sess.videoID)
	}

	c.indicator.Teardown()
	if c.stats != nil {
		c.stats.ClearTarget()
	}
	if c.display != nil && sess != nil {
		c.display.SetOverlayVisible(false)
	}
}

// finishSession tears down one specific session. A token mismatch means a
// newer session replaced it and nothing happens.
func (c *Controller) finishSession(token uint64) {
	c.mu.Lock()
	sess := c.current
	if sess == nil || sess.token != token {
		c.mu.Unlock()
		return
	}
	c.current = nil
	handle := sess.handle
	if c.display != nil {
		c.display.SetOverlayVisible(false)
	}
	c.mu.Unlock()

	c.gen.Add(1)
	if handle != nil {
		// A nil handle means the session ended before Start returned; the
		// caller in play stops the handle once it has one.
		handle.Stop()
	}
	c.indicator.Teardown()

	if c.stats != nil {
		c.stats.ClearTarget()
	}
	c.logger.Info("session_stopped", "video_id", sess.videoID)
}

// handleEvent is the per-session media event callback.
func (c *Controller) handleEvent(token uint64, videoID string, ev media.Event, report func(error) bool) {
	if c.gen.Load() != token {
		return
	}

	switch ev.Kind {
	case media.EventCanPlay:
		c.indicator.CanPlay()
		report(nil)

	case media.EventPlaying:
		c.indicator.Playing()

	case media.EventWaiting:
		c.indicator.Waiting()
		if c.collector != nil {
			c.collector.RecordStall()
		}

	case media.EventProgress:
		if c.display != nil {
			c.display.SetProgress(ev.Position, ev.Bytes)
		}
		if c.collector != nil {
			c.collector.SetPlaybackProgress(ev.Position.Seconds(), ev.Bytes)
		}

	case media.EventEnded:
		earlyEnd := &Error{
			Kind:    MediaRejected,
			VideoID: videoID,
			Err:     errors.New("stream ended before playback began"),
		}
		if report(earlyEnd) {
			return
		}
		c.logger.Info("session_ended", "video_id", videoID)
		if c.display != nil {
			c.display.Notify(fmt.Sprintf("Finished playing %s", videoID))
		}
		go c.finishSession(token)

	case media.EventError:
		perr := classifyMediaError(videoID, ev.Err)
		if report(perr) {
			// Play surfaces the failure.
			return
		}
		c.logger.Warn("session_error", "video_id", videoID, "error", perr)
		c.notifyFailure(perr)
		go c.finishSession(token)
	}
}

// notifyFailure surfaces a terminal failure to the display and metrics.
func (c *Controller) notifyFailure(perr *Error) {
	c.logger.Warn("session_failed",
		"video_id", perr.VideoID,
		"kind", perr.Kind.String(),
		"error", perr.Err,
	)
	if c.display != nil {
		c.display.Notify(perr.Error())
	}
	if c.collector != nil {
		c.collector.RecordSessionFailure(perr.Kind.String())
	}
}

// Quality returns the current quality selector.
func (c *Controller) Quality() api.Quality {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quality
}

// Active returns the active video ID, if any.
func (c *Controller) Active() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return "", false
	}
	return c.current.videoID, true
}

// Indicator exposes the loading indicator, mainly for state inspection.
func (c *Controller) Indicator() *Indicator {
	return c.indicator
}
