// Package metrics provides Prometheus metrics for clipstream.
//
// The playback client and the backend daemon each register their own
// collector on a private registry, exposed over the metrics Server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ClientCollector holds playback client metrics.
type ClientCollector struct {
	sessionsStarted   prometheus.Counter
	sessionsFailed    *prometheus.CounterVec
	qualitySwitches   prometheus.Counter
	stallEvents       prometheus.Counter
	indicatorShows    prometheus.Counter
	statsPollFailures prometheus.Counter
	uploads           *prometheus.CounterVec
	playbackPosition  prometheus.Gauge
	playbackBytes     prometheus.Gauge
}

// NewClientCollector creates the client metrics and registers them on reg.
func NewClientCollector(reg prometheus.Registerer) *ClientCollector {
	c := &ClientCollector{
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clipstream_client_sessions_started_total",
			Help: "Playback sessions that reached playing",
		}),
		sessionsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clipstream_client_sessions_failed_total",
			Help: "Playback sessions that failed, by failure kind",
		}, []string{"kind"}),
		qualitySwitches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clipstream_client_quality_switches_total",
			Help: "Quality selector changes while a session was active",
		}),
		stallEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clipstream_client_stall_events_total",
			Help: "Buffering stalls reported by the media element",
		}),
		indicatorShows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clipstream_client_indicator_shows_total",
			Help: "Times the loading indicator became visible",
		}),
		statsPollFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clipstream_client_stats_poll_failures_total",
			Help: "Stats poll ticks that failed and were skipped",
		}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clipstream_client_uploads_total",
			Help: "Upload attempts, by outcome",
		}, []string{"outcome"}),
		playbackPosition: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "clipstream_client_playback_position_seconds",
			Help: "Current playback position",
		}),
		playbackBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "clipstream_client_playback_bytes",
			Help: "Bytes fetched for the current session",
		}),
	}

	reg.MustRegister(
		c.sessionsStarted,
		c.sessionsFailed,
		c.qualitySwitches,
		c.stallEvents,
		c.indicatorShows,
		c.statsPollFailures,
		c.uploads,
		c.playbackPosition,
		c.playbackBytes,
	)
	return c
}

// RecordSessionStart counts a session that reached playing.
func (c *ClientCollector) RecordSessionStart() {
	c.sessionsStarted.Inc()
}

// RecordSessionFailure counts a failed session by kind.
func (c *ClientCollector) RecordSessionFailure(kind string) {
	c.sessionsFailed.WithLabelValues(kind).Inc()
}

// RecordQualitySwitch counts a quality change on an active session.
func (c *ClientCollector) RecordQualitySwitch() {
	c.qualitySwitches.Inc()
}

// RecordStall counts a buffering stall.
func (c *ClientCollector) RecordStall() {
	c.stallEvents.Inc()
}

// RecordIndicatorShow counts the loading indicator becoming visible.
func (c *ClientCollector) RecordIndicatorShow() {
	c.indicatorShows.Inc()
}

// RecordPollFailure counts a skipped stats poll tick.
func (c *ClientCollector) RecordPollFailure() {
	c.statsPollFailures.Inc()
}

// RecordUpload counts an upload attempt by outcome.
func (c *ClientCollector) RecordUpload(outcome string) {
	c.uploads.WithLabelValues(outcome).Inc()
}

// SetPlaybackProgress updates the position and byte gauges.
func (c *ClientCollector) SetPlaybackProgress(positionSeconds float64, bytes int64) {
	c.playbackPosition.Set(positionSeconds)
	c.playbackBytes.Set(float64(bytes))
}
