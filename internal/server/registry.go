// Package server implements the clipstream backend HTTP surface.
package server

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/clipstream/clipstream/internal/metrics"
)

// StreamHandle is one open viewer connection. Bytes are added as the
// response streams so stats reflect in-flight transfers.
type StreamHandle struct {
	registry *Registry
	id       uint64
	videoID  string
	started  time.Time
	bytes    atomic.Int64
	closed   atomic.Bool
}

// Add counts bytes written to the viewer.
func (h *StreamHandle) Add(n int64) {
	h.bytes.Add(n)
}

// Close removes the stream from the registry and folds its byte count into
// the per-video total. Safe to call more than once.
func (h *StreamHandle) Close() {
	if !h.closed.CompareAndSwap(false, true) {
		return
	}

	r := h.registry
	served := h.bytes.Load()

	r.mu.Lock()
	delete(r.streams, h.id)
	r.totals[h.videoID] += served
	active := len(r.streams)
	r.mu.Unlock()

	if r.collector != nil {
		r.collector.SetActiveStreams(active)
		r.collector.AddBytesServed(served)
	}
}

// Registry tracks open viewer streams per video and serves the numbers
// behind the stats endpoint.
type Registry struct {
	collector *metrics.ServerCollector

	// now is injectable for tests.
	now func() time.Time

	mu      sync.Mutex
	nextID  uint64
	streams map[uint64]*StreamHandle
	totals  map[string]int64
}

// NewRegistry creates an empty registry.
func NewRegistry(collector *metrics.ServerCollector) *Registry {
	return &Registry{
		collector: collector,
		now:       time.Now,
		streams:   make(map[uint64]*StreamHandle),
		totals:    make(map[string]int64),
	}
}

// Open registers a new viewer stream for videoID.
func (r *Registry) Open(videoID string) *StreamHandle {
	r.mu.Lock()
	r.nextID++
	h := &StreamHandle{
		registry: r,
		id:       r.nextID,
		videoID:  videoID,
		started:  r.now(),
	}
	r.streams[h.id] = h
	active := len(r.streams)
	r.mu.Unlock()

	if r.collector != nil {
		r.collector.SetActiveStreams(active)
	}
	return h
}

// Stats returns the viewer count, cumulative bytes served, and the average
// bitrate (8 x bytes / elapsed, averaged across open streams) for a video.
func (r *Registry) Stats(videoID string) (active int, totalBytes int64, averageBitrate float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	totalBytes = r.totals[videoID]
	now := r.now()

	rateSum := 0.0
	rated := 0
	for _, h := range r.streams {
		if h.videoID != videoID {
			continue
		}
		active++
		served := h.bytes.Load()
		totalBytes += served

		elapsed := now.Sub(h.started).Seconds()
		if elapsed > 0 {
			rateSum += 8 * float64(served) / elapsed
			rated++
		}
	}

	if rated > 0 {
		averageBitrate = rateSum / float64(rated)
	}
	return active, totalBytes, averageBitrate
}

// ActiveCount returns the number of open streams across all videos.
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.streams)
}
