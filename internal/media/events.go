// Package media abstracts the playback media element.
//
// An Element plays a stream URL and reports lifecycle events through a
// callback. The production implementation spawns FFmpeg and derives events
// from its -progress pipe:1 output; tests substitute a scripted element.
package media

import (
	"context"
	"errors"
	"time"
)

// EventKind identifies a media element event.
type EventKind int

const (
	// EventCanPlay fires once, when the element has enough data to begin.
	EventCanPlay EventKind = iota

	// EventPlaying fires when playback starts or resumes after a stall.
	EventPlaying

	// EventWaiting fires when playback stalls on buffering.
	EventWaiting

	// EventProgress fires periodically while data is being consumed.
	EventProgress

	// EventEnded fires when the stream finishes normally.
	EventEnded

	// EventError fires when playback fails. Err is set.
	EventError
)

// String returns the event name.
func (k EventKind) String() string {
	switch k {
	case EventCanPlay:
		return "canplay"
	case EventPlaying:
		return "playing"
	case EventWaiting:
		return "waiting"
	case EventProgress:
		return "progress"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a single media element notification.
type Event struct {
	Kind EventKind

	// Position is the playback position. Set on progress events.
	Position time.Duration

	// Bytes is the cumulative byte count consumed. Set on progress events.
	Bytes int64

	// Speed is the playback speed relative to realtime (1.0 = realtime).
	// Set on progress events.
	Speed float64

	// Err is set on error events.
	Err error
}

// Sentinel errors carried by error events. Callers classify failures with
// errors.Is.
var (
	// ErrLoadFailed indicates the source could not be fetched (unreachable
	// server, missing video, network failure).
	ErrLoadFailed = errors.New("media source unavailable")

	// ErrRejected indicates the source was fetched but could not be played
	// (unsupported or corrupt media).
	ErrRejected = errors.New("media playback rejected")
)

// Handle controls one running playback.
type Handle interface {
	// Stop terminates playback and blocks until the element has shut down.
	// No events are delivered after Stop returns. Safe to call more than
	// once.
	Stop()
}

// Element starts media playback for a stream URL.
type Element interface {
	// Start begins playback and reports events via onEvent until the
	// stream ends, fails, or the handle is stopped. onEvent is called
	// from a single goroutine. A non-nil error means playback could not
	// be initiated at all.
	Start(ctx context.Context, url string, onEvent func(Event)) (Handle, error)
}
