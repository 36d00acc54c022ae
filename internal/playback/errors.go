// Package playback implements the playback session controller and the
// debounced loading indicator.
package playback

import (
	"errors"
	"fmt"

	"github.com/clipstream/clipstream/internal/media"
)

// FailureKind classifies why a playback session failed.
type FailureKind int

const (
	// MediaLoadFailed means the stream source could not be fetched.
	MediaLoadFailed FailureKind = iota

	// MediaRejected means the source was fetched but could not be played.
	MediaRejected
)

// String returns the failure kind name.
func (k FailureKind) String() string {
	switch k {
	case MediaLoadFailed:
		return "media_load_failed"
	case MediaRejected:
		return "media_rejected"
	default:
		return "unknown"
	}
}

// Error is a terminal playback failure surfaced to the user.
type Error struct {
	Kind    FailureKind
	VideoID string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("playback of %s failed (%s): %v", e.VideoID, e.Kind, e.Err)
	}
	return fmt.Sprintf("playback of %s failed (%s)", e.VideoID, e.Kind)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// classifyMediaError maps a media element error onto the failure taxonomy.
func classifyMediaError(videoID string, err error) *Error {
	kind := MediaRejected
	if errors.Is(err, media.ErrLoadFailed) {
		kind = MediaLoadFailed
	}
	return &Error{Kind: kind, VideoID: videoID, Err: err}
}
