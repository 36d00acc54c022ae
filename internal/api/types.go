// Package api provides the HTTP client and wire types for the clipstream
// backend surface.
package api

import "fmt"

// Quality selects a stream rendition. QualityAuto streams the original file
// and never appears in a stream URL query.
type Quality string

const (
	QualityAuto   Quality = "auto"
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
)

// ParseQuality validates a quality selector string.
func ParseQuality(s string) (Quality, error) {
	switch Quality(s) {
	case QualityAuto, QualityLow, QualityMedium, QualityHigh:
		return Quality(s), nil
	}
	return "", fmt.Errorf("unknown quality %q (want auto, low, medium, or high)", s)
}

// String implements fmt.Stringer.
func (q Quality) String() string {
	return string(q)
}

// Video describes one entry in the video index.
type Video struct {
	ID       string        `json:"id"`
	Filename string        `json:"filename"`
	Size     int64         `json:"size"`
	Metadata VideoMetadata `json:"metadata"`
}

// VideoMetadata carries probed media attributes.
type VideoMetadata struct {
	Duration float64 `json:"duration,omitempty"`
}

// StreamStats is the per-video stats document served by the backend.
type StreamStats struct {
	VideoID          string  `json:"video_id"`
	ActiveStreams    int     `json:"active_streams"`
	TotalBytesServed int64   `json:"total_bytes_served"`
	AverageBitrate   float64 `json:"average_bitrate"`
}

// UploadResult is the backend's response to a successful upload.
type UploadResult struct {
	Status   string `json:"status"`
	VideoID  string `json:"video_id"`
	Filename string `json:"filename"`
	Message  string `json:"message,omitempty"`
}

type videosResponse struct {
	Videos []Video `json:"videos"`
}
