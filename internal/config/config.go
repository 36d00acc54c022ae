// Package config provides configuration management for the clipstream
// client and server binaries.
package config

import "time"

// ClientConfig holds all configuration options for the playback client.
type ClientConfig struct {
	// Backend
	ServerURL string `json:"server_url"`

	// Playback
	Quality           string        `json:"quality"` // auto, low, medium, high
	IndicatorDebounce time.Duration `json:"indicator_debounce"`
	StallSpeed        float64       `json:"stall_speed"`
	StallAfter        time.Duration `json:"stall_after"`

	// Stats polling
	StatsInterval time.Duration `json:"stats_interval"`
	StatsWindow   time.Duration `json:"stats_window"`

	// FFmpeg
	FFmpegPath string `json:"ffmpeg_path"`

	// Observability
	MetricsAddr string `json:"metrics_addr"` // empty = disabled
	Verbose     bool   `json:"verbose"`
	LogFormat   string `json:"log_format"` // json, text

	// Dashboard
	TUIEnabled bool `json:"tui"`
}

// DefaultClientConfig returns a ClientConfig with sensible defaults.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		ServerURL: "http://localhost:8085",

		Quality:           "auto",
		IndicatorDebounce: 500 * time.Millisecond,
		StallSpeed:        0.9,
		StallAfter:        2 * time.Second,

		StatsInterval: 5 * time.Second,
		StatsWindow:   60 * time.Second,

		FFmpegPath: "ffmpeg",

		MetricsAddr: "", // Disabled
		Verbose:     false,
		LogFormat:   "text",

		TUIEnabled: true,
	}
}

// ServerConfig holds all configuration options for the backend server.
type ServerConfig struct {
	// HTTP
	ListenAddr string `json:"listen_addr"`

	// Storage
	VideoDir string `json:"video_dir"`
	DBPath   string `json:"db_path"`

	// Transcoding
	FFmpegPath  string `json:"ffmpeg_path"`
	FFprobePath string `json:"ffprobe_path"`
	QueueSize   int    `json:"queue_size"`
	MaxAttempts int    `json:"max_attempts"`

	// Transcode retry policy
	BackoffInitial  time.Duration `json:"backoff_initial"`
	BackoffMax      time.Duration `json:"backoff_max"`
	BackoffMultiply float64       `json:"backoff_multiply"`

	// Observability
	Verbose   bool   `json:"verbose"`
	LogFormat string `json:"log_format"` // json, text
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ListenAddr: ":8085",

		VideoDir: "videos",
		DBPath:   "clipstream.db",

		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
		QueueSize:   32,
		MaxAttempts: 3,

		BackoffInitial:  250 * time.Millisecond,
		BackoffMax:      5 * time.Second,
		BackoffMultiply: 1.7,

		Verbose:   false,
		LogFormat: "json",
	}
}
