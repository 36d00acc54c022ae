package config

import (
	"io"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// Tests: Defaults
// =============================================================================

func TestDefaultClientConfig(t *testing.T) {
	cfg := DefaultClientConfig()

	if cfg.ServerURL != "http://localhost:8085" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.Quality != "auto" {
		t.Errorf("Quality = %q, want auto", cfg.Quality)
	}
	if cfg.IndicatorDebounce != 500*time.Millisecond {
		t.Errorf("IndicatorDebounce = %v, want 500ms", cfg.IndicatorDebounce)
	}
	if cfg.StatsInterval != 5*time.Second {
		t.Errorf("StatsInterval = %v, want 5s", cfg.StatsInterval)
	}
	if cfg.StatsWindow != 60*time.Second {
		t.Errorf("StatsWindow = %v, want 60s", cfg.StatsWindow)
	}
	if !cfg.TUIEnabled {
		t.Error("TUIEnabled = false, want true")
	}

	if err := ValidateClient(cfg); err != nil {
		t.Errorf("default client config does not validate: %v", err)
	}
}

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()

	if cfg.ListenAddr != ":8085" {
		t.Errorf("ListenAddr = %q, want :8085", cfg.ListenAddr)
	}
	if cfg.QueueSize != 32 {
		t.Errorf("QueueSize = %d, want 32", cfg.QueueSize)
	}
	if cfg.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.MaxAttempts)
	}

	if err := ValidateServer(cfg); err != nil {
		t.Errorf("default server config does not validate: %v", err)
	}
}

// =============================================================================
// Tests: Flag Parsing
// =============================================================================

func TestParseClientFlags(t *testing.T) {
	cfg, args, err := ParseClientFlags("clipstream", []string{
		"-server", "http://example.com:9000",
		"-quality", "high",
		"-debounce", "250ms",
		"-stats-interval", "2s",
		"-stats-window", "30s",
		"-tui=false",
		"play", "demo",
	}, io.Discard)
	if err != nil {
		t.Fatalf("ParseClientFlags: %v", err)
	}

	if cfg.ServerURL != "http://example.com:9000" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.Quality != "high" {
		t.Errorf("Quality = %q, want high", cfg.Quality)
	}
	if cfg.IndicatorDebounce != 250*time.Millisecond {
		t.Errorf("IndicatorDebounce = %v, want 250ms", cfg.IndicatorDebounce)
	}
	if cfg.StatsInterval != 2*time.Second {
		t.Errorf("StatsInterval = %v, want 2s", cfg.StatsInterval)
	}
	if cfg.TUIEnabled {
		t.Error("TUIEnabled = true, want false")
	}

	if len(args) != 2 || args[0] != "play" || args[1] != "demo" {
		t.Errorf("positional args = %v, want [play demo]", args)
	}
}

func TestParseClientFlagsBadFlag(t *testing.T) {
	_, _, err := ParseClientFlags("clipstream", []string{"-no-such-flag"}, io.Discard)
	if err == nil {
		t.Error("unknown flag did not error")
	}
}

func TestParseServerFlags(t *testing.T) {
	cfg, err := ParseServerFlags("clipstreamd", []string{
		"-listen", ":9000",
		"-data-dir", "/srv/videos",
		"-db", "/srv/index.db",
		"-queue", "8",
		"-max-attempts", "5",
	}, io.Discard)
	if err != nil {
		t.Fatalf("ParseServerFlags: %v", err)
	}

	if cfg.ListenAddr != ":9000" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.VideoDir != "/srv/videos" {
		t.Errorf("VideoDir = %q", cfg.VideoDir)
	}
	if cfg.DBPath != "/srv/index.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.QueueSize != 8 {
		t.Errorf("QueueSize = %d, want 8", cfg.QueueSize)
	}
	if cfg.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want 5", cfg.MaxAttempts)
	}
}

// =============================================================================
// Tests: Validation
// =============================================================================

func TestValidateClient(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ClientConfig)
		wantErr string // substring, empty = valid
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *ClientConfig) {},
		},
		{
			name:    "missing server",
			mutate:  func(c *ClientConfig) { c.ServerURL = "" },
			wantErr: "server",
		},
		{
			name:    "bad scheme",
			mutate:  func(c *ClientConfig) { c.ServerURL = "ftp://example.com" },
			wantErr: "scheme",
		},
		{
			name:    "bad quality",
			mutate:  func(c *ClientConfig) { c.Quality = "ultra" },
			wantErr: "quality",
		},
		{
			name:    "zero debounce",
			mutate:  func(c *ClientConfig) { c.IndicatorDebounce = 0 },
			wantErr: "debounce",
		},
		{
			name:    "stall speed above 1",
			mutate:  func(c *ClientConfig) { c.StallSpeed = 1.5 },
			wantErr: "stall_speed",
		},
		{
			name:    "window shorter than 2 polls",
			mutate:  func(c *ClientConfig) { c.StatsWindow = 8 * time.Second },
			wantErr: "stats_window",
		},
		{
			name:    "bad log format",
			mutate:  func(c *ClientConfig) { c.LogFormat = "xml" },
			wantErr: "log_format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultClientConfig()
			tt.mutate(cfg)

			err := ValidateClient(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateClientJoinsErrors(t *testing.T) {
	cfg := DefaultClientConfig()
	cfg.ServerURL = ""
	cfg.Quality = "ultra"

	err := ValidateClient(cfg)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	for _, want := range []string{"server", "quality"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("joined error %q missing %q", err, want)
		}
	}
}

func TestValidateServer(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *ServerConfig) {},
		},
		{
			name:    "missing listen",
			mutate:  func(c *ServerConfig) { c.ListenAddr = "" },
			wantErr: "listen",
		},
		{
			name:    "missing data dir",
			mutate:  func(c *ServerConfig) { c.VideoDir = "" },
			wantErr: "data_dir",
		},
		{
			name:    "missing db",
			mutate:  func(c *ServerConfig) { c.DBPath = "" },
			wantErr: "db",
		},
		{
			name:    "zero queue",
			mutate:  func(c *ServerConfig) { c.QueueSize = 0 },
			wantErr: "queue",
		},
		{
			name:    "zero attempts",
			mutate:  func(c *ServerConfig) { c.MaxAttempts = 0 },
			wantErr: "max_attempts",
		},
		{
			name:    "backoff max below initial",
			mutate:  func(c *ServerConfig) { c.BackoffMax = 10 * time.Millisecond },
			wantErr: "backoff_max",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultServerConfig()
			tt.mutate(cfg)

			err := ValidateServer(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}
