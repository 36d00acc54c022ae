package format

import (
	"testing"
	"time"
)

func TestBytes(t *testing.T) {
	tests := []struct {
		name string
		n    int64
		want string
	}{
		{"zero", 0, "0 B"},
		{"under_one_kb", 512, "512 B"},
		{"one_kb", 1024, "1 KB"},
		{"one_mb", 1048576, "1 MB"},
		{"one_and_a_half_mb", 1572864, "1.5 MB"},
		{"one_gb", 1073741824, "1 GB"},
		{"negative_clamped", -42, "0 B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Bytes(tt.n); got != tt.want {
				t.Errorf("Bytes(%d) = %q, want %q", tt.n, got, tt.want)
			}
		})
	}
}

func TestBitrate(t *testing.T) {
	tests := []struct {
		name string
		bps  float64
		want string
	}{
		{"zero", 0, "0 bps"},
		{"bits", 500, "500 bps"},
		{"kilobits", 800000, "800 kbps"},
		{"megabits", 2500000, "2.5 Mbps"},
		{"whole_megabits", 5000000, "5 Mbps"},
		{"gigabits", 1250000000, "1.3 Gbps"},
		{"negative_clamped", -1, "0 bps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Bitrate(tt.bps); got != tt.want {
				t.Errorf("Bitrate(%v) = %q, want %q", tt.bps, got, tt.want)
			}
		})
	}
}

func TestClock(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"zero", 0, "00:00"},
		{"seconds", 42 * time.Second, "00:42"},
		{"minutes", 3*time.Minute + 5*time.Second, "03:05"},
		{"hours", time.Hour + 2*time.Minute + 3*time.Second, "01:02:03"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clock(tt.d); got != tt.want {
				t.Errorf("Clock(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}
