// Package format renders byte counts, bitrates, and durations for display.
package format

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Bytes formats a byte count using binary units (1 KB = 1024 bytes),
// rounded to one decimal place with a trailing ".0" dropped:
// 1048576 renders as "1 MB", 1572864 as "1.5 MB".
func Bytes(n int64) string {
	if n < 0 {
		n = 0
	}
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}

	suffixes := []string{"KB", "MB", "GB", "TB"}
	v := float64(n) / unit
	idx := 0
	for v >= unit && idx < len(suffixes)-1 {
		v /= unit
		idx++
	}
	return trim1(v) + " " + suffixes[idx]
}

// Bitrate formats a rate in bits per second using decimal units,
// rounded to one decimal place: 2500000 renders as "2.5 Mbps".
func Bitrate(bitsPerSecond float64) string {
	if bitsPerSecond < 0 || math.IsNaN(bitsPerSecond) || math.IsInf(bitsPerSecond, 0) {
		bitsPerSecond = 0
	}
	switch {
	case bitsPerSecond >= 1e9:
		return trim1(bitsPerSecond/1e9) + " Gbps"
	case bitsPerSecond >= 1e6:
		return trim1(bitsPerSecond/1e6) + " Mbps"
	case bitsPerSecond >= 1e3:
		return trim1(bitsPerSecond/1e3) + " kbps"
	default:
		return trim1(bitsPerSecond) + " bps"
	}
}

// Clock formats a duration as MM:SS, or HH:MM:SS from one hour up.
func Clock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// trim1 rounds to one decimal place and drops a trailing ".0".
func trim1(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}
