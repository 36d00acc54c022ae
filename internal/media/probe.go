package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ProbeInfo holds container-level attributes reported by ffprobe.
type ProbeInfo struct {
	// Duration in seconds.
	Duration float64

	// BitRate in bits per second. Zero when the container does not
	// report one.
	BitRate int64
}

type probeFormat struct {
	Format struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
}

// Probe runs ffprobe -show_format against input and parses the JSON output.
func Probe(ctx context.Context, ffprobePath, input string) (*ProbeInfo, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		input,
	}

	cmd := exec.CommandContext(ctx, ffprobePath, args...)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	var result probeFormat
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &ProbeInfo{}
	info.Duration, _ = strconv.ParseFloat(result.Format.Duration, 64)
	info.BitRate, _ = strconv.ParseInt(result.Format.BitRate, 10, 64)
	return info, nil
}

// FindFFprobe returns the path to ffprobe, preferring the directory the
// ffmpeg binary lives in, falling back to PATH.
func FindFFprobe(ffmpegPath string) string {
	const suffix = "ffmpeg"
	if strings.HasSuffix(ffmpegPath, suffix) && len(ffmpegPath) > len(suffix) {
		candidate := ffmpegPath[:len(ffmpegPath)-len(suffix)] + "ffprobe"
		if _, err := exec.LookPath(candidate); err == nil {
			return candidate
		}
	}
	return "ffprobe"
}
