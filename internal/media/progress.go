package media

import (
	"strconv"
	"strings"
	"time"
)

// progressUpdate is one complete block of FFmpeg -progress pipe:1 output.
//
// FFmpeg emits blocks of key=value lines terminated by a "progress=continue"
// or "progress=end" line, for example:
//
//	frame=60
//	fps=30.00
//	bitrate=512.0kbits/s
//	total_size=51324
//	out_time_us=2000000
//	speed=1.00x
//	progress=continue
//
// Values are cumulative since the process started.
type progressUpdate struct {
	Frame     int64
	Bitrate   string
	TotalSize int64
	OutTimeUS int64
	Speed     float64
	End       bool
}

// position returns the playback position within the stream.
func (u progressUpdate) position() time.Duration {
	return time.Duration(u.OutTimeUS) * time.Microsecond
}

// progressParser accumulates key=value lines into complete blocks.
// Not safe for concurrent use; the engine feeds it from one goroutine.
type progressParser struct {
	onBlock func(progressUpdate)
	current progressUpdate
}

func newProgressParser(onBlock func(progressUpdate)) *progressParser {
	return &progressParser{onBlock: onBlock}
}

// parseLine consumes one line of progress output. Lines without '=' are
// ignored.
func (p *progressParser) parseLine(line string) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return
	}

	switch key {
	case "frame":
		p.current.Frame, _ = strconv.ParseInt(value, 10, 64)

	case "bitrate":
		p.current.Bitrate = value

	case "total_size":
		// FFmpeg reports "N/A" when the demuxer cannot size the input.
		if value != "N/A" && value != "" {
			p.current.TotalSize, _ = strconv.ParseInt(value, 10, 64)
		}

	case "out_time_us":
		p.current.OutTimeUS, _ = strconv.ParseInt(value, 10, 64)

	case "speed":
		p.current.Speed = parseSpeed(value)

	case "progress":
		p.current.End = value == "end"
		if p.onBlock != nil {
			p.onBlock(p.current)
		}
		p.current = progressUpdate{}
	}
}

// parseSpeed converts FFmpeg's speed string ("1.00x", "N/A") to a float.
// "N/A" and empty map to 0, which means not-yet-known rather than stalled.
func parseSpeed(s string) float64 {
	s = strings.TrimSuffix(s, "x")
	if s == "N/A" || s == "" {
		return 0
	}
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
