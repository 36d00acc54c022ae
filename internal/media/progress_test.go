package media

import (
	"strings"
	"testing"
	"time"
)

const progressBlock = `frame=60
fps=30.00
bitrate=512.0kbits/s
total_size=51324
out_time_us=2000000
speed=1.00x
progress=continue`

func feedLines(p *progressParser, text string) {
	for _, line := range strings.Split(text, "\n") {
		p.parseLine(line)
	}
}

func TestProgressParserBlock(t *testing.T) {
	var got []progressUpdate
	p := newProgressParser(func(u progressUpdate) {
		got = append(got, u)
	})

	feedLines(p, progressBlock)

	if len(got) != 1 {
		t.Fatalf("got %d blocks, want 1", len(got))
	}
	u := got[0]
	if u.Frame != 60 {
		t.Errorf("Frame = %d, want 60", u.Frame)
	}
	if u.TotalSize != 51324 {
		t.Errorf("TotalSize = %d, want 51324", u.TotalSize)
	}
	if u.Speed != 1.0 {
		t.Errorf("Speed = %v, want 1.0", u.Speed)
	}
	if u.position() != 2*time.Second {
		t.Errorf("position = %v, want 2s", u.position())
	}
	if u.End {
		t.Error("End = true for progress=continue")
	}
}

func TestProgressParserEnd(t *testing.T) {
	var got []progressUpdate
	p := newProgressParser(func(u progressUpdate) {
		got = append(got, u)
	})

	feedLines(p, "out_time_us=5000000\nspeed=1.00x\nprogress=end")

	if len(got) != 1 {
		t.Fatalf("got %d blocks, want 1", len(got))
	}
	if !got[0].End {
		t.Error("End = false for progress=end")
	}
}

func TestProgressParserNAValues(t *testing.T) {
	var got []progressUpdate
	p := newProgressParser(func(u progressUpdate) {
		got = append(got, u)
	})

	feedLines(p, "total_size=N/A\nspeed=N/A\nprogress=continue")

	if len(got) != 1 {
		t.Fatalf("got %d blocks, want 1", len(got))
	}
	if got[0].TotalSize != 0 || got[0].Speed != 0 {
		t.Errorf("N/A values should parse to zero, got %+v", got[0])
	}
}

func TestProgressParserResetsBetweenBlocks(t *testing.T) {
	var got []progressUpdate
	p := newProgressParser(func(u progressUpdate) {
		got = append(got, u)
	})

	feedLines(p, "frame=10\nprogress=continue\nprogress=continue")

	if len(got) != 2 {
		t.Fatalf("got %d blocks, want 2", len(got))
	}
	if got[1].Frame != 0 {
		t.Errorf("second block Frame = %d, want 0 (state reset)", got[1].Frame)
	}
}

func TestParseSpeed(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1.00x", 1.0},
		{"0.95x", 0.95},
		{"N/A", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := parseSpeed(tt.in); got != tt.want {
			t.Errorf("parseSpeed(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
