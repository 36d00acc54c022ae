package media

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClassifyExit(t *testing.T) {
	exitErr := errors.New("exit status 1")

	tests := []struct {
		name    string
		lines   []string
		started bool
		want    error
		detail  string
	}{
		{
			name:    "never_started_no_stderr",
			lines:   nil,
			started: false,
			want:    ErrLoadFailed,
			detail:  "exit status 1",
		},
		{
			name:    "never_started_unrecognized_stderr",
			lines:   []string{"moov atom not found"},
			started: false,
			want:    ErrLoadFailed,
			detail:  "moov atom not found",
		},
		{
			name:    "started_then_connection_lost",
			lines:   []string{"[tcp] Connection reset by peer"},
			started: true,
			want:    ErrLoadFailed,
			detail:  "Connection reset",
		},
		{
			name:    "started_http_error",
			lines:   []string{"Server returned 404 Not Found"},
			started: true,
			want:    ErrLoadFailed,
			detail:  "Server returned 404",
		},
		{
			name:    "started_decode_failure",
			lines:   []string{"Invalid data found when processing input"},
			started: true,
			want:    ErrRejected,
			detail:  "Invalid data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyExit(tt.lines, exitErr, tt.started)
			if !errors.Is(err, tt.want) {
				t.Errorf("classifyExit = %v, want %v", err, tt.want)
			}
			if !strings.Contains(err.Error(), tt.detail) {
				t.Errorf("error %q missing detail %q", err, tt.detail)
			}
		})
	}
}

func TestStderrBufferKeepsRecentLines(t *testing.T) {
	b := newStderrBuffer(discardLogger())

	var input strings.Builder
	total := maxBufferedLines + 10
	for i := 0; i < total; i++ {
		fmt.Fprintf(&input, "line %d\n", i)
	}
	b.consume(strings.NewReader(input.String()))

	lines := b.recent()
	if len(lines) != maxBufferedLines {
		t.Fatalf("recent returned %d lines, want %d", len(lines), maxBufferedLines)
	}
	if got, want := lines[0], fmt.Sprintf("line %d", total-maxBufferedLines); got != want {
		t.Errorf("oldest retained line = %q, want %q", got, want)
	}
	if got, want := lines[len(lines)-1], fmt.Sprintf("line %d", total-1); got != want {
		t.Errorf("newest retained line = %q, want %q", got, want)
	}
}
