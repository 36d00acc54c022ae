package media

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

const (
	// maxLineLength truncates pathological FFmpeg output lines.
	maxLineLength = 4096

	// maxBufferedLines bounds the per-playback stderr ring buffer.
	maxBufferedLines = 50
)

// stderrBuffer retains recent FFmpeg stderr lines so a failed exit can be
// classified and summarized.
type stderrBuffer struct {
	logger *slog.Logger

	mu     sync.Mutex
	buffer []string
	bufIdx int
}

func newStderrBuffer(logger *slog.Logger) *stderrBuffer {
	return &stderrBuffer{
		logger: logger,
		buffer: make([]string, maxBufferedLines),
	}
}

// consume reads stderr to EOF, buffering each line. Run in a goroutine.
func (b *stderrBuffer) consume(r io.Reader) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, maxLineLength)
	scanner.Buffer(buf, maxLineLength)

	for scanner.Scan() {
		line := scanner.Text()
		if len(line) > maxLineLength {
			line = line[:maxLineLength] + "...(truncated)"
		}

		b.mu.Lock()
		b.buffer[b.bufIdx] = line
		b.bufIdx = (b.bufIdx + 1) % maxBufferedLines
		b.mu.Unlock()

		b.logger.Debug("ffmpeg_stderr", "line", line)
	}
}

// recent returns the buffered lines in arrival order.
func (b *stderrBuffer) recent() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	lines := make([]string, 0, maxBufferedLines)
	for i := 0; i < maxBufferedLines; i++ {
		idx := (b.bufIdx + i) % maxBufferedLines
		if b.buffer[idx] != "" {
			lines = append(lines, b.buffer[idx])
		}
	}
	return lines
}

// loadFailurePatterns mark stderr lines that indicate the source could not
// be fetched, as opposed to fetched-but-unplayable.
var loadFailurePatterns = []string{
	"Connection refused",
	"Connection reset",
	"Server returned 4",
	"Server returned 5",
	"Failed to resolve hostname",
	"Name or service not known",
	"Connection timed out",
	"No such file or directory",
	"Input/output error",
}

// classifyExit maps a failed FFmpeg exit to a sentinel error using the
// buffered stderr lines. The last buffered line is included for context.
// An exit before any progress block arrived means the source never became
// playable, so it is a load failure regardless of what stderr says.
func classifyExit(lines []string, exitErr error, started bool) error {
	detail := exitErr.Error()
	if len(lines) > 0 {
		detail = lines[len(lines)-1]
	}

	if !started {
		return fmt.Errorf("%w: %s", ErrLoadFailed, detail)
	}

	for _, line := range lines {
		for _, pattern := range loadFailurePatterns {
			if strings.Contains(line, pattern) {
				return fmt.Errorf("%w: %s", ErrLoadFailed, detail)
			}
		}
	}
	return fmt.Errorf("%w: %s", ErrRejected, detail)
}
