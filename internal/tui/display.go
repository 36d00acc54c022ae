package tui

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/clipstream/clipstream/internal/api"
)

// sender is the subset of tea.Program the display needs.
type sender interface {
	Send(msg tea.Msg)
}

// ProgramDisplay forwards playback controller callbacks and stats poll
// results to a running Bubble Tea program. It is created unattached so it
// can be handed to the poller and controller before the program exists;
// messages sent before Attach are dropped. Send is safe from any
// goroutine, so the controller and poller use it directly.
type ProgramDisplay struct {
	mu sync.RWMutex
	p  sender
}

// NewProgramDisplay creates an unattached display.
func NewProgramDisplay() *ProgramDisplay {
	return &ProgramDisplay{}
}

// Attach binds the display to a program.
func (d *ProgramDisplay) Attach(p sender) {
	d.mu.Lock()
	d.p = p
	d.mu.Unlock()
}

func (d *ProgramDisplay) send(msg tea.Msg) {
	d.mu.RLock()
	p := d.p
	d.mu.RUnlock()
	if p != nil {
		p.Send(msg)
	}
}

func (d *ProgramDisplay) SetLoading(visible bool) {
	d.send(LoadingMsg(visible))
}

func (d *ProgramDisplay) SetNowPlaying(videoID, displayName string, quality api.Quality) {
	d.send(NowPlayingMsg{VideoID: videoID, DisplayName: displayName, Quality: quality})
}

func (d *ProgramDisplay) SetOverlayVisible(visible bool) {
	d.send(OverlayMsg(visible))
}

func (d *ProgramDisplay) SetProgress(position time.Duration, bytes int64) {
	d.send(ProgressMsg{Position: position, Bytes: bytes})
}

func (d *ProgramDisplay) Notify(message string) {
	d.send(NoticeMsg(message))
}

// UpdateStreamStats implements the stats poller sink.
func (d *ProgramDisplay) UpdateStreamStats(stats api.StreamStats) {
	d.send(StreamStatsMsg(stats))
}
