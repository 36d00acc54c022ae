// Package tui provides the terminal playback dashboard.
//
// The dashboard uses Bubble Tea for the application framework and Lipgloss
// for styling. It renders the now-playing line, the buffering indicator,
// and the stats overlay fed by the stats poller.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/clipstream/clipstream/internal/api"
)

// noticeTTL is how long a notification stays on screen.
const noticeTTL = 6 * time.Second

// =============================================================================
// Messages
// =============================================================================

// TickMsg is sent periodically to refresh the display.
type TickMsg time.Time

// LoadingMsg toggles the buffering indicator.
type LoadingMsg bool

// OverlayMsg toggles the stats overlay.
type OverlayMsg bool

// NowPlayingMsg announces the active video.
type NowPlayingMsg struct {
	VideoID     string
	DisplayName string
	Quality     api.Quality
}

// ProgressMsg carries the playback position.
type ProgressMsg struct {
	Position time.Duration
	Bytes    int64
}

// StreamStatsMsg carries a fresh stats poll result.
type StreamStatsMsg api.StreamStats

// NoticeMsg surfaces a user-facing message.
type NoticeMsg string

// QuitMsg signals the TUI should exit.
type QuitMsg struct{}

// =============================================================================
// Model
// =============================================================================

// BitrateWindow supplies rolling bitrate percentiles for the overlay.
// The stats poller implements it.
type BitrateWindow interface {
	BitrateQuantile(q float64) float64
	BitrateMax() float64
}

// Config holds TUI configuration.
type Config struct {
	ServerURL string

	// Window backs the overlay's p50/max lines. Optional.
	Window BitrateWindow

	// OnQuality is invoked from a goroutine when the user picks a
	// quality with the a/l/m/h keys. Optional.
	OnQuality func(api.Quality)
}

// Model represents the dashboard state.
type Model struct {
	serverURL string
	window    BitrateWindow
	onQuality func(api.Quality)

	loading     bool
	overlay     bool
	videoID     string
	displayName string
	quality     api.Quality
	position    time.Duration
	bytes       int64
	stats       *api.StreamStats

	notice   string
	noticeAt time.Time

	startTime  time.Time
	lastUpdate time.Time

	width  int
	height int

	quitting bool
}

// New creates a dashboard model.
func New(cfg Config) Model {
	return Model{
		serverURL:  cfg.ServerURL,
		window:     cfg.Window,
		onQuality:  cfg.OnQuality,
		quality:    api.QualityAuto,
		startTime:  time.Now(),
		lastUpdate: time.Now(),
		width:      80,
		height:     24,
	}
}

// =============================================================================
// Bubble Tea Interface
// =============================================================================

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "a":
			return m.pickQuality(api.QualityAuto)
		case "l":
			return m.pickQuality(api.QualityLow)
		case "m":
			return m.pickQuality(api.QualityMedium)
		case "h":
			return m.pickQuality(api.QualityHigh)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case TickMsg:
		m.lastUpdate = time.Now()
		if m.notice != "" && time.Since(m.noticeAt) > noticeTTL {
			m.notice = ""
		}
		return m, tickCmd()

	case LoadingMsg:
		m.loading = bool(msg)
		return m, nil

	case OverlayMsg:
		m.overlay = bool(msg)
		if !m.overlay {
			m.stats = nil
			m.position = 0
			m.bytes = 0
		}
		return m, nil

	case NowPlayingMsg:
		m.videoID = msg.VideoID
		m.displayName = msg.DisplayName
		m.quality = msg.Quality
		return m, nil

	case ProgressMsg:
		m.position = msg.Position
		m.bytes = msg.Bytes
		return m, nil

	case StreamStatsMsg:
		stats := api.StreamStats(msg)
		m.stats = &stats
		return m, nil

	case NoticeMsg:
		m.notice = string(msg)
		m.noticeAt = time.Now()
		return m, nil

	case QuitMsg:
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

// pickQuality dispatches a quality change without blocking Update; the
// controller replays the stream and the resulting NowPlayingMsg updates
// the model.
func (m Model) pickQuality(q api.Quality) (tea.Model, tea.Cmd) {
	if m.onQuality != nil {
		go m.onQuality(q)
	}
	return m, nil
}

// =============================================================================
// Commands
// =============================================================================

// tickCmd returns a command that sends a tick after 500ms.
func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Elapsed returns the time since the dashboard started.
func (m Model) Elapsed() time.Duration {
	return time.Since(m.startTime)
}
