package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/clipstream/clipstream/internal/format"
)

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{
		m.renderHeader(),
		m.renderNowPlaying(),
	}

	if m.loading {
		sections = append(sections, statusWarning.Render("  ⏳ Buffering..."))
	}

	if m.overlay {
		sections = append(sections, m.renderStatsOverlay())
	}

	if m.notice != "" {
		sections = append(sections, statusError.Render("  "+m.notice))
	}

	sections = append(sections, m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader renders the top banner.
func (m Model) renderHeader() string {
	header := fmt.Sprintf("clipstream │ %s │ Up: %s",
		m.serverURL,
		format.Clock(m.Elapsed()),
	)
	return headerStyle.Width(m.width).Render(header)
}

// renderNowPlaying renders the active video line.
func (m Model) renderNowPlaying() string {
	if m.videoID == "" {
		return dimStyle.Render("  Nothing playing")
	}

	name := m.displayName
	if name == "" {
		name = m.videoID
	}

	line := fmt.Sprintf("  ▶ %s %s", boldStyle.Render(name), qualityBadge(m.quality))
	detail := fmt.Sprintf("    %s elapsed · %s received",
		format.Clock(m.position),
		format.Bytes(m.bytes),
	)
	return lipgloss.JoinVertical(lipgloss.Left, line, mutedStyle.Render(detail))
}

// renderStatsOverlay renders the live stats box.
func (m Model) renderStatsOverlay() string {
	rows := []string{subtitleStyle.Render("Stream Stats")}

	if m.stats == nil {
		rows = append(rows, dimStyle.Render("waiting for first poll..."))
	} else {
		rows = append(rows,
			RenderKeyValue("Viewers", fmt.Sprintf("%d", m.stats.ActiveStreams)),
			RenderKeyValue("Served", format.Bytes(m.stats.TotalBytesServed)),
			RenderKeyValue("Bitrate", format.Bitrate(m.stats.AverageBitrate)),
		)
	}

	if m.window != nil {
		if p50 := m.window.BitrateQuantile(0.5); p50 > 0 {
			rows = append(rows, RenderKeyValue("Bitrate p50", format.Bitrate(p50)))
		}
		if max := m.window.BitrateMax(); max > 0 {
			rows = append(rows, RenderKeyValue("Bitrate max", format.Bitrate(max)))
		}
	}

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderFooter renders the key help line.
func (m Model) renderFooter() string {
	return footerStyle.Render("  a/l/m/h: quality │ q: quit")
}
