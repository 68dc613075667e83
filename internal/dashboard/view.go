package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/svrroot/servicemon/internal/probe"
)

// renderDashboard renders the complete dashboard view.
func (m Model) renderDashboard() string {
	width := m.boxWidth()

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderStatusBox(width))
	b.WriteString("\n")
	b.WriteString(m.renderCountdown())
	b.WriteString("\n")
	b.WriteString(m.renderStats())
	b.WriteString("\n\n")
	b.WriteString(m.renderEvents())
	b.WriteString("\n")
	b.WriteString(FooterStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// boxWidth sizes the status box to the terminal, clamped to stay readable.
func (m Model) boxWidth() int {
	if m.width == 0 {
		return 60
	}
	w := m.width - 2
	if w < 44 {
		w = 44
	}
	if w > 72 {
		w = 72
	}
	return w
}

// renderHeader renders the title line with the connection badge.
func (m Model) renderHeader() string {
	title := TitleStyle.Render("servicemon")

	target := m.opts.Host
	if m.opts.User != "" {
		target = m.opts.User + "@" + m.opts.Host
	}

	badge := OfflineStyle.Render("OFFLINE")
	if m.hasSnap && m.snap.Connection.Healthy {
		badge = ConnectedStyle.Render("CONNECTED")
	}

	line := title + LabelStyle.Render(" | "+target+" | ") + badge
	if errs := m.snap.Connection.ConsecutiveErrors; errs > 0 {
		line += LabelStyle.Render(fmt.Sprintf(" | %d errors", errs))
	}

	return HeaderStyle.Render(line)
}

// renderStatusBox renders the service status box.
func (m Model) renderStatusBox(width int) string {
	var lines []string

	lines = append(lines, SectionHeader("Service", m.statusBadge(), width))
	lines = append(lines, SectionContentLine(
		LabelStyle.Render("Name          ")+ValueStyle.Render(m.opts.Service), width))

	if m.hasSnap && m.snap.Status != nil {
		if m.snap.Status.DisplayName != "" {
			lines = append(lines, SectionContentLine(
				LabelStyle.Render("Display name  ")+ValueStyle.Render(m.snap.Status.DisplayName), width))
		}
		if m.snap.Status.StartType != "" {
			lines = append(lines, SectionContentLine(
				LabelStyle.Render("Startup type  ")+ValueStyle.Render(m.snap.Status.StartType), width))
		}
	}

	lines = append(lines, SectionContentLine(
		LabelStyle.Render("Last check    ")+ValueStyle.Render(m.lastCheckText()), width))
	lines = append(lines, SectionFooter(width))

	return strings.Join(lines, "\n")
}

// statusBadge renders the styled status label for the box header.
func (m Model) statusBadge() string {
	switch {
	case !m.hasSnap:
		return MutedStyle.Render("—")
	case m.snap.ServiceMissing:
		return SeverityStyle(probe.SeverityDown).Render("NOT FOUND")
	case m.snap.Status == nil:
		return MutedStyle.Render("NO DATA")
	default:
		info := probe.Classify(m.snap.Status.Code)
		return SeverityStyle(info.Severity).Render(info.Label)
	}
}

func (m Model) lastCheckText() string {
	if !m.hasSnap || m.snap.Counters.LastCheckTime.IsZero() {
		return "never"
	}
	return m.snap.Counters.LastCheckTime.Format("15:04:05")
}

// renderCountdown renders the timer line: a spinner while a cycle is in
// flight, otherwise the colored time to the next automatic check.
func (m Model) renderCountdown() string {
	spinner := SpinnerFrames[m.spinnerFrame%len(SpinnerFrames)]

	switch {
	case m.quitting:
		return " " + MutedStyle.Render(spinner+" Finishing up...")
	case m.checking:
		return " " + lipgloss.NewStyle().Foreground(ColorWarning).Render(spinner+" Checking now...")
	default:
		remaining := int(m.remaining / time.Second)
		style := lipgloss.NewStyle().Foreground(CountdownColor(m.remaining))
		return " " + style.Render(fmt.Sprintf("Next check in %ds", remaining)) +
			MutedStyle.Render("  (enter to check now)")
	}
}

// renderStats renders the run statistics line.
func (m Model) renderStats() string {
	if !m.hasSnap {
		return " " + MutedStyle.Render("Starting...")
	}

	c := m.snap.Counters
	return " " + LabelStyle.Render("Uptime ") + ValueStyle.Render(formatUptime(time.Since(c.StartTime))) +
		MutedStyle.Render("  •  ") +
		LabelStyle.Render("Checks ") + ValueStyle.Render(fmt.Sprintf("%d", c.CheckCount)) +
		MutedStyle.Render("  •  ") +
		LabelStyle.Render("Restarts ") + ValueStyle.Render(fmt.Sprintf("%d", c.RestartCount))
}

// renderEvents renders the recent-event feed, newest last.
func (m Model) renderEvents() string {
	entries := m.events.Recent()
	if len(entries) == 0 {
		return " " + MutedStyle.Render("No events yet")
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines,
			" "+MutedStyle.Render(e.Time.Format("15:04:05"))+" "+LevelIcon(e.Level)+" "+ValueStyle.Render(e.Message))
	}
	return strings.Join(lines, "\n")
}

// formatUptime renders a duration as 1h 02m 03s, dropping leading zero units.
func formatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
