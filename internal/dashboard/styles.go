package dashboard

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/svrroot/servicemon/internal/eventlog"
	"github.com/svrroot/servicemon/internal/probe"
)

// Dashboard color palette.
const (
	ColorBorder = lipgloss.Color("#2A2A4A")

	ColorHealthy  = lipgloss.Color("#39FF14")
	ColorWarning  = lipgloss.Color("#FFAA00")
	ColorCritical = lipgloss.Color("#FF0055")

	ColorTextPrimary   = lipgloss.Color("#FFFFFF")
	ColorTextSecondary = lipgloss.Color("#B4B4D0")
	ColorTextMuted     = lipgloss.Color("#6B6B8D")

	ColorAccent = lipgloss.Color("#FF2E97")
)

// Base styles for the dashboard.
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Bold(true).
			Padding(0, 1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	ConnectedStyle = lipgloss.NewStyle().
			Foreground(ColorHealthy).
			Bold(true)

	OfflineStyle = lipgloss.NewStyle().
			Foreground(ColorCritical).
			Bold(true)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)
)

// SpinnerFrames animate the checking indicator.
var SpinnerFrames = []string{"◜", "◠", "◝", "◞", "◡", "◟"}

// Countdown coloring thresholds.
const (
	countdownCalm   = 30 * time.Second
	countdownNotice = 10 * time.Second
)

// CountdownColor returns the color for the remaining-time display: calm
// green, then amber, then red as the next check approaches.
func CountdownColor(remaining time.Duration) lipgloss.Color {
	switch {
	case remaining > countdownCalm:
		return ColorHealthy
	case remaining > countdownNotice:
		return ColorWarning
	default:
		return ColorCritical
	}
}

// SeverityStyle returns the style for a status classification.
func SeverityStyle(sev probe.Severity) lipgloss.Style {
	switch sev {
	case probe.SeverityOK:
		return lipgloss.NewStyle().Foreground(ColorHealthy).Bold(true)
	case probe.SeverityPending:
		return lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(ColorCritical).Bold(true)
	}
}

// LevelIcon returns the styled feed icon for an event level.
func LevelIcon(level eventlog.Level) string {
	switch level {
	case eventlog.LevelInfo:
		return lipgloss.NewStyle().Foreground(ColorHealthy).Render("✓")
	case eventlog.LevelWarn:
		return lipgloss.NewStyle().Foreground(ColorWarning).Render("!")
	default:
		return lipgloss.NewStyle().Foreground(ColorCritical).Render("✗")
	}
}

// SectionHeader renders a box header with the title on the left and value on
// the right: ╭─ Title ───────────────────────── Value ╮
func SectionHeader(title, value string, width int) string {
	if width < 10 {
		width = 10
	}

	leftWidth := 3 + lipgloss.Width(title) + 1
	rightWidth := 1 + lipgloss.Width(value) + 2

	fillWidth := width - leftWidth - rightWidth
	if fillWidth < 1 {
		fillWidth = 1
	}

	borderStyle := lipgloss.NewStyle().Foreground(ColorBorder)
	titleStyle := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)

	return borderStyle.Render("╭─ ") +
		titleStyle.Render(title) +
		borderStyle.Render(" "+strings.Repeat("─", fillWidth)+" ") +
		value +
		borderStyle.Render(" ╮")
}

// SectionFooter renders the bottom border of a box.
func SectionFooter(width int) string {
	if width < 2 {
		width = 2
	}
	borderStyle := lipgloss.NewStyle().Foreground(ColorBorder)
	return borderStyle.Render("╰" + strings.Repeat("─", width-2) + "╯")
}

// SectionContentLine renders a content line with side borders, padded to
// width: │ content │
func SectionContentLine(content string, width int) string {
	if width < 4 {
		width = 4
	}

	borderStyle := lipgloss.NewStyle().Foreground(ColorBorder)

	padding := width - 4 - lipgloss.Width(content)
	if padding < 0 {
		padding = 0
	}

	return borderStyle.Render("│") + " " + content + strings.Repeat(" ", padding) + " " + borderStyle.Render("│")
}
