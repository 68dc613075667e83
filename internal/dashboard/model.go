// Package dashboard is the interactive full-screen view of the monitor: a
// Bubble Tea event loop that drives engine cycles on a countdown and exposes
// the operator controls (immediate re-check, manual restart, forced
// reconnect, quit).
package dashboard

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/svrroot/servicemon/internal/engine"
	"github.com/svrroot/servicemon/internal/eventlog"
)

// countdownMsg drives the 1Hz countdown and the spinner animation.
type countdownMsg time.Time

// cycleDoneMsg carries the snapshot of a completed monitoring cycle.
type cycleDoneMsg struct {
	snap engine.Snapshot
}

// restartDoneMsg signals that a manual restart finished, either way.
type restartDoneMsg struct{}

// Options carries the display and timing settings for the dashboard.
type Options struct {
	User    string
	Host    string
	Service string

	// CheckInterval is the wait between cycles; RetryDelay is the shorter
	// wait used while the connection is being re-established.
	CheckInterval time.Duration
	RetryDelay    time.Duration
}

// Model is the Bubble Tea model for the monitoring dashboard. Exactly one
// engine cycle runs at a time: while a cycle is in flight the countdown
// pauses and control keys other than quit and help are ignored.
type Model struct {
	engine *engine.Engine
	events *eventlog.Log
	opts   Options

	snap    engine.Snapshot
	hasSnap bool

	remaining    time.Duration
	checking     bool
	quitting     bool
	spinnerFrame int
	width        int

	keys keyMap
	help help.Model
}

// NewModel creates a dashboard model over a built engine. The first cycle
// starts immediately on Init.
func NewModel(eng *engine.Engine, events *eventlog.Log, opts Options) Model {
	return Model{
		engine:   eng,
		events:   events,
		opts:     opts,
		checking: true,
		keys:     defaultKeyMap(),
		help:     help.New(),
	}
}

// Init starts the countdown timer and the first monitoring cycle.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.countdownCmd(), m.cycleCmd())
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case countdownMsg:
		m.spinnerFrame++
		if !m.checking && !m.quitting {
			m.remaining -= time.Second
			if m.remaining <= 0 {
				m.checking = true
				return m, tea.Batch(m.countdownCmd(), m.cycleCmd())
			}
		}
		return m, m.countdownCmd()

	case cycleDoneMsg:
		m.checking = false
		m.snap = msg.snap
		m.hasSnap = true
		m.remaining = m.nextWait()
		if m.quitting {
			return m, tea.Quit
		}

	case restartDoneMsg:
		// Re-check right away so the dashboard reflects the outcome.
		return m, m.cycleCmd()
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting && !m.checking {
		return ""
	}
	return m.renderDashboard()
}

// countdownCmd returns a command that ticks once per second.
func (m Model) countdownCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return countdownMsg(t)
	})
}

// cycleCmd runs one full monitoring cycle. The engine call blocks inside the
// command, never inside Update, so key events stay responsive.
func (m Model) cycleCmd() tea.Cmd {
	eng := m.engine
	return func() tea.Msg {
		return cycleDoneMsg{snap: eng.Tick()}
	}
}

// restartCmd performs a manual restart.
func (m Model) restartCmd() tea.Cmd {
	eng := m.engine
	return func() tea.Msg {
		eng.ManualRestart()
		return restartDoneMsg{}
	}
}

// nextWait picks the post-cycle wait: the full check interval normally, the
// shorter retry delay while the connection is down.
func (m Model) nextWait() time.Duration {
	if m.snap.State == engine.StateCoolingDown || !m.snap.Connection.Healthy {
		return m.opts.RetryDelay
	}
	return m.opts.CheckInterval
}

// Checking reports whether a cycle is currently in flight.
func (m Model) Checking() bool {
	return m.checking
}

// Quitting reports whether a quit has been requested.
func (m Model) Quitting() bool {
	return m.quitting
}

// Remaining returns the countdown to the next automatic cycle.
func (m Model) Remaining() time.Duration {
	return m.remaining
}

// Snapshot returns the most recent cycle snapshot.
func (m Model) Snapshot() engine.Snapshot {
	return m.snap
}
