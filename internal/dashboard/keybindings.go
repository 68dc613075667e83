package dashboard

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// keyMap defines the dashboard controls.
type keyMap struct {
	Check     key.Binding
	Restart   key.Binding
	Reconnect key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Check: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "check now"),
		),
		Restart: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "restart service"),
		),
		Reconnect: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "reconnect"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the bindings for the one-line help bar.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Check, k.Restart, k.Reconnect, k.Help, k.Quit}
}

// FullHelp returns the bindings for the expanded help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Check, k.Restart, k.Reconnect},
		{k.Help, k.Quit},
	}
}

// handleKey processes keyboard input. Quit and help always work; the other
// controls are ignored while a cycle is in flight. There is no mid-call
// abort, a running cycle always completes.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		if m.checking {
			// Let the in-flight cycle finish; cycleDoneMsg quits.
			return m, nil
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	if m.checking || m.quitting {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Check):
		m.checking = true
		return m, m.cycleCmd()

	case key.Matches(msg, m.keys.Restart):
		m.checking = true
		return m, m.restartCmd()

	case key.Matches(msg, m.keys.Reconnect):
		m.engine.ForceReconnect()
		m.checking = true
		return m, m.cycleCmd()
	}

	// Unrecognized keys are ignored.
	return m, nil
}
