package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/stigoleg/multimouse/internal/fusion"
)

// tickMsg re-reads engine state.
type tickMsg time.Time

// CursorMsg carries the latest position pushed to the OS cursor.
type CursorMsg struct {
	X, Y int32
	At   time.Time
}

// boundsMsg is the result of a manual monitor rescan.
type boundsMsg struct {
	changed bool
	err     error
}

// Update handles messages and updates the model accordingly.
func Update(msg tea.Msg, m Model) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		m.progress.Width = max(msg.Width/3, 10)
		return m, nil

	case CursorMsg:
		m.Cursor = msg
		return m, nil

	case tickMsg:
		m.refresh()
		if !m.Deadline.IsZero() && !time.Time(msg).Before(m.Deadline) {
			m.Expired = true
			return m, tea.Quit
		}
		return m, tick()

	case boundsMsg:
		switch {
		case msg.err != nil:
			m.ErrorMessage = msg.err.Error()
		case msg.changed:
			m.ErrorMessage = ""
			m.Notice = "Virtual desktop updated"
		default:
			m.ErrorMessage = ""
			m.Notice = "Monitors unchanged"
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if m.State == stateHelp {
			switch {
			case key.Matches(msg, m.keys.ToggleHelp), msg.String() == "esc":
				m.State = stateDashboard
			case key.Matches(msg, m.keys.Quit):
				return m, tea.Quit
			}
			return m, nil
		}
		return handleDashboardKey(msg, m)
	}

	return m, nil
}

func handleDashboardKey(msg tea.KeyMsg, m Model) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.ToggleHelp):
		m.State = stateHelp
	case key.Matches(msg, m.keys.ToggleMode):
		mode := m.ctrl.ToggleMode()
		m.Notice = fmt.Sprintf("Switched to %s mode", mode)
		m.refresh()
	case key.Matches(msg, m.keys.Fused):
		m.ctrl.SetMode(fusion.ModeFused)
		m.Notice = "Fused mode"
		m.refresh()
	case key.Matches(msg, m.keys.Individual):
		m.ctrl.SetMode(fusion.ModeIndividual)
		m.Notice = "Individual mode"
		m.refresh()
	case key.Matches(msg, m.keys.ShowDevices):
		m.ShowDevices = !m.ShowDevices
	case key.Matches(msg, m.keys.Refresh):
		return m, refreshBounds(m.ctrl)
	}
	return m, nil
}

func refreshBounds(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		changed, err := ctrl.RefreshBounds()
		return boundsMsg{changed: changed, err: err}
	}
}

func tick() tea.Cmd {
	return tea.Tick(statusInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
