package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/stigoleg/multimouse/internal/engine"
	"github.com/stigoleg/multimouse/internal/fusion"
)

// statusInterval is how often the console re-reads engine state.
const statusInterval = 250 * time.Millisecond

// Controller is the part of the engine the console drives.
type Controller interface {
	Status() engine.Status
	SetMode(fusion.Mode)
	ToggleMode() fusion.Mode
	RefreshBounds() (bool, error)
	Subscribe(engine.CursorListener)
}

// Options describe the session shown in the header.
type Options struct {
	Source   string
	Sink     string
	Deadline time.Time
	Now      func() time.Time
}

// Model holds the console state.
type Model struct {
	State        state
	ShowDevices  bool
	Status       engine.Status
	Cursor       CursorMsg
	Source       string
	Sink         string
	StartTime    time.Time
	Deadline     time.Time
	Expired      bool
	ErrorMessage string
	Notice       string

	ctrl     Controller
	keys     KeyMap
	help     help.Model
	devices  table.Model
	progress progress.Model
	now      func() time.Time
}

// NewModel builds the console model around a controller.
func NewModel(ctrl Controller, opts Options) Model {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	styles := table.DefaultStyles()
	styles.Header = Current.TableHeader
	styles.Selected = Current.TableSelected

	m := Model{
		State:     stateDashboard,
		Source:    opts.Source,
		Sink:      opts.Sink,
		StartTime: now(),
		Deadline:  opts.Deadline,
		ctrl:      ctrl,
		keys:      DefaultKeys(),
		help:      NewHelpModel(),
		devices: table.New(
			table.WithColumns(deviceColumns),
			table.WithHeight(6),
			table.WithStyles(styles),
		),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(30), progress.WithoutPercentage()),
		now:      now,
	}
	m.refresh()
	return m
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tick()
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return Update(msg, m)
}

// View implements tea.Model
func (m Model) View() string {
	return View(m)
}

// TimeRemaining returns the time left before the session ends, or zero
// when it has no deadline.
func (m Model) TimeRemaining() time.Duration {
	if m.Deadline.IsZero() {
		return 0
	}
	remaining := m.Deadline.Sub(m.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (m *Model) refresh() {
	m.Status = m.ctrl.Status()
	m.devices.SetRows(deviceRows(m.Status.Devices, m.now()))
	m.devices.SetHeight(min(max(len(m.Status.Devices), 1), 10) + 1)
}
