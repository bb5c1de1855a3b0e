package ui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the console key bindings.
type KeyMap struct {
	Quit       key.Binding
	ToggleHelp key.Binding

	ToggleMode  key.Binding
	Fused       key.Binding
	Individual  key.Binding
	Refresh     key.Binding
	ShowDevices key.Binding
}

// DefaultKeys returns the default key bindings.
func DefaultKeys() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		ToggleHelp: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "toggle help"),
		),
		ToggleMode: key.NewBinding(
			key.WithKeys("m", "tab"),
			key.WithHelp("m", "switch mode"),
		),
		Fused: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "fused"),
		),
		Individual: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "individual"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rescan monitors"),
		),
		ShowDevices: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "devices"),
		),
	}
}

// NewHelpModel returns a configured help model.
func NewHelpModel() help.Model {
	h := help.New()
	h.ShortSeparator = " • "
	return h
}

// stateKeyMap adapts bindings to the current view for contextual help.
type stateKeyMap struct {
	keys  KeyMap
	state state
}

// ForState returns a contextual key map implementing help.KeyMap.
func (k KeyMap) ForState(s state) help.KeyMap {
	return stateKeyMap{keys: k, state: s}
}

// ShortHelp implements help.KeyMap.
func (s stateKeyMap) ShortHelp() []key.Binding {
	if s.state == stateHelp {
		return []key.Binding{s.keys.ToggleHelp, s.keys.Quit}
	}
	return []key.Binding{s.keys.ToggleMode, s.keys.ShowDevices, s.keys.ToggleHelp, s.keys.Quit}
}

// FullHelp implements help.KeyMap.
func (s stateKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{s.keys.ToggleMode, s.keys.Fused, s.keys.Individual},
		{s.keys.Refresh, s.keys.ShowDevices},
		{s.keys.ToggleHelp, s.keys.Quit},
	}
}
