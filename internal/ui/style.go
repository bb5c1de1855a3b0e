// Package ui provides the terminal console for watching and steering the
// cursor fusion engine.
package ui

import "github.com/charmbracelet/lipgloss"

// Colors defines the color scheme used throughout the console
type Colors struct {
	Subtle    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Special   lipgloss.AdaptiveColor
	Error     lipgloss.AdaptiveColor
}

var defaultColors = Colors{
	Subtle:    lipgloss.AdaptiveColor{Light: "#666666", Dark: "#999999"},
	Highlight: lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"},
	Special:   lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"},
	Error:     lipgloss.AdaptiveColor{Light: "#FF0000", Dark: "#FF4040"},
}

// Style represents a collection of styles used in the console
type Style struct {
	Title         lipgloss.Style
	Label         lipgloss.Style
	Value         lipgloss.Style
	Highlight     lipgloss.Style
	ActiveStatus  lipgloss.Style
	Panel         lipgloss.Style
	Help          lipgloss.Style
	Error         lipgloss.Style
	Countdown     lipgloss.Style
	TableHeader   lipgloss.Style
	TableSelected lipgloss.Style
}

// DefaultStyle returns the default style configuration
func DefaultStyle() Style {
	base := lipgloss.NewStyle().
		PaddingLeft(1).
		PaddingRight(1)

	return Style{
		Title: base.
			Bold(true).
			Foreground(defaultColors.Highlight),

		Label: base.
			Foreground(defaultColors.Subtle),

		Value: lipgloss.NewStyle().
			Bold(true),

		Highlight: lipgloss.NewStyle().
			Bold(true).
			Foreground(defaultColors.Highlight),

		ActiveStatus: lipgloss.NewStyle().
			Foreground(defaultColors.Special),

		Panel: base.
			Border(lipgloss.RoundedBorder()).
			BorderForeground(defaultColors.Highlight).
			Padding(0, 1),

		Help: base.
			Foreground(defaultColors.Subtle),

		Error: base.
			Foreground(defaultColors.Error),

		Countdown: base.
			Foreground(defaultColors.Highlight).
			Bold(true),

		TableHeader: lipgloss.NewStyle().
			Bold(true).
			Foreground(defaultColors.Highlight).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(defaultColors.Subtle),

		TableSelected: lipgloss.NewStyle().
			Foreground(defaultColors.Special),
	}
}

// Current holds the current style configuration
var Current = DefaultStyle()
