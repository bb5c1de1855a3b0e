package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/stigoleg/multimouse/internal/fusion"
)

var deviceColumns = []table.Column{
	{Title: "Mouse", Width: 7},
	{Title: "Weight", Width: 8},
	{Title: "Position", Width: 16},
	{Title: "Last input", Width: 11},
	{Title: "", Width: 7},
}

// View renders the current state of the model to a string.
func View(m Model) string {
	if m.State == stateHelp {
		return helpView(m)
	}
	return dashboardView(m)
}

func dashboardView(m Model) string {
	var b strings.Builder
	st := m.Status

	b.WriteString(Current.Title.Render("Multi-Mouse Cursor Fusion"))
	b.WriteString("\n\n")

	modeStyle := Current.ActiveStatus
	if st.Mode == fusion.ModeIndividual {
		modeStyle = Current.Highlight
	}
	row(&b, "Mode", modeStyle.Render(st.Mode.String()))
	row(&b, "Input", fmt.Sprintf("%s → %s", m.Source, m.Sink))

	x, y := st.HostX, st.HostY
	if !m.Cursor.At.IsZero() {
		x, y = m.Cursor.X, m.Cursor.Y
	}
	row(&b, "Cursor", fmt.Sprintf("(%d, %d)", x, y))

	d := st.Desktop
	desktop := fmt.Sprintf("%dx%d at (%d, %d)", d.Width, d.Height, d.X, d.Y)
	if n := len(st.Monitors); n > 0 {
		desktop += fmt.Sprintf(", monitor %d of %d", st.Monitor()+1, n)
	}
	row(&b, "Desktop", desktop)

	mice := strconv.Itoa(len(st.Devices))
	if active, ok := st.Active(); ok && st.Mode == fusion.ModeIndividual {
		mice += fmt.Sprintf(", %s steering", active.ID)
	}
	row(&b, "Mice", mice)
	row(&b, "Ticks", fmt.Sprintf("%d (%d idle, %d sink errors)", st.Stats.Ticks, st.Stats.IdleTicks, st.Stats.SinkErrors))

	if m.ShowDevices {
		b.WriteString("\n")
		if len(st.Devices) == 0 {
			b.WriteString(Current.Label.Render("No mice have moved yet"))
		} else {
			b.WriteString(Current.Panel.Render(m.devices.View()))
		}
		b.WriteString("\n")
	}

	if !m.Deadline.IsZero() {
		remaining := m.TimeRemaining()
		b.WriteString("\n")
		b.WriteString(Current.Countdown.Render(formatRemaining(remaining)))
		b.WriteString("\n")
		total := m.Deadline.Sub(m.StartTime)
		if total > 0 {
			b.WriteString(" " + m.progress.ViewAs(1-float64(remaining)/float64(total)))
			b.WriteString("\n")
		}
	}

	if m.ErrorMessage != "" {
		b.WriteString("\n" + Current.Error.Render(m.ErrorMessage))
	} else if m.Notice != "" {
		b.WriteString("\n" + Current.Label.Render(m.Notice))
	}

	b.WriteString("\n\n" + Current.Help.Render(m.help.View(m.keys.ForState(m.State))))
	return b.String()
}

func row(b *strings.Builder, label, value string) {
	b.WriteString(Current.Label.Width(10).Render(label))
	b.WriteString(Current.Value.Render(value))
	b.WriteString("\n")
}

func formatRemaining(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	mins := int(d.Minutes()) % 60
	secs := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d remaining", h, mins, secs)
	}
	return fmt.Sprintf("%d:%02d remaining", mins, secs)
}

func deviceRows(devices []fusion.MouseDevice, now time.Time) []table.Row {
	rows := make([]table.Row, 0, len(devices))
	for _, d := range devices {
		last := "never"
		if !d.LastActivity.IsZero() {
			last = now.Sub(d.LastActivity).Round(100*time.Millisecond).String() + " ago"
		}
		flag := ""
		if d.Active {
			flag = "active"
		}
		rows = append(rows, table.Row{
			d.ID.String(),
			strconv.FormatFloat(d.Weight, 'f', 2, 64),
			fmt.Sprintf("%.0f, %.0f", d.Position.X, d.Position.Y),
			last,
			flag,
		})
	}
	return rows
}

func helpView(m Model) string {
	help := `Multi-Mouse Help

Several mice steer one cursor. In fused mode every mouse pulls the cursor
with a weight that grows while it moves and decays while it rests. In
individual mode the mouse that moved last steers alone.

Usage:
  multimouse [run] [flags]
  multimouse devices
  multimouse config init --format yaml

Examples:
  multimouse                          # Console with auto-detected mice
  multimouse --mode individual        # Last-moved mouse steers
  multimouse --source synthetic       # Demo with three virtual mice
  multimouse --for 1h30m --headless   # Stop after 90 minutes, no console
`
	return lipgloss.JoinVertical(lipgloss.Left,
		Current.Help.Render(help),
		Current.Help.Render(m.help.FullHelpView(m.keys.ForState(stateDashboard).FullHelp())),
		"",
		Current.Help.Render("Press h or esc to close help"),
	)
}
