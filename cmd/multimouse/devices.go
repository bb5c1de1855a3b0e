package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/stigoleg/multimouse/internal/platform"
	"github.com/stigoleg/multimouse/internal/ui"
)

type devicesCmd struct {
	All bool `help:"Include devices without relative motion axes"`
}

// Run is called by Kong for the devices command.
func (d *devicesCmd) Run(logger *slog.Logger) error {
	caps := platform.CheckCapability()
	fmt.Println(ui.Current.Title.Render("Session: " + caps.Session))

	devices, err := platform.ListDevices()
	if err != nil {
		logger.Warn("device enumeration failed", "error", err)
	}
	fmt.Println(renderDevices(devices, d.All))

	fmt.Printf("Read mice:   %s\n", yesNo(caps.CanRead))
	fmt.Printf("Move cursor: %s\n", yesNo(caps.CanMove))
	if caps.Instructions != "" {
		fmt.Println()
		fmt.Println(ui.Current.Help.Render(caps.Instructions))
	}
	return nil
}

func renderDevices(devices []platform.DeviceInfo, all bool) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))).
		Headers("ID", "NAME", "PATH", "POINTER")

	n := 0
	for _, dev := range devices {
		if !dev.Relative && !all {
			continue
		}
		t.Row(strconv.FormatUint(uint64(dev.ID), 10), dev.Name, dev.Path, yesNo(dev.Relative))
		n++
	}
	if n == 0 {
		return ui.Current.Label.Render("No pointer devices found")
	}
	return t.Render()
}

func yesNo(ok bool) string {
	if ok {
		return ui.Current.ActiveStatus.Render("yes")
	}
	return ui.Current.Error.Render("no")
}
