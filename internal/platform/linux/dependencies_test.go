//go:build linux

package linux

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateInstallCommand(t *testing.T) {
	tests := []struct {
		tool    string
		manager string
		want    string
	}{
		{"xdotool", "apt", "sudo apt update && sudo apt install xdotool"},
		{"xrandr", "apt", "sudo apt update && sudo apt install x11-xserver-utils"},
		{"xrandr", "pacman", "sudo pacman -S xorg-xrandr"},
		{"xdotool", "dnf", "sudo dnf install xdotool"},
		{"xrandr", "apk", "sudo apk add xrandr"},
	}
	for _, tt := range tests {
		t.Run(tt.tool+"/"+tt.manager, func(t *testing.T) {
			cmd, _ := GenerateInstallCommand(tt.tool, DistroInfo{PkgManager: tt.manager})
			assert.Equal(t, tt.want, cmd)
		})
	}

	cmd, note := GenerateInstallCommand("", DistroInfo{})
	assert.Empty(t, cmd)
	assert.NotEmpty(t, note)

	_, note = GenerateInstallCommand("xdotool", DistroInfo{PkgManager: "unknown"})
	assert.Contains(t, note, "xdotool")
}

func TestCheckMissingDependencies(t *testing.T) {
	distro := DistroInfo{Name: "debian", PkgManager: "apt"}

	all := Capabilities{XdotoolAvailable: true, XrandrAvailable: true, DisplayServer: DisplayServerX11}
	assert.Empty(t, CheckMissingDependencies(all, distro, true))

	missing := CheckMissingDependencies(Capabilities{DisplayServer: DisplayServerX11}, distro, false)
	require.Len(t, missing, 3)
	assert.Equal(t, "xdotool", missing[0].Name)
	assert.Equal(t, "xrandr", missing[1].Name)
	assert.Equal(t, "input device access", missing[2].Name)

	wayland := CheckMissingDependencies(Capabilities{XrandrAvailable: true, DisplayServer: DisplayServerWayland}, distro, true)
	assert.Empty(t, wayland, "xdotool is not needed on wayland")

	crostini := CheckMissingDependencies(Capabilities{XrandrAvailable: true, Crostini: true}, distro, false)
	require.Len(t, crostini, 1)
	assert.Contains(t, crostini[0].InstallCmd, "ChromeOS")
}

func TestFormatDependencyMessages(t *testing.T) {
	assert.Empty(t, FormatDependencyMessages(nil))

	msg := FormatDependencyMessages([]DependencyInfo{{
		Name:        "xrandr",
		WhyNeeded:   "monitor layout",
		InstallCmd:  "sudo apt install x11-xserver-utils",
		Optional:    true,
		Alternative: "assume 1920x1080",
	}})
	assert.Contains(t, msg, "1. xrandr (optional)")
	assert.Contains(t, msg, "Install with: sudo apt install x11-xserver-utils")
	assert.Contains(t, msg, "Alternative: assume 1920x1080")
}

func TestCheckInputAccessEmptyDir(t *testing.T) {
	ok, msg := CheckInputAccess(t.TempDir())
	assert.False(t, ok)
	assert.Equal(t, ErrNoPointers.Error(), msg)
}
