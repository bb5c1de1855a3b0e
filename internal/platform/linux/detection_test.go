//go:build linux

package linux

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectDisplayServer(t *testing.T) {
	tests := []struct {
		name    string
		wayland string
		session string
		display string
		want    string
	}{
		{"wayland socket", "wayland-0", "", ":0", DisplayServerWayland},
		{"wayland session type", "", "wayland", "", DisplayServerWayland},
		{"x11 display", "", "", ":0", DisplayServerX11},
		{"x11 session type", "", "x11", "", DisplayServerX11},
		{"nothing", "", "", "", DisplayServerUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("WAYLAND_DISPLAY", tt.wayland)
			t.Setenv("XDG_SESSION_TYPE", tt.session)
			t.Setenv("DISPLAY", tt.display)
			assert.Equal(t, tt.want, DetectDisplayServer())
		})
	}
}

func TestDetectCrostiniFromEnv(t *testing.T) {
	t.Setenv("SOMMELIER_VERSION", "0.20")
	assert.True(t, DetectCrostini())
}

func TestCapabilitiesSession(t *testing.T) {
	assert.Equal(t, "x11", Capabilities{DisplayServer: DisplayServerX11}.Session())
	assert.Equal(t, "crostini/wayland", Capabilities{DisplayServer: DisplayServerWayland, Crostini: true}.Session())
}

func TestParseOSRelease(t *testing.T) {
	in := "NAME=\"Debian GNU/Linux\"\nID=debian\nVERSION_ID=\"12\"\n"
	got := parseOSRelease(bufio.NewScanner(strings.NewReader(in)))
	assert.Equal(t, DistroInfo{Name: "debian", PkgManager: "apt"}, got)

	in = "ID=\"manjaro\"\nID_LIKE=arch\n"
	got = parseOSRelease(bufio.NewScanner(strings.NewReader(in)))
	assert.Equal(t, "pacman", got.PkgManager)
}
