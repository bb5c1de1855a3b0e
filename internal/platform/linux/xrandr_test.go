//go:build linux

package linux

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stigoleg/multimouse/internal/fusion"
)

func TestParseListMonitors(t *testing.T) {
	out := `Monitors: 2
 0: +*eDP-1 1920/344x1080/194+0+0  eDP-1
 1: +HDMI-1 2560/597x1440/336+1920+0  HDMI-1
`
	monitors, err := ParseListMonitors(out)
	require.NoError(t, err)
	assert.Equal(t, []fusion.Rect{
		{X: 0, Y: 0, Width: 1920, Height: 1080},
		{X: 1920, Y: 0, Width: 2560, Height: 1440},
	}, monitors)
	assert.Equal(t, fusion.Rect{X: 0, Y: 0, Width: 4480, Height: 1440}, fusion.Union(monitors))
}

func TestParseListMonitorsNegativeOffset(t *testing.T) {
	monitors, err := ParseListMonitors(" 0: +DP-2 1280/300x1024/240-1280+0  DP-2")
	require.NoError(t, err)
	require.Len(t, monitors, 1)
	assert.Equal(t, int32(-1280), monitors[0].X)
}

func TestParseListMonitorsEmpty(t *testing.T) {
	monitors, err := ParseListMonitors("Monitors: 0\n")
	require.NoError(t, err)
	assert.Empty(t, monitors)
}

func TestParseListMonitorsGarbage(t *testing.T) {
	_, err := ParseListMonitors("Monitors: 1\n 0: nonsense\n")
	assert.Error(t, err)
}

func TestXrandrBoundsRunError(t *testing.T) {
	if !hasCommand("xrandr") {
		t.Skip("xrandr not installed")
	}
	x := &XrandrBounds{run: func(string, ...string) (string, error) {
		return "Can't open display", assert.AnError
	}}
	_, err := x.Monitors()
	assert.ErrorIs(t, err, assert.AnError)
}
