//go:build linux

package linux

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stigoleg/multimouse/internal/fusion"
)

const procSample = `I: Bus=0019 Vendor=0000 Product=0001 Version=0000
N: Name="Power Button"
P: Phys=LNXPWRBN/button/input0
H: Handlers=kbd event0
B: EV=3
B: KEY=10000000000000 0

I: Bus=0003 Vendor=046d Product=c077 Version=0111
N: Name="Logitech USB Optical Mouse"
P: Phys=usb-0000:00:14.0-2/input0
H: Handlers=mouse0 event4
B: EV=17
B: KEY=ff0000 0 0 0 0
B: REL=903
B: MSC=10

I: Bus=0011 Vendor=0002 Product=0007 Version=01b1
N: Name="SynPS/2 Synaptics TouchPad"
H: Handlers=mouse1 event7
B: EV=b
B: ABS=660800011000003
`

func TestParseInputDevices(t *testing.T) {
	devices, err := ParseInputDevices(strings.NewReader(procSample))
	require.NoError(t, err)
	require.Len(t, devices, 3)

	assert.Equal(t, "Power Button", devices[0].Name)
	assert.False(t, devices[0].Relative)

	mouse := devices[1]
	assert.Equal(t, "Logitech USB Optical Mouse", mouse.Name)
	assert.Equal(t, "/dev/input/event4", mouse.Path)
	assert.Equal(t, fusion.DeviceID(5), mouse.ID)
	assert.Equal(t, []string{"mouse0", "event4"}, mouse.Handlers)
	assert.True(t, mouse.Relative)

	assert.False(t, devices[2].Relative, "absolute touchpad")
}

func TestParseInputDevicesSkipsWithoutEventHandler(t *testing.T) {
	devices, err := ParseInputDevices(strings.NewReader("N: Name=\"js\"\nH: Handlers=js0\n"))
	require.NoError(t, err)
	assert.Empty(t, devices)
}

func TestParseBitmask(t *testing.T) {
	v, err := parseBitmask("1 903")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x903), v)

	v, err = parseBitmask("")
	require.NoError(t, err)
	assert.Zero(t, v)

	_, err = parseBitmask("zz")
	assert.Error(t, err)
}
