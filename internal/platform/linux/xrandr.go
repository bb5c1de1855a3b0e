//go:build linux

package linux

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/stigoleg/multimouse/internal/fusion"
)

// ErrXrandrMissing is returned when xrandr is not installed.
var ErrXrandrMissing = errors.New("xrandr not found")

// geometry as printed by `xrandr --listmonitors`: W/mmxH/mm+X+Y
var monitorGeometry = regexp.MustCompile(`(\d+)/\d+x(\d+)/\d+([+-]\d+)([+-]\d+)`)

// XrandrBounds enumerates monitors with `xrandr --listmonitors`.
type XrandrBounds struct {
	run func(name string, args ...string) (string, error)
}

// NewXrandrBounds returns a bounds provider backed by xrandr.
func NewXrandrBounds() *XrandrBounds {
	return &XrandrBounds{run: runVerbose}
}

// Monitors returns one rect per active monitor.
func (x *XrandrBounds) Monitors() ([]fusion.Rect, error) {
	if !hasCommand("xrandr") {
		return nil, ErrXrandrMissing
	}
	out, err := x.run("xrandr", "--listmonitors")
	if err != nil {
		return nil, fmt.Errorf("xrandr --listmonitors: %w (output: %q)", err, out)
	}
	return ParseListMonitors(out)
}

// ParseListMonitors parses `xrandr --listmonitors` output.
func ParseListMonitors(out string) ([]fusion.Rect, error) {
	var monitors []fusion.Rect
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "Monitors:") {
			continue
		}
		m := monitorGeometry.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("unrecognized xrandr monitor line %q", line)
		}
		var v [4]int64
		for i := range v {
			n, err := strconv.ParseInt(m[i+1], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("xrandr monitor line %q: %w", line, err)
			}
			v[i] = n
		}
		monitors = append(monitors, fusion.Rect{
			X:      int32(v[2]),
			Y:      int32(v[3]),
			Width:  int32(v[0]),
			Height: int32(v[1]),
		})
	}
	return monitors, nil
}
