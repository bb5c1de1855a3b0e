//go:build linux

package linux

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/stigoleg/multimouse/internal/fusion"
)

const procInputDevices = "/proc/bus/input/devices"

// InputDevice is one block of /proc/bus/input/devices.
type InputDevice struct {
	ID       fusion.DeviceID
	Name     string
	Path     string
	Handlers []string
	Relative bool
}

// ListInputDevices reads the kernel's input device table.
func ListInputDevices() ([]InputDevice, error) {
	f, err := os.Open(procInputDevices)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseInputDevices(f)
}

// ParseInputDevices parses the /proc/bus/input/devices format. Only
// devices with an eventN handler are returned.
func ParseInputDevices(r io.Reader) ([]InputDevice, error) {
	var (
		out []InputDevice
		cur InputDevice
	)
	flush := func() {
		if cur.Path != "" {
			out = append(out, cur)
		}
		cur = InputDevice{}
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "N: Name="):
			cur.Name = strings.Trim(strings.TrimPrefix(line, "N: Name="), " \"")
		case strings.HasPrefix(line, "H: Handlers="):
			cur.Handlers = strings.Fields(strings.TrimPrefix(line, "H: Handlers="))
			for _, h := range cur.Handlers {
				if strings.HasPrefix(h, "event") {
					cur.Path = "/dev/input/" + h
					cur.ID, _ = DeviceIDForPath(cur.Path)
					break
				}
			}
		case strings.HasPrefix(line, "B: REL="):
			rel, err := parseBitmask(strings.TrimPrefix(line, "B: REL="))
			if err != nil {
				return nil, fmt.Errorf("device %q: %w", cur.Name, err)
			}
			cur.Relative = rel&(1<<relX) != 0 && rel&(1<<relY) != 0
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return out, nil
}

// parseBitmask parses the low word of a space-separated hex bitmap; the
// last group holds bits 0..63.
func parseBitmask(s string) (uint64, error) {
	groups := strings.Fields(s)
	if len(groups) == 0 {
		return 0, nil
	}
	return strconv.ParseUint(groups[len(groups)-1], 16, 64)
}
