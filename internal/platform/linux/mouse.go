//go:build linux

package linux

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
)

// ErrXdotoolMissing is returned when xdotool is not installed.
var ErrXdotoolMissing = errors.New("xdotool not found")

// CommandSink positions the cursor by running an external tool with the
// absolute coordinates appended to Args. Repeated positions are skipped.
type CommandSink struct {
	Cmd  string
	Args []string

	run func(name string, args ...string) (string, error)

	mu      sync.Mutex
	last    [2]int32
	hasLast bool
}

// NewXdotoolSink returns an X11 cursor sink backed by `xdotool mousemove`.
func NewXdotoolSink() (*CommandSink, error) {
	if !hasCommand("xdotool") {
		return nil, ErrXdotoolMissing
	}
	return &CommandSink{Cmd: "xdotool", Args: []string{"mousemove", "--"}, run: runVerbose}, nil
}

// Name identifies the sink in logs.
func (c *CommandSink) Name() string {
	return c.Cmd
}

// SetCursorPosition moves the cursor to (x, y).
func (c *CommandSink) SetCursorPosition(x, y int32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	pos := [2]int32{x, y}
	if c.hasLast && c.last == pos {
		return nil
	}

	args := make([]string, 0, len(c.Args)+2)
	args = append(args, c.Args...)
	args = append(args, strconv.Itoa(int(x)), strconv.Itoa(int(y)))
	if out, err := c.run(c.Cmd, args...); err != nil {
		return fmt.Errorf("%s: %w (output: %q)", c.Cmd, err, out)
	}
	c.last, c.hasLast = pos, true
	return nil
}

// Close is a no-op; each move is a separate process.
func (c *CommandSink) Close() error {
	return nil
}
