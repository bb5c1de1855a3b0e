package platform

import (
	"context"

	"github.com/stigoleg/multimouse/internal/fusion"
)

// DeltaHandler receives one relative motion report from one device.
// It is called from the source's own goroutine and must not block.
type DeltaHandler = func(id fusion.DeviceID, dx, dy int32)

// DeviceSource delivers per-device relative motion until ctx is cancelled.
type DeviceSource interface {
	Name() string
	Run(ctx context.Context, handle DeltaHandler) error
}

// CursorSink moves the host cursor to an absolute virtual-desktop position.
type CursorSink interface {
	Name() string
	SetCursorPosition(x, y int32) error
	Close() error
}

// BoundsProvider enumerates monitor rectangles on the virtual desktop.
type BoundsProvider interface {
	Monitors() ([]fusion.Rect, error)
}

// DeviceInfo describes a candidate pointer device for the devices command.
type DeviceInfo struct {
	ID       fusion.DeviceID
	Name     string
	Path     string
	Relative bool
}

// Capability summarizes what the running host can do.
type Capability struct {
	// CanRead indicates whether physical mice can be read.
	CanRead bool

	// CanMove indicates whether the host cursor can be positioned.
	CanMove bool

	// Session names the display session (x11, wayland, crostini, windows).
	Session string

	// Instructions explains how to fix missing pieces.
	Instructions string
}
