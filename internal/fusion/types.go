// Package fusion merges relative motion from several pointer devices into a
// single host cursor position.
package fusion

import (
	"fmt"
	"strings"
	"time"
)

// DeviceID identifies a physical pointer device. Values are assigned by the
// device source and are only required to be stable for the process lifetime.
type DeviceID uint32

func (id DeviceID) String() string {
	return fmt.Sprintf("Mouse_%d", uint32(id))
}

// Point is a position on the virtual desktop.
type Point struct {
	X float64
	Y float64
}

// Add returns p translated by d.
func (p Point) Add(d Delta) Point {
	return Point{X: p.X + float64(d.X), Y: p.Y + float64(d.Y)}
}

// Delta is accumulated relative motion.
type Delta struct {
	X int32
	Y int32
}

// IsZero reports whether the delta carries no motion.
func (d Delta) IsZero() bool {
	return d.X == 0 && d.Y == 0
}

// Mode selects the cursor resolution algorithm.
type Mode int32

const (
	// ModeFused steers the cursor with the weighted average of all devices.
	ModeFused Mode = iota
	// ModeIndividual lets only the most recently active device steer.
	ModeIndividual
)

func (m Mode) String() string {
	switch m {
	case ModeFused:
		return "Fused"
	case ModeIndividual:
		return "Individual"
	default:
		return "Unknown"
	}
}

// Toggle returns the other mode.
func (m Mode) Toggle() Mode {
	if m == ModeIndividual {
		return ModeFused
	}
	return ModeIndividual
}

// ParseMode accepts "fused" or "individual" in any case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fused", "fuse":
		return ModeFused, nil
	case "individual", "single":
		return ModeIndividual, nil
	default:
		return ModeFused, fmt.Errorf("unknown mode %q (want fused or individual)", s)
	}
}

// MouseDevice is the tracked state of one physical pointer device.
type MouseDevice struct {
	ID           DeviceID
	Position     Point
	Pending      Delta
	Weight       float64
	LastActivity time.Time
	Present      bool
	Active       bool
}
