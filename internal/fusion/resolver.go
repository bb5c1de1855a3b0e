package fusion

import (
	"errors"
	"fmt"
)

// DefaultSmoothing is the fused-mode exponential smoothing factor.
const DefaultSmoothing = 0.7

// ErrInvalidSmoothing is returned when the smoothing factor is outside (0, 1].
var ErrInvalidSmoothing = errors.New("smoothing factor must be in (0, 1]")

// Resolution is the outcome of one resolver pass.
type Resolution struct {
	Host Point

	// Positions holds the device positions to store back into the registry.
	Positions map[DeviceID]Point

	Active    DeviceID
	HasActive bool

	// Idle is set when no device could steer the cursor this tick.
	Idle bool
}

// Resolver computes the next host cursor position from a registry snapshot.
type Resolver struct {
	Smoothing float64
}

// NewResolver validates the smoothing factor.
func NewResolver(smoothing float64) (Resolver, error) {
	if smoothing <= 0 || smoothing > 1 {
		return Resolver{}, fmt.Errorf("%w: got %g", ErrInvalidSmoothing, smoothing)
	}
	return Resolver{Smoothing: smoothing}, nil
}

// Resolve dispatches to the algorithm for mode. The returned host position is
// always inside bounds.
func (r Resolver) Resolve(mode Mode, host Point, devices []MouseDevice, bounds Rect) Resolution {
	if mode == ModeIndividual {
		return r.individual(host, devices, bounds)
	}
	return r.fused(host, devices, bounds)
}

// fused moves the host by the weight-averaged delta of every device, then
// smooths toward that candidate. Each device's own position is advanced by
// its own delta so the positions stay meaningful across a mode switch.
func (r Resolver) fused(host Point, devices []MouseDevice, bounds Rect) Resolution {
	res := Resolution{Host: bounds.Clamp(host), Positions: make(map[DeviceID]Point, len(devices))}

	var sumX, sumY, total float64
	for _, d := range devices {
		sumX += float64(d.Pending.X) * d.Weight
		sumY += float64(d.Pending.Y) * d.Weight
		total += d.Weight
		if !d.Pending.IsZero() {
			res.Positions[d.ID] = bounds.Clamp(d.Position.Add(d.Pending))
		}
	}
	if total <= 0 {
		res.Idle = true
		return res
	}

	s := r.Smoothing
	candidate := Point{X: host.X + sumX/total, Y: host.Y + sumY/total}
	res.Host = bounds.Clamp(Point{
		X: (1-s)*host.X + s*candidate.X,
		Y: (1-s)*host.Y + s*candidate.Y,
	})
	return res
}

// individual hands the cursor to the most recently active device. Dormant
// devices lose their pending motion and keep their stored position.
func (r Resolver) individual(host Point, devices []MouseDevice, bounds Rect) Resolution {
	active, ok := SelectActive(devices)
	if !ok {
		return Resolution{Host: bounds.Clamp(host), Idle: true}
	}
	pos := bounds.Clamp(active.Position.Add(active.Pending))
	return Resolution{
		Host:      pos,
		Positions: map[DeviceID]Point{active.ID: pos},
		Active:    active.ID,
		HasActive: true,
	}
}

// SelectActive returns the device with the latest activity. Ties go to the
// lowest id so the choice does not depend on snapshot order.
func SelectActive(devices []MouseDevice) (MouseDevice, bool) {
	var (
		best  MouseDevice
		found bool
	)
	for _, d := range devices {
		if !d.Present {
			continue
		}
		if !found ||
			d.LastActivity.After(best.LastActivity) ||
			(d.LastActivity.Equal(best.LastActivity) && d.ID < best.ID) {
			best = d
			found = true
		}
	}
	return best, found
}
