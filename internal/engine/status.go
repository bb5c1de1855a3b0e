package engine

import "github.com/stigoleg/multimouse/internal/fusion"

// Status is a point-in-time view for operator diagnostics.
type Status struct {
	Mode     fusion.Mode
	HostX    int32
	HostY    int32
	Desktop  fusion.Rect
	Monitors []fusion.Rect
	Devices  []fusion.MouseDevice
	Stats    Stats
}

// Monitor returns the index of the monitor under the host cursor, or -1.
func (s Status) Monitor() int {
	return fusion.MonitorAt(s.Monitors, fusion.Point{X: float64(s.HostX), Y: float64(s.HostY)})
}

// Active returns the active device in individual mode.
func (s Status) Active() (fusion.MouseDevice, bool) {
	for _, d := range s.Devices {
		if d.Active {
			return d, true
		}
	}
	return fusion.MouseDevice{}, false
}

// Status collects the current mode, host position, bounds and devices.
func (e *Engine) Status() Status {
	e.mu.Lock()
	x, y := toPixels(e.host)
	st := Status{
		Mode:     e.Mode(),
		HostX:    x,
		HostY:    y,
		Desktop:  e.desktop,
		Monitors: append([]fusion.Rect(nil), e.monitors...),
	}
	e.mu.Unlock()

	st.Devices = e.registry.Devices()
	st.Stats = e.Stats()
	return st
}

// Stats returns the loop counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Ticks:      e.ticks.Load(),
		IdleTicks:  e.idleTicks.Load(),
		SinkErrors: e.sinkErrors.Load(),
	}
}

// Host returns the last resolved host position.
func (e *Engine) Host() fusion.Point {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.host
}

// Bounds returns the cached virtual desktop rectangle.
func (e *Engine) Bounds() fusion.Rect {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.desktop
}
