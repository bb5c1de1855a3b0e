package fusion

import (
	"math"
	"slices"
	"sync"
	"time"
)

// Registry owns every device ever seen. A single mutex serializes producer
// updates against the control loop; event volumes are far below the point
// where per-device locking would matter.
type Registry struct {
	mu      sync.Mutex
	devices map[DeviceID]*MouseDevice
	spawn   Point
}

// NewRegistry creates an empty registry. New devices start at spawn.
func NewRegistry(spawn Point) *Registry {
	return &Registry{
		devices: make(map[DeviceID]*MouseDevice),
		spawn:   spawn,
	}
}

// lookup returns the record for id, creating it on first sight.
// Caller must hold r.mu.
func (r *Registry) lookup(id DeviceID, now time.Time) *MouseDevice {
	d, ok := r.devices[id]
	if !ok {
		d = &MouseDevice{
			ID:           id,
			Position:     r.spawn,
			Weight:       InitialWeight,
			LastActivity: now,
			Present:      true,
		}
		r.devices[id] = d
	}
	return d
}

// RecordDelta adds motion to the pending delta of id. Zero deltas register
// the device but do not count as activity.
func (r *Registry) RecordDelta(id DeviceID, dx, dy int32, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d := r.lookup(id, now)
	if dx == 0 && dy == 0 {
		return
	}
	d.Pending.X = saturatingAdd(d.Pending.X, dx)
	d.Pending.Y = saturatingAdd(d.Pending.Y, dy)
	d.LastActivity = now
}

// saturatingAdd sums a and b, pinning the result to the int32 range when a
// stalled control loop lets pending motion pile up.
func saturatingAdd(a, b int32) int32 {
	return int32(max(math.MinInt32, min(math.MaxInt32, int64(a)+int64(b))))
}

// SnapshotAndClear returns a copy of every present device, ordered by id,
// and zeroes each pending delta in the same critical section. Deltas recorded
// after the call land in the next snapshot.
func (r *Registry) SnapshotAndClear() []MouseDevice {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.copyLocked()
	for _, d := range r.devices {
		d.Pending = Delta{}
	}
	return out
}

// Devices returns a diagnostic copy without draining pending deltas.
func (r *Registry) Devices() []MouseDevice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.copyLocked()
}

func (r *Registry) copyLocked() []MouseDevice {
	out := make([]MouseDevice, 0, len(r.devices))
	for _, d := range r.devices {
		if d.Present {
			out = append(out, *d)
		}
	}
	slices.SortFunc(out, func(a, b MouseDevice) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

// UpdateWeights runs one adaptation step for every present device.
func (r *Registry) UpdateWeights(a WeightAdapter, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range r.devices {
		if !d.Present {
			continue
		}
		d.Weight = a.Next(d.Weight, now.Sub(d.LastActivity))
	}
}

// Commit stores resolver output: new device positions, clamped to bounds,
// and, when hasActive is set, the single active device.
func (r *Registry) Commit(positions map[DeviceID]Point, active DeviceID, hasActive bool, bounds Rect) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, p := range positions {
		if d, ok := r.devices[id]; ok {
			d.Position = bounds.Clamp(p)
		}
	}
	for id, d := range r.devices {
		d.Active = hasActive && id == active
	}
}

// SetSpawn changes where new devices appear.
func (r *Registry) SetSpawn(p Point) {
	r.mu.Lock()
	r.spawn = p
	r.mu.Unlock()
}

// ClampPositions pulls every stored position back inside bounds.
func (r *Registry) ClampPositions(bounds Rect) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range r.devices {
		d.Position = bounds.Clamp(d.Position)
	}
}

// Len returns the number of known devices.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.devices)
}
