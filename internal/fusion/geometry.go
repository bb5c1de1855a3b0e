package fusion

// Rect is an axis-aligned rectangle in virtual-desktop pixels.
type Rect struct {
	X      int32
	Y      int32
	Width  int32
	Height int32
}

// DefaultBounds is used when no monitor can be enumerated.
var DefaultBounds = Rect{X: 0, Y: 0, Width: 1920, Height: 1080}

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Center returns the middle pixel of r.
func (r Rect) Center() Point {
	return Point{X: float64(r.X + r.Width/2), Y: float64(r.Y + r.Height/2)}
}

// Contains reports whether p falls inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= float64(r.X) && p.X < float64(r.X+r.Width) &&
		p.Y >= float64(r.Y) && p.Y < float64(r.Y+r.Height)
}

// Clamp pins p to the last addressable pixel of r on each axis. Clamping a
// point already inside r returns it unchanged.
func (r Rect) Clamp(p Point) Point {
	if r.Empty() {
		return p
	}
	return Point{
		X: clampFloat(p.X, float64(r.X), float64(r.X+r.Width-1)),
		Y: clampFloat(p.Y, float64(r.Y), float64(r.Y+r.Height-1)),
	}
}

// Union returns the bounding rectangle of all non-empty monitors. It returns
// DefaultBounds when there are none.
func Union(monitors []Rect) Rect {
	var (
		found                  bool
		minX, minY, maxX, maxY int32
	)
	for _, m := range monitors {
		if m.Empty() {
			continue
		}
		if !found {
			minX, minY = m.X, m.Y
			maxX, maxY = m.X+m.Width, m.Y+m.Height
			found = true
			continue
		}
		minX = min(minX, m.X)
		minY = min(minY, m.Y)
		maxX = max(maxX, m.X+m.Width)
		maxY = max(maxY, m.Y+m.Height)
	}
	if !found {
		return DefaultBounds
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// MonitorAt returns the index of the monitor containing p, or -1.
func MonitorAt(monitors []Rect, p Point) int {
	for i, m := range monitors {
		if m.Contains(p) {
			return i
		}
	}
	return -1
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
