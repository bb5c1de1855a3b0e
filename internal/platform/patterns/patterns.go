// Package patterns generates human-like pointer strokes for virtual mice.
package patterns

import (
	"math"
	"math/rand"
	"time"
)

// Stroke generation constants.
const (
	// Stroke extent in pixels.
	StrokeMinSize = 40.0
	StrokeMaxSize = 240.0

	// MaxStepPixels is the largest distance covered by one report.
	MaxStepPixels = 8.0

	// Per-report timing (in seconds).
	StepDelayMinSeconds = 0.004
	StepDelayMaxSeconds = 0.016

	// Pauses between strokes and inside them.
	PauseProbability = 0.12
	PauseDurationMin = 0.15
	PauseDurationMax = 0.4

	// Movement speed factors.
	SpeedFactorMin        = 0.7
	SpeedFactorMax        = 1.3
	SpeedFactorLongDist   = 1.2
	LongDistanceThreshold = 6.0
)

// Shape identifies a stroke outline.
type Shape int

// Supported shapes.
const (
	ShapeCircle Shape = iota
	ShapeSquare
	ShapeZigZag
	ShapeRandomWalk
	shapeCount
)

func (s Shape) String() string {
	switch s {
	case ShapeCircle:
		return "circle"
	case ShapeSquare:
		return "square"
	case ShapeZigZag:
		return "zigzag"
	case ShapeRandomWalk:
		return "random-walk"
	default:
		return "unknown"
	}
}

// Point is an offset from the stroke origin.
type Point struct {
	X float64
	Y float64
}

// Step is one relative report followed by a delay before the next one.
// A zero delta with a non-zero delay is a pause.
type Step struct {
	DX    int32
	DY    int32
	Delay time.Duration
}

// Generator produces strokes from a seeded random source. It is not safe
// for concurrent use; give each virtual device its own generator.
type Generator struct {
	rnd *rand.Rand
}

// NewGenerator creates a new pattern generator with a random source.
func NewGenerator(rnd *rand.Rand) *Generator {
	return &Generator{rnd: rnd}
}

// RandomShape picks one of the supported shapes.
func (g *Generator) RandomShape() Shape {
	return Shape(g.rnd.Intn(int(shapeCount)))
}

// ShapePoints returns the outline of shape relative to the origin.
func (g *Generator) ShapePoints(shape Shape, numPoints int, size float64) []Point {
	if numPoints < 4 {
		numPoints = 4
	}
	switch shape {
	case ShapeCircle:
		return g.buildCirclePoints(numPoints, size)
	case ShapeSquare:
		return g.buildSquarePoints(numPoints, size)
	case ShapeZigZag:
		return g.buildZigZagPoints(numPoints, size)
	default:
		return g.buildRandomWalkPoints(numPoints, size)
	}
}

// Stroke generates a closed stroke: the emitted deltas always sum to zero
// so a virtual mouse returns to where it started.
func (g *Generator) Stroke() []Step {
	size := StrokeMinSize + g.rnd.Float64()*(StrokeMaxSize-StrokeMinSize)
	points := g.ShapePoints(g.RandomShape(), 4+g.rnd.Intn(8), size)
	return g.StepsFor(points)
}

// StepsFor converts an outline into integer reports of at most
// MaxStepPixels each, walking origin -> points... -> origin. Sub-pixel
// remainders carry over so rounding never drifts.
func (g *Generator) StepsFor(points []Point) []Step {
	path := make([]Point, 0, len(points)+2)
	path = append(path, Point{})
	path = append(path, points...)
	path = append(path, Point{})

	var (
		steps  []Step
		ix, iy int32
	)
	for i := 1; i < len(path); i++ {
		from, to := path[i-1], path[i]
		dist := math.Hypot(to.X-from.X, to.Y-from.Y)
		n := int(math.Ceil(dist / MaxStepPixels))
		if n < 1 {
			n = 1
		}
		for k := 1; k <= n; k++ {
			f := float64(k) / float64(n)
			tx := int32(math.Round(from.X + (to.X-from.X)*f))
			ty := int32(math.Round(from.Y + (to.Y-from.Y)*f))
			dx, dy := tx-ix, ty-iy
			ix, iy = tx, ty
			if dx == 0 && dy == 0 {
				continue
			}
			steps = append(steps, Step{DX: dx, DY: dy, Delay: g.MovementDelay(dist / float64(n))})
		}
		if g.ShouldPause() {
			steps = append(steps, Step{Delay: g.PauseDelay()})
		}
	}
	return steps
}

func (g *Generator) buildCirclePoints(numPoints int, size float64) []Point {
	points := make([]Point, 0, numPoints)
	for i := 0; i < numPoints; i++ {
		angle := 2 * math.Pi * float64(i) / float64(numPoints)
		points = append(points, Point{
			X: size * math.Cos(angle),
			Y: size * math.Sin(angle),
		})
	}
	return points
}

func (g *Generator) buildSquarePoints(numPoints int, size float64) []Point {
	side := int(math.Sqrt(float64(numPoints)))
	if side < 2 {
		side = 2
	}

	points := make([]Point, 0, side*4)
	for i := 0; i < side; i++ {
		points = append(points, Point{X: size * float64(i) / float64(side-1), Y: 0})
	}
	for i := 1; i < side; i++ {
		points = append(points, Point{X: size, Y: size * float64(i) / float64(side-1)})
	}
	for i := side - 2; i >= 0; i-- {
		points = append(points, Point{X: size * float64(i) / float64(side-1), Y: size})
	}
	for i := side - 2; i > 0; i-- {
		points = append(points, Point{X: 0, Y: size * float64(i) / float64(side-1)})
	}
	return points
}

func (g *Generator) buildZigZagPoints(numPoints int, size float64) []Point {
	points := make([]Point, 0, numPoints)
	for i := 0; i < numPoints; i++ {
		x := size * float64(i) / float64(numPoints-1)
		y := size * 0.5
		if i%2 == 0 {
			y = -size * 0.5
		}
		points = append(points, Point{X: x, Y: y})
	}
	return points
}

func (g *Generator) buildRandomWalkPoints(numPoints int, size float64) []Point {
	points := make([]Point, 0, numPoints)

	x, y := 0.0, 0.0
	points = append(points, Point{X: 0, Y: 0})
	step := size / 3

	for i := 1; i < numPoints; i++ {
		angle := g.rnd.Float64() * 2 * math.Pi
		x += step * math.Cos(angle)
		y += step * math.Sin(angle)
		points = append(points, Point{X: x, Y: y})
	}
	return points
}

// SegmentDistance calculates the distance from a point to the next point (or origin if last).
func SegmentDistance(points []Point, i int) float64 {
	if len(points) == 0 || i < 0 || i >= len(points) {
		return 0
	}

	pt := points[i]
	if i < len(points)-1 {
		next := points[i+1]
		return math.Hypot(next.X-pt.X, next.Y-pt.Y)
	}
	return math.Hypot(pt.X, pt.Y)
}

// MovementDelay returns a natural delay for a report covering distance pixels.
func (g *Generator) MovementDelay(distance float64) time.Duration {
	base := StepDelayMinSeconds + g.rnd.Float64()*(StepDelayMaxSeconds-StepDelayMinSeconds)

	speedFactor := SpeedFactorMin + g.rnd.Float64()*(SpeedFactorMax-SpeedFactorMin)
	if distance > LongDistanceThreshold {
		speedFactor *= SpeedFactorLongDist
	}
	return time.Duration(base * speedFactor * float64(time.Second))
}

// ShouldPause reports whether a pause should follow the current segment.
func (g *Generator) ShouldPause() bool {
	return g.rnd.Float64() < PauseProbability
}

// PauseDelay returns a random pause duration.
func (g *Generator) PauseDelay() time.Duration {
	seconds := PauseDurationMin + g.rnd.Float64()*(PauseDurationMax-PauseDurationMin)
	return time.Duration(seconds * float64(time.Second))
}
