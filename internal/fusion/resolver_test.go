package fusion

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func device(id DeviceID, weight float64, dx, dy int32, last time.Time) MouseDevice {
	return MouseDevice{
		ID:           id,
		Position:     Point{960, 540},
		Pending:      Delta{dx, dy},
		Weight:       weight,
		LastActivity: last,
		Present:      true,
	}
}

func TestNewResolver(t *testing.T) {
	_, err := NewResolver(DefaultSmoothing)
	require.NoError(t, err)

	for _, s := range []float64{0, -0.5, 1.01} {
		_, err := NewResolver(s)
		assert.ErrorIs(t, err, ErrInvalidSmoothing)
	}
}

func TestFusedSingleDevice(t *testing.T) {
	r := Resolver{Smoothing: 0.7}
	host := Point{960, 540}

	res := r.Resolve(ModeFused, host, []MouseDevice{device(1, 1.0, 50, 0, t0)}, DefaultBounds)
	assert.InDelta(t, 995, res.Host.X, 1e-9)
	assert.InDelta(t, 540, res.Host.Y, 1e-9)
	assert.False(t, res.Idle)
	assert.False(t, res.HasActive)
}

func TestFusedWeightedAverage(t *testing.T) {
	r := Resolver{Smoothing: 0.7}
	host := Point{960, 540}

	two := r.Resolve(ModeFused, host, []MouseDevice{
		device(1, 1.0, 10, 0, t0),
		device(2, 2.0, 10, 0, t0),
	}, DefaultBounds)
	one := r.Resolve(ModeFused, host, []MouseDevice{device(1, 1.0, 10, 0, t0)}, DefaultBounds)

	assert.InDelta(t, one.Host.X, two.Host.X, 1e-9)
	assert.InDelta(t, 967, two.Host.X, 1e-9)
}

func TestFusedDisagreeingDevicesFavourHeavierWeight(t *testing.T) {
	r := Resolver{Smoothing: 1}
	res := r.Resolve(ModeFused, Point{960, 540}, []MouseDevice{
		device(1, 0.1, -100, 0, t0),
		device(2, 2.0, 100, 0, t0),
	}, DefaultBounds)
	// (-100*0.1 + 100*2) / 2.1
	assert.InDelta(t, 960+190/2.1, res.Host.X, 1e-9)
}

func TestFusedNoDevicesLeavesHost(t *testing.T) {
	r := Resolver{Smoothing: 0.7}
	res := r.Resolve(ModeFused, Point{100, 100}, nil, DefaultBounds)
	assert.True(t, res.Idle)
	assert.Equal(t, Point{100, 100}, res.Host)

	res = r.Resolve(ModeFused, Point{100, 100}, []MouseDevice{device(1, 0, 30, 30, t0)}, DefaultBounds)
	assert.True(t, res.Idle, "zero total weight is skipped")
	assert.Equal(t, Point{100, 100}, res.Host)
}

func TestFusedAdvancesDevicePositions(t *testing.T) {
	r := Resolver{Smoothing: 0.7}
	res := r.Resolve(ModeFused, Point{960, 540}, []MouseDevice{
		device(1, 1.0, 5, 5, t0),
		device(2, 1.0, 0, 0, t0),
	}, DefaultBounds)
	assert.Equal(t, map[DeviceID]Point{1: {965, 545}}, res.Positions)
}

func TestFusedAlwaysInBounds(t *testing.T) {
	r := Resolver{Smoothing: DefaultSmoothing}
	bounds := Rect{X: -1280, Y: 0, Width: 3200, Height: 1080}
	rnd := rand.New(rand.NewSource(99))
	host := bounds.Center()

	for i := 0; i < 2000; i++ {
		n := rnd.Intn(6)
		devs := make([]MouseDevice, 0, n)
		for j := 0; j < n; j++ {
			devs = append(devs, device(DeviceID(j+1),
				0.1+rnd.Float64()*1.9,
				int32(rnd.Intn(20001)-10000),
				int32(rnd.Intn(20001)-10000),
				t0))
		}
		host = r.Resolve(ModeFused, host, devs, bounds).Host
		require.True(t, bounds.Contains(host), "host %v escaped %v", host, bounds)
	}
}

func TestSelectActive(t *testing.T) {
	t.Run("latest activity wins regardless of magnitude", func(t *testing.T) {
		got, ok := SelectActive([]MouseDevice{
			device(1, 1, 500, 500, t0.Add(100*time.Millisecond)),
			device(2, 1, 1, 0, t0.Add(200*time.Millisecond)),
		})
		require.True(t, ok)
		assert.Equal(t, DeviceID(2), got.ID)
	})

	t.Run("ties resolved by lowest id", func(t *testing.T) {
		got, ok := SelectActive([]MouseDevice{
			device(9, 1, 0, 0, t0),
			device(3, 1, 0, 0, t0),
			device(5, 1, 0, 0, t0),
		})
		require.True(t, ok)
		assert.Equal(t, DeviceID(3), got.ID)
	})

	t.Run("no devices", func(t *testing.T) {
		_, ok := SelectActive(nil)
		assert.False(t, ok)
	})
}

func TestIndividualActiveDeviceIdleHostStays(t *testing.T) {
	r := Resolver{Smoothing: 0.7}
	host := Point{960, 540}
	res := r.Resolve(ModeIndividual, host, []MouseDevice{
		device(1, 1, 5, 5, t0.Add(100*time.Millisecond)),
		device(2, 1, 0, 0, t0.Add(200*time.Millisecond)),
	}, DefaultBounds)

	require.True(t, res.HasActive)
	assert.Equal(t, DeviceID(2), res.Active)
	assert.Equal(t, host, res.Host)
	_, moved := res.Positions[1]
	assert.False(t, moved, "dormant device keeps its stored position")
}

func TestIndividualFollowsActiveDevicePosition(t *testing.T) {
	r := Resolver{Smoothing: 0.7}
	a := device(1, 1, 0, 0, t0)
	a.Position = Point{100, 100}
	b := device(2, 1, 30, -20, t0.Add(time.Second))
	b.Position = Point{1900, 20}

	res := r.Resolve(ModeIndividual, Point{960, 540}, []MouseDevice{a, b}, DefaultBounds)
	assert.Equal(t, Point{1919, 0}, res.Host, "active position is clamped")
	assert.Equal(t, map[DeviceID]Point{2: {1919, 0}}, res.Positions)
}

func TestIndividualNoDevices(t *testing.T) {
	r := Resolver{Smoothing: 0.7}
	res := r.Resolve(ModeIndividual, Point{5, 5}, nil, DefaultBounds)
	assert.True(t, res.Idle)
	assert.False(t, res.HasActive)
	assert.Equal(t, Point{5, 5}, res.Host)
}
