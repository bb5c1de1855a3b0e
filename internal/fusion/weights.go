package fusion

import (
	"errors"
	"fmt"
	"time"
)

// Weight adaptation defaults.
const (
	DefaultIdleTimeout = 2000 * time.Millisecond
	DefaultDecay       = 0.9
	DefaultBoost       = 1.1
	DefaultMinWeight   = 0.1
	DefaultMaxWeight   = 2.0
	InitialWeight      = 1.0
)

// ErrInvalidWeights is returned by WeightAdapter.Validate.
var ErrInvalidWeights = errors.New("invalid weight adapter settings")

// WeightAdapter decays the confidence weight of idle devices and boosts
// devices that moved within IdleTimeout.
type WeightAdapter struct {
	IdleTimeout time.Duration
	Decay       float64
	Boost       float64
	Min         float64
	Max         float64
}

// DefaultWeightAdapter returns the adapter with the stock factors.
func DefaultWeightAdapter() WeightAdapter {
	return WeightAdapter{
		IdleTimeout: DefaultIdleTimeout,
		Decay:       DefaultDecay,
		Boost:       DefaultBoost,
		Min:         DefaultMinWeight,
		Max:         DefaultMaxWeight,
	}
}

// Validate checks that the factors produce a usable weight range.
func (a WeightAdapter) Validate() error {
	switch {
	case a.IdleTimeout <= 0:
		return fmt.Errorf("%w: idle timeout must be positive, got %s", ErrInvalidWeights, a.IdleTimeout)
	case a.Decay <= 0 || a.Decay > 1:
		return fmt.Errorf("%w: decay must be in (0, 1], got %g", ErrInvalidWeights, a.Decay)
	case a.Boost < 1:
		return fmt.Errorf("%w: boost must be >= 1, got %g", ErrInvalidWeights, a.Boost)
	case a.Min <= 0:
		return fmt.Errorf("%w: minimum weight must be positive, got %g", ErrInvalidWeights, a.Min)
	case a.Max < a.Min:
		return fmt.Errorf("%w: maximum weight %g below minimum %g", ErrInvalidWeights, a.Max, a.Min)
	}
	return nil
}

// Next returns the weight after one adaptation step for a device that has
// been idle for the given duration.
func (a WeightAdapter) Next(weight float64, idle time.Duration) float64 {
	if idle > a.IdleTimeout {
		weight *= a.Decay
	} else {
		weight *= a.Boost
	}
	return a.Clamp(weight)
}

// Clamp pins w to [Min, Max].
func (a WeightAdapter) Clamp(w float64) float64 {
	return clampFloat(w, a.Min, a.Max)
}
