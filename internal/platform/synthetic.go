package platform

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/stigoleg/multimouse/internal/fusion"
	"github.com/stigoleg/multimouse/internal/platform/patterns"
)

// Synthetic source defaults.
const (
	DefaultSyntheticMice = 3

	// A virtual mouse occasionally rests long enough for its weight to decay.
	restProbability = 0.25
	restMinSeconds  = 1.5
	restMaxSeconds  = 4.0
)

// SyntheticOptions configures the synthetic device source.
type SyntheticOptions struct {
	Mice    int
	Seed    int64
	FirstID fusion.DeviceID

	// TimeScale stretches every delay; 1 is real time, 0.01 is 100x faster.
	TimeScale float64
}

// SyntheticSource drives N virtual mice with generated strokes. It needs
// no hardware and no permissions.
type SyntheticSource struct {
	opts   SyntheticOptions
	logger *slog.Logger
}

// NewSyntheticSource creates a synthetic source.
func NewSyntheticSource(opts SyntheticOptions, logger *slog.Logger) *SyntheticSource {
	if opts.FirstID == 0 {
		opts.FirstID = 1
	}
	if opts.TimeScale <= 0 {
		opts.TimeScale = 1
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SyntheticSource{opts: opts, logger: logger.With(slog.String("component", "synthetic"))}
}

// Name identifies the source in logs.
func (s *SyntheticSource) Name() string {
	return "synthetic"
}

// Run drives every virtual mouse on its own goroutine until ctx is done.
func (s *SyntheticSource) Run(ctx context.Context, handle DeltaHandler) error {
	if s.opts.Mice <= 0 {
		return errors.New("synthetic source needs at least one mouse")
	}
	s.logger.Info("starting virtual mice", "count", s.opts.Mice, "seed", s.opts.Seed)

	var wg sync.WaitGroup
	for i := 0; i < s.opts.Mice; i++ {
		id := s.opts.FirstID + fusion.DeviceID(i)
		rnd := rand.New(rand.NewSource(s.opts.Seed + int64(i)))
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.drive(ctx, id, rnd, handle)
		}()
	}
	wg.Wait()
	return nil
}

func (s *SyntheticSource) drive(ctx context.Context, id fusion.DeviceID, rnd *rand.Rand, handle DeltaHandler) {
	gen := patterns.NewGenerator(rnd)
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	wait := func(d time.Duration) bool {
		timer.Reset(time.Duration(float64(d) * s.opts.TimeScale))
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
			return true
		}
	}

	for {
		for _, step := range gen.Stroke() {
			if step.DX != 0 || step.DY != 0 {
				handle(id, step.DX, step.DY)
			}
			if !wait(step.Delay) {
				return
			}
		}

		rest := gen.PauseDelay()
		if rnd.Float64() < restProbability {
			seconds := restMinSeconds + rnd.Float64()*(restMaxSeconds-restMinSeconds)
			rest = time.Duration(seconds * float64(time.Second))
		}
		if !wait(rest) {
			return
		}
	}
}
