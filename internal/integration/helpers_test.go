package integration

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stigoleg/multimouse/internal/engine"
	"github.com/stigoleg/multimouse/internal/fusion"
	"github.com/stigoleg/multimouse/internal/platform"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stack is a running engine fed by synthetic mice.
type stack struct {
	engine *engine.Engine
	sink   *platform.NopSink
	source *platform.SyntheticSource

	cancel context.CancelFunc
	done   chan error
	once   sync.Once

	mu        sync.Mutex
	positions []fusion.Point
}

func startStack(t *testing.T, mice int, mode fusion.Mode, audit engine.AuditSink) *stack {
	t.Helper()

	opts := engine.DefaultOptions()
	opts.TickPeriod = 2 * time.Millisecond
	opts.Mode = mode

	s := &stack{
		sink: &platform.NopSink{},
		source: platform.NewSyntheticSource(platform.SyntheticOptions{
			Mice:      mice,
			Seed:      7,
			TimeScale: 0.05,
		}, quietLogger()),
		done: make(chan error, 1),
	}

	eng, err := engine.New(opts, engine.Deps{Sink: s.sink, Audit: audit, Logger: quietLogger()})
	require.NoError(t, err)
	s.engine = eng
	eng.Subscribe(func(x, y int32, _ time.Time) {
		s.mu.Lock()
		s.positions = append(s.positions, fusion.Point{X: float64(x), Y: float64(y)})
		s.mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	require.NoError(t, eng.Start(ctx))
	go func() { s.done <- s.source.Run(ctx, eng.OnDelta) }()

	t.Cleanup(s.stop)
	return s
}

// stopSource cancels the run context and waits for the mice to stop. The
// engine still counts as running until Stop is called.
func (s *stack) stopSource() {
	s.once.Do(func() {
		s.cancel()
		select {
		case <-s.done:
		case <-time.After(2 * time.Second):
		}
	})
}

func (s *stack) stop() {
	s.stopSource()
	_ = s.engine.Stop()
}

func (s *stack) seen() []fusion.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]fusion.Point(nil), s.positions...)
}
