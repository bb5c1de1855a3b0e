// Package engine runs the fixed-rate control loop that turns per-device
// motion into host cursor updates.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stigoleg/multimouse/internal/fusion"
)

// DefaultTickPeriod gives a ~200 Hz control loop.
const DefaultTickPeriod = 5 * time.Millisecond

// DefaultBoundsPollInterval is how often the bounds provider is re-queried.
const DefaultBoundsPollInterval = 5 * time.Second

// sinkErrorLogInterval limits how often repeated sink failures are logged.
const sinkErrorLogInterval = 5 * time.Second

// ErrAlreadyRunning is returned by Start on a running engine.
var ErrAlreadyRunning = errors.New("engine already running")

// CursorSink applies the resolved position to the OS cursor.
type CursorSink interface {
	SetCursorPosition(x, y int32) error
}

// DesktopAware is implemented by sinks that need the desktop rectangle,
// such as absolute pointers that scale coordinates onto an axis range.
type DesktopAware interface {
	SetDesktop(fusion.Rect)
}

// BoundsProvider enumerates monitor rectangles on the virtual desktop.
type BoundsProvider interface {
	Monitors() ([]fusion.Rect, error)
}

// AuditSink receives every raw input event. Implementations must not block.
type AuditSink interface {
	Record(at time.Time, id fusion.DeviceID, dx, dy int32)
}

// CursorListener is notified after each tick with the pushed position.
type CursorListener func(x, y int32, at time.Time)

// Options are the tunables of the control loop.
type Options struct {
	TickPeriod         time.Duration
	BoundsPollInterval time.Duration
	Weights            fusion.WeightAdapter
	Smoothing          float64
	Mode               fusion.Mode
}

// DefaultOptions returns the stock settings.
func DefaultOptions() Options {
	return Options{
		TickPeriod:         DefaultTickPeriod,
		BoundsPollInterval: DefaultBoundsPollInterval,
		Weights:            fusion.DefaultWeightAdapter(),
		Smoothing:          fusion.DefaultSmoothing,
		Mode:               fusion.ModeFused,
	}
}

// Deps are the collaborators the engine talks to. Only Sink is required.
type Deps struct {
	Sink   CursorSink
	Bounds BoundsProvider
	Audit  AuditSink
	Logger *slog.Logger
	Clock  func() time.Time
}

// Stats are counters for diagnostics.
type Stats struct {
	Ticks      uint64
	IdleTicks  uint64
	SinkErrors uint64
}

// Engine owns the mouse registry and drives the cursor.
type Engine struct {
	opts     Options
	registry *fusion.Registry
	resolver fusion.Resolver
	mode     atomic.Int32

	sink   CursorSink
	bounds BoundsProvider
	audit  AuditSink
	logger *slog.Logger
	now    func() time.Time

	// step serializes Tick against desktop changes so a resolved position
	// is never committed or pushed against a stale rectangle.
	step sync.Mutex

	mu          sync.Mutex
	host        fusion.Point
	desktop     fusion.Rect
	monitors    []fusion.Rect
	listeners   []CursorListener
	running     bool
	cancel      context.CancelFunc
	lastSinkLog time.Time

	wg sync.WaitGroup

	ticks      atomic.Uint64
	idleTicks  atomic.Uint64
	sinkErrors atomic.Uint64
}

// New builds an engine. Bounds start at fusion.DefaultBounds until the first
// RefreshBounds succeeds.
func New(opts Options, deps Deps) (*Engine, error) {
	if deps.Sink == nil {
		return nil, errors.New("engine: cursor sink is required")
	}
	if opts.TickPeriod <= 0 {
		return nil, fmt.Errorf("engine: tick period must be positive, got %s", opts.TickPeriod)
	}
	if err := opts.Weights.Validate(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	resolver, err := fusion.NewResolver(opts.Smoothing)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	desktop := fusion.DefaultBounds
	e := &Engine{
		opts:     opts,
		registry: fusion.NewRegistry(desktop.Center()),
		resolver: resolver,
		sink:     deps.Sink,
		bounds:   deps.Bounds,
		audit:    deps.Audit,
		logger:   logger.With(slog.String("component", "engine")),
		now:      clock,
		host:     desktop.Center(),
		desktop:  desktop,
	}
	e.mode.Store(int32(opts.Mode))
	if da, ok := deps.Sink.(DesktopAware); ok {
		da.SetDesktop(desktop)
	}
	return e, nil
}

// OnDelta records motion from a device source. Safe for concurrent use and
// never blocks on I/O.
func (e *Engine) OnDelta(id fusion.DeviceID, dx, dy int32) {
	now := e.now()
	e.registry.RecordDelta(id, dx, dy, now)
	if e.audit != nil {
		e.audit.Record(now, id, dx, dy)
	}
}

// Mode returns the current resolution mode.
func (e *Engine) Mode() fusion.Mode {
	return fusion.Mode(e.mode.Load())
}

// SetMode switches modes. The change is picked up at the next tick.
func (e *Engine) SetMode(m fusion.Mode) {
	if prev := fusion.Mode(e.mode.Swap(int32(m))); prev != m {
		e.logger.Info("mode switched", "from", prev, "to", m)
	}
}

// ToggleMode flips between fused and individual and returns the new mode.
func (e *Engine) ToggleMode() fusion.Mode {
	for {
		cur := e.mode.Load()
		next := fusion.Mode(cur).Toggle()
		if e.mode.CompareAndSwap(cur, int32(next)) {
			e.logger.Info("mode switched", "from", fusion.Mode(cur), "to", next)
			return next
		}
	}
}

// Subscribe registers a listener for cursor updates.
func (e *Engine) Subscribe(l CursorListener) {
	e.mu.Lock()
	e.listeners = append(e.listeners, l)
	e.mu.Unlock()
}

// Tick runs one resolution cycle at the given instant. The control loop
// calls it once per period; tests call it directly.
func (e *Engine) Tick(now time.Time) fusion.Resolution {
	e.step.Lock()
	e.registry.UpdateWeights(e.opts.Weights, now)
	snapshot := e.registry.SnapshotAndClear()
	mode := e.Mode()

	e.mu.Lock()
	host, desktop := e.host, e.desktop
	e.mu.Unlock()

	res := e.resolver.Resolve(mode, host, snapshot, desktop)
	e.registry.Commit(res.Positions, res.Active, res.HasActive, desktop)

	e.mu.Lock()
	e.host = e.desktop.Clamp(res.Host)
	res.Host = e.host
	listeners := e.listeners
	e.mu.Unlock()

	e.ticks.Add(1)
	if res.Idle {
		e.idleTicks.Add(1)
	}

	x, y := toPixels(res.Host)
	err := e.sink.SetCursorPosition(x, y)
	e.step.Unlock()
	if err != nil {
		e.reportSinkError(now, err)
	}
	for _, l := range listeners {
		l(x, y, now)
	}
	return res
}

func (e *Engine) reportSinkError(now time.Time, err error) {
	n := e.sinkErrors.Add(1)
	e.mu.Lock()
	due := now.Sub(e.lastSinkLog) >= sinkErrorLogInterval
	if due {
		e.lastSinkLog = now
	}
	e.mu.Unlock()
	if due {
		e.logger.Warn("cursor sink failed", "error", err, "failures", n)
	}
}

// RefreshBounds re-queries the bounds provider. When the provider fails or
// reports no monitors the last known bounds stay in effect. It reports
// whether the desktop rectangle changed.
func (e *Engine) RefreshBounds() (bool, error) {
	if e.bounds == nil {
		return false, nil
	}
	monitors, err := e.bounds.Monitors()
	if err != nil {
		return false, fmt.Errorf("query monitors: %w", err)
	}
	if len(monitors) == 0 {
		e.logger.Debug("no monitors reported, keeping last bounds")
		return false, nil
	}
	desktop := fusion.Union(monitors)

	e.step.Lock()
	defer e.step.Unlock()

	e.mu.Lock()
	changed := desktop != e.desktop
	e.desktop = desktop
	e.monitors = append(e.monitors[:0], monitors...)
	e.host = desktop.Clamp(e.host)
	e.mu.Unlock()

	if changed {
		if da, ok := e.sink.(DesktopAware); ok {
			da.SetDesktop(desktop)
		}
		e.registry.ClampPositions(desktop)
		e.registry.SetSpawn(desktop.Center())
		e.logger.Info("virtual desktop changed",
			"x", desktop.X, "y", desktop.Y, "width", desktop.Width, "height", desktop.Height,
			"monitors", len(monitors))
	}
	return changed, nil
}

// Start launches the control loop and the bounds poller.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return ErrAlreadyRunning
	}
	ctx, e.cancel = context.WithCancel(ctx)
	e.running = true

	e.wg.Add(1)
	go e.loop(ctx)

	if e.bounds != nil && e.opts.BoundsPollInterval > 0 {
		e.wg.Add(1)
		go e.pollBounds(ctx)
	}

	e.logger.Info("control loop started", "period", e.opts.TickPeriod, "mode", e.Mode())
	return nil
}

// Stop cancels the loop and waits for the in-flight tick to finish.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	cancel := e.cancel
	e.cancel = nil
	e.running = false
	e.mu.Unlock()

	cancel()
	e.wg.Wait()
	e.logger.Info("control loop stopped", "ticks", e.ticks.Load())
	return nil
}

// Run starts the engine and blocks until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return e.Stop()
}

// IsRunning reports whether the control loop is active.
func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

func (e *Engine) loop(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.opts.TickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			e.Tick(e.now())
		}
	}
}

func (e *Engine) pollBounds(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.opts.BoundsPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := e.RefreshBounds(); err != nil {
				e.logger.Debug("bounds refresh failed", "error", err)
			}
		}
	}
}

func toPixels(p fusion.Point) (int32, int32) {
	return int32(math.Round(p.X)), int32(math.Round(p.Y))
}
