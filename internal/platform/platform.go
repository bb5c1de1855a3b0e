// Package platform wires OS-specific device sources, cursor sinks and
// bounds providers behind small interfaces.
package platform

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// Device source kinds.
const (
	SourceAuto      = "auto"
	SourceEvdev     = "evdev"
	SourceRawInput  = "rawinput"
	SourceSynthetic = "synthetic"
)

// Cursor sink kinds.
const (
	SinkAuto    = "auto"
	SinkXdotool = "xdotool"
	SinkUinput  = "uinput"
	SinkWin32   = "win32"
	SinkNone    = "none"
)

// ErrUnsupported is returned when a source or sink does not exist on this OS.
var ErrUnsupported = errors.New("not supported on this platform")

// Options selects and configures the platform pieces.
type Options struct {
	Source        string
	Sink          string
	SyntheticMice int
	Seed          int64
	Grab          bool
	Logger        *slog.Logger
}

// Platform bundles the pieces the engine needs. Bounds may be nil, in which
// case the engine uses the default desktop.
type Platform struct {
	Source DeviceSource
	Sink   CursorSink
	Bounds BoundsProvider
}

// New builds the platform pieces for this OS.
func New(opts Options) (*Platform, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "platform"))
	if opts.Source == "" {
		opts.Source = SourceAuto
	}
	if opts.Sink == "" {
		opts.Sink = SinkAuto
	}

	p := &Platform{Bounds: nativeBounds(logger)}

	if opts.Source == SourceSynthetic {
		mice := opts.SyntheticMice
		if mice <= 0 {
			mice = DefaultSyntheticMice
		}
		p.Source = NewSyntheticSource(SyntheticOptions{Mice: mice, Seed: opts.Seed}, logger)
	} else {
		src, err := nativeSource(opts, logger)
		if err != nil {
			return nil, fmt.Errorf("device source %q: %w", opts.Source, err)
		}
		p.Source = src
	}

	sink, err := chooseSink(opts, logger)
	if err != nil {
		return nil, fmt.Errorf("cursor sink %q: %w", opts.Sink, err)
	}
	p.Sink = sink

	logger.Info("platform ready", "source", p.Source.Name(), "sink", p.Sink.Name(), "bounds", p.Bounds != nil)
	return p, nil
}

func chooseSink(opts Options, logger *slog.Logger) (CursorSink, error) {
	if opts.Sink == SinkNone {
		return &NopSink{}, nil
	}
	sink, err := nativeSink(opts, logger)
	if err != nil && opts.Sink == SinkAuto && opts.Source == SourceSynthetic {
		logger.Warn("no cursor sink available, positions will only be shown", "error", err)
		return &NopSink{}, nil
	}
	return sink, err
}

// sortDevices orders relative pointers first, then by id.
func sortDevices(devices []DeviceInfo) {
	slices.SortStableFunc(devices, func(a, b DeviceInfo) int {
		switch {
		case a.Relative != b.Relative:
			if a.Relative {
				return -1
			}
			return 1
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
}

// NopSink remembers the last position without moving anything.
type NopSink struct {
	mu   sync.Mutex
	x, y int32
	n    uint64
}

// Name identifies the sink in logs.
func (s *NopSink) Name() string { return SinkNone }

// SetCursorPosition records the position.
func (s *NopSink) SetCursorPosition(x, y int32) error {
	s.mu.Lock()
	s.x, s.y = x, y
	s.n++
	s.mu.Unlock()
	return nil
}

// Last returns the last recorded position and how many were recorded.
func (s *NopSink) Last() (x, y int32, n uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.x, s.y, s.n
}

// Close is a no-op.
func (s *NopSink) Close() error { return nil }
