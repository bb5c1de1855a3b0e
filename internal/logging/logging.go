// Package logging builds the process-wide slog.Logger.
//
// Without a log file, records below error go to stdout and errors go to
// stderr. With a file, everything goes to the file, and the console keeps
// only what the caller asks for: the operator console owns the terminal, so
// it runs with a file and no console output.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LevelTrace is a custom slog level below Debug for per-event output.
const LevelTrace slog.Level = -8

// ParseLevel maps a level name to a slog level. Unknown names map to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MultiHandler fans out records to multiple handlers.
type MultiHandler struct{ hs []slog.Handler }

// NewMultiHandler combines handlers.
func NewMultiHandler(hs ...slog.Handler) MultiHandler {
	return MultiHandler{hs: hs}
}

func (m MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.hs {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.hs {
		if h.Enabled(ctx, r.Level) {
			_ = h.Handle(ctx, r.Clone())
		}
	}
	return nil
}

func (m MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Handler, len(m.hs))
	for i, h := range m.hs {
		out[i] = h.WithAttrs(attrs)
	}
	return MultiHandler{hs: out}
}

func (m MultiHandler) WithGroup(name string) slog.Handler {
	out := make([]slog.Handler, len(m.hs))
	for i, h := range m.hs {
		out[i] = h.WithGroup(name)
	}
	return MultiHandler{hs: out}
}

// LevelFilter delegates to an underlying handler but filters which levels are
// passed to it using the provided predicate.
type LevelFilter struct {
	pass func(slog.Level) bool
	h    slog.Handler
}

// NewLevelFilter wraps h so only levels accepted by pass reach it.
func NewLevelFilter(pass func(slog.Level) bool, h slog.Handler) LevelFilter {
	return LevelFilter{pass: pass, h: h}
}

func (f LevelFilter) Enabled(ctx context.Context, level slog.Level) bool {
	if !f.pass(level) {
		return false
	}
	return f.h.Enabled(ctx, level)
}

func (f LevelFilter) Handle(ctx context.Context, r slog.Record) error {
	if !f.pass(r.Level) {
		return nil
	}
	return f.h.Handle(ctx, r)
}

func (f LevelFilter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return LevelFilter{pass: f.pass, h: f.h.WithAttrs(attrs)}
}

func (f LevelFilter) WithGroup(name string) slog.Handler {
	return LevelFilter{pass: f.pass, h: f.h.WithGroup(name)}
}

// Options select where records go.
type Options struct {
	Level string
	File  string

	// Quiet drops console output; the file, if any, still receives records.
	Quiet bool

	Stdout io.Writer
	Stderr io.Writer
}

// SetupLogger builds a slog.Logger with console and optional file handlers.
// The returned closers must be closed on exit.
func SetupLogger(opts Options) (*slog.Logger, []io.Closer, error) {
	level := ParseLevel(opts.Level)
	stdout, stderr := opts.Stdout, opts.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	var handlers []slog.Handler
	switch {
	case opts.Quiet:
	case opts.File == "":
		handlers = append(handlers,
			NewLevelFilter(func(l slog.Level) bool { return l < slog.LevelError },
				slog.NewTextHandler(stdout, &slog.HandlerOptions{Level: level, ReplaceAttr: levelNames})),
			NewLevelFilter(func(l slog.Level) bool { return l >= slog.LevelError },
				slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelError})),
		)
	default:
		handlers = append(handlers, slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	}

	var closers []io.Closer
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		closers = append(closers, f)
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: level, ReplaceAttr: levelNames}))
	}

	if len(handlers) == 0 {
		return slog.New(slog.DiscardHandler), nil, nil
	}
	return slog.New(NewMultiHandler(handlers...)), closers, nil
}

// levelNames prints LevelTrace as TRACE instead of DEBUG-4.
func levelNames(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey && len(groups) == 0 {
		if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
			a.Value = slog.StringValue("TRACE")
		}
	}
	return a
}
