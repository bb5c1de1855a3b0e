// Package config holds the command line and config file options and turns
// them into settings for the engine, the platform layer and the audit log.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stigoleg/multimouse/internal/audit"
	"github.com/stigoleg/multimouse/internal/engine"
	"github.com/stigoleg/multimouse/internal/fusion"
	"github.com/stigoleg/multimouse/internal/platform"
	"github.com/stigoleg/multimouse/internal/util"
)

// DefaultLogFile receives logs while the console owns the terminal.
const DefaultLogFile = "multimouse.log"

var (
	ErrInvalidTick   = errors.New("tick period must be positive")
	ErrInvalidMice   = errors.New("synthetic mouse count must be between 1 and 16")
	ErrInvalidAudit  = errors.New("invalid audit settings")
	ErrInvalidBounds = errors.New("bounds poll interval must not be negative")
)

// MaxSyntheticMice caps the synthetic source.
const MaxSyntheticMice = 16

// Log configures diagnostics output.
type Log struct {
	Level string `help:"Log level" enum:"trace,debug,info,warn,error" default:"info" env:"MULTIMOUSE_LOG_LEVEL"`
	File  string `help:"Write logs to this file (the console defaults to multimouse.log)" env:"MULTIMOUSE_LOG_FILE"`
}

// Audit configures the on-disk input audit log.
type Audit struct {
	Dir      string `help:"Directory for the input audit log (defaults to the per-user state directory)" env:"MULTIMOUSE_AUDIT_DIR"`
	Disable  bool   `help:"Do not write the input audit log" env:"MULTIMOUSE_AUDIT_DISABLE"`
	MaxBytes int64  `help:"Rotate the audit log at this size" default:"5242880"`
	Buffer   int    `help:"Events buffered before the audit log starts dropping" default:"1024"`
}

// Session holds everything that shapes one run of the engine.
type Session struct {
	Mode          string        `help:"Cursor resolution mode" enum:"fused,individual" default:"fused" env:"MULTIMOUSE_MODE"`
	Tick          time.Duration `help:"Control loop period" default:"5ms"`
	IdleTimeout   time.Duration `help:"Idle time after which a mouse's weight decays" default:"2s"`
	Decay         float64       `help:"Weight factor applied to idle mice each tick" default:"0.9"`
	Boost         float64       `help:"Weight factor applied to moving mice each tick" default:"1.1"`
	MinWeight     float64       `help:"Lower weight bound" default:"0.1"`
	MaxWeight     float64       `help:"Upper weight bound" default:"2.0"`
	Smoothing     float64       `help:"Fraction of the gap to the target covered per tick" default:"0.7"`
	Source        string        `help:"Where mouse motion comes from" enum:"auto,evdev,rawinput,synthetic" default:"auto" env:"MULTIMOUSE_SOURCE"`
	Sink          string        `help:"How the cursor is moved" enum:"auto,xdotool,uinput,win32,none" default:"auto" env:"MULTIMOUSE_SINK"`
	Grab          bool          `help:"Grab input devices so the desktop does not also move the cursor (evdev only)"`
	SyntheticMice int           `help:"Number of virtual mice for the synthetic source" default:"3"`
	Seed          int64         `help:"Seed for the synthetic source; 0 picks one"`
	BoundsPoll    time.Duration `help:"How often monitors are re-enumerated; 0 disables polling" default:"5s"`
	Headless      bool          `help:"Run without the console UI"`
	For           string        `help:"Stop after this long (minutes or a duration such as 1h30m)"`
	Until         string        `help:"Stop at this clock time (HH:MM or 3:04PM)"`

	Audit Audit `embed:"" prefix:"audit."`
}

// DefaultSession mirrors the flag defaults for callers that skip parsing.
func DefaultSession() Session {
	w := fusion.DefaultWeightAdapter()
	return Session{
		Mode:          "fused",
		Tick:          engine.DefaultTickPeriod,
		IdleTimeout:   w.IdleTimeout,
		Decay:         w.Decay,
		Boost:         w.Boost,
		MinWeight:     w.Min,
		MaxWeight:     w.Max,
		Smoothing:     fusion.DefaultSmoothing,
		Source:        platform.SourceAuto,
		Sink:          platform.SinkAuto,
		SyntheticMice: platform.DefaultSyntheticMice,
		BoundsPoll:    engine.DefaultBoundsPollInterval,
		Audit: Audit{
			MaxBytes: audit.DefaultMaxBytes,
			Buffer:   audit.DefaultBuffer,
		},
	}
}

// Validate reports every invalid setting at once.
func (s *Session) Validate() error {
	var errs []error
	if s.Tick <= 0 {
		errs = append(errs, fmt.Errorf("%w: got %s", ErrInvalidTick, s.Tick))
	}
	if err := s.weights().Validate(); err != nil {
		errs = append(errs, err)
	}
	if s.Smoothing <= 0 || s.Smoothing > 1 {
		errs = append(errs, fmt.Errorf("%w: got %g", fusion.ErrInvalidSmoothing, s.Smoothing))
	}
	if _, err := fusion.ParseMode(s.Mode); err != nil {
		errs = append(errs, err)
	}
	if s.Source == platform.SourceSynthetic && (s.SyntheticMice < 1 || s.SyntheticMice > MaxSyntheticMice) {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrInvalidMice, s.SyntheticMice))
	}
	if s.BoundsPoll < 0 {
		errs = append(errs, fmt.Errorf("%w: got %s", ErrInvalidBounds, s.BoundsPoll))
	}
	if !s.Audit.Disable && (s.Audit.MaxBytes <= 0 || s.Audit.Buffer <= 0) {
		errs = append(errs, fmt.Errorf("%w: max bytes and buffer must be positive", ErrInvalidAudit))
	}
	if _, err := util.Deadline(s.For, s.Until, time.Now()); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Session) weights() fusion.WeightAdapter {
	return fusion.WeightAdapter{
		IdleTimeout: s.IdleTimeout,
		Decay:       s.Decay,
		Boost:       s.Boost,
		Min:         s.MinWeight,
		Max:         s.MaxWeight,
	}
}

// EngineOptions converts the session into control loop settings.
func (s *Session) EngineOptions() (engine.Options, error) {
	mode, err := fusion.ParseMode(s.Mode)
	if err != nil {
		return engine.Options{}, err
	}
	return engine.Options{
		TickPeriod:         s.Tick,
		BoundsPollInterval: s.BoundsPoll,
		Weights:            s.weights(),
		Smoothing:          s.Smoothing,
		Mode:               mode,
	}, nil
}

// PlatformOptions selects the device source and cursor sink.
func (s *Session) PlatformOptions(logger *slog.Logger) platform.Options {
	return platform.Options{
		Source:        s.Source,
		Sink:          s.Sink,
		SyntheticMice: s.SyntheticMice,
		Seed:          s.Seed,
		Grab:          s.Grab,
		Logger:        logger,
	}
}

// AuditOptions returns the audit log settings and whether auditing is on.
// An empty directory resolves to DefaultAuditDir.
func (s *Session) AuditOptions() (audit.Options, bool, error) {
	if s.Audit.Disable {
		return audit.Options{}, false, nil
	}
	dir, err := s.Audit.Directory()
	if err != nil {
		return audit.Options{}, false, err
	}
	return audit.Options{
		Dir:      dir,
		MaxBytes: s.Audit.MaxBytes,
		Buffer:   s.Audit.Buffer,
	}, true, nil
}

// Directory returns the configured audit directory or the default one.
func (a Audit) Directory() (string, error) {
	if a.Dir != "" {
		return a.Dir, nil
	}
	dir, err := DefaultAuditDir()
	if err != nil {
		return "", fmt.Errorf("%w: no audit directory: %w", ErrInvalidAudit, err)
	}
	return dir, nil
}

// Deadline returns when the session should end; the zero time means never.
func (s *Session) Deadline(now time.Time) (time.Time, error) {
	return util.Deadline(s.For, s.Until, now)
}

// LogFile picks the log destination. The console UI draws on the terminal,
// so it gets a file even when none was asked for.
func (s *Session) LogFile(l Log) string {
	if l.File == "" && !s.Headless {
		return DefaultLogFile
	}
	return l.File
}
