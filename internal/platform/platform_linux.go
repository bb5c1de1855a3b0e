//go:build linux

package platform

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/stigoleg/multimouse/internal/platform/linux"
)

func nativeSource(opts Options, logger *slog.Logger) (DeviceSource, error) {
	switch opts.Source {
	case SourceAuto, SourceEvdev:
		if ok, msg := linux.CheckInputAccess(linux.DefaultInputDir); !ok {
			logger.Warn("input devices not readable yet", "reason", msg)
		}
		return linux.NewEvdevSource(linux.EvdevOptions{Grab: opts.Grab}, logger), nil
	default:
		return nil, ErrUnsupported
	}
}

func nativeSink(opts Options, logger *slog.Logger) (CursorSink, error) {
	switch opts.Sink {
	case SinkXdotool:
		s, err := linux.NewXdotoolSink()
		if err != nil {
			return nil, err
		}
		return s, nil
	case SinkUinput:
		s, err := linux.NewUinputPointer()
		if err != nil {
			return nil, err
		}
		return s, nil
	case SinkAuto:
		if linux.DetectDisplayServer() == linux.DisplayServerX11 {
			if s, err := linux.NewXdotoolSink(); err == nil {
				return s, nil
			}
		}
		s, err := linux.NewUinputPointer()
		if err != nil {
			_, hint := linux.CheckUinputPermissions()
			logger.Debug("uinput pointer unavailable", "error", err, "hint", hint)
			return nil, fmt.Errorf("neither xdotool nor uinput is usable: %w", err)
		}
		return s, nil
	default:
		return nil, ErrUnsupported
	}
}

func nativeBounds(logger *slog.Logger) BoundsProvider {
	caps := linux.DetectCapabilities()
	if !caps.XrandrAvailable || caps.DisplayServer == linux.DisplayServerUnknown {
		logger.Debug("no monitor enumeration available, using default desktop", "session", caps.Session())
		return nil
	}
	return linux.NewXrandrBounds()
}

// ListDevices lists kernel input devices, pointers first.
func ListDevices() ([]DeviceInfo, error) {
	devices, err := linux.ListInputDevices()
	if err != nil {
		return nil, err
	}
	out := make([]DeviceInfo, 0, len(devices))
	for _, d := range devices {
		out = append(out, DeviceInfo{ID: d.ID, Name: d.Name, Path: d.Path, Relative: d.Relative})
	}
	sortDevices(out)
	return out, nil
}

// CheckCapability reports whether mice can be read and the cursor moved.
func CheckCapability() Capability {
	caps := linux.DetectCapabilities()
	readable, msg := linux.CheckInputAccess(linux.DefaultInputDir)

	var instructions strings.Builder
	if msg != "" {
		instructions.WriteString(msg)
		instructions.WriteString("\n")
	}
	instructions.WriteString(linux.DependencyReport())

	return Capability{
		CanRead:      readable,
		CanMove:      caps.XdotoolAvailable || caps.UinputAvailable,
		Session:      caps.Session(),
		Instructions: strings.TrimSpace(instructions.String()),
	}
}
