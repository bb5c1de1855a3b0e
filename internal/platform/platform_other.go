//go:build !linux && !windows

package platform

import (
	"log/slog"
	"runtime"
)

func nativeSource(Options, *slog.Logger) (DeviceSource, error) {
	return nil, ErrUnsupported
}

func nativeSink(Options, *slog.Logger) (CursorSink, error) {
	return nil, ErrUnsupported
}

func nativeBounds(*slog.Logger) BoundsProvider {
	return nil
}

// ListDevices is not available on this platform.
func ListDevices() ([]DeviceInfo, error) {
	return nil, ErrUnsupported
}

// CheckCapability reports that only the synthetic source works here.
func CheckCapability() Capability {
	return Capability{
		Session:      runtime.GOOS,
		Instructions: "Physical mice are read on Linux, ChromeOS (Crostini) and Windows. Use --source=synthetic to try the engine here.",
	}
}
