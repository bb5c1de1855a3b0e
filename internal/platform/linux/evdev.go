//go:build linux

package linux

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/stigoleg/multimouse/internal/fusion"
	"github.com/stigoleg/multimouse/internal/logging"
)

// Evdev defaults.
const (
	DefaultInputDir       = "/dev/input"
	DefaultRescanInterval = 2 * time.Second
	readBufferEvents      = 64
)

// ErrNoPointers is returned when no readable relative pointer exists.
var ErrNoPointers = errors.New("no readable relative pointer devices under /dev/input")

var errNotPointer = errors.New("no relative axes")

// EvdevOptions configures the evdev device source.
type EvdevOptions struct {
	Dir            string
	Grab           bool
	RescanInterval time.Duration
}

// EvdevSource reads relative motion from every pointer node under
// /dev/input and reports one delta per SYN_REPORT frame.
type EvdevSource struct {
	opts     EvdevOptions
	logger   *slog.Logger
	crostini bool

	// open is s.openNode outside tests.
	open func(path string, id fusion.DeviceID) (*evdevDevice, error)

	mu      sync.Mutex
	devices map[string]*evdevDevice
	// rejected remembers nodes without relative axes, keyed by path, so
	// rescans do not open them again while the same node exists.
	rejected map[string]os.FileInfo
	wg       sync.WaitGroup
}

type evdevDevice struct {
	id   fusion.DeviceID
	path string
	name string
	file *os.File
}

// NewEvdevSource creates an evdev source. Devices are opened by Run.
func NewEvdevSource(opts EvdevOptions, logger *slog.Logger) *EvdevSource {
	if opts.Dir == "" {
		opts.Dir = DefaultInputDir
	}
	if opts.RescanInterval <= 0 {
		opts.RescanInterval = DefaultRescanInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &EvdevSource{
		opts:     opts,
		logger:   logger.With(slog.String("component", "evdev")),
		crostini: DetectCrostini(),
		devices:  make(map[string]*evdevDevice),
		rejected: make(map[string]os.FileInfo),
	}
	s.open = s.openNode
	return s
}

// Name identifies the source in logs.
func (s *EvdevSource) Name() string {
	if s.crostini {
		return "crostini-evdev"
	}
	return "evdev"
}

// Run opens every pointer node, rescans periodically for hot-plugged mice,
// and blocks until ctx is cancelled.
func (s *EvdevSource) Run(ctx context.Context, handle DeltaHandler) error {
	if n := s.scan(ctx, handle); n == 0 {
		hint := "add your user to the 'input' group"
		if s.crostini {
			hint = "enable USB device sharing for Linux in ChromeOS settings"
		}
		s.logger.Warn("no pointer devices opened yet; waiting for hot-plug", "hint", hint)
	}

	ticker := time.NewTicker(s.opts.RescanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			s.wg.Wait()
			return nil
		case <-ticker.C:
			s.scan(ctx, handle)
		}
	}
}

// DeltaHandler is identical to platform.DeltaHandler.
type DeltaHandler = func(id fusion.DeviceID, dx, dy int32)

// scan opens nodes that are not open yet and returns how many are open.
func (s *EvdevSource) scan(ctx context.Context, handle DeltaHandler) int {
	paths, err := filepath.Glob(filepath.Join(s.opts.Dir, "event*"))
	if err != nil {
		s.logger.Error("scan failed", "error", err)
	}
	sort.Strings(paths)

	s.mu.Lock()
	defer s.mu.Unlock()

	present := make(map[string]bool, len(paths))
	for _, path := range paths {
		present[path] = true
	}
	for path := range s.rejected {
		if !present[path] {
			delete(s.rejected, path)
		}
	}

	for _, path := range paths {
		if _, ok := s.devices[path]; ok {
			continue
		}
		id, ok := DeviceIDForPath(path)
		if !ok {
			continue
		}
		st, statErr := os.Stat(path)
		if prev, ok := s.rejected[path]; ok {
			if statErr == nil && os.SameFile(prev, st) {
				continue
			}
			delete(s.rejected, path)
		}
		dev, err := s.open(path, id)
		if err != nil {
			if errors.Is(err, errNotPointer) && statErr == nil {
				s.rejected[path] = st
			}
			s.logger.Log(ctx, logging.LevelTrace, "skipping node", "path", path, "reason", err)
			continue
		}
		s.devices[path] = dev
		s.logger.Info("opened pointer", "id", dev.id, "path", path, "name", dev.name, "grab", s.opts.Grab)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.read(ctx, dev, handle)
		}()
	}
	return len(s.devices)
}

func (s *EvdevSource) openNode(path string, id fusion.DeviceID) (*evdevDevice, error) {
	f, err := os.OpenFile(path, os.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}

	raw, err := f.SyscallConn()
	if err != nil {
		f.Close()
		return nil, err
	}

	var (
		name     string
		relative bool
		grabErr  error
	)
	ctrlErr := raw.Control(func(fd uintptr) {
		relative = hasRelativeAxes(fd)
		if !relative {
			return
		}
		name = deviceName(fd)
		if s.opts.Grab {
			grabErr = grab(fd, true)
		}
	})
	switch {
	case ctrlErr != nil:
		f.Close()
		return nil, ctrlErr
	case !relative:
		f.Close()
		return nil, errNotPointer
	case grabErr != nil:
		s.logger.Warn("exclusive grab failed; cursor will also follow this device", "path", path, "error", grabErr)
	}

	return &evdevDevice{id: id, path: path, name: name, file: f}, nil
}

func (s *EvdevSource) read(ctx context.Context, dev *evdevDevice, handle DeltaHandler) {
	parser := newEventParser(eventSize)
	buf := make([]byte, readBufferEvents*eventSize)
	var m motion

	emit := func(ev inputEvent) {
		if dx, dy, ok := m.apply(ev); ok {
			handle(dev.id, dx, dy)
		}
	}

	for {
		n, err := dev.file.Read(buf)
		if n > 0 {
			parser.feed(buf[:n], emit)
		}
		if err == nil {
			continue
		}
		if ctx.Err() != nil || errors.Is(err, os.ErrClosed) {
			return
		}
		// ENODEV on unplug; forget the node so a later scan can reopen it.
		s.logger.Warn("pointer read stopped", "id", dev.id, "path", dev.path, "error", err)
		s.forget(dev)
		return
	}
}

func (s *EvdevSource) forget(dev *evdevDevice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.devices[dev.path]; ok && cur == dev {
		delete(s.devices, dev.path)
	}
	dev.file.Close()
}

func (s *EvdevSource) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for path, dev := range s.devices {
		if s.opts.Grab {
			if raw, err := dev.file.SyscallConn(); err == nil {
				_ = raw.Control(func(fd uintptr) { _ = grab(fd, false) })
			}
		}
		dev.file.Close()
		delete(s.devices, path)
	}
}

// DeviceIDForPath maps /dev/input/eventN to id N+1. Ids stay stable across
// unplug and replug of the same node.
func DeviceIDForPath(path string) (fusion.DeviceID, bool) {
	base := filepath.Base(path)
	if !strings.HasPrefix(base, "event") {
		return 0, false
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(base, "event"), 10, 31)
	if err != nil {
		return 0, false
	}
	return fusion.DeviceID(n + 1), true
}
