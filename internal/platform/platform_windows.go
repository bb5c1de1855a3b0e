//go:build windows

package platform

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/stigoleg/multimouse/internal/fusion"
)

var (
	moduser32 = windows.NewLazySystemDLL("user32.dll")

	procSetCursorPos            = moduser32.NewProc("SetCursorPos")
	procEnumDisplayMonitors     = moduser32.NewProc("EnumDisplayMonitors")
	procGetRawInputDeviceList   = moduser32.NewProc("GetRawInputDeviceList")
	procGetRawInputDeviceInfoW  = moduser32.NewProc("GetRawInputDeviceInfoW")
	procRegisterClassExW        = moduser32.NewProc("RegisterClassExW")
	procCreateWindowExW         = moduser32.NewProc("CreateWindowExW")
	procDestroyWindow           = moduser32.NewProc("DestroyWindow")
	procDefWindowProcW          = moduser32.NewProc("DefWindowProcW")
	procGetMessageW             = moduser32.NewProc("GetMessageW")
	procTranslateMessage        = moduser32.NewProc("TranslateMessage")
	procDispatchMessageW        = moduser32.NewProc("DispatchMessageW")
	procPostThreadMessageW      = moduser32.NewProc("PostThreadMessageW")
	procRegisterRawInputDevices = moduser32.NewProc("RegisterRawInputDevices")
	procGetRawInputData         = moduser32.NewProc("GetRawInputData")
)

func nativeSource(opts Options, logger *slog.Logger) (DeviceSource, error) {
	switch opts.Source {
	case SourceAuto, SourceRawInput:
		return NewRawInputSource(logger), nil
	default:
		return nil, ErrUnsupported
	}
}

func nativeSink(opts Options, _ *slog.Logger) (CursorSink, error) {
	switch opts.Sink {
	case SinkAuto, SinkWin32:
		return &win32Cursor{}, nil
	default:
		return nil, ErrUnsupported
	}
}

func nativeBounds(_ *slog.Logger) BoundsProvider {
	return &win32Monitors{}
}

// win32Cursor positions the cursor with SetCursorPos.
type win32Cursor struct{}

func (c *win32Cursor) Name() string { return SinkWin32 }

func (c *win32Cursor) SetCursorPosition(x, y int32) error {
	r, _, err := procSetCursorPos.Call(uintptr(x), uintptr(y))
	if r == 0 {
		return fmt.Errorf("SetCursorPos failed: %w", err)
	}
	return nil
}

func (c *win32Cursor) Close() error { return nil }

// win32Monitors enumerates monitors with EnumDisplayMonitors. The callback
// is created once per process, so enumeration is serialized.
type win32Monitors struct{}

var (
	monitorMu       sync.Mutex
	monitorRects    []fusion.Rect
	monitorCallback = windows.NewCallback(func(hMonitor, hdc, lprc, lParam uintptr) uintptr {
		rect := (*windows.Rect)(unsafe.Pointer(lprc))
		monitorRects = append(monitorRects, fusion.Rect{
			X:      rect.Left,
			Y:      rect.Top,
			Width:  rect.Right - rect.Left,
			Height: rect.Bottom - rect.Top,
		})
		return 1
	})
)

func (m *win32Monitors) Monitors() ([]fusion.Rect, error) {
	monitorMu.Lock()
	defer monitorMu.Unlock()

	monitorRects = monitorRects[:0]
	r, _, err := procEnumDisplayMonitors.Call(0, 0, monitorCallback, 0)
	if r == 0 {
		return nil, fmt.Errorf("EnumDisplayMonitors failed: %w", err)
	}
	return append([]fusion.Rect(nil), monitorRects...), nil
}

const (
	rimTypeMouse    = 0
	ridiDeviceName  = 0x20000007
	rawDeviceListSz = uint32(unsafe.Sizeof(rawInputDeviceList{}))
)

type rawInputDeviceList struct {
	Device windows.Handle
	Type   uint32
}

// ListDevices lists raw input mice.
func ListDevices() ([]DeviceInfo, error) {
	var n uint32
	if r, _, err := procGetRawInputDeviceList.Call(0, uintptr(unsafe.Pointer(&n)), uintptr(rawDeviceListSz)); int32(r) == -1 {
		return nil, fmt.Errorf("GetRawInputDeviceList failed: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	list := make([]rawInputDeviceList, n)
	r, _, err := procGetRawInputDeviceList.Call(uintptr(unsafe.Pointer(&list[0])), uintptr(unsafe.Pointer(&n)), uintptr(rawDeviceListSz))
	if int32(r) == -1 {
		return nil, fmt.Errorf("GetRawInputDeviceList failed: %w", err)
	}
	list = list[:r]

	var out []DeviceInfo
	for _, d := range list {
		if d.Type != rimTypeMouse {
			continue
		}
		out = append(out, DeviceInfo{
			ID:       rawInputIDs.lookup(d.Device),
			Name:     rawDeviceName(d.Device),
			Path:     fmt.Sprintf("handle:%#x", uintptr(d.Device)),
			Relative: true,
		})
	}
	sortDevices(out)
	return out, nil
}

func rawDeviceName(h windows.Handle) string {
	var size uint32
	procGetRawInputDeviceInfoW.Call(uintptr(h), ridiDeviceName, 0, uintptr(unsafe.Pointer(&size)))
	if size == 0 {
		return ""
	}
	buf := make([]uint16, size)
	r, _, _ := procGetRawInputDeviceInfoW.Call(uintptr(h), ridiDeviceName, uintptr(unsafe.Pointer(&buf[0])), uintptr(unsafe.Pointer(&size)))
	if int32(r) <= 0 {
		return ""
	}
	return windows.UTF16ToString(buf)
}

// CheckCapability reports whether mice can be read and the cursor moved.
func CheckCapability() Capability {
	c := Capability{CanRead: true, CanMove: true, Session: "windows"}
	if err := moduser32.Load(); err != nil {
		c.CanRead, c.CanMove = false, false
		c.Instructions = errors.Join(errors.New("user32.dll unavailable"), err).Error()
	}
	return c
}
