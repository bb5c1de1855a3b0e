//go:build linux

package linux

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/stigoleg/multimouse/internal/fusion"
)

// uinput constants.
const (
	uinputDevicePath = "/dev/uinput"
	uinputBusTypeUSB = 0x03
	uinputVendorID   = 0x1234
	uinputProductID  = 0x5679
	uinputDeviceName = "multimouse-pointer"

	// absolute axis range reported to the compositor
	uinputAbsMax = 65535

	evKey   = 0x01
	btnLeft = 0x110
)

// uinput ioctl requests.
var (
	uiSetEvbit   = ioc(iocWrite, 'U', 100, 4)
	uiSetKeybit  = ioc(iocWrite, 'U', 101, 4)
	uiSetAbsbit  = ioc(iocWrite, 'U', 103, 4)
	uiDevCreate  = ioc(0, 'U', 1, 0)
	uiDevDestroy = ioc(0, 'U', 2, 0)
)

type uinputUserDev struct {
	name [80]byte
	id   struct {
		bustype uint16
		vendor  uint16
		product uint16
		version uint16
	}
	ffEffectsMax uint32
	absmax       [64]int32
	absmin       [64]int32
	absfuzz      [64]int32
	absflat      [64]int32
}

// UinputPointer is a virtual absolute pointer. The compositor maps its axis
// range onto the whole desktop, so it works on Wayland and in Crostini where
// X11 tools cannot warp the cursor.
type UinputPointer struct {
	mu      sync.Mutex
	file    *os.File
	fd      uintptr
	desktop fusion.Rect
	buf     []byte
}

// NewUinputPointer creates the virtual device.
func NewUinputPointer() (*UinputPointer, error) {
	f, err := os.OpenFile(uinputDevicePath, os.O_WRONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", uinputDevicePath, err)
	}
	u := &UinputPointer{
		file:    f,
		fd:      f.Fd(),
		desktop: fusion.DefaultBounds,
		buf:     make([]byte, 3*eventSize),
	}
	if err := u.enableAbsoluteAxes(); err != nil {
		u.Close()
		return nil, fmt.Errorf("enable absolute axes: %w", err)
	}
	if err := u.createDevice(); err != nil {
		u.Close()
		return nil, fmt.Errorf("create uinput device: %w", err)
	}
	return u, nil
}

func (u *UinputPointer) enableAbsoluteAxes() error {
	for _, req := range []struct {
		op  uintptr
		arg uintptr
	}{
		{uiSetEvbit, evAbs},
		{uiSetAbsbit, absX},
		{uiSetAbsbit, absY},
		// libinput classifies abs devices without buttons as touchscreens
		{uiSetEvbit, evKey},
		{uiSetKeybit, btnLeft},
	} {
		if _, _, errno := unix.Syscall(unix.SYS_IOCTL, u.fd, req.op, req.arg); errno != 0 {
			return errno
		}
	}
	return nil
}

func (u *UinputPointer) createDevice() error {
	var dev uinputUserDev
	copy(dev.name[:], uinputDeviceName)
	dev.id.bustype = uinputBusTypeUSB
	dev.id.vendor = uinputVendorID
	dev.id.product = uinputProductID
	dev.absmax[absX] = uinputAbsMax
	dev.absmax[absY] = uinputAbsMax

	raw := unsafe.Slice((*byte)(unsafe.Pointer(&dev)), unsafe.Sizeof(dev))
	if _, err := u.file.Write(raw); err != nil {
		return err
	}
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, u.fd, uiDevCreate, 0); errno != 0 {
		return errno
	}
	return nil
}

// Name identifies the sink in logs.
func (u *UinputPointer) Name() string {
	return "uinput"
}

// SetDesktop sets the rect the axis range is mapped onto.
func (u *UinputPointer) SetDesktop(r fusion.Rect) {
	if r.Empty() {
		return
	}
	u.mu.Lock()
	u.desktop = r
	u.mu.Unlock()
}

// SetCursorPosition moves the pointer to (x, y) in desktop coordinates.
func (u *UinputPointer) SetCursorPosition(x, y int32) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.file == nil {
		return os.ErrClosed
	}
	ax, ay := scaleToAxis(u.desktop, x, y)
	encodeEvent(u.buf[0:], inputEvent{Type: evAbs, Code: absX, Value: ax})
	encodeEvent(u.buf[eventSize:], inputEvent{Type: evAbs, Code: absY, Value: ay})
	encodeEvent(u.buf[2*eventSize:], inputEvent{Type: evSyn, Code: synReport})
	_, err := u.file.Write(u.buf)
	return err
}

// Close destroys the virtual device.
func (u *UinputPointer) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.file == nil {
		return nil
	}
	unix.Syscall(unix.SYS_IOCTL, u.fd, uiDevDestroy, 0)
	err := u.file.Close()
	u.file = nil
	u.fd = 0
	return err
}

// scaleToAxis maps a desktop coordinate onto [0, uinputAbsMax].
func scaleToAxis(desktop fusion.Rect, x, y int32) (int32, int32) {
	scale := func(v, origin, extent int32) int32 {
		if extent <= 1 {
			return 0
		}
		off := int64(v - origin)
		off = max(0, min(off, int64(extent-1)))
		return int32(off * uinputAbsMax / int64(extent-1))
	}
	return scale(x, desktop.X, desktop.Width), scale(y, desktop.Y, desktop.Height)
}

// encodeEvent writes ev as a struct input_event with a zero timestamp;
// the kernel stamps uinput events itself.
func encodeEvent(dst []byte, ev inputEvent) {
	off := eventSize - 8
	clear(dst[:off])
	binary.NativeEndian.PutUint16(dst[off:], ev.Type)
	binary.NativeEndian.PutUint16(dst[off+2:], ev.Code)
	binary.NativeEndian.PutUint32(dst[off+4:], uint32(ev.Value))
}
