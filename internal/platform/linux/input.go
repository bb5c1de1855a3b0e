//go:build linux

package linux

import (
	"encoding/binary"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Linux input event types and codes.
const (
	evSyn = 0x00
	evRel = 0x02
	evAbs = 0x03

	synReport  = 0x00
	synDropped = 0x03

	relX = 0x00
	relY = 0x01

	absX = 0x00
	absY = 0x01
)

// eventSize is sizeof(struct input_event): a timeval followed by
// type (u16), code (u16) and value (s32).
var eventSize = int(unsafe.Sizeof(unix.Timeval{})) + 8

// ioctl request encoding (Linux _IOC macro).
const (
	iocNRBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	iocWrite = 1
	iocRead  = 2
)

func ioc(dir, typ, nr, size uint32) uintptr {
	return uintptr((dir << iocDirShift) | (typ << iocTypeShift) | (nr << iocNRShift) | (size << iocSizeShift))
}

// EVIOCGNAME(len) = _IOC(_IOC_READ, 'E', 0x06, len)
func eviocGName(size int) uintptr {
	return ioc(iocRead, 'E', 0x06, uint32(size))
}

// EVIOCGBIT(ev, len) = _IOC(_IOC_READ, 'E', 0x20 + ev, len)
func eviocGBit(ev uint32, size int) uintptr {
	return ioc(iocRead, 'E', 0x20+ev, uint32(size))
}

// EVIOCGRAB = _IOW('E', 0x90, int)
func eviocGrab() uintptr {
	return ioc(iocWrite, 'E', 0x90, uint32(unsafe.Sizeof(int32(0))))
}

func ioctl(fd uintptr, req uintptr, arg unsafe.Pointer) error {
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, req, uintptr(arg)); errno != 0 {
		return errno
	}
	return nil
}

// deviceName reads the kernel-reported device name.
func deviceName(fd uintptr) string {
	var buf [256]byte
	if err := ioctl(fd, eviocGName(len(buf)), unsafe.Pointer(&buf[0])); err != nil {
		return ""
	}
	n := 0
	for n < len(buf) && buf[n] != 0 {
		n++
	}
	return string(buf[:n])
}

// hasRelativeAxes reports whether the device advertises both REL_X and REL_Y.
func hasRelativeAxes(fd uintptr) bool {
	var bits [2]byte
	if err := ioctl(fd, eviocGBit(evRel, len(bits)), unsafe.Pointer(&bits[0])); err != nil {
		return false
	}
	return testBit(bits[:], relX) && testBit(bits[:], relY)
}

func testBit(bits []byte, n uint) bool {
	return int(n/8) < len(bits) && bits[n/8]&(1<<(n%8)) != 0
}

// grab asks the kernel for exclusive access so the compositor stops
// seeing the device.
func grab(fd uintptr, on bool) error {
	var v int32
	if on {
		v = 1
	}
	// EVIOCGRAB takes the int by value.
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, eviocGrab(), uintptr(v)); errno != 0 {
		return errno
	}
	return nil
}

// inputEvent is a decoded struct input_event without its timestamp.
type inputEvent struct {
	Type  uint16
	Code  uint16
	Value int32
}

// eventParser splits a byte stream into input_event frames. Partial frames
// are kept until the next feed.
type eventParser struct {
	size int
	buf  []byte
}

func newEventParser(size int) *eventParser {
	return &eventParser{size: size}
}

func (p *eventParser) feed(chunk []byte, fn func(inputEvent)) {
	p.buf = append(p.buf, chunk...)
	off := p.size - 8
	for len(p.buf) >= p.size {
		ev := p.buf[:p.size]
		fn(inputEvent{
			Type:  binary.NativeEndian.Uint16(ev[off : off+2]),
			Code:  binary.NativeEndian.Uint16(ev[off+2 : off+4]),
			Value: int32(binary.NativeEndian.Uint32(ev[off+4 : off+8])),
		})
		p.buf = p.buf[p.size:]
	}
	if len(p.buf) == 0 {
		p.buf = p.buf[:0:0]
	}
}

// motion accumulates REL_X/REL_Y until SYN_REPORT closes the frame.
type motion struct {
	dx, dy int32
	dirty  bool
}

// apply folds ev into the pending frame and returns the frame's delta
// when ev is a SYN_REPORT.
func (m *motion) apply(ev inputEvent) (dx, dy int32, ok bool) {
	switch ev.Type {
	case evRel:
		switch ev.Code {
		case relX:
			m.dx += ev.Value
			m.dirty = true
		case relY:
			m.dy += ev.Value
			m.dirty = true
		}
	case evSyn:
		switch ev.Code {
		case synReport:
			if !m.dirty {
				return 0, 0, false
			}
			dx, dy = m.dx, m.dy
			*m = motion{}
			return dx, dy, true
		case synDropped:
			*m = motion{}
		}
	}
	return 0, 0, false
}
