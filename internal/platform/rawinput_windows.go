//go:build windows

package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/stigoleg/multimouse/internal/fusion"
)

const (
	wmInput = 0x00FF
	wmQuit  = 0x0012

	ridInput          = 0x10000003
	ridevInputSink    = 0x00000100
	hidUsagePageGen   = 0x01
	hidUsageGenMouse  = 0x02
	mouseMoveAbsolute = 0x01

	hwndMessage = ^uintptr(2) // (HWND)-3
)

type rawInputDevice struct {
	UsagePage uint16
	Usage     uint16
	Flags     uint32
	Target    uintptr
}

type rawInputHeader struct {
	Type   uint32
	Size   uint32
	Device windows.Handle
	WParam uintptr
}

type rawMouse struct {
	Flags       uint16
	_           uint16
	ButtonFlags uint16
	ButtonData  uint16
	RawButtons  uint32
	LastX       int32
	LastY       int32
	Extra       uint32
}

type rawInput struct {
	Header rawInputHeader
	Mouse  rawMouse
}

type wndClassEx struct {
	Size       uint32
	Style      uint32
	WndProc    uintptr
	ClsExtra   int32
	WndExtra   int32
	Instance   windows.Handle
	Icon       windows.Handle
	Cursor     windows.Handle
	Background windows.Handle
	MenuName   *uint16
	ClassName  *uint16
	IconSm     windows.Handle
}

type msg struct {
	Hwnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      struct{ X, Y int32 }
	Private uint32
}

// handleIDs maps raw input device handles to stable small ids.
type handleIDs struct {
	mu   sync.Mutex
	ids  map[windows.Handle]fusion.DeviceID
	next fusion.DeviceID
}

func (h *handleIDs) lookup(handle windows.Handle) fusion.DeviceID {
	h.mu.Lock()
	defer h.mu.Unlock()
	if id, ok := h.ids[handle]; ok {
		return id
	}
	if h.ids == nil {
		h.ids = make(map[windows.Handle]fusion.DeviceID)
	}
	h.next++
	h.ids[handle] = h.next
	return h.next
}

var (
	rawInputIDs handleIDs

	// the window procedure is process-wide; the running source installs
	// its handler here
	rawInputHandler atomic.Pointer[DeltaHandler]

	registerClassOnce sync.Once
	registerClassErr  error
	rawInputClass     = windows.StringToUTF16Ptr("multimouseRawInput")
	rawInputWndProc   = windows.NewCallback(rawInputProc)
)

func rawInputProc(hwnd, message, wParam, lParam uintptr) uintptr {
	if message == wmInput {
		if h := rawInputHandler.Load(); h != nil {
			var in rawInput
			size := uint32(unsafe.Sizeof(in))
			r, _, _ := procGetRawInputData.Call(lParam, ridInput, uintptr(unsafe.Pointer(&in)),
				uintptr(unsafe.Pointer(&size)), unsafe.Sizeof(in.Header))
			if int32(r) > 0 && in.Header.Type == rimTypeMouse && in.Mouse.Flags&mouseMoveAbsolute == 0 {
				if in.Mouse.LastX != 0 || in.Mouse.LastY != 0 {
					(*h)(rawInputIDs.lookup(in.Header.Device), in.Mouse.LastX, in.Mouse.LastY)
				}
			}
		}
	}
	r, _, _ := procDefWindowProcW.Call(hwnd, message, wParam, lParam)
	return r
}

// RawInputSource reads per-device mouse motion through a message-only
// window registered for WM_INPUT.
type RawInputSource struct {
	logger  *slog.Logger
	running atomic.Bool
}

// NewRawInputSource creates a raw input source.
func NewRawInputSource(logger *slog.Logger) *RawInputSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &RawInputSource{logger: logger.With(slog.String("component", "rawinput"))}
}

// Name identifies the source in logs.
func (s *RawInputSource) Name() string { return "rawinput" }

// Run pumps window messages on a locked OS thread until ctx is done.
func (s *RawInputSource) Run(ctx context.Context, handle DeltaHandler) error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.New("raw input source already running")
	}
	defer s.running.Store(false)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	hwnd, err := createMessageWindow()
	if err != nil {
		return err
	}
	defer procDestroyWindow.Call(hwnd)

	dev := rawInputDevice{
		UsagePage: hidUsagePageGen,
		Usage:     hidUsageGenMouse,
		Flags:     ridevInputSink,
		Target:    hwnd,
	}
	if r, _, err := procRegisterRawInputDevices.Call(uintptr(unsafe.Pointer(&dev)), 1, unsafe.Sizeof(dev)); r == 0 {
		return fmt.Errorf("RegisterRawInputDevices failed: %w", err)
	}

	rawInputHandler.Store(&handle)
	defer rawInputHandler.Store(nil)

	tid := windows.GetCurrentThreadId()
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			procPostThreadMessageW.Call(uintptr(tid), wmQuit, 0, 0)
		case <-stop:
		}
	}()

	s.logger.Info("listening for raw mouse input")
	var m msg
	for {
		r, _, err := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		switch int32(r) {
		case 0:
			return nil
		case -1:
			return fmt.Errorf("GetMessageW failed: %w", err)
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
	}
}

func createMessageWindow() (uintptr, error) {
	var instance windows.Handle
	if err := windows.GetModuleHandleEx(0, nil, &instance); err != nil {
		return 0, fmt.Errorf("GetModuleHandleEx: %w", err)
	}

	registerClassOnce.Do(func() {
		wc := wndClassEx{
			WndProc:   rawInputWndProc,
			Instance:  instance,
			ClassName: rawInputClass,
		}
		wc.Size = uint32(unsafe.Sizeof(wc))
		if r, _, err := procRegisterClassExW.Call(uintptr(unsafe.Pointer(&wc))); r == 0 {
			registerClassErr = fmt.Errorf("RegisterClassExW failed: %w", err)
		}
	})
	if registerClassErr != nil {
		return 0, registerClassErr
	}

	hwnd, _, err := procCreateWindowExW.Call(
		0,
		uintptr(unsafe.Pointer(rawInputClass)),
		0,
		0,
		0, 0, 0, 0,
		hwndMessage,
		0,
		uintptr(instance),
		0,
	)
	if hwnd == 0 {
		return 0, fmt.Errorf("CreateWindowExW failed: %w", err)
	}
	return hwnd, nil
}
