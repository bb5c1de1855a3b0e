package ui

import (
	"context"
	"errors"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// cursorInterval limits how often cursor positions reach the console.
const cursorInterval = 50 * time.Millisecond

// Run shows the console until the user quits, the deadline passes or ctx
// is cancelled. It reports whether the session ended by its deadline.
func Run(ctx context.Context, ctrl Controller, opts Options) (bool, error) {
	p := tea.NewProgram(NewModel(ctrl, opts), tea.WithContext(ctx), tea.WithAltScreen())

	fwdCtx, stop := context.WithCancel(ctx)
	defer stop()
	fwd := NewCursorForwarder(p.Send, cursorInterval)
	go fwd.Run(fwdCtx)
	ctrl.Subscribe(fwd.Forward)

	final, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		err = nil
	}
	if m, ok := final.(Model); ok {
		return m.Expired, err
	}
	return false, err
}

// CursorForwarder passes cursor positions on at most once per interval,
// so a fast control loop does not flood the console. Forward only parks the
// latest position in a one-slot mailbox; Run delivers it, so a busy or not
// yet started console never stalls the caller.
type CursorForwarder struct {
	send     func(tea.Msg)
	interval time.Duration
	pending  chan CursorMsg

	mu   sync.Mutex
	last time.Time
}

// NewCursorForwarder creates a forwarder calling send from Run.
func NewCursorForwarder(send func(tea.Msg), interval time.Duration) *CursorForwarder {
	return &CursorForwarder{
		send:     send,
		interval: interval,
		pending:  make(chan CursorMsg, 1),
	}
}

// Forward is an engine cursor listener. It never blocks; an undelivered
// position is replaced by the newer one.
func (f *CursorForwarder) Forward(x, y int32, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.last.IsZero() && at.Sub(f.last) < f.interval {
		return
	}
	f.last = at

	msg := CursorMsg{X: x, Y: y, At: at}
	select {
	case f.pending <- msg:
		return
	default:
	}
	select {
	case <-f.pending:
	default:
	}
	f.pending <- msg
}

// Run delivers parked positions until ctx is done.
func (f *CursorForwarder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-f.pending:
			f.send(msg)
		}
	}
}
