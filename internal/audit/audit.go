// Package audit persists one pseudonymized record per raw input event.
//
// Device ids never reach disk in the clear: they are XORed with a fixed key
// before a record is queued. Records are written by a single goroutine so the
// input path never waits on the filesystem; when the queue is full the record
// is dropped and counted.
package audit

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stigoleg/multimouse/internal/fusion"
)

const (
	// PseudonymKey is XORed into device ids before persistence.
	PseudonymKey uint32 = 0xA5A5A5A5

	// FileName is the active log inside the audit directory.
	FileName = "audit.log"

	DefaultMaxBytes int64 = 5 * 1024 * 1024
	DefaultBuffer         = 1024
)

// ErrClosed is returned when writing to a closed log.
var ErrClosed = errors.New("audit log closed")

// Pseudonymize hides a device id.
func Pseudonymize(id fusion.DeviceID) uint32 {
	return uint32(id) ^ PseudonymKey
}

// Record is one persisted input event.
type Record struct {
	At     time.Time
	Device uint32
	DX     int32
	DY     int32
}

// AppendLine appends "<ts_ms>,MOUSE_INPUT,<device>,<dx>,<dy>\n" to b.
func (r Record) AppendLine(b []byte) []byte {
	b = strconv.AppendInt(b, r.At.UnixMilli(), 10)
	b = append(b, ",MOUSE_INPUT,"...)
	b = strconv.AppendUint(b, uint64(r.Device), 10)
	b = append(b, ',')
	b = strconv.AppendInt(b, int64(r.DX), 10)
	b = append(b, ',')
	b = strconv.AppendInt(b, int64(r.DY), 10)
	return append(b, '\n')
}

// Options configure the on-disk log.
type Options struct {
	Dir      string
	MaxBytes int64
	Buffer   int
}

// Log is an asynchronous, size-rotated audit log.
type Log struct {
	dir      string
	maxBytes int64
	logger   *slog.Logger
	now      func() time.Time

	mu     sync.RWMutex
	closed bool
	ch     chan Record

	file *os.File
	buf  *bufio.Writer
	size int64

	dropped atomic.Uint64
	written atomic.Uint64
	done    chan struct{}
}

// Open creates the directory if needed, appends to the existing audit.log
// and starts the writer goroutine.
func Open(opts Options, logger *slog.Logger) (*Log, error) {
	if opts.Dir == "" {
		return nil, errors.New("audit: directory is required")
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.Buffer <= 0 {
		opts.Buffer = DefaultBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(opts.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("audit: create dir: %w", err)
	}

	l := &Log{
		dir:      opts.Dir,
		maxBytes: opts.MaxBytes,
		logger:   logger.With(slog.String("component", "audit")),
		now:      time.Now,
		ch:       make(chan Record, opts.Buffer),
		done:     make(chan struct{}),
	}
	if err := l.openFile(); err != nil {
		return nil, err
	}
	go l.run()
	return l, nil
}

// Path returns the active log file path.
func (l *Log) Path() string {
	return filepath.Join(l.dir, FileName)
}

func (l *Log) openFile() error {
	f, err := os.OpenFile(l.Path(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("audit: open: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("audit: stat: %w", err)
	}
	l.file = f
	l.buf = bufio.NewWriter(f)
	l.size = st.Size()
	return nil
}

// Record queues an input event. It never blocks.
func (l *Log) Record(at time.Time, id fusion.DeviceID, dx, dy int32) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		l.dropped.Add(1)
		return
	}
	select {
	case l.ch <- Record{At: at, Device: Pseudonymize(id), DX: dx, DY: dy}:
	default:
		l.dropped.Add(1)
	}
}

// Dropped returns how many records were discarded, either because the queue
// was full or because the file could not be written.
func (l *Log) Dropped() uint64 { return l.dropped.Load() }

// Written returns how many records reached the file.
func (l *Log) Written() uint64 { return l.written.Load() }

func (l *Log) run() {
	defer close(l.done)

	line := make([]byte, 0, 64)
	failing := false
	for rec := range l.ch {
		line = rec.AppendLine(line[:0])
		if err := l.write(line); err != nil {
			l.dropped.Add(1)
			if !failing {
				l.logger.Warn("write failed, will retry with the next record", "error", err)
				failing = true
			}
			continue
		}
		if failing {
			l.logger.Info("writing again", "path", l.Path())
			failing = false
		}
		l.written.Add(1)
		if len(l.ch) == 0 {
			if err := l.flush(); err != nil {
				l.logger.Warn("flush failed", "error", err)
			}
		}
	}
	if err := l.flush(); err != nil {
		l.logger.Warn("flush failed", "error", err)
	}
}

// write appends one line, reopening the file first if an earlier failure
// left none.
func (l *Log) write(line []byte) error {
	if l.file == nil {
		if err := os.MkdirAll(l.dir, 0o700); err != nil {
			return fmt.Errorf("audit: create dir: %w", err)
		}
		if err := l.openFile(); err != nil {
			return err
		}
	}
	if l.size+int64(len(line)) > l.maxBytes && l.size > 0 {
		if err := l.rotate(); err != nil {
			return err
		}
	}
	n, err := l.buf.Write(line)
	l.size += int64(n)
	if err != nil {
		l.release()
		return fmt.Errorf("audit: write: %w", err)
	}
	return nil
}

// flush pushes buffered lines to disk. A failed flush releases the file so
// the next record starts over with a fresh one.
func (l *Log) flush() error {
	if l.buf == nil {
		return nil
	}
	if err := l.buf.Flush(); err != nil {
		l.release()
		return fmt.Errorf("audit: flush: %w", err)
	}
	return nil
}

// release closes the current file and forgets it, returning the close error.
func (l *Log) release() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file, l.buf, l.size = nil, nil, 0
	return err
}

// rotate moves audit.log aside as audit-YYYYMMDD-HHMMSS.log and starts a
// fresh file. On failure no file is held; write reopens on the next record.
func (l *Log) rotate() error {
	flushErr := l.buf.Flush()
	if err := errors.Join(flushErr, l.release()); err != nil {
		return fmt.Errorf("audit: close before rotate: %w", err)
	}

	stamp := l.now().Format("20060102-150405")
	backup := filepath.Join(l.dir, "audit-"+stamp+".log")
	for i := 1; fileExists(backup); i++ {
		backup = filepath.Join(l.dir, fmt.Sprintf("audit-%s.%d.log", stamp, i))
	}
	if err := os.Rename(l.Path(), backup); err != nil {
		l.logger.Warn("rename failed, truncating in place", "error", err)
		if err := os.Truncate(l.Path(), 0); err != nil {
			return fmt.Errorf("audit: truncate: %w", err)
		}
	} else {
		l.logger.Info("rotated", "backup", backup)
	}
	return l.openFile()
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// Close stops accepting records, drains the queue and closes the file.
func (l *Log) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.closed = true
	close(l.ch)
	l.mu.Unlock()

	<-l.done
	return l.release()
}

// Name identifies the log for shutdown reporting.
func (l *Log) Name() string { return "audit log" }
