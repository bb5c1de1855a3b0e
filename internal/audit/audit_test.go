package audit

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stigoleg/multimouse/internal/fusion"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPseudonymize(t *testing.T) {
	assert.Equal(t, uint32(0xA5A5A5A5), Pseudonymize(0))
	assert.Equal(t, uint32(0xA5A5A5A4), Pseudonymize(1))
	assert.NotEqual(t, uint32(1234), Pseudonymize(1234))
	assert.Equal(t, uint32(1234), Pseudonymize(fusion.DeviceID(Pseudonymize(1234))), "xor is its own inverse")
}

func TestRecordAppendLine(t *testing.T) {
	rec := Record{At: time.UnixMilli(1700000000123), Device: 42, DX: -3, DY: 7}
	assert.Equal(t, "1700000000123,MOUSE_INPUT,42,-3,7\n", string(rec.AppendLine(nil)))
}

func TestLogWritesPseudonymizedRecords(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(Options{Dir: dir}, quietLogger())
	require.NoError(t, err)

	at := time.UnixMilli(1000)
	l.Record(at, 7, 1, 2)
	l.Record(at.Add(time.Millisecond), 8, -1, 0)
	require.NoError(t, l.Close())

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "1000,MOUSE_INPUT,2779096482,1,2", lines[0])
	assert.Equal(t, "1001,MOUSE_INPUT,2779096493,-1,0", lines[1])
	assert.NotContains(t, string(data), ",7,1,2")
	assert.Equal(t, uint64(2), l.Written())
}

func TestLogAppendsToExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("old\n"), 0o600))

	l, err := Open(Options{Dir: dir}, quietLogger())
	require.NoError(t, err)
	l.Record(time.UnixMilli(5), 1, 1, 1)
	require.NoError(t, l.Close())

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "old\n"))
}

func TestLogRotates(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(Options{Dir: dir, MaxBytes: 64}, quietLogger())
	require.NoError(t, err)
	l.now = func() time.Time { return time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC) }

	for i := 0; i < 10; i++ {
		l.Record(time.UnixMilli(int64(i)), 1, 100, 100)
	}
	require.NoError(t, l.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var backups int
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "audit-20240304-050607") {
			backups++
		}
	}
	assert.Greater(t, backups, 0)

	st, err := os.Stat(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.LessOrEqual(t, st.Size(), int64(64))
}

func TestLogRecoversAfterDirectoryRemoval(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("open files cannot be removed on windows")
	}
	dir := filepath.Join(t.TempDir(), "audit")
	l, err := Open(Options{Dir: dir, MaxBytes: 64}, quietLogger())
	require.NoError(t, err)

	l.Record(time.UnixMilli(1), 1, 100, 100)
	require.Eventually(t, func() bool { return l.Written() == 1 }, time.Second, time.Millisecond)

	// the next record needs a rotation, which fails while the directory is gone
	require.NoError(t, os.RemoveAll(dir))
	l.Record(time.UnixMilli(2), 1, 100, 100)
	require.Eventually(t, func() bool { return l.Dropped() == 1 }, time.Second, time.Millisecond)

	for i := 0; i < 5; i++ {
		l.Record(time.UnixMilli(int64(10+i)), 1, 100, 100)
	}
	require.Eventually(t, func() bool { return l.Written() == 6 }, time.Second, time.Millisecond)
	require.NoError(t, l.Close())
	assert.Equal(t, uint64(1), l.Dropped())

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "14,MOUSE_INPUT,")
}

func TestLogCloseAfterFailedRotation(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("open files cannot be removed on windows")
	}
	dir := filepath.Join(t.TempDir(), "audit")
	l, err := Open(Options{Dir: dir, MaxBytes: 64}, quietLogger())
	require.NoError(t, err)

	l.Record(time.UnixMilli(1), 1, 100, 100)
	require.Eventually(t, func() bool { return l.Written() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, os.RemoveAll(dir))
	l.Record(time.UnixMilli(2), 1, 100, 100)
	require.Eventually(t, func() bool { return l.Dropped() == 1 }, time.Second, time.Millisecond)

	assert.NoError(t, l.Close())
}

func TestLogDropsAfterClose(t *testing.T) {
	l, err := Open(Options{Dir: t.TempDir()}, quietLogger())
	require.NoError(t, err)
	require.NoError(t, l.Close())

	l.Record(time.Now(), 1, 1, 1)
	assert.Equal(t, uint64(1), l.Dropped())
	assert.ErrorIs(t, l.Close(), ErrClosed)
}

func TestOpenRequiresDir(t *testing.T) {
	_, err := Open(Options{}, quietLogger())
	assert.Error(t, err)
}
