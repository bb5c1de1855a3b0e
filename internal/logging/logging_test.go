package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"trace":   LevelTrace,
		"debug":   slog.LevelDebug,
		"":        slog.LevelInfo,
		"info":    slog.LevelInfo,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestConsoleSplitsByLevel(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger, closers, err := SetupLogger(Options{Level: "debug", Stdout: &stdout, Stderr: &stderr})
	require.NoError(t, err)
	assert.Empty(t, closers)

	logger.Debug("tick")
	logger.Info("started")
	logger.Error("sink failed")

	assert.Contains(t, stdout.String(), "msg=tick")
	assert.Contains(t, stdout.String(), "msg=started")
	assert.NotContains(t, stdout.String(), "sink failed")
	assert.Contains(t, stderr.String(), "msg=\"sink failed\"")
	assert.NotContains(t, stderr.String(), "started")
}

func TestLevelThreshold(t *testing.T) {
	var stdout bytes.Buffer
	logger, _, err := SetupLogger(Options{Level: "warn", Stdout: &stdout, Stderr: &bytes.Buffer{}})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, stdout.String(), "hidden")
	assert.Contains(t, stdout.String(), "shown")
}

func TestTraceLevelName(t *testing.T) {
	var stdout bytes.Buffer
	logger, _, err := SetupLogger(Options{Level: "trace", Stdout: &stdout})
	require.NoError(t, err)

	logger.Log(t.Context(), LevelTrace, "raw event")
	assert.Contains(t, stdout.String(), "level=TRACE")
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "multimouse.log")
	var stderr bytes.Buffer
	logger, closers, err := SetupLogger(Options{Level: "info", File: path, Stderr: &stderr})
	require.NoError(t, err)
	require.Len(t, closers, 1)

	logger.Info("to file", "component", "engine")
	logger.Error("also stderr")
	require.NoError(t, closers[0].Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
	assert.Contains(t, string(data), "component=engine")
	assert.Contains(t, stderr.String(), "also stderr")
	assert.NotContains(t, stderr.String(), "to file")
}

func TestQuietWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tui.log")
	var stdout, stderr bytes.Buffer
	logger, closers, err := SetupLogger(Options{File: path, Quiet: true, Stdout: &stdout, Stderr: &stderr})
	require.NoError(t, err)

	logger.Error("quiet error")
	for _, c := range closers {
		require.NoError(t, c.Close())
	}

	assert.Empty(t, stdout.String())
	assert.Empty(t, stderr.String())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "quiet error")
}

func TestQuietWithoutFileDiscards(t *testing.T) {
	var stdout bytes.Buffer
	logger, closers, err := SetupLogger(Options{Quiet: true, Stdout: &stdout})
	require.NoError(t, err)
	assert.Empty(t, closers)
	logger.Error("dropped")
	assert.Empty(t, stdout.String())
}

func TestFileOpenError(t *testing.T) {
	_, _, err := SetupLogger(Options{File: filepath.Join(t.TempDir(), "missing", "x.log")})
	assert.Error(t, err)
}

func TestMultiHandlerWithAttrs(t *testing.T) {
	var a, b bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&a, nil),
		NewLevelFilter(func(l slog.Level) bool { return l >= slog.LevelWarn }, slog.NewTextHandler(&b, nil)),
	)
	logger := slog.New(h).With("component", "audit").WithGroup("g")

	logger.Info("one", "k", 1)
	logger.Warn("two", "k", 2)

	assert.Contains(t, a.String(), "component=audit")
	assert.Contains(t, a.String(), "g.k=1")
	assert.NotContains(t, b.String(), "one")
	assert.Contains(t, b.String(), "g.k=2")
}
