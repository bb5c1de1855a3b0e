package integration

import (
	"context"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stigoleg/multimouse/internal/audit"
	"github.com/stigoleg/multimouse/internal/engine"
	"github.com/stigoleg/multimouse/internal/platform"
)

const helperEnv = "MULTIMOUSE_SIGNAL_HELPER"

// TestCleanupOnSignals runs the full stack in a child process, signals it
// and expects a clean exit with the audit log flushed.
func TestCleanupOnSignals(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping cleanup test in short mode")
	}
	signals := signalsToTest()
	if len(signals) == 0 {
		t.Skip("signals cannot be sent to other processes on this platform")
	}

	for name, sig := range signals {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			cmd := exec.Command(os.Args[0], "-test.run=^TestSignalHelper$")
			cmd.Env = append(os.Environ(), helperEnv+"="+dir)
			require.NoError(t, cmd.Start(), "helper process should start")

			ready := filepath.Join(dir, "ready")
			require.Eventually(t, func() bool {
				_, err := os.Stat(ready)
				return err == nil
			}, 10*time.Second, 20*time.Millisecond, "helper should report ready")

			require.NoError(t, cmd.Process.Signal(sig))

			done := make(chan error, 1)
			go func() { done <- cmd.Wait() }()

			select {
			case err := <-done:
				assert.NoError(t, err, "process should exit cleanly after %s", name)
			case <-time.After(10 * time.Second):
				_ = cmd.Process.Kill()
				t.Fatalf("process did not exit within timeout after %s", name)
			}

			data, err := os.ReadFile(filepath.Join(dir, audit.FileName))
			require.NoError(t, err)
			assert.NotEmpty(t, data, "audit log should be flushed on shutdown")

			_, err = os.Stat(filepath.Join(dir, "clean"))
			assert.NoError(t, err, "cleanup should have completed")
		})
	}
}

// TestSignalHelper is the child side of TestCleanupOnSignals.
func TestSignalHelper(t *testing.T) {
	dir := os.Getenv(helperEnv)
	if dir == "" {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals()...)
	defer stop()

	logger := quietLogger()
	cm := engine.NewCleanupManager(2*time.Second, logger)

	log, err := audit.Open(audit.Options{Dir: dir}, logger)
	if err != nil {
		os.Exit(3)
	}
	cm.Register(log)

	sink := &platform.NopSink{}
	cm.Register(sink)

	eng, err := engine.New(engine.DefaultOptions(), engine.Deps{Sink: sink, Audit: log, Logger: logger})
	if err != nil {
		os.Exit(4)
	}
	if err := eng.Start(ctx); err != nil {
		os.Exit(5)
	}
	cm.RegisterFunc("engine", eng.Stop)

	source := platform.NewSyntheticSource(platform.SyntheticOptions{Mice: 2, TimeScale: 0.05}, logger)
	done := make(chan error, 1)
	go func() { done <- source.Run(ctx, eng.OnDelta) }()

	for log.Written() == 0 {
		time.Sleep(10 * time.Millisecond)
	}
	_ = os.WriteFile(filepath.Join(dir, "ready"), nil, 0o644)

	<-ctx.Done()
	<-done
	if err := cm.Execute(); err != nil {
		os.Exit(6)
	}
	_ = os.WriteFile(filepath.Join(dir, "clean"), nil, 0o644)
	os.Exit(0)
}

func TestCleanupTimeout(t *testing.T) {
	cm := engine.NewCleanupManager(50*time.Millisecond, quietLogger())
	cm.RegisterFunc("stuck", func() error {
		time.Sleep(time.Second)
		return nil
	})

	start := time.Now()
	err := cm.Execute()
	assert.ErrorIs(t, err, engine.ErrCleanupTimeout)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
