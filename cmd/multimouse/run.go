package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"time"

	"github.com/stigoleg/multimouse/internal/audit"
	"github.com/stigoleg/multimouse/internal/config"
	"github.com/stigoleg/multimouse/internal/engine"
	"github.com/stigoleg/multimouse/internal/platform"
	"github.com/stigoleg/multimouse/internal/ui"
)

type runCmd struct {
	Session config.Session `embed:""`
}

// Run is called by Kong for the run command.
func (r *runCmd) Run(logger *slog.Logger) error {
	s := &r.Session
	if err := s.Validate(); err != nil {
		return err
	}
	deadline, err := s.Deadline(time.Now())
	if err != nil {
		return err
	}
	engineOpts, err := s.EngineOptions()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals()...)
	defer stop()
	if !deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
		logger.Info("session limited", "until", deadline.Format(time.Kitchen))
	}

	cleanup := engine.NewCleanupManager(engine.DefaultCleanupTimeout, logger)
	defer func() {
		if err := cleanup.Execute(); err != nil {
			logger.Warn("cleanup incomplete", "error", err)
		}
	}()

	p, err := platform.New(s.PlatformOptions(logger))
	if err != nil {
		return err
	}

	deps := engine.Deps{Sink: p.Sink, Bounds: p.Bounds, Logger: logger}
	auditOpts, auditOn, err := s.AuditOptions()
	if err != nil {
		return err
	}
	if auditOn {
		log, err := audit.Open(auditOpts, logger)
		if err != nil {
			return err
		}
		cleanup.Register(log)
		deps.Audit = log
		logger.Info("auditing input", "path", log.Path())
	}
	cleanup.Register(p.Sink)

	eng, err := engine.New(engineOpts, deps)
	if err != nil {
		return err
	}
	if _, err := eng.RefreshBounds(); err != nil {
		logger.Warn("monitor enumeration failed, using default desktop", "error", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := eng.Start(ctx); err != nil {
		return err
	}
	cleanup.RegisterFunc("engine", eng.Stop)

	srcErr := make(chan error, 1)
	go func() {
		err := p.Source.Run(ctx, eng.OnDelta)
		if err != nil {
			err = fmt.Errorf("%s: %w", p.Source.Name(), err)
			cancel()
		}
		srcErr <- err
	}()

	expired := false
	if s.Headless {
		logger.Info("running headless", "mode", eng.Mode(), "source", p.Source.Name(), "sink", p.Sink.Name())
		<-ctx.Done()
		expired = errors.Is(ctx.Err(), context.DeadlineExceeded)
	} else {
		expired, err = ui.Run(ctx, eng, ui.Options{
			Source:   p.Source.Name(),
			Sink:     p.Sink.Name(),
			Deadline: deadline,
		})
		cancel()
		if err != nil {
			return err
		}
	}

	if err := <-srcErr; err != nil {
		return err
	}
	if expired {
		logger.Info("session time is up")
	}
	st := eng.Stats()
	logger.Info("stopped", "ticks", st.Ticks, "idle_ticks", st.IdleTicks, "sink_errors", st.SinkErrors)
	return nil
}
