package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultCleanupTimeout bounds how long shutdown waits for resources.
const DefaultCleanupTimeout = 5 * time.Second

// ErrCleanupTimeout is reported when resources did not close in time.
var ErrCleanupTimeout = errors.New("cleanup timeout exceeded")

// Closer is a named resource released at shutdown.
type Closer interface {
	Close() error
	Name() string
}

type closerFunc struct {
	name string
	fn   func() error
}

func (c *closerFunc) Close() error { return c.fn() }
func (c *closerFunc) Name() string { return c.name }

// CleanupManager closes registered resources once, in reverse registration
// order, within a timeout.
type CleanupManager struct {
	mu        sync.Mutex
	resources []Closer
	timeout   time.Duration
	logger    *slog.Logger
	once      sync.Once
	err       error
}

// NewCleanupManager creates a manager. A non-positive timeout selects
// DefaultCleanupTimeout.
func NewCleanupManager(timeout time.Duration, logger *slog.Logger) *CleanupManager {
	if timeout <= 0 {
		timeout = DefaultCleanupTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CleanupManager{
		timeout: timeout,
		logger:  logger.With(slog.String("component", "cleanup")),
	}
}

// Register adds a resource.
func (cm *CleanupManager) Register(c Closer) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.resources = append(cm.resources, c)
}

// RegisterFunc adds a named close function.
func (cm *CleanupManager) RegisterFunc(name string, fn func() error) {
	cm.Register(&closerFunc{name: name, fn: fn})
}

// Execute closes every resource. Subsequent calls return the first result.
func (cm *CleanupManager) Execute() error {
	cm.once.Do(func() {
		cm.err = cm.executeWithTimeout()
	})
	return cm.err
}

func (cm *CleanupManager) executeWithTimeout() error {
	cm.mu.Lock()
	resources := make([]Closer, len(cm.resources))
	copy(resources, cm.resources)
	cm.mu.Unlock()

	if len(resources) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cm.timeout)
	defer cancel()

	var (
		mu   sync.Mutex
		errs []error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := len(resources) - 1; i >= 0; i-- {
			err := cm.closeOne(resources[i])
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}
	}()

	select {
	case <-done:
	case <-ctx.Done():
		cm.logger.Warn("timed out, some resources may still be open", "timeout", cm.timeout)
		mu.Lock()
		errs = append(errs, ErrCleanupTimeout)
		mu.Unlock()
	}

	mu.Lock()
	defer mu.Unlock()
	return errors.Join(errs...)
}

func (cm *CleanupManager) closeOne(c Closer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			cm.logger.Error("panic while closing", "resource", c.Name(), "panic", r)
			err = fmt.Errorf("%s: panic during cleanup", c.Name())
		}
	}()

	if err := c.Close(); err != nil {
		cm.logger.Warn("close failed", "resource", c.Name(), "error", err)
		return fmt.Errorf("%s: %w", c.Name(), err)
	}
	cm.logger.Debug("closed", "resource", c.Name())
	return nil
}
