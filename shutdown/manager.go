package shutdown

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"paintflow/core"
	"paintflow/logging"
)

// DefaultTimeout bounds the whole cleanup sequence.
const DefaultTimeout = 30 * time.Second

// Manager coordinates graceful shutdown.
//
// It composes:
//   - Registry for ordered cleanup functions
//   - SignalCounter so a second signal forces immediate exit
//
// The first SIGINT/SIGTERM cancels Context(); the caller then runs
// Shutdown() to execute the registered cleanup.
type Manager struct {
	logger  *logging.Logger
	timeout time.Duration

	mu       sync.Mutex
	started  bool
	shutdown bool
	lastSig  os.Signal

	ctx    context.Context
	cancel context.CancelFunc

	registry *Registry
	signals  *SignalCounter
	sigChan  chan os.Signal
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithTimeout overrides the cleanup timeout.
func WithTimeout(timeout time.Duration) ManagerOption {
	return func(m *Manager) {
		m.timeout = timeout
	}
}

// NewManager creates a Manager. A second OS signal during shutdown exits
// the process immediately.
func NewManager(logger *logging.Logger, opts ...ManagerOption) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		logger:   logger.Named("shutdown"),
		timeout:  DefaultTimeout,
		ctx:      ctx,
		cancel:   cancel,
		registry: NewRegistry(),
		sigChan:  make(chan os.Signal, 1),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.signals = NewSignalCounter(2, func() {
		m.logger.Warn("Received second signal, forcing immediate exit")
		os.Exit(core.ExitCodeError)
	})

	return m
}

// Context returns the context cancelled on the first shutdown signal.
func (m *Manager) Context() context.Context {
	return m.ctx
}

// Register adds a cleanup function. Lower priorities run first.
func (m *Manager) Register(name string, priority int, fn core.ShutdownFunc) {
	m.registry.Register(name, priority, fn)
}

// Start begins listening for SIGINT and SIGTERM. Safe to call once;
// later calls are no-ops.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return
	}
	m.started = true

	signal.Notify(m.sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		for sig := range m.sigChan {
			if m.signals.Increment() == 1 {
				m.mu.Lock()
				m.lastSig = sig
				m.mu.Unlock()
				m.logger.Infof("Received %v, initiating graceful shutdown", sig)
				m.cancel()
			}
		}
	}()
}

// Shutdown runs the registered cleanup in priority order under the
// configured timeout. Idempotent; later calls return nil.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return nil
	}
	m.shutdown = true
	m.mu.Unlock()

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	m.logger.Info("Running cleanup",
		zap.Strings("handlers", m.registry.Names()),
	)

	errs := m.registry.Shutdown(ctx)
	for _, err := range errs {
		m.logger.Error("Cleanup failed", zap.Error(err))
	}

	signal.Stop(m.sigChan)

	if len(errs) > 0 {
		return fmt.Errorf("shutdown had %d errors", len(errs))
	}
	m.logger.Info("Graceful shutdown completed",
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// ExitCode maps the received signal onto the process exit code.
func (m *Manager) ExitCode() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.lastSig {
	case syscall.SIGTERM:
		return core.ExitCodeSIGTERM
	case syscall.SIGINT, os.Interrupt:
		return core.ExitCodeSIGINT
	default:
		return core.ExitCodeSuccess
	}
}
