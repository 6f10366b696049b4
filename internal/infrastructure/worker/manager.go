// Package worker runs the service's periodic background jobs.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Worker is a background job with an explicit lifecycle
type Worker interface {
	Start(ctx context.Context) error
	Stop() error
	Name() string
}

// Status reports whether one registered worker is running
type Status struct {
	Name    string `json:"name"`
	Running bool   `json:"running"`
	// Error holds the start failure, if any
	Error string `json:"error,omitempty"`
}

type entry struct {
	worker  Worker
	running bool
	err     error
}

// Manager starts workers together and stops the ones that came up
type Manager struct {
	logger *zap.Logger

	mu      sync.RWMutex
	entries []*entry
	running bool
	cancel  context.CancelFunc
}

// NewManager creates a new worker manager
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{logger: logger}
}

// Register adds a worker; call before StartAll
func (m *Manager) Register(w Worker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, &entry{worker: w})
}

// StartAll starts every registered worker under a shared context. A worker
// that fails to start is logged and left out; it does not fail the others.
func (m *Manager) StartAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("workers already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true

	for _, e := range m.entries {
		e.err = e.worker.Start(runCtx)
		e.running = e.err == nil
		if e.err != nil {
			m.logger.Error("Worker failed to start",
				zap.String("worker_name", e.worker.Name()),
				zap.Error(e.err))
			continue
		}
		m.logger.Info("Worker started", zap.String("worker_name", e.worker.Name()))
	}
	return nil
}

// StopAll cancels the shared context and stops the running workers. Calling
// it again, or before StartAll, does nothing.
func (m *Manager) StopAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}
	m.running = false
	m.cancel()

	var errs []error
	for _, e := range m.entries {
		if !e.running {
			continue
		}
		e.running = false
		if err := e.worker.Stop(); err != nil {
			m.logger.Error("Worker failed to stop",
				zap.String("worker_name", e.worker.Name()),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", e.worker.Name(), err))
		}
	}

	if len(errs) > 0 {
		return &StopError{Errs: errs}
	}
	return nil
}

// StopError collects the workers that did not stop cleanly
type StopError struct {
	Errs []error
}

func (e *StopError) Error() string {
	return fmt.Sprintf("failed to stop %d workers", len(e.Errs))
}

func (e *StopError) Unwrap() error {
	return errors.Join(e.Errs...)
}

// Count returns the number of registered workers
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// IsRunning reports whether StartAll has run without a matching StopAll
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// Statuses lists every registered worker in registration order
func (m *Manager) Statuses() []Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Status, 0, len(m.entries))
	for _, e := range m.entries {
		s := Status{Name: e.worker.Name(), Running: e.running}
		if e.err != nil {
			s.Error = e.err.Error()
		}
		out = append(out, s)
	}
	return out
}
