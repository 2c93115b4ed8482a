// Package goroutine runs bounded fire-and-forget work, such as event
// publication after a response has been decided.
package goroutine

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/shandysiswandi/otpgate/internal/pkg/stacktrace"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxGoroutine is multiplied by NumCPU when NewManager gets a
// non-positive limit.
const DefaultMaxGoroutine int = 100

// Manager runs tasks with a concurrency limit and collects their errors.
// Tasks submitted while the limit is reached, or after Wait, are dropped.
type Manager struct {
	group errgroup.Group

	state  sync.RWMutex
	closed bool

	errMu sync.Mutex
	errs  []error
}

func NewManager(limit int) *Manager {
	if limit < 1 {
		limit = runtime.NumCPU() * DefaultMaxGoroutine
	}

	m := &Manager{}
	m.group.SetLimit(limit)
	return m
}

// Go schedules f. A panic in f is logged and swallowed; a returned error is
// kept for Wait.
func (m *Manager) Go(ctx context.Context, f func(ctx context.Context) error) {
	if m == nil {
		return
	}

	m.state.RLock()
	defer m.state.RUnlock()

	if m.closed {
		slog.WarnContext(ctx, "goroutine: manager closed, task dropped")
		return
	}

	if !m.group.TryGo(func() error { m.run(ctx, f); return nil }) {
		slog.WarnContext(ctx, "goroutine: limit reached, task dropped")
	}
}

func (m *Manager) run(ctx context.Context, f func(ctx context.Context) error) {
	defer func() {
		rvr := recover()
		if rvr == nil {
			return
		}
		if paths := stacktrace.InternalPaths(0); len(paths) > 0 {
			slog.ErrorContext(ctx, "goroutine: task panicked", "because", rvr, "stack", paths)
		} else {
			slog.ErrorContext(ctx, "goroutine: task panicked", "because", rvr, "stack", string(debug.Stack()))
		}
	}()

	if err := ctx.Err(); err != nil {
		slog.WarnContext(ctx, "goroutine: task canceled", "error", err)
		return
	}

	if err := f(ctx); err != nil {
		m.errMu.Lock()
		m.errs = append(m.errs, err)
		m.errMu.Unlock()
	}
}

// Wait stops accepting tasks, blocks until running ones finish and returns
// their joined errors.
func (m *Manager) Wait() error {
	if m == nil {
		return nil
	}

	m.state.Lock()
	m.closed = true
	m.state.Unlock()

	_ = m.group.Wait()

	m.errMu.Lock()
	defer m.errMu.Unlock()
	return errors.Join(m.errs...)
}
