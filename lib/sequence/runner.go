// Copyright 2026 The Tabmesh Authors
// SPDX-License-Identifier: Apache-2.0

package sequence

import (
	"log/slog"
	"sync"
)

// Runner executes posted tasks one at a time, in posting order.
type Runner interface {
	// Post hands a task to the runner. Whether the task is deferred
	// to a queue or executed inline is up to the implementation; see
	// Loop and Synchronous.
	Post(task func())
}

// Loop is a Runner backed by one background goroutine and an
// unbounded FIFO queue — Post never blocks, so a task may safely post
// follow-up work. Construct with NewLoop; call Stop to drain and shut
// down.
type Loop struct {
	mu      sync.Mutex
	wake    *sync.Cond
	queue   []func()
	stopped bool
	done    chan struct{}
	logger  *slog.Logger
}

// NewLoop starts a runner goroutine. Pass a nil logger to discard the
// (rare) operational messages.
func NewLoop(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	loop := &Loop{
		done:   make(chan struct{}),
		logger: logger,
	}
	loop.wake = sync.NewCond(&loop.mu)
	go loop.run()
	return loop
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.stopped {
			l.wake.Wait()
		}
		if len(l.queue) == 0 && l.stopped {
			l.mu.Unlock()
			return
		}
		task := l.queue[0]
		l.queue = l.queue[1:]
		l.mu.Unlock()

		task()
	}
}

// Post enqueues a task. Never blocks, and tasks never run
// reentrantly: a task posted from within a task runs after the
// current one returns. Posting after Stop is a logged no-op — late
// store-I/O completions racing a shutdown are expected and harmless.
func (l *Loop) Post(task func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		l.logger.Debug("sequence: task posted after stop, dropped")
		return
	}
	l.queue = append(l.queue, task)
	l.wake.Signal()
}

// Stop drains all queued tasks and stops the goroutine. Blocks until
// the last task finishes. Safe to call more than once.
func (l *Loop) Stop() {
	l.mu.Lock()
	l.stopped = true
	l.wake.Signal()
	l.mu.Unlock()
	<-l.done
}

// Synchronous returns a Runner that executes each task inline in
// Post. Tests use it so a whole scenario runs deterministically on
// the test goroutine. Unlike Loop, a task that posts follow-up work
// runs it nested, before the outer Post returns.
func Synchronous() Runner {
	return synchronousRunner{}
}

type synchronousRunner struct{}

func (synchronousRunner) Post(task func()) { task() }
