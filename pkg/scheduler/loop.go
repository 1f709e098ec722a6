package scheduler

import (
	"context"
	"io"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Loop is a single-goroutine event loop. Tasks posted with Post run one at a
// time; after each task the microtask queue is drained completely.
//
// Post is safe from any goroutine. Everything else must be called from the
// goroutine running the loop (or the goroutine calling Flush).
type Loop struct {
	tasks  chan func()
	wake   chan struct{}
	done   chan struct{}
	closed atomic.Bool
	once   sync.Once

	mu    sync.Mutex
	micro []func()

	logger *slog.Logger
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithQueueSize sets the capacity of the task queue (default 256).
func WithQueueSize(n int) LoopOption {
	return func(l *Loop) {
		l.tasks = make(chan func(), n)
	}
}

// WithLoopLogger sets the logger used to report task panics in Run.
func WithLoopLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) {
		l.logger = logger
	}
}

// NewLoop creates a loop. It does nothing until Run or Flush is called.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		tasks:  make(chan func(), 256),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Post queues a task. It reports false if the loop is closed or the queue
// is full.
func (l *Loop) Post(fn func()) bool {
	if l.closed.Load() {
		return false
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	default:
		l.logger.Warn("task queue full, discarding task")
		return false
	}
}

// QueueMicrotask queues fn to run after the current task.
func (l *Loop) QueueMicrotask(fn func()) {
	l.mu.Lock()
	l.micro = append(l.micro, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run processes tasks until ctx is done or Close is called. Panics in tasks
// are logged and the loop keeps running.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.drainMicrotasks(true)
		select {
		case fn := <-l.tasks:
			l.runTask(fn, true)
		case <-l.wake:
		case <-l.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Flush runs every queued task and microtask on the calling goroutine until
// both queues are empty. Panics propagate to the caller.
func (l *Loop) Flush() {
	for {
		l.drainMicrotasks(false)
		select {
		case fn := <-l.tasks:
			l.runTask(fn, false)
		default:
			if l.pending() == 0 {
				return
			}
		}
	}
}

// Close stops Run. Queued tasks are dropped.
func (l *Loop) Close() {
	l.once.Do(func() {
		l.closed.Store(true)
		close(l.done)
	})
}

func (l *Loop) pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.micro)
}

func (l *Loop) runTask(fn func(), recoverPanics bool) {
	if recoverPanics {
		defer l.recover("task")
	}
	fn()
	l.drainMicrotasks(recoverPanics)
}

func (l *Loop) drainMicrotasks(recoverPanics bool) {
	for {
		l.mu.Lock()
		if len(l.micro) == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.micro[0]
		l.micro[0] = nil
		l.micro = l.micro[1:]
		l.mu.Unlock()

		if recoverPanics {
			l.runMicrotask(fn)
		} else {
			fn()
		}
	}
}

func (l *Loop) runMicrotask(fn func()) {
	defer l.recover("microtask")
	fn()
}

func (l *Loop) recover(kind string) {
	if r := recover(); r != nil {
		l.logger.Error(kind+" panic",
			"panic", r,
			"stack", string(debug.Stack()))
	}
}
