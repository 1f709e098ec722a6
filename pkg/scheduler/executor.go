package scheduler

// Executor runs a flush at some later point. Schedule reports false when the
// executor is unavailable.
type Executor interface {
	Schedule(fn func()) bool
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(fn func()) bool

// Schedule calls f(fn).
func (f ExecutorFunc) Schedule(fn func()) bool { return f(fn) }

// Microtask schedules onto the loop's microtask queue.
func Microtask(l *Loop) Executor {
	return ExecutorFunc(func(fn func()) bool {
		if l == nil {
			return false
		}
		l.QueueMicrotask(fn)
		return true
	})
}

// Macrotask schedules onto the loop's task queue.
func Macrotask(l *Loop) Executor {
	return ExecutorFunc(func(fn func()) bool {
		return l != nil && l.Post(fn)
	})
}

// Sync runs fn immediately.
func Sync() Executor {
	return ExecutorFunc(func(fn func()) bool {
		fn()
		return true
	})
}

// Chain tries each executor in order and uses the first one available.
func Chain(execs ...Executor) Executor {
	return ExecutorFunc(func(fn func()) bool {
		for _, e := range execs {
			if e != nil && e.Schedule(fn) {
				return true
			}
		}
		return false
	})
}
