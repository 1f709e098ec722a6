package reactive

// Cleanup is returned by an effect body and runs before the next run and when
// the effect is stopped.
type Cleanup func()

// Effect is a re-runnable function whose reads are tracked.
//
// Effects created with WatchEffect run once immediately. Afterwards, a write to
// any key the last run read either re-runs the effect synchronously or, when
// the effect was created WithScheduler, hands it to the scheduler hook.
type Effect struct {
	id  uint64
	sys *System

	// fn is the effect body.
	fn func() Cleanup

	// cleanup is the cleanup returned by the last run.
	cleanup Cleanup

	// scheduler diverts re-runs. nil means run synchronously.
	scheduler func(*Effect)

	lazy    bool
	stopped bool
	runs    int
}

// EffectOption configures an Effect.
type EffectOption interface {
	applyEffect(e *Effect)
}

type effectOptionFunc func(*Effect)

func (f effectOptionFunc) applyEffect(e *Effect) { f(e) }

// WithScheduler routes re-runs triggered by writes through fn instead of
// running the effect synchronously. fn usually queues the effect and calls
// Run later.
func WithScheduler(fn func(*Effect)) EffectOption {
	return effectOptionFunc(func(e *Effect) {
		e.scheduler = fn
	})
}

// Lazy skips the initial run. The caller runs the effect explicitly.
func Lazy() EffectOption {
	return effectOptionFunc(func(e *Effect) {
		e.lazy = true
	})
}

// WatchEffect creates an effect around fn and runs it immediately unless the
// Lazy option is given.
func (s *System) WatchEffect(fn func() Cleanup, opts ...EffectOption) *Effect {
	s.nextID++
	e := &Effect{id: s.nextID, sys: s, fn: fn}
	for _, opt := range opts {
		opt.applyEffect(e)
	}
	if !e.lazy {
		e.Run()
	}
	return e
}

// ID returns the creation sequence number of the effect.
func (e *Effect) ID() uint64 {
	return e.id
}

// Runs returns how many times the effect body has executed.
func (e *Effect) Runs() int {
	return e.runs
}

// Stopped reports whether Stop has been called.
func (e *Effect) Stopped() bool {
	return e.stopped
}

// Deps returns the number of (target, key) edges recorded by the last run.
func (e *Effect) Deps() int {
	return len(e.sys.edges[e])
}

// Run executes the effect body with tracking enabled.
//
// The previous cleanup runs first and the edges of the previous run are
// dropped, so only keys read by this run stay subscribed. The effect stack is
// restored even when the body panics. Re-entrant runs of an effect that is
// already on the stack are ignored.
func (e *Effect) Run() {
	if e.stopped || e.sys.running(e) {
		return
	}
	if e.cleanup != nil {
		c := e.cleanup
		e.cleanup = nil
		c()
	}
	e.sys.clearEdges(e)

	e.sys.push(e)
	defer e.sys.pop()

	e.runs++
	e.cleanup = e.fn()
}

// Stop runs the pending cleanup and removes every subscription of the effect.
// A stopped effect never runs again.
func (e *Effect) Stop() {
	if e.stopped {
		return
	}
	e.stopped = true
	if e.cleanup != nil {
		c := e.cleanup
		e.cleanup = nil
		c()
	}
	e.sys.clearEdges(e)
}
