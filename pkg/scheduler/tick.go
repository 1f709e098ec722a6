package scheduler

// Tick resolves once its flush has run the callback it was created with.
type Tick struct {
	s     *Scheduler
	done  chan struct{}
	thens []func()
}

// Done is closed once the tick has resolved.
func (t *Tick) Done() <-chan struct{} {
	return t.done
}

// Resolved reports whether the tick has resolved.
func (t *Tick) Resolved() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Then registers fn to run after the tick resolves, behind every callback
// already registered at that point. Thens of the same tick run in the order
// they were added. The returned tick resolves after fn ran.
func (t *Tick) Then(fn func()) *Tick {
	next := &Tick{s: t.s, done: make(chan struct{})}
	run := func() {
		if fn != nil {
			fn()
		}
		next.resolve()
	}
	if t.Resolved() {
		t.s.callbacks = append(t.s.callbacks, run)
		t.s.arm()
		return next
	}
	t.thens = append(t.thens, run)
	return next
}

func (t *Tick) resolve() {
	close(t.done)
	if len(t.thens) > 0 {
		t.s.callbacks = append(t.s.callbacks, t.thens...)
		t.thens = nil
	}
}
