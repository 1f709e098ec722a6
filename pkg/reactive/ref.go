package reactive

// Ref is a boxed reactive value.
type Ref struct {
	sys   *System
	value any
}

// Ref creates a Ref holding v.
func (s *System) Ref(v any) *Ref {
	return &Ref{sys: s, value: ToRaw(v)}
}

// Value returns the boxed value and tracks the ref. Maps and slices are
// returned wrapped.
func (r *Ref) Value() any {
	r.sys.Track(r, ValueKey)
	if s, ok := r.value.([]any); ok {
		box := s
		r.value = &box
	}
	return r.sys.Reactive(r.value)
}

// Peek returns the boxed value without tracking or wrapping.
func (r *Ref) Peek() any {
	return r.value
}

// Set stores v and notifies subscribers when it changed.
func (r *Ref) Set(v any) {
	v = ToRaw(v)
	if identical(r.value, v) {
		return
	}
	r.value = v
	r.sys.Trigger(r, ValueKey)
}

// Computed returns a Ref that holds the result of getter. The value is
// recomputed eagerly by a private effect whenever a dependency changes.
func (s *System) Computed(getter func() any) *Ref {
	r := &Ref{sys: s}
	s.WatchEffect(func() Cleanup {
		r.Set(getter())
		return nil
	})
	return r
}
