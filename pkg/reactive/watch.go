package reactive

import (
	"math"
	"reflect"
)

// WatchCallback receives the new and the previous value of a watched source.
type WatchCallback func(newValue, oldValue any)

// Watch calls cb whenever source changes and returns the underlying effect;
// Stop it to end the watch.
//
// source is either a getter (func() any), compared by reference equality of
// its results, or a *Ref, *Object or *Array, which is traversed deeply and
// compared structurally against a snapshot of the previous run. In the deep
// case cb receives snapshots. cb runs untracked and is not called for the
// initial value.
func (s *System) Watch(source any, cb WatchCallback, opts ...EffectOption) *Effect {
	var (
		getter func() any
		deep   bool
	)
	switch src := source.(type) {
	case func() any:
		getter = src
	case *Ref, *Object, *Array:
		deep = true
		getter = func() any { return s.traverse(src) }
	default:
		panic("reactive: Watch source must be a getter, *Ref, *Object or *Array")
	}

	var (
		old   any
		first = true
	)
	return s.WatchEffect(func() Cleanup {
		v := getter()
		if first {
			first = false
			old = v
			return nil
		}
		changed := !identical(v, old)
		if deep {
			changed = !reflect.DeepEqual(v, old)
		}
		if !changed {
			return nil
		}
		prev := old
		old = v
		s.Untracked(func() { cb(v, prev) })
		return nil
	}, opts...)
}

// traverse reads every reachable key of a wrapper, tracking all of them, and
// returns a deep copy of the reachable plain data.
func (s *System) traverse(v any) any {
	return s.snapshot(v, make(map[any]bool))
}

func (s *System) snapshot(v any, seen map[any]bool) any {
	switch t := v.(type) {
	case *Ref:
		return s.snapshot(t.Value(), seen)
	case *Object:
		if seen[t.id] {
			return nil
		}
		seen[t.id] = true
		out := make(map[string]any, len(t.raw))
		for _, k := range t.Keys() {
			out[k] = s.snapshot(t.Get(k), seen)
		}
		return out
	case *Array:
		if seen[t.raw] {
			return nil
		}
		seen[t.raw] = true
		items := t.Items()
		out := make([]any, len(items))
		for i, it := range items {
			out[i] = s.snapshot(it, seen)
		}
		return out
	}
	return v
}

// identical reports whether a and b are the same value: equal for comparable
// values, the same underlying pointer for maps, slices and pointers. Funcs are
// never identical since closures cannot be told apart. NaN is identical to
// itself.
func identical(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Func:
		return false
	case reflect.Map, reflect.Pointer, reflect.UnsafePointer, reflect.Chan:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	case reflect.Float32, reflect.Float64:
		fa, fb := va.Float(), vb.Float()
		return fa == fb || (math.IsNaN(fa) && math.IsNaN(fb))
	}
	if va.Comparable() && vb.Comparable() {
		return a == b
	}
	return false
}
