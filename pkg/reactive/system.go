package reactive

import (
	"reflect"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
)

// Keys with special meaning in the dependency graph.
const (
	// LengthKey is triggered once by every array mutator.
	LengthKey = "length"

	// ValueKey is the single key tracked on a Ref.
	ValueKey = "value"

	// iterateKey is tracked by whole-collection reads (Keys, Items).
	iterateKey = "$iterate"
)

// edge is a single (target, key) dependency recorded by an effect run.
type edge struct {
	target any
	key    string
}

// mapID is the identity of a map target.
type mapID struct {
	p uintptr
}

// System owns the dependency graph, the wrapper registry and the effect stack.
type System struct {
	// graph maps target identity -> key -> subscribed effects.
	graph map[any]map[string]mapset.Set[*Effect]

	// edges is the reverse index used to prune an effect's subscriptions.
	edges map[*Effect][]edge

	// wrappers memoizes one wrapper per target identity.
	wrappers map[any]any

	// stack holds the running effects. A nil entry suspends tracking.
	stack []*Effect

	// mutating is set while an array mutator rewrites the backing slice.
	mutating bool

	nextID uint64
}

// NewSystem creates an empty reactive system.
func NewSystem() *System {
	return &System{
		graph:    make(map[any]map[string]mapset.Set[*Effect]),
		edges:    make(map[*Effect][]edge),
		wrappers: make(map[any]any),
	}
}

// Reactive returns the observable wrapper for v.
//
// Maps of type map[string]any yield an *Object and *[]any yields an *Array,
// memoized by target identity. A bare []any is boxed first and therefore has
// no stable identity of its own. Existing wrappers are returned unchanged and
// every other value is returned as is.
func (s *System) Reactive(v any) any {
	switch t := v.(type) {
	case *Object, *Array, *Ref:
		return t
	case map[string]any:
		if t == nil {
			return v
		}
		id := mapID{p: reflect.ValueOf(t).Pointer()}
		if w, ok := s.wrappers[id]; ok {
			return w
		}
		o := &Object{sys: s, raw: t, id: id}
		s.wrappers[id] = o
		return o
	case *[]any:
		if t == nil {
			return v
		}
		if w, ok := s.wrappers[t]; ok {
			return w
		}
		a := &Array{sys: s, raw: t}
		s.wrappers[t] = a
		return a
	case []any:
		box := t
		return s.Reactive(&box)
	}
	return v
}

// Object is a shorthand for Reactive on a map.
func (s *System) Object(m map[string]any) *Object {
	if m == nil {
		m = make(map[string]any)
	}
	return s.Reactive(m).(*Object)
}

// Array is a shorthand for Reactive on a boxed slice.
func (s *System) Array(items *[]any) *Array {
	if items == nil {
		items = new([]any)
	}
	return s.Reactive(items).(*Array)
}

// IsReactive reports whether v is a wrapper produced by a System.
func IsReactive(v any) bool {
	switch v.(type) {
	case *Object, *Array, *Ref:
		return true
	}
	return false
}

// ToRaw returns the target behind a wrapper, or v itself.
func ToRaw(v any) any {
	switch t := v.(type) {
	case *Object:
		return t.raw
	case *Array:
		return t.raw
	}
	return v
}

// Release forgets the wrapper and every dependency edge registered for the
// target behind v. Later reads wrap the target again.
func (s *System) Release(v any) {
	id := identityOf(ToRaw(v))
	delete(s.wrappers, id)
	keys, ok := s.graph[id]
	if !ok {
		return
	}
	for _, subs := range keys {
		subs.Each(func(e *Effect) bool {
			s.dropEdgesFor(e, id)
			return false
		})
	}
	delete(s.graph, id)
}

// Track records a dependency of the running effect on (target, key).
// It is a no-op when no effect is running.
func (s *System) Track(target any, key string) {
	e := s.active()
	if e == nil {
		return
	}
	id := identityOf(target)
	keys, ok := s.graph[id]
	if !ok {
		keys = make(map[string]mapset.Set[*Effect])
		s.graph[id] = keys
	}
	subs, ok := keys[key]
	if !ok {
		subs = mapset.NewThreadUnsafeSet[*Effect]()
		keys[key] = subs
	}
	if subs.Add(e) {
		s.edges[e] = append(s.edges[e], edge{target: id, key: key})
	}
}

// Trigger re-runs (or schedules) every effect subscribed to any of the keys on
// target. Effects run in creation order; the running effect is skipped.
// Triggers raised while an array mutator is rewriting its slice are dropped.
func (s *System) Trigger(target any, keys ...string) {
	if s.mutating {
		return
	}
	deps, ok := s.graph[identityOf(target)]
	if !ok {
		return
	}
	var pending []*Effect
	seen := mapset.NewThreadUnsafeSet[*Effect]()
	for _, key := range keys {
		subs, ok := deps[key]
		if !ok {
			continue
		}
		subs.Each(func(e *Effect) bool {
			if seen.Add(e) {
				pending = append(pending, e)
			}
			return false
		})
	}
	if len(pending) == 0 {
		return
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].id < pending[j].id })

	current := s.active()
	for _, e := range pending {
		if e == current || e.stopped {
			continue
		}
		if e.scheduler != nil {
			e.scheduler(e)
			continue
		}
		e.Run()
	}
}

// Subscribers returns the effects subscribed to (target, key) in creation order.
func (s *System) Subscribers(target any, key string) []*Effect {
	deps, ok := s.graph[identityOf(target)]
	if !ok {
		return nil
	}
	subs, ok := deps[key]
	if !ok {
		return nil
	}
	out := subs.ToSlice()
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Targets returns the number of targets with at least one subscriber.
func (s *System) Targets() int {
	return len(s.graph)
}

// Untracked runs fn with dependency tracking suspended.
func (s *System) Untracked(fn func()) {
	s.stack = append(s.stack, nil)
	defer s.pop()
	fn()
}

// Active returns the running effect, or nil.
func (s *System) Active() *Effect {
	return s.active()
}

func (s *System) active() *Effect {
	if len(s.stack) == 0 {
		return nil
	}
	return s.stack[len(s.stack)-1]
}

func (s *System) push(e *Effect) {
	s.stack = append(s.stack, e)
}

func (s *System) pop() {
	s.stack[len(s.stack)-1] = nil
	s.stack = s.stack[:len(s.stack)-1]
}

func (s *System) running(e *Effect) bool {
	for _, r := range s.stack {
		if r == e {
			return true
		}
	}
	return false
}

// clearEdges removes every subscription recorded for e.
func (s *System) clearEdges(e *Effect) {
	for _, ed := range s.edges[e] {
		s.unsubscribe(e, ed)
	}
	delete(s.edges, e)
}

// dropEdgesFor removes e's edges that point at target.
func (s *System) dropEdgesFor(e *Effect, target any) {
	kept := s.edges[e][:0]
	for _, ed := range s.edges[e] {
		if ed.target == target {
			continue
		}
		kept = append(kept, ed)
	}
	if len(kept) == 0 {
		delete(s.edges, e)
		return
	}
	s.edges[e] = kept
}

func (s *System) unsubscribe(e *Effect, ed edge) {
	keys, ok := s.graph[ed.target]
	if !ok {
		return
	}
	subs, ok := keys[ed.key]
	if !ok {
		return
	}
	subs.Remove(e)
	if subs.Cardinality() == 0 {
		delete(keys, ed.key)
	}
	if len(keys) == 0 {
		delete(s.graph, ed.target)
	}
}

// identityOf returns the graph key for a target or wrapper.
func identityOf(target any) any {
	switch t := target.(type) {
	case *Object:
		return t.id
	case *Array:
		return t.raw
	case map[string]any:
		return mapID{p: reflect.ValueOf(t).Pointer()}
	case mapID:
		return t
	}
	return target
}
