package reactive

import "sort"

// Object is the observable wrapper of a map[string]any.
type Object struct {
	sys *System
	raw map[string]any
	id  mapID
}

// Get returns the value at key and tracks (object, key). Nested maps and
// slices are returned wrapped.
func (o *Object) Get(key string) any {
	o.sys.Track(o, key)
	v, ok := o.raw[key]
	if !ok {
		return nil
	}
	if s, ok := v.([]any); ok {
		box := s
		o.raw[key] = &box
		v = &box
	}
	return o.sys.Reactive(v)
}

// Peek returns the value at key without tracking or wrapping.
func (o *Object) Peek(key string) any {
	return o.raw[key]
}

// Has reports whether key is present and tracks (object, key).
func (o *Object) Has(key string) bool {
	o.sys.Track(o, key)
	_, ok := o.raw[key]
	return ok
}

// Set stores v at key. Wrappers are unwrapped before storing. Subscribers are
// notified only when the stored value changed; adding a key also notifies
// whole-object readers.
func (o *Object) Set(key string, v any) {
	v = ToRaw(v)
	old, had := o.raw[key]
	o.raw[key] = v
	switch {
	case !had:
		o.sys.Trigger(o, key, iterateKey)
	case !identical(old, v):
		o.sys.Trigger(o, key)
	}
}

// Delete removes key and notifies its subscribers if it was present.
func (o *Object) Delete(key string) {
	if _, ok := o.raw[key]; !ok {
		return
	}
	delete(o.raw, key)
	o.sys.Trigger(o, key, iterateKey)
}

// Keys returns the sorted keys and tracks key additions and removals.
func (o *Object) Keys() []string {
	o.sys.Track(o, iterateKey)
	keys := make([]string, 0, len(o.raw))
	for k := range o.raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of keys and tracks key additions and removals.
func (o *Object) Len() int {
	o.sys.Track(o, iterateKey)
	return len(o.raw)
}

// Raw returns the wrapped map.
func (o *Object) Raw() map[string]any {
	return o.raw
}
