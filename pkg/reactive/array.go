package reactive

import (
	"sort"
	"strconv"
)

// Array is the observable wrapper of a boxed slice (*[]any).
//
// Reads of a single index track that index; Len and Items track the length.
// Mutators rewrite the backing slice with triggers suspended and then notify
// LengthKey subscribers exactly once.
type Array struct {
	sys *System
	raw *[]any
}

// Len returns the number of items and tracks the length.
func (a *Array) Len() int {
	a.sys.Track(a, LengthKey)
	return len(*a.raw)
}

// At returns the item at i, wrapped, and tracks index i. Out of range reads
// return nil.
func (a *Array) At(i int) any {
	a.sys.Track(a, strconv.Itoa(i))
	if i < 0 || i >= len(*a.raw) {
		return nil
	}
	return a.wrap(i)
}

// Items returns every item, wrapped, and tracks the length and every index.
func (a *Array) Items() []any {
	a.sys.Track(a, LengthKey)
	a.sys.Track(a, iterateKey)
	out := make([]any, len(*a.raw))
	for i := range *a.raw {
		out[i] = a.wrap(i)
	}
	return out
}

// Index returns the position of v (compared by identity) or -1. It tracks
// the length and every index.
func (a *Array) Index(v any) int {
	a.sys.Track(a, LengthKey)
	a.sys.Track(a, iterateKey)
	v = ToRaw(v)
	for i, item := range *a.raw {
		if identical(item, v) {
			return i
		}
	}
	return -1
}

// Set stores v at index i, growing the slice with nils when i is past the end.
func (a *Array) Set(i int, v any) {
	if i < 0 {
		return
	}
	v = ToRaw(v)
	items := *a.raw
	if i >= len(items) {
		grown := make([]any, i+1)
		copy(grown, items)
		grown[i] = v
		*a.raw = grown
		a.sys.Trigger(a, strconv.Itoa(i), iterateKey, LengthKey)
		return
	}
	if identical(items[i], v) {
		return
	}
	items[i] = v
	a.sys.Trigger(a, strconv.Itoa(i), iterateKey)
}

// Push appends items and returns the new length.
func (a *Array) Push(items ...any) int {
	a.mutate(func(s []any) []any {
		for _, it := range items {
			s = append(s, ToRaw(it))
		}
		return s
	})
	return len(*a.raw)
}

// Pop removes and returns the last item.
func (a *Array) Pop() any {
	var out any
	a.mutate(func(s []any) []any {
		if len(s) == 0 {
			return s
		}
		out = s[len(s)-1]
		s[len(s)-1] = nil
		return s[:len(s)-1]
	})
	return out
}

// Shift removes and returns the first item.
func (a *Array) Shift() any {
	var out any
	a.mutate(func(s []any) []any {
		if len(s) == 0 {
			return s
		}
		out = s[0]
		return append([]any(nil), s[1:]...)
	})
	return out
}

// Unshift prepends items and returns the new length.
func (a *Array) Unshift(items ...any) int {
	a.mutate(func(s []any) []any {
		out := make([]any, 0, len(s)+len(items))
		for _, it := range items {
			out = append(out, ToRaw(it))
		}
		return append(out, s...)
	})
	return len(*a.raw)
}

// Splice removes deleteCount items at start, inserts items in their place and
// returns the removed items. A negative start counts from the end.
func (a *Array) Splice(start, deleteCount int, items ...any) []any {
	var removed []any
	a.mutate(func(s []any) []any {
		n := len(s)
		if start < 0 {
			start += n
			if start < 0 {
				start = 0
			}
		}
		if start > n {
			start = n
		}
		if deleteCount < 0 {
			deleteCount = 0
		}
		if start+deleteCount > n {
			deleteCount = n - start
		}
		removed = append([]any(nil), s[start:start+deleteCount]...)
		out := make([]any, 0, n-deleteCount+len(items))
		out = append(out, s[:start]...)
		for _, it := range items {
			out = append(out, ToRaw(it))
		}
		return append(out, s[start+deleteCount:]...)
	})
	return removed
}

// Sort orders the items with less, which receives wrapped items.
func (a *Array) Sort(less func(x, y any) bool) {
	a.mutate(func(s []any) []any {
		sort.SliceStable(s, func(i, j int) bool {
			return less(a.sys.Reactive(s[i]), a.sys.Reactive(s[j]))
		})
		return s
	})
}

// Reverse reverses the items in place.
func (a *Array) Reverse() {
	a.mutate(func(s []any) []any {
		for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
			s[i], s[j] = s[j], s[i]
		}
		return s
	})
}

// Raw returns the boxed slice.
func (a *Array) Raw() *[]any {
	return a.raw
}

// mutate rewrites the backing slice with triggers suspended and then notifies
// length subscribers once.
func (a *Array) mutate(fn func([]any) []any) {
	prev := a.sys.mutating
	a.sys.mutating = true
	func() {
		defer func() { a.sys.mutating = prev }()
		*a.raw = fn(*a.raw)
	}()
	if !prev {
		a.sys.Trigger(a, LengthKey)
	}
}

// wrap returns item i wrapped, boxing a bare []any in place.
func (a *Array) wrap(i int) any {
	v := (*a.raw)[i]
	if s, ok := v.([]any); ok {
		box := s
		(*a.raw)[i] = &box
		v = &box
	}
	return a.sys.Reactive(v)
}
