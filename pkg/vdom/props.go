package vdom

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// IsEventProp returns true if the key is an event handler ("on" prefix).
// Case-insensitive to catch onclick, ONCLICK, onClick.
func IsEventProp(key string) bool {
	return len(key) > 2 && strings.EqualFold(key[:2], "on")
}

// EventName returns the lower-cased event name of an "on*" prop.
func EventName(key string) string {
	return strings.ToLower(key[2:])
}

// PropsEqual compares two prop values for equality. Funcs are never equal.
func PropsEqual(a, b any) bool {
	// Fast path for common types
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return av == bv
		}
		return false
	case int:
		if bv, ok := b.(int); ok {
			return av == bv
		}
		return false
	case int64:
		if bv, ok := b.(int64); ok {
			return av == bv
		}
		return false
	case float64:
		if bv, ok := b.(float64); ok {
			return av == bv
		}
		return false
	case bool:
		if bv, ok := b.(bool); ok {
			return av == bv
		}
		return false
	case nil:
		return b == nil
	}
	if reflect.TypeOf(a).Kind() == reflect.Func {
		return false
	}
	// Fallback to reflect for complex types
	return reflect.DeepEqual(a, b)
}

// PropToString converts a prop value to its attribute form.
func PropToString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ClassString normalizes a class binding. Strings pass through, maps keep the
// keys with truthy values and slices are flattened.
func ClassString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []string:
		return strings.Join(val, " ")
	case []any:
		parts := make([]string, 0, len(val))
		for _, p := range val {
			if s := ClassString(p); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	case map[string]bool:
		var parts []string
		for _, k := range sortedKeys(val) {
			if val[k] {
				parts = append(parts, k)
			}
		}
		return strings.Join(parts, " ")
	case map[string]any:
		var parts []string
		for _, k := range sortedKeys(val) {
			if Truthy(val[k]) {
				parts = append(parts, k)
			}
		}
		return strings.Join(parts, " ")
	}
	return PropToString(v)
}

// StyleString normalizes a style binding given as a string or a map of
// property to value.
func StyleString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case map[string]string:
		var b strings.Builder
		for _, k := range sortedKeys(val) {
			writeDecl(&b, k, val[k])
		}
		return b.String()
	case map[string]any:
		var b strings.Builder
		for _, k := range sortedKeys(val) {
			if val[k] == nil {
				continue
			}
			writeDecl(&b, k, PropToString(val[k]))
		}
		return b.String()
	}
	return PropToString(v)
}

func writeDecl(b *strings.Builder, prop, value string) {
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	b.WriteString(prop)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteByte(';')
}

// Truthy reports whether v counts as true in a template condition: false,
// nil, zero numbers and empty strings are false.
func Truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
