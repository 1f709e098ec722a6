package vdom

import (
	"fmt"
	"reflect"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Invoke calls fn with args, adapting them to fn's signature: surplus
// arguments are dropped, missing ones are zero, nil becomes the zero value and
// numbers are converted between numeric kinds. It returns the first result,
// or the error when the last result is a non-nil error.
func Invoke(fn any, args ...any) (any, error) {
	switch f := fn.(type) {
	case nil:
		return nil, fmt.Errorf("vdom: call of nil handler")
	case func():
		f()
		return nil, nil
	}

	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func {
		return nil, fmt.Errorf("vdom: %T is not callable", fn)
	}
	ft := rv.Type()

	in := make([]reflect.Value, 0, ft.NumIn())
	fixed := ft.NumIn()
	if ft.IsVariadic() {
		fixed--
	}
	for i := 0; i < fixed; i++ {
		var a any
		if i < len(args) {
			a = args[i]
		}
		v, err := convertArg(a, ft.In(i))
		if err != nil {
			return nil, fmt.Errorf("vdom: argument %d: %w", i, err)
		}
		in = append(in, v)
	}
	if ft.IsVariadic() {
		elem := ft.In(fixed).Elem()
		for i := fixed; i < len(args); i++ {
			v, err := convertArg(args[i], elem)
			if err != nil {
				return nil, fmt.Errorf("vdom: argument %d: %w", i, err)
			}
			in = append(in, v)
		}
	}

	out := rv.Call(in)
	if n := len(out); n > 0 && ft.Out(n-1) == errorType {
		if err, _ := out[n-1].Interface().(error); err != nil {
			return nil, err
		}
		out = out[:n-1]
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0].Interface(), nil
}

func convertArg(a any, want reflect.Type) (reflect.Value, error) {
	if a == nil {
		return reflect.Zero(want), nil
	}
	v := reflect.ValueOf(a)
	if v.Type().AssignableTo(want) {
		return v, nil
	}
	if isNumber(v.Kind()) && isNumber(want.Kind()) {
		return v.Convert(want), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", a, want)
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
