package compiler

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.starlark.net/syntax"

	werrors "github.com/vango-dev/weave/internal/errors"
	"github.com/vango-dev/weave/pkg/reactive"
	"github.com/vango-dev/weave/pkg/vdom"
)

// evalFn evaluates a compiled expression in a render scope.
type evalFn func(s *scope) any

// scope is the environment an expression is evaluated in: v-for frames, the
// render context returned by setup, and the component props.
type scope struct {
	ctx   map[string]any
	props *reactive.Object
	vars  *frame
	bind  *binding
}

// frame is one v-for binding.
type frame struct {
	name  string
	value any
	next  *frame
}

// with returns a child scope with name bound to value.
func (s *scope) with(name string, value any) *scope {
	c := *s
	c.vars = &frame{name: name, value: value, next: s.vars}
	return &c
}

// lookup resolves an identifier: v-for frames first, then the render
// context (unwrapping refs), then props. A context entry that is nil, or a
// ref holding nil, falls through to props.
func (s *scope) lookup(name string) any {
	for f := s.vars; f != nil; f = f.next {
		if f.name == name {
			return f.value
		}
	}
	if v := s.ctx[name]; v != nil {
		if r, ok := v.(*reactive.Ref); ok {
			v = r.Value()
		}
		if v != nil {
			return v
		}
	}
	if s.props != nil {
		return s.props.Get(name)
	}
	return nil
}

var exprOptions = &syntax.FileOptions{}

// parseExpr normalizes JavaScript spellings and parses src.
func parseExpr(src string) (syntax.Expr, error) {
	return exprOptions.ParseExpr("expr", normalizeExpr(src), 0)
}

// compileExpr parses src and compiles it into a closure.
func compileExpr(src string) (evalFn, error) {
	e, err := parseExpr(src)
	if err != nil {
		return nil, err
	}
	return compileAST(e)
}

func compileAST(e syntax.Expr) (evalFn, error) {
	switch e := e.(type) {
	case *syntax.Ident:
		switch e.Name {
		case "true", "True":
			return constant(true), nil
		case "false", "False":
			return constant(false), nil
		case "null", "None", "undefined", "nil":
			return constant(nil), nil
		}
		name := e.Name
		return func(s *scope) any { return s.lookup(name) }, nil

	case *syntax.Literal:
		switch v := e.Value.(type) {
		case int64:
			return constant(int(v)), nil
		case *big.Int:
			f, _ := new(big.Float).SetInt(v).Float64()
			return constant(f), nil
		default:
			return constant(v), nil
		}

	case *syntax.ParenExpr:
		return compileAST(e.X)

	case *syntax.DotExpr:
		x, err := compileAST(e.X)
		if err != nil {
			return nil, err
		}
		name := e.Name.Name
		return func(s *scope) any { return member(x(s), name) }, nil

	case *syntax.IndexExpr:
		x, err := compileAST(e.X)
		if err != nil {
			return nil, err
		}
		y, err := compileAST(e.Y)
		if err != nil {
			return nil, err
		}
		return func(s *scope) any { return index(x(s), y(s)) }, nil

	case *syntax.CallExpr:
		fn, args, err := compileCall(e)
		if err != nil {
			return nil, err
		}
		return func(s *scope) any {
			return call(fn(s), evalAll(args, s))
		}, nil

	case *syntax.UnaryExpr:
		x, err := compileAST(e.X)
		if err != nil {
			return nil, err
		}
		switch e.Op {
		case syntax.NOT:
			return func(s *scope) any { return !vdom.Truthy(x(s)) }, nil
		case syntax.MINUS:
			return func(s *scope) any { return negate(x(s)) }, nil
		case syntax.PLUS:
			return func(s *scope) any { return numberOf(x(s)).value() }, nil
		}
		return nil, fmt.Errorf("unsupported unary operator %s", e.Op)

	case *syntax.BinaryExpr:
		x, err := compileAST(e.X)
		if err != nil {
			return nil, err
		}
		y, err := compileAST(e.Y)
		if err != nil {
			return nil, err
		}
		switch e.Op {
		case syntax.AND:
			return func(s *scope) any {
				if v := x(s); !vdom.Truthy(v) {
					return v
				}
				return y(s)
			}, nil
		case syntax.OR:
			return func(s *scope) any {
				if v := x(s); vdom.Truthy(v) {
					return v
				}
				return y(s)
			}, nil
		case syntax.EQ:
			return nil, fmt.Errorf("assignment is not supported in expressions")
		}
		op := e.Op
		return func(s *scope) any { return binary(op, x(s), y(s)) }, nil

	case *syntax.CondExpr:
		cond, err := compileAST(e.Cond)
		if err != nil {
			return nil, err
		}
		yes, err := compileAST(e.True)
		if err != nil {
			return nil, err
		}
		no, err := compileAST(e.False)
		if err != nil {
			return nil, err
		}
		return func(s *scope) any {
			if vdom.Truthy(cond(s)) {
				return yes(s)
			}
			return no(s)
		}, nil

	case *syntax.ListExpr:
		return compileList(e.List)

	case *syntax.TupleExpr:
		return compileList(e.List)

	case *syntax.DictExpr:
		type entry struct {
			key   evalFn
			value evalFn
		}
		entries := make([]entry, 0, len(e.List))
		for _, item := range e.List {
			de := item.(*syntax.DictEntry)
			var key evalFn
			// Bare identifiers are property names, as in object literals.
			if id, ok := de.Key.(*syntax.Ident); ok {
				key = constant(id.Name)
			} else {
				k, err := compileAST(de.Key)
				if err != nil {
					return nil, err
				}
				key = k
			}
			v, err := compileAST(de.Value)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry{key, v})
		}
		return func(s *scope) any {
			m := make(map[string]any, len(entries))
			for _, en := range entries {
				m[vdom.PropToString(en.key(s))] = en.value(s)
			}
			return m
		}, nil
	}
	return nil, fmt.Errorf("unsupported expression %T", e)
}

func compileCall(e *syntax.CallExpr) (evalFn, []evalFn, error) {
	fn, err := compileAST(e.Fn)
	if err != nil {
		return nil, nil, err
	}
	args := make([]evalFn, 0, len(e.Args))
	for _, a := range e.Args {
		if b, ok := a.(*syntax.BinaryExpr); ok && b.Op == syntax.EQ {
			return nil, nil, fmt.Errorf("keyword arguments are not supported")
		}
		arg, err := compileAST(a)
		if err != nil {
			return nil, nil, err
		}
		args = append(args, arg)
	}
	return fn, args, nil
}

func compileList(items []syntax.Expr) (evalFn, error) {
	fns := make([]evalFn, 0, len(items))
	for _, it := range items {
		fn, err := compileAST(it)
		if err != nil {
			return nil, err
		}
		fns = append(fns, fn)
	}
	return func(s *scope) any { return evalAll(fns, s) }, nil
}

func constant(v any) evalFn {
	return func(*scope) any { return v }
}

func evalAll(fns []evalFn, s *scope) []any {
	out := make([]any, len(fns))
	for i, fn := range fns {
		out[i] = fn(s)
	}
	return out
}

// call invokes fn and panics with W101 on failure.
func call(fn any, args []any) any {
	out, err := vdom.Invoke(fn, args...)
	if err != nil {
		panic(werrors.New("W101").Wrap(err))
	}
	return out
}

// member implements x.name.
func member(v any, name string) any {
	switch t := v.(type) {
	case nil:
		return nil
	case *reactive.Object:
		return t.Get(name)
	case *reactive.Ref:
		if name == "value" {
			return t.Value()
		}
	case *reactive.Array:
		if name == "length" {
			return t.Len()
		}
	case map[string]any:
		return t[name]
	case string:
		if name == "length" {
			return utf8.RuneCountInString(t)
		}
	}

	rv := reflect.ValueOf(v)
	if m := methodByName(rv, name); m.IsValid() {
		return m.Interface()
	}
	base := reflect.Indirect(rv)
	switch base.Kind() {
	case reflect.Struct:
		if f := base.FieldByName(exported(name)); f.IsValid() && f.CanInterface() {
			return f.Interface()
		}
	case reflect.Slice, reflect.Array:
		if name == "length" {
			return base.Len()
		}
	case reflect.Map:
		if base.Type().Key().Kind() == reflect.String {
			if mv := base.MapIndex(reflect.ValueOf(name).Convert(base.Type().Key())); mv.IsValid() {
				return mv.Interface()
			}
		}
	}
	return nil
}

func methodByName(rv reflect.Value, name string) reflect.Value {
	if !rv.IsValid() {
		return reflect.Value{}
	}
	if m := rv.MethodByName(name); m.IsValid() {
		return m
	}
	return rv.MethodByName(exported(name))
}

func exported(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:]
}

// index implements x[y].
func index(v, k any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case *reactive.Array:
		return t.At(int(numberOf(k).i))
	case *reactive.Object:
		return t.Get(vdom.PropToString(k))
	case map[string]any:
		return t[vdom.PropToString(k)]
	case string:
		i := int(numberOf(k).i)
		r := []rune(t)
		if i < 0 || i >= len(r) {
			return nil
		}
		return string(r[i])
	}
	rv := reflect.Indirect(reflect.ValueOf(v))
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		i := int(numberOf(k).i)
		if i < 0 || i >= rv.Len() {
			return nil
		}
		return rv.Index(i).Interface()
	case reflect.Map:
		kv := reflect.ValueOf(k)
		if !kv.IsValid() || !kv.Type().ConvertibleTo(rv.Type().Key()) {
			return nil
		}
		if mv := rv.MapIndex(kv.Convert(rv.Type().Key())); mv.IsValid() {
			return mv.Interface()
		}
	}
	return nil
}

// num is a template number: an integer when every operand was an integer.
type num struct {
	i     int64
	f     float64
	isInt bool
	ok    bool
}

func (n num) value() any {
	if !n.ok {
		return math.NaN()
	}
	if n.isInt {
		return int(n.i)
	}
	return n.f
}

func numberOf(v any) num {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return num{i: rv.Int(), f: float64(rv.Int()), isInt: true, ok: true}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return num{i: int64(rv.Uint()), f: float64(rv.Uint()), isInt: true, ok: true}
	case reflect.Float32, reflect.Float64:
		return num{i: int64(rv.Float()), f: rv.Float(), ok: true}
	case reflect.Bool:
		if rv.Bool() {
			return num{i: 1, f: 1, isInt: true, ok: true}
		}
		return num{isInt: true, ok: true}
	}
	return num{}
}

func negate(v any) any {
	n := numberOf(v)
	if n.isInt {
		return int(-n.i)
	}
	return -n.f
}

func binary(op syntax.Token, a, b any) any {
	switch op {
	case syntax.PLUS:
		_, as := a.(string)
		_, bs := b.(string)
		if as || bs {
			return vdom.PropToString(a) + vdom.PropToString(b)
		}
		return arith(op, numberOf(a), numberOf(b))
	case syntax.MINUS, syntax.STAR, syntax.SLASH, syntax.SLASHSLASH, syntax.PERCENT:
		return arith(op, numberOf(a), numberOf(b))
	case syntax.EQL:
		return looseEqual(a, b)
	case syntax.NEQ:
		return !looseEqual(a, b)
	case syntax.LT, syntax.GT, syntax.LE, syntax.GE:
		return compare(op, a, b)
	case syntax.IN:
		return contains(b, a)
	case syntax.NOT_IN:
		return !contains(b, a)
	}
	panic(werrors.New("W101").WithMessage("Unsupported operator %s", op))
}

func arith(op syntax.Token, x, y num) any {
	if !x.ok || !y.ok {
		return math.NaN()
	}
	if x.isInt && y.isInt {
		switch op {
		case syntax.PLUS:
			return int(x.i + y.i)
		case syntax.MINUS:
			return int(x.i - y.i)
		case syntax.STAR:
			return int(x.i * y.i)
		case syntax.SLASH:
			if y.i != 0 && x.i%y.i == 0 {
				return int(x.i / y.i)
			}
		case syntax.SLASHSLASH:
			if y.i != 0 {
				return int(math.Floor(x.f / y.f))
			}
		case syntax.PERCENT:
			if y.i != 0 {
				return int(x.i % y.i)
			}
		}
	}
	switch op {
	case syntax.PLUS:
		return x.f + y.f
	case syntax.MINUS:
		return x.f - y.f
	case syntax.STAR:
		return x.f * y.f
	case syntax.SLASH:
		return x.f / y.f
	case syntax.SLASHSLASH:
		return math.Floor(x.f / y.f)
	default:
		return math.Mod(x.f, y.f)
	}
}

func looseEqual(a, b any) bool {
	if na, nb := numberOf(a), numberOf(b); na.ok && nb.ok {
		if _, isBool := a.(bool); !isBool {
			if _, isBool := b.(bool); !isBool {
				return na.f == nb.f
			}
		}
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Slice:
		return va.Pointer() == vb.Pointer()
	case reflect.Func:
		return false
	}
	if va.Comparable() && vb.Comparable() {
		return a == b
	}
	return false
}

func compare(op syntax.Token, a, b any) bool {
	var c int
	as, aok := a.(string)
	bs, bok := b.(string)
	switch {
	case aok && bok:
		c = strings.Compare(as, bs)
	default:
		na, nb := numberOf(a), numberOf(b)
		if !na.ok || !nb.ok {
			return false
		}
		switch {
		case na.f < nb.f:
			c = -1
		case na.f > nb.f:
			c = 1
		}
	}
	switch op {
	case syntax.LT:
		return c < 0
	case syntax.GT:
		return c > 0
	case syntax.LE:
		return c <= 0
	default:
		return c >= 0
	}
}

func contains(container, item any) bool {
	switch t := container.(type) {
	case nil:
		return false
	case *reactive.Array:
		for _, it := range t.Items() {
			if looseEqual(reactive.ToRaw(it), reactive.ToRaw(item)) {
				return true
			}
		}
		return false
	case *reactive.Object:
		return t.Has(vdom.PropToString(item))
	case map[string]any:
		_, ok := t[vdom.PropToString(item)]
		return ok
	case string:
		return strings.Contains(t, vdom.PropToString(item))
	}
	rv := reflect.Indirect(reflect.ValueOf(container))
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if looseEqual(rv.Index(i).Interface(), item) {
				return true
			}
		}
	case reflect.Map:
		kv := reflect.ValueOf(item)
		if kv.IsValid() && kv.Type().ConvertibleTo(rv.Type().Key()) {
			return rv.MapIndex(kv.Convert(rv.Type().Key())).IsValid()
		}
	}
	return false
}

// normalizeExpr rewrites JavaScript operators into their starlark forms and
// turns a top-level "cond ? a : b" into "(a) if (cond) else (b)". Quoted
// strings are left untouched.
func normalizeExpr(src string) string {
	var b strings.Builder
	var quote byte
	for i := 0; i < len(src); i++ {
		c := src[i]
		if quote != 0 {
			b.WriteByte(c)
			if c == '\\' && i+1 < len(src) {
				i++
				b.WriteByte(src[i])
			} else if c == quote {
				quote = 0
			}
			continue
		}
		rest := src[i:]
		switch {
		case c == '"' || c == '\'':
			quote = c
			b.WriteByte(c)
		case strings.HasPrefix(rest, "==="), strings.HasPrefix(rest, "!=="):
			b.WriteString(rest[:2])
			i += 2
		case strings.HasPrefix(rest, "!="):
			b.WriteString("!=")
			i++
		case strings.HasPrefix(rest, "&&"):
			b.WriteString(" and ")
			i++
		case strings.HasPrefix(rest, "||"):
			b.WriteString(" or ")
			i++
		case strings.HasPrefix(rest, "?."):
			b.WriteByte('.')
			i++
		case c == '!':
			b.WriteString(" not ")
		default:
			b.WriteByte(c)
		}
	}
	return convertTernary(strings.TrimSpace(b.String()))
}

func convertTernary(s string) string {
	s = convertGroups(s)
	q, colon := -1, -1
	depth, nested := 0, 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '?':
			if depth != 0 {
				continue
			}
			if q < 0 {
				q = i
			} else {
				nested++
			}
		case ':':
			if depth != 0 || q < 0 {
				continue
			}
			if nested > 0 {
				nested--
				continue
			}
			colon = i
		}
		if colon >= 0 {
			break
		}
	}
	if q < 0 || colon < 0 {
		return s
	}
	cond := strings.TrimSpace(s[:q])
	yes := convertTernary(strings.TrimSpace(s[q+1 : colon]))
	no := convertTernary(strings.TrimSpace(s[colon+1:]))
	return "(" + yes + ") if (" + cond + ") else (" + no + ")"
}

// convertGroups converts ternaries inside parentheses and brackets, one
// comma-separated element at a time.
func convertGroups(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"', '\'':
			j := skipString(s, i)
			b.WriteString(s[i:j])
			i = j - 1
		case '(', '[':
			j := matching(s, i)
			if j < 0 {
				b.WriteString(s[i:])
				return b.String()
			}
			b.WriteByte(c)
			b.WriteString(convertList(s[i+1 : j]))
			b.WriteByte(s[j])
			i = j
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func convertList(s string) string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"', '\'':
			i = skipString(s, i) - 1
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, convertTernary(strings.TrimSpace(s[start:i])))
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(s[start:]); rest != "" || len(parts) > 0 {
		parts = append(parts, convertTernary(rest))
	}
	return strings.Join(parts, ", ")
}

// skipString returns the index just past the string literal starting at i.
func skipString(s string, i int) int {
	quote := s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case quote:
			return j + 1
		}
	}
	return len(s)
}

// matching returns the index of the bracket closing the one at i, or -1.
func matching(s string, i int) int {
	depth := 0
	for j := i; j < len(s); j++ {
		switch s[j] {
		case '"', '\'':
			j = skipString(s, j) - 1
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}
