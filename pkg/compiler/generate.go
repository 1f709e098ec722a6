package compiler

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"go.starlark.net/syntax"

	werrors "github.com/vango-dev/weave/internal/errors"
	"github.com/vango-dev/weave/pkg/reactive"
	"github.com/vango-dev/weave/pkg/vdom"
)

// Program is a compiled template. It is immutable and shared by every
// instance of the component it belongs to.
type Program struct {
	// Name is the file name given to CompileFile, if any.
	Name string

	// Statics holds one descriptor per unique hoisted subtree.
	Statics []*vdom.Static

	// Compilation is the annotated AST the program was generated from.
	Compilation *Compilation

	root       builder
	containers []containerSpec
}

// Env is what a program is bound to: the values returned by setup, the
// component props and the child components it may reference.
type Env struct {
	Context    map[string]any
	Props      *reactive.Object
	Components map[string]vdom.Component
}

// RenderFunc builds one tree.
type RenderFunc func() *vdom.VNode

// builder appends the nodes produced by one AST node to out.
type builder func(s *scope, out []*vdom.VNode) []*vdom.VNode

// binding holds per-instance state of a bound program.
type binding struct {
	containers []*vdom.VNode
	components map[string]vdom.Component
}

type containerSpec struct {
	tag      string
	key      any
	props    vdom.Props
	children []builder
}

// Bind returns the render function of one component instance. Container
// nodes are created here, once, and returned by every render.
func (p *Program) Bind(env Env) RenderFunc {
	b := &binding{
		containers: make([]*vdom.VNode, len(p.containers)),
		components: env.Components,
	}
	base := &scope{ctx: env.Context, props: env.Props, bind: b}
	for i, spec := range p.containers {
		children := spec.children
		b.containers[i] = &vdom.VNode{
			Kind:      vdom.KindElement,
			Tag:       spec.tag,
			Key:       spec.key,
			Props:     spec.props,
			PatchFlag: vdom.FlagChildren,
			ChildrenFn: func() []*vdom.VNode {
				var out []*vdom.VNode
				for _, c := range children {
					out = c(base, out)
				}
				return out
			},
		}
	}
	return func() *vdom.VNode {
		out := p.root(base, nil)
		return out[0]
	}
}

// Generate builds a program from a transformed template.
func Generate(name, src string, c *Compilation) (*Program, error) {
	g := &generator{file: name, src: src, prog: &Program{Name: name, Compilation: c}}
	for _, h := range c.Hoisted {
		g.prog.Statics = append(g.prog.Statics, &vdom.Static{Markup: h.Markup, Hash: h.Hash, Tag: h.Tag})
	}
	g.containerIndex = make(map[*Node]int, len(c.Containers))
	for i, n := range c.Containers {
		g.containerIndex[n] = i
	}
	g.prog.containers = make([]containerSpec, len(c.Containers))

	root, err := g.rootElement(c.Root)
	if err != nil {
		return nil, err
	}
	b, err := g.node(root)
	if err != nil {
		return nil, err
	}
	g.prog.root = b
	return g.prog, nil
}

type generator struct {
	file           string
	src            string
	prog           *Program
	containerIndex map[*Node]int
}

func (g *generator) errorAt(code string, pos Position) *werrors.Error {
	return werrors.New(code).WithSource(g.file, g.src, pos.Line, pos.Column)
}

func (g *generator) rootElement(root *Node) (*Node, error) {
	for _, c := range root.Children {
		if c.Type != NodeElement {
			return nil, g.errorAt("W007", c.Pos).WithMessage("Text outside the root element")
		}
	}
	els := root.Elements()
	switch {
	case len(els) == 0:
		return nil, g.errorAt("W007", root.Pos).WithMessage("Template has no root element")
	case len(els) > 1:
		return nil, g.errorAt("W007", els[1].Pos).
			WithMessage("Template has %d root elements", len(els)).
			WithSuggestion("Wrap the elements in a single <div>")
	case els[0].Directive("for") != nil:
		return nil, g.errorAt("W007", els[0].Pos).WithMessage("The root element cannot use v-for")
	}
	return els[0], nil
}

func (g *generator) expr(n *Node) (evalFn, error) {
	fn, err := compileExpr(n.Value)
	if err != nil {
		return nil, g.errorAt("W005", n.Pos).Wrap(err).WithDetail(fmt.Sprintf("in %q", n.Value))
	}
	return fn, nil
}

func (g *generator) node(n *Node) (builder, error) {
	switch n.Type {
	case NodeText:
		text := n.Value
		return func(_ *scope, out []*vdom.VNode) []*vdom.VNode {
			return append(out, &vdom.VNode{Kind: vdom.KindText, Text: text, PatchFlag: vdom.Hoisted})
		}, nil
	case NodeInterpolation:
		fn, err := g.expr(n)
		if err != nil {
			return nil, err
		}
		return func(s *scope, out []*vdom.VNode) []*vdom.VNode {
			return append(out, &vdom.VNode{Kind: vdom.KindText, Text: Display(fn(s)), PatchFlag: vdom.FlagText})
		}, nil
	}

	switch n.Class {
	case ClassHoisted:
		static := g.prog.Statics[n.HoistIndex]
		var key any
		if a := n.Attr(NodeAttribute, "key"); a != nil {
			key = a.Value
		}
		return func(_ *scope, out []*vdom.VNode) []*vdom.VNode {
			return append(out, &vdom.VNode{Kind: vdom.KindStatic, Tag: static.Tag, Key: key, Static: static, PatchFlag: vdom.Hoisted})
		}, nil
	case ClassContainer:
		return g.container(n)
	}

	var (
		b   builder
		err error
	)
	if n.IsComponent() {
		b, err = g.component(n)
	} else {
		b, err = g.element(n)
	}
	if err != nil {
		return nil, err
	}
	if d := n.Directive("if"); d != nil {
		cond, err := g.expr(d)
		if err != nil {
			return nil, err
		}
		inner := b
		b = func(s *scope, out []*vdom.VNode) []*vdom.VNode {
			if !vdom.Truthy(cond(s)) {
				return append(out, vdom.Empty())
			}
			return inner(s, out)
		}
	}
	if d := n.Directive("for"); d != nil {
		return g.loop(d, b)
	}
	return b, nil
}

func (g *generator) container(n *Node) (builder, error) {
	idx := g.containerIndex[n]
	spec := containerSpec{tag: n.Tag, props: make(vdom.Props)}
	for _, a := range n.Attrs {
		if a.Name == "key" {
			spec.key = a.Value
			continue
		}
		spec.props[a.Name] = a.Value
	}
	children, err := g.children(n)
	if err != nil {
		return nil, err
	}
	spec.children = children
	g.prog.containers[idx] = spec
	return func(s *scope, out []*vdom.VNode) []*vdom.VNode {
		return append(out, s.bind.containers[idx])
	}, nil
}

func (g *generator) children(n *Node) ([]builder, error) {
	out := make([]builder, 0, len(n.Children))
	for _, c := range n.Children {
		b, err := g.node(c)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

type dynAttr struct {
	name string
	fn   evalFn
}

type handler struct {
	name string
	fn   func(s *scope) any
}

// attributes compiles the attribute-like nodes of an element.
func (g *generator) attributes(n *Node) (static vdom.Props, staticKey any, dyn []dynAttr, events []handler, err error) {
	static = make(vdom.Props)
	for _, a := range n.Attrs {
		switch a.Type {
		case NodeAttribute:
			if !a.Dynamic {
				if a.Name == "key" {
					staticKey = a.Value
				} else {
					static[a.Name] = a.Value
				}
				continue
			}
			fn, err := g.expr(a)
			if err != nil {
				return nil, nil, nil, nil, err
			}
			dyn = append(dyn, dynAttr{name: a.Name, fn: fn})
		case NodeEvent:
			h, err := g.handler(a)
			if err != nil {
				return nil, nil, nil, nil, err
			}
			events = append(events, handler{name: a.Name, fn: h})
		}
	}
	return static, staticKey, dyn, events, nil
}

// handler compiles an event binding. A call expression runs at event time
// with the event payload appended to its arguments; any other expression is
// resolved at event time and invoked if it is a function.
func (g *generator) handler(a *Node) (func(s *scope) any, error) {
	e, err := parseExpr(a.Value)
	if err != nil {
		return nil, g.errorAt("W005", a.Pos).Wrap(err).WithDetail(fmt.Sprintf("in %q", a.Value))
	}
	if ce, ok := e.(*syntax.CallExpr); ok {
		fn, args, err := compileCall(ce)
		if err != nil {
			return nil, g.errorAt("W005", a.Pos).Wrap(err)
		}
		return func(s *scope) any {
			return func(extra ...any) any {
				return call(fn(s), append(evalAll(args, s), extra...))
			}
		}, nil
	}
	fn, err := compileAST(e)
	if err != nil {
		return nil, g.errorAt("W005", a.Pos).Wrap(err)
	}
	return func(s *scope) any {
		return func(extra ...any) any {
			v := fn(s)
			if v != nil && reflect.TypeOf(v).Kind() == reflect.Func {
				return call(v, extra)
			}
			return v
		}
	}, nil
}

func (g *generator) element(n *Node) (builder, error) {
	static, staticKey, dyn, events, err := g.attributes(n)
	if err != nil {
		return nil, err
	}
	children, err := g.children(n)
	if err != nil {
		return nil, err
	}
	tag, flag, dynProps := n.Tag, n.PatchFlag, n.DynamicProps
	size := len(static) + len(dyn) + len(events)

	return func(s *scope, out []*vdom.VNode) []*vdom.VNode {
		v := &vdom.VNode{
			Kind:         vdom.KindElement,
			Tag:          tag,
			Key:          staticKey,
			Props:        make(vdom.Props, size),
			PatchFlag:    flag,
			DynamicProps: dynProps,
		}
		for k, val := range static {
			v.Props[k] = val
		}
		for _, d := range dyn {
			val := d.fn(s)
			if d.name == "key" {
				v.Key = keyOf(val)
				continue
			}
			v.Props[d.name] = val
		}
		for _, h := range events {
			v.Props[h.name] = h.fn(s)
		}
		for _, c := range children {
			v.Children = c(s, v.Children)
		}
		return append(out, v)
	}, nil
}

func (g *generator) component(n *Node) (builder, error) {
	static, staticKey, dyn, events, err := g.attributes(n)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(static)+len(dyn)+len(events))
	for k := range static {
		names = append(names, k)
	}
	for _, d := range dyn {
		if d.name != "key" {
			names = append(names, d.name)
		}
	}
	for _, h := range events {
		names = append(names, h.name)
	}
	sort.Strings(names)
	tag := n.Tag

	return func(s *scope, out []*vdom.VNode) []*vdom.VNode {
		def := s.component(tag)
		if def == nil {
			panic(werrors.New("W101").WithMessage("Unknown component <%s>", tag))
		}
		v := &vdom.VNode{
			Kind:         vdom.KindComponent,
			Tag:          tag,
			Comp:         def,
			Key:          staticKey,
			Props:        make(vdom.Props, len(names)),
			PatchFlag:    vdom.FlagProps,
			DynamicProps: names,
		}
		for k, val := range static {
			v.Props[k] = val
		}
		for _, d := range dyn {
			val := d.fn(s)
			if d.name == "key" {
				v.Key = keyOf(val)
				continue
			}
			v.Props[d.name] = val
		}
		for _, h := range events {
			v.Props[h.name] = h.fn(s)
		}
		return append(out, v)
	}, nil
}

// component resolves a capitalized tag against registered components and
// then the render context.
func (s *scope) component(tag string) vdom.Component {
	if c, ok := s.bind.components[tag]; ok {
		return c
	}
	if c, ok := s.ctx[tag].(vdom.Component); ok {
		return c
	}
	return nil
}

var forPattern = regexp.MustCompile(`^\s*(?:\(\s*([A-Za-z_]\w*)\s*(?:,\s*([A-Za-z_]\w*)\s*)?\)|([A-Za-z_]\w*)\s*(?:,\s*([A-Za-z_]\w*)\s*)?)\s+(?:in|of)\s+(.+)$`)

// loop wraps b in a v-for. Each iteration gets a scope with the item and,
// when named, the index bound.
func (g *generator) loop(d *Node, b builder) (builder, error) {
	m := forPattern.FindStringSubmatch(d.Value)
	if m == nil {
		return nil, g.errorAt("W004", d.Pos).WithMessage("Malformed v-for %q", d.Value)
	}
	item, index := m[1]+m[3], m[2]+m[4]
	src, err := compileExpr(m[5])
	if err != nil {
		return nil, g.errorAt("W005", d.Pos).Wrap(err).WithDetail(fmt.Sprintf("in %q", m[5]))
	}
	return func(s *scope, out []*vdom.VNode) []*vdom.VNode {
		each(src(s), func(v, i any) {
			inner := s.with(item, v)
			if index != "" {
				inner = inner.with(index, i)
			}
			out = b(inner, out)
		})
		return out
	}, nil
}

// each iterates a v-for source. Integers count from 1, objects and maps
// yield (value, key) in key order.
func each(src any, fn func(v, i any)) {
	switch t := src.(type) {
	case nil:
		return
	case *reactive.Array:
		for i, v := range t.Items() {
			fn(v, i)
		}
		return
	case *reactive.Object:
		for _, k := range t.Keys() {
			fn(t.Get(k), k)
		}
		return
	case []any:
		for i, v := range t {
			fn(v, i)
		}
		return
	case int:
		for i := 0; i < t; i++ {
			fn(i+1, i)
		}
		return
	}
	rv := reflect.Indirect(reflect.ValueOf(src))
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			fn(rv.Index(i).Interface(), i)
		}
	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		for _, k := range keys {
			fn(rv.MapIndex(k).Interface(), k.Interface())
		}
	}
}

// keyOf normalizes a :key value. Keys must be comparable; other values are
// keyed by their printed form.
func keyOf(v any) any {
	v = reactive.ToRaw(v)
	if v == nil {
		return nil
	}
	if reflect.TypeOf(v).Comparable() {
		return v
	}
	return fmt.Sprint(v)
}

// Display converts an interpolated value to text. nil renders as the empty
// string and containers render as JSON.
func Display(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case *reactive.Object, *reactive.Array:
		return toJSON(reactive.ToRaw(v))
	case *reactive.Ref:
		return Display(t.Peek())
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Struct:
		return toJSON(v)
	case reflect.Pointer:
		if s, ok := v.(fmt.Stringer); ok {
			return s.String()
		}
		return toJSON(v)
	}
	return vdom.PropToString(v)
}

func toJSON(v any) string {
	if p, ok := v.(*[]any); ok {
		v = *p
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSpace(string(data))
}
