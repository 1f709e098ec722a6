package compiler

import (
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/vango-dev/weave/pkg/vdom"
)

// Compilation is the output of Transform. All per-compilation state lives
// here so independent templates can be compiled concurrently.
type Compilation struct {
	// Root is the template's NodeRoot.
	Root *Node

	// Hoisted lists the unique static subtrees in discovery order.
	Hoisted []*Hoist

	// Containers lists static elements with dynamic children, outermost
	// first, in discovery order.
	Containers []*Node
}

// Hoist is one unique static subtree.
type Hoist struct {
	Markup string
	Hash   uint64
	Tag    string

	// Nodes are every AST node serialized to Markup.
	Nodes []*Node
}

// Transform annotates the AST with patch flags and hoisting classes.
func Transform(root *Node) *Compilation {
	markFlags(root)
	c := &Compilation{Root: root}
	h := &hoister{c: c, byHash: make(map[uint64][]int)}
	for _, child := range root.Children {
		h.classify(child, 0)
	}
	return c
}

// markFlags computes patch flags bottom-up. A node whose flags stay zero is
// Hoisted.
func markFlags(n *Node) {
	for _, c := range n.Children {
		markFlags(c)
	}

	switch n.Type {
	case NodeText:
		n.PatchFlag = vdom.Hoisted
		return
	case NodeInterpolation:
		n.PatchFlag = vdom.FlagText
		return
	case NodeElement:
	default:
		return
	}

	var f vdom.PatchFlag
	for _, a := range n.Attrs {
		switch a.Type {
		case NodeEvent:
			f |= vdom.FlagEvent
		case NodeDirective:
			f |= vdom.FlagDirective
		case NodeAttribute:
			if !a.Dynamic {
				continue
			}
			switch a.Name {
			case "class":
				f |= vdom.FlagClass
			case "style":
				f |= vdom.FlagStyle
			case "key":
				f |= vdom.FlagProps
			default:
				f |= vdom.FlagProps
				n.DynamicProps = append(n.DynamicProps, a.Name)
			}
		}
	}
	if n.IsComponent() {
		f |= vdom.FlagProps
	}
	for _, c := range n.Children {
		switch {
		case c.Type == NodeInterpolation:
			f |= vdom.FlagText
		case c.Type == NodeElement && c.PatchFlag != vdom.Hoisted:
			f |= vdom.FlagChildren
		}
	}
	if f == 0 {
		f = vdom.Hoisted
	}
	n.PatchFlag = f
}

type hoister struct {
	c      *Compilation
	byHash map[uint64][]int
}

// classify walks the tree carrying the number of enclosing v-for scopes.
// Maximal static subtrees become hoists. Elements whose only dynamic part is
// their children become containers unless they sit inside a v-for, where a
// shared node would be bound to several places at once.
func (h *hoister) classify(n *Node, forDepth int) {
	if n.Type != NodeElement {
		return
	}
	switch {
	case n.PatchFlag == vdom.Hoisted:
		n.Class = ClassHoisted
		n.HoistIndex = h.hoist(n)
		return
	case n.PatchFlag == vdom.FlagChildren && forDepth == 0 && !n.IsComponent():
		n.Class = ClassContainer
		h.c.Containers = append(h.c.Containers, n)
	default:
		n.Class = ClassDynamic
	}
	if n.Directive("for") != nil {
		forDepth++
	}
	for _, c := range n.Children {
		h.classify(c, forDepth)
	}
}

func (h *hoister) hoist(n *Node) int {
	markup := Serialize(n)
	sum := xxhash.Sum64String(markup)
	for _, idx := range h.byHash[sum] {
		if existing := h.c.Hoisted[idx]; existing.Markup == markup {
			existing.Nodes = append(existing.Nodes, n)
			return idx
		}
	}
	idx := len(h.c.Hoisted)
	h.c.Hoisted = append(h.c.Hoisted, &Hoist{Markup: markup, Hash: sum, Tag: n.Tag, Nodes: []*Node{n}})
	h.byHash[sum] = append(h.byHash[sum], idx)
	return idx
}

// Serialize renders a static subtree as HTML markup.
func Serialize(n *Node) string {
	var b strings.Builder
	serialize(&b, n)
	return b.String()
}

func serialize(b *strings.Builder, n *Node) {
	switch n.Type {
	case NodeText:
		b.WriteString(escapeText(n.Value))
		return
	case NodeElement:
	default:
		return
	}
	b.WriteByte('<')
	b.WriteString(n.Tag)
	for _, a := range n.Attrs {
		if a.Type != NodeAttribute || a.Dynamic || a.Name == "key" {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(a.Name)
		b.WriteString(`="`)
		b.WriteString(escapeAttr(a.Value))
		b.WriteByte('"')
	}
	b.WriteByte('>')
	if isVoid(n.Tag) {
		return
	}
	for _, c := range n.Children {
		serialize(b, c)
	}
	b.WriteString("</")
	b.WriteString(n.Tag)
	b.WriteByte('>')
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", `"`, "&quot;")
)

func escapeText(s string) string { return textEscaper.Replace(s) }
func escapeAttr(s string) string { return attrEscaper.Replace(s) }
