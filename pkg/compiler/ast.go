package compiler

import (
	"strings"

	"github.com/vango-dev/weave/pkg/vdom"
)

// NodeType discriminates AST nodes.
type NodeType uint8

const (
	NodeRoot NodeType = iota
	NodeElement
	NodeText
	NodeInterpolation
	NodeDirective
	NodeAttribute
	NodeEvent
)

// String returns the string representation of the NodeType.
func (t NodeType) String() string {
	switch t {
	case NodeRoot:
		return "Root"
	case NodeElement:
		return "Element"
	case NodeText:
		return "Text"
	case NodeInterpolation:
		return "Interpolation"
	case NodeDirective:
		return "Directive"
	case NodeAttribute:
		return "Attribute"
	case NodeEvent:
		return "Event"
	default:
		return "Unknown"
	}
}

// Class is the result of the hoisting pass.
type Class uint8

const (
	ClassDynamic   Class = iota // Rebuilt on every render
	ClassHoisted                // Static subtree, built once per program
	ClassContainer              // Static element with dynamic children, built once per instance
)

// String returns the string representation of the Class.
func (c Class) String() string {
	switch c {
	case ClassHoisted:
		return "hoisted"
	case ClassContainer:
		return "container"
	default:
		return "dynamic"
	}
}

// Position is a location in the template source. Line and Column are 1-based.
type Position struct {
	Offset int
	Line   int
	Column int
}

// Node is a template AST node.
//
// Elements keep their attributes, directives and events in source order in
// Attrs. Attribute-like nodes use Name and Value; text and interpolation nodes
// use Value for the text or expression source.
type Node struct {
	Type     NodeType
	Tag      string
	Attrs    []*Node
	Children []*Node
	Parent   *Node

	Name  string
	Value string

	// Dynamic marks ":name" attributes.
	Dynamic bool

	// Boolean marks attributes written without a value.
	Boolean bool

	SelfClosing bool
	Pos         Position

	// Set by Transform.
	PatchFlag    vdom.PatchFlag
	DynamicProps []string
	Class        Class
	HoistIndex   int
}

// Attr returns the first attribute-like node with the given type and name.
func (n *Node) Attr(typ NodeType, name string) *Node {
	for _, a := range n.Attrs {
		if a.Type == typ && a.Name == name {
			return a
		}
	}
	return nil
}

// Directive returns the directive node named name, or nil.
func (n *Node) Directive(name string) *Node {
	return n.Attr(NodeDirective, name)
}

// IsComponent reports whether the tag names a component (capitalized).
func (n *Node) IsComponent() bool {
	return n.Type == NodeElement && n.Tag != "" && n.Tag[0] >= 'A' && n.Tag[0] <= 'Z'
}

// Elements returns the element children of n.
func (n *Node) Elements() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Type == NodeElement {
			out = append(out, c)
		}
	}
	return out
}

func (n *Node) appendChild(c *Node) {
	c.Parent = n
	n.Children = append(n.Children, c)
}

// Walk visits n and its descendants depth first.
func Walk(n *Node, fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// isVoid reports whether tag never has children.
func isVoid(tag string) bool {
	return vdom.IsVoidElement(strings.ToLower(tag))
}
