package vdom

import "github.com/vango-dev/weave/pkg/dom"

// Kind is the node type discriminator.
type Kind uint8

const (
	KindElement   Kind = iota // <div>, <button>, etc.
	KindText                  // Plain text node
	KindStatic                // Hoisted static subtree
	KindEmpty                 // Placeholder for a false v-if
	KindComponent             // Nested component
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindStatic:
		return "Static"
	case KindEmpty:
		return "Empty"
	case KindComponent:
		return "Component"
	default:
		return "Unknown"
	}
}

// VNode is the virtual DOM node.
type VNode struct {
	Kind Kind   // Node type
	Tag  string // Element tag name (e.g., "div")

	// Comp is the definition for KindComponent nodes.
	Comp Component

	// Props holds attributes, event handlers ("on*") and component props.
	Props Props

	// Children is the eager child list. For nodes with ChildrenFn it holds the
	// list produced by the last mount or patch.
	Children []*VNode

	// ChildrenFn produces the children lazily at mount or patch time.
	ChildrenFn func() []*VNode

	// Text is the content of KindText and KindEmpty nodes.
	Text string

	// Key identifies the node among its siblings. nil means unkeyed.
	Key any

	// Static is the shared descriptor of a KindStatic node.
	Static *Static

	// PatchFlag and DynamicProps come from the compiler and gate patching.
	PatchFlag    PatchFlag
	DynamicProps []string

	// El is the bound host node once mounted.
	El dom.Node

	// Instance is the child component instance of a KindComponent node.
	Instance any
}

// Props holds attributes and event handlers.
type Props map[string]any

// HasKey reports whether the node carries a key.
func (v *VNode) HasKey() bool {
	return v != nil && v.Key != nil
}

// Component is a component definition that can be referenced from a VNode.
type Component interface {
	ComponentName() string
}

// Static describes a hoisted subtree. One Static is shared by every render of
// every instance of a compiled template.
type Static struct {
	// Markup is the serialized subtree.
	Markup string

	// Hash identifies Markup.
	Hash uint64

	// Tag is the root tag of the subtree.
	Tag string
}

// IsSameNode reports whether b can be patched in place of a.
//
// When either node is keyed, the keys must be equal. Beyond that both nodes
// must have the same kind and tag; static nodes must share a descriptor and
// component nodes a definition.
func IsSameNode(a, b *VNode) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.HasKey() || b.HasKey() {
		if !a.HasKey() || !b.HasKey() || a.Key != b.Key {
			return false
		}
	}
	if a.Kind != b.Kind || a.Tag != b.Tag {
		return false
	}
	switch a.Kind {
	case KindStatic:
		return a.Static == b.Static
	case KindComponent:
		return a.Comp == b.Comp
	}
	return true
}
