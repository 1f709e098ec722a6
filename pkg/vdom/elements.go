package vdom

// voidElements are elements that cannot have children.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// IsVoidElement returns true if the tag is a void element.
func IsVoidElement(tag string) bool {
	return voidElements[tag]
}

// Attr is a single attribute argument for H.
type Attr struct {
	Key   string
	Value any
}

// Key sets the reconciliation key of the element being built.
func Key(key any) Attr {
	return Attr{Key: "key", Value: key}
}

// H creates an element VNode for hand-written render functions.
// Arguments can be: nil, Attr, Props, *VNode, []*VNode, string (text child).
func H(tag string, args ...any) *VNode {
	node := &VNode{
		Kind:  KindElement,
		Tag:   tag,
		Props: make(Props),
	}

	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			// Ignore nil (allows conditional arguments)
			continue
		case Attr:
			if v.Key == "key" {
				node.Key = v.Value
				continue
			}
			node.Props[v.Key] = v.Value
		case Props:
			for k, val := range v {
				if k == "key" {
					node.Key = val
					continue
				}
				node.Props[k] = val
			}
		case *VNode:
			if v != nil {
				node.Children = append(node.Children, v)
			}
		case []*VNode:
			node.Children = append(node.Children, v...)
		case string:
			node.Children = append(node.Children, Text(v))
		}
	}

	node.PatchFlag = flagsFor(node)
	return node
}

// Text creates a text VNode.
func Text(content string) *VNode {
	return &VNode{Kind: KindText, Text: content}
}

// Empty creates a placeholder VNode rendered as a comment.
func Empty() *VNode {
	return &VNode{Kind: KindEmpty, Text: "v-if"}
}

// If returns node when condition holds and a placeholder otherwise, keeping
// sibling positions stable.
func If(condition bool, node *VNode) *VNode {
	if condition {
		return node
	}
	return Empty()
}

// Range maps items to VNodes.
func Range[T any](items []T, fn func(item T, index int) *VNode) []*VNode {
	out := make([]*VNode, 0, len(items))
	for i, item := range items {
		out = append(out, fn(item, i))
	}
	return out
}

// Comp creates a component VNode.
func Comp(def Component, props Props) *VNode {
	node := &VNode{Kind: KindComponent, Tag: def.ComponentName(), Comp: def, Props: make(Props)}
	for k, v := range props {
		if k == "key" {
			node.Key = v
			continue
		}
		node.Props[k] = v
	}
	node.PatchFlag = FlagProps
	for k := range node.Props {
		node.DynamicProps = append(node.DynamicProps, k)
	}
	return node
}

// flagsFor marks every category present on a hand-built element as dynamic,
// since H has no compile-time knowledge of which bindings change.
func flagsFor(node *VNode) PatchFlag {
	var f PatchFlag
	for k := range node.Props {
		switch {
		case IsEventProp(k):
			f |= FlagEvent
		case k == "class":
			f |= FlagClass
		case k == "style":
			f |= FlagStyle
		default:
			f |= FlagProps
			node.DynamicProps = append(node.DynamicProps, k)
		}
	}
	if len(node.Children) > 0 {
		f |= FlagChildren
	}
	if f == 0 {
		// Hand-built nodes are never hoisted; children may still change.
		f = FlagChildren
	}
	return f
}

// Common elements for hand-written render functions.
func Div(args ...any) *VNode    { return H("div", args...) }
func Span(args ...any) *VNode   { return H("span", args...) }
func P(args ...any) *VNode      { return H("p", args...) }
func Ul(args ...any) *VNode     { return H("ul", args...) }
func Li(args ...any) *VNode     { return H("li", args...) }
func Button(args ...any) *VNode { return H("button", args...) }
func Input(args ...any) *VNode  { return H("input", args...) }
func Strong(args ...any) *VNode { return H("strong", args...) }
