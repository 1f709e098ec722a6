// Package vdom provides the virtual DOM node model shared by the template
// compiler and the renderer.
//
// # Core Types
//
// VNode is the fundamental building block representing elements, text,
// hoisted static subtrees, v-if placeholders and components. Props holds
// attributes, event handlers and component props. PatchFlag records which
// categories of bindings on a compiled node are dynamic so the renderer can
// skip everything else.
//
// # Hoisting
//
// A KindStatic node points at a shared Static descriptor holding serialized
// markup. The renderer parses that markup once per host and clones the
// result on every later mount.
//
// # Element API
//
// Components that render by hand use H and the element helpers:
//
//	Ul(Props{"class": "todo"},
//	    Range(items, func(it Item, i int) *VNode {
//	        return Li(Key(it.ID), it.Title)
//	    }),
//	)
//
// # Reconciliation
//
// IsSameNode decides whether two nodes can be patched in place and FindLIS
// computes the children that keep their order during a keyed reorder.
package vdom
