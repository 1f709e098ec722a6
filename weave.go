// Package weave is a reactive UI engine: fine-grained reactivity, a template
// compiler with static hoisting and patch flags, a keyed virtual DOM renderer
// and a microtask scheduler that batches updates.
//
// This is the recommended import for most applications:
//
//	import "github.com/vango-dev/weave"
//
// Usage:
//
//	counter := &weave.Component{
//	    Name:     "Counter",
//	    Template: `<button @click="inc">{{ count }}</button>`,
//	    Setup: func(props *weave.Object, ctx *weave.SetupContext) map[string]any {
//	        count := ctx.System().Ref(0)
//	        return map[string]any{
//	            "count": count,
//	            "inc":   func() { count.Set(count.Peek().(int) + 1) },
//	        }
//	    },
//	}
//	app, _ := weave.CreateApp(counter)
//	_ = app.Mount(app.Document().Body())
package weave

import (
	"github.com/vango-dev/weave/pkg/compiler"
	"github.com/vango-dev/weave/pkg/reactive"
	"github.com/vango-dev/weave/pkg/renderer"
	"github.com/vango-dev/weave/pkg/vdom"
)

// =============================================================================
// Components (re-export from pkg/renderer)
// =============================================================================

// Component is a component definition.
type Component = renderer.Component

// Instance is a live component.
type Instance = renderer.Instance

// SetupContext is passed to a component's Setup.
type SetupContext = renderer.SetupContext

// Hook is a lifecycle hook.
type Hook = renderer.Hook

// =============================================================================
// Reactive primitives (re-export from pkg/reactive)
// =============================================================================

// System owns the dependency graph and the active effect stack.
type System = reactive.System

// Object is a reactive map.
type Object = reactive.Object

// Array is a reactive list.
type Array = reactive.Array

// Ref is a reactive single value.
type Ref = reactive.Ref

// Effect is a tracked function.
type Effect = reactive.Effect

// ToRaw unwraps reactive wrappers.
var ToRaw = reactive.ToRaw

// =============================================================================
// Virtual DOM (re-export from pkg/vdom)
// =============================================================================

// VNode is a virtual DOM node.
type VNode = vdom.VNode

// Props are the props of a VNode.
type Props = vdom.Props

// Attr is an attribute argument to H.
type Attr = vdom.Attr

// H creates an element VNode.
var H = vdom.H

// Text creates a text VNode.
var Text = vdom.Text

// Key sets a VNode's reconciliation key.
var Key = vdom.Key

// If returns node when condition holds and a placeholder otherwise.
var If = vdom.If

// =============================================================================
// Templates (re-export from pkg/compiler)
// =============================================================================

// Program is a compiled template.
type Program = compiler.Program

// Compile compiles a template.
var Compile = compiler.Compile
