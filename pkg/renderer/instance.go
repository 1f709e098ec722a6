package renderer

import (
	"fmt"
	"sync/atomic"

	werrors "github.com/vango-dev/weave/internal/errors"
	"github.com/vango-dev/weave/pkg/compiler"
	"github.com/vango-dev/weave/pkg/reactive"
	"github.com/vango-dev/weave/pkg/vdom"
)

// Instance is a created component. It owns its reactive props, the render
// context returned by setup and the tree of its last render.
type Instance struct {
	// ID is the unique instance identifier.
	ID string

	// Def is the component definition.
	Def *Component

	// Parent is the parent instance (nil for the root).
	Parent *Instance

	// Children are the mounted child instances in creation order.
	Children []*Instance

	// Props is the observable view of RawProps.
	Props    *reactive.Object
	RawProps map[string]any

	// Context is the render context: the setup result plus "props".
	Context map[string]any

	// Tree is the last rendered tree.
	Tree *vdom.VNode

	IsMounted bool

	r      *Renderer
	render func() *vdom.VNode
	effect *reactive.Effect

	// vnode is the component node this instance is bound to in its parent.
	vnode *vdom.VNode
}

// instanceIDCounter is used to generate unique instance IDs.
var instanceIDCounter atomic.Uint64

func generateInstanceID() string {
	return fmt.Sprintf("c%d", instanceIDCounter.Add(1))
}

// Name returns the component name.
func (inst *Instance) Name() string {
	return inst.Def.ComponentName()
}

// Effect returns the render effect, nil before mount.
func (inst *Instance) Effect() *reactive.Effect {
	return inst.effect
}

// Update re-renders the instance synchronously.
func (inst *Instance) Update() {
	if inst.effect != nil {
		inst.effect.Run()
	}
}

// CreateInstance runs BeforeCreate, prepares the render function, runs setup
// and then Created. props is used as the raw props map.
func (r *Renderer) CreateInstance(def *Component, props map[string]any, parent *Instance) (*Instance, error) {
	if props == nil {
		props = make(map[string]any)
	}
	inst := &Instance{
		ID:       generateInstanceID(),
		Def:      def,
		Parent:   parent,
		RawProps: props,
		r:        r,
	}
	r.hook(def.BeforeCreate, inst)

	var prog *compiler.Program
	if def.Render == nil {
		if def.Template == "" {
			return nil, werrors.New("W102").WithDetail(def.ComponentName())
		}
		p, err := r.program(def)
		if err != nil {
			return nil, err
		}
		prog = p
	}

	inst.Props = r.sys.Object(props)
	ctx := map[string]any{}
	if def.Setup != nil {
		r.sys.Untracked(func() {
			if out := def.Setup(inst.Props, &SetupContext{inst: inst}); out != nil {
				ctx = out
			}
		})
	}
	if _, ok := ctx["props"]; !ok {
		ctx["props"] = inst.Props
	}
	inst.Context = ctx

	if prog != nil {
		var comps map[string]vdom.Component
		if len(def.Components) > 0 {
			comps = make(map[string]vdom.Component, len(def.Components))
			for name, c := range def.Components {
				comps[name] = c
			}
		}
		inst.render = prog.Bind(compiler.Env{Context: ctx, Props: inst.Props, Components: comps})
	} else {
		inst.render = func() *vdom.VNode { return def.Render(inst) }
	}

	r.hook(def.Created, inst)
	if parent != nil {
		parent.Children = append(parent.Children, inst)
	}
	return inst, nil
}

func (inst *Instance) renderTree() *vdom.VNode {
	if tree := inst.render(); tree != nil {
		return tree
	}
	return vdom.Empty()
}

func (inst *Instance) detach() {
	p := inst.Parent
	if p == nil {
		return
	}
	for i, c := range p.Children {
		if c == inst {
			p.Children = append(p.Children[:i], p.Children[i+1:]...)
			return
		}
	}
}

// syncEl propagates the root host node of inst to the component nodes that
// render it, walking up while each instance is its parent's root.
func (inst *Instance) syncEl() {
	el := inst.Tree.El
	for i := inst; i.vnode != nil; i = i.Parent {
		i.vnode.El = el
		if i.Parent == nil || i.Parent.Tree != i.vnode {
			return
		}
	}
}
