package renderer

import (
	"sort"

	"github.com/vango-dev/weave/pkg/dom"
	"github.com/vango-dev/weave/pkg/telemetry"
	"github.com/vango-dev/weave/pkg/vdom"
)

// patch brings the host form of old in line with next. Identical nodes are
// skipped unless they are containers, whose children are re-resolved.
func (r *Renderer) patch(old, next *vdom.VNode, owner *Instance) {
	if old == next {
		if next.ChildrenFn != nil {
			prev := old.Children
			kids := next.ChildrenFn()
			r.diffChildren(old.El, prev, kids, owner)
			next.Children = kids
		}
		return
	}
	if !vdom.IsSameNode(old, next) {
		r.replace(old, next, owner)
		return
	}

	next.El = old.El
	switch next.Kind {
	case vdom.KindText:
		if old.Text != next.Text {
			r.host.SetText(next.El, next.Text)
			r.patched()
		}
	case vdom.KindComponent:
		r.patchComponent(old, next)
	case vdom.KindElement:
		r.patchElement(old, next, owner)
	}
}

// replace mounts next where old was and unmounts old.
func (r *Renderer) replace(old, next *vdom.VNode, owner *Instance) {
	parent := r.host.Parent(old.El)
	anchor := r.host.NextSibling(old.El)
	r.unmount(old, true)
	r.mount(next, parent, anchor, owner)
}

func (r *Renderer) patchElement(old, next *vdom.VNode, owner *Instance) {
	el := next.El
	flag := next.PatchFlag

	if flag <= 0 {
		r.patchAllProps(el, old.Props, next.Props)
	} else {
		if flag.Has(vdom.FlagClass) {
			r.patchProp(el, "class", old.Props, next.Props)
		}
		if flag.Has(vdom.FlagStyle) {
			r.patchProp(el, "style", old.Props, next.Props)
		}
		if flag.Has(vdom.FlagProps) {
			for _, k := range next.DynamicProps {
				r.patchProp(el, k, old.Props, next.Props)
			}
		}
		if flag.Has(vdom.FlagEvent) {
			r.patchEvents(el, old.Props, next.Props)
		}
	}

	prev := old.Children
	kids := r.children(next)
	if flag <= 0 || flag.Has(vdom.FlagChildren) || len(prev) != len(kids) {
		r.diffChildren(el, prev, kids, owner)
		return
	}
	for i := range kids {
		r.patch(prev[i], kids[i], owner)
	}
}

func (r *Renderer) patchProp(el dom.Node, key string, old, next vdom.Props) {
	ov, nv := old[key], next[key]
	if vdom.PropsEqual(ov, nv) {
		return
	}
	r.setProp(el, key, nv)
	r.patched()
}

// patchEvents points the listeners at next's handlers and removes the ones
// next no longer has.
func (r *Renderer) patchEvents(el dom.Node, old, next vdom.Props) {
	for _, k := range sortedKeys(next) {
		if vdom.IsEventProp(k) {
			r.setListener(el, vdom.EventName(k), next[k])
		}
	}
	for _, k := range sortedKeys(old) {
		if _, ok := next[k]; !ok && vdom.IsEventProp(k) {
			r.setListener(el, vdom.EventName(k), nil)
		}
	}
}

func (r *Renderer) patchAllProps(el dom.Node, old, next vdom.Props) {
	r.patchEvents(el, old, next)
	for _, k := range sortedKeys(next) {
		if !vdom.IsEventProp(k) {
			r.patchProp(el, k, old, next)
		}
	}
	for _, k := range sortedKeys(old) {
		if _, ok := next[k]; !ok && !vdom.IsEventProp(k) {
			r.setProp(el, k, nil)
			r.patched()
		}
	}
}

// patchComponent writes changed props into the child's observable props,
// which schedules the child's own update. Event handlers are stored raw.
func (r *Renderer) patchComponent(old, next *vdom.VNode) {
	inst, ok := old.Instance.(*Instance)
	if !ok {
		return
	}
	next.Instance = inst
	inst.vnode = next

	for _, k := range sortedKeys(next.Props) {
		v := next.Props[k]
		if vdom.IsEventProp(k) {
			inst.RawProps[k] = v
			continue
		}
		inst.Props.Set(k, v)
	}
	for _, k := range sortedKeys(old.Props) {
		if _, ok := next.Props[k]; ok {
			continue
		}
		if vdom.IsEventProp(k) {
			delete(inst.RawProps, k)
			continue
		}
		inst.Props.Delete(k)
	}
}

func (r *Renderer) patched() {
	r.stats.Patches++
	r.metrics.RecordOps(telemetry.OpPatch, 1)
}

func sortedKeys(m vdom.Props) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
