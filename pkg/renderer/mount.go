package renderer

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	werrors "github.com/vango-dev/weave/internal/errors"
	"github.com/vango-dev/weave/pkg/dom"
	"github.com/vango-dev/weave/pkg/reactive"
	"github.com/vango-dev/weave/pkg/telemetry"
	"github.com/vango-dev/weave/pkg/vdom"
)

func (r *Renderer) mountInstance(inst *Instance, parent, anchor dom.Node) {
	inst.effect = r.sys.WatchEffect(func() reactive.Cleanup {
		if !inst.IsMounted {
			tree := inst.renderTree()
			r.hook(inst.Def.BeforeMount, inst)
			r.mount(tree, parent, anchor, inst)
			inst.Tree = tree
			inst.IsMounted = true
			r.hook(inst.Def.Mounted, inst)
			r.metrics.InstanceMounted()
			r.logger.Debug("mounted", "component", inst.Name(), "id", inst.ID)
			return nil
		}
		r.update(inst)
		return nil
	}, reactive.WithScheduler(r.schedule))
}

func (r *Renderer) update(inst *Instance) {
	start := time.Now()
	_, end := r.tracer.Start(context.Background(), "update",
		attribute.String("component", inst.Name()),
		attribute.String("instance", inst.ID))

	r.hook(inst.Def.BeforeUpdate, inst)
	next := inst.renderTree()
	r.patch(inst.Tree, next, inst)
	inst.Tree = next
	inst.syncEl()
	r.hook(inst.Def.Updated, inst)

	r.stats.Updates++
	end(nil)
	r.metrics.RecordUpdate(inst.Name(), time.Since(start))
	r.logger.Debug("updated",
		"component", inst.Name(),
		"id", inst.ID,
		"duration", time.Since(start))
}

// mount creates the host form of v, mounts its children and inserts it
// into parent before anchor.
func (r *Renderer) mount(v *vdom.VNode, parent, anchor dom.Node, owner *Instance) {
	switch v.Kind {
	case vdom.KindComponent:
		def, ok := v.Comp.(*Component)
		if !ok {
			panic(werrors.New("W102").WithDetail(v.Tag))
		}
		raw := make(map[string]any, len(v.Props))
		for k, val := range v.Props {
			raw[k] = val
		}
		child, err := r.CreateInstance(def, raw, owner)
		if err != nil {
			panic(err)
		}
		child.vnode = v
		v.Instance = child
		r.mountInstance(child, parent, anchor)
		v.El = child.Tree.El
		return

	case vdom.KindStatic:
		v.El = r.host.Clone(r.staticNode(v.Static))
	case vdom.KindText:
		v.El = r.host.CreateText(v.Text)
	case vdom.KindEmpty:
		v.El = r.host.CreateComment(v.Text)
	default:
		el := r.host.CreateElement(v.Tag)
		v.El = el
		for _, k := range sortedKeys(v.Props) {
			r.setProp(el, k, v.Props[k])
		}
		for _, c := range r.children(v) {
			r.mount(c, el, nil, owner)
		}
	}
	r.host.Insert(parent, v.El, anchor)
	r.stats.Mounts++
	r.metrics.RecordOps(telemetry.OpMount, 1)
}

// children resolves deferred children and records them on v.
func (r *Renderer) children(v *vdom.VNode) []*vdom.VNode {
	if v.ChildrenFn != nil {
		v.Children = v.ChildrenFn()
	}
	return v.Children
}

// setProp writes one prop to a host element. nil and false remove the
// attribute; true sets it empty.
func (r *Renderer) setProp(el dom.Node, key string, value any) {
	switch {
	case key == "key":
		return
	case vdom.IsEventProp(key):
		r.setListener(el, vdom.EventName(key), value)
		return
	case key == "class":
		value = vdom.ClassString(value)
	case key == "style":
		value = vdom.StyleString(value)
	}
	switch val := value.(type) {
	case nil:
		r.host.RemoveAttribute(el, key)
	case bool:
		if val {
			r.host.SetAttribute(el, key, "")
		} else {
			r.host.RemoveAttribute(el, key)
		}
	case string:
		if val == "" && (key == "class" || key == "style") {
			r.host.RemoveAttribute(el, key)
			return
		}
		r.host.SetAttribute(el, key, val)
	default:
		r.host.SetAttribute(el, key, vdom.PropToString(val))
	}
}

// invoker is the host listener bound once per element and event. Patches
// swap its handler without touching the host.
type invoker struct {
	handler any
}

func (r *Renderer) setListener(el dom.Node, event string, handler any) {
	byEvent := r.invokers[el]
	if handler == nil {
		if _, ok := byEvent[event]; ok {
			delete(byEvent, event)
			if len(byEvent) == 0 {
				delete(r.invokers, el)
			}
			r.host.SetListener(el, event, nil)
		}
		return
	}
	if inv, ok := byEvent[event]; ok {
		inv.handler = handler
		return
	}
	if byEvent == nil {
		byEvent = make(map[string]*invoker)
		r.invokers[el] = byEvent
	}
	inv := &invoker{handler: handler}
	byEvent[event] = inv
	r.host.SetListener(el, event, func(ev *dom.Event) {
		if _, err := vdom.Invoke(inv.handler, ev); err != nil {
			r.logger.Error("event handler failed",
				"event", event,
				"error", werrors.New("W103").Wrap(err))
		}
	})
}

// unmount tears down v. Only the outermost node is removed from the host.
func (r *Renderer) unmount(v *vdom.VNode, remove bool) {
	if v.Kind == vdom.KindComponent {
		if inst, ok := v.Instance.(*Instance); ok {
			r.unmountInstance(inst, remove)
		}
		return
	}
	for _, c := range v.Children {
		r.unmount(c, false)
	}
	if v.El != nil {
		delete(r.invokers, v.El)
	}
	if remove && v.El != nil {
		r.host.Remove(v.El)
		r.stats.Unmounts++
		r.metrics.RecordOps(telemetry.OpUnmount, 1)
	}
}

func (r *Renderer) unmountInstance(inst *Instance, remove bool) {
	r.hook(inst.Def.BeforeUnmount, inst)
	if inst.Tree != nil {
		r.unmount(inst.Tree, false)
	}
	r.hook(inst.Def.Unmounted, inst)
	if inst.effect != nil {
		inst.effect.Stop()
	}
	if inst.IsMounted {
		r.metrics.InstanceUnmounted()
	}
	inst.IsMounted = false
	inst.detach()
	r.logger.Debug("unmounted", "component", inst.Name(), "id", inst.ID)

	if remove && inst.Tree != nil && inst.Tree.El != nil {
		r.host.Remove(inst.Tree.El)
		r.stats.Unmounts++
		r.metrics.RecordOps(telemetry.OpUnmount, 1)
	}
}
