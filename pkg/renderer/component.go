package renderer

import (
	"strings"

	werrors "github.com/vango-dev/weave/internal/errors"
	"github.com/vango-dev/weave/pkg/reactive"
	"github.com/vango-dev/weave/pkg/vdom"
)

// Hook is a lifecycle hook. Hooks run untracked.
type Hook func(*Instance)

// SetupFunc builds the render context of an instance from its props.
type SetupFunc func(props *reactive.Object, ctx *SetupContext) map[string]any

// Component is a component definition. It renders either a Template, compiled
// once per definition, or a hand-written Render function.
type Component struct {
	Name     string
	Template string
	Render   func(*Instance) *vdom.VNode
	Setup    SetupFunc

	// Components registers child components by tag name. Capitalized tags
	// not found here are looked up in the render context.
	Components map[string]*Component

	BeforeCreate  Hook
	Created       Hook
	BeforeMount   Hook
	Mounted       Hook
	BeforeUpdate  Hook
	Updated       Hook
	BeforeUnmount Hook
	Unmounted     Hook
}

// ComponentName returns the definition name.
func (c *Component) ComponentName() string {
	if c.Name == "" {
		return "Anonymous"
	}
	return c.Name
}

// SetupContext is passed to Setup.
type SetupContext struct {
	inst *Instance
}

// Instance returns the instance being set up.
func (c *SetupContext) Instance() *Instance {
	return c.inst
}

// System returns the reactive system of the renderer.
func (c *SetupContext) System() *reactive.System {
	return c.inst.r.sys
}

// Emit calls the "on<event>" handler the parent passed as a prop. A missing
// handler is not an error.
func (c *SetupContext) Emit(event string, args ...any) error {
	handler := c.inst.RawProps["on"+strings.ToLower(event)]
	if handler == nil {
		return nil
	}
	if _, err := vdom.Invoke(handler, args...); err != nil {
		werr := werrors.New("W103").Wrap(err).WithDetail("emit " + event + " from " + c.inst.Name())
		c.inst.r.logger.Error("emit failed", "component", c.inst.Name(), "event", event, "error", werr)
		return werr
	}
	return nil
}
