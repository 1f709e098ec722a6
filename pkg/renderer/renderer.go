package renderer

import (
	"io"
	"log/slog"

	"github.com/vango-dev/weave/pkg/compiler"
	"github.com/vango-dev/weave/pkg/dom"
	"github.com/vango-dev/weave/pkg/reactive"
	"github.com/vango-dev/weave/pkg/telemetry"
	"github.com/vango-dev/weave/pkg/vdom"
)

// Stats counts renderer work since creation.
type Stats struct {
	Mounts       int // Nodes mounted
	Unmounts     int // Host nodes removed
	Moves        int // Host nodes moved by keyed reconciliation
	Patches      int // Host writes to existing nodes
	Updates      int // Component updates
	StaticParses int // Static subtrees parsed
}

// Renderer mounts and patches component trees into a host. It is not safe
// for concurrent use.
type Renderer struct {
	host  dom.Host
	sys   *reactive.System
	queue func(*reactive.Effect)

	logger  *slog.Logger
	metrics *telemetry.Metrics
	tracer  *telemetry.Tracer

	programs map[*Component]*compiler.Program
	statics  map[*vdom.Static]dom.Node
	invokers map[dom.Node]map[string]*invoker
	stats    Stats
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithSystem sets the reactive system (default: a new one).
func WithSystem(sys *reactive.System) Option {
	return func(r *Renderer) {
		r.sys = sys
	}
}

// WithQueue sets where triggered render effects go. Without a queue they
// re-run synchronously.
func WithQueue(queue func(*reactive.Effect)) Option {
	return func(r *Renderer) {
		r.queue = queue
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		r.logger = logger
	}
}

// WithMetrics sets the collectors.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(r *Renderer) {
		r.metrics = m
	}
}

// WithTracer sets the tracer used for component updates.
func WithTracer(t *telemetry.Tracer) Option {
	return func(r *Renderer) {
		r.tracer = t
	}
}

// New creates a renderer writing to host.
func New(host dom.Host, opts ...Option) *Renderer {
	r := &Renderer{
		host:     host,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		programs: make(map[*Component]*compiler.Program),
		statics:  make(map[*vdom.Static]dom.Node),
		invokers: make(map[dom.Node]map[string]*invoker),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.sys == nil {
		r.sys = reactive.NewSystem()
	}
	return r
}

// System returns the reactive system.
func (r *Renderer) System() *reactive.System {
	return r.sys
}

// Host returns the host the renderer writes to.
func (r *Renderer) Host() dom.Host {
	return r.host
}

// Stats returns a copy of the counters.
func (r *Renderer) Stats() Stats {
	return r.stats
}

// Mount renders inst inside a render effect and inserts its tree into parent
// before anchor (nil appends). Later changes to anything the render read
// schedule the effect.
func (r *Renderer) Mount(inst *Instance, parent, anchor dom.Node) {
	r.mountInstance(inst, parent, anchor)
}

// Update re-renders inst synchronously.
func (r *Renderer) Update(inst *Instance) {
	inst.Update()
}

// Unmount runs the unmount hooks of inst and its descendants, stops their
// effects and removes the tree from the host.
func (r *Renderer) Unmount(inst *Instance) {
	r.unmountInstance(inst, true)
}

func (r *Renderer) hook(h Hook, inst *Instance) {
	if h == nil {
		return
	}
	r.sys.Untracked(func() { h(inst) })
}

func (r *Renderer) schedule(e *reactive.Effect) {
	if r.queue != nil {
		r.queue(e)
		return
	}
	e.Run()
}

// program compiles def.Template once per definition.
func (r *Renderer) program(def *Component) (*compiler.Program, error) {
	if p, ok := r.programs[def]; ok {
		return p, nil
	}
	p, err := compiler.CompileFile(def.ComponentName(), def.Template)
	if err != nil {
		return nil, err
	}
	r.programs[def] = p
	r.logger.Debug("compiled template",
		"component", def.ComponentName(),
		"statics", len(p.Statics))
	return p, nil
}

// staticNode returns the parsed host form of s, parsing it on first use.
func (r *Renderer) staticNode(s *vdom.Static) dom.Node {
	if n, ok := r.statics[s]; ok {
		return n
	}
	n, err := r.host.ParseStatic(s.Markup)
	if err != nil {
		panic(err)
	}
	r.statics[s] = n
	r.stats.StaticParses++
	return n
}
