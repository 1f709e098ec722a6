package weave

import (
	"context"
	"io"
	"log/slog"

	werrors "github.com/vango-dev/weave/internal/errors"
	"github.com/vango-dev/weave/pkg/dom"
	"github.com/vango-dev/weave/pkg/reactive"
	"github.com/vango-dev/weave/pkg/renderer"
	"github.com/vango-dev/weave/pkg/scheduler"
	"github.com/vango-dev/weave/pkg/telemetry"
)

// App ties a root component to a host, a renderer and a scheduler.
//
// Create an App with CreateApp and mount it into a host node:
//
//	app, err := weave.CreateApp(&weave.Component{
//	    Template: `<p>{{ state.count }}</p>`,
//	    Setup: func(props *weave.Object, ctx *weave.SetupContext) map[string]any {
//	        return map[string]any{"state": ctx.System().Object(map[string]any{"count": 0})}
//	    },
//	})
//	doc := app.Document()
//	err = app.Mount(doc.Body())
//	app.Flush()
//
// An App is single-threaded: reactive writes, flushes and host access happen
// on the goroutine running the loop. Other goroutines hand work over with
// Post.
type App struct {
	root     *renderer.Instance
	renderer *renderer.Renderer
	sched    *scheduler.Scheduler
	loop     *scheduler.Loop
	host     dom.Host

	target  dom.Node
	mounted bool

	logger *slog.Logger
}

// Option configures an App.
type Option func(*options)

type options struct {
	host    dom.Host
	loop    *scheduler.Loop
	props   map[string]any
	logger  *slog.Logger
	metrics *telemetry.Metrics
	tracer  *telemetry.Tracer
}

// WithHost sets the host the app renders into (default: a new dom.Document).
func WithHost(h dom.Host) Option {
	return func(o *options) {
		o.host = h
	}
}

// WithLoop sets the event loop flushes are scheduled on (default: a new
// loop driven by Flush or Run).
func WithLoop(l *scheduler.Loop) Option {
	return func(o *options) {
		o.loop = l
	}
}

// WithProps sets the root component's props.
func WithProps(props map[string]any) Option {
	return func(o *options) {
		o.props = props
	}
}

// WithLogger sets the logger shared by the renderer, scheduler and loop.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics sets the collectors for flushes and component updates.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithTracer sets the tracer for flushes and component updates.
func WithTracer(t *telemetry.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

// CreateApp creates the root instance of def. BeforeCreate, setup and
// Created run before CreateApp returns; nothing is rendered until Mount.
func CreateApp(def *Component, opts ...Option) (*App, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.host == nil {
		o.host = dom.NewDocument()
	}
	if o.loop == nil {
		o.loop = scheduler.NewLoop(scheduler.WithLoopLogger(o.logger))
	}

	sched := scheduler.New(o.loop,
		scheduler.WithLogger(o.logger),
		scheduler.WithMetrics(o.metrics),
		scheduler.WithTracer(o.tracer))
	r := renderer.New(o.host,
		renderer.WithQueue(func(e *reactive.Effect) { sched.QueueJob(e) }),
		renderer.WithLogger(o.logger),
		renderer.WithMetrics(o.metrics),
		renderer.WithTracer(o.tracer))

	root, err := r.CreateInstance(def, o.props, nil)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("app created", "component", root.Name(), "instance", root.ID)

	return &App{
		root:     root,
		renderer: r,
		sched:    sched,
		loop:     o.loop,
		host:     o.host,
		logger:   o.logger,
	}, nil
}

// Mount renders the root component and appends it to target. The initial
// render is synchronous.
func (a *App) Mount(target dom.Node) error {
	if target == nil {
		return werrors.New("W100").WithDetail(a.root.Name())
	}
	if a.mounted {
		return werrors.New("W104").WithDetail(a.root.Name())
	}
	a.renderer.Mount(a.root, target, nil)
	a.target = target
	a.mounted = true
	a.logger.Info("app mounted", "component", a.root.Name())
	return nil
}

// Unmount tears the root component down and removes it from the target.
// It is a no-op when the app is not mounted.
func (a *App) Unmount() {
	if !a.mounted {
		return
	}
	a.renderer.Unmount(a.root)
	a.mounted = false
	a.logger.Info("app unmounted", "component", a.root.Name())
}

// NextTick runs cb after every update queued so far has been committed to
// the host. The returned Tick closes Done at the same point.
func (a *App) NextTick(cb func()) *scheduler.Tick {
	return a.sched.NextTick(cb)
}

// Post queues fn to run on the loop goroutine. It is safe to call from any
// goroutine.
func (a *App) Post(fn func()) bool {
	return a.loop.Post(fn)
}

// Flush runs every pending task, microtask and update on the calling
// goroutine.
func (a *App) Flush() {
	a.loop.Flush()
}

// Run drives the loop until ctx is done or the loop is closed.
func (a *App) Run(ctx context.Context) error {
	a.logger.Debug("loop started", "component", a.root.Name())
	return a.loop.Run(ctx)
}

// OnFlush registers fn to run after every completed flush.
func (a *App) OnFlush(fn func(jobs, callbacks int)) {
	a.sched.OnFlush(fn)
}

// Root returns the root component instance.
func (a *App) Root() *Instance {
	return a.root
}

// Target returns the node the app is mounted into, or nil.
func (a *App) Target() dom.Node {
	if !a.mounted {
		return nil
	}
	return a.target
}

// Mounted reports whether the app is mounted.
func (a *App) Mounted() bool {
	return a.mounted
}

// Host returns the host the app renders into.
func (a *App) Host() dom.Host {
	return a.host
}

// Document returns the host as a *dom.Document, or nil for other hosts.
func (a *App) Document() *dom.Document {
	d, _ := a.host.(*dom.Document)
	return d
}

// System returns the reactive system of the app.
func (a *App) System() *reactive.System {
	return a.renderer.System()
}

// Stats returns renderer counters.
func (a *App) Stats() renderer.Stats {
	return a.renderer.Stats()
}

// Scheduler returns the app's scheduler.
func (a *App) Scheduler() *scheduler.Scheduler {
	return a.sched
}
