package scheduler

import (
	"context"
	"io"
	"log/slog"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vango-dev/weave/pkg/telemetry"
)

// Job is a unit of deferred work, typically a component's render effect.
// Jobs are compared by identity.
type Job interface {
	Run()
}

// orderedJob is a job with a creation sequence number. Pending ordered jobs
// run in ascending ID order, which puts parents before their children.
type orderedJob interface {
	Job
	ID() uint64
}

// maxJobRuns bounds how often one job may run in a single flush.
const maxJobRuns = 100

// Scheduler batches jobs and one-shot callbacks into flushes. Any enqueue
// arms exactly one flush when none is armed. A flush runs the queued jobs,
// including ones queued while it runs, then the callbacks in registration
// order. A job is deduplicated while it is pending or running; once it has
// run, queueing it again in the same flush runs it again.
//
// A Scheduler is not safe for concurrent use; it lives on the loop goroutine.
type Scheduler struct {
	exec Executor

	queue     []Job
	queued    mapset.Set[Job]
	pos       int // next job to run in the current flush
	runs      map[Job]int
	callbacks []func()
	armed     bool
	flushing  bool

	flushes   uint64
	observers []func(jobs, callbacks int)
	logger    *slog.Logger
	metrics   *telemetry.Metrics
	tracer    *telemetry.Tracer
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithExecutor sets how flushes are armed.
func WithExecutor(e Executor) Option {
	return func(s *Scheduler) {
		s.exec = e
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithMetrics sets the collectors flushes are recorded to.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

// WithTracer sets the tracer flushes are traced with.
func WithTracer(t *telemetry.Tracer) Option {
	return func(s *Scheduler) {
		s.tracer = t
	}
}

// New creates a scheduler. With a loop, flushes are armed as microtasks,
// falling back to tasks and then to running synchronously.
func New(loop *Loop, opts ...Option) *Scheduler {
	s := &Scheduler{
		exec:   Chain(Microtask(loop), Macrotask(loop), Sync()),
		queued: mapset.NewThreadUnsafeSet[Job](),
		runs:   make(map[Job]int),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if loop == nil {
		s.exec = Sync()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueueJob adds job to the pending flush unless it is already pending or
// running.
func (s *Scheduler) QueueJob(job Job) {
	if !s.queued.Add(job) {
		return
	}
	s.queue = append(s.queue, job)
	if oj, ok := job.(orderedJob); ok {
		// Sift back over pending jobs with a higher ID.
		i := len(s.queue) - 1
		for i > s.pos {
			prev, ok := s.queue[i-1].(orderedJob)
			if !ok || prev.ID() <= oj.ID() {
				break
			}
			s.queue[i] = prev
			i--
		}
		s.queue[i] = job
	}
	s.arm()
}

// NextTick registers cb to run after the pending jobs of the next flush.
// cb may be nil.
func (s *Scheduler) NextTick(cb func()) *Tick {
	t := &Tick{s: s, done: make(chan struct{})}
	s.callbacks = append(s.callbacks, func() {
		if cb != nil {
			cb()
		}
		t.resolve()
	})
	s.arm()
	return t
}

// OnFlush registers fn to run after every flush that completes without a
// panic, with the number of jobs and callbacks it ran.
func (s *Scheduler) OnFlush(fn func(jobs, callbacks int)) {
	s.observers = append(s.observers, fn)
}

// Pending reports the number of queued jobs and callbacks.
func (s *Scheduler) Pending() (jobs, callbacks int) {
	return len(s.queue) - s.pos, len(s.callbacks)
}

// Armed reports whether a flush is scheduled or running.
func (s *Scheduler) Armed() bool {
	return s.armed
}

// Flushes returns the number of completed flushes.
func (s *Scheduler) Flushes() uint64 {
	return s.flushes
}

func (s *Scheduler) arm() {
	if s.armed {
		return
	}
	s.armed = true
	if !s.exec.Schedule(s.flush) {
		s.flush()
	}
}

func (s *Scheduler) flush() {
	if s.flushing {
		return
	}
	s.flushing = true
	start := time.Now()
	_, end := s.tracer.Start(context.Background(), "flush",
		attribute.Int("jobs.queued", len(s.queue)),
		attribute.Int("callbacks.queued", len(s.callbacks)))

	jobs, callbacks := 0, 0
	defer func() {
		clear(s.queue)
		s.queue = s.queue[:0]
		s.pos = 0
		s.queued.Clear()
		clear(s.runs)
		clear(s.callbacks)
		s.callbacks = s.callbacks[:0]
		s.flushing = false
		s.armed = false
		s.flushes++

		var err error
		if r := recover(); r != nil {
			err = panicError{r}
			end(err)
			panic(r)
		}
		end(nil)
		s.metrics.RecordFlush(time.Since(start), jobs, callbacks)
		s.logger.Debug("flush",
			"jobs", jobs,
			"callbacks", callbacks,
			"duration", time.Since(start))
		for _, fn := range s.observers {
			fn(jobs, callbacks)
		}
	}()

	// Callbacks may queue more jobs; those run before any later callback.
	for s.pos < len(s.queue) || callbacks < len(s.callbacks) {
		for s.pos < len(s.queue) {
			job := s.queue[s.pos]
			s.pos++
			s.runs[job]++
			if s.runs[job] > maxJobRuns {
				s.queued.Remove(job)
				s.logger.Error("job keeps requeueing itself, skipped", "runs", maxJobRuns)
				continue
			}
			job.Run()
			jobs++
			s.queued.Remove(job)
		}
		for ; callbacks < len(s.callbacks) && s.pos == len(s.queue); callbacks++ {
			s.callbacks[callbacks]()
		}
	}
}

type panicError struct{ v any }

func (p panicError) Error() string {
	if err, ok := p.v.(error); ok {
		return err.Error()
	}
	return "panic during flush"
}
