package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/weave/pkg/telemetry"
)

type recordingJob struct {
	name string
	log  *[]string
	fn   func()
}

func (j *recordingJob) Run() {
	*j.log = append(*j.log, j.name)
	if j.fn != nil {
		j.fn()
	}
}

func TestQueueJobDeduplicates(t *testing.T) {
	loop := NewLoop()
	s := New(loop)

	var log []string
	job := &recordingJob{name: "job", log: &log}
	s.QueueJob(job)
	s.QueueJob(job)
	s.QueueJob(job)

	assert.True(t, s.Armed())
	jobs, _ := s.Pending()
	assert.Equal(t, 1, jobs)
	assert.Empty(t, log, "flush runs asynchronously")

	loop.Flush()
	assert.Equal(t, []string{"job"}, log)
	assert.False(t, s.Armed())
	assert.Equal(t, uint64(1), s.Flushes())
}

func TestCallbacksRunAfterJobs(t *testing.T) {
	loop := NewLoop()
	s := New(loop)

	var log []string
	s.NextTick(func() { log = append(log, "cb1") })
	s.QueueJob(&recordingJob{name: "a", log: &log})
	s.NextTick(func() { log = append(log, "cb2") })
	s.QueueJob(&recordingJob{name: "b", log: &log})

	loop.Flush()
	assert.Equal(t, []string{"a", "b", "cb1", "cb2"}, log)
	assert.Equal(t, uint64(1), s.Flushes())
}

func TestJobsQueuedDuringFlush(t *testing.T) {
	loop := NewLoop()
	s := New(loop)

	var log []string
	child := &recordingJob{name: "child", log: &log}
	var parent *recordingJob
	parent = &recordingJob{name: "parent", log: &log, fn: func() {
		s.QueueJob(child)
		s.QueueJob(parent)
	}}
	s.QueueJob(parent)

	loop.Flush()
	assert.Equal(t, []string{"parent", "child"}, log)
	assert.Equal(t, uint64(1), s.Flushes())
}

func TestJobRequeuedAfterItRan(t *testing.T) {
	loop := NewLoop()
	s := New(loop)

	var log []string
	a := &recordingJob{name: "a", log: &log}
	b := &recordingJob{name: "b", log: &log, fn: func() { s.QueueJob(a) }}
	s.QueueJob(a)
	s.QueueJob(b)

	loop.Flush()
	assert.Equal(t, []string{"a", "b", "a"}, log)
	assert.Equal(t, uint64(1), s.Flushes())
}

type idJob struct {
	recordingJob
	id uint64
}

func (j *idJob) ID() uint64 { return j.id }

func TestOrderedJobsRunByID(t *testing.T) {
	loop := NewLoop()
	s := New(loop)

	var log []string
	child := &idJob{recordingJob{name: "child", log: &log}, 3}
	sibling := &idJob{recordingJob{name: "sibling", log: &log}, 5}
	parent := &idJob{recordingJob{name: "parent", log: &log, fn: func() {
		// A parent render touching an already queued child does not run it twice.
		s.QueueJob(child)
	}}, 1}
	s.QueueJob(child)
	s.QueueJob(sibling)
	s.QueueJob(parent)

	jobs, _ := s.Pending()
	assert.Equal(t, 3, jobs)
	loop.Flush()
	assert.Equal(t, []string{"parent", "child", "sibling"}, log)
}

func TestSelfRequeueingJobIsBounded(t *testing.T) {
	loop := NewLoop()
	s := New(loop)

	var log []string
	var a, b *recordingJob
	a = &recordingJob{name: "a", log: &log, fn: func() { s.QueueJob(b) }}
	b = &recordingJob{name: "b", log: &log, fn: func() { s.QueueJob(a) }}
	s.QueueJob(a)

	loop.Flush()
	assert.Len(t, log, 2*maxJobRuns)
	assert.False(t, s.Armed())
}

func TestJobsQueuedByCallbacksRunBeforeLaterCallbacks(t *testing.T) {
	loop := NewLoop()
	s := New(loop)

	var log []string
	late := &recordingJob{name: "late", log: &log}
	s.NextTick(func() {
		log = append(log, "cb1")
		s.QueueJob(late)
	})
	s.NextTick(func() { log = append(log, "cb2") })

	loop.Flush()
	assert.Equal(t, []string{"cb1", "late", "cb2"}, log)
}

func TestTick(t *testing.T) {
	loop := NewLoop()
	s := New(loop)

	var log []string
	tick := s.NextTick(func() { log = append(log, "a") })
	then := tick.Then(func() { log = append(log, "then") })
	s.NextTick(func() { log = append(log, "c") })

	assert.False(t, tick.Resolved())
	loop.Flush()

	assert.Equal(t, []string{"a", "c", "then"}, log)
	select {
	case <-tick.Done():
	default:
		t.Fatal("tick not resolved")
	}
	assert.True(t, then.Resolved())

	late := tick.Then(func() { log = append(log, "late") })
	loop.Flush()
	assert.True(t, late.Resolved())
	assert.Equal(t, "late", log[len(log)-1])
}

func TestNilCallbackTick(t *testing.T) {
	loop := NewLoop()
	s := New(loop)
	tick := s.NextTick(nil)
	loop.Flush()
	assert.True(t, tick.Resolved())
}

func TestSyncWithoutLoop(t *testing.T) {
	s := New(nil)
	var log []string
	s.QueueJob(&recordingJob{name: "now", log: &log})
	assert.Equal(t, []string{"now"}, log)
	assert.False(t, s.Armed())
}

func TestPanicResetsState(t *testing.T) {
	loop := NewLoop()
	s := New(loop)

	var log []string
	s.QueueJob(&recordingJob{name: "boom", log: &log, fn: func() { panic("boom") }})
	assert.Panics(t, loop.Flush)
	assert.False(t, s.Armed())

	s.QueueJob(&recordingJob{name: "after", log: &log})
	loop.Flush()
	assert.Equal(t, []string{"boom", "after"}, log)
}

func TestOnFlush(t *testing.T) {
	loop := NewLoop()
	s := New(loop)

	type counts struct{ jobs, callbacks int }
	var seen []counts
	s.OnFlush(func(jobs, callbacks int) { seen = append(seen, counts{jobs, callbacks}) })

	var log []string
	s.QueueJob(&recordingJob{name: "a", log: &log})
	s.QueueJob(&recordingJob{name: "b", log: &log})
	s.NextTick(nil)
	loop.Flush()
	assert.Equal(t, []counts{{2, 1}}, seen)

	s.QueueJob(&recordingJob{name: "boom", log: &log, fn: func() { panic("boom") }})
	assert.Panics(t, loop.Flush)
	assert.Len(t, seen, 1, "observers skip flushes that panic")
}

func TestFlushMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	loop := NewLoop()
	s := New(loop, WithMetrics(telemetry.NewMetrics(telemetry.WithRegistry(reg))), WithTracer(telemetry.NewTracer()))

	var log []string
	s.QueueJob(&recordingJob{name: "a", log: &log})
	s.NextTick(nil)
	loop.Flush()

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, f := range families {
		for _, m := range f.GetMetric() {
			if c := m.GetCounter(); c != nil {
				values[f.GetName()] = c.GetValue()
			}
		}
	}
	assert.Equal(t, 1.0, values["weave_flushes_total"])
	assert.Equal(t, 1.0, values["weave_jobs_total"])
	assert.Equal(t, 1.0, values["weave_callbacks_total"])
}

func TestChain(t *testing.T) {
	unavailable := ExecutorFunc(func(func()) bool { return false })
	ran := false
	ok := Chain(nil, unavailable, Sync()).Schedule(func() { ran = true })
	assert.True(t, ok)
	assert.True(t, ran)

	assert.False(t, Chain(unavailable).Schedule(func() {}))
	assert.False(t, Macrotask(nil).Schedule(func() {}))
	assert.False(t, Microtask(nil).Schedule(func() {}))
}

func TestLoopDrainsMicrotasksAfterEachTask(t *testing.T) {
	loop := NewLoop()
	var log []string
	loop.Post(func() {
		log = append(log, "t1")
		loop.QueueMicrotask(func() {
			log = append(log, "m1")
			loop.QueueMicrotask(func() { log = append(log, "m2") })
		})
	})
	loop.Post(func() { log = append(log, "t2") })

	loop.Flush()
	assert.Equal(t, []string{"t1", "m1", "m2", "t2"}, log)
}

func TestLoopRun(t *testing.T) {
	loop := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- loop.Run(ctx) }()

	var mu sync.Mutex
	var got []int
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		i := i
		require.True(t, loop.Post(func() {
			defer wg.Done()
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		}))
	}
	wg.Wait()

	// A panicking task does not stop the loop.
	loop.Post(func() { panic("task") })
	done := make(chan struct{})
	loop.Post(func() { close(done) })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop stopped after panic")
	}

	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestLoopClose(t *testing.T) {
	loop := NewLoop(WithQueueSize(1))
	errc := make(chan error, 1)
	go func() { errc <- loop.Run(context.Background()) }()

	loop.Close()
	loop.Close()
	assert.NoError(t, <-errc)
	assert.False(t, loop.Post(func() {}))
}

func TestLoopQueueFull(t *testing.T) {
	loop := NewLoop(WithQueueSize(1))
	assert.True(t, loop.Post(func() {}))
	assert.False(t, loop.Post(func() {}))
}
