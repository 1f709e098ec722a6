// Package scheduler batches reactive updates.
//
// A Loop is a single-goroutine event loop with a task queue (Post, safe
// from any goroutine) and a microtask queue drained after every task. A
// Scheduler collects dirty jobs and next-tick callbacks and arms one flush
// through an Executor chain: microtask, then task, then synchronous.
//
//	loop := scheduler.NewLoop()
//	sched := scheduler.New(loop)
//	sched.QueueJob(effect)
//	sched.NextTick(func() { fmt.Println("committed") })
//	loop.Flush()
package scheduler
