// Package reactive implements fine-grained dependency tracking over plain Go
// data.
//
// A System owns the dependency graph. Plain maps (map[string]any) and boxed
// slices (*[]any) are wrapped into Object and Array values whose reads record
// a (target, key) edge for the running Effect and whose writes re-run every
// Effect subscribed to the written key.
//
//	sys := reactive.NewSystem()
//	state := sys.Reactive(map[string]any{"count": 0}).(*reactive.Object)
//
//	sys.WatchEffect(func() reactive.Cleanup {
//	    fmt.Println("count is", state.Get("count"))
//	    return nil
//	})
//
//	state.Set("count", 1) // prints "count is 1"
//
// # Ownership
//
// Each target owns at most one wrapper per System. Dependency edges are kept
// in the graph, never on the effect: every run drops the edges recorded by the
// previous run and Effect.Stop drops all of them, so an effect that no longer
// reads a key stops being notified for it.
//
// # Threading
//
// A System is not safe for concurrent use. All reads, writes and effect runs
// happen on a single goroutine, normally the event loop in package scheduler.
package reactive
