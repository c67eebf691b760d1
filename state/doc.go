// Package state implements a reactive state engine: a mutable nested data
// graph whose writes are intercepted, diffed, and routed to path-keyed
// subscribers, plus derived (computed) properties with automatic dependency
// discovery and coalesced deferred recomputation.
//
// # Core Components
//
// Handle - owns one data graph, its subscription registry, its computed
// properties, and its deferred-work queue
//
// View - a live, lazily constructed wrapper over a composite node; reads of
// nested composites return fresh sub-views, writes are diffed and notified
//
// Computed - a named derived property; its getter runs against a tracking
// view that records every path read, and those paths become the property's
// dependency set until the next evaluation
//
// # Paths
//
// A path is a dot-separated sequence of key segments ("user.name",
// "items.0.label"). The engine treats any string as a literal key sequence;
// slice elements are addressed by decimal index segments. Path validation,
// if wanted, belongs to the boundary layers, not here.
//
// # Write Flow
//
// A write is first diffed against the stored value: identical writes (scalar
// equality, composite reference identity) are dropped without notification.
// A committed write notifies exact-path subscribers in registration order,
// then each strict ancestor path nearest-first, each ancestor receiving the
// live re-read value of its own path. Computed properties depending on a
// changed path are invalidated and schedule one recompute on the handle's
// queue; Flush drains the queue until cascading recomputes settle.
//
//	h := state.New(map[string]any{"count": 0}, state.WithObserver(obs))
//	dispose := h.Subscribe("count", func(v any) { fmt.Println(v) })
//	h.Set("count", 1) // prints 1
//	h.Set("count", 1) // no delivery, value unchanged
//	dispose()
//
// # Concurrency
//
// The engine is single-threaded and cooperative: no locks, no goroutines.
// Reads, writes, and notification run synchronously on the calling
// goroutine; deferred recomputes run when the caller drains the queue with
// Flush. Boundary layers that accept concurrent traffic (see the rpc
// package) serialize access before touching a Handle.
//
// # Observer Integration
//
// Every operation emits events through the observability.Observer supplied
// at construction, so hosts can log, trace, or count state activity without
// the engine depending on any particular sink.
package state
