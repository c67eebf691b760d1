package state

import (
	"context"
	"slices"
	"time"

	"github.com/rnx-ui/reactive/observability"
)

// Disposer removes a subscription or computed property. Calling a Disposer
// more than once is a no-op, never an error.
type Disposer func()

// subscriber is one registered callback at one exact path. The disposed flag
// keeps a snapshot taken before an unsubscribe from delivering to it.
type subscriber struct {
	fn       func(any)
	disposed bool
}

// subscriptionRegistry is the path-keyed callback table. Per path,
// subscribers are kept in registration order; delivery iterates a defensive
// snapshot so callbacks may subscribe, unsubscribe, or write re-entrantly
// without corrupting the set.
type subscriptionRegistry struct {
	subs     map[string][]*subscriber
	observer observability.Observer
}

func newSubscriptionRegistry(observer observability.Observer) *subscriptionRegistry {
	return &subscriptionRegistry{
		subs:     make(map[string][]*subscriber),
		observer: observer,
	}
}

func (r *subscriptionRegistry) subscribe(path string, fn func(any)) Disposer {
	s := &subscriber{fn: fn}
	r.subs[path] = append(r.subs[path], s)

	return func() {
		if s.disposed {
			return
		}
		s.disposed = true
		r.remove(path, s)
	}
}

func (r *subscriptionRegistry) remove(path string, target *subscriber) {
	entries, exists := r.subs[path]
	if !exists {
		return
	}
	for i, s := range entries {
		if s == target {
			r.subs[path] = append(entries[:i:i], entries[i+1:]...)
			break
		}
	}
	if len(r.subs[path]) == 0 {
		delete(r.subs, path)
	}
}

func (r *subscriptionRegistry) hasSubscribers(path string) bool {
	return len(r.subs[path]) > 0
}

func (r *subscriptionRegistry) count(path string) int {
	return len(r.subs[path])
}

// deliver invokes every subscriber registered at exactly path, in
// registration order, over a snapshot taken before the first callback runs.
// A panicking subscriber is recovered and reported; delivery continues with
// the remaining subscribers.
func (r *subscriptionRegistry) deliver(path string, value any) {
	snapshot := slices.Clone(r.subs[path])
	for _, s := range snapshot {
		if s.disposed {
			continue
		}
		r.invoke(path, s, value)
	}
}

func (r *subscriptionRegistry) invoke(path string, s *subscriber, value any) {
	defer func() {
		if rec := recover(); rec != nil {
			r.observer.OnEvent(context.Background(), observability.Event{
				Type:      EventSubscriberPanic,
				Level:     observability.LevelError,
				Timestamp: time.Now(),
				Source:    "state.registry",
				Data:      map[string]any{"path": path, "panic": rec},
			})
		}
	}()
	s.fn(value)
}

// clear marks every subscriber disposed and empties the table. Safe to call
// repeatedly.
func (r *subscriptionRegistry) clear() {
	for _, entries := range r.subs {
		for _, s := range entries {
			s.disposed = true
		}
	}
	r.subs = make(map[string][]*subscriber)
}
