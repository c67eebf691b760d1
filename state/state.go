package state

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/rnx-ui/reactive/observability"
)

// Option configures a Handle at construction.
type Option func(*Handle)

// WithObserver installs the observer that receives the handle's events.
// Defaults to NoOpObserver.
func WithObserver(observer observability.Observer) Option {
	return func(h *Handle) {
		if observer != nil {
			h.observer = observer
		}
	}
}

// WithID overrides the generated handle ID. Used when restoring a snapshot
// so the restored handle keeps its persistence key.
func WithID(id string) Option {
	return func(h *Handle) {
		if id != "" {
			h.id = id
		}
	}
}

// Handle owns one reactive data graph: the live root node, the
// path-keyed subscription registry, the computed properties defined on the
// graph, and the deferred-work queue their recomputes run on.
//
// A Handle is single-threaded by design. There is no lock because there is
// no concurrent writer; boundary layers that accept concurrent traffic
// serialize access themselves. All notification is synchronous on the
// calling goroutine, and deferred recomputes run only inside Flush.
type Handle struct {
	id        string
	root      map[string]any
	registry  *subscriptionRegistry
	computeds map[string]*computedProperty
	queue     *taskQueue
	observer  observability.Observer
	destroyed bool
}

// New creates a Handle over the given initial data. The graph is live, not
// copied: the handle wraps the caller's maps and slices in place, so data
// held by the caller and data read through the handle alias the same nodes.
func New(initial map[string]any, opts ...Option) *Handle {
	if initial == nil {
		initial = make(map[string]any)
	}

	h := &Handle{
		id:        uuid.NewString(),
		root:      initial,
		computeds: make(map[string]*computedProperty),
		queue:     newTaskQueue(),
		observer:  observability.NoOpObserver{},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.registry = newSubscriptionRegistry(h.observer)

	h.emit(EventCreate, observability.LevelVerbose, map[string]any{
		"keys": len(initial),
	})
	return h
}

// Restore reconstructs a Handle from a JSON snapshot produced by Snapshot.
func Restore(data []byte, opts ...Option) (*Handle, error) {
	var initial map[string]any
	if err := json.Unmarshal(data, &initial); err != nil {
		return nil, fmt.Errorf("restore state: %w", err)
	}

	h := New(initial, opts...)
	h.emit(EventRestore, observability.LevelVerbose, map[string]any{
		"keys": len(initial),
	})
	return h, nil
}

// ID returns the handle's identity, used as its persistence key and carried
// in event metadata.
func (h *Handle) ID() string {
	return h.id
}

// Get returns the current value at a dot-notation path. Any missing
// intermediate segment yields (nil, false); a malformed but syntactically
// valid path never panics. Reading the name of a dirty computed property
// recomputes it synchronously first; if that recompute fails the property
// reads as absent (use Read to see the error).
func (h *Handle) Get(path string) (any, bool) {
	value, ok, err := h.lookup(path)
	if err != nil {
		return nil, false
	}
	return value, ok
}

// Read is Get with the error surface: a dirty computed property whose
// getter fails reports its RecomputeError here, on every read, until an
// evaluation succeeds. Missing paths read as (nil, nil).
func (h *Handle) Read(path string) (any, error) {
	value, _, err := h.lookup(path)
	return value, err
}

func (h *Handle) lookup(path string) (any, bool, error) {
	if h.destroyed || path == "" {
		return nil, false, nil
	}

	segments := splitPath(path)
	var head any
	if c, exists := h.computeds[segments[0]]; exists {
		if err := c.ensureFresh(); err != nil {
			return nil, false, err
		}
		head = c.value
	} else {
		v, exists := h.root[segments[0]]
		if !exists {
			return nil, false, nil
		}
		head = v
	}

	value, ok := traverse(head, segments[1:])
	return value, ok, nil
}

// rawLookup traverses the stored graph without touching computed freshness.
// Ancestor notification re-reads through here so ancestors always see the
// last published values.
func (h *Handle) rawLookup(path string) (any, bool) {
	if h.destroyed || path == "" {
		return nil, false
	}
	return traverse(h.root, splitPath(path))
}

func traverse(node any, segments []string) (any, bool) {
	current := node
	for _, segment := range segments {
		switch n := current.(type) {
		case map[string]any:
			v, exists := n[segment]
			if !exists {
				return nil, false
			}
			current = v
		case []any:
			i, err := strconv.Atoi(segment)
			if err != nil || i < 0 || i >= len(n) {
				return nil, false
			}
			current = n[i]
		default:
			return nil, false
		}
	}
	return current, true
}

// Set writes value at a dot-notation path. Missing intermediate map
// segments are created; a scalar or out-of-range intermediate drops the
// write. Identical values (scalar equality, composite reference identity)
// commit nothing and notify nobody; otherwise the value is committed in
// place and the path is notified. Writes on a destroyed handle are inert.
func (h *Handle) Set(path string, value any) {
	if h.destroyed || path == "" {
		return
	}

	segments := splitPath(path)
	parent := any(h.root)
	for _, segment := range segments[:len(segments)-1] {
		switch n := parent.(type) {
		case map[string]any:
			child, exists := n[segment]
			if !exists {
				child = make(map[string]any)
				n[segment] = child
			}
			parent = child
		case []any:
			i, err := strconv.Atoi(segment)
			if err != nil || i < 0 || i >= len(n) {
				return
			}
			parent = n[i]
		default:
			return
		}
	}
	h.writeKey(parent, path, segments[len(segments)-1], value)
}

// writeKey commits one field write into a composite node after the
// identity diff, then notifies. Shared by Handle.Set and View.Set.
func (h *Handle) writeKey(node any, fullPath, key string, value any) {
	if h.destroyed {
		return
	}

	switch n := node.(type) {
	case map[string]any:
		old, exists := n[key]
		if exists && ShallowEquals(old, value) {
			return
		}
		n[key] = value
	case []any:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(n) {
			return
		}
		if ShallowEquals(n[i], value) {
			return
		}
		n[i] = value
	default:
		return
	}

	h.emit(EventSet, observability.LevelVerbose, map[string]any{
		"path": fullPath,
	})
	h.notify(fullPath, value)
}

// publish force-commits a computed property's result at its root-level name
// and notifies. The equality decision already happened in the deferred
// recompute, so no identity diff runs here.
func (h *Handle) publish(name string, value any) {
	if h.destroyed {
		return
	}
	h.root[name] = value
	h.emit(EventSet, observability.LevelVerbose, map[string]any{
		"path": name,
	})
	h.notify(name, value)
}

// notify delivers a committed write: exact-path subscribers first, in
// registration order, then each strict ancestor nearest-first, each
// ancestor receiving the live re-read value of its own path rather than the
// leaf value.
func (h *Handle) notify(path string, value any) {
	if h.destroyed {
		return
	}

	h.emit(EventNotify, observability.LevelVerbose, map[string]any{
		"path":        path,
		"subscribers": h.registry.count(path),
	})
	h.registry.deliver(path, value)

	for _, ancestor := range ancestorPaths(path) {
		if !h.registry.hasSubscribers(ancestor) {
			continue
		}
		live, _ := h.rawLookup(ancestor)
		h.registry.deliver(ancestor, live)
	}
}

// Subscribe registers fn at the exact path and returns its idempotent
// disposer. Registration order at a path is delivery order. Subscribing on
// a destroyed handle returns a no-op disposer.
func (h *Handle) Subscribe(path string, fn func(any)) Disposer {
	if h.destroyed || fn == nil {
		return func() {}
	}

	h.emit(EventSubscribe, observability.LevelVerbose, map[string]any{
		"path": path,
	})
	dispose := h.registry.subscribe(path, fn)

	disposed := false
	return func() {
		if disposed {
			return
		}
		disposed = true
		dispose()
		h.emit(EventUnsubscribe, observability.LevelVerbose, map[string]any{
			"path": path,
		})
	}
}

// UnsubscribeAll clears every path's subscriber set, including the
// dependency subscriptions of computed properties. Each computed is marked
// dirty with its dependency set emptied, so its next read re-evaluates and
// resubscribes from scratch. Safe to call multiple times.
func (h *Handle) UnsubscribeAll() {
	if h.destroyed {
		return
	}
	h.registry.clear()
	for _, c := range h.computeds {
		c.deps = make(map[string]Disposer)
		c.dirty = true
	}
	h.emit(EventUnsubscribeAll, observability.LevelVerbose, nil)
}

// Destroy clears all subscriptions, tears down computed properties, drops
// the queue, and releases the root node. The handle becomes inert: further
// writes and reads neither panic nor notify. Idempotent.
func (h *Handle) Destroy() {
	if h.destroyed {
		return
	}
	h.emit(EventDestroy, observability.LevelVerbose, nil)

	h.registry.clear()
	for _, c := range h.computeds {
		c.removed = true
	}
	h.computeds = make(map[string]*computedProperty)
	h.queue.clear()
	h.root = nil
	h.destroyed = true
}

// Flush synchronously drains all scheduled recomputations, including any
// scheduled by the recomputes themselves, until the queue settles. A host
// with an event loop calls this once per tick; tests call it for
// deterministic sequencing.
func (h *Handle) Flush() {
	if h.destroyed {
		return
	}
	h.emit(EventFlush, observability.LevelVerbose, map[string]any{
		"pending": h.queue.len(),
	})
	h.queue.drain()
}

// Root returns a view over the root node.
func (h *Handle) Root() *View {
	return &View{handle: h, node: h.root}
}

// At returns a view over the composite node at path, or false when the path
// is missing or holds a scalar.
func (h *Handle) At(path string) (*View, bool) {
	value, ok, err := h.lookup(path)
	if err != nil || !ok || !isComposite(value) {
		return nil, false
	}
	return &View{handle: h, path: path, node: value}, true
}

// Snapshot serializes the data graph, including published computed values,
// as a JSON document.
func (h *Handle) Snapshot() ([]byte, error) {
	if h.destroyed {
		return nil, ErrDestroyed
	}
	data, err := json.Marshal(h.root)
	if err != nil {
		return nil, fmt.Errorf("snapshot state: %w", err)
	}
	return data, nil
}

func (h *Handle) emit(eventType observability.EventType, level observability.Level, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data["state_id"] = h.id
	h.observer.OnEvent(context.Background(), observability.Event{
		Type:      eventType,
		Level:     level,
		Timestamp: time.Now(),
		Source:    "state",
		Data:      data,
	})
}
