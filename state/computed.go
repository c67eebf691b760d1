package state

import (
	"sort"

	"github.com/rnx-ui/reactive/observability"
)

// Getter produces the value of a computed property. It runs against a
// tracking view of the state root: every instrumented read during one call
// is recorded, and the recorded path set fully replaces the property's
// previous dependency set when the call returns. Conditional reads
// therefore shift the dependency set from evaluation to evaluation.
type Getter func(v *View) (any, error)

// Computed configures one derived property.
type Computed struct {
	Get    Getter
	Equals EqualsFunc // nil selects ShallowEquals
}

// ComputedOption adjusts a single-property definition.
type ComputedOption func(*Computed)

// WithEquals overrides the change detector applied when a deferred
// recompute decides whether to publish its result.
func WithEquals(equals EqualsFunc) ComputedOption {
	return func(c *Computed) { c.Equals = equals }
}

// computedProperty is the live record behind one defined name.
type computedProperty struct {
	handle    *Handle
	name      string
	getter    Getter
	equals    EqualsFunc
	value     any
	dirty     bool
	scheduled bool
	removed   bool
	lastErr   error
	deps      map[string]Disposer
}

// DefineComputed installs name as a derived, cached property of the state.
// The getter is evaluated once immediately to seed the cache and discover
// the initial dependency set; a getter that fails here leaves the property
// permanently dirty, and every subsequent Read retries the evaluation and
// re-returns its error.
//
// The name is owned by the computed for its lifetime: it must be a single
// path segment, must not already be defined, and writing to it directly
// through Set is unsupported. A getter that reads its own name is rejected
// with a ValidationError rather than looping.
//
// The returned Disposer tears down all live dependency subscriptions and
// deletes the property; it is idempotent.
func (h *Handle) DefineComputed(name string, getter Getter, opts ...ComputedOption) (Disposer, error) {
	cfg := Computed{Get: getter}
	for _, opt := range opts {
		opt(&cfg)
	}
	return h.defineComputed(name, cfg)
}

// DefineComputedProperties installs several computed properties at once.
// Definitions are applied in name order; if any definition fails, the ones
// already installed are disposed and the error is returned. The single
// returned Disposer tears down every property installed by this call.
func (h *Handle) DefineComputedProperties(defs map[string]Computed) (Disposer, error) {
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	disposers := make([]Disposer, 0, len(names))
	disposeAll := func() {
		for _, d := range disposers {
			d()
		}
	}

	for _, name := range names {
		d, err := h.defineComputed(name, defs[name])
		if err != nil {
			disposeAll()
			return nil, err
		}
		disposers = append(disposers, d)
	}
	return disposeAll, nil
}

func (h *Handle) defineComputed(name string, cfg Computed) (Disposer, error) {
	switch {
	case h.destroyed:
		return nil, &ValidationError{Name: name, Reason: "state handle is destroyed"}
	case name == "":
		return nil, &ValidationError{Name: name, Reason: "name must not be empty"}
	case name != firstSegment(name):
		return nil, &ValidationError{Name: name, Reason: "name must be a single path segment"}
	case cfg.Get == nil:
		return nil, &ValidationError{Name: name, Reason: "getter must not be nil"}
	}
	if _, exists := h.computeds[name]; exists {
		return nil, &ValidationError{Name: name, Reason: "already defined"}
	}

	equals := cfg.Equals
	if equals == nil {
		equals = ShallowEquals
	}

	c := &computedProperty{
		handle: h,
		name:   name,
		getter: cfg.Get,
		equals: equals,
		dirty:  true,
		deps:   make(map[string]Disposer),
	}

	// Initial evaluation: seed the cache and the dependency set. The
	// self-dependency check runs before any subscription is installed so a
	// rejected definition leaves no trace.
	session, value, err := c.run()
	if readsOwnName(session, name) {
		return nil, &ValidationError{Name: name, Reason: "getter reads its own name"}
	}
	c.finish(session, value, err)
	if err == nil {
		// Publish silently: defining a property is not a change of it.
		h.root[name] = c.value
	}

	h.computeds[name] = c
	h.emit(EventComputedDefine, observability.LevelVerbose, map[string]any{
		"name": name,
		"deps": len(c.deps),
	})
	return c.dispose, nil
}

// readsOwnName reports whether the recorded path set touches the property's
// own name, directly or through one of its sub-paths.
func readsOwnName(session *trackingSession, name string) bool {
	for path := range session.paths {
		if firstSegment(path) == name {
			return true
		}
	}
	return false
}

// run evaluates the getter under a fresh tracking session.
func (c *computedProperty) run() (*trackingSession, any, error) {
	session := newTrackingSession()
	root := &View{handle: c.handle, node: c.handle.root, track: session}
	value, err := c.getter(root)
	return session, value, err
}

// finish resynchronizes dependencies from the session and commits the
// evaluation outcome. On error the property stays dirty and retains the
// error for the next Read; the partial dependency set recorded before the
// failure still resubscribes so later writes retrigger evaluation.
func (c *computedProperty) finish(session *trackingSession, value any, err error) error {
	c.resyncDeps(session)
	if err != nil {
		c.dirty = true
		c.lastErr = &RecomputeError{Name: c.name, Err: err}
		c.handle.emit(EventComputedError, observability.LevelWarning, map[string]any{
			"name":  c.name,
			"error": err.Error(),
		})
		return c.lastErr
	}
	c.value = value
	c.dirty = false
	c.lastErr = nil
	c.handle.emit(EventComputedRecompute, observability.LevelVerbose, map[string]any{
		"name": c.name,
		"deps": len(c.deps),
	})
	return nil
}

func (c *computedProperty) evaluate() error {
	session, value, err := c.run()
	return c.finish(session, value, err)
}

// resyncDeps replaces the dependency set with the session's recorded paths:
// stale paths are unsubscribed, new ones subscribed onto the invalidation
// handler. Reads of the property's own name are never tracked, so a
// write-back can not invalidate the property that produced it.
func (c *computedProperty) resyncDeps(session *trackingSession) {
	for path, dispose := range c.deps {
		if _, still := session.paths[path]; !still {
			dispose()
			delete(c.deps, path)
		}
	}
	for path := range session.paths {
		if firstSegment(path) == c.name {
			continue
		}
		if _, exists := c.deps[path]; exists {
			continue
		}
		c.deps[path] = c.handle.registry.subscribe(path, c.onDependencyChange)
	}
}

// onDependencyChange marks the property dirty and schedules at most one
// deferred recompute per dirty transition; repeated invalidations before
// the queue drains collapse into that one scheduled unit of work.
func (c *computedProperty) onDependencyChange(_ any) {
	if c.removed || c.handle.destroyed {
		return
	}
	c.dirty = true
	c.handle.emit(EventComputedInvalidate, observability.LevelVerbose, map[string]any{
		"name": c.name,
	})
	if !c.scheduled {
		c.scheduled = true
		c.handle.queue.schedule(c.deferredRecompute)
	}
}

// deferredRecompute runs when the handle's queue drains. A failed
// evaluation is retained and surfaces on the next synchronous Read rather
// than being dropped. A successful result is written back through the
// ordinary publish path only when the equality function reports a change,
// so the property's own name notifies its subscribers and ancestors exactly
// as a normal property would. When a synchronous Read already refreshed the
// cache, the evaluation is skipped but the publish decision still runs.
func (c *computedProperty) deferredRecompute() {
	c.scheduled = false
	if c.removed || c.handle.destroyed {
		return
	}

	if c.dirty {
		if err := c.evaluate(); err != nil {
			return
		}
	}

	published, _ := c.handle.rawLookup(c.name)
	if c.equals(published, c.value) {
		return
	}
	c.handle.publish(c.name, c.value)
}

// ensureFresh recomputes a dirty property synchronously. Called on every
// Read of the property's name.
func (c *computedProperty) ensureFresh() error {
	if !c.dirty {
		return nil
	}
	return c.evaluate()
}

// dispose unsubscribes from all tracked dependency paths and deletes the
// property. Idempotent.
func (c *computedProperty) dispose() {
	if c.removed {
		return
	}
	c.removed = true
	for path, d := range c.deps {
		d()
		delete(c.deps, path)
	}
	delete(c.handle.computeds, c.name)
	if !c.handle.destroyed {
		delete(c.handle.root, c.name)
	}
	c.handle.emit(EventComputedRemove, observability.LevelVerbose, map[string]any{
		"name": c.name,
	})
}
