package state

import (
	"sort"
	"strconv"
)

// trackingSession records every instrumented read made through the views
// that carry it. One session exists per computed evaluation; it is passed
// explicitly down the view chain rather than held in goroutine-local
// storage, so the recording stays correct if evaluations ever move across
// goroutines.
type trackingSession struct {
	paths map[string]struct{}
}

func newTrackingSession() *trackingSession {
	return &trackingSession{paths: make(map[string]struct{})}
}

func (t *trackingSession) record(path string) {
	t.paths[path] = struct{}{}
}

// isComposite reports whether a value is a nested container the engine
// wraps. Everything else passes through reads as a scalar.
func isComposite(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	}
	return false
}

// View is a live window onto one composite node of the data graph. Views
// are constructed on demand per access and never cached: two views of the
// same location are distinct values over the same shared node, so a write
// through one is visible through the other. Holding a nested view and
// mutating it later still mutates shared state and still notifies under the
// correct path.
//
// Reads of scalar fields return the value unchanged; reads of composite
// fields return a fresh sub-view. Writes are diffed against the stored
// value and dropped when identical. The meta accessors Len, Keys, and Raw
// are uninstrumented: they construct no path, record no dependency, and
// trigger no notification.
type View struct {
	handle *Handle
	path   string
	node   any
	track  *trackingSession
}

// Path returns the view's location relative to the root. The root view has
// an empty path.
func (v *View) Path() string {
	return v.path
}

// Get reads the field key. A scalar value passes through unchanged; a
// composite value returns a fresh sub-view for path.key; a missing key
// reads as nil. On a slice node, key is interpreted as a decimal index.
func (v *View) Get(key string) any {
	full := joinPath(v.path, key)
	if v.track != nil {
		v.track.record(full)
	}

	switch n := v.node.(type) {
	case map[string]any:
		val, ok := n[key]
		if !ok {
			return nil
		}
		return v.child(full, val)
	case []any:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(n) {
			return nil
		}
		return v.child(full, n[i])
	}
	return nil
}

// Index reads element i of a slice node, tracking it under its decimal
// segment. Out-of-range reads yield nil.
func (v *View) Index(i int) any {
	return v.Get(strconv.Itoa(i))
}

func (v *View) child(full string, val any) any {
	if isComposite(val) {
		return &View{handle: v.handle, path: full, node: val, track: v.track}
	}
	return val
}

// Set writes the field key. Identical values (scalar equality, composite
// reference identity) commit nothing and notify nobody; otherwise the value
// is committed into the underlying node and path.key is notified.
func (v *View) Set(key string, value any) {
	v.handle.writeKey(v.node, joinPath(v.path, key), key, value)
}

// SetIndex writes element i of a slice node.
func (v *View) SetIndex(i int, value any) {
	v.Set(strconv.Itoa(i), value)
}

// String reads key and returns it as a string, or "" when absent or not a
// string.
func (v *View) String(key string) string {
	s, _ := v.Get(key).(string)
	return s
}

// Int reads key as an integer, accepting the numeric types a JSON round
// trip produces. Returns 0 when absent or non-numeric.
func (v *View) Int(key string) int {
	switch n := v.Get(key).(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

// Float64 reads key as a float64. Returns 0 when absent or non-numeric.
func (v *View) Float64(key string) float64 {
	switch n := v.Get(key).(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

// Bool reads key as a bool. Returns false when absent or not a bool.
func (v *View) Bool(key string) bool {
	b, _ := v.Get(key).(bool)
	return b
}

// Len returns the number of entries in the underlying node. Uninstrumented.
func (v *View) Len() int {
	switch n := v.node.(type) {
	case map[string]any:
		return len(n)
	case []any:
		return len(n)
	}
	return 0
}

// Keys returns the sorted field names of a map node. Uninstrumented.
func (v *View) Keys() []string {
	n, ok := v.node.(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(n))
	for k := range n {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Raw returns the underlying node itself. Uninstrumented escape hatch for
// generic container operations; mutations through it bypass change
// detection and notification entirely.
func (v *View) Raw() any {
	return v.node
}
