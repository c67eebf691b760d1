package state

import "reflect"

// EqualsFunc reports whether an old and a new value are interchangeable for
// change-detection purposes. Returning true suppresses the write and its
// notification.
type EqualsFunc func(old, new any) bool

// ShallowEquals is the engine's default change detector: nil matches only
// nil, scalars and other comparable values compare by ==, and composites
// (maps, slices, pointers, funcs, channels) compare by reference identity.
// Two distinct but structurally equal maps are therefore different values.
func ShallowEquals(old, new any) bool {
	if old == nil || new == nil {
		return old == nil && new == nil
	}

	ro := reflect.ValueOf(old)
	rn := reflect.ValueOf(new)
	if ro.Kind() != rn.Kind() {
		return false
	}

	switch ro.Kind() {
	case reflect.Map, reflect.Func, reflect.Chan, reflect.Pointer, reflect.UnsafePointer:
		return ro.Pointer() == rn.Pointer()
	case reflect.Slice:
		return ro.Pointer() == rn.Pointer() && ro.Len() == rn.Len()
	}

	if !ro.Comparable() || !rn.Comparable() {
		return false
	}
	return old == new
}

// DeepEquals compares values structurally via reflect.DeepEqual. Use as a
// computed property's equality function when the getter allocates a fresh
// container on every evaluation but the contents rarely change.
func DeepEquals(old, new any) bool {
	return reflect.DeepEqual(old, new)
}
