package state_test

import (
	"testing"

	"github.com/rnx-ui/reactive/state"
)

func TestView_ScalarsPassThrough(t *testing.T) {
	h := state.New(map[string]any{
		"name":   "Alice",
		"count":  3,
		"ratio":  1.5,
		"active": true,
	})
	root := h.Root()

	if got := root.Get("name"); got != "Alice" {
		t.Errorf("Get(name) = %v, want Alice", got)
	}
	if got := root.Int("count"); got != 3 {
		t.Errorf("Int(count) = %v, want 3", got)
	}
	if got := root.Float64("ratio"); got != 1.5 {
		t.Errorf("Float64(ratio) = %v, want 1.5", got)
	}
	if !root.Bool("active") {
		t.Error("Bool(active) = false, want true")
	}
	if got := root.Get("missing"); got != nil {
		t.Errorf("Get(missing) = %v, want nil", got)
	}
}

func TestView_CompositeReadsReturnFreshViews(t *testing.T) {
	h := state.New(map[string]any{
		"user": map[string]any{"name": "Alice"},
	})
	root := h.Root()

	first, ok := root.Get("user").(*state.View)
	if !ok {
		t.Fatalf("Get(user) returned %T, want *View", root.Get("user"))
	}
	second := root.Get("user").(*state.View)

	// Wrapper identity is not stable across reads; the underlying node is.
	if first == second {
		t.Error("repeated reads returned the same wrapper")
	}
	if first.Path() != "user" || second.Path() != "user" {
		t.Errorf("sub-view paths = %q, %q, want user", first.Path(), second.Path())
	}
}

func TestView_AliasedViewsShareState(t *testing.T) {
	h := state.New(map[string]any{
		"user": map[string]any{"name": "Alice"},
	})

	a := h.Root().Get("user").(*state.View)
	b := h.Root().Get("user").(*state.View)

	a.Set("name", "Bob")

	if got := b.String("name"); got != "Bob" {
		t.Errorf("aliased view saw %q, want Bob", got)
	}
	if got, _ := h.Get("user.name"); got != "Bob" {
		t.Errorf("handle saw %v, want Bob", got)
	}
}

func TestView_RetainedViewStillNotifiesUnderCorrectPath(t *testing.T) {
	h := state.New(map[string]any{
		"user": map[string]any{"name": "Alice"},
	})

	retained := h.Root().Get("user").(*state.View)

	var got any
	h.Subscribe("user.name", func(v any) { got = v })

	// Mutating through a wrapper captured earlier is a live write.
	retained.Set("name", "Carol")

	if got != "Carol" {
		t.Errorf("notification value = %v, want Carol", got)
	}
}

func TestView_SetDiffsBeforeCommitting(t *testing.T) {
	h := state.New(map[string]any{"k": 1})

	calls := 0
	h.Subscribe("k", func(any) { calls++ })

	root := h.Root()
	root.Set("k", 1) // identical, dropped
	root.Set("k", 2)

	if calls != 1 {
		t.Errorf("notifications = %d, want 1", calls)
	}
}

func TestView_SliceAccess(t *testing.T) {
	h := state.New(map[string]any{
		"items": []any{"a", map[string]any{"label": "x"}},
	})

	items := h.Root().Get("items").(*state.View)

	if got := items.Index(0); got != "a" {
		t.Errorf("Index(0) = %v, want a", got)
	}

	elem, ok := items.Index(1).(*state.View)
	if !ok {
		t.Fatalf("Index(1) returned %T, want *View", items.Index(1))
	}
	if elem.Path() != "items.1" {
		t.Errorf("element path = %q, want items.1", elem.Path())
	}

	var got any
	h.Subscribe("items.1.label", func(v any) { got = v })
	elem.Set("label", "y")
	if got != "y" {
		t.Errorf("slice element write notified %v, want y", got)
	}

	if got := items.Index(9); got != nil {
		t.Errorf("out-of-range Index = %v, want nil", got)
	}
}

func TestView_MetaAccessorsAreUninstrumented(t *testing.T) {
	h := state.New(map[string]any{
		"user":  map[string]any{"b": 1, "a": 2},
		"items": []any{"x", "y", "z"},
	})
	root := h.Root()

	user := root.Get("user").(*state.View)
	if got := user.Len(); got != 2 {
		t.Errorf("Len = %d, want 2", got)
	}
	keys := user.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("Keys = %v, want [a b]", keys)
	}

	items := root.Get("items").(*state.View)
	if got := items.Len(); got != 3 {
		t.Errorf("slice Len = %d, want 3", got)
	}

	// Raw exposes the shared node itself.
	raw, ok := user.Raw().(map[string]any)
	if !ok || raw["b"] != 1 {
		t.Errorf("Raw = %v, want underlying map", user.Raw())
	}
}

func TestView_At(t *testing.T) {
	h := state.New(map[string]any{
		"user":  map[string]any{"name": "Alice"},
		"count": 1,
	})

	v, ok := h.At("user")
	if !ok {
		t.Fatal("At(user) not found")
	}
	if v.String("name") != "Alice" {
		t.Errorf("At(user).name = %q, want Alice", v.String("name"))
	}

	if _, ok := h.At("count"); ok {
		t.Error("At over a scalar returned a view")
	}
	if _, ok := h.At("missing"); ok {
		t.Error("At over a missing path returned a view")
	}
}
