package state_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rnx-ui/reactive/state"
)

func sumGetter(calls *int) state.Getter {
	return func(v *state.View) (any, error) {
		*calls++
		return v.Int("a") + v.Int("b"), nil
	}
}

func TestComputed_SeedsValueOnDefine(t *testing.T) {
	h := state.New(map[string]any{"a": 1, "b": 2})

	calls := 0
	if _, err := h.DefineComputed("sum", sumGetter(&calls)); err != nil {
		t.Fatalf("DefineComputed: %v", err)
	}

	got, ok := h.Get("sum")
	if !ok || got != 3 {
		t.Errorf("sum = %v, %v, want 3, true", got, ok)
	}
	if calls != 1 {
		t.Errorf("getter ran %d times on define, want 1", calls)
	}
}

func TestComputed_RecomputesAfterDependencyChange(t *testing.T) {
	h := state.New(map[string]any{"a": 1, "b": 2})

	calls := 0
	if _, err := h.DefineComputed("sum", sumGetter(&calls)); err != nil {
		t.Fatalf("DefineComputed: %v", err)
	}

	h.Set("a", 5)
	h.Flush()

	got, _ := h.Get("sum")
	if got != 7 {
		t.Errorf("sum after change and flush = %v, want 7", got)
	}
}

func TestComputed_UnrelatedChangeDoesNotRecompute(t *testing.T) {
	h := state.New(map[string]any{"a": 1, "b": 2, "c": 0})

	calls := 0
	if _, err := h.DefineComputed("sum", sumGetter(&calls)); err != nil {
		t.Fatalf("DefineComputed: %v", err)
	}

	h.Set("c", 99)
	h.Flush()

	if calls != 1 {
		t.Errorf("unrelated change triggered a recompute: getter ran %d times, want 1", calls)
	}
}

func TestComputed_CachedWhileClean(t *testing.T) {
	h := state.New(map[string]any{"a": 1, "b": 2})

	calls := 0
	if _, err := h.DefineComputed("sum", sumGetter(&calls)); err != nil {
		t.Fatalf("DefineComputed: %v", err)
	}

	for i := 0; i < 5; i++ {
		h.Get("sum")
	}
	if calls != 1 {
		t.Errorf("clean reads re-ran the getter: %d calls, want 1", calls)
	}
}

func TestComputed_BatchedWritesCoalesce(t *testing.T) {
	h := state.New(map[string]any{"a": 1, "b": 2})

	calls := 0
	if _, err := h.DefineComputed("sum", sumGetter(&calls)); err != nil {
		t.Fatalf("DefineComputed: %v", err)
	}

	notifications := 0
	h.Subscribe("sum", func(any) { notifications++ })

	h.Set("a", 10)
	h.Set("b", 20)
	h.Set("a", 11)
	h.Flush()

	if calls != 2 {
		t.Errorf("getter ran %d times, want 2 (define + one coalesced recompute)", calls)
	}
	if notifications != 1 {
		t.Errorf("sum notified %d times, want 1", notifications)
	}
	if got, _ := h.Get("sum"); got != 31 {
		t.Errorf("sum = %v, want 31", got)
	}
}

func TestComputed_NotifiesSubscribersAndAncestors(t *testing.T) {
	h := state.New(map[string]any{
		"user": map[string]any{"name": "A"},
	})

	if _, err := h.DefineComputed("greet", func(v *state.View) (any, error) {
		user, _ := v.Get("user").(*state.View)
		if user == nil {
			return "", nil
		}
		return "Hi " + user.String("name"), nil
	}); err != nil {
		t.Fatalf("DefineComputed: %v", err)
	}

	var seen []any
	h.Subscribe("greet", func(v any) { seen = append(seen, v) })

	h.Set("user.name", "B")
	h.Flush()

	if got, _ := h.Get("greet"); got != "Hi B" {
		t.Errorf("greet = %v, want Hi B", got)
	}
	if len(seen) != 1 || seen[0] != "Hi B" {
		t.Errorf("greet subscriber saw %v, want [Hi B]", seen)
	}
}

func TestComputed_SyncReadBetweenWriteAndFlush(t *testing.T) {
	h := state.New(map[string]any{"a": 1, "b": 2})

	calls := 0
	if _, err := h.DefineComputed("sum", sumGetter(&calls)); err != nil {
		t.Fatalf("DefineComputed: %v", err)
	}

	notifications := 0
	h.Subscribe("sum", func(any) { notifications++ })

	h.Set("a", 5)

	// A read while dirty recomputes synchronously.
	if got, _ := h.Get("sum"); got != 7 {
		t.Errorf("sum read before flush = %v, want 7", got)
	}

	// The deferred slot must still publish exactly one notification.
	h.Flush()
	if notifications != 1 {
		t.Errorf("sum notified %d times, want 1", notifications)
	}
}

func TestComputed_DynamicDependencies(t *testing.T) {
	h := state.New(map[string]any{"flag": true, "x": 1, "y": 2})

	calls := 0
	if _, err := h.DefineComputed("pick", func(v *state.View) (any, error) {
		calls++
		if v.Bool("flag") {
			return v.Int("x"), nil
		}
		return v.Int("y"), nil
	}); err != nil {
		t.Fatalf("DefineComputed: %v", err)
	}

	// While flag is true, y is not a dependency.
	h.Set("y", 20)
	h.Flush()
	if calls != 1 {
		t.Fatalf("write to untracked path recomputed: %d calls, want 1", calls)
	}

	// Switching the branch replaces the dependency set.
	h.Set("flag", false)
	h.Flush()
	if calls != 2 {
		t.Fatalf("branch switch: %d calls, want 2", calls)
	}
	if got, _ := h.Get("pick"); got != 20 {
		t.Errorf("pick = %v, want 20", got)
	}

	// Now x is no longer a dependency and y is.
	h.Set("x", 10)
	h.Flush()
	if calls != 2 {
		t.Errorf("write to dropped dependency recomputed: %d calls, want 2", calls)
	}
	h.Set("y", 30)
	h.Flush()
	if calls != 3 {
		t.Errorf("write to new dependency did not recompute: %d calls, want 3", calls)
	}
}

func TestComputed_DeepEqualsSuppressesPublish(t *testing.T) {
	h := state.New(map[string]any{"raw": []any{3.0, 1.0}})

	getter := func(v *state.View) (any, error) {
		items, _ := v.Get("raw").(*state.View)
		n := 0
		if items != nil {
			n = items.Len()
		}
		return map[string]any{"count": n}, nil
	}

	if _, err := h.DefineComputed("stats", getter, state.WithEquals(state.DeepEquals)); err != nil {
		t.Fatalf("DefineComputed: %v", err)
	}

	notifications := 0
	h.Subscribe("stats", func(any) { notifications++ })

	// The input changes but the derived structure is identical.
	h.Set("raw", []any{5.0, 2.0})
	h.Flush()

	if notifications != 0 {
		t.Errorf("structurally identical result published: %d notifications, want 0", notifications)
	}
}

func TestComputed_ShallowEqualsAlwaysPublishesFreshContainers(t *testing.T) {
	h := state.New(map[string]any{"raw": []any{3.0, 1.0}})

	getter := func(v *state.View) (any, error) {
		items, _ := v.Get("raw").(*state.View)
		n := 0
		if items != nil {
			n = items.Len()
		}
		return map[string]any{"count": n}, nil
	}

	if _, err := h.DefineComputed("stats", getter); err != nil {
		t.Fatalf("DefineComputed: %v", err)
	}

	notifications := 0
	h.Subscribe("stats", func(any) { notifications++ })

	h.Set("raw", []any{5.0, 2.0})
	h.Flush()

	if notifications != 1 {
		t.Errorf("fresh container under shallow equality: %d notifications, want 1", notifications)
	}
}

func TestComputed_ChainedComputeds(t *testing.T) {
	h := state.New(map[string]any{"a": 1, "b": 2})

	if _, err := h.DefineComputed("sum", func(v *state.View) (any, error) {
		return v.Int("a") + v.Int("b"), nil
	}); err != nil {
		t.Fatalf("define sum: %v", err)
	}
	if _, err := h.DefineComputed("double", func(v *state.View) (any, error) {
		return 2 * v.Int("sum"), nil
	}); err != nil {
		t.Fatalf("define double: %v", err)
	}

	h.Set("a", 10)
	h.Flush() // one flush settles the cascade

	if got, _ := h.Get("double"); got != 24 {
		t.Errorf("double = %v, want 24", got)
	}
}

func TestComputed_InitialGetterFailureIsLazy(t *testing.T) {
	h := state.New(map[string]any{"denom": 0, "num": 10})

	calls := 0
	getter := func(v *state.View) (any, error) {
		calls++
		d := v.Int("denom")
		if d == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return v.Int("num") / d, nil
	}

	// A failing initial evaluation is not a definition error.
	if _, err := h.DefineComputed("ratio", getter); err != nil {
		t.Fatalf("DefineComputed: %v", err)
	}

	// Each read retries and re-returns the error.
	for i := 0; i < 2; i++ {
		_, err := h.Read("ratio")
		var rerr *state.RecomputeError
		if !errors.As(err, &rerr) {
			t.Fatalf("read %d: error = %v, want RecomputeError", i, err)
		}
	}
	if calls != 3 {
		t.Errorf("getter ran %d times (define + 2 reads), want 3", calls)
	}

	// Fixing the dependency heals the property.
	h.Set("denom", 2)
	h.Flush()
	got, err := h.Read("ratio")
	if err != nil {
		t.Fatalf("read after fix: %v", err)
	}
	if got != 5 {
		t.Errorf("ratio = %v, want 5", got)
	}
}

func TestComputed_DeferredFailureSurfacesOnNextRead(t *testing.T) {
	h := state.New(map[string]any{"denom": 2, "num": 10})

	getter := func(v *state.View) (any, error) {
		d := v.Int("denom")
		if d == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return v.Int("num") / d, nil
	}

	if _, err := h.DefineComputed("ratio", getter); err != nil {
		t.Fatalf("DefineComputed: %v", err)
	}

	h.Set("denom", 0)
	h.Flush() // recompute fails silently here

	if _, err := h.Read("ratio"); err == nil {
		t.Error("deferred recompute failure did not surface on the next read")
	}
	if _, ok := h.Get("ratio"); ok {
		t.Error("Get reported a value for a failing computed")
	}
}

func TestComputed_DefinitionValidation(t *testing.T) {
	noop := func(v *state.View) (any, error) { return nil, nil }

	tests := []struct {
		name   string
		define func(h *state.Handle) error
	}{
		{
			name: "empty name",
			define: func(h *state.Handle) error {
				_, err := h.DefineComputed("", noop)
				return err
			},
		},
		{
			name: "dotted name",
			define: func(h *state.Handle) error {
				_, err := h.DefineComputed("a.b", noop)
				return err
			},
		},
		{
			name: "nil getter",
			define: func(h *state.Handle) error {
				_, err := h.DefineComputed("x", nil)
				return err
			},
		},
		{
			name: "duplicate name",
			define: func(h *state.Handle) error {
				if _, err := h.DefineComputed("x", noop); err != nil {
					return err
				}
				_, err := h.DefineComputed("x", noop)
				return err
			},
		},
		{
			name: "self dependency",
			define: func(h *state.Handle) error {
				_, err := h.DefineComputed("loop", func(v *state.View) (any, error) {
					return v.Get("loop"), nil
				})
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := state.New(map[string]any{})
			err := tt.define(h)
			var verr *state.ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("error = %v, want ValidationError", err)
			}
		})
	}
}

func TestComputed_RemoveTearsDownDependencies(t *testing.T) {
	h := state.New(map[string]any{"a": 1, "b": 2})

	calls := 0
	dispose, err := h.DefineComputed("sum", sumGetter(&calls))
	if err != nil {
		t.Fatalf("DefineComputed: %v", err)
	}

	dispose()
	dispose() // idempotent

	if _, ok := h.Get("sum"); ok {
		t.Error("removed computed still readable")
	}

	h.Set("a", 100)
	h.Flush()
	if calls != 1 {
		t.Errorf("removed computed recomputed: %d calls, want 1", calls)
	}
}

func TestComputed_ReevaluationAfterUnsubscribeAllResubscribes(t *testing.T) {
	h := state.New(map[string]any{"a": 1, "b": 2})

	calls := 0
	if _, err := h.DefineComputed("sum", sumGetter(&calls)); err != nil {
		t.Fatalf("DefineComputed: %v", err)
	}

	h.UnsubscribeAll()

	// The next read re-evaluates and restores the dependency subscriptions.
	if got, _ := h.Get("sum"); got != 3 {
		t.Fatalf("sum after UnsubscribeAll = %v, want 3", got)
	}
	if calls != 2 {
		t.Fatalf("getter ran %d times, want 2 (define + post-clear read)", calls)
	}

	h.Set("a", 10)
	h.Flush()
	if got, _ := h.Get("sum"); got != 12 {
		t.Errorf("sum after dependency change = %v, want 12", got)
	}
}

func TestComputed_HealedGetterTracksAfterUnsubscribeAll(t *testing.T) {
	h := state.New(map[string]any{"denom": 0, "num": 10})

	getter := func(v *state.View) (any, error) {
		d := v.Int("denom")
		if d == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return v.Int("num") / d, nil
	}
	if _, err := h.DefineComputed("ratio", getter); err != nil {
		t.Fatalf("DefineComputed: %v", err)
	}

	h.UnsubscribeAll()

	h.Set("denom", 2)
	got, err := h.Read("ratio")
	if err != nil {
		t.Fatalf("Read after heal: %v", err)
	}
	if got != 5 {
		t.Fatalf("ratio = %v, want 5", got)
	}

	// The healing evaluation resubscribed its discovered dependencies, so a
	// later write invalidates again instead of leaving the cache stale.
	h.Set("denom", 5)
	h.Flush()
	if got, _ := h.Get("ratio"); got != 2 {
		t.Errorf("ratio after later write = %v, want 2", got)
	}
}

func TestComputed_BulkDefine(t *testing.T) {
	h := state.New(map[string]any{"a": 2, "b": 3})

	dispose, err := h.DefineComputedProperties(map[string]state.Computed{
		"sum": {Get: func(v *state.View) (any, error) {
			return v.Int("a") + v.Int("b"), nil
		}},
		"product": {Get: func(v *state.View) (any, error) {
			return v.Int("a") * v.Int("b"), nil
		}},
	})
	if err != nil {
		t.Fatalf("DefineComputedProperties: %v", err)
	}

	if got, _ := h.Get("sum"); got != 5 {
		t.Errorf("sum = %v, want 5", got)
	}
	if got, _ := h.Get("product"); got != 6 {
		t.Errorf("product = %v, want 6", got)
	}

	dispose()

	if _, ok := h.Get("sum"); ok {
		t.Error("bulk disposer left sum installed")
	}
	if _, ok := h.Get("product"); ok {
		t.Error("bulk disposer left product installed")
	}
}

func TestComputed_BulkDefineRollsBackOnError(t *testing.T) {
	h := state.New(map[string]any{"a": 2})

	_, err := h.DefineComputedProperties(map[string]state.Computed{
		"good": {Get: func(v *state.View) (any, error) { return v.Int("a"), nil }},
		"zzz":  {}, // nil getter, sorts last so "good" installs first
	})
	if err == nil {
		t.Fatal("bulk define with a nil getter did not fail")
	}
	if _, ok := h.Get("good"); ok {
		t.Error("failed bulk define left an earlier property installed")
	}
}
