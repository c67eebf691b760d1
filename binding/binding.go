// Package binding glues external render targets and input sources to the
// state engine's subscribe/read/write contract. It owns no rendering
// strategy: a Target is anything that can display a value and report the
// value it currently displays. One-way bindings render on every
// notification; two-way bindings additionally accept raw input, coerce it
// to the bound path's expected type, and write it back through the engine.
package binding

import (
	"errors"
	"log/slog"

	"github.com/rnx-ui/reactive/state"
)

// Binding construction errors.
var (
	ErrNilHandle = errors.New("binding: state handle is nil")
	ErrNilTarget = errors.New("binding: target is nil")
)

// Target is the externally rendered destination of a binding. Value returns
// the target's current externally-observable value (for an input control,
// the raw text it holds), which the binding compares against incoming
// notifications to break write→notify→re-render→re-write cycles.
type Target interface {
	Render(value any)
	Value() any
}

// Option configures a Binding.
type Option func(*Binding)

// WithLogger overrides the binding's logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Binding) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// Binding connects one path to one target. Close disposes the underlying
// subscription; it is idempotent.
type Binding struct {
	handle  *state.Handle
	path    string
	target  Target
	coerce  Coercer
	dispose state.Disposer
	logger  *slog.Logger
	closed  bool
}

// Bind creates a one-way binding: the current value at path is rendered
// immediately, and every subsequent notification re-renders unless the
// target already displays the incoming value.
func Bind(h *state.Handle, path string, target Target, opts ...Option) (*Binding, error) {
	return bind(h, path, target, nil, opts)
}

// BindTwoWay creates a two-way binding: one-way behavior plus HandleInput,
// which coerces raw input and writes it through the engine. A nil coercer
// writes input values unmodified.
func BindTwoWay(h *state.Handle, path string, target Target, coerce Coercer, opts ...Option) (*Binding, error) {
	return bind(h, path, target, coerce, opts)
}

func bind(h *state.Handle, path string, target Target, coerce Coercer, opts []Option) (*Binding, error) {
	if h == nil {
		return nil, ErrNilHandle
	}
	if target == nil {
		return nil, ErrNilTarget
	}

	b := &Binding{
		handle: h,
		path:   path,
		target: target,
		coerce: coerce,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}

	value, _ := h.Get(path)
	target.Render(value)

	b.dispose = h.Subscribe(path, b.onNotify)
	return b, nil
}

// Path returns the bound path.
func (b *Binding) Path() string {
	return b.path
}

func (b *Binding) onNotify(value any) {
	if b.closed {
		return
	}
	if b.matchesTarget(value) {
		return
	}
	b.target.Render(value)
}

// matchesTarget reports whether the target already displays the incoming
// value. The raw target value is compared first; when a coercer is
// configured, the coerced target value is compared as well, so an input
// holding "5" matches an incoming 5 written by its own HandleInput.
func (b *Binding) matchesTarget(incoming any) bool {
	current := b.target.Value()
	if state.DeepEquals(current, incoming) {
		return true
	}
	if b.coerce != nil {
		if coerced, err := b.coerce(current); err == nil && state.DeepEquals(coerced, incoming) {
			return true
		}
	}
	return false
}

// HandleInput accepts a raw value from the external input source, coerces
// it, and writes it through the engine. Coercion failure falls back to the
// raw value; it never corrupts engine state and never drops the write.
func (b *Binding) HandleInput(raw any) {
	if b.closed {
		return
	}

	value := raw
	if b.coerce != nil {
		coerced, err := b.coerce(raw)
		if err != nil {
			b.logger.Warn("input coercion failed, writing raw value",
				slog.String("path", b.path),
				slog.String("error", err.Error()),
			)
		} else {
			value = coerced
		}
	}
	b.handle.Set(b.path, value)
}

// Close disposes the binding's subscription. Idempotent.
func (b *Binding) Close() {
	if b.closed {
		return
	}
	b.closed = true
	b.dispose()
}
