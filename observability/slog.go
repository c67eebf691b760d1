package observability

import (
	"context"
	"log/slog"
	"slices"
)

// identityKeys are the engine's identifying Data keys, emitted ahead of the
// remaining attributes so log lines for one handle, path, or property group
// naturally when filtered.
var identityKeys = []string{"state_id", "path", "name"}

// SlogObserver bridges engine events onto a slog.Logger: the event type
// becomes the log message, Level maps through SlogLevel, and Data keys are
// flattened as attributes in deterministic order (source, identity keys,
// then the rest sorted).
type SlogObserver struct {
	logger *slog.Logger
}

// NewSlogObserver creates a SlogObserver that emits to the given logger.
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	return &SlogObserver{logger: logger}
}

func (o *SlogObserver) OnEvent(ctx context.Context, event Event) {
	attrs := make([]slog.Attr, 0, len(event.Data)+1)
	attrs = append(attrs, slog.String("source", event.Source))

	for _, k := range identityKeys {
		if v, ok := event.Data[k]; ok {
			attrs = append(attrs, slog.Any(k, v))
		}
	}

	rest := make([]string, 0, len(event.Data))
	for k := range event.Data {
		if !slices.Contains(identityKeys, k) {
			rest = append(rest, k)
		}
	}
	slices.Sort(rest)
	for _, k := range rest {
		attrs = append(attrs, slog.Any(k, event.Data[k]))
	}

	o.logger.LogAttrs(ctx, event.Level.SlogLevel(), string(event.Type), attrs...)
}
