package observability

import "context"

// CaptureObserver records every event it receives, in emission order.
// Intended for tests and diagnostics: engine tests assert on the captured
// sequence to verify which operations ran and in what order.
//
// CaptureObserver is not safe for concurrent use; the engine it observes is
// single-threaded by design.
type CaptureObserver struct {
	events []Event
}

// NewCaptureObserver creates an empty CaptureObserver.
func NewCaptureObserver() *CaptureObserver {
	return &CaptureObserver{}
}

func (c *CaptureObserver) OnEvent(ctx context.Context, event Event) {
	c.events = append(c.events, event)
}

// Events returns the captured events in emission order. The returned slice
// is the observer's own backing store; callers must not mutate it.
func (c *CaptureObserver) Events() []Event {
	return c.events
}

// EventsOfType returns the captured events matching the given type.
func (c *CaptureObserver) EventsOfType(t EventType) []Event {
	var matched []Event
	for _, e := range c.events {
		if e.Type == t {
			matched = append(matched, e)
		}
	}
	return matched
}

// Reset discards all captured events.
func (c *CaptureObserver) Reset() {
	c.events = nil
}
