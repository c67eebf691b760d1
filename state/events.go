package state

import "github.com/rnx-ui/reactive/observability"

const (
	// Handle lifecycle
	EventCreate  observability.EventType = "state.create"
	EventDestroy observability.EventType = "state.destroy"
	EventRestore observability.EventType = "state.restore"

	// Writes and delivery
	EventSet             observability.EventType = "state.set"
	EventNotify          observability.EventType = "state.notify"
	EventSubscribe       observability.EventType = "state.subscribe"
	EventUnsubscribe     observability.EventType = "state.unsubscribe"
	EventUnsubscribeAll  observability.EventType = "state.unsubscribe_all"
	EventSubscriberPanic observability.EventType = "state.subscriber_panic"

	// Computed properties
	EventComputedDefine     observability.EventType = "computed.define"
	EventComputedInvalidate observability.EventType = "computed.invalidate"
	EventComputedRecompute  observability.EventType = "computed.recompute"
	EventComputedError      observability.EventType = "computed.error"
	EventComputedRemove     observability.EventType = "computed.remove"

	// Queue
	EventFlush observability.EventType = "state.flush"
)
