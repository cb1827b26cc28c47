package memo

import "github.com/tailored-agentic-units/memorable/observability"

// Database event types.
const (
	EventOpen    observability.EventType = "store.open"
	EventRecover observability.EventType = "store.recover"
	EventPush    observability.EventType = "store.push"
	EventDelete  observability.EventType = "store.delete"
	EventError   observability.EventType = "store.error"
)

const eventSource = "memo.Database"
