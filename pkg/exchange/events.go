package exchange

// Event names a stage in the order submission lifecycle.
type Event string

const (
	EventOrderValidated Event = "order_validated"
	EventAPIRequest     Event = "api_request"
	EventAPIResponse    Event = "api_response"
	EventNetworkFailure Event = "network_failure"
	EventRetryWait      Event = "retry_wait"
	EventRateLimit      Event = "rate_limit"
	EventTimeSync       Event = "time_sync"
	EventOrderPlaced    Event = "order_placed"
	EventOrderFailed    Event = "order_failed"
)

// Fields carries structured event payload.
type Fields map[string]any

// Sink receives lifecycle events from the pipeline.
type Sink interface {
	Emit(event Event, fields Fields)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Emit(Event, Fields) {}
