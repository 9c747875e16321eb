package eventbus

import (
	"context"
	"time"
)

// EventType represents the type of an event
type EventType string

// Lifecycle event types published by the planning pipeline
const (
	// Request processing events
	EventRequestReceived         EventType = "request_received"
	EventRequestValidationFailed EventType = "request_validation_failed"
	EventRequestCompleted        EventType = "request_completed"
	EventRequestCancelled        EventType = "request_cancelled"

	// Situation analysis events
	EventAnalysisStarted  EventType = "analysis_started"
	EventAnalysisSuccess  EventType = "analysis_success"
	EventAnalysisFallback EventType = "analysis_fallback"

	// Strategy planning events
	EventPlanningStarted  EventType = "planning_started"
	EventPlanningSuccess  EventType = "planning_success"
	EventPlanningDegraded EventType = "planning_degraded"

	// Action resolution events
	EventResolutionStarted  EventType = "resolution_started"
	EventResolutionSuccess  EventType = "resolution_success"
	EventResolutionDegraded EventType = "resolution_degraded"

	// Async request events
	EventAsyncPlanStarted   EventType = "async_plan_started"
	EventAsyncPlanSuccess   EventType = "async_plan_success"
	EventAsyncPlanFailure   EventType = "async_plan_failure"
	EventAsyncPlanCancelled EventType = "async_plan_cancelled"

	// System events
	EventRecorderWarning EventType = "recorder_warning"
	EventSystemWarning   EventType = "system_warning"
)

// EventHandler is a function that handles events
type EventHandler func(context.Context, Event) error

// Event represents something that has happened within the pipeline
type Event interface {
	// Type returns the event type
	Type() EventType

	// Payload returns the event data
	Payload() interface{}

	// Metadata returns additional information about the event
	Metadata() map[string]interface{}

	// Timestamp returns when the event occurred
	Timestamp() int64

	// Source returns information about what generated the event
	Source() string
}

// EventBus is the central event dispatch system
type EventBus interface {
	// Publish sends an event to all subscribed handlers
	Publish(ctx context.Context, event Event) error

	// Subscribe registers a handler for specific event types and returns a
	// subscription ID that can be used to unsubscribe
	Subscribe(eventTypes []EventType, handler EventHandler) (string, error)

	// SubscribeAll registers a handler for all event types
	SubscribeAll(handler EventHandler) (string, error)

	// Unsubscribe removes a subscription by ID
	Unsubscribe(subscriptionID string) error

	// Close shuts down the event bus, cleaning up resources
	Close() error
}

// BaseEvent is a simple implementation of the Event interface
type BaseEvent struct {
	eventType  EventType
	payload    interface{}
	metadata   map[string]interface{}
	timestamp  int64
	sourceInfo string
}

// NewEvent creates a new BaseEvent
func NewEvent(eventType EventType, payload interface{}, source string, metadata map[string]interface{}) *BaseEvent {
	if metadata == nil {
		metadata = make(map[string]interface{})
	}
	return &BaseEvent{
		eventType:  eventType,
		payload:    payload,
		metadata:   metadata,
		timestamp:  time.Now().UnixNano(),
		sourceInfo: source,
	}
}

// Type returns the event type
func (e *BaseEvent) Type() EventType { return e.eventType }

// Payload returns the event data
func (e *BaseEvent) Payload() interface{} { return e.payload }

// Metadata returns additional information about the event
func (e *BaseEvent) Metadata() map[string]interface{} { return e.metadata }

// Timestamp returns when the event occurred
func (e *BaseEvent) Timestamp() int64 { return e.timestamp }

// Source returns information about what generated the event
func (e *BaseEvent) Source() string { return e.sourceInfo }

// WithMetadata adds or updates a metadata entry and returns the same event,
// allowing fluent chaining.
func (e *BaseEvent) WithMetadata(key string, value interface{}) *BaseEvent {
	e.metadata[key] = value
	return e
}
