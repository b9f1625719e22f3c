// Observer pattern interfaces for the host's lifecycle events. Events use
// the CloudEvents specification for standardized format and better
// interoperability with external systems.
package plugboard

import (
	"context"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// Observer defines the interface for objects that want to be notified of
// host lifecycle events. Observers register with Subjects to receive
// notifications when events occur.
type Observer interface {
	// OnEvent is called when an event occurs that the observer is
	// interested in. Observers should handle events quickly; lifecycle
	// notification is synchronous.
	OnEvent(ctx context.Context, event cloudevents.Event) error

	// ObserverID returns a unique identifier for this observer, used for
	// registration tracking and debugging.
	ObserverID() string
}

// Subject defines the interface for objects that can be observed. The
// host implements Subject for its lifecycle events.
type Subject interface {
	// RegisterObserver adds an observer to receive notifications.
	// Observers can optionally filter events by type using the
	// eventTypes parameter; an empty list receives all events.
	RegisterObserver(observer Observer, eventTypes ...string) error

	// UnregisterObserver removes an observer. Idempotent; unregistering
	// an unknown observer is not an error.
	UnregisterObserver(observer Observer) error

	// NotifyObservers sends an event to all registered observers.
	NotifyObservers(ctx context.Context, event cloudevents.Event) error

	// GetObservers returns information about currently registered
	// observers, useful for debugging and monitoring.
	GetObservers() []ObserverInfo
}

// ObserverInfo provides information about a registered observer.
type ObserverInfo struct {
	// ID is the unique identifier of the observer
	ID string `json:"id"`

	// EventTypes are the event types this observer is subscribed to.
	// Empty slice means all events.
	EventTypes []string `json:"eventTypes"`

	// RegisteredAt indicates when the observer was registered
	RegisteredAt time.Time `json:"registeredAt"`
}

// CloudEvent types emitted by the host over its lifecycle, in reverse
// domain notation per the CloudEvents specification.
const (
	EventTypeHostCreated    = "com.plugboard.host.created"
	EventTypeHostDestroyed  = "com.plugboard.host.destroyed"
	EventTypePluginApplied  = "com.plugboard.plugin.applied"
	EventTypePluginFailed   = "com.plugboard.plugin.failed"
	EventTypeOptionsChanged = "com.plugboard.options.changed"
)

// FunctionalObserver provides a simple way to create observers using
// functions, without defining full structs.
type FunctionalObserver struct {
	id      string
	handler func(ctx context.Context, event cloudevents.Event) error
}

// NewFunctionalObserver creates an observer that delegates to the provided
// function.
func NewFunctionalObserver(id string, handler func(ctx context.Context, event cloudevents.Event) error) Observer {
	return &FunctionalObserver{
		id:      id,
		handler: handler,
	}
}

// OnEvent implements the Observer interface by calling the handler function.
func (f *FunctionalObserver) OnEvent(ctx context.Context, event cloudevents.Event) error {
	return f.handler(ctx, event)
}

// ObserverID implements the Observer interface by returning the observer ID.
func (f *FunctionalObserver) ObserverID() string {
	return f.id
}
