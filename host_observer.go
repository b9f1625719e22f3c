package plugboard

import (
	"context"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// observerRegistration holds information about a registered observer
type observerRegistration struct {
	observer     Observer
	eventTypes   map[string]bool // set of event types this observer is interested in
	registeredAt time.Time
}

// RegisterObserver adds an observer to receive the host's lifecycle
// notifications. Observers can optionally filter events by type using the
// eventTypes parameter; if eventTypes is empty, the observer receives all
// events.
func (h *Host) RegisterObserver(observer Observer, eventTypes ...string) error {
	if observer == nil {
		return ErrObserverNil
	}

	h.observerMutex.Lock()
	defer h.observerMutex.Unlock()

	eventTypeMap := make(map[string]bool)
	for _, eventType := range eventTypes {
		eventTypeMap[eventType] = true
	}

	h.observers[observer.ObserverID()] = &observerRegistration{
		observer:     observer,
		eventTypes:   eventTypeMap,
		registeredAt: time.Now(),
	}
	return nil
}

// UnregisterObserver removes an observer from receiving notifications.
// This method is idempotent and won't error if the observer wasn't
// registered.
func (h *Host) UnregisterObserver(observer Observer) error {
	if observer == nil {
		return ErrObserverNil
	}

	h.observerMutex.Lock()
	defer h.observerMutex.Unlock()

	delete(h.observers, observer.ObserverID())
	return nil
}

// NotifyObservers sends a CloudEvent to every interested observer.
// Notification is synchronous and runs in registration-map order; observer
// errors are logged, never propagated, so one failing observer cannot
// starve the rest.
func (h *Host) NotifyObservers(ctx context.Context, event cloudevents.Event) error {
	if event.Time().IsZero() {
		event.SetTime(time.Now())
	}
	if err := ValidateCloudEvent(event); err != nil {
		h.logger.Error("Invalid CloudEvent", "eventType", event.Type(), "error", err)
		return err
	}

	h.observerMutex.RLock()
	registrations := make([]*observerRegistration, 0, len(h.observers))
	for _, registration := range h.observers {
		registrations = append(registrations, registration)
	}
	h.observerMutex.RUnlock()

	for _, registration := range registrations {
		if len(registration.eventTypes) > 0 && !registration.eventTypes[event.Type()] {
			continue
		}
		if err := registration.observer.OnEvent(ctx, event); err != nil {
			h.logger.Error("Observer error",
				"observerID", registration.observer.ObserverID(),
				"event", event.Type(),
				"error", err)
		}
	}
	return nil
}

// GetObservers returns information about currently registered observers.
func (h *Host) GetObservers() []ObserverInfo {
	h.observerMutex.RLock()
	defer h.observerMutex.RUnlock()

	info := make([]ObserverInfo, 0, len(h.observers))
	for _, registration := range h.observers {
		eventTypes := make([]string, 0, len(registration.eventTypes))
		for eventType := range registration.eventTypes {
			eventTypes = append(eventTypes, eventType)
		}
		info = append(info, ObserverInfo{
			ID:           registration.observer.ObserverID(),
			EventTypes:   eventTypes,
			RegisteredAt: registration.registeredAt,
		})
	}
	return info
}

// emitEvent builds and delivers a lifecycle CloudEvent sourced from this
// host. Delivery failures are logged, never returned; lifecycle
// notification must not interfere with host operations.
func (h *Host) emitEvent(ctx context.Context, eventType string, data map[string]any) {
	event := NewCloudEvent(eventType, "host/"+h.id, data, nil)
	if err := h.NotifyObservers(ctx, event); err != nil {
		h.logger.Error("Failed to notify observers", "event", eventType, "error", err)
	}
}
