package plugboard

import (
	"log/slog"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
)

// Handler is the function signature for event subscriptions. Handlers
// receive the arguments passed to Trigger and return a Result that tells
// the dispatcher whether to continue with the remaining handlers or halt
// the current dispatch pass.
type Handler func(args ...any) Result

// subscription binds one handler to one event type. For handlers
// registered via Once, original retains the caller's handler so Off can
// match by either the wrapper or the original reference.
type subscription struct {
	handler  Handler
	original Handler
}

// EventBus is a named publish/subscribe channel with a declared vocabulary
// of event types. Types must be declared via RegisterTypes before use;
// operating on an undeclared type is tolerated but logged as a diagnostic.
//
// Handlers for one event type are invoked in registration order. Trigger
// iterates a snapshot taken at call time, so handlers may subscribe,
// unsubscribe, or trigger re-entrantly without affecting the pass that is
// currently running.
type EventBus struct {
	mu    sync.RWMutex
	types map[string]bool
	subs  map[string][]*subscription

	logger      Logger
	diagnostics bool
	warnDepth   int32
	depth       atomic.Int32
}

// NewEventBus creates an empty bus seeded with the given event types.
// A nil logger falls back to slog.Default().
func NewEventBus(logger Logger, types ...string) *EventBus {
	if logger == nil {
		logger = slog.Default()
	}
	b := &EventBus{
		types:       make(map[string]bool),
		subs:        make(map[string][]*subscription),
		logger:      logger,
		diagnostics: true,
		warnDepth:   defaultWarnTriggerDepth,
	}
	b.RegisterTypes(types...)
	return b
}

// RegisterTypes adds each name to the declared-type set. Re-declaring an
// existing type is harmless.
func (b *EventBus) RegisterTypes(names ...string) {
	b.mu.Lock()
	for _, name := range names {
		b.types[name] = true
	}
	b.mu.Unlock()
}

// KnownTypes returns the declared event types in lexical order.
func (b *EventBus) KnownTypes() []string {
	b.mu.RLock()
	names := make([]string, 0, len(b.types))
	for name := range b.types {
		names = append(names, name)
	}
	b.mu.RUnlock()
	sort.Strings(names)
	return names
}

// On appends a subscription for the given event type. Subscribing to an
// undeclared type logs a diagnostic but still registers the handler.
func (b *EventBus) On(event string, handler Handler) {
	if handler == nil {
		return
	}
	b.checkType(event, "on")
	b.mu.Lock()
	b.subs[event] = append(b.subs[event], &subscription{handler: handler})
	b.mu.Unlock()
}

// Once registers a handler that fires at most once. The wrapper removes
// its own subscription before invoking the original handler and forwards
// the original's Result, so a halting once-handler still halts dispatch.
func (b *EventBus) Once(event string, handler Handler) {
	if handler == nil {
		return
	}
	b.checkType(event, "once")
	sub := &subscription{original: handler}
	sub.handler = func(args ...any) Result {
		b.removeSubscription(event, sub)
		return handler(args...)
	}
	b.mu.Lock()
	b.subs[event] = append(b.subs[event], sub)
	b.mu.Unlock()
}

// Off removes subscriptions for the given event type. With a nil handler
// every subscription for that type is removed. Otherwise the list is
// scanned in reverse and every subscription whose stored handler or
// wrapped original matches the given handler is removed, so handlers
// registered via Once can be removed by their original reference.
func (b *EventBus) Off(event string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if handler == nil {
		delete(b.subs, event)
		return
	}

	target := handlerPointer(handler)
	list := b.subs[event]
	for i := len(list) - 1; i >= 0; i-- {
		s := list[i]
		if handlerPointer(s.handler) == target ||
			(s.original != nil && handlerPointer(s.original) == target) {
			list = append(list[:i:i], list[i+1:]...)
		}
	}
	b.subs[event] = list
}

// OffAll clears the subscriptions of every event type. The declared-type
// set is preserved; use Destroy to reset the bus completely.
func (b *EventBus) OffAll() {
	b.mu.Lock()
	b.subs = make(map[string][]*subscription)
	b.mu.Unlock()
}

// Trigger dispatches an event to the type's subscriptions in registration
// order. Dispatch iterates a snapshot of the current subscription list, so
// mutations made by handlers only affect future triggers. If a handler
// returns a stopped Result, no later handler in the pass fires and that
// Result is returned; otherwise Continue is returned after the last
// handler.
//
// Trigger is re-entrant. There is no recursion guard, but a diagnostic is
// logged when the re-entrant depth exceeds the configured threshold.
func (b *EventBus) Trigger(event string, args ...any) Result {
	b.checkType(event, "trigger")

	depth := b.depth.Add(1)
	defer b.depth.Add(-1)
	if b.warnDepth > 0 && depth > b.warnDepth && b.diagnostics {
		b.logger.Warn("Re-entrant trigger depth exceeds threshold", "type", event, "depth", depth)
	}

	b.mu.RLock()
	list := b.subs[event]
	snapshot := make([]*subscription, len(list))
	copy(snapshot, list)
	b.mu.RUnlock()

	for _, s := range snapshot {
		if res := s.handler(args...); res.Stopped() {
			return res
		}
	}
	return Continue
}

// SubscriberCount reports how many subscriptions exist for an event type.
func (b *EventBus) SubscriberCount(event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[event])
}

// Destroy resets the bus to its initial empty state: both the subscription
// map and the declared-type set are cleared.
func (b *EventBus) Destroy() {
	b.mu.Lock()
	b.subs = make(map[string][]*subscription)
	b.types = make(map[string]bool)
	b.mu.Unlock()
}

// removeSubscription removes exactly one subscription node by identity.
// Used by Once wrappers to unsubscribe themselves before dispatching.
func (b *EventBus) removeSubscription(event string, sub *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.subs[event]
	for i := len(list) - 1; i >= 0; i-- {
		if list[i] == sub {
			b.subs[event] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// checkType logs a diagnostic when an operation names an undeclared event
// type. The operation proceeds regardless; leniency here is intentional.
func (b *EventBus) checkType(event, op string) {
	b.mu.RLock()
	known := b.types[event]
	b.mu.RUnlock()

	if !known && b.diagnostics {
		b.logger.Warn("Event type not registered", "type", event, "op", op)
	}
}

// handlerPointer returns the code pointer identifying a handler. Distinct
// closures created from the same function literal share a code pointer, so
// Off can remove more than the caller intended in that case.
func handlerPointer(h Handler) uintptr {
	if h == nil {
		return 0
	}
	return reflect.ValueOf(h).Pointer()
}
