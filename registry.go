package plugboard

import (
	"reflect"
	"sort"
	"sync"
)

// ApplyOrder controls the relative activation order of plugins during host
// construction. Plugins tagged OrderPre are applied before OrderDefault,
// which is applied before OrderPost. The sort is stable: plugins sharing a
// tag keep their registration order.
type ApplyOrder int

const (
	// OrderPre applies a plugin before default-ordered plugins.
	OrderPre ApplyOrder = -1
	// OrderDefault is the order used when a descriptor doesn't care.
	OrderDefault ApplyOrder = 0
	// OrderPost applies a plugin after default-ordered plugins.
	OrderPost ApplyOrder = 1
)

// Constructor creates a plugin instance for the given host. It runs
// synchronously to completion during host construction and may use the
// host's buses while it runs. A returned error aborts the remainder of
// plugin activation for that host.
type Constructor func(host *Host) (Plugin, error)

// PluginDescriptor describes one registrable plugin: a unique name, an
// apply-order tag, and the constructor invoked when a host enables it.
// Descriptors are immutable once registered.
type PluginDescriptor struct {
	Name  string
	Order ApplyOrder
	New   Constructor
}

// Registry is an ordered catalogue of plugin descriptors shared by every
// host constructed from it. Registration happens once, typically at
// package init time, and has no relation to any particular host instance.
// The catalogue only grows; it never shrinks outside of Reset.
type Registry struct {
	mu          sync.RWMutex
	descriptors []PluginDescriptor
	names       map[string]bool
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]bool)}
}

// DefaultRegistry is the registry consulted by New when no explicit
// registry is supplied via WithRegistry. Use registers into it.
var DefaultRegistry = NewRegistry()

// Use registers a plugin descriptor with the DefaultRegistry. It returns
// the registry so registrations can be chained:
//
//	plugboard.Use(logger.Descriptor()).Register(refresh.Descriptor())
func Use(d PluginDescriptor) *Registry {
	return DefaultRegistry.Register(d)
}

// Register appends a descriptor to the catalogue and returns the registry
// for chaining. Registering the exact same constructor again is a no-op.
// Two different constructors sharing a name are both appended; the later
// activation overwrites the earlier in the host's plugin map. That
// subtlety is deliberate and relied upon by nothing, but it is not an
// error either.
func (r *Registry) Register(d PluginDescriptor) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()

	ptr := constructorPointer(d.New)
	for _, existing := range r.descriptors {
		if ptr != 0 && constructorPointer(existing.New) == ptr {
			return r
		}
	}

	r.descriptors = append(r.descriptors, d)
	r.names[d.Name] = true
	return r
}

// Known reports whether a plugin name has ever been registered.
func (r *Registry) Known(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names[name]
}

// Len returns the number of registered descriptors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.descriptors)
}

// Descriptors returns a copy of the catalogue in registration order.
func (r *Registry) Descriptors() []PluginDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]PluginDescriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// sorted returns a stable-sorted copy of the catalogue keyed by apply
// order. The shared slice is never mutated, so the activation order seen
// by one host cannot be perturbed by another host's construction.
func (r *Registry) sorted() []PluginDescriptor {
	out := r.Descriptors()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})
	return out
}

// Reset clears the catalogue. Intended for test isolation; production code
// registers once at load time and never unregisters.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.descriptors = nil
	r.names = make(map[string]bool)
	r.mu.Unlock()
}

// constructorPointer returns the code pointer identifying a constructor,
// used to make repeated registration of the same constructor a no-op.
func constructorPointer(c Constructor) uintptr {
	if c == nil {
		return 0
	}
	return reflect.ValueOf(c).Pointer()
}
