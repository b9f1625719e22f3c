package plugboard

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Built-in event types declared on every host's public bus.
const (
	EventRefresh        = "refresh"
	EventDestroy        = "destroy"
	EventOptionsChanged = "optionsChanged"
)

// Built-in hook types declared on every host's hooks bus. Hooks carry
// plugin-to-plugin and plugin-to-host signaling; plugins declare further
// types during construction.
const (
	HookRefresh = "refresh"
	HookEnable  = "enable"
	HookDisable = "disable"
	HookDestroy = "destroy"
)

// Host is the composition root: it owns the merged options, a public event
// bus, an internal hooks bus, and the plugin instances activated from its
// registry. The plugin map is populated during construction and never
// mutated afterward.
type Host struct {
	id          string
	logger      Logger
	registry    *Registry
	options     Options
	activations map[string]Activation
	events      *EventBus
	hooks       *EventBus
	plugins     map[string]Plugin

	observers     map[string]*observerRegistration
	observerMutex sync.RWMutex

	destroyed bool
}

// HostOption configures a host before its plugins are applied.
type HostOption func(*Host) error

// WithLogger sets the host's logger. The Logger interface is satisfied
// structurally by *slog.Logger.
func WithLogger(logger Logger) HostOption {
	return func(h *Host) error {
		if logger == nil {
			return ErrLoggerNil
		}
		h.logger = logger
		return nil
	}
}

// WithRegistry makes the host activate plugins from an explicit registry
// instead of the DefaultRegistry.
func WithRegistry(registry *Registry) HostOption {
	return func(h *Host) error {
		if registry == nil {
			return ErrRegistryNil
		}
		h.registry = registry
		return nil
	}
}

// WithObserver registers a lifecycle observer before any plugin is
// applied, so it sees the plugin activation events of this construction.
func WithObserver(observer Observer, eventTypes ...string) HostOption {
	return func(h *Host) error {
		return h.RegisterObserver(observer, eventTypes...)
	}
}

// New constructs a host. The sequence is fixed: caller options are merged
// over DefaultOptions (shallow, last write wins), each registered plugin
// name's option value is resolved into an activation variant, both buses
// are built and seeded with the host's built-in event types, and finally
// the registry's descriptors are applied in stable apply-order. Each
// enabled plugin's constructor runs synchronously to completion, with the
// host as its sole argument, before the next descriptor is processed.
//
// Disabled and unregistered names are skipped silently. A constructor
// error aborts construction and is returned wrapped; there is no partial
// activation recovery.
func New(options Options, hostOpts ...HostOption) (*Host, error) {
	h := &Host{
		registry:  DefaultRegistry,
		plugins:   make(map[string]Plugin),
		observers: make(map[string]*observerRegistration),
	}
	for _, opt := range hostOpts {
		if err := opt(h); err != nil {
			return nil, err
		}
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}

	h.id = newEventID()
	h.options = MergeOptions(DefaultOptions(), options)
	h.activations = resolveActivations(h.registry, h.options)

	h.events = NewEventBus(h.logger, EventRefresh, EventDestroy, EventOptionsChanged)
	h.hooks = NewEventBus(h.logger, HookRefresh, HookEnable, HookDisable, HookDestroy)
	diagnostics := h.options.Bool(OptionDiagnostics, true)
	warnDepth := int32(h.options.Int(OptionWarnTriggerDepth, defaultWarnTriggerDepth))
	for _, bus := range []*EventBus{h.events, h.hooks} {
		bus.diagnostics = diagnostics
		bus.warnDepth = warnDepth
	}

	if err := h.applyPlugins(); err != nil {
		return nil, err
	}

	h.emitEvent(context.Background(), EventTypeHostCreated, map[string]any{
		"hostID":  h.id,
		"plugins": h.PluginNames(),
	})
	return h, nil
}

// applyPlugins activates every enabled plugin from a stable-sorted copy of
// the registry's catalogue. Enabled names without an invocable constructor
// are skipped with a diagnostic.
func (h *Host) applyPlugins() error {
	ctx := context.Background()
	for _, d := range h.registry.sorted() {
		if !h.activations[d.Name].Enabled() {
			continue
		}
		if d.New == nil {
			h.logger.Debug("Plugin enabled but has no constructor", "plugin", d.Name)
			continue
		}

		instance, err := d.New(h)
		if err != nil {
			h.emitEvent(ctx, EventTypePluginFailed, map[string]any{
				"plugin": d.Name,
				"error":  err.Error(),
			})
			return fmt.Errorf("applying plugin %q: %w", d.Name, err)
		}

		h.plugins[d.Name] = instance
		h.logger.Debug("Plugin applied", "plugin", d.Name, "order", int(d.Order))
		h.emitEvent(ctx, EventTypePluginApplied, map[string]any{"plugin": d.Name})
	}
	return nil
}

// ID returns the host's unique identifier, used as the source of the
// lifecycle events it emits.
func (h *Host) ID() string { return h.id }

// Logger returns the host's logger.
func (h *Host) Logger() Logger { return h.logger }

// Events returns the public bus external collaborators subscribe to.
func (h *Host) Events() *EventBus { return h.events }

// Hooks returns the internal bus plugins wire themselves to.
func (h *Host) Hooks() *EventBus { return h.hooks }

// Options returns a copy of the host's merged options.
func (h *Host) Options() Options {
	return MergeOptions(h.options, nil)
}

// Plugin returns the activated plugin instance for a name. This is the
// host's capability surface: callers reach a plugin's public operations by
// querying it by name and asserting the concrete type.
func (h *Host) Plugin(name string) (Plugin, bool) {
	p, ok := h.plugins[name]
	return p, ok
}

// PluginNames returns the names of all activated plugins in lexical order.
func (h *Host) PluginNames() []string {
	names := make([]string, 0, len(h.plugins))
	for name := range h.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PluginConfig returns the configuration payload carried by a plugin's
// option value, or nil when the plugin was enabled without configuration.
func (h *Host) PluginConfig(name string) any {
	return h.activations[name].Config
}

// Destroy completes the host's lifecycle: the destroy hook fires first so
// plugins can release what they hold, then the public destroy event, then
// both buses are reset entirely. Destroy is idempotent.
func (h *Host) Destroy() {
	if h.destroyed {
		return
	}
	h.destroyed = true

	h.hooks.Trigger(HookDestroy)
	h.events.Trigger(EventDestroy)
	h.hooks.Destroy()
	h.events.Destroy()

	h.emitEvent(context.Background(), EventTypeHostDestroyed, map[string]any{"hostID": h.id})
	h.logger.Debug("Host destroyed", "hostID", h.id)
}
