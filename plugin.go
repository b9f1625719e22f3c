// Package plugboard provides an in-process extensibility framework for Go.
// A host owns merged options, a public event bus, and an internal hooks
// bus; independently authored plugins register once into a shared registry
// and are instantiated per host when enabled by configuration.
//
// Plugins never reference each other directly. All cross-plugin
// interaction is mediated by the host's buses: a plugin declares hook
// event types, subscribes handlers, and triggers named events that other
// plugins or external callers observe.
//
// Basic usage:
//
//	plugboard.Use(logger.Descriptor())
//	plugboard.Use(refresh.Descriptor())
//
//	host, err := plugboard.New(plugboard.Options{
//		"logger":  true,
//		"refresh": true,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	host.Events().On(plugboard.EventRefresh, func(args ...any) plugboard.Result {
//		// react to refreshes
//		return plugboard.Continue
//	})
package plugboard

// Plugin represents an activated plugin instance owned by a host.
//
// A plugin is constructed synchronously during host construction with the
// host as its sole argument. The constructor is where a plugin initializes
// itself: it declares its hook event types on the host's hooks bus,
// subscribes handlers, and may trigger events. Anything the plugin wants
// to offer external callers is exposed as methods on the returned instance
// and reached through Host.Plugin by name.
//
// Plugins must not hold references to other plugin instances. Observing
// and triggering named events on the host's buses is the only sanctioned
// form of cross-plugin interaction.
type Plugin interface {
	// Name returns the plugin's unique name, matching the name in its
	// registered descriptor.
	Name() string
}
