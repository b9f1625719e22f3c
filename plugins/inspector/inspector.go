// Package inspector provides a built-in plugin exposing a read-only JSON
// view of a host's composition: activated plugins, declared event types on
// both buses, and registered lifecycle observers. The plugin builds an
// http.Handler and nothing more; mounting it on a server is the caller's
// business.
//
//	plugboard.Use(inspector.Descriptor())
//	host, _ := plugboard.New(plugboard.Options{inspector.Name: true})
//	p, _ := host.Plugin(inspector.Name)
//	http.ListenAndServe(":8080", p.(*inspector.Inspector).Handler())
package inspector

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/plugboard/plugboard"
)

// Name is the plugin's unique registry name.
const Name = "inspector"

// Descriptor returns the registry descriptor for this plugin. It applies
// post-order so the view includes every plugin activated before it.
func Descriptor() plugboard.PluginDescriptor {
	return plugboard.PluginDescriptor{
		Name:  Name,
		Order: plugboard.OrderPost,
		New:   New,
	}
}

// Inspector serves the host introspection routes.
type Inspector struct {
	host   *plugboard.Host
	router chi.Router
}

// New constructs the plugin for a host.
func New(host *plugboard.Host) (plugboard.Plugin, error) {
	i := &Inspector{host: host}

	r := chi.NewRouter()
	r.Get("/plugins", i.handlePlugins)
	r.Get("/events", i.handleEvents)
	r.Get("/observers", i.handleObservers)
	i.router = r

	return i, nil
}

// Name implements plugboard.Plugin.
func (i *Inspector) Name() string { return Name }

// Handler returns the introspection routes, ready to mount under any
// prefix.
func (i *Inspector) Handler() http.Handler { return i.router }

func (i *Inspector) handlePlugins(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"hostID":  i.host.ID(),
		"plugins": i.host.PluginNames(),
	})
}

func (i *Inspector) handleEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"public": i.host.Events().KnownTypes(),
		"hooks":  i.host.Hooks().KnownTypes(),
	})
}

func (i *Inspector) handleObservers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"observers": i.host.GetObservers(),
	})
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
