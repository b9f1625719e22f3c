package inspector_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plugboard/plugboard"
	"github.com/plugboard/plugboard/plugins/inspector"
)

type markerPlugin struct{}

func (markerPlugin) Name() string { return "marker" }

func newInspectedHost(t *testing.T) *plugboard.Host {
	t.Helper()
	r := plugboard.NewRegistry()
	r.Register(plugboard.PluginDescriptor{Name: "marker", Order: plugboard.OrderPre,
		New: func(h *plugboard.Host) (plugboard.Plugin, error) {
			return markerPlugin{}, nil
		}})
	r.Register(inspector.Descriptor())

	observer := plugboard.NewFunctionalObserver("audit", func(ctx context.Context, event cloudevents.Event) error {
		return nil
	})
	host, err := plugboard.New(
		plugboard.Options{"marker": true, inspector.Name: true},
		plugboard.WithRegistry(r),
		plugboard.WithObserver(observer),
	)
	require.NoError(t, err)
	return host
}

func get(t *testing.T, handler http.Handler, path string) map[string]any {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func handlerOf(t *testing.T, host *plugboard.Host) http.Handler {
	t.Helper()
	p, ok := host.Plugin(inspector.Name)
	require.True(t, ok)
	return p.(*inspector.Inspector).Handler()
}

func TestInspectorPlugins(t *testing.T) {
	host := newInspectedHost(t)
	payload := get(t, handlerOf(t, host), "/plugins")

	assert.Equal(t, host.ID(), payload["hostID"])
	assert.ElementsMatch(t, []any{"marker", inspector.Name}, payload["plugins"])
}

func TestInspectorEvents(t *testing.T) {
	host := newInspectedHost(t)
	payload := get(t, handlerOf(t, host), "/events")

	public, ok := payload["public"].([]any)
	require.True(t, ok)
	assert.Contains(t, public, plugboard.EventRefresh)

	hooks, ok := payload["hooks"].([]any)
	require.True(t, ok)
	assert.Contains(t, hooks, plugboard.HookDestroy)
}

func TestInspectorObservers(t *testing.T) {
	host := newInspectedHost(t)
	payload := get(t, handlerOf(t, host), "/observers")

	observers, ok := payload["observers"].([]any)
	require.True(t, ok)
	require.Len(t, observers, 1)
	entry, ok := observers[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "audit", entry["id"])
}

func TestInspectorUnknownRoute(t *testing.T) {
	host := newInspectedHost(t)
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	handlerOf(t, host).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
