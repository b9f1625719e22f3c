package plugboard

import (
	"context"
	"errors"
	"testing"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errObserverBoom = errors.New("observer boom")

func newTestHost(t *testing.T) *Host {
	t.Helper()
	host, err := New(nil, WithRegistry(NewRegistry()), WithLogger(&recordingLogger{}))
	require.NoError(t, err)
	return host
}

func TestRegisterObserverReceivesEvents(t *testing.T) {
	host := newTestHost(t)

	var seen []string
	obs := NewFunctionalObserver("all", func(ctx context.Context, event cloudevents.Event) error {
		seen = append(seen, event.Type())
		return nil
	})
	require.NoError(t, host.RegisterObserver(obs))

	host.emitEvent(context.Background(), EventTypeOptionsChanged, map[string]any{"k": "v"})
	assert.Equal(t, []string{EventTypeOptionsChanged}, seen)
}

func TestObserverEventTypeFiltering(t *testing.T) {
	host := newTestHost(t)

	var seen []string
	obs := NewFunctionalObserver("filtered", func(ctx context.Context, event cloudevents.Event) error {
		seen = append(seen, event.Type())
		return nil
	})
	require.NoError(t, host.RegisterObserver(obs, EventTypeHostDestroyed))

	host.emitEvent(context.Background(), EventTypeOptionsChanged, nil)
	host.emitEvent(context.Background(), EventTypeHostDestroyed, nil)
	assert.Equal(t, []string{EventTypeHostDestroyed}, seen)
}

func TestUnregisterObserverIsIdempotent(t *testing.T) {
	host := newTestHost(t)

	count := 0
	obs := NewFunctionalObserver("once", func(ctx context.Context, event cloudevents.Event) error {
		count++
		return nil
	})
	require.NoError(t, host.RegisterObserver(obs))
	require.NoError(t, host.UnregisterObserver(obs))
	require.NoError(t, host.UnregisterObserver(obs))

	host.emitEvent(context.Background(), EventTypeOptionsChanged, nil)
	assert.Equal(t, 0, count)
}

func TestObserverErrorDoesNotStopDelivery(t *testing.T) {
	logger := &recordingLogger{}
	host, err := New(nil, WithRegistry(NewRegistry()), WithLogger(logger))
	require.NoError(t, err)

	failing := NewFunctionalObserver("failing", func(ctx context.Context, event cloudevents.Event) error {
		return errObserverBoom
	})
	delivered := 0
	healthy := NewFunctionalObserver("healthy", func(ctx context.Context, event cloudevents.Event) error {
		delivered++
		return nil
	})
	require.NoError(t, host.RegisterObserver(failing))
	require.NoError(t, host.RegisterObserver(healthy))

	host.emitEvent(context.Background(), EventTypeOptionsChanged, nil)
	assert.Equal(t, 1, delivered)
}

func TestRegisterNilObserver(t *testing.T) {
	host := newTestHost(t)
	assert.ErrorIs(t, host.RegisterObserver(nil), ErrObserverNil)
	assert.ErrorIs(t, host.UnregisterObserver(nil), ErrObserverNil)
}

func TestGetObservers(t *testing.T) {
	host := newTestHost(t)

	obs := NewFunctionalObserver("watcher", func(ctx context.Context, event cloudevents.Event) error {
		return nil
	})
	require.NoError(t, host.RegisterObserver(obs, EventTypeHostCreated))

	infos := host.GetObservers()
	require.Len(t, infos, 1)
	assert.Equal(t, "watcher", infos[0].ID)
	assert.Equal(t, []string{EventTypeHostCreated}, infos[0].EventTypes)
	assert.False(t, infos[0].RegisteredAt.IsZero())
}

func TestNewCloudEventShape(t *testing.T) {
	event := NewCloudEvent(EventTypeHostCreated, "host/test", map[string]any{"k": "v"}, map[string]any{"tenant": "acme"})

	assert.Equal(t, EventTypeHostCreated, event.Type())
	assert.Equal(t, "host/test", event.Source())
	assert.NotEmpty(t, event.ID())
	assert.False(t, event.Time().IsZero())
	require.NoError(t, ValidateCloudEvent(event))

	ext := event.Extensions()
	assert.Equal(t, "acme", ext["tenant"])
}
