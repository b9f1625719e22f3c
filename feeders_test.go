package plugboard

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempOptions(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadOptionsFileYAML(t *testing.T) {
	path := writeTempOptions(t, "options.yaml", `
diagnostics: false
warnTriggerDepth: 8
refresh: true
scheduler:
  jobs:
    - schedule: "@every 1m"
      event: refresh
`)

	opts, err := LoadOptionsFile(path)
	require.NoError(t, err)

	assert.False(t, opts.Bool(OptionDiagnostics, true))
	assert.Equal(t, 8, opts.Int(OptionWarnTriggerDepth, 0))
	assert.Equal(t, true, opts["refresh"])

	activation := resolveActivation(opts["scheduler"])
	assert.Equal(t, ActivationEnabledWithConfig, activation.State)
}

func TestLoadOptionsFileTOML(t *testing.T) {
	path := writeTempOptions(t, "options.toml", `
diagnostics = true
warnTriggerDepth = 16
refresh = true
`)

	opts, err := LoadOptionsFile(path)
	require.NoError(t, err)
	assert.True(t, opts.Bool(OptionDiagnostics, false))
	assert.Equal(t, 16, opts.Int(OptionWarnTriggerDepth, 0))
}

func TestLoadOptionsFileUnsupportedExtension(t *testing.T) {
	path := writeTempOptions(t, "options.ini", "a=1")
	_, err := LoadOptionsFile(path)
	assert.ErrorIs(t, err, ErrOptionsFileUnsupported)
}

func TestLoadOptionsFileMalformed(t *testing.T) {
	path := writeTempOptions(t, "options.yaml", "just a scalar")
	_, err := LoadOptionsFile(path)
	assert.ErrorIs(t, err, ErrOptionsFileInvalid)
}

func TestLoadOptionsFileMissing(t *testing.T) {
	_, err := LoadOptionsFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestWatchOptionsFileTriggersChangeEvent(t *testing.T) {
	path := writeTempOptions(t, "options.yaml", "refresh: false\n")

	host, err := New(nil, WithRegistry(NewRegistry()), WithLogger(&recordingLogger{}))
	require.NoError(t, err)

	var mu sync.Mutex
	var received Options
	host.Events().On(EventOptionsChanged, func(args ...any) Result {
		mu.Lock()
		defer mu.Unlock()
		if len(args) == 1 {
			received, _ = args[0].(Options)
		}
		return Continue
	})

	watcher, err := WatchOptionsFile(path, host)
	require.NoError(t, err)
	defer watcher.Close()

	require.NoError(t, os.WriteFile(path, []byte("refresh: true\n"), 0o600))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return received != nil && received.Bool("refresh", false)
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatchOptionsFileCloseIsIdempotent(t *testing.T) {
	path := writeTempOptions(t, "options.yaml", "refresh: false\n")
	host, err := New(nil, WithRegistry(NewRegistry()), WithLogger(&recordingLogger{}))
	require.NoError(t, err)

	watcher, err := WatchOptionsFile(path, host)
	require.NoError(t, err)
	require.NoError(t, watcher.Close())
	assert.NoError(t, watcher.Close())
}
