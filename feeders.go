package plugboard

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// LoadOptionsFile reads an Options mapping from a YAML or TOML file,
// selected by extension. The decoded values are exactly what New expects:
// one key per plugin name plus host-level settings.
func LoadOptionsFile(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading options file: %w", err)
	}

	options := make(Options)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &options); err != nil {
			return nil, fmt.Errorf("%w: %s: %s", ErrOptionsFileInvalid, path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &options); err != nil {
			return nil, fmt.Errorf("%w: %s: %s", ErrOptionsFileInvalid, path, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrOptionsFileUnsupported, ext)
	}
	return options, nil
}

// OptionsWatcher watches an options file and announces changes on a host's
// public bus. A host's own options are immutable after construction; the
// watcher only reloads the file and triggers EventOptionsChanged with the
// fresh Options so subscribers can decide what to do with them.
type OptionsWatcher struct {
	watcher   *fsnotify.Watcher
	done      chan struct{}
	closeOnce sync.Once
}

// WatchOptionsFile starts watching the given options file for the host.
// The file's directory is watched rather than the file itself so that
// editors replacing the file atomically are still observed. Callers must
// Close the returned watcher when done.
func WatchOptionsFile(path string, host *Host) (*OptionsWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating options watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watching options file %q: %w", path, err)
	}

	w := &OptionsWatcher{
		watcher: watcher,
		done:    make(chan struct{}),
	}
	go w.run(path, host)
	return w, nil
}

func (w *OptionsWatcher) run(path string, host *Host) {
	base := filepath.Base(path)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			options, err := LoadOptionsFile(path)
			if err != nil {
				host.Logger().Error("Failed to reload options file", "path", path, "error", err)
				continue
			}
			host.Events().Trigger(EventOptionsChanged, options)
			host.emitEvent(context.Background(), EventTypeOptionsChanged, map[string]any{"path": path})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			host.Logger().Error("Options watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

// Close stops the watcher. Safe to call more than once.
func (w *OptionsWatcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}
