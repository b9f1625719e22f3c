// Package scheduler provides a built-in plugin that triggers named events
// on the host's public bus according to cron schedules. It is framework
// tooling exercising the plugin contract: jobs are declared in the
// plugin's option value, and further jobs can be added at runtime through
// the Scheduler instance reached via Host.Plugin.
//
// Enabling with configuration:
//
//	plugboard.Use(scheduler.Descriptor())
//	host, err := plugboard.New(plugboard.Options{
//		scheduler.Name: scheduler.Config{Jobs: []scheduler.Job{
//			{Schedule: "@every 1m", Event: "refresh"},
//		}},
//	})
package scheduler

import (
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/plugboard/plugboard"
)

// Name is the plugin's unique registry name.
const Name = "scheduler"

var (
	ErrJobScheduleEmpty = errors.New("job schedule is empty")
	ErrJobEventEmpty    = errors.New("job event is empty")
)

// Job describes one scheduled trigger: a cron schedule expression and the
// event to trigger, with optional arguments forwarded to the handlers.
type Job struct {
	Schedule string `json:"schedule" yaml:"schedule" toml:"schedule"`
	Event    string `json:"event" yaml:"event" toml:"event"`
	Args     []any  `json:"args,omitempty" yaml:"args,omitempty" toml:"args,omitempty"`
}

// Config is the plugin's option payload.
type Config struct {
	Jobs []Job `json:"jobs" yaml:"jobs" toml:"jobs"`
}

// Descriptor returns the registry descriptor for this plugin. It applies
// post-order so schedules only start once default-ordered plugins have
// wired their handlers.
func Descriptor() plugboard.PluginDescriptor {
	return plugboard.PluginDescriptor{
		Name:  Name,
		Order: plugboard.OrderPost,
		New:   New,
	}
}

// Scheduler triggers events on its host's public bus from a cron runner.
// Scheduled triggers fire on the cron goroutine, so handlers reached this
// way must tolerate running off the constructing goroutine.
type Scheduler struct {
	host *plugboard.Host
	cron *cron.Cron

	mu      sync.Mutex
	entries []cron.EntryID
	stopped bool
}

// New constructs the plugin for a host. Jobs from the plugin's
// configuration are scheduled before the runner starts; an invalid job
// aborts host construction. The runner stops itself on the destroy hook.
func New(host *plugboard.Host) (plugboard.Plugin, error) {
	s := &Scheduler{
		host: host,
		cron: cron.New(),
	}

	cfg, err := parseConfig(host.PluginConfig(Name))
	if err != nil {
		return nil, err
	}
	for _, job := range cfg.Jobs {
		if err := s.Schedule(job.Schedule, job.Event, job.Args...); err != nil {
			return nil, err
		}
	}

	host.Hooks().On(plugboard.HookDestroy, func(args ...any) plugboard.Result {
		s.Stop()
		return plugboard.Continue
	})

	s.cron.Start()
	return s, nil
}

// Name implements plugboard.Plugin.
func (s *Scheduler) Name() string { return Name }

// Schedule adds a job at runtime. The event fires on the host's public bus
// every time the schedule matches.
func (s *Scheduler) Schedule(schedule, event string, args ...any) error {
	if schedule == "" {
		return ErrJobScheduleEmpty
	}
	if event == "" {
		return ErrJobEventEmpty
	}

	id, err := s.cron.AddFunc(schedule, func() {
		s.host.Events().Trigger(event, args...)
	})
	if err != nil {
		return fmt.Errorf("scheduling %q for event %q: %w", schedule, event, err)
	}

	s.mu.Lock()
	s.entries = append(s.entries, id)
	s.mu.Unlock()

	s.host.Logger().Debug("Job scheduled", "schedule", schedule, "event", event)
	return nil
}

// JobCount reports how many jobs are currently scheduled.
func (s *Scheduler) JobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stop halts the cron runner. Already-running job functions finish; no new
// ones fire. Idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	s.cron.Stop()
}

// parseConfig accepts the shapes an option value realistically arrives in:
// a typed Config (or pointer), or the generic mapping produced by the
// options file feeders, converted through a YAML round trip.
func parseConfig(raw any) (Config, error) {
	switch v := raw.(type) {
	case nil:
		return Config{}, nil
	case Config:
		return v, nil
	case *Config:
		if v == nil {
			return Config{}, nil
		}
		return *v, nil
	}

	data, err := yaml.Marshal(raw)
	if err != nil {
		return Config{}, fmt.Errorf("invalid scheduler config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid scheduler config: %w", err)
	}
	return cfg, nil
}
