package plugboard

import (
	"fmt"
	"reflect"

	"github.com/golobby/cast"
)

// Options is the merged key/value configuration owned by a host. One key
// per registered plugin name gates that plugin's activation; remaining
// keys carry host-level settings. Option files produced by the feeders in
// this package decode into Options directly.
type Options map[string]any

// Option keys consumed by the host itself.
const (
	// OptionDiagnostics toggles the non-fatal diagnostics both buses log
	// for undeclared event types and excessive trigger depth.
	OptionDiagnostics = "diagnostics"
	// OptionWarnTriggerDepth sets the re-entrant trigger depth above
	// which a bus logs a warning. Zero disables the check.
	OptionWarnTriggerDepth = "warnTriggerDepth"
)

const defaultWarnTriggerDepth = 64

// DefaultOptions returns the host's built-in defaults. Caller-supplied
// options are merged over these, last write wins.
func DefaultOptions() Options {
	return Options{
		OptionDiagnostics:      true,
		OptionWarnTriggerDepth: defaultWarnTriggerDepth,
	}
}

// MergeOptions produces a new Options map holding base overlaid with
// overrides. The merge is shallow: every key present in overrides replaces
// the base value at that key wholesale, with no deep merging of nested
// maps.
func MergeOptions(base, overrides Options) Options {
	merged := make(Options, len(base)+len(overrides))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

// Bool reads a boolean option, coercing scalar values the way the file
// feeders may deliver them (strings from environment-style sources,
// numbers from TOML/YAML). The fallback is returned for missing keys and
// values that cannot be coerced.
func (o Options) Bool(key string, fallback bool) bool {
	v, ok := coerceOption(o, key, reflect.TypeOf(fallback))
	if !ok {
		return fallback
	}
	return v.(bool)
}

// Int reads an integer option with the same coercion rules as Bool.
func (o Options) Int(key string, fallback int) int {
	v, ok := coerceOption(o, key, reflect.TypeOf(fallback))
	if !ok {
		return fallback
	}
	return v.(int)
}

// String reads a string option with the same coercion rules as Bool.
func (o Options) String(key string, fallback string) string {
	v, ok := coerceOption(o, key, reflect.TypeOf(fallback))
	if !ok {
		return fallback
	}
	return v.(string)
}

// coerceOption converts a raw option value to the target type via its
// string form, the same conversion the config feeders use for environment
// values.
func coerceOption(o Options, key string, target reflect.Type) (any, bool) {
	raw, ok := o[key]
	if !ok || raw == nil {
		return nil, false
	}
	rv := reflect.ValueOf(raw)
	if rv.Type() == target {
		return raw, true
	}
	converted, err := cast.FromType(fmt.Sprint(raw), target)
	if err != nil {
		return nil, false
	}
	if reflect.TypeOf(converted) != target {
		return nil, false
	}
	return converted, true
}

// ActivationState is the resolved gating decision for one plugin name.
type ActivationState int

const (
	// ActivationDisabled means the plugin is not instantiated.
	ActivationDisabled ActivationState = iota
	// ActivationEnabled means the plugin is instantiated with no
	// plugin-specific configuration.
	ActivationEnabled
	// ActivationEnabledWithConfig means the plugin is instantiated and
	// its option value carries plugin-specific configuration.
	ActivationEnabledWithConfig
)

// Activation is the tagged activation variant resolved once per plugin
// name during the options-merge step of host construction.
type Activation struct {
	State  ActivationState
	Config any
}

// Enabled reports whether the plugin should be instantiated.
func (a Activation) Enabled() bool {
	return a.State != ActivationDisabled
}

// resolveActivation maps a raw option value to an activation variant:
// booleans and numbers gate on truthiness, parseable boolean strings gate
// on their parsed value, and any other non-empty value both enables the
// plugin and becomes its configuration.
func resolveActivation(value any) Activation {
	switch v := value.(type) {
	case nil:
		return Activation{State: ActivationDisabled}
	case bool:
		if v {
			return Activation{State: ActivationEnabled}
		}
		return Activation{State: ActivationDisabled}
	case string:
		if v == "" {
			return Activation{State: ActivationDisabled}
		}
		if parsed, err := cast.FromType(v, reflect.TypeOf(false)); err == nil {
			if parsed.(bool) {
				return Activation{State: ActivationEnabled}
			}
			return Activation{State: ActivationDisabled}
		}
		return Activation{State: ActivationEnabledWithConfig, Config: v}
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		if rv.IsZero() {
			return Activation{State: ActivationDisabled}
		}
		return Activation{State: ActivationEnabled}
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		if rv.IsNil() {
			return Activation{State: ActivationDisabled}
		}
	}
	return Activation{State: ActivationEnabledWithConfig, Config: value}
}

// resolveActivations resolves the activation variant for every name known
// to the registry against the merged options.
func resolveActivations(registry *Registry, options Options) map[string]Activation {
	activations := make(map[string]Activation)
	for _, d := range registry.Descriptors() {
		if _, done := activations[d.Name]; done {
			continue
		}
		activations[d.Name] = resolveActivation(options[d.Name])
	}
	return activations
}
