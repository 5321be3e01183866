// Package flags holds on/off switches for optional behavior, loaded from the
// "flags" section of the config. Unknown and unset flags read as disabled.
package flags

import (
	"maps"
	"slices"

	"github.com/david-sim0niants/audio-eq/internal/log"
)

const (
	// FlagSaveCutoff makes the shell's freq command write the new cutoff back
	// to the config file.
	FlagSaveCutoff = "save-cutoff"

	// FlagVerifyReplay checks the mirror's invariants after the startup
	// replay and reports any violation.
	FlagVerifyReplay = "verify-replay"
)

// Known lists every flag this build reads.
var Known = []string{FlagSaveCutoff, FlagVerifyReplay}

// Registry holds flag state. It is read-only once built; With returns a
// modified copy.
type Registry struct {
	flags map[string]bool
}

// New creates a Registry from a config map. A nil map disables every flag.
// Names that no code reads are logged once here.
func New(flags map[string]bool) *Registry {
	r := &Registry{flags: make(map[string]bool, len(flags))}
	maps.Copy(r.flags, flags)
	for _, name := range r.Unknown() {
		log.Warn(log.CatConfig, "Unknown feature flag in config", "flag", name)
	}
	log.Debug(log.CatConfig, "Feature flags initialized", "count", len(r.flags), "flags", r.All())
	return r
}

// Enabled reports whether the named flag is on. It is false for unknown
// flags and on a nil registry.
func (r *Registry) Enabled(name string) bool {
	if r == nil {
		return false
	}
	return r.flags[name]
}

// With returns a copy of r with name set to enabled.
func (r *Registry) With(name string, enabled bool) *Registry {
	c := &Registry{flags: r.All()}
	c.flags[name] = enabled
	return c
}

// All returns a copy of all flags. Empty for a nil registry.
func (r *Registry) All() map[string]bool {
	result := make(map[string]bool)
	if r != nil {
		maps.Copy(result, r.flags)
	}
	return result
}

// Unknown returns the configured names that are not in Known, sorted.
func (r *Registry) Unknown() []string {
	if r == nil {
		return nil
	}
	var unknown []string
	for name := range r.flags {
		if !slices.Contains(Known, name) {
			unknown = append(unknown, name)
		}
	}
	slices.Sort(unknown)
	return unknown
}
