// Package config provides configuration types and defaults for audioeq.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/david-sim0niants/audio-eq/internal/filter/lowpass"
	"github.com/david-sim0niants/audio-eq/internal/flags"
	"github.com/david-sim0niants/audio-eq/internal/log"
	"github.com/david-sim0niants/audio-eq/internal/pubsub"
	"github.com/david-sim0niants/audio-eq/internal/session"
	"github.com/david-sim0niants/audio-eq/internal/tracing"
)

// Config holds all configuration options for audioeq.
type Config struct {
	Events  EventsConfig   `mapstructure:"events"`
	Session SessionConfig  `mapstructure:"session"`
	Filter  FilterConfig   `mapstructure:"filter"`
	Tracing tracing.Config `mapstructure:"tracing"`

	// Flags switches optional behavior on or off; see package flags.
	Flags map[string]bool `mapstructure:"flags"`
}

// EventsConfig holds the event log sources applied at startup.
type EventsConfig struct {
	// Path is an event log replayed into the registry before the shell starts.
	Path string `mapstructure:"path"`

	// Follow keeps applying lines appended to Path. JSONL only.
	Follow bool `mapstructure:"follow"`

	// Debounce coalesces bursts of writes to Path while following.
	Debounce time.Duration `mapstructure:"debounce"`

	// Journal, when set, records every event the shell itself emits.
	Journal string `mapstructure:"journal"`

	// SubscriberBuffer is how many graph changes a slow subscriber (the name
	// cache, monitor) may lag behind before it misses some.
	SubscriberBuffer int `mapstructure:"subscriber_buffer"`
}

// SessionConfig holds settings for the link helper and name lookup.
type SessionConfig struct {
	// LinkIDBase is the first id handed out to links created by the shell.
	LinkIDBase uint32 `mapstructure:"link_id_base"`

	// LookupTTL bounds how long a "node:port" resolution stays cached.
	LookupTTL time.Duration `mapstructure:"lookup_ttl"`
}

// FilterConfig holds low-pass filter settings.
type FilterConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	Name       string  `mapstructure:"name"`
	CutoffHz   float32 `mapstructure:"cutoff_hz"`
	SampleRate int     `mapstructure:"sample_rate"`
	Channels   int     `mapstructure:"channels"`
}

// DefaultTracesFilePath returns the default path for trace file export.
// Returns ~/.config/audioeq/traces/traces.jsonl or empty string if home dir unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "audioeq", "traces", "traces.jsonl")
}

// Defaults returns the default configuration.
func Defaults() Config {
	return Config{
		Events: EventsConfig{
			Debounce:         100 * time.Millisecond,
			SubscriberBuffer: pubsub.DefaultBufferSize,
		},
		Session: SessionConfig{
			LinkIDBase: uint32(session.DefaultIDBase),
			LookupTTL:  time.Minute,
		},
		Filter: FilterConfig{
			Enabled:    true,
			Name:       "audioeq-lowpass",
			CutoffHz:   1000,
			SampleRate: 48000,
			Channels:   2,
		},
		Tracing: tracing.DefaultConfig(),
		Flags: map[string]bool{
			flags.FlagSaveCutoff:   true,
			flags.FlagVerifyReplay: false,
		},
	}
}

// Validate checks every section and returns the first error found.
func (c Config) Validate() error {
	if err := ValidateEvents(c.Events); err != nil {
		return err
	}
	if err := ValidateSession(c.Session); err != nil {
		return err
	}
	if err := ValidateFilter(c.Filter); err != nil {
		return err
	}
	return ValidateTracing(c.Tracing)
}

// ValidateEvents checks event log configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateEvents(events EventsConfig) error {
	if events.Debounce < 0 {
		return fmt.Errorf("events.debounce must not be negative, got %v", events.Debounce)
	}
	if events.SubscriberBuffer < 0 {
		return fmt.Errorf("events.subscriber_buffer must not be negative, got %d", events.SubscriberBuffer)
	}
	if events.Follow && events.Path == "" {
		return fmt.Errorf("events.path is required when events.follow is set")
	}
	return nil
}

// ValidateSession checks session configuration for errors.
func ValidateSession(s SessionConfig) error {
	if s.LookupTTL < 0 {
		return fmt.Errorf("session.lookup_ttl must not be negative, got %v", s.LookupTTL)
	}
	return nil
}

// ValidateFilter checks low-pass filter configuration for errors.
// A disabled filter is not validated.
func ValidateFilter(f FilterConfig) error {
	if !f.Enabled {
		return nil
	}
	if err := lowpass.ValidateCutoff(f.CutoffHz); err != nil {
		return fmt.Errorf("filter.cutoff_hz: %w", err)
	}
	if f.SampleRate <= 0 {
		return fmt.Errorf("filter.sample_rate: %w", lowpass.ErrInvalidSampleRate)
	}
	if f.Channels < 1 || f.Channels > lowpass.MaxChannels {
		return fmt.Errorf("filter.channels must be 1 or %d, got %d", lowpass.MaxChannels, f.Channels)
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(t tracing.Config) error {
	if t.SampleRate < 0.0 || t.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", t.SampleRate)
	}

	if t.Exporter != "" {
		switch t.Exporter {
		case "none", "file", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", t.Exporter)
		}
	}

	// Path requirements only matter when spans are actually exported.
	if t.Enabled {
		if t.Exporter == "file" && t.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if t.Exporter == "otlp" && t.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}
	return nil
}

// DefaultConfigTemplate returns a commented config file matching Defaults.
func DefaultConfigTemplate() string {
	return `# audioeq configuration

# Event logs
events:
  # path: ./session.jsonl   # Replayed into the graph before the shell starts (.jsonl or .yaml)
  follow: false             # Keep applying lines appended to path (JSONL only)
  debounce: 100ms           # Coalesce bursts of writes while following
  # journal: ./journal.jsonl  # Record the links and nodes the shell announces
  subscriber_buffer: 64     # Graph changes a slow subscriber may lag behind

# Link helper and name lookup
session:
  link_id_base: 65536       # First id given to links created with 'link'
  lookup_ttl: 1m            # How long "node:port" lookups stay cached

# Low-pass filter
filter:
  enabled: true
  name: audioeq-lowpass
  cutoff_hz: 1000           # 16 to 20000; changed at runtime with 'freq'
  sample_rate: 48000
  channels: 2               # 1 (mono) or 2 (stereo)

# Tracing of graph notifications
tracing:
  enabled: false
  exporter: file            # none, file, stdout or otlp
  # file_path: ~/.config/audioeq/traces/traces.jsonl
  otlp_endpoint: localhost:4317
  sample_rate: 1.0

# Feature flags
flags:
  save-cutoff: true         # 'freq' writes the new cutoff back to this file
  verify-replay: false      # Check the graph's invariants after the startup replay
`
}

// WriteDefaultConfig creates a config file at the given path with default settings.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
