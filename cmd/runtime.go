package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/david-sim0niants/audio-eq/internal/config"
	"github.com/david-sim0niants/audio-eq/internal/eventlog"
	"github.com/david-sim0niants/audio-eq/internal/filter/lowpass"
	"github.com/david-sim0niants/audio-eq/internal/graph"
	"github.com/david-sim0niants/audio-eq/internal/log"
	"github.com/david-sim0niants/audio-eq/internal/lookup"
	"github.com/david-sim0niants/audio-eq/internal/session"
	"github.com/david-sim0niants/audio-eq/internal/tracing"
)

// runtime holds the mirror and everything that feeds it.
type runtime struct {
	registry   *graph.Registry
	listener   session.Listener
	loopback   *session.Loopback
	resolver   *lookup.Resolver
	filter     *lowpass.Filter
	filterNode session.AnnouncedNode
	tracing    *tracing.Provider

	closers []func() error
}

// newRuntime builds the registry and its collaborators from cfg. The filter is
// only created and announced when cfg.Filter.Enabled is set.
func newRuntime(cfg config.Config) (*runtime, error) {
	if cfg.Tracing.Enabled && cfg.Tracing.Exporter == "file" && cfg.Tracing.FilePath == "" {
		cfg.Tracing.FilePath = config.DefaultTracesFilePath()
	}
	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}

	rt := &runtime{
		registry: graph.New(
			graph.WithTracer(provider.Tracer()),
			graph.WithEventBuffer(cfg.Events.SubscriberBuffer),
		),
		tracing:  provider,
	}
	rt.listener = session.NewDispatcher(rt.registry)

	// Only what this process announces is journaled; replayed logs are not.
	announcer := rt.listener
	if cfg.Events.Journal != "" {
		j, err := rt.openJournal(cfg.Events.Journal, rt.listener)
		if err != nil {
			rt.close()
			return nil, err
		}
		announcer = j
	}

	rt.loopback = session.NewLoopback(announcer,
		session.WithIDBase(graph.ID(cfg.Session.LinkIDBase)),
		session.WithInUse(rt.registry.Has),
		session.WithLoopbackTracer(provider.Tracer()),
	)
	rt.resolver = lookup.NewDefaultResolver(rt.registry, lookup.WithTTL(cfg.Session.LookupTTL))

	if cfg.Filter.Enabled {
		f, err := lowpass.New(cfg.Filter.CutoffHz, cfg.Filter.SampleRate, cfg.Filter.Channels)
		if err != nil {
			rt.close()
			return nil, fmt.Errorf("creating low pass filter: %w", err)
		}
		rt.filter = f
		rt.filterNode = rt.loopback.AnnounceFilter(cfg.Filter.Name, "AudioEQ: low pass filter", f)
	}

	log.Info(log.CatSession, "runtime ready", "session", rt.loopback.ID(), "tracing", provider.Enabled())
	return rt, nil
}

// openJournal returns a listener that appends to path before passing
// announcements on to next.
func (rt *runtime) openJournal(path string, next session.Listener) (session.Listener, error) {
	format, err := eventlog.FormatFromPath(path)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // G304: user-provided journal path
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	w, err := eventlog.NewWriter(f, format)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("journal: %w", err)
	}
	rt.closers = append(rt.closers, f.Close)
	log.Info(log.CatEventLog, "journaling announcements", "path", path, "format", format)
	return session.NewJournal(w, next), nil
}

// replay applies the event log at path.
func (rt *runtime) replay(ctx context.Context, path string) (int, error) {
	format, err := eventlog.FormatFromPath(path)
	if err != nil {
		return 0, err
	}
	f, err := os.Open(path) //nolint:gosec // G304: user-provided event log path
	if err != nil {
		return 0, fmt.Errorf("opening event log: %w", err)
	}
	defer func() { _ = f.Close() }()

	reader, err := eventlog.NewReader(f, format)
	if err != nil {
		return 0, err
	}
	return session.Replay(ctx, reader, rt.listener)
}

// close withdraws the filter node, flushes traces and closes open files.
func (rt *runtime) close() {
	if rt.filter != nil && rt.loopback != nil {
		rt.loopback.Withdraw(rt.filterNode)
	}
	if rt.registry != nil {
		rt.registry.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var errs []error
	if rt.tracing != nil {
		errs = append(errs, rt.tracing.Shutdown(ctx))
	}
	for _, c := range rt.closers {
		errs = append(errs, c())
	}
	if err := errors.Join(errs...); err != nil {
		log.ErrorErr(log.CatSession, "runtime shutdown", err)
	}
}
