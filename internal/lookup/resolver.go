// Package lookup resolves user-typed port references against the graph.
//
// A reference is either a decimal port id or "<node name>:<port name>".
// Name lookups are cached and the cache is flushed on every registry change.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/david-sim0niants/audio-eq/internal/cachemanager"
	"github.com/david-sim0niants/audio-eq/internal/graph"
	"github.com/david-sim0niants/audio-eq/internal/log"
)

var (
	ErrNotFound  = errors.New("port not found")
	ErrAmbiguous = errors.New("port reference is ambiguous")
)

// DefaultTTL bounds how long a name lookup is trusted between flushes.
const DefaultTTL = time.Minute

type portName struct {
	node string
	port string
}

// Resolver turns references into port ids.
type Resolver struct {
	registry *graph.Registry
	names    *cachemanager.ReadThroughCache[string, graph.ID, portName]
	ttl      time.Duration
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithTTL sets how long a name lookup stays cached. Non-positive values keep
// the default.
func WithTTL(ttl time.Duration) ResolverOption {
	return func(res *Resolver) {
		if ttl > 0 {
			res.ttl = ttl
		}
	}
}

// NewResolver resolves against r using cache for name lookups.
func NewResolver(r *graph.Registry, cache cachemanager.CacheManager[string, graph.ID], opts ...ResolverOption) *Resolver {
	res := &Resolver{registry: r, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(res)
	}
	res.names = cachemanager.NewReadThroughCache(cache, res.findByName)
	return res
}

// NewDefaultResolver resolves against r with an in-memory cache.
func NewDefaultResolver(r *graph.Registry, opts ...ResolverOption) *Resolver {
	cache := cachemanager.NewInMemoryCacheManager[string, graph.ID]("port-names", DefaultTTL, 2*DefaultTTL)
	return NewResolver(r, cache, opts...)
}

// Port resolves ref to a snapshot of a live port.
func (res *Resolver) Port(ctx context.Context, ref string) (graph.Port, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return graph.Port{}, fmt.Errorf("%w: empty reference", ErrNotFound)
	}

	if id, err := strconv.ParseUint(ref, 10, 32); err == nil {
		p, ok := res.registry.FindPort(graph.ID(id))
		if !ok {
			return graph.Port{}, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return p, nil
	}

	node, port, ok := strings.Cut(ref, ":")
	if !ok || node == "" || port == "" {
		return graph.Port{}, fmt.Errorf("%w: %q is neither an id nor node:port", ErrNotFound, ref)
	}
	return res.byName(ctx, portName{node: node, port: port})
}

// byName resolves through the cache. Flushes trail registry changes, so a
// hit is checked against the live port and reloaded once if it went stale.
func (res *Resolver) byName(ctx context.Context, name portName) (graph.Port, error) {
	key := name.node + ":" + name.port
	for attempt := 0; attempt < 2; attempt++ {
		id, err := res.names.GetWithRefresh(ctx, key, name, res.ttl)
		if err != nil {
			return graph.Port{}, err
		}
		if p, ok := res.registry.FindPort(id); ok && res.matches(p, name) {
			return p, nil
		}
		log.Debug(log.CatCache, "stale port name", "ref", key, "id", id)
		_ = res.names.Invalidate(ctx)
	}
	return graph.Port{}, fmt.Errorf("%w: %s", ErrNotFound, key)
}

func (res *Resolver) matches(p graph.Port, name portName) bool {
	if p.Name != name.port || !p.Owner.Resolved {
		return false
	}
	n, ok := res.registry.FindNode(p.Owner.ID)
	return ok && n.Name == name.node
}

func (res *Resolver) findByName(_ context.Context, name portName) (graph.ID, error) {
	ports := res.registry.FindPortsByName(name.node, name.port)
	switch len(ports) {
	case 0:
		return 0, fmt.Errorf("%w: %s:%s", ErrNotFound, name.node, name.port)
	case 1:
		return ports[0].ID, nil
	default:
		ids := make([]graph.ID, len(ports))
		for i, p := range ports {
			ids[i] = p.ID
		}
		return 0, fmt.Errorf("%w: %s:%s matches ports %v", ErrAmbiguous, name.node, name.port, ids)
	}
}

// Watch flushes the name cache on every change published by the registry
// until ctx is cancelled or the registry closes.
func (res *Resolver) Watch(ctx context.Context) {
	events := res.registry.Subscribe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := res.names.Invalidate(ctx); err != nil {
				log.ErrorErr(log.CatCache, "flush port name cache", err)
			}
			log.Debug(log.CatCache, "port name cache flushed", "event", ev.Type, "kind", ev.Payload.Kind, "id", ev.Payload.ID)
		}
	}
}
