package graph

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/david-sim0niants/audio-eq/internal/log"
	"github.com/david-sim0niants/audio-eq/internal/pubsub"
	"github.com/david-sim0niants/audio-eq/internal/tracing"
)

// Registry mirrors the manager's graph. The zero value is not usable; call New.
type Registry struct {
	mu      sync.RWMutex
	nodes   map[ID]*node
	ports   map[ID]*port
	links   map[ID]*link
	pending *pendingIndex

	broker *pubsub.Broker[Change]
	tracer trace.Tracer
}

// Option configures a Registry.
type Option func(*Registry)

// WithTracer records a span per notification on t.
func WithTracer(t trace.Tracer) Option {
	return func(r *Registry) {
		if t != nil {
			r.tracer = t
		}
	}
}

// WithEventBuffer sets the per-subscriber buffer of the change broker.
// Non-positive sizes keep the default.
func WithEventBuffer(size int) Option {
	return func(r *Registry) {
		if size > 0 {
			r.broker = pubsub.NewBrokerWithBuffer[Change](size)
		}
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		nodes:   make(map[ID]*node),
		ports:   make(map[ID]*port),
		links:   make(map[ID]*link),
		pending: newPendingIndex(),
		tracer:  tracing.NoopTracer(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.broker == nil {
		r.broker = pubsub.NewBroker[Change]()
	}
	return r
}

// Subscribe streams change events until ctx is cancelled or the registry is
// closed. Added and Removed events carry the entity announced; Resolved events
// name an existing port or link whose forward reference was just filled.
func (r *Registry) Subscribe(ctx context.Context) <-chan pubsub.Event[Change] {
	return r.broker.Subscribe(ctx)
}

// Close shuts down all subscriptions.
func (r *Registry) Close() {
	r.broker.Close()
}

// exists must be called with r.mu held.
func (r *Registry) exists(id ID) (Kind, bool) {
	if _, ok := r.nodes[id]; ok {
		return KindNode, true
	}
	if _, ok := r.ports[id]; ok {
		return KindPort, true
	}
	if _, ok := r.links[id]; ok {
		return KindLink, true
	}
	return "", false
}

func (r *Registry) startSpan(name string, id ID, attrs ...attribute.KeyValue) trace.Span {
	attrs = append(attrs, attribute.Int64(tracing.AttrEntityID, int64(id)))
	_, span := r.tracer.Start(context.Background(), name, trace.WithAttributes(attrs...))
	return span
}

func (r *Registry) publish(typ pubsub.EventType, changes ...Change) {
	for _, c := range changes {
		r.broker.Publish(typ, c)
	}
}

func (r *Registry) rejectDuplicate(span trace.Span, what string, id ID, existing Kind) {
	span.SetAttributes(
		attribute.Bool(tracing.AttrDuplicate, true),
		attribute.String(tracing.AttrEntityKind, string(existing)),
	)
	log.Warn(log.CatGraph, "ignoring duplicate id", "announced", what, "id", id, "existing", existing)
}

// NotifyNodeAdded records a node and adopts every port already waiting for it.
// Returns false, leaving the registry untouched, if id is already live.
func (r *Registry) NotifyNodeAdded(id ID, name, description string) bool {
	span := r.startSpan(tracing.SpanNodeAdded, id)
	defer span.End()

	r.mu.Lock()
	if kind, dup := r.exists(id); dup {
		r.mu.Unlock()
		r.rejectDuplicate(span, "node", id, kind)
		return false
	}
	adopted := r.addNode(id, name, description)
	r.mu.Unlock()

	span.SetAttributes(attribute.Int(tracing.AttrResolvedCount, len(adopted)))
	log.Debug(log.CatGraph, "node added", "id", id, "name", name, "adopted_ports", len(adopted))

	r.publish(pubsub.AddedEvent, Change{Kind: KindNode, ID: id})
	r.publish(pubsub.ResolvedEvent, adopted...)
	return true
}

// addNode must be called with r.mu held.
func (r *Registry) addNode(id ID, name, description string) []Change {
	n := &node{id: id, name: name, description: description}
	r.nodes[id] = n

	var adopted []Change
	for _, pid := range r.pending.takeNodelessPorts(id) {
		p, ok := r.ports[pid]
		if !ok || p.owner.id != id || p.owner.resolved() {
			continue
		}
		p.owner.resolve(n)
		n.addPort(p)
		adopted = append(adopted, Change{Kind: KindPort, ID: pid})
	}
	return adopted
}

// NotifyPortAdded records a port, attaches it to its owner if the owner is
// live, and completes every link already waiting for it.
// Returns false, leaving the registry untouched, if id is already live.
func (r *Registry) NotifyPortAdded(id ID, name string, direction Direction, owner ID) bool {
	span := r.startSpan(tracing.SpanPortAdded, id,
		attribute.Int64(tracing.AttrOwnerID, int64(owner)),
		attribute.String(tracing.AttrDirection, direction.String()),
	)
	defer span.End()

	r.mu.Lock()
	if kind, dup := r.exists(id); dup {
		r.mu.Unlock()
		r.rejectDuplicate(span, "port", id, kind)
		return false
	}
	ownerLive, bound := r.addPort(id, name, direction, owner)
	r.mu.Unlock()

	if !ownerLive {
		span.AddEvent(tracing.EventPortUnowned)
	}
	span.SetAttributes(attribute.Int(tracing.AttrResolvedCount, len(bound)))
	log.Debug(log.CatGraph, "port added",
		"id", id, "name", name, "direction", direction, "owner", owner,
		"owner_live", ownerLive, "bound_links", len(bound))

	r.publish(pubsub.AddedEvent, Change{Kind: KindPort, ID: id})
	r.publish(pubsub.ResolvedEvent, bound...)
	return true
}

// addPort must be called with r.mu held.
func (r *Registry) addPort(id ID, name string, direction Direction, owner ID) (bool, []Change) {
	p := newPort(id, name, direction)
	r.ports[id] = p

	n, ownerLive := r.nodes[owner]
	if ownerLive {
		p.owner = resolvedRef(owner, n)
		n.addPort(p)
	} else {
		p.owner = pendingRef[node](owner)
		r.pending.addNodelessPort(owner, id)
	}

	var bound []Change
	for _, lid := range r.pending.takePortlessLinks(id) {
		l, ok := r.links[lid]
		if !ok {
			continue
		}
		if r.bindEndpoint(l, p) {
			bound = append(bound, Change{Kind: KindLink, ID: lid})
		}
	}
	return ownerLive, bound
}

// bindEndpoint fills the endpoint(s) of l naming p and adds the adjacency
// that link contributes to p. A live peer either holds a pending entry for p,
// which is upgraded in place, or lost it when p's id was last removed and
// attaches anew.
func (r *Registry) bindEndpoint(l *link, p *port) bool {
	bound := false
	for _, s := range l.sides() {
		if self := s[0]; pendingOn(self.port, p.id) {
			self.port.resolve(p)
			bound = true
		}
	}
	if !bound {
		return false
	}
	p.links[l.id] = struct{}{}

	for _, s := range l.sides() {
		self, other := s[0], s[1]
		if self.port.ptr != p || self.held {
			continue
		}
		p.attach(other.port)
		self.held = true

		if !other.port.resolved() {
			r.pending.addPortlessLink(other.port.id, l.id)
			continue
		}
		if q := other.port.ptr; q != p && (!other.held || !q.resolvePeer(p)) {
			q.attach(resolvedRef(p.id, p))
			other.held = true
		}
	}
	return true
}

// NotifyLinkAdded records a link from output port out to input port in.
// Endpoints that are not live yet are resolved when their port arrives.
// Returns false, leaving the registry untouched, if id is already live.
func (r *Registry) NotifyLinkAdded(id, out, in ID) bool {
	span := r.startSpan(tracing.SpanLinkAdded, id,
		attribute.Int64(tracing.AttrOutputPort, int64(out)),
		attribute.Int64(tracing.AttrInputPort, int64(in)),
	)
	defer span.End()

	r.mu.Lock()
	if kind, dup := r.exists(id); dup {
		r.mu.Unlock()
		r.rejectDuplicate(span, "link", id, kind)
		return false
	}
	waiting := r.addLink(id, out, in)
	r.mu.Unlock()

	if waiting > 0 {
		span.AddEvent(tracing.EventLinkDeferred, trace.WithAttributes(
			attribute.Int(tracing.AttrPendingCount, waiting),
		))
	}
	log.Debug(log.CatGraph, "link added", "id", id, "output", out, "input", in, "pending_endpoints", waiting)

	r.publish(pubsub.AddedEvent, Change{Kind: KindLink, ID: id})
	return true
}

// addLink must be called with r.mu held. Returns the number of endpoints
// still pending.
func (r *Registry) addLink(id, out, in ID) int {
	l := &link{
		id:     id,
		output: endpoint{port: r.portRef(out)},
		input:  endpoint{port: r.portRef(in)},
	}
	r.links[id] = l

	waiting := 0
	for _, s := range l.sides() {
		self, other := s[0], s[1]
		if !self.port.resolved() {
			r.pending.addPortlessLink(self.port.id, id)
			waiting++
			continue
		}
		self.port.ptr.links[id] = struct{}{}
		self.port.ptr.attach(other.port)
		self.held = true
	}
	return waiting
}

// portRef must be called with r.mu held.
func (r *Registry) portRef(id ID) ref[port] {
	if p, ok := r.ports[id]; ok {
		return resolvedRef(id, p)
	}
	return pendingRef[port](id)
}

// NotifyRemoved removes whichever entity holds id, probing nodes, then ports,
// then links. Returns false if no live entity has that id.
func (r *Registry) NotifyRemoved(id ID) bool {
	span := r.startSpan(tracing.SpanRemoved, id)
	defer span.End()

	r.mu.Lock()
	kind, ok := r.exists(id)
	switch kind {
	case KindNode:
		r.removeNode(id)
	case KindPort:
		r.removePort(span, id)
	case KindLink:
		r.removeLink(id)
	}
	r.mu.Unlock()

	if !ok {
		span.SetAttributes(attribute.Bool(tracing.AttrUnknown, true))
		log.Debug(log.CatGraph, "remove of unknown id", "id", id)
		return false
	}
	span.SetAttributes(attribute.String(tracing.AttrEntityKind, string(kind)))
	log.Debug(log.CatGraph, "removed", "id", id, "kind", kind)

	r.publish(pubsub.RemovedEvent, Change{Kind: kind, ID: id})
	return true
}

// removeNode must be called with r.mu held. Its ports stay live and become
// unowned.
func (r *Registry) removeNode(id ID) {
	n := r.nodes[id]
	for _, p := range n.ports() {
		p.owner = pendingRef[node](Unowned)
	}
	delete(r.nodes, id)
}

// removePort must be called with r.mu held. Links through the port survive
// with that endpoint degraded, and bind again if the id is announced anew.
func (r *Registry) removePort(span trace.Span, id ID) {
	p := r.ports[id]

	if p.owner.resolved() {
		p.owner.ptr.removePort(p)
	} else {
		r.pending.removeNodelessPort(p.owner.id, id)
	}

	for _, e := range p.peers {
		if e.ref.resolved() && e.ref.ptr != p {
			e.ref.ptr.dropPeer(id)
		}
	}

	for lid := range p.links {
		l, ok := r.links[lid]
		if !ok {
			continue
		}
		for _, s := range l.sides() {
			self, other := s[0], s[1]
			if self.port.ptr != p {
				continue
			}
			self.port.degrade()
			self.held = false
			// the peer's entry toward p was dropped above
			if other.port.resolved() && other.port.ptr != p {
				other.held = false
			}
		}
		r.pending.addPortlessLink(id, lid)
		span.AddEvent(tracing.EventEndpointLost, trace.WithAttributes(
			attribute.Int64(tracing.AttrEntityID, int64(lid)),
		))
	}
	delete(r.ports, id)
}

// removeLink must be called with r.mu held.
func (r *Registry) removeLink(id ID) {
	l := r.links[id]
	for _, s := range l.sides() {
		self, other := s[0], s[1]
		if !self.port.resolved() {
			r.pending.removePortlessLink(self.port.id, id)
			continue
		}
		if self.held {
			self.port.ptr.detach(other.port.id)
		}
		delete(self.port.ptr.links, id)
	}
	delete(r.links, id)
}
