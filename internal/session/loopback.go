package session

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/david-sim0niants/audio-eq/internal/graph"
	"github.com/david-sim0niants/audio-eq/internal/log"
	"github.com/david-sim0niants/audio-eq/internal/tracing"
)

// DefaultIDBase is the first id a Loopback allocates.
const DefaultIDBase graph.ID = 1 << 16

// Loopback plays the graph manager's role for objects this process creates:
// it allocates ids and announces links and filter nodes to a Listener, which
// delivers them back into the mirror like any other announcement.
type Loopback struct {
	id       uuid.UUID
	listener Listener
	inUse    func(graph.ID) bool
	tracer   trace.Tracer

	mu     sync.Mutex
	nextID graph.ID
	links  map[graph.ID]struct{}
}

// LoopbackOption configures a Loopback.
type LoopbackOption func(*Loopback)

// WithIDBase sets the first allocated id.
func WithIDBase(base graph.ID) LoopbackOption {
	return func(lb *Loopback) {
		lb.nextID = base
	}
}

// WithInUse makes id allocation skip ids for which inUse reports true.
func WithInUse(inUse func(graph.ID) bool) LoopbackOption {
	return func(lb *Loopback) {
		lb.inUse = inUse
	}
}

// WithLoopbackTracer overrides the global tracer.
func WithLoopbackTracer(t trace.Tracer) LoopbackOption {
	return func(lb *Loopback) {
		lb.tracer = t
	}
}

// NewLoopback announces to l.
func NewLoopback(l Listener, opts ...LoopbackOption) *Loopback {
	lb := &Loopback{
		id:       uuid.New(),
		listener: l,
		inUse:    func(graph.ID) bool { return false },
		tracer:   otel.Tracer("audioeq/session"),
		nextID:   DefaultIDBase,
		links:    make(map[graph.ID]struct{}),
	}
	for _, opt := range opts {
		opt(lb)
	}
	return lb
}

// ID identifies this session in logs and traces.
func (lb *Loopback) ID() uuid.UUID {
	return lb.id
}

// allocate must be called with lb.mu held.
func (lb *Loopback) allocate() graph.ID {
	for {
		id := lb.nextID
		lb.nextID++
		if id != 0 && !lb.inUse(id) {
			return id
		}
	}
}

// LinkPorts announces a new link from out to in and returns its id.
func (lb *Loopback) LinkPorts(ctx context.Context, out, in graph.Port) (graph.ID, error) {
	ctx, span := lb.tracer.Start(ctx, tracing.SpanLinkPorts, trace.WithAttributes(
		attribute.String(tracing.AttrSessionID, lb.id.String()),
		attribute.Int64(tracing.AttrOutputPort, int64(out.ID)),
		attribute.Int64(tracing.AttrInputPort, int64(in.ID)),
	))
	defer span.End()

	if err := ctx.Err(); err != nil {
		tracing.RecordError(span, err)
		return 0, err
	}
	if out.Direction != graph.Output || in.Direction != graph.Input {
		err := fmt.Errorf("%w: %d is %s, %d is %s", ErrDirectionMismatch, out.ID, out.Direction, in.ID, in.Direction)
		tracing.RecordError(span, err)
		return 0, err
	}

	lb.mu.Lock()
	id := lb.allocate()
	lb.links[id] = struct{}{}
	lb.mu.Unlock()

	props := Props{}
	props.SetID(KeyLinkOutputPort, out.ID)
	props.SetID(KeyLinkInputPort, in.ID)
	lb.listener.OnAdd(uint32(id), TypeLink, props)

	span.SetAttributes(attribute.Int64(tracing.AttrEntityID, int64(id)))
	log.Info(log.CatSession, "linked ports", "link", id, "output", out.ID, "input", in.ID)
	return id, nil
}

// UnlinkPorts announces removal of a link previously created by LinkPorts.
func (lb *Loopback) UnlinkPorts(ctx context.Context, id graph.ID) error {
	ctx, span := lb.tracer.Start(ctx, tracing.SpanUnlinkPorts, trace.WithAttributes(
		attribute.String(tracing.AttrSessionID, lb.id.String()),
		attribute.Int64(tracing.AttrEntityID, int64(id)),
	))
	defer span.End()

	if err := ctx.Err(); err != nil {
		tracing.RecordError(span, err)
		return err
	}

	lb.mu.Lock()
	_, ok := lb.links[id]
	delete(lb.links, id)
	lb.mu.Unlock()

	if !ok {
		err := fmt.Errorf("%w: %d", ErrUnknownLink, id)
		tracing.RecordError(span, err)
		return err
	}

	lb.listener.OnRemove(uint32(id))
	log.Info(log.CatSession, "unlinked ports", "link", id)
	return nil
}

// Connect links two live ports given in either order, like the shell's link
// command: one must be an output and the other an input.
func (lb *Loopback) Connect(ctx context.Context, r *graph.Registry, a, b graph.ID) (graph.ID, error) {
	pa, ok := r.FindPort(a)
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrNoSuchPort, a)
	}
	pb, ok := r.FindPort(b)
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrNoSuchPort, b)
	}
	if pa.Direction == pb.Direction {
		return 0, fmt.Errorf("%w: both ports are %s", ErrDirectionMismatch, pa.Direction)
	}
	if pa.Direction == graph.Input {
		pa, pb = pb, pa
	}
	return lb.LinkPorts(ctx, pa, pb)
}

// Links returns the ids of links created and not yet removed, ascending.
func (lb *Loopback) Links() []graph.ID {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	ids := make([]graph.ID, 0, len(lb.links))
	for id := range lb.links {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// AnnouncedNode describes a node announced by AnnounceNode.
type AnnouncedNode struct {
	ID      graph.ID
	Inputs  []graph.ID
	Outputs []graph.ID
}

// AnnounceNode announces a node followed by its input and output ports.
func (lb *Loopback) AnnounceNode(name, description string, inputs, outputs []string) AnnouncedNode {
	lb.mu.Lock()
	node := AnnouncedNode{ID: lb.allocate()}
	for range inputs {
		node.Inputs = append(node.Inputs, lb.allocate())
	}
	for range outputs {
		node.Outputs = append(node.Outputs, lb.allocate())
	}
	lb.mu.Unlock()

	lb.listener.OnAdd(uint32(node.ID), TypeNode, Props{
		KeyNodeName:        name,
		KeyNodeDescription: description,
	})
	announce := func(ids []graph.ID, names []string, direction string) {
		for i, id := range ids {
			props := Props{KeyPortName: names[i], KeyPortDirection: direction}
			props.SetID(KeyNodeID, node.ID)
			lb.listener.OnAdd(uint32(id), TypePort, props)
		}
	}
	announce(node.Inputs, inputs, "in")
	announce(node.Outputs, outputs, "out")

	log.Info(log.CatSession, "announced node", "id", node.ID, "name", name,
		"inputs", len(inputs), "outputs", len(outputs))
	return node
}

// Withdraw announces removal of a node and its ports.
func (lb *Loopback) Withdraw(node AnnouncedNode) {
	for _, id := range append(slices.Clip(node.Inputs), node.Outputs...) {
		lb.listener.OnRemove(uint32(id))
	}
	lb.listener.OnRemove(uint32(node.ID))
}

// PortNamer is implemented by processing filters that expose named ports.
type PortNamer interface {
	PortNames() (inputs, outputs []string)
}

// AnnounceFilter announces f as a node carrying f's ports.
func (lb *Loopback) AnnounceFilter(name, description string, f PortNamer) AnnouncedNode {
	inputs, outputs := f.PortNames()
	return lb.AnnounceNode(name, description, inputs, outputs)
}
