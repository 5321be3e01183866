// Package testutil builds announcement sequences for tests: a registry
// populated through the same listener path the shell uses, or an event log
// on disk.
package testutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/david-sim0niants/audio-eq/internal/eventlog"
	"github.com/david-sim0niants/audio-eq/internal/graph"
	"github.com/david-sim0niants/audio-eq/internal/session"
)

// Builder accumulates announcements. They are delivered in the order they
// were added, so forward references can be set up deliberately.
type Builder struct {
	t      *testing.T
	events []eventlog.Event
}

// NewBuilder creates an empty builder.
func NewBuilder(t *testing.T) *Builder {
	t.Helper()
	return &Builder{t: t}
}

// WithNode announces a node.
func (b *Builder) WithNode(id graph.ID, name string, opts ...NodeOption) *Builder {
	n := nodeData{name: name}
	for _, opt := range opts {
		opt(&n)
	}
	props := session.Props{session.KeyNodeName: n.name}
	if n.description != "" {
		props[session.KeyNodeDescription] = n.description
	}
	return b.add(id, session.TypeNode, props)
}

// WithPort announces a port.
func (b *Builder) WithPort(id graph.ID, name string, opts ...PortOption) *Builder {
	p := portData{name: name}
	for _, opt := range opts {
		opt(&p)
	}
	props := session.Props{session.KeyPortName: p.name}
	if p.direction != "" {
		props[session.KeyPortDirection] = p.direction
	}
	if p.owner != graph.Unowned {
		props.SetID(session.KeyNodeID, p.owner)
	}
	return b.add(id, session.TypePort, props)
}

// WithLink announces a link from output to input.
func (b *Builder) WithLink(id, output, input graph.ID) *Builder {
	props := session.Props{}
	props.SetID(session.KeyLinkOutputPort, output)
	props.SetID(session.KeyLinkInputPort, input)
	return b.add(id, session.TypeLink, props)
}

// WithRemoval announces removal of id.
func (b *Builder) WithRemoval(id graph.ID) *Builder {
	b.events = append(b.events, eventlog.Event{Op: eventlog.OpRemove, ID: uint32(id)})
	return b
}

func (b *Builder) add(id graph.ID, typ string, props session.Props) *Builder {
	b.events = append(b.events, eventlog.Event{Op: eventlog.OpAdd, ID: uint32(id), Type: typ, Props: props})
	return b
}

// Events returns a copy of the accumulated announcements.
func (b *Builder) Events() []eventlog.Event {
	return append([]eventlog.Event(nil), b.events...)
}

// Apply delivers every announcement to l.
func (b *Builder) Apply(l session.Listener) {
	for _, ev := range b.events {
		session.Apply(l, ev)
	}
}

// Build returns a new registry holding the announced graph. The registry is
// closed when the test ends and must be consistent.
func (b *Builder) Build(opts ...graph.Option) *graph.Registry {
	b.t.Helper()
	r := graph.New(opts...)
	b.t.Cleanup(r.Close)
	b.Apply(session.NewDispatcher(r))
	require.NoError(b.t, r.Check())
	return r
}

// WriteLog writes the announcements to path, in the format its extension
// selects, and returns path.
func (b *Builder) WriteLog(path string) string {
	b.t.Helper()
	format, err := eventlog.FormatFromPath(path)
	require.NoError(b.t, err)

	f, err := os.Create(path) //nolint:gosec // G304: test-controlled path
	require.NoError(b.t, err)
	defer func() { require.NoError(b.t, f.Close()) }()

	w, err := eventlog.NewWriter(f, format)
	require.NoError(b.t, err)
	for _, ev := range b.events {
		require.NoError(b.t, w.Write(ev))
	}
	return path
}
