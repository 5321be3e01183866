// Package session connects the graph mirror to the outside world: it turns
// manager announcements into registry notifications, creates and removes
// links on the user's behalf, and replays or follows recorded journals.
package session

import (
	"sync/atomic"

	"github.com/david-sim0niants/audio-eq/internal/graph"
	"github.com/david-sim0niants/audio-eq/internal/log"
)

// Listener receives object announcements from the graph manager.
type Listener interface {
	OnAdd(id uint32, typ string, props Props)
	OnRemove(id uint32)
}

// Dispatcher applies announcements to a registry.
type Dispatcher struct {
	registry *graph.Registry
	ignored  atomic.Uint64
}

var _ Listener = (*Dispatcher)(nil)

// NewDispatcher returns a Listener feeding r.
func NewDispatcher(r *graph.Registry) *Dispatcher {
	return &Dispatcher{registry: r}
}

// OnAdd maps a typed announcement onto the matching registry notification.
// Announcements of other object types are counted and dropped.
func (d *Dispatcher) OnAdd(id uint32, typ string, props Props) {
	gid := graph.ID(id)
	switch typ {
	case TypeNode:
		d.registry.NotifyNodeAdded(gid, props[KeyNodeName], props[KeyNodeDescription])
	case TypePort:
		d.registry.NotifyPortAdded(gid, props[KeyPortName], props.Direction(), props.ID(KeyNodeID))
	case TypeLink:
		d.registry.NotifyLinkAdded(gid, props.ID(KeyLinkOutputPort), props.ID(KeyLinkInputPort))
	default:
		d.ignored.Add(1)
		log.Debug(log.CatSession, "ignoring announcement", "id", id, "type", typ)
	}
}

// OnRemove forwards a removal. Unknown ids are ignored by the registry.
func (d *Dispatcher) OnRemove(id uint32) {
	d.registry.NotifyRemoved(graph.ID(id))
}

// Ignored returns how many announcements had an unhandled type.
func (d *Dispatcher) Ignored() uint64 {
	return d.ignored.Load()
}
