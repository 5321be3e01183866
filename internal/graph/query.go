package graph

import (
	"cmp"
	"slices"
)

// FindNode returns a snapshot of node id.
func (r *Registry) FindNode(id ID) (Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.snapshot(), true
}

// FindPort returns a snapshot of port id.
func (r *Registry) FindPort(id ID) (Port, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.ports[id]
	if !ok {
		return Port{}, false
	}
	return p.snapshot(), true
}

// FindLink returns a snapshot of link id.
func (r *Registry) FindLink(id ID) (Link, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.links[id]
	if !ok {
		return Link{}, false
	}
	return l.snapshot(), true
}

// FindNodeByName returns the live node with the lowest id named name.
func (r *Registry) FindNodeByName(name string) (Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *node
	for _, n := range r.nodes {
		if n.name == name && (found == nil || n.id < found.id) {
			found = n
		}
	}
	if found == nil {
		return Node{}, false
	}
	return found.snapshot(), true
}

// FindPortsByName returns every port named port whose owner is a live node
// named node, ordered by id. More than one result means the pair of names is
// ambiguous.
func (r *Registry) FindPortsByName(node, port string) []Port {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Port
	for _, n := range r.nodes {
		if n.name != node {
			continue
		}
		for _, p := range n.ports() {
			if p.name == port {
				out = append(out, p.snapshot())
			}
		}
	}
	slices.SortFunc(out, func(a, b Port) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// ListNodes returns every live node, ordered by id.
func (r *Registry) ListNodes() []Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Node, 0, len(r.nodes))
	for _, n := range r.nodes {
		out = append(out, n.snapshot())
	}
	slices.SortFunc(out, func(a, b Node) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// ListPorts returns every live port, owned or not, ordered by id.
func (r *Registry) ListPorts() []Port {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Port, 0, len(r.ports))
	for _, p := range r.ports {
		out = append(out, p.snapshot())
	}
	slices.SortFunc(out, func(a, b Port) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// ListLinks returns every link record, ordered by id.
func (r *Registry) ListLinks() []Link {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Link, 0, len(r.links))
	for _, l := range r.links {
		out = append(out, l.snapshot())
	}
	slices.SortFunc(out, func(a, b Link) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Has reports whether id names a live node, port or link.
func (r *Registry) Has(id ID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.exists(id)
	return ok
}
