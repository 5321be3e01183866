package graph

import (
	"errors"
	"fmt"
)

// Stats returns entity counts and the size of the pending indices.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return Stats{
		Nodes:         len(r.nodes),
		Ports:         len(r.ports),
		Links:         len(r.links),
		NodelessPorts: countEntries(r.pending.nodelessPorts),
		PortlessLinks: countEntries(r.pending.portlessLinks),
		DroppedEvents: r.broker.Dropped(),
	}
}

// Check verifies the structural invariants of the mirror and returns every
// violation found, joined. A nil result means the mirror is consistent.
func (r *Registry) Check() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	for id := range r.nodes {
		if _, ok := r.ports[id]; ok {
			fail("id %d is both a node and a port", id)
		}
		if _, ok := r.links[id]; ok {
			fail("id %d is both a node and a link", id)
		}
	}
	for id := range r.ports {
		if _, ok := r.links[id]; ok {
			fail("id %d is both a port and a link", id)
		}
	}

	for id, n := range r.nodes {
		for _, p := range n.ports() {
			if r.ports[p.id] != p {
				fail("node %d lists port %d which is not live", id, p.id)
			}
			if p.owner.ptr != n {
				fail("node %d lists port %d owned by %d", id, p.id, p.owner.id)
			}
		}
	}

	for id, p := range r.ports {
		if p.owner.resolved() {
			n := p.owner.ptr
			if r.nodes[p.owner.id] != n {
				fail("port %d is owned by node %d which is not live", id, p.owner.id)
			} else if !containsPort(*n.collection(p.direction), p) {
				fail("port %d is missing from owner %d", id, n.id)
			}
		}
		seen := make(map[ID]bool, len(p.peers))
		for _, e := range p.peers {
			if seen[e.ref.id] {
				fail("port %d has duplicate peer %d", id, e.ref.id)
			}
			seen[e.ref.id] = true
			if !e.ref.resolved() {
				continue
			}
			q := e.ref.ptr
			if r.ports[e.ref.id] != q {
				fail("port %d has resolved peer %d which is not live", id, e.ref.id)
				continue
			}
			if i := q.findPeer(id); i < 0 || q.peers[i].ref.ptr != p {
				fail("port %d links to %d but not vice versa", id, q.id)
			}
		}
	}

	for id, l := range r.links {
		for _, s := range l.sides() {
			self, other := s[0], s[1]
			if !self.port.resolved() {
				if self.held {
					fail("link %d holds adjacency on pending endpoint %d", id, self.port.id)
				}
				continue
			}
			p := self.port.ptr
			if r.ports[self.port.id] != p {
				fail("link %d has resolved endpoint %d which is not live", id, self.port.id)
				continue
			}
			if _, ok := p.links[id]; !ok {
				fail("link %d is not recorded on endpoint %d", id, p.id)
			}
			if self.held && p.findPeer(other.port.id) < 0 {
				fail("link %d is held by port %d without an entry toward %d", id, p.id, other.port.id)
			}
		}
	}

	for owner, bucket := range r.pending.nodelessPorts {
		if _, live := r.nodes[owner]; live {
			fail("nodeless bucket keyed by live node %d", owner)
		}
		for _, pid := range bucket {
			p, ok := r.ports[pid]
			if !ok {
				fail("nodeless bucket %d holds removed port %d", owner, pid)
			} else if p.owner.resolved() || p.owner.id != owner {
				fail("nodeless bucket %d holds port %d owned by %d", owner, pid, p.owner.id)
			}
		}
	}

	for pid, bucket := range r.pending.portlessLinks {
		if _, live := r.ports[pid]; live {
			fail("portless bucket keyed by live port %d", pid)
		}
		for _, lid := range bucket {
			l, ok := r.links[lid]
			if !ok {
				fail("portless bucket %d holds removed link %d", pid, lid)
				continue
			}
			if !pendingOn(l.output.port, pid) && !pendingOn(l.input.port, pid) {
				fail("portless bucket %d holds link %d with no pending endpoint %d", pid, lid, pid)
			}
		}
	}

	return errors.Join(errs...)
}

func containsPort(ports []*port, p *port) bool {
	for _, q := range ports {
		if q == p {
			return true
		}
	}
	return false
}

func pendingOn(r ref[port], id ID) bool {
	return r.id == id && !r.resolved()
}
