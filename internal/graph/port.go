package graph

// peer is one adjacency entry of a port. links counts the link records that
// contribute the entry; two links between the same pair of ports share one
// entry with links == 2.
type peer struct {
	ref   ref[port]
	links int
}

type port struct {
	id        ID
	name      string
	direction Direction
	owner     ref[node]
	peers     []peer

	// links holds the ids of link records that use this port as a resolved endpoint.
	links map[ID]struct{}
}

func newPort(id ID, name string, direction Direction) *port {
	return &port{
		id:        id,
		name:      name,
		direction: direction,
		links:     make(map[ID]struct{}),
	}
}

func (p *port) findPeer(id ID) int {
	for i := range p.peers {
		if p.peers[i].ref.id == id {
			return i
		}
	}
	return -1
}

// attach adds one link's worth of adjacency toward r.id. An existing entry is
// counted up and, if r is resolved, upgraded to the resolved reference.
func (p *port) attach(r ref[port]) {
	if i := p.findPeer(r.id); i >= 0 {
		p.peers[i].links++
		if r.resolved() {
			p.peers[i].ref = r
		}
		return
	}
	p.peers = append(p.peers, peer{ref: r, links: 1})
}

// resolvePeer upgrades the pending entry for q's id to point at q.
// Returns false when there is no entry to upgrade.
func (p *port) resolvePeer(q *port) bool {
	i := p.findPeer(q.id)
	if i < 0 {
		return false
	}
	p.peers[i].ref.resolve(q)
	return true
}

// detach removes one link's worth of adjacency toward id.
func (p *port) detach(id ID) {
	i := p.findPeer(id)
	if i < 0 {
		return
	}
	p.peers[i].links--
	if p.peers[i].links <= 0 {
		p.peers = append(p.peers[:i], p.peers[i+1:]...)
	}
}

// dropPeer removes the entry toward id regardless of how many links made it.
func (p *port) dropPeer(id ID) {
	if i := p.findPeer(id); i >= 0 {
		p.peers = append(p.peers[:i], p.peers[i+1:]...)
	}
}

func (p *port) snapshot() Port {
	peers := make([]Ref, len(p.peers))
	for i, e := range p.peers {
		peers[i] = e.ref.snapshot()
	}
	return Port{
		ID:        p.id,
		Name:      p.name,
		Direction: p.direction,
		Owner:     p.owner.snapshot(),
		Peers:     peers,
	}
}
