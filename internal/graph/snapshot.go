package graph

// Ref is a reference as seen by readers: the target id, and whether the
// target was live when the snapshot was taken.
type Ref struct {
	ID       ID   `json:"id"`
	Resolved bool `json:"resolved"`
}

// Port is a point-in-time copy of a port.
type Port struct {
	ID        ID
	Name      string
	Direction Direction
	Owner     Ref
	Peers     []Ref
}

// NumLinkedPorts returns the number of distinct peers.
func (p Port) NumLinkedPorts() int {
	return len(p.Peers)
}

// LinkedPort returns the i-th peer. It panics if i is out of range.
func (p Port) LinkedPort(i int) Ref {
	return p.Peers[i]
}

// LinkedTo reports whether the port has an adjacency entry toward id.
func (p Port) LinkedTo(id ID) (Ref, bool) {
	for _, r := range p.Peers {
		if r.ID == id {
			return r, true
		}
	}
	return Ref{}, false
}

// Node is a point-in-time copy of a node and the ports it owns.
type Node struct {
	ID          ID
	Name        string
	Description string
	Inputs      []Port
	Outputs     []Port
}

// NumInputPorts returns the number of input ports.
func (n Node) NumInputPorts() int {
	return len(n.Inputs)
}

// InputPort returns the i-th input port. It panics if i is out of range.
func (n Node) InputPort(i int) Port {
	return n.Inputs[i]
}

// NumOutputPorts returns the number of output ports.
func (n Node) NumOutputPorts() int {
	return len(n.Outputs)
}

// OutputPort returns the i-th output port. It panics if i is out of range.
func (n Node) OutputPort(i int) Port {
	return n.Outputs[i]
}

// Link is a point-in-time copy of a link record.
type Link struct {
	ID     ID
	Output Ref
	Input  Ref
}

// Stats summarizes registry contents, including what is still waiting on
// forward references.
type Stats struct {
	Nodes int
	Ports int
	Links int

	// NodelessPorts counts ports waiting for their owner node.
	NodelessPorts int
	// PortlessLinks counts (port id, link) pairs waiting for a port.
	PortlessLinks int

	// DroppedEvents counts change events a slow subscriber missed.
	DroppedEvents uint64
}

// Kind names the type of a registry entity.
type Kind string

const (
	KindNode Kind = "node"
	KindPort Kind = "port"
	KindLink Kind = "link"
)

// Change is the payload of registry change events.
type Change struct {
	Kind Kind
	ID   ID
}
