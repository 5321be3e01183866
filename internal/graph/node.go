package graph

type node struct {
	id          ID
	name        string
	description string
	inputs      []*port
	outputs     []*port
}

func (n *node) collection(d Direction) *[]*port {
	if d == Input {
		return &n.inputs
	}
	return &n.outputs
}

// addPort appends p to the list matching its direction, once.
func (n *node) addPort(p *port) {
	ports := n.collection(p.direction)
	for _, existing := range *ports {
		if existing == p {
			return
		}
	}
	*ports = append(*ports, p)
}

func (n *node) removePort(p *port) bool {
	ports := n.collection(p.direction)
	for i, existing := range *ports {
		if existing == p {
			*ports = append((*ports)[:i], (*ports)[i+1:]...)
			return true
		}
	}
	return false
}

// ports returns inputs followed by outputs in a fresh slice.
func (n *node) ports() []*port {
	all := make([]*port, 0, len(n.inputs)+len(n.outputs))
	all = append(all, n.inputs...)
	return append(all, n.outputs...)
}

func (n *node) snapshot() Node {
	inputs := make([]Port, len(n.inputs))
	for i, p := range n.inputs {
		inputs[i] = p.snapshot()
	}
	outputs := make([]Port, len(n.outputs))
	for i, p := range n.outputs {
		outputs[i] = p.snapshot()
	}
	return Node{
		ID:          n.id,
		Name:        n.name,
		Description: n.description,
		Inputs:      inputs,
		Outputs:     outputs,
	}
}
