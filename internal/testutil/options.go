package testutil

import "github.com/david-sim0niants/audio-eq/internal/graph"

type nodeData struct {
	name        string
	description string
}

// NodeOption configures a node announcement.
type NodeOption func(*nodeData)

// Description sets node.description.
func Description(d string) NodeOption {
	return func(n *nodeData) {
		n.description = d
	}
}

type portData struct {
	name      string
	direction string
	owner     graph.ID
}

// PortOption configures a port announcement.
type PortOption func(*portData)

// In marks the port as an input.
func In() PortOption {
	return func(p *portData) {
		p.direction = "in"
	}
}

// Out marks the port as an output. Ports are outputs by default; Out spells
// the direction out in the announced properties.
func Out() PortOption {
	return func(p *portData) {
		p.direction = "out"
	}
}

// Owner sets node.id.
func Owner(id graph.ID) PortOption {
	return func(p *portData) {
		p.owner = id
	}
}
