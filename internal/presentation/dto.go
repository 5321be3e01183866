package presentation

import (
	"github.com/david-sim0niants/audio-eq/internal/graph"
)

// PortDTO represents a port for presentation.
type PortDTO struct {
	ID        graph.ID    `json:"id"`
	Name      string      `json:"name"`
	Direction string      `json:"direction"`
	Owner     graph.Ref   `json:"owner"`
	Peers     []graph.Ref `json:"peers"` // always present, possibly empty
}

// NodeDTO represents a node with the ports it owns.
type NodeDTO struct {
	ID          graph.ID  `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Inputs      []PortDTO `json:"inputs"`
	Outputs     []PortDTO `json:"outputs"`
}

// LinkDTO represents a link record.
type LinkDTO struct {
	ID     graph.ID  `json:"id"`
	Output graph.Ref `json:"output"`
	Input  graph.Ref `json:"input"`
}

// StatsDTO represents registry counters.
type StatsDTO struct {
	Nodes         int    `json:"nodes"`
	Ports         int    `json:"ports"`
	Links         int    `json:"links"`
	NodelessPorts int    `json:"nodeless_ports"`
	PortlessLinks int    `json:"portless_links"`
	DroppedEvents uint64 `json:"dropped_events"`
}

// GraphDTO is a full dump of the mirror. Ports lists every port, owned or not.
type GraphDTO struct {
	Nodes []NodeDTO `json:"nodes"`
	Ports []PortDTO `json:"ports"`
	Links []LinkDTO `json:"links"`
	Stats StatsDTO  `json:"stats"`
}

// FromPort converts a port snapshot to a DTO.
func FromPort(p graph.Port) PortDTO {
	peers := make([]graph.Ref, len(p.Peers))
	copy(peers, p.Peers)
	return PortDTO{
		ID:        p.ID,
		Name:      p.Name,
		Direction: p.Direction.String(),
		Owner:     p.Owner,
		Peers:     peers,
	}
}

func fromPorts(ports []graph.Port) []PortDTO {
	dtos := make([]PortDTO, len(ports))
	for i, p := range ports {
		dtos[i] = FromPort(p)
	}
	return dtos
}

// FromNode converts a node snapshot to a DTO.
func FromNode(n graph.Node) NodeDTO {
	return NodeDTO{
		ID:          n.ID,
		Name:        n.Name,
		Description: n.Description,
		Inputs:      fromPorts(n.Inputs),
		Outputs:     fromPorts(n.Outputs),
	}
}

// FromLink converts a link snapshot to a DTO.
func FromLink(l graph.Link) LinkDTO {
	return LinkDTO{ID: l.ID, Output: l.Output, Input: l.Input}
}

// FromStats converts registry stats to a DTO.
func FromStats(s graph.Stats) StatsDTO {
	return StatsDTO(s)
}

// FromRegistry snapshots the whole registry. The lists are read one after
// another, so a concurrent notification may show up in some and not others.
func FromRegistry(r *graph.Registry) GraphDTO {
	nodes := r.ListNodes()
	dto := GraphDTO{
		Nodes: make([]NodeDTO, len(nodes)),
		Ports: fromPorts(r.ListPorts()),
		Stats: FromStats(r.Stats()),
	}
	for i, n := range nodes {
		dto.Nodes[i] = FromNode(n)
	}
	links := r.ListLinks()
	dto.Links = make([]LinkDTO, len(links))
	for i, l := range links {
		dto.Links[i] = FromLink(l)
	}
	return dto
}
