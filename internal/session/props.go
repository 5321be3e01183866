package session

import (
	"strconv"

	"github.com/david-sim0niants/audio-eq/internal/graph"
	"github.com/david-sim0niants/audio-eq/internal/log"
)

// Object types announced by the graph manager.
const (
	TypeNode = "PipeWire:Interface:Node"
	TypePort = "PipeWire:Interface:Port"
	TypeLink = "PipeWire:Interface:Link"
)

// Property keys read from announcements.
const (
	KeyNodeName        = "node.name"
	KeyNodeDescription = "node.description"
	KeyNodeID          = "node.id"
	KeyPortName        = "port.name"
	KeyPortDirection   = "port.direction"
	KeyLinkOutputPort  = "link.output.port"
	KeyLinkInputPort   = "link.input.port"
)

// Props is the string property bag attached to an announcement. Absent keys
// read as the empty string.
type Props map[string]string

// ID parses key as an object id. Absent or unparseable values read as 0.
func (p Props) ID(key string) graph.ID {
	raw, ok := p[key]
	if !ok || raw == "" {
		return 0
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		log.Debug(log.CatSession, "unparseable id property", "key", key, "value", raw)
		return 0
	}
	return graph.ID(v)
}

// Direction reads the port direction; anything but "in" is an output.
func (p Props) Direction() graph.Direction {
	return graph.ParseDirection(p[KeyPortDirection])
}

// SetID stores id under key in decimal form.
func (p Props) SetID(key string, id graph.ID) {
	p[key] = id.String()
}
