package graph

// endpoint is one side of a link. held records whether the endpoint's port
// currently counts this link in its adjacency toward the other side.
type endpoint struct {
	port ref[port]
	held bool
}

// link is the addressable record of one output->input connection. It never
// owns its ports.
type link struct {
	id     ID
	output endpoint
	input  endpoint
}

// sides returns each endpoint paired with its opposite.
func (l *link) sides() [2][2]*endpoint {
	return [2][2]*endpoint{
		{&l.output, &l.input},
		{&l.input, &l.output},
	}
}

func (l *link) snapshot() Link {
	return Link{
		ID:     l.id,
		Output: l.output.port.snapshot(),
		Input:  l.input.port.snapshot(),
	}
}
