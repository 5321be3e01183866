package tracing

// Span attribute keys shared by the graph mirror and its session adapters.
const (
	// Entity attributes
	AttrEntityID   = "entity.id"
	AttrEntityKind = "entity.kind"
	AttrOwnerID    = "port.owner_id"
	AttrDirection  = "port.direction"
	AttrOutputPort = "link.output_port"
	AttrInputPort  = "link.input_port"

	// Notification outcome attributes
	AttrDuplicate     = "notify.duplicate"
	AttrUnknown       = "notify.unknown"
	AttrResolvedCount = "notify.resolved_count"
	AttrPendingCount  = "notify.pending_count"

	// Session attributes
	AttrSessionID   = "session.id"
	AttrObjectType  = "session.object_type"
	AttrEventSource = "session.event_source"

	// Error attributes
	AttrErrorMessage = "error.message"
)

// Span names.
const (
	SpanNodeAdded   = "graph.node_added"
	SpanPortAdded   = "graph.port_added"
	SpanLinkAdded   = "graph.link_added"
	SpanRemoved     = "graph.removed"
	SpanLinkPorts   = "session.link_ports"
	SpanUnlinkPorts = "session.unlink_ports"
	SpanReplay      = "session.replay"
)

// Event names for span events.
const (
	EventPortResolved  = "port.resolved"
	EventLinkResolved  = "link.resolved"
	EventLinkDeferred  = "link.deferred"
	EventPortUnowned   = "port.unowned"
	EventEndpointLost  = "link.endpoint_lost"
	EventReplayedEvent = "replay.event"
)
