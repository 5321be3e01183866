package session

import "errors"

var (
	// ErrDirectionMismatch is returned when a link is requested between ports
	// that are not one output and one input.
	ErrDirectionMismatch = errors.New("ports must be one output and one input")
	// ErrUnknownLink is returned when unlinking an id this session did not create.
	ErrUnknownLink = errors.New("link was not created by this session")
	// ErrNoSuchPort is returned when a port id is not live in the registry.
	ErrNoSuchPort = errors.New("no such port")
)
