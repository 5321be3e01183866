package graph

import "strconv"

// ID identifies a node, port or link. IDs are assigned by the graph manager
// and are never reused while the object they name is live.
type ID uint32

func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Unowned is the owner id a port falls back to when its node is removed.
const Unowned ID = 0

// Direction is the data direction of a port.
type Direction int

const (
	// Output is the zero value: ports announced without a direction are outputs.
	Output Direction = iota
	Input
)

func (d Direction) String() string {
	if d == Input {
		return "in"
	}
	return "out"
}

// ParseDirection maps the manager's direction property to a Direction.
// Only "in" selects Input; anything else, including "", is Output.
func ParseDirection(s string) Direction {
	if s == "in" {
		return Input
	}
	return Output
}

// ref is a weak reference. id is always set; ptr is set while the target is live.
type ref[T any] struct {
	id  ID
	ptr *T
}

func pendingRef[T any](id ID) ref[T] {
	return ref[T]{id: id}
}

func resolvedRef[T any](id ID, ptr *T) ref[T] {
	return ref[T]{id: id, ptr: ptr}
}

func (r ref[T]) resolved() bool {
	return r.ptr != nil
}

func (r *ref[T]) resolve(ptr *T) {
	r.ptr = ptr
}

func (r *ref[T]) degrade() {
	r.ptr = nil
}

func (r ref[T]) snapshot() Ref {
	return Ref{ID: r.id, Resolved: r.ptr != nil}
}
