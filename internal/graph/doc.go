// Package graph mirrors the node/port/link topology announced by an external
// audio graph manager.
//
// The manager announces objects one at a time and in no particular order: a
// port may arrive before the node that owns it, a link before either of the
// ports it connects. Registry accepts those notifications in any order and
// keeps the mirror consistent after each one.
//
// # References
//
// Every relation (a port's owner, a port's peers, a link's endpoints) is a weak
// reference holding the target's id and, once the target is live, a pointer to
// it. A reference whose target is missing is pending. When the target arrives
// the pointer is filled in place; when it is removed the reference degrades
// back to its id.
//
// Two pending indices drive resolution:
//   - nodeless ports: port ids keyed by the owner node id they wait for
//   - portless links: link ids keyed by each endpoint port id they wait for
//
// A link whose endpoints are both missing is filed under both port ids. Both
// entries name the same link record, so whichever port arrives first binds its
// own side only, and the second arrival completes the link without duplicating
// adjacency.
//
// # Invariants
//
// After every notification:
//   - a port whose owner is resolved appears in that node's port list, and a
//     node lists only ports it owns
//   - a resolved peer reference P->Q is mirrored by a resolved Q->P
//   - an id names at most one live node, port or link
//   - no pending bucket is keyed by an id that is currently live
//
// Check reports any violation; the property tests drive it with random
// notification sequences.
//
// # Concurrency
//
// Registry owns a single RWMutex. Notifications take it exclusively, queries
// share it. Queries return value snapshots, so callers can keep and read them
// after the lock is released. Change events are published after the lock is
// released.
package graph
