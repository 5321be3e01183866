package graph

import "slices"

// pendingIndex holds forward references waiting for their target.
// Buckets store ids, not pointers, so a removed entity is dropped from a
// bucket by id and a stale id is skipped on resolution.
type pendingIndex struct {
	nodelessPorts map[ID][]ID // owner node id -> port ids
	portlessLinks map[ID][]ID // endpoint port id -> link ids
}

func newPendingIndex() *pendingIndex {
	return &pendingIndex{
		nodelessPorts: make(map[ID][]ID),
		portlessLinks: make(map[ID][]ID),
	}
}

func (x *pendingIndex) addNodelessPort(owner, port ID) {
	x.nodelessPorts[owner] = appendUnique(x.nodelessPorts[owner], port)
}

func (x *pendingIndex) removeNodelessPort(owner, port ID) {
	removeFromBucket(x.nodelessPorts, owner, port)
}

// takeNodelessPorts empties and returns the bucket for owner.
func (x *pendingIndex) takeNodelessPorts(owner ID) []ID {
	ports := x.nodelessPorts[owner]
	delete(x.nodelessPorts, owner)
	return ports
}

func (x *pendingIndex) addPortlessLink(port, link ID) {
	x.portlessLinks[port] = appendUnique(x.portlessLinks[port], link)
}

func (x *pendingIndex) removePortlessLink(port, link ID) {
	removeFromBucket(x.portlessLinks, port, link)
}

// takePortlessLinks empties and returns the bucket for port.
func (x *pendingIndex) takePortlessLinks(port ID) []ID {
	links := x.portlessLinks[port]
	delete(x.portlessLinks, port)
	return links
}

func appendUnique(bucket []ID, id ID) []ID {
	if slices.Contains(bucket, id) {
		return bucket
	}
	return append(bucket, id)
}

func removeFromBucket(buckets map[ID][]ID, key, id ID) {
	bucket, ok := buckets[key]
	if !ok {
		return
	}
	bucket = slices.DeleteFunc(bucket, func(e ID) bool { return e == id })
	if len(bucket) == 0 {
		delete(buckets, key)
		return
	}
	buckets[key] = bucket
}

func countEntries(buckets map[ID][]ID) int {
	n := 0
	for _, bucket := range buckets {
		n += len(bucket)
	}
	return n
}
