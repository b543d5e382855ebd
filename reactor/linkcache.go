package reactor

import (
	"sync"
	"weak"
)

// linkKey identifies a cross-graph forwarding relationship: a specific
// source cell in a specific source Group, forwarded into this cache's
// owning (target) Group.
type linkKey struct {
	source   *Group
	sourceID NodeID
}

// linkEntry is the resource pair behind one forwarding relationship: the
// linkoutput node living in the source graph and the receiver node living
// in the target graph. It is the object a linkCache holds weakly: repeated
// Link calls for the same (source, sourceID) pair reuse the pair as long as
// something else still references it, and transparently rebuild it once the
// last reference has been dropped and garbage collected.
type linkEntry struct {
	linkOutputID NodeID
	receiverID   NodeID
}

// linkCache is the per-graph registry of such pairs, keyed by the source
// cell's identity. It lives on the target Group, since that is where
// repeated Link calls for the same source are most likely to originate.
type linkCache struct {
	mu sync.Mutex
	m  map[linkKey]weak.Pointer[linkEntry]
}

func newLinkCache() *linkCache {
	return &linkCache{m: make(map[linkKey]weak.Pointer[linkEntry])}
}

// lookupOrCreate returns the cached entry for key if it is still reachable,
// otherwise calls create and caches the result as a weak reference.
func (c *linkCache) lookupOrCreate(key linkKey, create func() *linkEntry) *linkEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	if wp, ok := c.m[key]; ok {
		if e := wp.Value(); e != nil {
			return e
		}
	}
	e := create()
	c.m[key] = weak.Make(e)
	return e
}
