package reactor

// observerNode is an output-category node: it runs a user callback against
// its parent's current value (or buffered events) whenever scheduled, has
// no successors, and never reports resultChanged; there is nothing
// downstream of an observer for the driver to wake.
type observerNode struct {
	noClear
	noCollect

	run func()
}

func (n *observerNode) update(*cycle) updateResult {
	n.run()
	return resultUnchanged
}
