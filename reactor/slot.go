package reactor

// A slot is a state or event cell whose upstream source can be rewired at
// runtime. Rewiring goes through a hidden dyninput helper node rather than
// mutating the graph out of band: Set on a slot handle pushes the dyninput
// node as a changed input, and the dyninput's update, running with access
// to the owning Group via *cycle, detaches the old source edge, attaches
// the new one (which may raise the slot's level), and flags the slot to
// report resultShifted on its own update this cycle so the driver re-queues
// it at the corrected level instead of evaluating it stale.

// stateSlotNode forwards whatever state cell currentSource currently names.
type stateSlotNode[T any] struct {
	noClear
	noCollect

	value         T
	equal         func(a, b T) bool
	currentSource NodeID
	pendingShift  bool
}

func (n *stateSlotNode[T]) update(t *cycle) updateResult {
	src := t.g.table.get(n.currentSource).body.(valueProvider).currentValue().(T)

	if n.pendingShift {
		// Do not commit src here: the driver re-queues this node at its
		// corrected level and calls update again, and that second call must
		// still see the pre-rewire n.value to compare against, or a real
		// value change at the new source would look like no change at all
		// and successors (including observers) would never be woken.
		n.pendingShift = false
		return resultShifted
	}
	if n.equal(n.value, src) {
		return resultUnchanged
	}
	n.value = src
	return resultChanged
}

func (n *stateSlotNode[T]) currentValue() any { return n.value }

// stateDynInputNode is a state slot's rewire helper: an input-category node
// whose only job is to apply a pending source swap during the changed-input
// pass of a cycle.
type stateDynInputNode[T any] struct {
	noClear
	noCollect

	slotID          NodeID
	currentSourceID NodeID
	pendingSourceID NodeID
	hasPending      bool
}

func (n *stateDynInputNode[T]) applyRewire(newSource NodeID) {
	n.pendingSourceID = newSource
	n.hasPending = true
}

func (n *stateDynInputNode[T]) update(t *cycle) updateResult {
	if !n.hasPending {
		return resultUnchanged
	}
	n.hasPending = false
	old, next := n.currentSourceID, n.pendingSourceID
	if old == next {
		return resultUnchanged
	}
	t.g.table.detach(n.slotID, old)
	t.g.table.attach(n.slotID, next)
	n.currentSourceID = next

	slot := t.g.table.get(n.slotID).body.(*stateSlotNode[T])
	slot.currentSource = next
	slot.pendingShift = true
	return resultChanged
}

// eventSlotNode forwards whatever event cell currentSource currently names.
type eventSlotNode[E any] struct {
	noCollect

	buf           []E
	currentSource NodeID
	pendingShift  bool
}

func (n *eventSlotNode[E]) update(t *cycle) updateResult {
	raw := t.g.table.get(n.currentSource).body.(eventsProvider).currentEvents()
	out := make([]E, len(raw))
	for i, v := range raw {
		out[i] = v.(E)
	}

	if n.pendingShift {
		// Mirrors stateSlotNode.update: leave n.buf untouched so the re-queued
		// pass recomputes it from scratch instead of a pass that never marks
		// successors dirty.
		n.pendingShift = false
		return resultShifted
	}
	if len(out) == 0 {
		return resultUnchanged
	}
	n.buf = out
	return resultChanged
}

func (n *eventSlotNode[E]) clear() { n.buf = nil }

func (n *eventSlotNode[E]) currentEvents() []any {
	out := make([]any, len(n.buf))
	for i, v := range n.buf {
		out[i] = v
	}
	return out
}

func (n *eventSlotNode[E]) values() []E { return n.buf }

// eventDynInputNode is an event slot's rewire helper, mirroring
// stateDynInputNode.
type eventDynInputNode[E any] struct {
	noClear
	noCollect

	slotID          NodeID
	currentSourceID NodeID
	pendingSourceID NodeID
	hasPending      bool
}

func (n *eventDynInputNode[E]) applyRewire(newSource NodeID) {
	n.pendingSourceID = newSource
	n.hasPending = true
}

func (n *eventDynInputNode[E]) update(t *cycle) updateResult {
	if !n.hasPending {
		return resultUnchanged
	}
	n.hasPending = false
	old, next := n.currentSourceID, n.pendingSourceID
	if old == next {
		return resultUnchanged
	}
	t.g.table.detach(n.slotID, old)
	t.g.table.attach(n.slotID, next)
	n.currentSourceID = next

	slot := t.g.table.get(n.slotID).body.(*eventSlotNode[E])
	slot.currentSource = next
	slot.pendingShift = true
	return resultChanged
}
