package reactor

// linkOutputNode is attached as a child of a source cell; it never runs
// update (the driver special-cases CategoryLinkOutput nodes, calling
// collectOutput instead; see cycle.go), so whenever its parent changes
// this cycle it stages a delivery thunk into the shared linkOutputs map
// instead of computing a value of its own.
//
// collectOutput runs synchronously inside the source Group's own runCycle,
// before finalizeCycle clears the source node's per-cycle buffer, so
// snapshot must read the source's current value/events right there and
// close over the result. The returned thunk only ever touches that
// snapshot and the target graph; it must not re-read the source node,
// because by the time a target worker goroutine runs the thunk the source
// cycle may already have cleared its buffer, or even run a later cycle
// that overwrote it.
type linkOutputNode struct {
	noClear

	target   *Group
	snapshot func() func() // called at collection time; returns the delivery thunk
}

func (l *linkOutputNode) update(*cycle) updateResult { return resultUnchanged }

func (l *linkOutputNode) collectOutput(outputs *linkOutputs) {
	outputs.stage(l.target, l.snapshot())
}

// The receiver is the input-category node living in the target graph that a
// link delivers into: a stateVarNode for Link and an eventSourceNode for
// LinkEvent, reused as a forwarding endpoint rather than a user-facing input.
//
// Link registers a linkEntry (source-graph linkoutput node id, target-graph
// receiver node id) the first time a given (sourceGroup, sourceID, target)
// triple is linked, and reuses it for later calls as long as the returned
// handle, or anything else holding the linkEntry, is still reachable
// (linkCache.lookupOrCreate, backed by a weak.Pointer).

// Link forwards a state cell from one Group into another: every cycle in
// which src changes, the new value is pushed into an async transaction on
// target. The returned handle reads from target's graph.
func Link[T any](target *Group, src StateLike[T]) State[T] {
	sourceGroup := src.group()
	key := linkKey{source: sourceGroup, sourceID: src.nodeID()}

	entry := target.linkCache.lookupOrCreate(key, func() *linkEntry {
		receiverBody := newStateVarNode(src.Value(), defaultEqual[T]())
		receiverID := target.register(CategoryInput, receiverBody)

		outputBody := &linkOutputNode{target: target}
		outputID := sourceGroup.register(CategoryLinkOutput, outputBody)
		sourceGroup.attach(outputID, src.nodeID())

		outputBody.snapshot = func() func() {
			v := src.Value()
			return func() {
				target.stageChangedInput(receiverID, func() {
					target.table.get(receiverID).body.(*stateVarNode[T]).applySet(v)
				})
			}
		}

		return &linkEntry{linkOutputID: outputID, receiverID: receiverID}
	})

	return State[T]{g: target, id: entry.receiverID}
}

// LinkEvent forwards an event cell from one Group into another: every cycle
// in which src fires, the buffered values are pushed into an async
// transaction on target, in order.
func LinkEvent[E any](target *Group, src EventLike[E]) Event[E] {
	sourceGroup := src.group()
	key := linkKey{source: sourceGroup, sourceID: src.nodeID()}

	entry := target.linkCache.lookupOrCreate(key, func() *linkEntry {
		receiverBody := newEventSourceNode[E]()
		receiverID := target.register(CategoryInput, receiverBody)

		outputBody := &linkOutputNode{target: target}
		outputID := sourceGroup.register(CategoryLinkOutput, outputBody)
		sourceGroup.attach(outputID, src.nodeID())

		outputBody.snapshot = func() func() {
			vals := src.Values()
			return func() {
				target.stageChangedInput(receiverID, func() {
					recv := target.table.get(receiverID).body.(*eventSourceNode[E])
					for _, v := range vals {
						recv.applyEmit(v)
					}
				})
			}
		}

		return &linkEntry{linkOutputID: outputID, receiverID: receiverID}
	})

	// An event link's target-side handle is a derived Event reading
	// straight from the receiver's buffer, since application code should
	// not be able to Emit directly into a link's receiving end.
	return Event[E]{g: target, id: entry.receiverID}
}

// stageChangedInput records id as a changed input for this cycle without
// the pushInput entry-point's reentrancy guard: it is only ever called from
// inside a linkoutput delivery thunk, which itself runs inside the target
// Group's own async-queue transaction envelope (see transaction.go).
func (g *Group) stageChangedInput(id NodeID, apply func()) {
	apply()
	g.gmu.Lock()
	g.changedInputs = append(g.changedInputs, id)
	g.gmu.Unlock()
}
