package reactor

import "reflect"

// cellRef is implemented by every cell handle in this file (all but
// Observer); it is how NewState/NewEvent accept dependencies of differing
// element types in a single variadic parameter without reflection at call
// sites.
type cellRef interface {
	nodeID() NodeID
	group() *Group
}

// StateLike is satisfied by any readable state cell (StateVar or State),
// the acceptable source for a StateSlot.
type StateLike[T any] interface {
	cellRef
	Value() T
}

// EventLike is satisfied by any readable event cell (EventSource or
// Event), the acceptable source for an EventSlot.
type EventLike[E any] interface {
	cellRef
	Values() []E
}

func defaultEqual[T any]() func(a, b T) bool {
	return func(a, b T) bool { return reflect.DeepEqual(a, b) }
}

func readValue[T any](g *Group, id NodeID) T {
	g.gmu.Lock()
	defer g.gmu.Unlock()
	return g.table.get(id).body.(valueProvider).currentValue().(T)
}

// StateVar is an input-category state cell: application code is the only
// writer, through Set or Modify.
type StateVar[T any] struct {
	g  *Group
	id NodeID
}

// NewStateVar registers a state variable holding initial. equal may be nil
// to fall back to reflect.DeepEqual.
func NewStateVar[T any](g *Group, initial T, equal func(a, b T) bool) StateVar[T] {
	if equal == nil {
		equal = defaultEqual[T]()
	}
	id := g.register(CategoryInput, newStateVarNode(initial, equal))
	return StateVar[T]{g: g, id: id}
}

func (s StateVar[T]) nodeID() NodeID { return s.id }
func (s StateVar[T]) group() *Group  { return s.g }

// Value returns the cell's current value as of the last completed cycle.
func (s StateVar[T]) Value() T { return readValue[T](s.g, s.id) }

// Set pushes a new value, scheduling a cycle if no transaction is open.
func (s StateVar[T]) Set(v T) error {
	return s.g.pushInput(s.id, func() {
		s.g.table.get(s.id).body.(*stateVarNode[T]).applySet(v)
	})
}

// Modify pushes a pending update expressed as a function of the current
// value, resolved against the value as of when the cycle actually runs
// rather than when Modify was called.
func (s StateVar[T]) Modify(f func(T) T) error {
	return s.g.pushInput(s.id, func() {
		s.g.table.get(s.id).body.(*stateVarNode[T]).applyModify(f)
	})
}

// State is a derived state cell: a pure function over its parents' current
// values, recomputed whenever any parent changes.
type State[T any] struct {
	g  *Group
	id NodeID
}

// NewState registers a derived state cell. compute is re-run whenever any
// of deps changes; it closes over whatever typed handles it needs rather
// than receiving them as arguments, so NewState stays arity-agnostic.
func NewState[T any](g *Group, compute func() T, equal func(a, b T) bool, deps ...cellRef) State[T] {
	if equal == nil {
		equal = defaultEqual[T]()
	}
	id := g.register(CategoryNormal, newStateFnNode(compute, equal))
	for _, d := range deps {
		g.attach(id, d.nodeID())
	}
	return State[T]{g: g, id: id}
}

func (s State[T]) nodeID() NodeID { return s.id }
func (s State[T]) group() *Group  { return s.g }
func (s State[T]) Value() T       { return readValue[T](s.g, s.id) }

// EventSource is an input-category event cell: application code pushes
// values through Emit.
type EventSource[E any] struct {
	g  *Group
	id NodeID
}

// NewEventSource registers an event source with an empty per-cycle buffer.
func NewEventSource[E any](g *Group) EventSource[E] {
	id := g.register(CategoryInput, newEventSourceNode[E]())
	return EventSource[E]{g: g, id: id}
}

func (e EventSource[E]) nodeID() NodeID { return e.id }
func (e EventSource[E]) group() *Group  { return e.g }

// Emit pushes a value, scheduling a cycle if no transaction is open.
func (e EventSource[E]) Emit(v E) error {
	return e.g.pushInput(e.id, func() {
		e.g.table.get(e.id).body.(*eventSourceNode[E]).applyEmit(v)
	})
}

// Values returns the values buffered by this cell during the cycle in which
// they were emitted (for example, read from an observer callback); the
// buffer is cleared when that cycle ends, so it is empty between cycles.
func (e EventSource[E]) Values() []E {
	e.g.gmu.Lock()
	defer e.g.gmu.Unlock()
	src := e.g.table.get(e.id).body.(*eventSourceNode[E]).values()
	return append([]E(nil), src...)
}

// Event is a derived event cell built from filter/transform/merge/snapshot
// combinators (see combinators.go).
type Event[E any] struct {
	g  *Group
	id NodeID
}

// NewEvent registers a derived event cell. compute is re-run whenever any
// of deps fires or changes, and returns the (possibly empty) set of values
// this cell emits for the current cycle.
func NewEvent[E any](g *Group, compute func() []E, deps ...cellRef) Event[E] {
	id := g.register(CategoryNormal, newEventFnNode(compute))
	for _, d := range deps {
		g.attach(id, d.nodeID())
	}
	return Event[E]{g: g, id: id}
}

func (e Event[E]) nodeID() NodeID { return e.id }
func (e Event[E]) group() *Group  { return e.g }

// Values returns the values this cell emitted during the current cycle; the
// buffer is cleared when the cycle ends, so it is empty between cycles.
// Reads through the eventsProvider interface rather than asserting a
// concrete node type, since a Link-backed Event's id names a plain
// eventSourceNode receiver rather than an eventFnNode.
func (e Event[E]) Values() []E {
	e.g.gmu.Lock()
	defer e.g.gmu.Unlock()
	raw := e.g.table.get(e.id).body.(eventsProvider).currentEvents()
	out := make([]E, len(raw))
	for i, v := range raw {
		out[i] = v.(E)
	}
	return out
}

// StateSlot holds a rewirable reference to another state cell, forwarding
// whatever cell it currently points at and repairing its own topological
// level when Set moves it to a cell at a different depth.
type StateSlot[T any] struct {
	g     *Group
	id    NodeID
	dynID NodeID
}

// NewStateSlot registers a state slot initially forwarding initial.
func NewStateSlot[T any](g *Group, initial StateLike[T], equal func(a, b T) bool) StateSlot[T] {
	if equal == nil {
		equal = defaultEqual[T]()
	}
	slotBody := &stateSlotNode[T]{equal: equal, currentSource: initial.nodeID(), value: initial.Value()}
	slotID := g.register(CategoryNormal, slotBody)
	g.attach(slotID, initial.nodeID())

	dynBody := &stateDynInputNode[T]{slotID: slotID, currentSourceID: initial.nodeID()}
	dynID := g.register(CategoryDynInput, dynBody)
	g.attach(slotID, dynID)

	return StateSlot[T]{g: g, id: slotID, dynID: dynID}
}

func (s StateSlot[T]) nodeID() NodeID { return s.id }
func (s StateSlot[T]) group() *Group  { return s.g }
func (s StateSlot[T]) Value() T       { return readValue[T](s.g, s.id) }

// Set rewires the slot to forward newSource from the next cycle onward.
func (s StateSlot[T]) Set(newSource StateLike[T]) error {
	return s.g.pushInput(s.dynID, func() {
		s.g.table.get(s.dynID).body.(*stateDynInputNode[T]).applyRewire(newSource.nodeID())
	})
}

// EventSlot holds a rewirable reference to another event cell.
type EventSlot[E any] struct {
	g     *Group
	id    NodeID
	dynID NodeID
}

// NewEventSlot registers an event slot initially forwarding initial.
func NewEventSlot[E any](g *Group, initial EventLike[E]) EventSlot[E] {
	slotBody := &eventSlotNode[E]{currentSource: initial.nodeID()}
	slotID := g.register(CategoryNormal, slotBody)
	g.attach(slotID, initial.nodeID())

	dynBody := &eventDynInputNode[E]{slotID: slotID, currentSourceID: initial.nodeID()}
	dynID := g.register(CategoryDynInput, dynBody)
	g.attach(slotID, dynID)

	return EventSlot[E]{g: g, id: slotID, dynID: dynID}
}

func (s EventSlot[E]) nodeID() NodeID { return s.id }
func (s EventSlot[E]) group() *Group  { return s.g }

// Values returns the values forwarded through this slot during the current
// cycle; empty between cycles.
func (s EventSlot[E]) Values() []E {
	s.g.gmu.Lock()
	defer s.g.gmu.Unlock()
	src := s.g.table.get(s.id).body.(*eventSlotNode[E]).values()
	return append([]E(nil), src...)
}

// Set rewires the slot to forward newSource from the next cycle onward.
func (s EventSlot[E]) Set(newSource EventLike[E]) error {
	return s.g.pushInput(s.dynID, func() {
		s.g.table.get(s.dynID).body.(*eventDynInputNode[E]).applyRewire(newSource.nodeID())
	})
}

// Observer is an output-category node invoking a user callback whenever its
// source changes or fires. It has no handle-level accessors of its own;
// Close detaches and frees it.
type Observer struct {
	g      *Group
	id     NodeID
	parent NodeID
}

// ObserveState registers fn to run whenever src changes, after the cycle
// that changed it has applied the new value.
func ObserveState[T any](g *Group, src StateLike[T], fn func(T)) Observer {
	body := &observerNode{run: func() { fn(src.Value()) }}
	id := g.register(CategoryOutput, body)
	g.attach(id, src.nodeID())
	return Observer{g: g, id: id, parent: src.nodeID()}
}

// ObserveEvent registers fn to run whenever src fires, receiving every
// value buffered in the firing cycle.
func ObserveEvent[E any](g *Group, src EventLike[E], fn func([]E)) Observer {
	body := &observerNode{run: func() { fn(src.Values()) }}
	id := g.register(CategoryOutput, body)
	g.attach(id, src.nodeID())
	return Observer{g: g, id: id, parent: src.nodeID()}
}

// Close detaches and frees the observer. Safe to call once; subsequent
// calls are no-ops.
func (o *Observer) Close() {
	if o.g == nil {
		return
	}
	o.g.detach(o.id, o.parent)
	o.g.unregister(o.id)
	o.g = nil
}
