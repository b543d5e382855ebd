package reactor

// valueProvider is implemented by every node body that holds a current
// value a dependent (or a link) can read: stateVarNode and stateFnNode.
type valueProvider interface {
	currentValue() any
}

// stateVarNode is the body of an input-category state cell: application
// code mutates it through Set/Modify (see cell.go's StateVar[T]), and
// update() applies whichever pending mutation was recorded by the last
// transaction that touched it.
type stateVarNode[T any] struct {
	noClear
	noCollect

	value   T
	pending T
	equal   func(a, b T) bool

	hasSet    bool
	hasModify bool
	modifyFn  func(T) T
}

func newStateVarNode[T any](initial T, equal func(a, b T) bool) *stateVarNode[T] {
	return &stateVarNode[T]{value: initial, equal: equal}
}

func (n *stateVarNode[T]) applySet(v T) {
	n.pending = v
	n.hasSet = true
	n.hasModify = false
}

func (n *stateVarNode[T]) applyModify(f func(T) T) {
	if n.hasModify && n.modifyFn != nil {
		prev := n.modifyFn
		n.modifyFn = func(v T) T { return f(prev(v)) }
	} else {
		n.modifyFn = f
	}
	n.hasModify = true
	n.hasSet = false
}

func (n *stateVarNode[T]) update(*cycle) updateResult {
	switch {
	case n.hasSet:
		n.hasSet = false
		if n.equal(n.value, n.pending) {
			return resultUnchanged
		}
		n.value = n.pending
		return resultChanged
	case n.hasModify:
		fn := n.modifyFn
		n.hasModify = false
		n.modifyFn = nil
		// Unlike hasSet, a modify is reported changed unconditionally: the
		// caller asked to mutate the value, and whether the result happens to
		// equal the old one isn't this node's business to decide.
		n.value = fn(n.value)
		return resultChanged
	default:
		return resultUnchanged
	}
}

func (n *stateVarNode[T]) currentValue() any { return n.value }

// stateFnNode is the body of a derived state cell: a pure function over the
// current values of its parents, recomputed whenever any parent changes.
type stateFnNode[T any] struct {
	noClear
	noCollect

	value   T
	compute func() T
	equal   func(a, b T) bool
}

func newStateFnNode[T any](compute func() T, equal func(a, b T) bool) *stateFnNode[T] {
	n := &stateFnNode[T]{compute: compute, equal: equal}
	n.value = compute()
	return n
}

func (n *stateFnNode[T]) update(*cycle) updateResult {
	next := n.compute()
	if n.equal(n.value, next) {
		return resultUnchanged
	}
	n.value = next
	return resultChanged
}

func (n *stateFnNode[T]) currentValue() any { return n.value }
