package reactor

// Combinators supplementing the core typed constructors in cell.go, each a
// thin closure built on top of NewState/NewEvent rather than a distinct
// node kind: idiomatic here because a stateFnNode/eventFnNode's compute
// closure can already carry whatever private fold state it needs between
// invocations.

// Hold folds an event into a state cell: the cell's value is initial until
// src first fires, and thereafter the most recently emitted value (the
// last one, if several land in the same cycle).
func Hold[T any](g *Group, initial T, src EventLike[T]) State[T] {
	current := initial
	compute := func() T {
		if vals := src.Values(); len(vals) > 0 {
			current = vals[len(vals)-1]
		}
		return current
	}
	return NewState[T](g, compute, defaultEqual[T](), src)
}

// Iterate folds every value an event produces in a cycle through fn,
// threading the accumulator across cycles the way Hold threads a plain
// value.
func Iterate[T, E any](g *Group, initial T, trigger EventLike[E], fn func(e E, acc T) T) State[T] {
	current := initial
	compute := func() T {
		for _, e := range trigger.Values() {
			current = fn(e, current)
		}
		return current
	}
	return NewState[T](g, compute, defaultEqual[T](), trigger)
}

// FilterEvent keeps only the values of src that satisfy pred.
func FilterEvent[E any](g *Group, src EventLike[E], pred func(E) bool) Event[E] {
	compute := func() []E {
		vals := src.Values()
		out := make([]E, 0, len(vals))
		for _, v := range vals {
			if pred(v) {
				out = append(out, v)
			}
		}
		return out
	}
	return NewEvent[E](g, compute, src)
}

// TransformEvent maps every value src emits through fn.
func TransformEvent[E, R any](g *Group, src EventLike[E], fn func(E) R) Event[R] {
	compute := func() []R {
		vals := src.Values()
		out := make([]R, len(vals))
		for i, v := range vals {
			out[i] = fn(v)
		}
		return out
	}
	return NewEvent[R](g, compute, src)
}

// MergeEvents combines any number of same-typed event cells into one,
// preserving each source's emission order within a cycle and ordering the
// sources themselves in the order given.
func MergeEvents[E any](g *Group, srcs ...EventLike[E]) Event[E] {
	compute := func() []E {
		var out []E
		for _, s := range srcs {
			out = append(out, s.Values()...)
		}
		return out
	}
	deps := make([]cellRef, len(srcs))
	for i, s := range srcs {
		deps[i] = s
	}
	return NewEvent[E](g, compute, deps...)
}

// Snapshot emits the current value of state once for every occurrence of
// trigger in a cycle, discarding trigger's own payload. state is also
// attached as a level dependency (so a same-cycle state change is visible
// before the snapshot is taken) without being a scheduling trigger on its
// own: a cycle in which only state changes re-evaluates this node but
// yields no values, since trigger.Values() is empty.
func Snapshot[T, E any](g *Group, state StateLike[T], trigger EventLike[E]) Event[T] {
	compute := func() []T {
		vals := trigger.Values()
		if len(vals) == 0 {
			return nil
		}
		v := state.Value()
		out := make([]T, len(vals))
		for i := range out {
			out[i] = v
		}
		return out
	}
	return NewEvent[T](g, compute, trigger, state)
}

// Pair is the payload TransformEvent-free combinators like Pulse emit when
// they need to carry two values of different types through a single event.
type Pair[T, E any] struct {
	Value   T
	Trigger E
}

// Pulse tags every occurrence of trigger with the current value of state,
// keeping trigger's own payload alongside it: Snapshot without discarding
// the trigger.
func Pulse[T, E any](g *Group, state StateLike[T], trigger EventLike[E]) Event[Pair[T, E]] {
	compute := func() []Pair[T, E] {
		vals := trigger.Values()
		if len(vals) == 0 {
			return nil
		}
		v := state.Value()
		out := make([]Pair[T, E], len(vals))
		for i, e := range vals {
			out[i] = Pair[T, E]{Value: v, Trigger: e}
		}
		return out
	}
	return NewEvent[Pair[T, E]](g, compute, trigger, state)
}
