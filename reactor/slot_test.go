package reactor

import (
	"fmt"
	"testing"
)

func TestStateSlot_RewireForwardsNewSourceAndTracksLevelChange(t *testing.T) {
	g := NewGroup()
	defer g.Close()

	x := NewStateVar(g, "x-value", nil)
	a := NewStateVar(g, 1, nil)
	derived := NewState(g, func() string { return fmt.Sprintf("derived-%d", a.Value()) }, nil, a)

	slot := NewStateSlot[string](g, x, nil)
	if got, want := slot.Value(), "x-value"; got != want {
		t.Fatalf("initial slot value = %q, want %q", got, want)
	}

	if err := slot.Set(derived); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got, want := slot.Value(), "derived-1"; got != want {
		t.Errorf("slot value after rewire = %q, want %q", got, want)
	}

	// Once rewired to a higher-level source, changes upstream of that
	// source must still reach the slot correctly.
	if err := a.Set(2); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got, want := slot.Value(), "derived-2"; got != want {
		t.Errorf("slot value after upstream change = %q, want %q", got, want)
	}
}

// TestStateSlot_RewireWakesObserverWithNewValue is Scenario 4: a = var(1),
// b = var(2), slot = state_slot(a), obs = observer(x -> log x, slot). After
// slot.set(b); b.set(5), the log must contain 2 then 5, and changes to a
// after the rewire must not produce log entries. This specifically guards
// against a slot committing its forwarded value during the resultShifted
// pass: if it did, the re-queued pass that actually wakes observers would
// compare the new value against itself and see no change, so "2" would
// never reach the observer.
func TestStateSlot_RewireWakesObserverWithNewValue(t *testing.T) {
	g := NewGroup()
	defer g.Close()

	a := NewStateVar(g, 1, nil)
	b := NewStateVar(g, 2, nil)
	slot := NewStateSlot[int](g, a, nil)

	var log []int
	obs := ObserveState(g, slot, func(v int) { log = append(log, v) })
	defer obs.Close()

	if err := slot.Set(b); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := b.Set(5); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := a.Set(99); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if len(log) != 2 || log[0] != 2 || log[1] != 5 {
		t.Fatalf("observer log = %v, want [2 5]", log)
	}
}

func TestEventSlot_RewireForwardsNewSource(t *testing.T) {
	g := NewGroup()
	defer g.Close()

	first := NewEventSource[int](g)
	second := NewEventSource[int](g)

	slot := NewEventSlot[int](g, first)

	var seen []int
	obs := ObserveEvent(g, slot, func(vs []int) { seen = vs })
	defer obs.Close()

	if err := first.Emit(1); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	if len(seen) != 1 || seen[0] != 1 {
		t.Fatalf("observed slot values = %v, want [1]", seen)
	}

	if err := slot.Set(second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := second.Emit(9); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	if len(seen) != 1 || seen[0] != 9 {
		t.Fatalf("observed slot values after rewire = %v, want [9]", seen)
	}

	// Emitting on the now-disconnected original source must not reach the
	// slot any longer.
	if err := first.Emit(100); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	if got := slot.Values(); len(got) != 0 {
		t.Errorf("slot.Values() after emitting on detached source = %v, want none", got)
	}
}

// alwaysShiftNode is a test-only node body that reports resultShifted on
// every update, standing in for a graph whose shift-repair loop never
// converges: the non-terminating case MaxShiftIterations exists to bound.
type alwaysShiftNode struct {
	noClear
	noCollect
}

func (n *alwaysShiftNode) update(*cycle) updateResult { return resultShifted }

func TestRunCycle_NonConvergingShiftRepairReturnsErrCycleDetected(t *testing.T) {
	g := NewGroup(WithMaxShiftIterations(3))
	defer g.Close()

	trigger := NewStateVar(g, 0, nil)
	badID := g.register(CategoryNormal, &alwaysShiftNode{})
	g.attach(badID, trigger.nodeID())

	if err := trigger.Set(1); err != ErrCycleDetected {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}
}
