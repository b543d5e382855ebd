package reactor

import (
	"testing"
	"time"

	"github.com/ashgrove/reactor/syncpoint"
)

func TestLink_ForwardsStateAcrossGroups(t *testing.T) {
	source := NewGroup(WithID("source"))
	defer source.Close()
	target := NewGroup(WithID("target"))
	defer target.Close()

	src := NewStateVar(source, 1, nil)
	linked := Link(target, src)

	if got := linked.Value(); got != 1 {
		t.Fatalf("initial linked value = %d, want 1", got)
	}

	done := make(chan int, 1)
	obs := ObserveState(target, linked, func(v int) {
		select {
		case done <- v:
		default:
		}
	})
	defer obs.Close()

	if err := src.Set(42); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	select {
	case v := <-done:
		if v != 42 {
			t.Errorf("observed linked value = %d, want 42", v)
		}
	case <-time.After(time.Second):
		t.Fatal("link delivery did not arrive within timeout")
	}

	if got := linked.Value(); got != 42 {
		t.Errorf("linked.Value() = %d, want 42", got)
	}
}

func TestLink_CachesRepeatedLinksToSameSource(t *testing.T) {
	source := NewGroup()
	defer source.Close()
	target := NewGroup()
	defer target.Close()

	src := NewStateVar(source, 1, nil)
	first := Link(target, src)
	second := Link(target, src)

	if first.nodeID() != second.nodeID() {
		t.Errorf("expected repeated Link calls for the same source to reuse the receiver node, got ids %d and %d", first.nodeID(), second.nodeID())
	}
}

func TestLinkEvent_ForwardsEventsAcrossGroups(t *testing.T) {
	source := NewGroup()
	defer source.Close()
	target := NewGroup()
	defer target.Close()

	src := NewEventSource[string](source)
	linked := LinkEvent(target, src)

	done := make(chan []string, 1)
	obs := ObserveEvent(target, linked, func(vs []string) {
		select {
		case done <- vs:
		default:
		}
	})
	defer obs.Close()

	if err := src.Emit("hello"); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}

	select {
	case vs := <-done:
		if len(vs) != 1 || vs[0] != "hello" {
			t.Errorf("observed linked events = %v, want [hello]", vs)
		}
	case <-time.After(time.Second):
		t.Fatal("link delivery did not arrive within timeout")
	}
}

// TestLinkEvent_ForwardsAllEventsEmittedInOneTransaction is Scenario 5: two
// events emitted on the source inside one enqueued, sync_linked
// transaction must both arrive at the target's observer as [1, 2], not an
// empty slice. This guards against a linkoutput node staging a closure
// that re-reads the source's buffer at delivery time instead of snapshotting
// it at collection time: by the time the target's async worker runs the
// delivery, runCycle's finalizeCycle has already cleared the source event
// node's buffer for this cycle, so a late read sees nothing.
func TestLinkEvent_ForwardsAllEventsEmittedInOneTransaction(t *testing.T) {
	source := NewGroup(WithID("source"))
	defer source.Close()
	target := NewGroup(WithID("target"))
	defer target.Close()

	src := NewEventSource[int](source)
	linked := LinkEvent(target, src)

	done := make(chan []int, 1)
	obs := ObserveEvent(target, linked, func(vs []int) {
		select {
		case done <- vs:
		default:
		}
	})
	defer obs.Close()

	sp := syncpoint.New()
	if err := source.EnqueueTransaction(func() {
		_ = src.Emit(1)
		_ = src.Emit(2)
	}, sp, FlagSyncLinked); err != nil {
		t.Fatalf("EnqueueTransaction failed: %v", err)
	}
	sp.Wait()

	select {
	case vs := <-done:
		if len(vs) != 2 || vs[0] != 1 || vs[1] != 2 {
			t.Fatalf("observed linked events = %v, want [1 2]", vs)
		}
	case <-time.After(time.Second):
		t.Fatal("link delivery did not arrive within timeout")
	}
}

func TestEnqueueTransaction_FlagSyncLinkedWaitsForDownstreamDelivery(t *testing.T) {
	source := NewGroup(WithID("source"))
	defer source.Close()
	target := NewGroup(WithID("target"))
	defer target.Close()

	src := NewStateVar(source, 0, nil)
	linked := Link(target, src)

	delivered := make(chan struct{})
	obs := ObserveState(target, linked, func(int) {
		close(delivered)
	})
	defer obs.Close()

	sp := syncpoint.New()
	if err := source.EnqueueTransaction(func() {
		_ = src.Set(7)
	}, sp, FlagSyncLinked); err != nil {
		t.Fatalf("EnqueueTransaction failed: %v", err)
	}

	waitDone := make(chan struct{})
	var deliveredBeforeWait bool
	go func() {
		sp.Wait()
		select {
		case <-delivered:
			deliveredBeforeWait = true
		default:
		}
		close(waitDone)
	}()

	select {
	case <-waitDone:
	case <-time.After(time.Second):
		t.Fatal("sp.Wait() did not return")
	}

	if !deliveredBeforeWait {
		t.Error("expected sp.Wait() to return only once the downstream link delivery had completed")
	}
}
