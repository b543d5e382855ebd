package syncpoint

import (
	"testing"
	"time"
)

func TestSyncPoint_WaitReturnsOnceAllDependenciesReleased(t *testing.T) {
	sp := New()
	d1 := NewDependency(sp)
	d2 := NewDependency(sp)

	done := make(chan struct{})
	go func() {
		sp.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Wait returned before any dependency was released")
	case <-time.After(50 * time.Millisecond):
	}

	d1.Release()

	select {
	case <-done:
		t.Fatal("Wait returned before the second dependency was released")
	case <-time.After(50 * time.Millisecond):
	}

	d2.Release()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after every dependency was released")
	}
}

func TestSyncPoint_NoDependenciesReleasesImmediately(t *testing.T) {
	sp := New()
	if !sp.WaitFor(10 * time.Millisecond) {
		t.Error("expected an empty SyncPoint to be immediately releasable")
	}
}

func TestSyncPoint_WaitForTimesOutWhileHeld(t *testing.T) {
	sp := New()
	d := NewDependency(sp)
	defer d.Release()

	if sp.WaitFor(20 * time.Millisecond) {
		t.Error("expected WaitFor to time out while a dependency is outstanding")
	}
}

func TestDependency_ReleaseIsIdempotent(t *testing.T) {
	sp := New()
	d := NewDependency(sp)

	d.Release()
	d.Release() // must not double-decrement

	if !sp.WaitFor(10 * time.Millisecond) {
		t.Error("expected SyncPoint to be released after a single effective Release")
	}
}

func TestDependency_CopyIsIndependentlyReleasable(t *testing.T) {
	sp := New()
	d := NewDependency(sp)
	dup := d.Copy()

	d.Release()
	if sp.WaitFor(20 * time.Millisecond) {
		t.Error("expected SyncPoint to still be held by the copy")
	}

	dup.Release()
	if !sp.WaitFor(20 * time.Millisecond) {
		t.Error("expected SyncPoint to release once the copy is also released")
	}
}

func TestCombine_ReleasesOnceEveryConstituentReleases(t *testing.T) {
	spA, spB := New(), New()
	dA := NewDependency(spA)
	dB := NewDependency(spB)

	combined := Combine([]Dependency{dA, dB})

	if combined.IsReleased() {
		t.Fatal("expected the combined dependency to start unreleased")
	}

	dA.Release()
	dB.Release()

	done := make(chan struct{})
	go func() {
		combined.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("combined dependency did not release after both constituents released")
	}
}

func TestCombine_EmptyYieldsAlreadyReleasedDependency(t *testing.T) {
	d := Combine(nil)
	if !d.IsReleased() {
		t.Error("expected Combine(nil) to return an already-released Dependency")
	}
}
