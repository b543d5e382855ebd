// Package syncpoint provides a refcounted wait primitive used to join on
// enqueued transactions: a SyncPoint holds shared state (a mutex, a
// condition variable, and a waiter count); a Dependency increments that
// count on construction and decrements it on Release, and the SyncPoint's
// waits unblock once the count reaches zero.
package syncpoint

import (
	"sync"
	"time"
)

// state is the shared, refcounted wait state behind a SyncPoint. Multiple
// SyncPoint values and Dependency values may reference the same state.
type state struct {
	mu    sync.Mutex
	cond  *sync.Cond
	count int
}

func newState() *state {
	s := &state{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *state) increment() {
	s.mu.Lock()
	s.count++
	s.mu.Unlock()
}

func (s *state) decrement() {
	s.mu.Lock()
	s.count--
	if s.count == 0 {
		s.cond.Broadcast()
	}
	s.mu.Unlock()
}

func (s *state) wait() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.count > 0 {
		s.cond.Wait()
	}
}

// waitFor blocks until the count reaches zero or d elapses, reporting which
// happened. sync.Cond has no timed wait, so release is observed from a
// helper goroutine and raced against a timer in the caller's goroutine.
func (s *state) waitFor(d time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(d):
		s.mu.Lock()
		released := s.count == 0
		s.mu.Unlock()
		return released
	}
}

// SyncPoint is a shared wait primitive released once every Dependency
// constructed from it (directly, or transitively via a collection
// Dependency) has been released. A SyncPoint with no outstanding
// dependencies is immediately releasable.
type SyncPoint struct {
	st *state
}

// New creates a fresh SyncPoint with no outstanding dependencies.
func New() SyncPoint {
	return SyncPoint{st: newState()}
}

// Wait blocks until every Dependency constructed from this SyncPoint has
// been released.
func (sp SyncPoint) Wait() {
	sp.st.wait()
}

// WaitFor blocks until release or until d elapses, whichever comes first,
// reporting whether release happened within d.
func (sp SyncPoint) WaitFor(d time.Duration) bool {
	return sp.st.waitFor(d)
}

// WaitUntil blocks until release or until deadline, reporting whether
// release happened before the deadline.
func (sp SyncPoint) WaitUntil(deadline time.Time) bool {
	return sp.st.waitFor(time.Until(deadline))
}

// Dependency is a refcounted token on a SyncPoint's wait state. Constructing
// one increments the count; Release decrements it. A finalizer is
// deliberately not relied upon; callers must Release explicitly.
type Dependency struct {
	st       *state
	released bool
}

// NewDependency constructs a Dependency on sp, incrementing its wait count.
// For a zero-value SyncPoint it returns a zero-value (already released)
// Dependency.
func NewDependency(sp SyncPoint) Dependency {
	if sp.st == nil {
		return Dependency{}
	}
	sp.st.increment()
	return Dependency{st: sp.st}
}

// Combine constructs a single Dependency over a whole batch of existing
// dependencies: it is released only once every constituent has been
// released. This mirrors the source's Dependency-from-vector-of-Dependency
// constructor, implemented here as a small collection state holding its own
// refcount over the constituents rather than a second ISyncPointState
// variant, since Go dependencies are plain values rather than a class
// hierarchy.
func Combine(deps []Dependency) Dependency {
	if len(deps) == 0 {
		return Dependency{}
	}
	sp := New()
	result := NewDependency(sp)
	go func() {
		for _, constituent := range deps {
			constituent.Wait()
		}
		result.Release()
	}()
	return result
}

// Wait blocks until this dependency's underlying SyncPoint is released.
// Useful when a Dependency is held on its own (e.g. as a transaction's
// upstream dependency) without a separate SyncPoint handle.
func (d Dependency) Wait() {
	if d.st == nil {
		return
	}
	d.st.wait()
}

// Release decrements the underlying SyncPoint's wait count. Calling it again
// on the same Dependency is a no-op, as is Release on a zero-value Dependency.
func (d *Dependency) Release() {
	if d.st == nil || d.released {
		return
	}
	d.st.decrement()
	d.released = true
}

// IsReleased reports whether Release has already been called.
func (d Dependency) IsReleased() bool {
	return d.st == nil || d.released
}

// Copy returns a new Dependency referencing the same SyncPoint state,
// incrementing the wait count again. Each copy is an independent token.
func (d Dependency) Copy() Dependency {
	if d.st == nil {
		return Dependency{}
	}
	d.st.increment()
	return Dependency{st: d.st}
}
