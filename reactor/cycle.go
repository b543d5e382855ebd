package reactor

import (
	"context"
	"time"

	"github.com/ashgrove/reactor/emit"
	"github.com/ashgrove/reactor/syncpoint"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// cycle is the transient per-propagation context passed to every node
// body's update. It exists mainly so slot/dyninput nodes can reach back
// into the owning Group to rewire edges as part of an ordinary update call.
type cycle struct {
	g *Group
}

// linkOutputs accumulates, per target Group, the delivery thunks staged by
// linkoutput nodes during a single propagation cycle. It is drained into
// one async transaction per target Group at the end of the cycle.
type linkOutputs map[*Group][]func()

func (o linkOutputs) stage(target *Group, thunk func()) {
	o[target] = append(o[target], thunk)
}

// runCycle is the propagation driver: drain changedInputs,
// schedule successors by level, repeatedly pop the smallest-level bucket,
// update each node, re-schedule successors on change, repair topology
// shifts by re-queuing at the corrected level, and finally stage link
// outputs into the target graphs' transaction queues.
//
// Exactly one of these ever runs on a Group at a time (enforced by the
// transactionLevel/inCycle bookkeeping in transaction.go), so the node
// table, queue, and per-cycle scratch fields need no locking while a cycle
// is executing; only the entry/exit bookkeeping takes gmu.
func (g *Group) runCycle(changedInputs []NodeID) (err error) {
	g.gmu.Lock()
	g.inCycle = true
	g.gmu.Unlock()

	start := time.Now()
	em := g.emitter()
	em.Emit(emit.Event{GraphID: g.id(), Msg: "cycle_start"})

	currentNode := invalidNodeID
	defer func() {
		if r := recover(); r != nil {
			err = &PropagationError{NodeID: currentNode, Cause: r}
		}
		g.finalizeCycle()
		em.Emit(emit.Event{GraphID: g.id(), Msg: "cycle_end", Meta: map[string]any{
			"duration_ms": time.Since(start).Milliseconds(),
			"error":       err != nil,
		}})
		if m := g.metrics(); m != nil {
			m.observeCycle(g.id(), time.Since(start), err != nil)
		}
		g.gmu.Lock()
		g.inCycle = false
		g.gmu.Unlock()
	}()

	t := &cycle{g: g}
	q := g.queue

	markDirty := func(id NodeID) {
		g.dirty = append(g.dirty, id)
		m := g.table.get(id)
		for _, s := range m.succ {
			sm := g.table.get(s)
			if !sm.queued {
				sm.queued = true
				q.push(s, sm.level)
			}
		}
	}

	for _, id := range changedInputs {
		currentNode = id
		m := g.table.get(id)
		if m.body.update(t) == resultChanged {
			markDirty(id)
		}
	}

	shiftIterations := 0
	maxQueueDepth := 0
	for q.fetchNext() {
		batch := q.next()
		if n := len(q.pending); n > maxQueueDepth {
			maxQueueDepth = n
		}

		// Entries whose level lags their newLevel only need the level bump
		// applied (cheap, sequential); the rest are candidates for an
		// actual body.update call, which is where MaxParallelism pays off
		// for a wide same-level fan-out.
		var toUpdate []NodeID
		for _, e := range batch {
			id := e.id
			m := g.table.get(id)
			m.queued = false

			if m.level < m.newLevel {
				m.level = m.newLevel
				for _, s := range m.succ {
					sm := g.table.get(s)
					if sm.newLevel < m.level+1 {
						sm.newLevel = m.level + 1
					}
				}
				if !m.queued {
					m.queued = true
					q.push(id, m.level)
				}
				continue
			}

			if m.category == CategoryLinkOutput {
				m.body.collectOutput(&g.outputs)
				continue
			}

			toUpdate = append(toUpdate, id)
		}

		results, err := g.updateBatch(t, toUpdate)
		if err != nil {
			if pe, ok := err.(*PropagationError); ok {
				currentNode = pe.NodeID
			}
			return err
		}

		for i, id := range toUpdate {
			currentNode = id
			m := g.table.get(id)
			switch results[i] {
			case resultChanged:
				markDirty(id)
			case resultShifted:
				em.Emit(emit.Event{GraphID: g.id(), Msg: "shift_repair", NodeID: int32(id), Meta: map[string]any{"level": m.level}})
				if mt := g.metrics(); mt != nil {
					mt.observeShiftRepair()
				}
				for _, s := range m.succ {
					sm := g.table.get(s)
					if sm.newLevel < m.level+1 {
						sm.newLevel = m.level + 1
					}
				}
				m.queued = true
				q.push(id, m.level)
				shiftIterations++
				if shiftIterations > g.opts.MaxShiftIterations {
					return ErrCycleDetected
				}
			}
		}
	}

	if mt := g.metrics(); mt != nil {
		mt.setQueueDepth(maxQueueDepth)
	}

	return nil
}

// updateBatch runs body.update for every id in ids. With MaxParallelism <= 1
// (the default, single-threaded cooperative propagation) or a batch too
// small to benefit, it runs them in the calling goroutine in order.
// Otherwise it fans the same-level batch out across a
// bounded worker pool: nodes at the same topological level never depend on
// one another within a cycle, so their update calls are safe to run
// concurrently, and only the sequential bookkeeping afterward touches the
// shared queue and level tables.
func (g *Group) updateBatch(t *cycle, ids []NodeID) ([]updateResult, error) {
	results := make([]updateResult, len(ids))

	if g.opts.MaxParallelism <= 1 || len(ids) <= 1 {
		for i, id := range ids {
			res, err := runUpdate(g, id, t)
			if err != nil {
				return nil, err
			}
			results[i] = res
		}
		return results, nil
	}

	sem := semaphore.NewWeighted(int64(g.opts.MaxParallelism))
	grp, ctx := errgroup.WithContext(context.Background())
	for i, id := range ids {
		i, id := i, id
		grp.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)
			res, err := runUpdate(g, id, t)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// runUpdate invokes a single node's update, converting a panic into a
// PropagationError so a failure inside one parallel worker surfaces through
// errgroup's normal error path instead of crashing the goroutine outright.
func runUpdate(g *Group, id NodeID, t *cycle) (res updateResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PropagationError{NodeID: id, Cause: r}
		}
	}()
	res = g.table.get(id).body.update(t)
	return res, nil
}

func (g *Group) id() string {
	return g.opts.id
}

// finalizeCycle enqueues staged link deliveries on their target graphs,
// clears per-cycle buffers on every dirty node, and resets per-cycle
// scratch state. Runs exactly once per cycle regardless of whether the
// cycle completed normally or a node panicked, so the graph is never left
// holding stale buffers.
func (g *Group) finalizeCycle() {
	for target, thunks := range g.outputs {
		var depsForTarget []syncpoint.Dependency
		for _, d := range g.linkDeps {
			depsForTarget = append(depsForTarget, d.Copy())
		}
		var dep syncpoint.Dependency
		switch len(depsForTarget) {
		case 0:
		case 1:
			dep = depsForTarget[0]
		default:
			// The downstream transaction holds a single token; once it is
			// released, every upstream copy is released with it.
			sp := syncpoint.New()
			dep = syncpoint.NewDependency(sp)
			copies := depsForTarget
			go func() {
				sp.Wait()
				for i := range copies {
					copies[i].Release()
				}
			}()
		}
		syncLinked := len(g.linkDeps) > 0
		target.async.enqueueFromLink(thunks, dep, g.allowMerge, syncLinked)
	}
	g.outputs = make(linkOutputs)

	for _, id := range g.dirty {
		if g.table.valid(id) {
			g.table.get(id).body.clear()
		}
	}
	g.dirty = g.dirty[:0]

	for _, d := range g.localDeps {
		d := d
		d.Release()
	}
	for _, d := range g.linkDeps {
		d := d
		d.Release()
	}
	g.localDeps = nil
	g.linkDeps = nil
	g.allowMerge = false
}
