package reactor

import (
	"sync"

	"github.com/ashgrove/reactor/syncpoint"
)

// Flags controls how an asynchronously enqueued transaction behaves once
// its turn comes up on the async queue.
type Flags uint8

const (
	// FlagNone runs the transaction alone, waking the caller's SyncPoint
	// (if any) as soon as this transaction's own cycle completes.
	FlagNone Flags = 0

	// FlagAllowMerging lets this transaction's input-pushing function be
	// batched together with any other allow-merging transactions already
	// queued behind it, so they drive a single propagation cycle instead
	// of one each.
	FlagAllowMerging Flags = 1 << iota

	// FlagSyncLinked defers releasing this transaction's dependency until
	// every downstream link delivery it causes has itself finished
	// propagating, rather than releasing as soon as this Group's own
	// cycle completes.
	FlagSyncLinked
)

// DoTransaction runs fn synchronously, batching every state/event push fn
// makes into changedInputs, and drives exactly one propagation cycle once
// the outermost DoTransaction call returns. Nested calls (fn itself calling
// DoTransaction) simply extend the same batch. Calling DoTransaction from
// within a running cycle (a node update or observer callback) is reentrant
// misuse and returns ErrReentrantTransaction without running fn.
func (g *Group) DoTransaction(fn func()) error {
	g.gmu.Lock()
	if g.inCycle {
		g.gmu.Unlock()
		return ErrReentrantTransaction
	}
	g.transactionLevel++
	g.gmu.Unlock()

	fn()

	g.gmu.Lock()
	g.transactionLevel--
	runNow := g.transactionLevel == 0
	g.gmu.Unlock()

	if runNow {
		return g.drive()
	}
	return nil
}

// pushInput is the synchronous half of every typed handle's Set/Modify/Emit:
// it applies the mutation to the node's pending buffer, records the node as
// a changed input, and drives a cycle immediately unless a DoTransaction (or
// async batch) is already in progress on this Group.
func (g *Group) pushInput(id NodeID, apply func()) error {
	g.gmu.Lock()
	if g.inCycle {
		g.gmu.Unlock()
		return ErrReentrantTransaction
	}
	if !g.table.valid(id) {
		g.gmu.Unlock()
		return ErrDestroyedNode
	}
	apply()
	g.changedInputs = append(g.changedInputs, id)
	runNow := g.transactionLevel == 0
	g.gmu.Unlock()

	if runNow {
		return g.drive()
	}
	return nil
}

// drive hands the accumulated changedInputs to runCycle, doing nothing if
// nothing actually changed.
func (g *Group) drive() error {
	g.gmu.Lock()
	inputs := g.changedInputs
	g.changedInputs = nil
	g.gmu.Unlock()

	if len(inputs) == 0 {
		return nil
	}
	return g.runCycle(inputs)
}

// EnqueueTransaction schedules fn to run on this Group's single async
// worker goroutine. sp, if non-zero, gates a caller's Wait/WaitFor/WaitUntil
// on this transaction (and, with FlagSyncLinked, on every downstream link
// delivery it triggers). Returns ErrGraphClosed once Close has been called.
func (g *Group) EnqueueTransaction(fn func(), sp syncpoint.SyncPoint, flags Flags) error {
	return g.async.enqueue(asyncTxn{
		fn:           fn,
		dep:          syncpoint.NewDependency(sp),
		allowMerging: flags&FlagAllowMerging != 0,
		syncLinked:   flags&FlagSyncLinked != 0,
	})
}

// asyncTxn is one unit of work submitted via EnqueueTransaction or staged by
// a linkoutput node's delivery.
type asyncTxn struct {
	fn           func()
	dep          syncpoint.Dependency
	allowMerging bool
	syncLinked   bool
}

// asyncQueue is a Group's single-worker async transaction queue: asynchronous
// transactions on one graph must never overlap, so one goroutine drains ch
// and merges consecutive allow-merging transactions into a single
// propagation cycle.
type asyncQueue struct {
	g         *Group
	ch        chan asyncTxn
	closeCh   chan struct{}
	closeOnce sync.Once
	done      chan struct{}

	// pending holds a transaction read off ch while draining a batch that
	// turned out not to belong to it (its allowMerging bit was false), so
	// it starts the next batch instead of being folded into this one.
	pending *asyncTxn
}

func newAsyncQueue(g *Group) *asyncQueue {
	q := &asyncQueue{
		g:       g,
		ch:      make(chan asyncTxn, g.opts.AsyncQueueCapacity),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *asyncQueue) run() {
	defer close(q.done)
	for {
		var first asyncTxn
		if q.pending != nil {
			first = *q.pending
			q.pending = nil
		} else {
			select {
			case <-q.closeCh:
				// Keep draining what was queued before Close; stop once empty.
				select {
				case first = <-q.ch:
				default:
					return
				}
			case first = <-q.ch:
			}
		}
		if m := q.g.metrics(); m != nil {
			m.setAsyncQueueSize(len(q.ch))
		}
		q.processBatch(first)
	}
}

// processBatch runs first and, if it allows merging, then absorbs every
// allow-merging transaction queued by the time it returns, running each in
// the same batch so they share a single cycle rather than one each. A pulled
// transaction that turns out not to allow merging starts the next batch
// instead (via q.pending) rather than being folded into this one. A batch
// that pushed no input runs no cycle but still releases its dependencies.
func (q *asyncQueue) processBatch(first asyncTxn) {
	g := q.g
	g.gmu.Lock()
	g.transactionLevel++
	g.gmu.Unlock()

	first.fn()
	batch := []asyncTxn{first}

	if first.allowMerging {
	drain:
		for {
			select {
			case next := <-q.ch:
				if !next.allowMerging {
					q.pending = &next
					break drain
				}
				batch = append(batch, next)
				next.fn()
			default:
				break drain
			}
		}
	}

	g.gmu.Lock()
	anyAllowMerging := false
	for _, item := range batch {
		if item.syncLinked {
			g.linkDeps = append(g.linkDeps, item.dep)
		} else {
			g.localDeps = append(g.localDeps, item.dep)
		}
		anyAllowMerging = anyAllowMerging || item.allowMerging
	}
	g.allowMerge = anyAllowMerging
	g.gmu.Unlock()

	g.gmu.Lock()
	g.transactionLevel--
	runNow := g.transactionLevel == 0
	idle := len(g.changedInputs) == 0
	g.gmu.Unlock()

	if runNow {
		if idle {
			g.finalizeCycle()
		} else {
			_ = g.drive()
		}
	}
}

// enqueueFromLink stages a delivered batch of link thunks as a single async
// transaction on the target Group, carrying forward the combined upstream
// dependency and merge-allowed bit so chains of linked graphs keep both
// properties transitively.
func (q *asyncQueue) enqueueFromLink(thunks []func(), dep syncpoint.Dependency, allowMerging, syncLinked bool) {
	fn := func() {
		for _, th := range thunks {
			th()
		}
	}
	_ = q.enqueue(asyncTxn{fn: fn, dep: dep, allowMerging: allowMerging, syncLinked: syncLinked})
}

func (q *asyncQueue) enqueue(txn asyncTxn) error {
	select {
	case <-q.closeCh:
		return ErrGraphClosed
	default:
	}
	select {
	case q.ch <- txn:
		return nil
	case <-q.closeCh:
		return ErrGraphClosed
	}
}

func (q *asyncQueue) close() {
	q.closeOnce.Do(func() {
		close(q.closeCh)
		<-q.done
	})
}
