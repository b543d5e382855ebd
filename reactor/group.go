package reactor

import (
	"sync"

	"github.com/ashgrove/reactor/emit"
	"github.com/ashgrove/reactor/syncpoint"
)

// Group is a single graph instance: its node table, topological queue, link
// cache, and async transaction queue. Clones (see Group.Clone) share
// ownership of the same underlying graph, mirroring the source's
// shared-pointer domain handle.
//
// gmu guards the transaction bookkeeping (inCycle, transactionLevel,
// changedInputs) and node-table access made from outside a running cycle.
// A running cycle touches the node table and level queue without holding
// it; pushes and DoTransaction calls made while inCycle is set fail with
// ErrReentrantTransaction. The link cache carries its own mutex.
type Group struct {
	gmu sync.Mutex

	table     *table
	queue     *levelQueue
	linkCache *linkCache
	async     *asyncQueue

	opts Options

	// inCycle guards against synchronous re-entrancy: DoTransaction must
	// not be called again from within a node update or observer callback
	// running on this Group.
	inCycle bool

	// transactionLevel counts open DoTransaction scopes and async batches.
	// The driver only runs once this returns to zero, so nested synchronous
	// transactions batch into a single propagation cycle.
	transactionLevel int

	// per-cycle scratch state, reset at the end of every runCycle call.
	changedInputs []NodeID
	dirty         []NodeID
	outputs       linkOutputs
	localDeps     []syncpoint.Dependency
	linkDeps      []syncpoint.Dependency
	allowMerge    bool
	syncLinked    bool
}

// NewGroup constructs a new, empty Group ready to hold nodes.
func NewGroup(opts ...Option) *Group {
	cfg := defaultOptions()
	for _, o := range opts {
		o(&cfg)
	}

	g := &Group{
		table:     newTable(),
		queue:     newLevelQueue(),
		linkCache: newLinkCache(),
		opts:      cfg,
		outputs:   make(linkOutputs),
	}
	g.async = newAsyncQueue(g)
	return g
}

// Clone returns a Group sharing the same underlying graph. *Group already
// behaves like a shared handle, so Clone simply returns the receiver; the
// method exists so call sites that expect a "clones share ownership" API
// read naturally.
func (g *Group) Clone() *Group {
	return g
}

// Close stops the Group's async transaction queue worker. Transactions
// already queued are drained before the worker exits; EnqueueTransaction
// called after Close returns ErrGraphClosed.
func (g *Group) Close() {
	g.async.close()
}

func (g *Group) emitter() emit.Emitter {
	if g.opts.Emitter != nil {
		return g.opts.Emitter
	}
	return emit.NullEmitter{}
}

func (g *Group) metrics() *Metrics {
	return g.opts.Metrics
}

// register allocates a node id under the graph lock.
func (g *Group) register(category Category, body nodeBody) NodeID {
	g.gmu.Lock()
	defer g.gmu.Unlock()
	return g.table.register(category, body)
}

// unregister frees a node id under the graph lock. Callers must ensure the
// graph is not currently mid-cycle; application code only reaches this
// through Observer.Close.
func (g *Group) unregister(id NodeID) {
	g.gmu.Lock()
	defer g.gmu.Unlock()
	if g.table.valid(id) {
		g.table.unregister(id)
	}
}

func (g *Group) attach(child, parent NodeID) {
	g.gmu.Lock()
	defer g.gmu.Unlock()
	g.table.attach(child, parent)
}

func (g *Group) detach(child, parent NodeID) {
	g.gmu.Lock()
	defer g.gmu.Unlock()
	g.table.detach(child, parent)
}
