package reactor

import (
	"fmt"
	"sync/atomic"

	"github.com/ashgrove/reactor/emit"
)

var groupSeq atomic.Int64

// Options configures a Group's ambient behavior: observability, metrics,
// and the safety valves around the shift-repair loop and the async
// transaction queue. Zero value is valid; NewGroup applies defaults.
type Options struct {
	// id labels every emitted event and metric sample for this Group. Set
	// via WithID; defaults to an auto-incrementing "group-N" label.
	id string

	// Emitter receives observability events for cycle boundaries and
	// shift repairs. Defaults to a NullEmitter (zero overhead) when nil.
	Emitter emit.Emitter

	// Metrics, if non-nil, receives Prometheus-compatible counters, gauges
	// and a histogram for cycles, shift repairs and queue sizes. Nil
	// disables metrics collection entirely.
	Metrics *Metrics

	// MaxShiftIterations bounds the newLevel convergence loop of the
	// propagation driver. A cyclic graph would otherwise shift-repair
	// forever; exceeding this bound surfaces ErrCycleDetected instead.
	// Defaults to 10000, comfortably above any legitimate graph depth.
	MaxShiftIterations int

	// AsyncQueueCapacity bounds the buffered channel backing a Group's
	// async transaction queue. EnqueueTransaction blocks once the queue is
	// full. Defaults to 1024.
	AsyncQueueCapacity int

	// MaxParallelism, when greater than 1, lets the driver update distinct
	// nodes at the same topological level concurrently using a bounded
	// worker pool (golang.org/x/sync/errgroup + semaphore). The default
	// remains single-threaded cooperative propagation, so the default is 1.
	MaxParallelism int
}

func defaultOptions() Options {
	return Options{
		id:                 fmt.Sprintf("group-%d", groupSeq.Add(1)),
		MaxShiftIterations: 10000,
		AsyncQueueCapacity: 1024,
		MaxParallelism:     1,
	}
}

// Option is a functional option for NewGroup.
type Option func(*Options)

// WithID overrides a Group's label used in emitted events and metrics.
func WithID(id string) Option {
	return func(o *Options) { o.id = id }
}

// WithEmitter sets the Group's observability emitter.
func WithEmitter(e emit.Emitter) Option {
	return func(o *Options) { o.Emitter = e }
}

// WithMetrics attaches a Metrics collector to the Group.
func WithMetrics(m *Metrics) Option {
	return func(o *Options) { o.Metrics = m }
}

// WithMaxShiftIterations overrides the shift-repair convergence bound.
func WithMaxShiftIterations(n int) Option {
	return func(o *Options) { o.MaxShiftIterations = n }
}

// WithAsyncQueueCapacity overrides the async transaction queue's buffered
// channel capacity.
func WithAsyncQueueCapacity(n int) Option {
	return func(o *Options) { o.AsyncQueueCapacity = n }
}

// WithMaxParallelism enables concurrent evaluation of same-level nodes,
// bounded to n simultaneous node updates per cycle.
func WithMaxParallelism(n int) Option {
	return func(o *Options) {
		if n < 1 {
			n = 1
		}
		o.MaxParallelism = n
	}
}
