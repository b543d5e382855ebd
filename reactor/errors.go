package reactor

import (
	"errors"
	"fmt"
)

// ErrCycleDetected is returned when the shift-repair loop of a propagation
// cycle exceeds Options.MaxShiftIterations without converging. Since the
// engine does not perform cycle detection at attach time (spec Non-goals),
// an edge that closes a cycle manifests as unbounded newLevel growth during
// shift repair; this is the only place that growth is observed and capped.
var ErrCycleDetected = errors.New("reactor: shift repair did not converge, graph likely contains a cycle")

// ErrDestroyedNode is returned by pushInput (behind Set, Modify, Emit and the
// slot Set methods) when the target node id is no longer registered in the
// graph's node table.
var ErrDestroyedNode = errors.New("reactor: operation on a destroyed node")

// ErrReentrantTransaction is returned when DoTransaction, or an input push,
// is called from within a node update or observer callback while a
// propagation cycle is running on the same Group. A DoTransaction nested
// inside another DoTransaction's fn is not an error: it joins the outer batch.
var ErrReentrantTransaction = errors.New("reactor: synchronous transaction re-entered from within a propagation cycle")

// ErrGraphClosed is returned by the async transaction queue once Group.Close
// has been called and no further transactions will be drained.
var ErrGraphClosed = errors.New("reactor: group is closed")

// PropagationError wraps a panic recovered from a node's update, collect, or
// observer callback during a propagation cycle. The cycle is terminated and
// per-cycle buffers are cleared before this error surfaces to the caller
// (synchronous caller, or the async queue worker).
type PropagationError struct {
	NodeID NodeID
	Cause  any
}

func (e *PropagationError) Error() string {
	return fmt.Sprintf("reactor: node %d panicked during propagation: %v", e.NodeID, e.Cause)
}

// Unwrap supports errors.As/errors.Is when the recovered cause is itself an error.
func (e *PropagationError) Unwrap() error {
	if err, ok := e.Cause.(error); ok {
		return err
	}
	return nil
}
