// Package emit provides pluggable observability for the reactor engine:
// cycle boundaries and shift repairs are reported through the Emitter
// interface rather than baked into the driver. Individual node updates and
// cross-graph link deliveries are not reported.
package emit

// Emitter receives observability events from a Group's propagation driver.
//
// Implementations should be:
//   - Non-blocking: never slow down propagation.
//   - Thread-safe: an Emitter may be shared across Groups, and the async
//     transaction queue worker delivers events from its own goroutine.
//   - Resilient: never panic; a misbehaving emitter must not crash a cycle.
type Emitter interface {
	// Emit sends a single observability event.
	Emit(event Event)
}

// Event is one observability record emitted during a propagation cycle.
type Event struct {
	// GraphID identifies the Group that produced this event, for
	// deployments running multiple linked graphs.
	GraphID string

	// Msg names the event. The reactor driver emits "cycle_start",
	// "cycle_end" and "shift_repair".
	Msg string

	// NodeID is the node the event concerns, zero for cycle-level events.
	NodeID int32

	// Meta carries event-specific structured data: "duration_ms" and
	// "error" on cycle_end, "level" on shift_repair.
	Meta map[string]any
}
