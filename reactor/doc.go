// Package reactor implements a synchronous reactive propagation engine: a
// directed acyclic graph of typed state and event cells where mutating an
// input schedules exactly one recomputation of every dependent cell, in an
// order consistent with the graph's topology.
//
// A Group owns one graph instance: its node table, topological queue,
// propagation driver, async transaction queue, and link cache. Application
// code builds cells with the typed constructors in cell.go (StateVar,
// State, EventSource, Event, StateSlot, EventSlot, Observer) and link.go
// (Link, LinkEvent) and
// drives updates through Group.DoTransaction or Group.EnqueueTransaction.
package reactor
