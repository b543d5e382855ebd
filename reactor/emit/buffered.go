package emit

import "sync"

// BufferedEmitter stores every event it receives in memory, organized by
// graph id, so tests and development tooling can inspect what a cycle
// actually did without standing up a real observability backend.
//
// Not meant for production use on long-running graphs: nothing is ever
// evicted short of calling Clear.
type BufferedEmitter struct {
	mu     sync.Mutex
	events map[string][]Event
}

// NewBufferedEmitter creates an empty BufferedEmitter.
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{events: make(map[string][]Event)}
}

// Emit appends event to its graph's history.
func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events[event.GraphID] = append(b.events[event.GraphID], event)
}

// History returns a copy of every event recorded for graphID.
func (b *BufferedEmitter) History(graphID string) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	src := b.events[graphID]
	out := make([]Event, len(src))
	copy(out, src)
	return out
}

// Clear discards every recorded event for every graph.
func (b *BufferedEmitter) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = make(map[string][]Event)
}
