package emit

// NullEmitter discards every event. It is the default emitter for a Group
// that does not configure one, giving zero-overhead observability when
// nothing is listening.
type NullEmitter struct{}

// Emit is a no-op.
func (NullEmitter) Emit(Event) {}
