package emit

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// LogEmitter writes structured log output to a writer, either as
// human-readable key=value text or one JSON object per line.
//
// Example:
//
//	emitter := emit.NewLogEmitter(os.Stdout, false)
//	group := reactor.NewGroup(reactor.WithEmitter(emitter))
type LogEmitter struct {
	mu       sync.Mutex
	writer   io.Writer
	jsonMode bool
}

// NewLogEmitter creates a LogEmitter writing to writer (os.Stdout if nil).
// jsonMode selects JSON-lines output over the default text format.
func NewLogEmitter(writer io.Writer, jsonMode bool) *LogEmitter {
	if writer == nil {
		writer = os.Stdout
	}
	return &LogEmitter{writer: writer, jsonMode: jsonMode}
}

// Emit writes event to the configured writer.
func (l *LogEmitter) Emit(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.jsonMode {
		b, err := json.Marshal(event)
		if err != nil {
			return
		}
		fmt.Fprintln(l.writer, string(b))
		return
	}

	fmt.Fprintf(l.writer, "[%s] graph=%s node=%d meta=%v\n", event.Msg, event.GraphID, event.NodeID, event.Meta)
}
