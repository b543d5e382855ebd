package emit

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogEmitter_TextMode(t *testing.T) {
	var buf bytes.Buffer
	e := NewLogEmitter(&buf, false)

	e.Emit(Event{GraphID: "g1", Msg: "cycle_start", NodeID: 3})

	out := buf.String()
	if !strings.Contains(out, "cycle_start") || !strings.Contains(out, "g1") {
		t.Errorf("expected text output to mention msg and graph id, got %q", out)
	}
}

func TestLogEmitter_JSONMode(t *testing.T) {
	var buf bytes.Buffer
	e := NewLogEmitter(&buf, true)

	e.Emit(Event{GraphID: "g1", Msg: "cycle_end"})

	var decoded Event
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("expected valid JSON line, got error: %v", err)
	}
	if decoded.GraphID != "g1" || decoded.Msg != "cycle_end" {
		t.Errorf("unexpected decoded event: %+v", decoded)
	}
}

func TestNewLogEmitter_DefaultsToStdout(t *testing.T) {
	e := NewLogEmitter(nil, false)
	if e.writer == nil {
		t.Error("expected a non-nil default writer")
	}
}
