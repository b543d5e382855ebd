package emit

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelEmitter reports every event as its own OpenTelemetry span, so
// propagation cycles and node updates show up in distributed traces
// alongside whatever the embedding application is already instrumenting.
// Each span covers a single point-in-time event rather than a duration and
// is ended immediately after its attributes are set.
type OTelEmitter struct {
	tracer trace.Tracer
}

// NewOTelEmitter wraps tracer, typically obtained via otel.Tracer("reactor")
// once the application has installed its own TracerProvider.
func NewOTelEmitter(tracer trace.Tracer) *OTelEmitter {
	return &OTelEmitter{tracer: tracer}
}

// Emit starts and immediately ends a span named after event.Msg, carrying
// the graph id, node id, and every Meta entry as span attributes. If
// Meta["error"] is the bool true, the span status is set to Error.
func (o *OTelEmitter) Emit(event Event) {
	_, span := o.tracer.Start(context.Background(), event.Msg)
	defer span.End()

	span.SetAttributes(
		attribute.String("reactor.graph_id", event.GraphID),
		attribute.Int64("reactor.node_id", int64(event.NodeID)),
	)

	for k, v := range event.Meta {
		span.SetAttributes(attributeFor(k, v))
	}

	if errVal, ok := event.Meta["error"]; ok {
		if failed, _ := errVal.(bool); failed {
			span.SetStatus(codes.Error, "propagation cycle failed")
		}
	}
}

func attributeFor(key string, v any) attribute.KeyValue {
	switch val := v.(type) {
	case string:
		return attribute.String(key, val)
	case bool:
		return attribute.Bool(key, val)
	case int:
		return attribute.Int(key, val)
	case int64:
		return attribute.Int64(key, val)
	case float64:
		return attribute.Float64(key, val)
	default:
		return attribute.String(key, fmt.Sprint(val))
	}
}

// Flush force-flushes the global TracerProvider if it supports it (SDK
// providers do; the no-op provider does not), blocking until pending spans
// are exported or ctx is done.
func Flush(ctx context.Context) error {
	type flusher interface {
		ForceFlush(context.Context) error
	}
	if f, ok := otel.GetTracerProvider().(flusher); ok {
		return f.ForceFlush(ctx)
	}
	return nil
}
