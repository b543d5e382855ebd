package reactor

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gatherMetric(t *testing.T, registry *prometheus.Registry, name string) *dto.Metric {
	t.Helper()
	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	for _, f := range families {
		if f.GetName() == name {
			if len(f.Metric) == 0 {
				return nil
			}
			return f.Metric[0]
		}
	}
	return nil
}

func TestNewMetrics_RegistersAllFamilies(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	m.observeCycle("g1", 5*time.Millisecond, false)
	m.observeShiftRepair()
	m.setAsyncQueueSize(3)
	m.setQueueDepth(7)

	for _, name := range []string{
		"reactor_cycles_total",
		"reactor_cycle_latency_ms",
		"reactor_shift_repairs_total",
		"reactor_async_queue_size",
		"reactor_queue_depth",
	} {
		if got := gatherMetric(t, registry, name); got == nil {
			t.Errorf("expected metric family %q to be registered and have a sample", name)
		}
	}
}

func TestMetrics_ObserveCycleIncrementsErrorCounterOnFailure(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	m.observeCycle("g1", time.Millisecond, true)

	got := gatherMetric(t, registry, "reactor_cycle_errors_total")
	if got == nil {
		t.Fatal("expected reactor_cycle_errors_total to have a sample after a failed cycle")
	}
	if got.Counter.GetValue() != 1 {
		t.Errorf("reactor_cycle_errors_total = %v, want 1", got.Counter.GetValue())
	}
}

func TestRunCycle_WithMetricsDoesNotPanic(t *testing.T) {
	registry := prometheus.NewRegistry()
	g := NewGroup(WithID("metrics-smoke"), WithMetrics(NewMetrics(registry)))
	defer g.Close()

	a := NewStateVar(g, 0, nil)
	b := NewState(g, func() int { return a.Value() + 1 }, nil, a)

	if err := a.Set(41); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got, want := b.Value(), 42; got != want {
		t.Errorf("b.Value() = %d, want %d", got, want)
	}
}
