package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/artpar/schemawire/adapters/metrics"
	"github.com/artpar/schemawire/core/dispatch"
)

func gatherFamily(t *testing.T, reg *prometheus.Registry, name string) int {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}
	for _, f := range families {
		if f.GetName() == name {
			return len(f.GetMetric())
		}
	}
	return -1
}

func TestNewWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	if m.DispatchesTotal == nil || m.DispatchDuration == nil ||
		m.DispatchFailures == nil || m.DispatchesInFlight == nil {
		t.Fatal("collector has nil metrics")
	}
}

func TestDispatchFinishedRecordsSeries(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.DispatchStarted("users.list")
	m.DispatchFinished("users.list", "GET", 200, dispatch.StageSerialized, 3*time.Millisecond)
	m.DispatchStarted("users.create")
	m.DispatchFinished("users.create", "POST", 409, dispatch.StageExecuted, time.Millisecond)

	if n := gatherFamily(t, reg, "schemawire_dispatches_total"); n != 2 {
		t.Errorf("dispatches_total series = %d, want 2", n)
	}
	if n := gatherFamily(t, reg, "schemawire_dispatch_duration_seconds"); n != 2 {
		t.Errorf("duration series = %d, want 2", n)
	}
	// Only the 409 counts as a failure.
	if n := gatherFamily(t, reg, "schemawire_dispatch_failures_total"); n != 1 {
		t.Errorf("failures series = %d, want 1", n)
	}
}

func TestUnmatchedDoesNotUnderflowGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	// A route miss finishes without ever starting.
	m.DispatchFinished("unmatched", "GET", 404, dispatch.StageMatched, time.Microsecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range families {
		if f.GetName() != "schemawire_dispatches_in_flight" {
			continue
		}
		if v := f.GetMetric()[0].GetGauge().GetValue(); v != 0 {
			t.Errorf("in_flight = %v, want 0", v)
		}
	}
}
