package metrics

import (
	"errors"
	"testing"

	"github.com/mwantia/objectstore"
	"github.com/mwantia/objectstore/backend/memory"
	"github.com/mwantia/objectstore/storetest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInstrument_RecordsOperations(t *testing.T) {
	ctx := t.Context()
	reg := prometheus.NewRegistry()

	collector, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector failed: %v", err)
	}
	store := collector.Instrument("memory", memory.NewMemoryBackend())

	if err := store.Put(ctx, "memory://a/b", []byte("x")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, err := store.Get(ctx, "memory://a/b"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if _, err := store.Get(ctx, "memory://a/missing"); !errors.Is(err, objectstore.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if err := store.Remove(ctx, "mem", true); !errors.Is(err, objectstore.ErrUnsupportedOperation) {
		t.Fatalf("Expected ErrUnsupportedOperation, got %v", err)
	}

	tests := []struct {
		op     string
		result string
		want   float64
	}{
		{"put", ResultOK, 1},
		{"get", ResultOK, 1},
		{"get", ResultNotFound, 1},
		{"remove", ResultUnsupported, 1},
		{"list", ResultOK, 0},
	}

	for _, tt := range tests {
		got := testutil.ToFloat64(collector.operationsTotal.WithLabelValues("memory", tt.op, tt.result))
		if got != tt.want {
			t.Errorf("operations_total{op=%q,result=%q} = %f, want %f", tt.op, tt.result, got, tt.want)
		}
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	foundDuration := false
	for _, mf := range mfs {
		if mf.GetName() != "objectstore_operation_duration_seconds" {
			continue
		}
		foundDuration = true

		var samples uint64
		for _, m := range mf.Metric {
			samples += m.GetHistogram().GetSampleCount()
		}
		if samples != 4 {
			t.Errorf("Expected 4 latency samples, got %d", samples)
		}
	}
	if !foundDuration {
		t.Fatal("did not find latency histogram")
	}
}

// TestInstrument_SharedRegistry verifies several backends can be instrumented on one registry.
func TestInstrument_SharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()

	a, err := Instrument("a", memory.NewMemoryBackend(), reg)
	if err != nil {
		t.Fatalf("Instrument a failed: %v", err)
	}
	b, err := Instrument("b", memory.NewMemoryBackend(), reg)
	if err != nil {
		t.Fatalf("Instrument b failed: %v", err)
	}

	ctx := t.Context()
	if _, err := a.Exists(ctx, "memory://x"); err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if _, err := b.Exists(ctx, "memory://x"); err != nil {
		t.Fatalf("Exists failed: %v", err)
	}

	got, err := testutil.GatherAndCount(reg, "objectstore_operations_total")
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got != 2 {
		t.Errorf("Expected 2 counter series, got %d", got)
	}
}

func TestInstrument_Conformance(t *testing.T) {
	store, err := Instrument("memory", memory.NewMemoryBackend(), nil)
	if err != nil {
		t.Fatalf("Instrument failed: %v", err)
	}

	storetest.Run(t, store, "memory://metrics/", "mem:")
}
