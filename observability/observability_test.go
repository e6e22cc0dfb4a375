package observability

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestDefaultTracerConfig(t *testing.T) {
	cfg := DefaultTracerConfig("blockflow")

	if cfg.ServiceName != "blockflow" {
		t.Errorf("expected ServiceName 'blockflow', got %s", cfg.ServiceName)
	}
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected Endpoint 'localhost:4318', got %s", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected SampleRate 1.0, got %f", cfg.SampleRate)
	}
	if !cfg.Insecure {
		t.Error("expected Insecure to be true")
	}
}

func TestDefaultMeterConfig(t *testing.T) {
	cfg := DefaultMeterConfig("blockflow")

	if cfg.ServiceName != "blockflow" {
		t.Errorf("expected ServiceName 'blockflow', got %s", cfg.ServiceName)
	}
	if cfg.Interval != 15*time.Second {
		t.Errorf("expected Interval 15s, got %v", cfg.Interval)
	}
}

func TestNewMetrics(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	metrics, err := NewMetrics(meter)
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}
	if metrics == nil {
		t.Fatal("expected non-nil metrics")
	}

	ctx := context.Background()
	metrics.RecordNodeRun(ctx, "clean", "clean-txns", "ok", 100*time.Millisecond)
	metrics.RecordBlock(ctx, "clean", "core.Txn")
	metrics.RecordConversion(ctx, "memory/records", "memory/columnar", 1)
	metrics.RecordError(ctx, "STORAGE_IO", "engine")
}

func TestNilMetricsRecordsNothing(t *testing.T) {
	var m *Metrics
	ctx := context.Background()

	// Must not panic.
	m.RecordNodeRun(ctx, "n", "p", "ok", time.Millisecond)
	m.RecordBlock(ctx, "n", "s")
	m.RecordConversion(ctx, "a", "b", 2)
	m.RecordError(ctx, "kind", "component")
}

func TestNewRunContext(t *testing.T) {
	rc := NewRunContext("clean", "clean-txns", nil)

	if rc.NodeID != "clean" {
		t.Errorf("expected NodeID 'clean', got %s", rc.NodeID)
	}
	if rc.PipeName != "clean-txns" {
		t.Errorf("expected PipeName 'clean-txns', got %s", rc.PipeName)
	}
	if rc.StartTime.IsZero() {
		t.Error("expected StartTime to be set")
	}
}

func TestRunContextFromContext(t *testing.T) {
	rc := NewRunContext("clean", "clean-txns", nil)
	ctx := WithRunContext(context.Background(), rc)

	retrieved := RunContextFromContext(ctx)
	if retrieved == nil {
		t.Fatal("expected run context from context")
	}
	if retrieved.NodeID != rc.NodeID {
		t.Errorf("expected NodeID %s, got %s", rc.NodeID, retrieved.NodeID)
	}
}

func TestRunContextFromContext_NotSet(t *testing.T) {
	retrieved := RunContextFromContext(context.Background())
	if retrieved != nil {
		t.Error("expected nil when run context not set")
	}
}

func TestRunContext_Duration(t *testing.T) {
	rc := NewRunContext("clean", "clean-txns", nil)
	rc.StartTime = time.Now().Add(-50 * time.Millisecond)

	duration := rc.Duration()
	if duration < 45*time.Millisecond || duration > 200*time.Millisecond {
		t.Errorf("expected duration around 50ms, got %v", duration)
	}
}

func TestRunContext_NilMetrics(t *testing.T) {
	rc := NewRunContext("clean", "clean-txns", nil)
	ctx := context.Background()

	ctx, span := rc.StartSpan(ctx)
	rc.End(ctx, span, "ok", nil)
}

func TestRunContext_EndWithError(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	metrics, _ := NewMetrics(meter)

	rc := NewRunContext("clean", "clean-txns", metrics)
	ctx := context.Background()

	ctx, span := rc.StartSpan(ctx)
	rc.End(ctx, span, "error", fmt.Errorf("node failed"))
}

func TestNewRuntimeHealth(t *testing.T) {
	rh := NewRuntimeHealth("blockflow", "1.0.0")

	if rh.Service != "blockflow" {
		t.Errorf("expected Service 'blockflow', got %s", rh.Service)
	}
	if rh.Version != "1.0.0" {
		t.Errorf("expected Version '1.0.0', got %s", rh.Version)
	}
	if rh.Status != HealthStatusUp {
		t.Errorf("expected Status 'up', got %s", rh.Status)
	}
}

func TestRuntimeHealth_AddComponent(t *testing.T) {
	rh := NewRuntimeHealth("blockflow", "1.0.0")

	rh.AddComponent(Health{Name: "meta", Status: HealthStatusUp})
	if rh.Status != HealthStatusUp {
		t.Errorf("expected status 'up' after healthy component, got %s", rh.Status)
	}

	rh.AddComponent(Health{Name: "table", Status: HealthStatusDegraded, Message: "slow writes"})
	if rh.Status != HealthStatusDegraded {
		t.Errorf("expected status 'degraded', got %s", rh.Status)
	}

	rh.AddComponent(Health{Name: "file", Status: HealthStatusDown, Message: "mount gone"})
	if rh.Status != HealthStatusDown {
		t.Errorf("expected status 'down', got %s", rh.Status)
	}

	if len(rh.Components) != 3 {
		t.Errorf("expected 3 components, got %d", len(rh.Components))
	}
}

func TestRuntimeHealth_DegradedDoesNotOverrideDown(t *testing.T) {
	rh := NewRuntimeHealth("blockflow", "1.0.0")
	rh.AddComponent(Health{Name: "a", Status: HealthStatusDown})
	rh.AddComponent(Health{Name: "b", Status: HealthStatusDegraded})

	if rh.Status != HealthStatusDown {
		t.Errorf("expected 'down' not overridden by 'degraded', got %s", rh.Status)
	}
}

func TestStartSpan(t *testing.T) {
	ctx := context.Background()
	ctx, span := StartSpan(ctx, SpanConvertResolve)
	defer span.End()

	if span == nil {
		t.Fatal("expected non-nil span")
	}
	if ctx == nil {
		t.Fatal("expected non-nil context")
	}
}

func TestSetSpanAttribute(t *testing.T) {
	// Use SDK tracer so span.IsRecording() returns true
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())
	otel.SetTracerProvider(tp)

	ctx, span := StartSpan(context.Background(), "test-attrs")
	defer span.End()

	// All supported types - should not panic
	SetSpanAttribute(ctx, AttrNodeID, "clean")
	SetSpanAttribute(ctx, AttrHops, 2)
	SetSpanAttribute(ctx, "int64-key", int64(100))
	SetSpanAttribute(ctx, "float-key", 3.14)
	SetSpanAttribute(ctx, "bool-key", true)
	SetSpanAttribute(ctx, "string-slice-key", []string{"a", "b"})

	// Unsupported type - ignored, no panic
	SetSpanAttribute(ctx, "unsupported-key", struct{}{})
}

func TestSetSpanAttributeNoSpan(t *testing.T) {
	ctx := context.Background()
	SetSpanAttribute(ctx, "key", "value")
}

func TestSetSpanError(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())
	otel.SetTracerProvider(tp)

	ctx, span := StartSpan(context.Background(), "test-error")
	defer span.End()

	SetSpanError(ctx, fmt.Errorf("test error"))
}

func TestSetSpanErrorNoSpan(t *testing.T) {
	ctx := context.Background()
	SetSpanError(ctx, fmt.Errorf("no span error"))
}
