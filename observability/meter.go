package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/blockflow/blockflow/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config MeterConfig, log *logger.Logger) (*sdkmetric.MeterProvider, error) {
	if log == nil {
		log = logger.Nop()
	}

	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	log.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the runtime's metric instruments. A nil *Metrics is
// valid and records nothing, so callers never need to branch.
type Metrics struct {
	nodeRuns       metric.Int64Counter
	nodeDuration   metric.Float64Histogram
	blocksProduced metric.Int64Counter
	conversionHops metric.Int64Counter
	errorTotal     metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	nodeRuns, err := meter.Int64Counter("node.runs",
		metric.WithDescription("Total node executions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating node.runs counter: %w", err)
	}

	nodeDuration, err := meter.Float64Histogram("node.duration",
		metric.WithDescription("Duration of node executions in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating node.duration histogram: %w", err)
	}

	blocksProduced, err := meter.Int64Counter("blocks.produced",
		metric.WithDescription("Total blocks produced by pipe invocations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating blocks.produced counter: %w", err)
	}

	conversionHops, err := meter.Int64Counter("conversion.hops",
		metric.WithDescription("Total converter hops executed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating conversion.hops counter: %w", err)
	}

	errorTotal, err := meter.Int64Counter("error.total",
		metric.WithDescription("Total errors by kind and component"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating error.total counter: %w", err)
	}

	return &Metrics{
		nodeRuns:       nodeRuns,
		nodeDuration:   nodeDuration,
		blocksProduced: blocksProduced,
		conversionHops: conversionHops,
		errorTotal:     errorTotal,
	}, nil
}

// RecordNodeRun records one completed node execution.
func (m *Metrics) RecordNodeRun(ctx context.Context, nodeID, pipeName, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.nodeRuns.Add(ctx, 1, metric.WithAttributes(
		attribute.String("node", nodeID),
		attribute.String("pipe", pipeName),
		attribute.String("status", status),
	))
	m.nodeDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("node", nodeID),
		attribute.String("pipe", pipeName),
	))
}

// RecordBlock records one produced block.
func (m *Metrics) RecordBlock(ctx context.Context, nodeID, schemaKey string) {
	if m == nil {
		return
	}
	m.blocksProduced.Add(ctx, 1, metric.WithAttributes(
		attribute.String("node", nodeID),
		attribute.String("schema", schemaKey),
	))
}

// RecordConversion records the executed hops of one resolution.
func (m *Metrics) RecordConversion(ctx context.Context, source, target string, hops int) {
	if m == nil {
		return
	}
	m.conversionHops.Add(ctx, int64(hops), metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("target", target),
	))
}

// RecordError records an error by kind and component.
func (m *Metrics) RecordError(ctx context.Context, errKind, component string) {
	if m == nil {
		return
	}
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", errKind),
		attribute.String("component", component),
	))
}
