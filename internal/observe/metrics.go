// Package observe provides application-wide observability primitives for
// scenecaster: OpenTelemetry metrics, distributed tracing, structured
// logging, and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is installed by [InitProvider] and registers with the
// default Prometheus registerer; no /metrics HTTP route is mounted by this
// package or by cmd/scenecaster. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all scenecaster metrics.
const meterName = "github.com/ashfall-games/scenecaster"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// RenderDuration tracks end-to-end scene render latency, from dispatch
	// to a provider through success or final failure.
	RenderDuration metric.Float64Histogram

	// SynthesisDuration tracks descriptor synthesis latency.
	SynthesisDuration metric.Float64Histogram

	// ProviderRenderRequests counts image-generation provider calls. Use with
	// attributes: attribute.String("provider", ...), attribute.String("status", ...)
	ProviderRenderRequests metric.Int64Counter

	// ProviderRenderErrors counts image-generation provider failures. Use with
	// attribute: attribute.String("provider", ...)
	ProviderRenderErrors metric.Int64Counter

	// SceneStatusTransitions counts scene status changes. Use with attribute:
	//   attribute.String("status", ...)
	SceneStatusTransitions metric.Int64Counter

	// ActiveRenders tracks the number of scenes currently being rendered
	// synchronously (the dedup table's size).
	ActiveRenders metric.Int64UpDownCounter

	// ActiveRetryTasks tracks the number of scenes with a background retry
	// task in flight.
	ActiveRetryTasks metric.Int64UpDownCounter

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) suited to
// image-generation round-trip times.
var latencyBuckets = []float64{
	0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.RenderDuration, err = m.Float64Histogram("scenecaster.render.duration",
		metric.WithDescription("Latency of a scene render attempt, success or failure."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SynthesisDuration, err = m.Float64Histogram("scenecaster.synthesis.duration",
		metric.WithDescription("Latency of scene descriptor synthesis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.ProviderRenderRequests, err = m.Int64Counter("scenecaster.provider.render_requests",
		metric.WithDescription("Total image-generation provider requests by provider and status."),
	); err != nil {
		return nil, err
	}
	if met.ProviderRenderErrors, err = m.Int64Counter("scenecaster.provider.render_errors",
		metric.WithDescription("Total image-generation provider failures by provider."),
	); err != nil {
		return nil, err
	}
	if met.SceneStatusTransitions, err = m.Int64Counter("scenecaster.scene.status_transitions",
		metric.WithDescription("Total scene status transitions by resulting status."),
	); err != nil {
		return nil, err
	}

	if met.ActiveRenders, err = m.Int64UpDownCounter("scenecaster.active_renders",
		metric.WithDescription("Number of scenes currently in a synchronous render attempt."),
	); err != nil {
		return nil, err
	}
	if met.ActiveRetryTasks, err = m.Int64UpDownCounter("scenecaster.active_retry_tasks",
		metric.WithDescription("Number of scenes with a background retry task in flight."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("scenecaster.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordProviderRenderRequest is a convenience method that records a provider
// request counter increment with the standard attribute set.
func (m *Metrics) RecordProviderRenderRequest(ctx context.Context, provider, status string) {
	m.ProviderRenderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("status", status),
		),
	)
}

// RecordProviderRenderError is a convenience method that records a provider
// error counter increment.
func (m *Metrics) RecordProviderRenderError(ctx context.Context, provider string) {
	m.ProviderRenderErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("provider", provider)),
	)
}

// RecordSceneStatusTransition is a convenience method that records a scene
// status transition counter increment.
func (m *Metrics) RecordSceneStatusTransition(ctx context.Context, status string) {
	m.SceneStatusTransitions.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
}
