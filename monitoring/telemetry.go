// Package monitoring configures OpenTelemetry metrics with a Prometheus
// exporter for the registry service.
package monitoring

import (
	"context"
	"net/http"
	"sync"
	"time"

	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

var (
	meterProvider     *sdkmetric.MeterProvider
	requestCounter    metric.Int64Counter
	latencyHist       metric.Float64Histogram
	auditWriteCounter metric.Int64Counter
	pdfRenderCounter  metric.Int64Counter
	initOnce          sync.Once
	httpHandler       http.Handler
)

// Config captures the minimal setup parameters
type Config struct {
	ServiceName   string
	ResourceAttrs map[string]string
}

// Setup configures OpenTelemetry metrics with a Prometheus exporter and
// runtime instrumentation. Returns a shutdown function.
func Setup(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "registry-backend"
	}

	var attrs []attribute.KeyValue
	attrs = append(attrs, semconv.ServiceName(cfg.ServiceName))
	for k, v := range cfg.ResourceAttrs {
		attrs = append(attrs, attribute.String(k, v))
	}

	var initErr error

	initOnce.Do(func() {
		exp, err := prometheus.New(prometheus.WithoutUnits())
		if err != nil {
			initErr = err
			return
		}

		res, err := resource.Merge(
			resource.Default(),
			resource.NewSchemaless(attrs...),
		)
		if err != nil {
			initErr = err
			return
		}

		meterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(exp),
			sdkmetric.WithResource(res),
		)

		otel.SetMeterProvider(meterProvider)
		httpHandler = promhttp.Handler()

		meter := meterProvider.Meter(cfg.ServiceName)
		requestCounter, err = meter.Int64Counter(
			"http_requests_total",
			metric.WithDescription("Total number of HTTP requests processed"),
		)
		if err != nil {
			initErr = err
			return
		}

		latencyHist, err = meter.Float64Histogram(
			"http_request_duration_seconds",
			metric.WithDescription("HTTP request duration in seconds"),
		)
		if err != nil {
			initErr = err
			return
		}

		auditWriteCounter, err = meter.Int64Counter(
			"audit_records_written_total",
			metric.WithDescription("Audit ledger entries written, by action and entity type"),
		)
		if err != nil {
			initErr = err
			return
		}

		pdfRenderCounter, err = meter.Int64Counter(
			"pdf_renders_total",
			metric.WithDescription("Card and sticker PDF renders, by kind and outcome"),
		)
		if err != nil {
			initErr = err
			return
		}

		// Start Go runtime metrics (goroutines, GC, etc.)
		_ = runtime.Start(
			runtime.WithMinimumReadMemStatsInterval(10*time.Second),
			runtime.WithMeterProvider(meterProvider),
		)
	})

	if initErr != nil {
		return nil, initErr
	}

	shutdown := func(ctx context.Context) error {
		if meterProvider != nil {
			return meterProvider.Shutdown(ctx)
		}
		return nil
	}
	return shutdown, nil
}

// Handler returns the Prometheus scrape handler; nil before Setup
func Handler() http.Handler {
	return httpHandler
}

// CountRequest records one HTTP request with its duration
func CountRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	if requestCounter == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status", status),
	)
	requestCounter.Add(ctx, 1, attrs)
	latencyHist.Record(ctx, duration.Seconds(), attrs)
}

// CountAuditWrite records one ledger append
func CountAuditWrite(ctx context.Context, action, entityType string) {
	if auditWriteCounter == nil {
		return
	}
	auditWriteCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("entity_type", entityType),
	))
}

// CountPDFRender records one PDF render attempt
func CountPDFRender(ctx context.Context, kind string, success bool) {
	if pdfRenderCounter == nil {
		return
	}
	pdfRenderCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.Bool("success", success),
	))
}
