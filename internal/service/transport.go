package service

import (
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"memberflow/internal/pkg/config"
)

var (
	requestCounter  metric.Int64Counter
	requestDuration metric.Float64Histogram
	errorCounter    metric.Int64Counter
)

// initMetrics registers the client call instruments.
func initMetrics() error {
	meter := otel.GetMeterProvider().Meter("memberflow")

	var err error
	requestCounter, err = meter.Int64Counter(
		"http.client.request.count",
		metric.WithDescription("Identity API requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create request counter: %w", err)
	}

	requestDuration, err = meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("Identity API request duration"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return fmt.Errorf("failed to create request duration histogram: %w", err)
	}

	errorCounter, err = meter.Int64Counter(
		"http.client.error.count",
		metric.WithDescription("Identity API request failures"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create error counter: %w", err)
	}

	return nil
}

// NewHTTPClient builds the outbound HTTP client with tracing and call
// metrics around every identity API request.
func NewHTTPClient(cfg *config.Bootstrap, logger *zap.Logger) *http.Client {
	if err := initMetrics(); err != nil {
		logger.Error("Failed to initialize metrics", zap.Error(err))
	}

	timeout := 15 * time.Second
	if cfg.API != nil && cfg.API.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.API.TimeoutSeconds) * time.Second
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &monitoringTransport{
			base:   http.DefaultTransport,
			logger: logger,
		},
	}
}

// monitoringTransport wraps the base RoundTripper with a span and
// request/error counters per call.
type monitoringTransport struct {
	base   http.RoundTripper
	logger *zap.Logger
}

func (t *monitoringTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	startTime := time.Now()

	tracer := otel.GetTracerProvider().Tracer("memberflow")

	ctx, span := tracer.Start(r.Context(), fmt.Sprintf("%s %s", r.Method, r.URL.Path))
	defer span.End()

	span.SetAttributes(
		attribute.String("http.method", r.Method),
		attribute.String("http.route", r.URL.Path),
		attribute.String("http.host", r.URL.Host),
	)

	resp, err := t.base.RoundTrip(r.WithContext(ctx))

	duration := float64(time.Since(startTime).Milliseconds())

	attributes := []attribute.KeyValue{
		attribute.String("http.method", r.Method),
		attribute.String("http.route", r.URL.Path),
	}

	requestCounter.Add(ctx, 1, metric.WithAttributes(attributes...))
	requestDuration.Record(ctx, duration, metric.WithAttributes(attributes...))

	if err != nil {
		errorCounter.Add(ctx, 1, metric.WithAttributes(attributes...))
		span.SetStatus(codes.Error, err.Error())
		t.logger.Warn("Identity API request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(startTime)),
			zap.Error(err),
		)
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= 400 {
		errorCounter.Add(ctx, 1, metric.WithAttributes(attributes...))
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
		t.logger.Warn("Identity API request error",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", resp.StatusCode),
			zap.Duration("duration", time.Since(startTime)),
		)
	} else {
		span.SetStatus(codes.Ok, "OK")
		t.logger.Debug("Identity API request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", resp.StatusCode),
			zap.Duration("duration", time.Since(startTime)),
		)
	}

	return resp, nil
}
