package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/mcp-gateway/protocol"
)

const instrumentationName = "github.com/felixgeelhaar/mcp-gateway"

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*otelConfig)

type otelConfig struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	serviceName    string
}

// WithTracerProvider sets a custom tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *otelConfig) {
		c.tracerProvider = tp
	}
}

// WithMeterProvider sets a custom meter provider.
func WithMeterProvider(mp metric.MeterProvider) OTelOption {
	return func(c *otelConfig) {
		c.meterProvider = mp
	}
}

// WithOTelServiceName sets the service name recorded on spans and metrics.
func WithOTelServiceName(name string) OTelOption {
	return func(c *otelConfig) {
		c.serviceName = name
	}
}

// OTel returns middleware that adds OpenTelemetry tracing and metrics.
// Each request gets a server span named "mcp.<method>"; tools/call spans
// also carry the tool name.
func OTel(opts ...OTelOption) Middleware {
	cfg := newOTelConfig(opts)

	tracer := cfg.tracerProvider.Tracer(instrumentationName)
	meter := cfg.meterProvider.Meter(instrumentationName)

	requestCounter, _ := meter.Int64Counter(
		"mcp.gateway.requests",
		metric.WithDescription("Total number of gateway requests"),
		metric.WithUnit("{request}"),
	)
	requestDuration, _ := meter.Float64Histogram(
		"mcp.gateway.request.duration",
		metric.WithDescription("Duration of gateway requests"),
		metric.WithUnit("ms"),
	)
	errorCounter, _ := meter.Int64Counter(
		"mcp.gateway.errors",
		metric.WithDescription("Total number of gateway errors"),
		metric.WithUnit("{error}"),
	)

	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			attrs := []attribute.KeyValue{
				attribute.String("mcp.method", req.Method),
				attribute.String("service.name", cfg.serviceName),
			}
			if tool := toolName(req); tool != "" {
				attrs = append(attrs, attribute.String("mcp.tool", tool))
			}

			ctx, span := tracer.Start(ctx, "mcp."+req.Method,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attrs...),
			)
			defer span.End()

			if reqID := RequestIDFromContext(ctx); reqID != "" {
				span.SetAttributes(attribute.String("mcp.request_id", reqID))
			}

			start := time.Now()
			requestCounter.Add(ctx, 1, metric.WithAttributes(attrs...))

			resp, err := next(ctx, req)

			elapsed := float64(time.Since(start).Microseconds()) / 1000
			requestDuration.Record(ctx, elapsed, metric.WithAttributes(attrs...))

			if err == nil {
				span.SetStatus(codes.Ok, "")
				return resp, nil
			}

			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			var perr *protocol.Error
			if errors.As(err, &perr) {
				span.SetAttributes(attribute.Int("mcp.error_code", perr.Code))
				attrs = append(attrs, attribute.Int("mcp.error_code", perr.Code))
			}
			errorCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
			return resp, err
		}
	}
}

func newOTelConfig(opts []OTelOption) *otelConfig {
	cfg := &otelConfig{
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
		serviceName:    "mcp-gateway",
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// toolName peeks at the tool name of a tools/call request.
func toolName(req *protocol.Request) string {
	if req.Method != protocol.MethodToolsCall || len(req.Params) == 0 {
		return ""
	}
	var p struct {
		Name string `json:"name"`
	}
	if json.Unmarshal(req.Params, &p) != nil {
		return ""
	}
	return p.Name
}
