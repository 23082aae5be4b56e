package middleware

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/felixgeelhaar/mcp-gateway/protocol"
)

// RejectFunc observes a message that failed to decode. Such messages are
// answered by the transport and never reach the middleware chain.
type RejectFunc func(ctx context.Context, err *protocol.Error)

// Rejected returns a RejectFunc that logs the failure at warn level and,
// when otelOpts is non-nil, counts it in mcp.gateway.requests and
// mcp.gateway.errors like any other failed request.
func Rejected(logger Logger, otelOpts []OTelOption) RejectFunc {
	if logger == nil {
		logger = NopLogger{}
	}

	var requests, failures metric.Int64Counter
	var serviceName string
	if otelOpts != nil {
		cfg := newOTelConfig(otelOpts)
		serviceName = cfg.serviceName
		meter := cfg.meterProvider.Meter(instrumentationName)
		requests, _ = meter.Int64Counter("mcp.gateway.requests",
			metric.WithDescription("Total number of gateway requests"),
			metric.WithUnit("{request}"),
		)
		failures, _ = meter.Int64Counter("mcp.gateway.errors",
			metric.WithDescription("Total number of gateway errors"),
			metric.WithUnit("{error}"),
		)
	}

	return func(ctx context.Context, err *protocol.Error) {
		fields := []Field{
			F("code", err.Code),
			F("error", err.Message),
		}
		if tr := protocol.GetRequestMeta(ctx, protocol.MetaTransport); tr != "" {
			fields = append(fields, F("transport", tr))
		}
		logger.Warn("message rejected", fields...)

		if failures == nil {
			return
		}
		attrs := metric.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.Int("mcp.error_code", err.Code),
		)
		requests.Add(ctx, 1, attrs)
		failures.Add(ctx, 1, attrs)
	}
}
