package middleware

import "time"

// StackConfig selects the middleware the gateway runs in front of the router.
// Zero values disable the optional stages.
type StackConfig struct {
	Logger Logger
	// Secret is the shared API key. Empty disables authentication.
	Secret string

	// RateLimit is requests per second per client; Burst defaults to RateLimit.
	RateLimit int
	Burst     int

	MaxParamsBytes int64
	Timeout        time.Duration

	// Telemetry enables the OTel middleware with the given options.
	Telemetry []OTelOption
}

// Stack returns the gateway middleware in execution order:
// recover, request id, logging, telemetry, rate limit, auth, envelope
// validation, params size limit and timeout.
//
// Auth runs before envelope validation, so a request with a bad version
// and no credentials is answered with -32001 rather than -32600.
func Stack(cfg StackConfig) []Middleware {
	logger := cfg.Logger
	if logger == nil {
		logger = NopLogger{}
	}

	stack := []Middleware{
		Recover(WithRecoverLogger(logger)),
		RequestID(),
		Logging(logger),
	}
	if cfg.Telemetry != nil {
		stack = append(stack, OTel(cfg.Telemetry...))
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = cfg.RateLimit
		}
		stack = append(stack, RateLimit(cfg.RateLimit, burst, WithRateLimitLogger(logger)))
	}
	stack = append(stack,
		Auth(SharedSecret(cfg.Secret), WithAuthLogger(logger)),
		Envelope(),
	)
	if cfg.MaxParamsBytes > 0 {
		stack = append(stack, SizeLimit(cfg.MaxParamsBytes, WithSizeLimitLogger(logger)))
	}
	if cfg.Timeout > 0 {
		stack = append(stack, Timeout(cfg.Timeout))
	}
	return stack
}
