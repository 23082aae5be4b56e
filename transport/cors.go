package transport

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures cross-origin access for browser front-ends.
type CORSConfig struct {
	// AllowOrigins is a list of origins that are allowed.
	// Use "*" to allow all origins, or specify exact origins.
	AllowOrigins []string

	// AllowMethods is a list of allowed HTTP methods.
	// Default: GET, POST, OPTIONS
	AllowMethods []string

	// AllowHeaders is a list of allowed request headers.
	// Default: Content-Type, Authorization, X-Request-ID
	AllowHeaders []string

	// ExposeHeaders is a list of headers the browser is allowed to access.
	ExposeHeaders []string

	// AllowCredentials indicates whether credentials are allowed.
	AllowCredentials bool

	// MaxAge indicates how long preflight results can be cached (in seconds).
	// Default: 86400 (24 hours)
	MaxAge int
}

var (
	defaultCORSMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	defaultCORSHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
)

// DefaultCORSConfig allows every origin.
func DefaultCORSConfig() CORSConfig {
	return OriginsCORSConfig("*")
}

// OriginsCORSConfig allows the given origins with the default methods and
// headers. The gateway config lists origins only.
func OriginsCORSConfig(origins ...string) CORSConfig {
	return CORSConfig{
		AllowOrigins:  origins,
		AllowMethods:  defaultCORSMethods,
		AllowHeaders:  defaultCORSHeaders,
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        86400,
	}
}

// CORSHandler wraps an http.Handler with CORS support.
func CORSHandler(config CORSConfig, next http.Handler) http.Handler {
	if len(config.AllowMethods) == 0 {
		config.AllowMethods = defaultCORSMethods
	}
	if len(config.AllowHeaders) == 0 {
		config.AllowHeaders = defaultCORSHeaders
	}
	if config.MaxAge == 0 {
		config.MaxAge = 86400
	}

	allowAllOrigins := false
	allowedOrigins := make(map[string]bool, len(config.AllowOrigins))
	for _, origin := range config.AllowOrigins {
		if origin == "*" {
			allowAllOrigins = true
		}
		allowedOrigins[origin] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		var allowOrigin string
		switch {
		case allowAllOrigins && config.AllowCredentials && origin != "":
			// Browsers reject "*" together with credentials.
			allowOrigin = origin
		case allowAllOrigins:
			allowOrigin = "*"
		case origin != "" && allowedOrigins[origin]:
			allowOrigin = origin
			w.Header().Add("Vary", "Origin")
		}

		if allowOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
			if config.AllowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Set("Access-Control-Allow-Methods", strings.Join(config.AllowMethods, ", "))
				w.Header().Set("Access-Control-Allow-Headers", strings.Join(config.AllowHeaders, ", "))
				if config.MaxAge > 0 {
					w.Header().Set("Access-Control-Max-Age", strconv.Itoa(config.MaxAge))
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if len(config.ExposeHeaders) > 0 {
				w.Header().Set("Access-Control-Expose-Headers", strings.Join(config.ExposeHeaders, ", "))
			}
		}

		next.ServeHTTP(w, r)
	})
}

// WithCORS configures CORS for the HTTP transport.
func WithCORS(config CORSConfig) HTTPOption {
	return func(h *HTTP) {
		h.corsConfig = &config
	}
}

// WithCORSOrigins enables CORS for the listed origins. An empty list leaves
// CORS disabled.
func WithCORSOrigins(origins ...string) HTTPOption {
	return func(h *HTTP) {
		if len(origins) == 0 {
			return
		}
		config := OriginsCORSConfig(origins...)
		h.corsConfig = &config
	}
}
