// Package logging builds the gateway's zerolog logger and adapts it to the
// middleware Logger interface.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/felixgeelhaar/mcp-gateway/config"
	"github.com/felixgeelhaar/mcp-gateway/middleware"
)

// New builds a logger from cfg that writes to w (stderr when nil).
func New(cfg config.LoggingConfig, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.Format != config.FormatJSON {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Adapter implements middleware.Logger on top of zerolog.
type Adapter struct {
	logger zerolog.Logger
}

var _ middleware.Logger = Adapter{}

// NewAdapter wraps l.
func NewAdapter(l zerolog.Logger) Adapter {
	return Adapter{logger: l}
}

func (a Adapter) Info(msg string, fields ...middleware.Field) {
	emit(a.logger.Info(), msg, fields)
}

func (a Adapter) Error(msg string, fields ...middleware.Field) {
	emit(a.logger.Error(), msg, fields)
}

func (a Adapter) Debug(msg string, fields ...middleware.Field) {
	emit(a.logger.Debug(), msg, fields)
}

func (a Adapter) Warn(msg string, fields ...middleware.Field) {
	emit(a.logger.Warn(), msg, fields)
}

func emit(e *zerolog.Event, msg string, fields []middleware.Field) {
	if e == nil {
		return
	}
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			e = e.Str(f.Key, v)
		case int:
			e = e.Int(f.Key, v)
		case int64:
			e = e.Int64(f.Key, v)
		case bool:
			e = e.Bool(f.Key, v)
		case time.Duration:
			e = e.Dur(f.Key, v)
		case error:
			e = e.AnErr(f.Key, v)
		default:
			e = e.Interface(f.Key, v)
		}
	}
	e.Msg(msg)
}
