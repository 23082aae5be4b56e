package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Purchase log backends.
const (
	BackendSQLite = "sqlite"
	BackendRemote = "remote"
)

// Log formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config is the complete gateway configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Auth        AuthConfig        `yaml:"auth"`
	Database    DatabaseConfig    `yaml:"database"`
	PurchaseLog PurchaseLogConfig `yaml:"purchase_log"`
	Limits      LimitsConfig      `yaml:"limits"`
	Logging     LoggingConfig     `yaml:"logging"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
}

// ServerConfig holds listener and identity settings.
type ServerConfig struct {
	Name            string   `yaml:"name"`
	Version         string   `yaml:"version"`
	HTTPAddr        string   `yaml:"http_addr"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
	DrainDelay      Duration `yaml:"drain_delay"`
	WebSocket       bool     `yaml:"websocket"`
	CORSOrigins     []string `yaml:"cors_origins"`
}

// AuthConfig holds the shared secret. Empty disables authentication.
type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

// DatabaseConfig holds the SQLite file used by add_todo.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// PurchaseLogConfig selects where purchase records go. An empty backend
// means remote when a URL is configured and sqlite otherwise.
type PurchaseLogConfig struct {
	Backend    string   `yaml:"backend"`
	URL        string   `yaml:"url"`
	AuthToken  string   `yaml:"auth_token"`
	Timeout    Duration `yaml:"timeout"`
	MaxRetries int      `yaml:"max_retries"`
}

// LimitsConfig holds the optional request limits. Zero disables a limit.
type LimitsConfig struct {
	Rate           int      `yaml:"rate"`
	Burst          int      `yaml:"burst"`
	MaxBodyBytes   int64    `yaml:"max_body_bytes"`
	MaxParamsBytes int64    `yaml:"max_params_bytes"`
	RequestTimeout Duration `yaml:"request_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TelemetryConfig holds OpenTelemetry configuration.
type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// Duration is a time.Duration written as a Go duration string ("5s").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Name:            "MCP Server Example",
			Version:         "1.0.0",
			HTTPAddr:        ":3000",
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(30 * time.Second),
		},
		Database: DatabaseConfig{
			Path: "data/mcp.db",
		},
		PurchaseLog: PurchaseLogConfig{
			Timeout:    Duration(10 * time.Second),
			MaxRetries: 3,
		},
		Limits: LimitsConfig{
			MaxBodyBytes: 1 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: FormatConsole,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "mcp-gateway",
			SampleRatio: 1,
		},
	}
}

// Load builds the configuration from the file at path (skipped when path
// is empty) and the process environment, then validates it.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal([]byte(expandEnvVars(string(data), lookup)), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnv(lookup)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} with the variable's value, or "" when unset.
func expandEnvVars(s string, lookup func(string) (string, bool)) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		v, _ := lookup(envVarPattern.FindStringSubmatch(match)[1])
		return v
	})
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	overrides := []struct {
		name   string
		target *string
	}{
		{"API_KEY", &c.Auth.APIKey},
		{"TURSO_DATABASE_URL", &c.PurchaseLog.URL},
		{"TURSO_AUTH_TOKEN", &c.PurchaseLog.AuthToken},
		{"MCP_ADDR", &c.Server.HTTPAddr},
		{"MCP_DATABASE_PATH", &c.Database.Path},
		{"MCP_LOG_LEVEL", &c.Logging.Level},
	}
	for _, o := range overrides {
		if v, ok := lookup(o.name); ok {
			*o.target = v
		}
	}
}

// PurchaseBackend resolves the effective purchase log backend.
func (c *Config) PurchaseBackend() string {
	if c.PurchaseLog.Backend != "" {
		return c.PurchaseLog.Backend
	}
	if c.PurchaseLog.URL != "" {
		return BackendRemote
	}
	return BackendSQLite
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return errors.New("server.http_addr is required")
	}
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}

	switch c.PurchaseBackend() {
	case BackendSQLite:
	case BackendRemote:
		if c.PurchaseLog.URL == "" {
			return errors.New("purchase_log.url is required for the remote backend")
		}
	default:
		return fmt.Errorf("purchase_log.backend %q is not one of sqlite, remote", c.PurchaseLog.Backend)
	}
	if c.PurchaseLog.MaxRetries < 0 {
		return errors.New("purchase_log.max_retries must not be negative")
	}

	if c.Limits.Rate < 0 || c.Limits.Burst < 0 {
		return errors.New("limits.rate and limits.burst must not be negative")
	}
	if c.Limits.MaxBodyBytes < 0 || c.Limits.MaxParamsBytes < 0 {
		return errors.New("limits byte sizes must not be negative")
	}
	if c.Limits.RequestTimeout < 0 {
		return errors.New("limits.request_timeout must not be negative")
	}

	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if c.Logging.Format != FormatConsole && c.Logging.Format != FormatJSON {
		return fmt.Errorf("logging.format %q is not one of console, json", c.Logging.Format)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return errors.New("telemetry.sample_ratio must be between 0 and 1")
	}
	return nil
}
