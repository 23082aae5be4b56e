// mcp-gateway serves the JSON-RPC tool gateway over HTTP.
//
// Configuration comes from an optional YAML file (--config) and the
// environment (API_KEY, TURSO_DATABASE_URL, TURSO_AUTH_TOKEN, MCP_ADDR,
// MCP_DATABASE_PATH, MCP_LOG_LEVEL). Flags override both.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	gateway "github.com/felixgeelhaar/mcp-gateway"
	"github.com/felixgeelhaar/mcp-gateway/config"
	"github.com/felixgeelhaar/mcp-gateway/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type flags struct {
	configPath  string
	addr        string
	logLevel    string
	showVersion bool
}

func parseFlags(args []string, stderr io.Writer) (*flags, error) {
	var f flags
	fs := pflag.NewFlagSet("mcp-gateway", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&f.configPath, "config", "c", "", "path to a YAML config file")
	fs.StringVar(&f.addr, "addr", "", "listen address (overrides server.http_addr)")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.BoolVar(&f.showVersion, "version", false, "print the version and exit")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: mcp-gateway [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	return &f, nil
}

// loadConfig loads the file and environment, then applies flag overrides.
func loadConfig(f *flags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.addr != "" {
		cfg.Server.HTTPAddr = f.addr
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	f, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if f.showVersion {
		fmt.Fprintf(stdout, "mcp-gateway %s\n", version)
		return nil
	}

	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Logging, stderr).With().Str("version", version).Logger()

	gw, err := gateway.New(ctx, cfg, logger)
	if err != nil {
		return err
	}

	logger.Info().Str("addr", cfg.Server.HTTPAddr).Msg("mcp-gateway starting")
	if err := gw.Serve(ctx); err != nil {
		return err
	}
	logger.Info().Msg("mcp-gateway stopped")
	return nil
}
