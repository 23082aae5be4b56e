// mcpctl calls a running mcp-gateway from the command line.
//
//	mcpctl tools
//	mcpctl call add '{"a":2,"b":3}'
//	mcpctl --ws ws://localhost:3000/ws call echo '{"message":"hi"}'
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/felixgeelhaar/mcp-gateway/client"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

const usage = `Usage: mcpctl [flags] <command> [args]

Commands:
  initialize           show server info and capabilities
  tools                list tools
  call <name> [json]   call a tool with a JSON object of arguments
  resources            list resources
  read <uri>           read a resource
  prompts              list prompts

Flags:
`

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var (
		url     string
		wsURL   string
		apiKey  string
		timeout time.Duration
	)

	fs := pflag.NewFlagSet("mcpctl", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&url, "url", envOr("MCP_URL", "http://localhost:3000/mcp"), "gateway HTTP endpoint")
	fs.StringVar(&wsURL, "ws", "", "use the WebSocket endpoint at this URL instead of HTTP")
	fs.StringVar(&apiKey, "api-key", os.Getenv("API_KEY"), "value of the Authorization header")
	fs.DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	var transport client.Transport
	if wsURL != "" {
		wt, err := client.DialWebSocket(ctx, wsURL, apiKey)
		if err != nil {
			return err
		}
		transport = wt
	} else {
		transport = client.NewHTTPTransport(url, client.WithAPIKey(apiKey))
	}
	c := client.New(transport, client.WithTimeout(timeout))
	defer c.Close()

	result, err := dispatch(ctx, c, fs.Args())
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(result)
}

func dispatch(ctx context.Context, c *client.Client, args []string) (any, error) {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "initialize":
		return c.Initialize(ctx)
	case "tools":
		return c.ListTools(ctx)
	case "call":
		if len(rest) == 0 || len(rest) > 2 {
			return nil, errors.New("usage: call <name> [json-arguments]")
		}
		var arguments map[string]any
		if len(rest) == 2 {
			dec := json.NewDecoder(strings.NewReader(rest[1]))
			dec.UseNumber()
			if err := dec.Decode(&arguments); err != nil {
				return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
			}
		}
		if arguments == nil {
			return c.CallTool(ctx, rest[0], nil)
		}
		return c.CallTool(ctx, rest[0], arguments)
	case "resources":
		return c.ListResources(ctx)
	case "read":
		if len(rest) != 1 {
			return nil, errors.New("usage: read <uri>")
		}
		return c.ReadResource(ctx, rest[0])
	case "prompts":
		return c.ListPrompts(ctx)
	default:
		return nil, fmt.Errorf("unknown command %q", cmd)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
