package server

import (
	"encoding/json"
	"testing"

	"github.com/felixgeelhaar/mcp-gateway/protocol"
)

func TestNew(t *testing.T) {
	t.Run("creates server with info", func(t *testing.T) {
		srv := New(Info{Name: "test-server", Version: "2.0.0"}, NewRegistry(nil, nil))

		info := srv.Info()
		if info.Name != "test-server" {
			t.Errorf("Name = %q, want %q", info.Name, "test-server")
		}
		if info.Version != "2.0.0" {
			t.Errorf("Version = %q, want %q", info.Version, "2.0.0")
		}
	})

	t.Run("uses default catalog", func(t *testing.T) {
		srv := New(DefaultInfo, NewRegistry(nil, nil))
		if len(srv.catalog.Resources) != 1 || len(srv.catalog.Prompts) != 1 {
			t.Errorf("unexpected catalog: %+v", srv.catalog)
		}
	})

	t.Run("applies catalog option", func(t *testing.T) {
		srv := New(DefaultInfo, NewRegistry(nil, nil), WithCatalog(&Catalog{}))
		if len(srv.catalog.Resources) != 0 {
			t.Errorf("expected empty catalog, got %+v", srv.catalog)
		}
	})
}

func TestServer_Initialize(t *testing.T) {
	srv := New(DefaultInfo, NewRegistry(nil, nil))

	data, err := json.Marshal(srv.Initialize())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `{"protocolVersion":"2024-11-05","serverInfo":{"name":"MCP Server Example","version":"1.0.0"},` +
		`"capabilities":{"tools":{},"resources":{},"prompts":{}}}`
	if string(data) != want {
		t.Errorf("got  %s\nwant %s", data, want)
	}
	if srv.Initialize().ProtocolVersion != protocol.MCPVersion {
		t.Errorf("ProtocolVersion mismatch")
	}
}
