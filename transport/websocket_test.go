package transport_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/felixgeelhaar/mcp-gateway/protocol"
	"github.com/felixgeelhaar/mcp-gateway/transport"
)

func dialWebSocket(t *testing.T, srv *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, msg string) rpcReply {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var reply rpcReply
	if err := json.Unmarshal(data, &reply); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return reply
}

func TestWebSocket_RequestResponse(t *testing.T) {
	srv := httptest.NewServer(transport.NewWebSocket(metaHandler))
	defer srv.Close()

	conn := dialWebSocket(t, srv, http.Header{"Authorization": []string{"ws-secret"}})

	t.Run("upgrade headers reach every message", func(t *testing.T) {
		for i, id := range []string{"1", `"two"`} {
			reply := roundTrip(t, conn, `{"jsonrpc":"2.0","method":"ping","id":`+id+`}`)
			if string(reply.ID) != id {
				t.Errorf("message %d: id = %s, want %s", i, reply.ID, id)
			}
			if reply.Result["authorization"] != "ws-secret" {
				t.Errorf("message %d: authorization = %q", i, reply.Result["authorization"])
			}
			if reply.Result["transport"] != "websocket" {
				t.Errorf("message %d: transport = %q", i, reply.Result["transport"])
			}
		}
	})

	t.Run("parse error keeps the connection open", func(t *testing.T) {
		reply := roundTrip(t, conn, `{broken`)
		if reply.Error == nil || reply.Error.Code != protocol.CodeParseError {
			t.Fatalf("error = %+v", reply.Error)
		}
		if string(reply.ID) != "null" {
			t.Errorf("id = %s", reply.ID)
		}

		reply = roundTrip(t, conn, `{"jsonrpc":"2.0","method":"ping","id":3}`)
		if reply.Error != nil {
			t.Errorf("follow-up request failed: %+v", reply.Error)
		}
	})

	t.Run("unauthorized is an error frame", func(t *testing.T) {
		reply := roundTrip(t, conn, `{"jsonrpc":"2.0","method":"deny","id":4}`)
		if reply.Error == nil || reply.Error.Code != protocol.CodeUnauthorized {
			t.Fatalf("error = %+v", reply.Error)
		}
	})
}

func TestWebSocket_CloseAll(t *testing.T) {
	ws := transport.NewWebSocket(metaHandler)
	srv := httptest.NewServer(ws)
	defer srv.Close()

	conn := dialWebSocket(t, srv, nil)
	// One round trip guarantees the server has registered the client.
	roundTrip(t, conn, `{"jsonrpc":"2.0","method":"ping","id":1}`)

	if got := ws.Clients(); got != 1 {
		t.Fatalf("Clients() = %d, want 1", got)
	}

	ws.CloseAll()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("ReadMessage() error = %v, want normal closure", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for ws.Clients() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("Clients() = %d after CloseAll", ws.Clients())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebSocket_RejectsPlainHTTP(t *testing.T) {
	srv := httptest.NewServer(transport.NewWebSocket(metaHandler))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestWebSocket_CheckOrigin(t *testing.T) {
	ws := transport.NewWebSocket(metaHandler,
		transport.WithWebSocketCheckOrigin(func(r *http.Request) bool {
			return r.Header.Get("Origin") == "http://app.test"
		}),
	)
	srv := httptest.NewServer(ws)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"http://evil.test"}})
	if err == nil {
		t.Fatal("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("response = %v, want 403", resp)
	}
}
