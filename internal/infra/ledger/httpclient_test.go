package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPClient_BlockNumber(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Bad request body: %v", err)
		}
		if req["method"] != "eth_blockNumber" {
			t.Errorf("Expected eth_blockNumber, got %v", req["method"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      1,
			"result":  "0x3d0900",
		})
	}))
	defer server.Close()

	c := NewHTTPClient("134", server.URL, 5*time.Second)
	height, err := c.BlockNumber(context.Background())
	if err != nil {
		t.Fatalf("BlockNumber failed: %v", err)
	}
	if height != 4000000 {
		t.Errorf("Expected 4000000, got %d", height)
	}
}

func TestHTTPClient_RPCError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      1,
			"error":   map[string]any{"code": -32000, "message": "header not found"},
		})
	}))
	defer server.Close()

	c := NewHTTPClient("134", server.URL, 5*time.Second)
	if _, err := c.Call(context.Background(), "eth_getLogs", nil); err == nil {
		t.Fatal("Expected rpc error, got nil")
	}
}

func TestHTTPClient_HTTPStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewHTTPClient("134", server.URL, 5*time.Second)
	if _, err := c.Call(context.Background(), "eth_blockNumber", nil); err == nil {
		t.Fatal("Expected error for HTTP 502, got nil")
	}
}
