package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const wsCallTimeout = 30 * time.Second

// SubHandler consumes one raw subscription notification.
type SubHandler func(result json.RawMessage)

// WSConn is a JSON-RPC connection over websocket supporting both
// request/response calls and eth_subscribe push notifications.
type WSConn struct {
	conn *websocket.Conn
	log  *slog.Logger

	writeMu sync.Mutex // gorilla allows one concurrent writer

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]chan wsResult
	subs    map[string]SubHandler
	closed  bool
}

type wsResult struct {
	result json.RawMessage
	err    error
}

// DialWS opens the websocket connection and starts the read loop.
func DialWS(ctx context.Context, url string) (*WSConn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ws dial %s: %w", url, err)
	}

	c := &WSConn{
		conn:    conn,
		log:     slog.Default().With("component", "ledger-ws"),
		pending: make(map[uint64]chan wsResult),
		subs:    make(map[string]SubHandler),
	}
	go c.readLoop()
	return c, nil
}

// Close tears down the connection. Pending calls fail.
func (c *WSConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return c.conn.Close()
}

// Call makes a JSON-RPC request over the websocket and waits for its reply.
func (c *WSConn) Call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, fmt.Errorf("ws connection closed")
	}
	c.nextID++
	id := c.nextID
	ch := make(chan wsResult, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	req := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
		"id":      id,
	}
	if err := c.writeJSON(req); err != nil {
		return nil, fmt.Errorf("ws write: %w", err)
	}

	timer := time.NewTimer(wsCallTimeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, fmt.Errorf("ws call %s timed out", method)
	case res := <-ch:
		return res.result, res.err
	}
}

// BlockNumber returns the head height as seen by the streaming connection.
func (c *WSConn) BlockNumber(ctx context.Context) (uint64, error) {
	result, err := c.Call(ctx, "eth_blockNumber", nil)
	if err != nil {
		return 0, fmt.Errorf("eth_blockNumber failed: %w", err)
	}
	var blockHex string
	if err := json.Unmarshal(result, &blockHex); err != nil {
		return 0, fmt.Errorf("invalid block number response: %w", err)
	}
	return parseHexUint(blockHex)
}

// Subscribe issues eth_subscribe and routes matching notifications to h.
func (c *WSConn) Subscribe(ctx context.Context, params []any, h SubHandler) error {
	result, err := c.Call(ctx, "eth_subscribe", params)
	if err != nil {
		return fmt.Errorf("eth_subscribe failed: %w", err)
	}

	var subID string
	if err := json.Unmarshal(result, &subID); err != nil {
		return fmt.Errorf("invalid subscription id: %w", err)
	}

	c.mu.Lock()
	c.subs[subID] = h
	c.mu.Unlock()
	return nil
}

func (c *WSConn) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *WSConn) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.failPending(err)
			return
		}

		var msg struct {
			ID     *uint64         `json:"id"`
			Result json.RawMessage `json:"result"`
			Method string          `json:"method"`
			Params struct {
				Subscription string          `json:"subscription"`
				Result       json.RawMessage `json:"result"`
			} `json:"params"`
			Error *struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Warn("unparseable ws frame", "error", err)
			continue
		}

		switch {
		case msg.ID != nil:
			c.mu.Lock()
			ch, ok := c.pending[*msg.ID]
			c.mu.Unlock()
			if !ok {
				continue
			}
			res := wsResult{result: msg.Result}
			if msg.Error != nil {
				res.err = fmt.Errorf("rpc error %d: %s", msg.Error.Code, msg.Error.Message)
			}
			ch <- res

		case msg.Method == "eth_subscription":
			c.mu.Lock()
			h, ok := c.subs[msg.Params.Subscription]
			c.mu.Unlock()
			if ok {
				h(msg.Params.Result)
			}
		}
	}
}

func (c *WSConn) failPending(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for id, ch := range c.pending {
		ch <- wsResult{err: fmt.Errorf("ws connection lost: %w", err)}
		delete(c.pending, id)
	}
}
