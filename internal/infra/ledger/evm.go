package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/marketwatch/internal/core/domain"
	"github.com/vietddude/marketwatch/internal/indexing/metrics"
)

// EVMGateway implements Gateway against an EVM JSON-RPC node, queries over
// HTTP and subscriptions over websocket.
type EVMGateway struct {
	chainID  domain.ChainID
	http     *HTTPClient
	ws       *WSConn
	bindings Bindings
	log      *slog.Logger
}

// NewEVMGateway dials the websocket endpoint and wires the HTTP client.
func NewEVMGateway(
	ctx context.Context,
	chainID domain.ChainID,
	httpURL, wsURL string,
	bindings Bindings,
) (*EVMGateway, error) {
	if httpURL == "" || wsURL == "" {
		return nil, fmt.Errorf("both http_url and ws_url are required")
	}

	ws, err := DialWS(ctx, wsURL)
	if err != nil {
		return nil, err
	}

	return &EVMGateway{
		chainID:  chainID,
		http:     NewHTTPClient(chainID, httpURL, 30*time.Second),
		ws:       ws,
		bindings: bindings,
		log:      slog.Default().With("component", "ledger", "chain", chainID),
	}, nil
}

// Close shuts the streaming connection.
func (g *EVMGateway) Close() error {
	return g.ws.Close()
}

// CurrentHeight returns the head over the request/response connection.
func (g *EVMGateway) CurrentHeight(ctx context.Context) (uint64, error) {
	h, err := g.http.BlockNumber(ctx)
	if err != nil {
		return 0, err
	}
	metrics.ChainHeadBlock.WithLabelValues(string(g.chainID), "http").Set(float64(h))
	return h, nil
}

// HTTPHeight exposes the request/response view for the drift monitor.
func (g *EVMGateway) HTTPHeight() HeightSource {
	return HeightFunc(g.CurrentHeight)
}

// WSHeight exposes the streaming connection's view for the drift monitor.
func (g *EVMGateway) WSHeight() HeightSource {
	return HeightFunc(func(ctx context.Context) (uint64, error) {
		h, err := g.ws.BlockNumber(ctx)
		if err != nil {
			return 0, err
		}
		metrics.ChainHeadBlock.WithLabelValues(string(g.chainID), "ws").Set(float64(h))
		return h, nil
	})
}

// QueryRange fetches and decodes the logs of one kind in [from, to].
func (g *EVMGateway) QueryRange(
	ctx context.Context,
	kind domain.EventKind,
	from, to uint64,
) ([]domain.ChainEvent, error) {
	b, ok := g.bindings[kind]
	if !ok {
		return nil, fmt.Errorf("kind %s is not tracked", kind)
	}

	filter := map[string]any{
		"address":   b.Address,
		"topics":    []any{b.Topic0},
		"fromBlock": fmt.Sprintf("0x%x", from),
		"toBlock":   fmt.Sprintf("0x%x", to),
	}
	result, err := g.http.Call(ctx, "eth_getLogs", []any{filter})
	if err != nil {
		return nil, fmt.Errorf("eth_getLogs %s failed: %w", kind, err)
	}

	var logs []rawLog
	if err := json.Unmarshal(result, &logs); err != nil {
		return nil, fmt.Errorf("invalid eth_getLogs response: %w", err)
	}

	events := make([]domain.ChainEvent, 0, len(logs))
	for _, l := range logs {
		if l.Removed {
			continue
		}
		ev, err := decodeLog(g.chainID, kind, l)
		if err != nil {
			return nil, fmt.Errorf("decode %s log: %w", kind, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// Subscribe attaches a live log subscription for one kind.
func (g *EVMGateway) Subscribe(ctx context.Context, kind domain.EventKind, h EventHandler) error {
	b, ok := g.bindings[kind]
	if !ok {
		return fmt.Errorf("kind %s is not tracked", kind)
	}

	filter := map[string]any{
		"address": b.Address,
		"topics":  []any{b.Topic0},
	}
	return g.ws.Subscribe(ctx, []any{"logs", filter}, func(result json.RawMessage) {
		var l rawLog
		if err := json.Unmarshal(result, &l); err != nil {
			g.log.Warn("unparseable log notification", "kind", kind, "error", err)
			return
		}
		if l.Removed {
			return
		}
		ev, err := decodeLog(g.chainID, kind, l)
		if err != nil {
			g.log.Warn("undecodable log notification", "kind", kind, "error", err)
			return
		}
		h(ctx, ev)
	})
}

// SubscribeNewBlock attaches a newHeads subscription.
func (g *EVMGateway) SubscribeNewBlock(ctx context.Context, h BlockHandler) error {
	return g.ws.Subscribe(ctx, []any{"newHeads"}, func(result json.RawMessage) {
		var head struct {
			Number string `json:"number"`
		}
		if err := json.Unmarshal(result, &head); err != nil {
			g.log.Warn("unparseable newHeads notification", "error", err)
			return
		}
		n, err := parseHexUint(head.Number)
		if err != nil {
			g.log.Warn("bad head number", "number", head.Number, "error", err)
			return
		}
		metrics.ChainHeadBlock.WithLabelValues(string(g.chainID), "ws").Set(float64(n))
		h(ctx, n)
	})
}
