// Package notify is the room-keyed pub/sub broker behind the /ws endpoint.
// Clients join rooms named `<chainId>:<topic>`; the materializer publishes
// marketplace notifications into them as `[topic, payload]` frames.
//
// Room membership lives only in this process. A hub is constructed per
// instance and carries its own room state; nothing is shared across
// processes.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/marketwatch/internal/core/domain"
	"github.com/vietddude/marketwatch/internal/indexing/metrics"
)

// Client -> server frame types. The server answers each with its ACK.
const (
	frameJoin     = "join"
	frameLeave    = "leave"
	frameLeaveAll = "leaveAll"

	ackJoin     = "joinACK"
	ackLeave    = "leaveACK"
	ackLeaveAll = "leaveAllACK"
)

// roomRef is the join/leave payload.
type roomRef struct {
	ChainID string `json:"chainId"`
	Topic   string `json:"topic"`
}

// Hub tracks connections and room membership for one process.
type Hub struct {
	heartbeat time.Duration

	mu      sync.Mutex
	rooms   *roomSet
	clients map[string]*Client

	log *slog.Logger
}

// NewHub creates a hub. heartbeat is the liveness sweep interval.
func NewHub(heartbeat time.Duration) *Hub {
	return &Hub{
		heartbeat: heartbeat,
		rooms:     newRoomSet(),
		clients:   make(map[string]*Client),
		log:       slog.Default().With("component", "notify"),
	}
}

// register accepts a connection and assigns it an ID. The caller owns the
// read loop.
func (h *Hub) register(conn wire) *Client {
	c := &Client{
		ID:    uuid.New().String(),
		conn:  conn,
		alive: true,
	}

	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()

	metrics.NotifyConnections.Inc()
	h.log.Debug("connection opened", "conn", c.ID)
	return c
}

// disconnect removes the client from every room and from the hub. Idempotent;
// called on read-loop exit and by the sweep.
func (h *Hub) disconnect(c *Client) {
	h.mu.Lock()
	_, known := h.clients[c.ID]
	if known {
		h.rooms.leaveAll(c)
		delete(h.clients, c.ID)
	}
	roomCount := h.rooms.count()
	h.mu.Unlock()

	if !known {
		return
	}
	metrics.NotifyConnections.Dec()
	metrics.NotifyRooms.Set(float64(roomCount))
	h.log.Debug("connection closed", "conn", c.ID)
}

// handleFrame processes one client frame. Malformed or unknown frames are
// dropped without closing the connection.
func (h *Hub) handleFrame(c *Client, raw []byte) {
	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil || len(parts) == 0 {
		return
	}
	var typ string
	if err := json.Unmarshal(parts[0], &typ); err != nil {
		return
	}

	switch typ {
	case frameJoin, frameLeave:
		if len(parts) < 2 {
			return
		}
		var ref roomRef
		if err := json.Unmarshal(parts[1], &ref); err != nil ||
			ref.ChainID == "" || ref.Topic == "" {
			return
		}
		room := roomName(domain.ChainID(ref.ChainID), ref.Topic)

		h.mu.Lock()
		if typ == frameJoin {
			h.rooms.join(room, c)
		} else {
			h.rooms.leave(room, c)
		}
		roomCount := h.rooms.count()
		h.mu.Unlock()

		metrics.NotifyRooms.Set(float64(roomCount))
		ack := ackJoin
		if typ == frameLeave {
			ack = ackLeave
		}
		if err := c.sendFrame(ack, ref); err != nil {
			h.log.Debug("ack write failed", "conn", c.ID, "error", err)
		}

	case frameLeaveAll:
		h.mu.Lock()
		h.rooms.leaveAll(c)
		roomCount := h.rooms.count()
		h.mu.Unlock()

		metrics.NotifyRooms.Set(float64(roomCount))
		if err := c.sendFrame(ackLeaveAll, nil); err != nil {
			h.log.Debug("ack write failed", "conn", c.ID, "error", err)
		}
	}
}

// Publish fans a [topic, payload] frame out to every member of the chain's
// topic room. Satisfies the materializer's publisher.
func (h *Hub) Publish(chainID domain.ChainID, topic string, payload any) {
	raw, err := json.Marshal([2]any{topic, payload})
	if err != nil {
		h.log.Error("notification marshal failed", "topic", topic, "error", err)
		return
	}

	h.mu.Lock()
	members := h.rooms.members(roomName(chainID, topic))
	h.mu.Unlock()

	for _, c := range members {
		if err := c.write(raw); err != nil {
			h.log.Debug("notification write failed", "conn", c.ID, "error", err)
		}
	}
	metrics.NotifyPublished.WithLabelValues(topic).Inc()
	h.log.Debug("notification published", "chain", chainID, "topic", topic,
		"members", len(members))
}

// markAlive records a liveness proof for the connection.
func (h *Hub) markAlive(c *Client) {
	h.mu.Lock()
	c.alive = true
	h.mu.Unlock()
}

// sweep runs one liveness pass: connections whose flag is still down from
// the previous pass are terminated; the rest get their flag cleared and a
// ping. A connection that answers nothing survives exactly one sweep.
func (h *Hub) sweep() {
	h.mu.Lock()
	var dead, probe []*Client
	for _, c := range h.clients {
		if !c.alive {
			dead = append(dead, c)
		} else {
			c.alive = false
			probe = append(probe, c)
		}
	}
	h.mu.Unlock()

	for _, c := range dead {
		h.log.Info("terminating unresponsive connection", "conn", c.ID)
		metrics.NotifyTerminated.Inc()
		c.close()
		h.disconnect(c)
	}
	for _, c := range probe {
		if err := c.ping(); err != nil {
			c.close()
			h.disconnect(c)
		}
	}
}

// Run sweeps on the heartbeat interval until the context ends.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.sweep()
		}
	}
}

// ConnectionCount reports currently open connections.
func (h *Hub) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// RoomCount reports currently existing rooms.
func (h *Hub) RoomCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rooms.count()
}
