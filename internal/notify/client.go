package notify

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// wire is the connection surface the hub writes through. *websocket.Conn
// satisfies it; tests substitute a recorder.
type wire interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one accepted notification connection.
type Client struct {
	ID string

	conn wire

	// writeMu serializes writes; the websocket allows one writer at a time.
	writeMu sync.Mutex

	// alive is the liveness flag, guarded by the hub's lock. Cleared by the
	// sweep, set back by the pong handler.
	alive bool
}

// sendFrame writes a [type, payload] frame.
func (c *Client) sendFrame(typ string, payload any) error {
	raw, err := json.Marshal([2]any{typ, payload})
	if err != nil {
		return err
	}
	return c.write(raw)
}

func (c *Client) write(raw []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, raw)
}

func (c *Client) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

func (c *Client) close() {
	c.conn.Close()
}
