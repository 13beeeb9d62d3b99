package notify

import (
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Handler upgrades requests to websocket connections and serves them until
// the peer goes away.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Warn("websocket upgrade failed", "error", err)
			return
		}
		h.serve(conn)
	}
}

// serve runs the read loop for one connection.
func (h *Hub) serve(conn *websocket.Conn) {
	c := h.register(conn)
	conn.SetPongHandler(func(string) error {
		h.markAlive(c)
		return nil
	})
	defer func() {
		h.disconnect(c)
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		h.handleFrame(c, raw)
	}
}
