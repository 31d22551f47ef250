package monitor

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	CLIENT_SEND_BUFFER = 64
	WS_WRITE_TIMEOUT   = 5 * time.Second
)

type hubClient struct {
	conn *websocket.Conn
	send chan []byte
}

// ActivityHub pushes activity entries to connected websocket clients.
// Broadcast never waits on a client: each client has its own queue and
// writer, and a client whose queue is full is disconnected.
type ActivityHub struct {
	clients  map[*hubClient]struct{}
	mu       sync.Mutex
	upgrader websocket.Upgrader
	logger   *zerolog.Logger
}

func NewActivityHub(logger *zerolog.Logger) *ActivityHub {
	return &ActivityHub{
		clients:  make(map[*hubClient]struct{}),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		logger:   logger,
	}
}

func (h *ActivityHub) Broadcast(entry ActivityEntry) {
	msg, err := json.Marshal(entry)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal activity entry")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Warn().Str("remote", c.conn.RemoteAddr().String()).Msg("websocket client too slow, disconnecting")
			h.removeLocked(c)
		}
	}
}

func (h *ActivityHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *ActivityHub) remove(c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

// removeLocked closes the client's queue once. The writer then closes the
// connection.
func (h *ActivityHub) removeLocked(c *hubClient) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// ServeHTTP upgrades the request and keeps the client until it disconnects.
func (h *ActivityHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := &hubClient{conn: conn, send: make(chan []byte, CLIENT_SEND_BUFFER)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(c)
	go func() {
		defer h.remove(c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *ActivityHub) writeLoop(c *hubClient) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(WS_WRITE_TIMEOUT))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.logger.Debug().Err(err).Str("remote", c.conn.RemoteAddr().String()).Msg("dropping websocket client")
			h.remove(c)
			return
		}
	}
}
