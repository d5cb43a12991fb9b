package api

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"artrack/pkg/model"
)

const (
	liveSendBuffer   = 64
	liveWriteTimeout = 5 * time.Second
	livePingInterval = 30 * time.Second
)

// LiveHandler pushes newly recorded points to websocket clients.
// Publish is meant to be registered as a recorder observer.
type LiveHandler struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*liveClient]struct{}
}

type liveClient struct {
	send chan model.Point
	once sync.Once
}

func (c *liveClient) close() {
	c.once.Do(func() { close(c.send) })
}

// NewLiveHandler creates a LiveHandler.
func NewLiveHandler() *LiveHandler {
	return &LiveHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Local dashboard, any origin may subscribe
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*liveClient]struct{}),
	}
}

// Publish fans p out to all connected clients. Clients that cannot keep up
// are disconnected rather than blocking the recorder.
func (h *LiveHandler) Publish(p model.Point) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- p:
		default:
			slog.Warn("Live: dropping slow client")
			delete(h.clients, c)
			c.close()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *LiveHandler) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// CloseAll disconnects every client.
func (h *LiveHandler) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
}

func (h *LiveHandler) register() *liveClient {
	c := &liveClient{send: make(chan model.Point, liveSendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *LiveHandler) unregister(c *liveClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
}

func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error
		slog.Warn("Live: websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	c := h.register()
	defer h.unregister(c)
	slog.Debug("Live: client connected", "remote", r.RemoteAddr)

	// Drain incoming frames so close and pong control messages are processed.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(livePingInterval)
	defer ping.Stop()

	for {
		select {
		case <-gone:
			return
		case p, ok := <-c.send:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(liveWriteTimeout))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
			if err := conn.WriteJSON(p); err != nil {
				slog.Debug("Live: write failed", "error", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(liveWriteTimeout)); err != nil {
				return
			}
		}
	}
}
