package transport

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/RyanBlaney/sonido-coherence/guide"
	"github.com/RyanBlaney/sonido-coherence/logging"
	"github.com/RyanBlaney/sonido-coherence/pipeline"
)

const writeTimeout = 200 * time.Millisecond

// Hub pushes state summaries to connected WebSocket clients
type Hub struct {
	upgrader websocket.Upgrader
	logger   logging.Logger
	pacer    *guide.Pacer

	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

// NewHub creates an empty hub accepting any origin
func NewHub(logger logging.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger.WithFields(logging.Fields{"component": "ws_hub"}),
		conns:  make(map[*websocket.Conn]bool),
	}
}

// SetPacer attaches the breathing guide position, and how far the measured
// rate is from it, to every broadcast
func (h *Hub) SetPacer(p *guide.Pacer) {
	h.mu.Lock()
	h.pacer = p
	h.mu.Unlock()
}

func (h *Hub) add(c *websocket.Conn) {
	h.mu.Lock()
	h.conns[c] = true
	h.mu.Unlock()
}

func (h *Hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
}

func (h *Hub) snapshot() []*websocket.Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		clients = append(clients, c)
	}
	return clients
}

// Len returns the number of connected clients
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// ServeHTTP upgrades the request and keeps the client until it disconnects
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", logging.Fields{"error": err.Error()})
		return
	}
	h.add(conn)
	defer func() {
		h.remove(conn)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast sends the summary of st, waveform and guide included, to every
// client.
// Clients that cannot keep up are dropped.
func (h *Hub) Broadcast(st *pipeline.ProcessorState) {
	if st == nil {
		return
	}
	h.mu.Lock()
	pacer := h.pacer
	h.mu.Unlock()

	clients := h.snapshot()
	if len(clients) == 0 {
		return
	}

	summary := Summarize(st, true)
	if pacer != nil {
		frame := pacer.At(st.ComputedAt)
		fb := pacer.Feedback(st.Respiration.RateCPM, st.Respiration.Valid)
		summary.Guide = &frame
		summary.Feedback = &fb
	}

	data, err := json.Marshal(summary)
	if err != nil {
		h.logger.Warn("state encode failed", logging.Fields{"error": err.Error()})
		return
	}

	for _, c := range clients {
		_ = c.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			_ = c.Close()
			h.remove(c)
		}
	}
}
