// Package notify implements the optional WebSocket status-notification side
// channel: a client may open a connection scoped to a request id and
// receive a message each time that request's lifecycle status changes.
package notify

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zk-passport/tee-prover-server/internal/logger"
	"github.com/zk-passport/tee-prover-server/model"
)

// StatusUpdate is the JSON payload pushed to a subscriber on each
// lifecycle transition.
type StatusUpdate struct {
	RequestID string `json:"requestId"`
	Status    string `json:"status"`
}

// Hub tracks one subscriber connection per request id and fans status
// updates out to whichever connection is currently registered for that id.
// A request with no subscriber simply drops its updates.
type Hub struct {
	mu          sync.RWMutex
	connections map[string]*websocket.Conn
	upgrader    websocket.Upgrader
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{
		connections: make(map[string]*websocket.Conn),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Handler upgrades the connection and registers it under the "id" query
// parameter, replacing any prior subscriber for that id. The connection is
// held open (reading and discarding client frames) until it errs or closes.
func (h *Hub) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "missing id query parameter", http.StatusBadRequest)
			return
		}

		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", logger.Error(err))
			return
		}

		h.register(id, conn)
		defer h.unregister(id, conn)
		defer func() { _ = conn.Close() }()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}

func (h *Hub) register(id string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.connections[id]; ok {
		_ = old.Close()
	}
	h.connections[id] = conn
}

func (h *Hub) unregister(id string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if current, ok := h.connections[id]; ok && current == conn {
		delete(h.connections, id)
	}
}

// Publish sends a status update to the subscriber registered for id, if
// any. Best-effort: write failures just drop the connection.
func (h *Hub) Publish(id string, status model.Status) {
	h.mu.RLock()
	conn, ok := h.connections[id]
	h.mu.RUnlock()
	if !ok {
		return
	}

	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	payload := StatusUpdate{RequestID: id, Status: status.String()}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.unregister(id, conn)
	}
}
