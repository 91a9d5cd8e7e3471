package ws

import (
	"encoding/json"
	"sync"

	"roastnote/internal/model"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Client message types
const (
	MsgSummarize MessageType = "summarize"
	MsgCancel    MessageType = "cancel"
)

// Server message types
const (
	MsgStatus  MessageType = "status"
	MsgSummary MessageType = "summary"
	MsgError   MessageType = "error"
)

// StatusLoading is sent as soon as a summarize request is accepted
const StatusLoading = "loading"

// ClientMessage is the envelope sent by the quiz frontend. Summarize frames
// also carry answers, questions and nickname at the top level.
type ClientMessage struct {
	Type  MessageType `json:"type"`
	Retry int         `json:"retry"`
}

// Message is the server frame format
type Message struct {
	Type      MessageType          `json:"type"`
	Status    string               `json:"status,omitempty"`
	Result    *model.SummaryResult `json:"result,omitempty"`
	Kind      string               `json:"kind,omitempty"`
	Error     string               `json:"error,omitempty"`
	Details   string               `json:"details,omitempty"`
	Raw       string               `json:"raw,omitempty"`
	TimeoutMS int                  `json:"timeoutMs,omitempty"`
}

func (m *Message) encode() []byte {
	b, _ := json.Marshal(m)
	return b
}

// Hub tracks open connections so shutdown can close them
type Hub struct {
	conns map[*Connection]struct{}
	mu    sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{conns: make(map[*Connection]struct{})}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = struct{}{}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
}

// Count returns the number of open connections
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// CloseAll cancels every in-flight summary and closes every connection
func (h *Hub) CloseAll() {
	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		c.Close()
	}
}
