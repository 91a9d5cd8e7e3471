package ws

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"roastnote/internal/logger"
	"roastnote/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
)

// Handler handles WebSocket connections
type Handler struct {
	hub        *Hub
	summarizer service.Summarizer
	log        logger.Logger
	upgrader   websocket.Upgrader
}

// NewHandler creates a new WebSocket handler. checkOrigin is applied to the
// Origin header of browser clients.
func NewHandler(hub *Hub, summarizer service.Summarizer, checkOrigin func(origin string) bool, log logger.Logger) *Handler {
	return &Handler{
		hub:        hub,
		summarizer: summarizer,
		log:        log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || checkOrigin == nil || checkOrigin(origin)
			},
		},
	}
}

// SummarizeWS handles GET /api/summarize/ws
func (h *Handler) SummarizeWS(w http.ResponseWriter, r *http.Request) {
	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(r.Context(), "websocket upgrade error: %v", err)
		return
	}

	// the connection outlives the request context
	ctx, cancel := context.WithCancel(logger.WithRequestID(context.Background(), logger.RequestID(r.Context())))
	conn := &Connection{
		ws:      wsConn,
		session: service.NewSession(h.summarizer),
		send:    make(chan []byte, 16),
		ctx:     ctx,
		cancel:  cancel,
		hub:     h.hub,
		log:     h.log,
	}
	h.hub.Register(conn)
	h.log.Info(ctx, "summary websocket connected from %s", r.RemoteAddr)

	go conn.writePump()
	go conn.readPump()
}

// Connection is one WebSocket client with its own summary session
type Connection struct {
	ws      *websocket.Conn
	session *service.Session
	send    chan []byte
	ctx     context.Context
	cancel  context.CancelFunc
	hub     *Hub
	log     logger.Logger

	// publishMu orders loading frames against results so a result never
	// follows a newer request's loading frame
	publishMu sync.Mutex
	closeOnce sync.Once
}

// Close cancels the session and ends both pumps
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		c.session.Cancel()
		c.cancel()
		c.hub.Unregister(c)
	})
}

func (c *Connection) readPump() {
	defer func() {
		c.Close()
		c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn(c.ctx, "websocket read error: %v", err)
			}
			return
		}
		c.handleMessage(data)
	}
}

func (c *Connection) handleMessage(data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.enqueue(&Message{Type: MsgError, Kind: service.ErrInvalidPayload.Error(), Error: "Invalid message."})
		return
	}

	switch msg.Type {
	case MsgSummarize:
		in, err := service.DecodeSummaryInput(bytes.NewReader(data))
		if err != nil {
			c.enqueue(errorMessage(err))
			return
		}
		// Begin runs here, in frame order; only the call itself is async
		c.publishMu.Lock()
		ticket, err := c.session.Begin(c.ctx, in, msg.Retry)
		if err != nil {
			c.enqueue(errorMessage(err))
			c.publishMu.Unlock()
			return
		}
		c.enqueue(&Message{Type: MsgStatus, Status: StatusLoading})
		c.publishMu.Unlock()
		go c.summarize(ticket)
	case MsgCancel:
		c.session.Cancel()
	default:
		c.enqueue(&Message{Type: MsgError, Kind: service.ErrInvalidPayload.Error(), Error: "Unknown message type."})
	}
}

func (c *Connection) summarize(ticket *service.Ticket) {
	result, err := c.session.Run(ticket)
	if errors.Is(err, service.ErrCancelled) {
		return
	}

	c.publishMu.Lock()
	defer c.publishMu.Unlock()
	if !c.session.Current(ticket) {
		return
	}
	if err != nil {
		c.log.Warn(c.ctx, "summarize failed: kind=%s err=%v", service.KindOf(err), err)
		c.enqueue(errorMessage(err))
		return
	}
	c.enqueue(&Message{Type: MsgSummary, Result: result})
}

func errorMessage(err error) *Message {
	se := service.AsSummaryError(err)
	msg := &Message{
		Type:    MsgError,
		Kind:    service.KindOf(se),
		Error:   se.Message,
		Details: se.Details,
	}
	if errors.Is(se, service.ErrTimeout) {
		msg.TimeoutMS = se.TimeoutMS
	}
	if errors.Is(se, service.ErrMalformedResponse) {
		msg.Raw = se.RawContent
	}
	return msg
}

func (c *Connection) enqueue(msg *Message) {
	select {
	case c.send <- msg.encode():
	case <-c.ctx.Done():
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			w, err := c.ws.NextWriter(websocket.TextMessage)
			if err != nil {
				c.Close()
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				c.Close()
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}

		case <-c.ctx.Done():
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
