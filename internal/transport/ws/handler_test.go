package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"roastnote/internal/logger"
	"roastnote/internal/model"
	"roastnote/internal/service"
)

// blockingSummarizer waits for cancellation when the nickname is "slow"
type blockingSummarizer struct {
	calls int32
}

func (b *blockingSummarizer) Summarize(ctx context.Context, in model.SummaryInput) (*model.SummaryResult, error) {
	atomic.AddInt32(&b.calls, 1)
	if in.Nickname == "slow" {
		<-ctx.Done()
		return nil, &service.SummaryError{Kind: service.ErrCancelled, Message: "cancelled"}
	}
	if in.Nickname == "broken" {
		return nil, &service.SummaryError{Kind: service.ErrTimeout, Message: "OpenAI request timed out", TimeoutMS: 90000}
	}
	return &model.SummaryResult{RoastNote: "hi " + in.Nickname, SpiritEmoji: "🌙", CallbacksUsed: []string{}}, nil
}

func newTestServer(t *testing.T, s service.Summarizer, allow func(string) bool) (*httptest.Server, *Hub) {
	t.Helper()
	hub := NewHub()
	h := NewHandler(hub, s, allow, logger.Nop())
	srv := httptest.NewServer(http.HandlerFunc(h.SummarizeWS))
	t.Cleanup(func() {
		hub.CloseAll()
		srv.Close()
	})
	return srv, hub
}

func dial(t *testing.T, srv *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func summarizeFrame(nickname string, retry int) map[string]interface{} {
	return map[string]interface{}{
		"type":      "summarize",
		"answers":   map[string]string{"q1": "I am ready"},
		"questions": []map[string]string{{"id": "q1", "prompt": "Ready?"}},
		"nickname":  nickname,
		"retry":     retry,
	}
}

func readFrame(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return msg
}

func TestSummarizeRoundTrip(t *testing.T) {
	srv, hub := newTestServer(t, &blockingSummarizer{}, nil)
	conn := dial(t, srv, nil)

	if err := conn.WriteJSON(summarizeFrame("Bee", 0)); err != nil {
		t.Fatal(err)
	}
	if msg := readFrame(t, conn); msg.Type != MsgStatus || msg.Status != StatusLoading {
		t.Fatalf("expected loading status, got %+v", msg)
	}
	msg := readFrame(t, conn)
	if msg.Type != MsgSummary || msg.Result == nil || msg.Result.RoastNote != "hi Bee" {
		t.Fatalf("expected summary, got %+v", msg)
	}
	if hub.Count() != 1 {
		t.Errorf("expected 1 registered connection, got %d", hub.Count())
	}
}

func TestSummarizeErrorFrame(t *testing.T) {
	srv, _ := newTestServer(t, &blockingSummarizer{}, nil)
	conn := dial(t, srv, nil)

	conn.WriteJSON(summarizeFrame("broken", 0))
	readFrame(t, conn)
	msg := readFrame(t, conn)
	if msg.Type != MsgError || msg.Kind != "timeout" || msg.TimeoutMS != 90000 {
		t.Fatalf("expected timeout error frame, got %+v", msg)
	}
}

func TestInvalidFrames(t *testing.T) {
	srv, _ := newTestServer(t, &blockingSummarizer{}, nil)
	conn := dial(t, srv, nil)

	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"summarize","answers":[1],"questions":[]}`))
	if msg := readFrame(t, conn); msg.Type != MsgError || msg.Kind != "invalid_payload" {
		t.Fatalf("expected invalid payload, got %+v", msg)
	}

	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"dance"}`))
	if msg := readFrame(t, conn); msg.Type != MsgError || msg.Kind != "invalid_payload" {
		t.Fatalf("expected unknown type error, got %+v", msg)
	}
}

func TestSupersededRequestIsSilent(t *testing.T) {
	fake := &blockingSummarizer{}
	srv, _ := newTestServer(t, fake, nil)
	conn := dial(t, srv, nil)

	conn.WriteJSON(summarizeFrame("slow", 0))
	if msg := readFrame(t, conn); msg.Status != StatusLoading {
		t.Fatalf("expected loading, got %+v", msg)
	}
	conn.WriteJSON(summarizeFrame("Bee", 0))
	if msg := readFrame(t, conn); msg.Status != StatusLoading {
		t.Fatalf("expected loading, got %+v", msg)
	}
	msg := readFrame(t, conn)
	if msg.Type != MsgSummary || msg.Result.RoastNote != "hi Bee" {
		t.Fatalf("expected only the newer summary, got %+v", msg)
	}
}

func TestBackToBackFramesLastWins(t *testing.T) {
	srv, _ := newTestServer(t, &blockingSummarizer{}, nil)
	conn := dial(t, srv, nil)

	for i := 0; i < 50; i++ {
		// no reads in between: the older frame only finishes if cancelled
		if err := conn.WriteJSON(summarizeFrame("slow", 2*i)); err != nil {
			t.Fatal(err)
		}
		if err := conn.WriteJSON(summarizeFrame("Bee", 2*i+1)); err != nil {
			t.Fatal(err)
		}

		for j := 0; j < 2; j++ {
			if msg := readFrame(t, conn); msg.Type != MsgStatus || msg.Status != StatusLoading {
				t.Fatalf("iteration %d: expected loading, got %+v", i, msg)
			}
		}
		msg := readFrame(t, conn)
		if msg.Type != MsgSummary || msg.Result == nil || msg.Result.RoastNote != "hi Bee" {
			t.Fatalf("iteration %d: expected the newer summary, got %+v", i, msg)
		}
	}
}

func TestCancelFrame(t *testing.T) {
	fake := &blockingSummarizer{}
	srv, _ := newTestServer(t, fake, nil)
	conn := dial(t, srv, nil)

	conn.WriteJSON(summarizeFrame("slow", 0))
	readFrame(t, conn)
	conn.WriteJSON(map[string]string{"type": "cancel"})

	// the cancelled request sends nothing; the next frame belongs to the retry
	conn.WriteJSON(summarizeFrame("Bee", 1))
	if msg := readFrame(t, conn); msg.Status != StatusLoading {
		t.Fatalf("expected loading, got %+v", msg)
	}
	if msg := readFrame(t, conn); msg.Type != MsgSummary {
		t.Fatalf("expected summary, got %+v", msg)
	}
}

func TestOriginCheck(t *testing.T) {
	allow := func(origin string) bool { return origin == "http://quiz.test" }
	srv, _ := newTestServer(t, &blockingSummarizer{}, allow)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://evil.test"}})
	if err == nil {
		t.Fatal("expected handshake to fail for a foreign origin")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %+v", resp)
	}

	dial(t, srv, http.Header{"Origin": {"http://quiz.test"}})
}

func TestCloseAllUnregisters(t *testing.T) {
	srv, hub := newTestServer(t, &blockingSummarizer{}, nil)
	conn := dial(t, srv, nil)

	conn.WriteJSON(summarizeFrame("slow", 0))
	readFrame(t, conn)

	hub.CloseAll()
	if hub.Count() != 0 {
		t.Fatalf("expected no connections, got %d", hub.Count())
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("expected normal close, got %v", err)
	}
}
