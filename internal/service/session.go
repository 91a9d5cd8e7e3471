package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"roastnote/internal/model"
)

// Session serializes summary requests for one caller. A newer request
// supersedes the one in flight, and repeating the last completed input
// replays its outcome without another provider call. A replay supersedes
// the in-flight request too.
type Session struct {
	summarizer Summarizer

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc

	hasLast    bool
	lastKey    string
	lastResult *model.SummaryResult
	lastErr    error
}

// NewSession creates a session over summarizer
func NewSession(summarizer Summarizer) *Session {
	return &Session{summarizer: summarizer}
}

// RequestKey identifies a summary request by its inputs and retry counter
func RequestKey(in model.SummaryInput, retry int) (string, error) {
	ids := make([]string, 0, len(in.Answers))
	for id := range in.Answers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	answers := make([][2]string, 0, len(ids))
	for _, id := range ids {
		answers = append(answers, [2]string{id, in.Answers[id]})
	}
	questions := make([][2]string, 0, len(in.Questions))
	for _, q := range in.Questions {
		questions = append(questions, [2]string{q.ID, q.Prompt})
	}

	b, err := json.Marshal(struct {
		Answers   [][2]string `json:"answers"`
		Nickname  string      `json:"nickname"`
		Questions [][2]string `json:"questions"`
		Retry     int         `json:"retry"`
	}{answers, in.Nickname, questions, retry})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// Ticket is one request accepted by Begin and not yet run
type Ticket struct {
	gen    uint64
	key    string
	in     model.SummaryInput
	ctx    context.Context
	cancel context.CancelFunc

	replay bool
	result *model.SummaryResult
	err    error
}

// Begin reserves the next generation for in and cancels whatever was in
// flight. It does not block, so callers that receive requests in order can
// call it in that order and run the tickets concurrently.
func (s *Session) Begin(ctx context.Context, in model.SummaryInput, retry int) (*Ticket, error) {
	key, err := RequestKey(in, retry)
	if err != nil {
		return nil, &SummaryError{Kind: ErrInvalidPayload, Message: "Invalid payload.", Cause: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	t := &Ticket{gen: s.generation, key: key, in: in}
	if s.hasLast && s.lastKey == key {
		t.replay = true
		t.result, t.err = s.lastResult, s.lastErr
		return t, nil
	}
	t.ctx, t.cancel = context.WithCancel(ctx)
	s.cancel = t.cancel
	return t, nil
}

// Run performs the ticket's call, or replays the stored outcome. A ticket
// superseded by a later Begin or by Cancel returns ErrCancelled.
func (s *Session) Run(t *Ticket) (*model.SummaryResult, error) {
	if t.replay {
		if !s.Current(t) {
			return nil, newError(ErrCancelled, "Summary request superseded.")
		}
		return t.result, t.err
	}

	result, err := s.summarizer.Summarize(t.ctx, t.in)
	t.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if t.gen != s.generation {
		return nil, newError(ErrCancelled, "Summary request superseded.")
	}
	s.cancel = nil
	if errors.Is(err, ErrCancelled) {
		return nil, err
	}
	s.hasLast = true
	s.lastKey = t.key
	s.lastResult = result
	s.lastErr = err
	return result, err
}

// Current reports whether t is still the latest request
func (s *Session) Current(t *Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return t.gen == s.generation
}

// Summarize is Begin followed by Run
func (s *Session) Summarize(ctx context.Context, in model.SummaryInput, retry int) (*model.SummaryResult, error) {
	t, err := s.Begin(ctx, in, retry)
	if err != nil {
		return nil, err
	}
	return s.Run(t)
}

// Cancel aborts the in-flight request, if any
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Generation returns the number of requests started or cancelled so far
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}
