package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"roastnote/internal/model"
)

// fakeSummarizer blocks while block is set, until the context is done
type fakeSummarizer struct {
	calls   int32
	block   atomic.Bool
	started chan struct{}
	err     error
}

func (f *fakeSummarizer) Summarize(ctx context.Context, in model.SummaryInput) (*model.SummaryResult, error) {
	atomic.AddInt32(&f.calls, 1)
	blocking := f.block.Load()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if blocking {
		<-ctx.Done()
		return nil, &SummaryError{Kind: ErrCancelled, Message: "cancelled", Cause: ctx.Err()}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &model.SummaryResult{RoastNote: in.Nickname, SpiritEmoji: "✨", CallbacksUsed: []string{}}, nil
}

func TestRequestKey(t *testing.T) {
	base := sampleInput()
	k1, err := RequestKey(base, 0)
	if err != nil {
		t.Fatalf("RequestKey() error = %v", err)
	}

	same := sampleInput()
	same.Answers = model.AnswerSet{"q3": "my cat", "q2": "   ", "q1": "  I am happy "}
	if k2, _ := RequestKey(same, 0); k2 != k1 {
		t.Error("key must not depend on map order")
	}
	if k3, _ := RequestKey(base, 1); k3 == k1 {
		t.Error("retry must change the key")
	}
	renamed := sampleInput()
	renamed.Nickname = "Wasp"
	if k4, _ := RequestKey(renamed, 0); k4 == k1 {
		t.Error("nickname must change the key")
	}
	reworded := sampleInput()
	reworded.Questions[0].Prompt = "Vibe?"
	if k5, _ := RequestKey(reworded, 0); k5 == k1 {
		t.Error("question prompt must change the key")
	}
}

func TestSessionReplaysLastCompleted(t *testing.T) {
	fake := &fakeSummarizer{}
	s := NewSession(fake)

	first, err := s.Summarize(context.Background(), sampleInput(), 0)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	second, err := s.Summarize(context.Background(), sampleInput(), 0)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if first != second {
		t.Error("expected the stored result to be replayed")
	}
	if n := atomic.LoadInt32(&fake.calls); n != 1 {
		t.Fatalf("expected 1 call, got %d", n)
	}

	if _, err := s.Summarize(context.Background(), sampleInput(), 1); err != nil {
		t.Fatalf("retry error = %v", err)
	}
	if n := atomic.LoadInt32(&fake.calls); n != 2 {
		t.Fatalf("expected retry to call again, got %d calls", n)
	}
}

func TestSessionReplaysFailures(t *testing.T) {
	fake := &fakeSummarizer{err: newError(ErrUpstream, "OpenAI request failed")}
	s := NewSession(fake)

	for i := 0; i < 2; i++ {
		if _, err := s.Summarize(context.Background(), sampleInput(), 0); !errors.Is(err, ErrUpstream) {
			t.Fatalf("attempt %d: expected ErrUpstream, got %v", i, err)
		}
	}
	if n := atomic.LoadInt32(&fake.calls); n != 1 {
		t.Fatalf("expected failure to be replayed, got %d calls", n)
	}
}

func TestSessionSupersedesInFlight(t *testing.T) {
	fake := &fakeSummarizer{started: make(chan struct{}, 2)}
	fake.block.Store(true)
	s := NewSession(fake)

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = s.Summarize(context.Background(), sampleInput(), 0)
	}()
	<-fake.started

	fake.block.Store(false)
	newer := sampleInput()
	newer.Nickname = "Wasp"
	res, err := s.Summarize(context.Background(), newer, 0)
	<-fake.started
	wg.Wait()

	if err != nil || res.RoastNote != "Wasp" {
		t.Fatalf("expected newer result, got %+v, %v", res, err)
	}
	if !errors.Is(firstErr, ErrCancelled) {
		t.Fatalf("expected superseded call to be cancelled, got %v", firstErr)
	}
	if s.Generation() != 2 {
		t.Errorf("expected generation 2, got %d", s.Generation())
	}
}

func TestSessionCancel(t *testing.T) {
	fake := &fakeSummarizer{started: make(chan struct{}, 1)}
	fake.block.Store(true)
	s := NewSession(fake)

	done := make(chan error, 1)
	go func() {
		_, err := s.Summarize(context.Background(), sampleInput(), 0)
		done <- err
	}()
	<-fake.started
	s.Cancel()

	select {
	case err := <-done:
		if !errors.Is(err, ErrCancelled) {
			t.Fatalf("expected ErrCancelled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancel did not abort the in-flight call")
	}

	// a cancelled call is not remembered, so the same input runs again
	fake.block.Store(false)
	if _, err := s.Summarize(context.Background(), sampleInput(), 0); err != nil {
		t.Fatalf("Summarize() after cancel error = %v", err)
	}
	if n := atomic.LoadInt32(&fake.calls); n != 2 {
		t.Fatalf("expected 2 calls, got %d", n)
	}
}

func TestSessionReplaySupersedesInFlight(t *testing.T) {
	fake := &fakeSummarizer{started: make(chan struct{}, 2)}
	s := NewSession(fake)

	first, err := s.Summarize(context.Background(), sampleInput(), 0)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	<-fake.started

	fake.block.Store(true)
	newer := sampleInput()
	newer.Nickname = "Wasp"
	done := make(chan error, 1)
	go func() {
		_, err := s.Summarize(context.Background(), newer, 0)
		done <- err
	}()
	<-fake.started

	// asking for the first input again replays it and drops the in-flight call
	replayed, err := s.Summarize(context.Background(), sampleInput(), 0)
	if err != nil || replayed != first {
		t.Fatalf("expected replay of the first result, got %+v, %v", replayed, err)
	}

	select {
	case err := <-done:
		if !errors.Is(err, ErrCancelled) {
			t.Fatalf("expected in-flight call to be cancelled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("replay did not cancel the in-flight call")
	}

	fake.block.Store(false)
	again, err := s.Summarize(context.Background(), sampleInput(), 0)
	if err != nil || again != first {
		t.Fatalf("stored outcome must still be the first result, got %+v, %v", again, err)
	}
	if n := atomic.LoadInt32(&fake.calls); n != 2 {
		t.Fatalf("expected 2 calls, got %d", n)
	}
}

func TestSessionBeginOrderDecides(t *testing.T) {
	fake := &fakeSummarizer{}
	s := NewSession(fake)

	older, err := s.Begin(context.Background(), sampleInput(), 0)
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	newerIn := sampleInput()
	newerIn.Nickname = "Wasp"
	newer, err := s.Begin(context.Background(), newerIn, 0)
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	// run in reverse order: the later Begin still wins
	res, err := s.Run(newer)
	if err != nil || res.RoastNote != "Wasp" {
		t.Fatalf("expected newer result, got %+v, %v", res, err)
	}
	if s.Current(older) {
		t.Error("older ticket should not be current")
	}
	if _, err := s.Run(older); !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected older ticket to be cancelled, got %v", err)
	}
}
