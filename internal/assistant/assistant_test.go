package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"inkwell/internal/domain"
)

type fakeAssistantStore struct {
	mu       sync.Mutex
	askCalls int
	rebuilds int
	lastQ    string
	lastKB   bool
	err      error

	blockAsk  chan struct{}
	askBegan  chan struct{}
	answer    string
	sources   []domain.Source
}

func (f *fakeAssistantStore) Ask(ctx context.Context, projectID int64, question string, rebuildKB bool) (*domain.Answer, error) {
	f.mu.Lock()
	f.askCalls++
	f.lastQ = question
	f.lastKB = rebuildKB
	began := f.askBegan
	release := f.blockAsk
	err := f.err
	f.mu.Unlock()

	if release != nil {
		if began != nil {
			began <- struct{}{}
		}
		<-release
	}
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return &domain.Answer{Answer: f.answer, Sources: f.sources}, nil
}

func (f *fakeAssistantStore) RebuildKnowledgeBase(ctx context.Context, projectID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rebuilds++
	return f.err
}

func TestAskAppendsExchange(t *testing.T) {
	store := &fakeAssistantStore{
		answer: "Alice is the narrator's sister.",
		sources: []domain.Source{
			{Type: "chapter", ContentPreview: "Alice opened the door"},
		},
	}
	s := NewSession(store, 7, nil)

	exchange, err := s.Ask(context.Background(), "Who is Alice?", false)
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if exchange.Question != "Who is Alice?" {
		t.Errorf("question = %q", exchange.Question)
	}
	if exchange.Answer != "Alice is the narrator's sister." {
		t.Errorf("answer = %q", exchange.Answer)
	}
	if len(exchange.Sources) != 1 || exchange.Sources[0].Type != "chapter" {
		t.Errorf("sources = %v", exchange.Sources)
	}
	if store.lastKB {
		t.Error("rebuild_kb must stay false unless explicitly requested")
	}

	transcript := s.Transcript()
	if len(transcript) != 1 || transcript[0].ID != exchange.ID {
		t.Errorf("transcript = %v", transcript)
	}
}

func TestAskValidatesQuestion(t *testing.T) {
	store := &fakeAssistantStore{answer: "x"}
	s := NewSession(store, 7, nil)

	if _, err := s.Ask(context.Background(), "   ", false); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("blank question error = %v, want ErrValidation", err)
	}
	if _, err := s.Ask(context.Background(), strings.Repeat("q", 4001), false); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("oversized question error = %v, want ErrValidation", err)
	}
	if store.askCalls != 0 {
		t.Error("invalid questions must not reach the server")
	}
}

func TestFailedAskAppendsNothing(t *testing.T) {
	store := &fakeAssistantStore{err: &domain.ServerError{Message: "kb unavailable", Status: 503}}
	s := NewSession(store, 7, nil)

	if _, err := s.Ask(context.Background(), "Who is Alice?", false); err == nil {
		t.Fatal("Ask() should surface the server error")
	}
	if len(s.Transcript()) != 0 {
		t.Error("failed exchanges must not enter the transcript")
	}

	// The session is usable again after the failure.
	store.mu.Lock()
	store.err = nil
	store.answer = "recovered"
	store.mu.Unlock()
	if _, err := s.Ask(context.Background(), "Still there?", false); err != nil {
		t.Errorf("Ask() after failure error = %v", err)
	}
}

func TestSecondAskRejectedWhileInFlight(t *testing.T) {
	store := &fakeAssistantStore{
		answer:   "yes",
		blockAsk: make(chan struct{}),
		askBegan: make(chan struct{}, 1),
	}
	s := NewSession(store, 7, nil)

	done := make(chan error, 1)
	go func() {
		_, err := s.Ask(context.Background(), "first", false)
		done <- err
	}()
	<-store.askBegan

	if _, err := s.Ask(context.Background(), "second", false); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("concurrent Ask() error = %v, want ErrValidation", err)
	}

	close(store.blockAsk)
	if err := <-done; err != nil {
		t.Fatalf("first Ask() error = %v", err)
	}
	if len(s.Transcript()) != 1 {
		t.Errorf("transcript length = %d, want 1", len(s.Transcript()))
	}
}

func TestExplicitRebuildPassesThrough(t *testing.T) {
	store := &fakeAssistantStore{answer: "rebuilt"}
	s := NewSession(store, 7, nil)

	if _, err := s.Ask(context.Background(), "After rebuild?", true); err != nil {
		t.Fatal(err)
	}
	if !store.lastKB {
		t.Error("explicit rebuild_kb should be forwarded")
	}

	if err := s.RebuildKnowledgeBase(context.Background()); err != nil {
		t.Fatal(err)
	}
	if store.rebuilds != 1 {
		t.Errorf("rebuilds = %d, want 1", store.rebuilds)
	}
}
