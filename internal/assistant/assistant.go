// Package assistant keeps the question-and-answer transcript for one
// project. The remote endpoint is stateless; every exchange the user sees
// again later lives here, in memory, append-only for the life of the
// session.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"inkwell/internal/config"
	"inkwell/internal/domain"
)

// Store is the slice of the remote client the assistant session needs.
type Store interface {
	Ask(ctx context.Context, projectID int64, question string, rebuildKB bool) (*domain.Answer, error)
	RebuildKnowledgeBase(ctx context.Context, projectID int64) error
}

// Exchange is one asked question together with its grounded answer.
type Exchange struct {
	ID       uuid.UUID
	Question string
	Answer   string
	Sources  []domain.Source
	AskedAt  time.Time
}

// Session is the per-project assistant transcript. One question is in
// flight at a time; the transcript only ever grows.
type Session struct {
	store     Store
	logger    *slog.Logger
	projectID int64
	now       func() time.Time

	mu        sync.Mutex
	asking    bool
	exchanges []Exchange
}

func NewSession(store Store, projectID int64, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		store:     store,
		logger:    logger,
		projectID: projectID,
		now:       time.Now,
	}
}

// Ask sends one question and appends the exchange to the transcript.
// rebuildKB forces a knowledge-base rebuild before answering; it is passed
// through verbatim and never inferred. A failed ask appends nothing.
func (s *Session) Ask(ctx context.Context, question string, rebuildKB bool) (*Exchange, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, &domain.ValidationError{Message: "question must not be empty"}
	}
	if len(question) > config.MaxQuestionLength {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("question exceeds %d characters", config.MaxQuestionLength),
		}
	}

	s.mu.Lock()
	if s.asking {
		s.mu.Unlock()
		return nil, &domain.ValidationError{Message: "a question is already in flight"}
	}
	s.asking = true
	s.mu.Unlock()

	answer, err := s.store.Ask(ctx, s.projectID, question, rebuildKB)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.asking = false

	if err != nil {
		s.logger.Warn("ask failed", "project_id", s.projectID, "error", err)
		return nil, err
	}

	exchange := Exchange{
		ID:       uuid.New(),
		Question: question,
		Answer:   answer.Answer,
		Sources:  answer.Sources,
		AskedAt:  s.now(),
	}
	s.exchanges = append(s.exchanges, exchange)

	s.logger.Info("question answered",
		"project_id", s.projectID,
		"sources", len(answer.Sources),
		"rebuild_kb", rebuildKB,
	)
	return &exchange, nil
}

// RebuildKnowledgeBase reprocesses the project for retrieval. Slow; only
// invoked on explicit user request.
func (s *Session) RebuildKnowledgeBase(ctx context.Context) error {
	if err := s.store.RebuildKnowledgeBase(ctx, s.projectID); err != nil {
		return err
	}
	s.logger.Info("knowledge base rebuilt", "project_id", s.projectID)
	return nil
}

// Transcript returns the exchanges in ask order.
func (s *Session) Transcript() []Exchange {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Exchange, len(s.exchanges))
	copy(out, s.exchanges)
	return out
}
