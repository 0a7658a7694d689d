package api

import (
	"context"
	"fmt"
	"net/http"

	"inkwell/internal/domain"
)

// Ask sends one question about the project. The endpoint is stateless; the
// transcript lives client-side. rebuildKB forces a knowledge-base rebuild
// before answering and must only be set on explicit user request.
func (c *Client) Ask(ctx context.Context, projectID int64, question string, rebuildKB bool) (*domain.Answer, error) {
	if question == "" {
		return nil, &domain.ValidationError{Message: "question must not be empty"}
	}

	var answer domain.Answer
	path := fmt.Sprintf("/assistant/%d/ask", projectID)
	body := askRequest{Question: question, RebuildKB: rebuildKB}
	if err := c.do(ctx, http.MethodPost, path, nil, body, &answer); err != nil {
		return nil, err
	}
	return &answer, nil
}

// RebuildKnowledgeBase reprocesses the whole project for retrieval. Slow and
// explicitly user-initiated, never called automatically.
func (c *Client) RebuildKnowledgeBase(ctx context.Context, projectID int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/assistant/%d/rebuild-kb", projectID), nil, nil, nil)
}
