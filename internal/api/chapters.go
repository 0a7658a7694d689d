package api

import (
	"context"
	"fmt"
	"net/http"

	"inkwell/internal/domain"
)

// ListChapters returns the project's chapters ordered by chapter number.
func (c *Client) ListChapters(ctx context.Context, projectID int64) ([]domain.Chapter, error) {
	var chapters []domain.Chapter
	if err := c.get(ctx, fmt.Sprintf("/chapters/%d", projectID), nil, &chapters); err != nil {
		return nil, err
	}
	return chapters, nil
}

// CreateChapter creates a chapter in the project. The server assigns the
// authoritative word count.
func (c *Client) CreateChapter(ctx context.Context, projectID int64, req CreateChapterRequest) (*domain.Chapter, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	var chapter domain.Chapter
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/chapters/%d", projectID), nil, req, &chapter); err != nil {
		return nil, err
	}
	return &chapter, nil
}

// GetChapter fetches one chapter with full content.
func (c *Client) GetChapter(ctx context.Context, chapterID int64) (*domain.Chapter, error) {
	var chapter domain.Chapter
	if err := c.get(ctx, fmt.Sprintf("/chapters/single/%d", chapterID), nil, &chapter); err != nil {
		return nil, err
	}
	return &chapter, nil
}

// UpdateChapter persists changed fields and returns the server's copy with
// recomputed word_count and updated_at.
func (c *Client) UpdateChapter(ctx context.Context, chapterID int64, req UpdateChapterRequest) (*domain.Chapter, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	var chapter domain.Chapter
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/chapters/%d", chapterID), nil, req, &chapter); err != nil {
		return nil, err
	}
	return &chapter, nil
}

// DeleteChapter deletes a chapter and its versions.
func (c *Client) DeleteChapter(ctx context.Context, chapterID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/chapters/%d", chapterID), nil, nil, nil)
}
