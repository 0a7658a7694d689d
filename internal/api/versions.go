package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"inkwell/internal/domain"
)

// CreateVersionResponse acknowledges a snapshot with its assigned number.
type CreateVersionResponse struct {
	Message       string `json:"message"`
	VersionNumber int    `json:"version_number"`
}

// ListVersions returns the chapter's versions. List entries omit content;
// fetch it lazily with GetVersion.
func (c *Client) ListVersions(ctx context.Context, chapterID int64) ([]domain.Version, error) {
	var versions []domain.Version
	if err := c.get(ctx, fmt.Sprintf("/chapters/%d/versions", chapterID), nil, &versions); err != nil {
		return nil, err
	}
	return versions, nil
}

// GetVersion fetches the full immutable snapshot of one version.
func (c *Client) GetVersion(ctx context.Context, versionID int64) (*domain.Version, error) {
	var version domain.Version
	if err := c.get(ctx, fmt.Sprintf("/chapters/version/%d", versionID), nil, &version); err != nil {
		return nil, err
	}
	return &version, nil
}

// CreateVersion snapshots the chapter's currently persisted state. Version
// numbers are assigned server-side, monotonic per chapter starting at 1;
// calling twice creates two versions.
func (c *Client) CreateVersion(ctx context.Context, chapterID int64, changeSummary string) (*CreateVersionResponse, error) {
	query := url.Values{}
	if changeSummary != "" {
		query.Set("change_summary", changeSummary)
	}

	var resp CreateVersionResponse
	path := fmt.Sprintf("/chapters/%d/create-version", chapterID)
	if err := c.do(ctx, http.MethodPost, path, query, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RestoreVersion overwrites the live chapter with the target version's
// content. The server backs up the current state as a fresh version first,
// so a restore is always undoable.
func (c *Client) RestoreVersion(ctx context.Context, chapterID, versionID int64) error {
	path := fmt.Sprintf("/chapters/%d/restore-version/%d", chapterID, versionID)
	return c.do(ctx, http.MethodPost, path, nil, nil, nil)
}
