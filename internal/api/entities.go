package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"inkwell/internal/domain"
)

// ListEntities returns the project's entities, optionally filtered by type.
func (c *Client) ListEntities(ctx context.Context, projectID int64, entityType domain.EntityType) ([]domain.Entity, error) {
	var query url.Values
	if entityType != "" {
		query = url.Values{"entity_type": {string(entityType)}}
	}

	var entities []domain.Entity
	if err := c.get(ctx, fmt.Sprintf("/entities/%d", projectID), query, &entities); err != nil {
		return nil, err
	}
	return entities, nil
}

// EntityMentions returns every mention of the entity, ordered by chapter.
func (c *Client) EntityMentions(ctx context.Context, entityID int64) ([]domain.Mention, error) {
	var mentions []domain.Mention
	if err := c.get(ctx, fmt.Sprintf("/entities/%d/mentions", entityID), nil, &mentions); err != nil {
		return nil, err
	}
	return mentions, nil
}

// UpdateEntity edits an entity's name, type, description, or aliases.
func (c *Client) UpdateEntity(ctx context.Context, entityID int64, req UpdateEntityRequest) (*domain.Entity, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	var entity domain.Entity
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/entities/%d", entityID), nil, req, &entity); err != nil {
		return nil, err
	}
	return &entity, nil
}

// DeleteEntity deletes an entity and its mentions.
func (c *Client) DeleteEntity(ctx context.Context, entityID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/entities/%d", entityID), nil, nil, nil)
}

// FindDuplicates asks the server for likely-duplicate entity groups. Groups
// are recomputed on demand and ephemeral; the first entity of each group is
// the merge target by convention.
func (c *Client) FindDuplicates(ctx context.Context, projectID int64) ([]domain.DuplicateGroup, error) {
	var groups []domain.DuplicateGroup
	if err := c.get(ctx, fmt.Sprintf("/entities/duplicates/%d", projectID), nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// MergeEntities folds mergeIDs' mentions and aliases into keepID. The merge
// is irreversible from the client's perspective.
func (c *Client) MergeEntities(ctx context.Context, keepID int64, mergeIDs []int64) error {
	if len(mergeIDs) == 0 {
		return &domain.ValidationError{Message: "merge requires at least one entity to merge"}
	}

	ids := make([]string, len(mergeIDs))
	for i, id := range mergeIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}
	query := url.Values{
		"keep_id":   {strconv.FormatInt(keepID, 10)},
		"merge_ids": {strings.Join(ids, ",")},
	}

	return c.do(ctx, http.MethodPost, "/entities/merge", query, nil, nil)
}
