// Package entity drives the entity browsing and curation workflow for one
// project: listing by type, inspecting mentions, editing names and aliases,
// and resolving duplicates by merge. Entities are detected server-side; the
// client only curates what the service found.
package entity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"inkwell/internal/api"
	"inkwell/internal/cache"
	"inkwell/internal/confirm"
	"inkwell/internal/domain"
)

// Store is the slice of the remote client the view needs.
type Store interface {
	ListEntities(ctx context.Context, projectID int64, entityType domain.EntityType) ([]domain.Entity, error)
	EntityMentions(ctx context.Context, entityID int64) ([]domain.Mention, error)
	UpdateEntity(ctx context.Context, entityID int64, req api.UpdateEntityRequest) (*domain.Entity, error)
	DeleteEntity(ctx context.Context, entityID int64) error
	FindDuplicates(ctx context.Context, projectID int64) ([]domain.DuplicateGroup, error)
	MergeEntities(ctx context.Context, keepID int64, mergeIDs []int64) error
}

// View holds the entity browsing state for one project: the current
// selection and its mentions. Listings and mention sets are read through
// the shared cache; entity mutations invalidate the project's entity state
// wholesale because mention counts, aliases, and duplicate groups all shift
// together.
type View struct {
	store    Store
	cache    *cache.Store
	confirms *confirm.Gate
	logger   *slog.Logger

	projectID int64

	mu       sync.Mutex
	selected *domain.Entity
	mentions []domain.Mention
	selGen   uint64 // bumped on every selection change
}

func NewView(store Store, cacheStore *cache.Store, confirms *confirm.Gate, projectID int64, logger *slog.Logger) *View {
	if logger == nil {
		logger = slog.Default()
	}
	return &View{
		store:     store,
		cache:     cacheStore,
		confirms:  confirms,
		projectID: projectID,
		logger:    logger,
	}
}

// List returns the project's entities, optionally filtered by type. Each
// (project, filter) pair is cached independently; an unfiltered listing does
// not satisfy a filtered one.
func (v *View) List(ctx context.Context, filter domain.EntityType) ([]domain.Entity, error) {
	if filter != "" && !filter.Valid() {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("unknown entity type %q", filter)}
	}

	key := cache.EntitiesKey(v.projectID, string(filter))
	if cached, ok := cache.Lookup[[]domain.Entity](v.cache, key); ok {
		return cached, nil
	}

	gen := v.cache.Generation(key)
	entities, err := v.store.ListEntities(ctx, v.projectID, filter)
	if err != nil {
		return nil, err
	}
	v.cache.PutIfCurrent(key, gen, entities)
	return entities, nil
}

// Select makes e the inspected entity and fetches its mentions. A newer
// selection made during the fetch wins; the stale mention set is not
// applied.
func (v *View) Select(ctx context.Context, e domain.Entity) ([]domain.Mention, error) {
	v.mu.Lock()
	v.selected = &e
	v.mentions = nil
	v.selGen++
	gen := v.selGen
	v.mu.Unlock()

	mentions, err := v.fetchMentions(ctx, e.ID)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.selGen != gen {
		return nil, &domain.ValidationError{Message: "selection changed during mention fetch"}
	}
	if err != nil {
		return nil, err
	}

	v.mentions = mentions
	v.logger.Debug("entity selected",
		"entity_id", e.ID,
		"name", e.Name,
		"mentions", len(mentions),
	)
	return mentions, nil
}

func (v *View) fetchMentions(ctx context.Context, entityID int64) ([]domain.Mention, error) {
	key := cache.MentionsKey(entityID)
	if cached, ok := cache.Lookup[[]domain.Mention](v.cache, key); ok {
		return cached, nil
	}

	gen := v.cache.Generation(key)
	mentions, err := v.store.EntityMentions(ctx, entityID)
	if err != nil {
		return nil, err
	}
	v.cache.PutIfCurrent(key, gen, mentions)
	return mentions, nil
}

// Selected returns a copy of the inspected entity.
func (v *View) Selected() (domain.Entity, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.selected == nil {
		return domain.Entity{}, false
	}
	return *v.selected, true
}

// Mentions returns the inspected entity's mention set as last fetched.
func (v *View) Mentions() []domain.Mention {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]domain.Mention, len(v.mentions))
	copy(out, v.mentions)
	return out
}

// Form is an entity edit as the user types it. Aliases is delimited free
// text; NormalizeAliases turns it into the list the service stores.
type Form struct {
	Name        string
	EntityType  string
	Description string
	Aliases     string
}

// NormalizeAliases splits comma-delimited alias text into a clean list:
// entries are trimmed, empties dropped, duplicates dropped, order kept.
func NormalizeAliases(text string) []string {
	var aliases []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(text, ",") {
		alias := strings.TrimSpace(part)
		if alias == "" {
			continue
		}
		if _, dup := seen[alias]; dup {
			continue
		}
		seen[alias] = struct{}{}
		aliases = append(aliases, alias)
	}
	return aliases
}

// Update pushes an edited form to the server and invalidates the project's
// entity state. If the edited entity is the current selection the fresh
// server copy replaces it.
func (v *View) Update(ctx context.Context, entityID int64, form Form) (*domain.Entity, error) {
	req := api.UpdateEntityRequest{
		Aliases: NormalizeAliases(form.Aliases),
	}
	if form.Name != "" {
		req.Name = &form.Name
	}
	if form.EntityType != "" {
		req.EntityType = &form.EntityType
	}
	if form.Description != "" {
		req.Description = &form.Description
	}

	updated, err := v.store.UpdateEntity(ctx, entityID, req)
	if err != nil {
		return nil, err
	}

	v.cache.Invalidate(cache.Event{
		Mutation:  cache.EntityUpdated,
		ProjectID: v.projectID,
		EntityIDs: []int64{entityID},
	})

	v.mu.Lock()
	if v.selected != nil && v.selected.ID == entityID {
		copied := *updated
		v.selected = &copied
	}
	v.mu.Unlock()

	v.logger.Info("entity updated", "entity_id", entityID, "name", updated.Name)
	return updated, nil
}

// RequestDelete issues the confirmation for deleting an entity and all its
// mentions.
func (v *View) RequestDelete(e domain.Entity) confirm.Pending {
	return v.confirms.Request(confirm.DeleteEntity,
		fmt.Sprintf("Delete %q and its %d mentions? This cannot be undone.", e.Name, e.MentionCount))
}

// Delete removes the entity server-side and drops it from the view. Requires
// a consumed confirmation.
func (v *View) Delete(ctx context.Context, entityID int64, token confirm.Token) error {
	if err := v.confirms.Consume(token, confirm.DeleteEntity); err != nil {
		return err
	}

	if err := v.store.DeleteEntity(ctx, entityID); err != nil {
		return err
	}

	v.cache.Invalidate(cache.Event{
		Mutation:  cache.EntityDeleted,
		ProjectID: v.projectID,
		EntityIDs: []int64{entityID},
	})

	v.mu.Lock()
	if v.selected != nil && v.selected.ID == entityID {
		v.selected = nil
		v.mentions = nil
		v.selGen++
	}
	v.mu.Unlock()

	v.logger.Info("entity deleted", "entity_id", entityID)
	return nil
}

// Duplicates asks the server for likely-duplicate groups. The result is
// cached until an entity mutation invalidates it; the server recomputes the
// grouping on every uncached call.
func (v *View) Duplicates(ctx context.Context) ([]domain.DuplicateGroup, error) {
	key := cache.DuplicatesKey(v.projectID)
	if cached, ok := cache.Lookup[[]domain.DuplicateGroup](v.cache, key); ok {
		return cached, nil
	}

	gen := v.cache.Generation(key)
	groups, err := v.store.FindDuplicates(ctx, v.projectID)
	if err != nil {
		return nil, err
	}
	v.cache.PutIfCurrent(key, gen, groups)
	return groups, nil
}

// RequestMerge issues the confirmation for folding mergeIDs into keep.
func (v *View) RequestMerge(keep domain.Entity, mergeIDs []int64) confirm.Pending {
	return v.confirms.Request(confirm.MergeEntities,
		fmt.Sprintf("Merge %d entities into %q? This cannot be undone.", len(mergeIDs), keep.Name))
}

// Merge folds mergeIDs' mentions and aliases into keepID. Irreversible, so
// it requires a consumed confirmation. Every entity listing, mention set,
// and duplicate grouping for the project is invalidated: the merge rewrites
// mention counts and aliases beyond the entities named.
func (v *View) Merge(ctx context.Context, keepID int64, mergeIDs []int64, token confirm.Token) error {
	if err := v.confirms.Consume(token, confirm.MergeEntities); err != nil {
		return err
	}

	if err := v.store.MergeEntities(ctx, keepID, mergeIDs); err != nil {
		return err
	}

	v.cache.Invalidate(cache.Event{
		Mutation:  cache.EntitiesMerged,
		ProjectID: v.projectID,
		EntityIDs: append([]int64{keepID}, mergeIDs...),
	})

	v.mu.Lock()
	if v.selected != nil {
		for _, id := range mergeIDs {
			if v.selected.ID == id {
				// The selected entity no longer exists.
				v.selected = nil
				v.mentions = nil
				v.selGen++
				break
			}
		}
	}
	v.mu.Unlock()

	v.logger.Info("entities merged",
		"keep_id", keepID,
		"merged", len(mergeIDs),
	)
	return nil
}
