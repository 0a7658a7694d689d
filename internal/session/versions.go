package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"inkwell/internal/api"
	"inkwell/internal/cache"
	"inkwell/internal/confirm"
	"inkwell/internal/domain"
)

// VersionStore is the slice of the remote client the coordinator needs.
type VersionStore interface {
	ListVersions(ctx context.Context, chapterID int64) ([]domain.Version, error)
	GetVersion(ctx context.Context, versionID int64) (*domain.Version, error)
	CreateVersion(ctx context.Context, chapterID int64, changeSummary string) (*api.CreateVersionResponse, error)
	RestoreVersion(ctx context.Context, chapterID, versionID int64) error
}

// Coordinator snapshots and restores chapter content independent of the
// live edit buffer. It snapshots the server's persisted state, never the
// session buffer: callers who want unsaved edits captured must save first,
// and Snapshot enforces that as a precondition.
type Coordinator struct {
	store    VersionStore
	cache    *cache.Store
	confirms *confirm.Gate
	session  *Session
	logger   *slog.Logger
}

func NewCoordinator(store VersionStore, cacheStore *cache.Store, confirms *confirm.Gate, session *Session, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		store:    store,
		cache:    cacheStore,
		confirms: confirms,
		session:  session,
		logger:   logger,
	}
}

// Versions lists the chapter's versions, most recent first. The fetch is
// lazy: it only happens when history is actually requested, and the result
// is cached until a version mutation invalidates it. The descending order
// is a presentation decision made here, not a storage guarantee.
func (c *Coordinator) Versions(ctx context.Context, chapterID int64) ([]domain.Version, error) {
	key := cache.VersionsKey(chapterID)
	if cached, ok := cache.Lookup[[]domain.Version](c.cache, key); ok {
		return cached, nil
	}

	gen := c.cache.Generation(key)
	versions, err := c.store.ListVersions(ctx, chapterID)
	if err != nil {
		return nil, err
	}

	sort.Slice(versions, func(i, j int) bool {
		return versions[i].VersionNumber > versions[j].VersionNumber
	})

	c.cache.PutIfCurrent(key, gen, versions)
	return versions, nil
}

// Content fetches the full snapshot of one version. Versions are immutable,
// so the cached copy never expires.
func (c *Coordinator) Content(ctx context.Context, versionID int64) (*domain.Version, error) {
	key := cache.VersionKey(versionID)
	if cached, ok := cache.Lookup[domain.Version](c.cache, key); ok {
		return &cached, nil
	}

	version, err := c.store.GetVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}
	c.cache.Put(key, *version)
	return version, nil
}

// Snapshot creates a new version of the chapter's currently persisted
// content. Refused while the session holds unsaved edits for this chapter,
// since the snapshot would capture stale server content. No idempotency:
// two calls create two versions.
func (c *Coordinator) Snapshot(ctx context.Context, chapterID int64, changeSummary string) (int, error) {
	if dirtyID, dirty := c.session.unsavedChapter(); dirty && dirtyID == chapterID {
		return 0, fmt.Errorf("%w: save chapter %d before creating a version", domain.ErrUnsavedEdits, chapterID)
	}

	resp, err := c.store.CreateVersion(ctx, chapterID, changeSummary)
	if err != nil {
		return 0, err
	}

	c.cache.Invalidate(cache.Event{
		Mutation:  cache.VersionCreated,
		ChapterID: chapterID,
	})

	c.logger.Info("version created",
		"chapter_id", chapterID,
		"version_number", resp.VersionNumber,
	)
	return resp.VersionNumber, nil
}

// RequestRestore issues the confirmation for overwriting the live chapter
// with an older version.
func (c *Coordinator) RequestRestore(chapterID, versionID int64) confirm.Pending {
	return c.confirms.Request(confirm.RestoreVersion,
		fmt.Sprintf("Restore chapter %d to version %d? Current content will be backed up first.",
			chapterID, versionID))
}

// Restore overwrites the live chapter with the target version. The server
// backs up the current state as a fresh version before overwriting, so the
// restore is always undoable. If the session is loaded on this chapter it
// is reloaded from the server afterwards, dropping local edits; that data
// loss is exactly what the consumed confirmation authorized. A failed
// restore leaves chapter and version set unchanged.
func (c *Coordinator) Restore(ctx context.Context, projectID, chapterID, versionID int64, token confirm.Token) error {
	if err := c.confirms.Consume(token, confirm.RestoreVersion); err != nil {
		return err
	}

	if err := c.store.RestoreVersion(ctx, chapterID, versionID); err != nil {
		return err
	}

	c.cache.Invalidate(cache.Event{
		Mutation:  cache.VersionRestored,
		ProjectID: projectID,
		ChapterID: chapterID,
	})

	c.logger.Info("version restored",
		"chapter_id", chapterID,
		"version_id", versionID,
	)

	if err := c.session.reloadIfLoaded(ctx, chapterID); err != nil {
		return fmt.Errorf("version restored but reload failed: %w", err)
	}
	return nil
}
