// Package session owns the editing state for the currently selected chapter:
// the local working copy of content and notes, the dirty/saving lifecycle,
// and the version coordinator layered on top of it. The working copy is
// independent from the server's copy until an explicit save; nothing here
// ever silently overwrites server state with stale local state, and nothing
// silently drops unsaved edits.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"inkwell/internal/api"
	"inkwell/internal/cache"
	"inkwell/internal/confirm"
	"inkwell/internal/domain"
	"inkwell/internal/utils"
)

// State is the document session lifecycle. Saving is a sub-state of Dirty:
// edits remain possible while a save is in flight, but a second save is
// rejected until the first resolves.
type State int

const (
	Unloaded State = iota
	Loading
	Clean
	Dirty
	Saving
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loading:
		return "loading"
	case Clean:
		return "clean"
	case Dirty:
		return "dirty"
	case Saving:
		return "saving"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Store is the slice of the remote client the session needs.
type Store interface {
	GetChapter(ctx context.Context, chapterID int64) (*domain.Chapter, error)
	UpdateChapter(ctx context.Context, chapterID int64, req api.UpdateChapterRequest) (*domain.Chapter, error)
	DeleteChapter(ctx context.Context, chapterID int64) error
}

// Session holds one chapter's editable working copy.
type Session struct {
	store    Store
	cache    *cache.Store
	confirms *confirm.Gate
	logger   *slog.Logger

	mu      sync.Mutex
	chapter *domain.Chapter // last known server copy, nil when unloaded
	loading bool
	saving  bool
	selGen  uint64 // bumped on every selection change and unload

	// working buffer and the values it was last loaded/saved with; the
	// buffer is dirty iff it differs from the saved pair
	content      string
	notes        string
	savedContent string
	savedNotes   string
}

func New(store Store, cacheStore *cache.Store, confirms *confirm.Gate, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		store:    store,
		cache:    cacheStore,
		confirms: confirms,
		logger:   logger,
	}
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	switch {
	case s.loading:
		return Loading
	case s.chapter == nil:
		return Unloaded
	case s.saving:
		return Saving
	case s.dirtyLocked():
		return Dirty
	}
	return Clean
}

func (s *Session) dirtyLocked() bool {
	return s.chapter != nil && (s.content != s.savedContent || s.notes != s.savedNotes)
}

// Dirty reports whether the working copy differs from the last-known
// persisted server copy.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirtyLocked()
}

// Chapter returns a copy of the last-known server copy of the loaded
// chapter.
func (s *Session) Chapter() (domain.Chapter, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chapter == nil {
		return domain.Chapter{}, false
	}
	return *s.chapter, true
}

// Buffer returns the working copy of content and notes.
func (s *Session) Buffer() (content, notes string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content, s.notes
}

// WordCount is the provisional client-side count of the working buffer. The
// server's count is authoritative and replaces it after every save.
func (s *Session) WordCount() int {
	content, _ := s.Buffer()
	return utils.CountWords(content)
}

// Select loads a chapter into the session. While the session is dirty it
// refuses with a confirmation requirement instead of discarding edits; the
// caller either saves first or confirms the discard via SelectDiscarding.
func (s *Session) Select(ctx context.Context, chapterID int64) (*domain.Chapter, error) {
	s.mu.Lock()
	// Guard applies to a same-chapter reselect too: reloading would clobber
	// the buffer just as surely as switching away.
	if s.dirtyLocked() {
		pending := s.confirms.Request(confirm.DiscardEdits,
			fmt.Sprintf("Chapter %d has unsaved edits. Discard them?", s.chapter.ID))
		s.mu.Unlock()
		return nil, &confirm.RequiredError{Pending: pending}
	}
	s.mu.Unlock()

	return s.load(ctx, chapterID)
}

// SelectDiscarding consumes a discard confirmation and then selects the
// chapter, dropping any unsaved edits.
func (s *Session) SelectDiscarding(ctx context.Context, chapterID int64, token confirm.Token) (*domain.Chapter, error) {
	if err := s.confirms.Consume(token, confirm.DiscardEdits); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.content = s.savedContent
	s.notes = s.savedNotes
	s.mu.Unlock()

	return s.load(ctx, chapterID)
}

// load fetches the chapter (through the cache) and installs it as the
// session's server copy. A selection change during the fetch wins; the
// stale result is not applied.
func (s *Session) load(ctx context.Context, chapterID int64) (*domain.Chapter, error) {
	s.mu.Lock()
	s.loading = true
	s.selGen++
	gen := s.selGen
	s.mu.Unlock()

	chapter, err := s.fetchChapter(ctx, chapterID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selGen != gen {
		// A newer selection superseded this load; its result stands.
		return nil, &domain.ValidationError{Message: "selection changed during load"}
	}
	s.loading = false

	if err != nil {
		// Failed loads leave the prior state unchanged.
		return nil, err
	}

	s.chapter = chapter
	s.content = chapter.Content
	s.savedContent = chapter.Content
	s.notes = stringOrEmpty(chapter.Notes)
	s.savedNotes = s.notes

	s.logger.Debug("chapter selected",
		"chapter_id", chapter.ID,
		"chapter_number", chapter.ChapterNumber,
		"word_count", chapter.WordCount,
	)

	copied := *chapter
	return &copied, nil
}

func (s *Session) fetchChapter(ctx context.Context, chapterID int64) (*domain.Chapter, error) {
	key := cache.ChapterKey(chapterID)
	if cached, ok := cache.Lookup[domain.Chapter](s.cache, key); ok {
		return &cached, nil
	}

	gen := s.cache.Generation(key)
	chapter, err := s.store.GetChapter(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	s.cache.PutIfCurrent(key, gen, *chapter)
	return chapter, nil
}

// SetContent replaces the working copy of the chapter content. Writing the
// loaded value back is a no-op and does not dirty the buffer.
func (s *Session) SetContent(content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chapter == nil {
		return domain.ErrNoChapter
	}
	s.content = content
	return nil
}

// SetNotes replaces the working copy of the chapter notes.
func (s *Session) SetNotes(notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chapter == nil {
		return domain.ErrNoChapter
	}
	s.notes = notes
	return nil
}

// Save pushes the working copy to the server. At most one save is in flight
// per session; a second save is rejected, never interleaved. On success the
// server's derived fields (word_count, updated_at) replace the local ones;
// on failure the buffer stays dirty and untouched.
func (s *Session) Save(ctx context.Context) (*domain.Chapter, error) {
	s.mu.Lock()
	if s.chapter == nil {
		s.mu.Unlock()
		return nil, domain.ErrNoChapter
	}
	if s.saving {
		s.mu.Unlock()
		return nil, domain.ErrSaveInFlight
	}
	if !s.dirtyLocked() {
		// Nothing to push; report the current server copy.
		copied := *s.chapter
		s.mu.Unlock()
		return &copied, nil
	}

	s.saving = true
	gen := s.selGen
	chapterID := s.chapter.ID
	projectID := s.chapter.ProjectID
	sentContent := s.content
	sentNotes := s.notes
	s.mu.Unlock()

	updated, err := s.store.UpdateChapter(ctx, chapterID, api.UpdateChapterRequest{
		Content: &sentContent,
		Notes:   &sentNotes,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saving = false

	if err != nil {
		s.logger.Warn("save failed", "chapter_id", chapterID, "error", err)
		return nil, err
	}

	// The server applied the write regardless of what happened locally, so
	// cached reads of this chapter are stale either way.
	s.cache.Invalidate(cache.Event{
		Mutation:  cache.ChapterSaved,
		ProjectID: projectID,
		ChapterID: chapterID,
	})
	s.cache.Put(cache.ChapterKey(chapterID), *updated)

	s.logger.Info("chapter saved",
		"chapter_id", chapterID,
		"word_count", updated.WordCount,
	)

	if s.selGen != gen {
		// A confirmed selection change (or unload) superseded this save.
		// The session tracks a different chapter now; installing the
		// response would pin the old chapter's server copy under the new
		// buffer and corrupt the next save.
		s.logger.Debug("save response discarded, selection changed",
			"chapter_id", chapterID,
		)
		copied := *updated
		return &copied, nil
	}

	// Edits made while the save was in flight keep the buffer dirty; the
	// comparison against the sent values decides, not a flag.
	s.chapter = updated
	s.savedContent = sentContent
	s.savedNotes = sentNotes

	copied := *updated
	return &copied, nil
}

// RequestDiscard issues a confirmation for dropping unsaved edits in place.
func (s *Session) RequestDiscard() (confirm.Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirtyLocked() {
		return confirm.Pending{}, &domain.ValidationError{Message: "no unsaved edits to discard"}
	}
	return s.confirms.Request(confirm.DiscardEdits,
		fmt.Sprintf("Discard unsaved edits to chapter %d?", s.chapter.ID)), nil
}

// Discard drops unsaved edits, restoring the buffer to the last-known
// server copy. Requires a consumed confirmation.
func (s *Session) Discard(token confirm.Token) error {
	if err := s.confirms.Consume(token, confirm.DiscardEdits); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content = s.savedContent
	s.notes = s.savedNotes
	return nil
}

// RequestDelete issues a confirmation for deleting the loaded chapter.
func (s *Session) RequestDelete() (confirm.Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chapter == nil {
		return confirm.Pending{}, domain.ErrNoChapter
	}
	return s.confirms.Request(confirm.DeleteChapter,
		fmt.Sprintf("Delete chapter %d? This cannot be undone.", s.chapter.ChapterNumber)), nil
}

// Delete removes the loaded chapter from the server and unloads the
// session, whatever state it was in.
func (s *Session) Delete(ctx context.Context, token confirm.Token) error {
	if err := s.confirms.Consume(token, confirm.DeleteChapter); err != nil {
		return err
	}

	s.mu.Lock()
	if s.chapter == nil {
		s.mu.Unlock()
		return domain.ErrNoChapter
	}
	chapterID := s.chapter.ID
	projectID := s.chapter.ProjectID
	s.mu.Unlock()

	if err := s.store.DeleteChapter(ctx, chapterID); err != nil {
		return err
	}

	s.mu.Lock()
	s.unloadLocked()
	s.mu.Unlock()

	s.cache.Invalidate(cache.Event{
		Mutation:  cache.ChapterDeleted,
		ProjectID: projectID,
		ChapterID: chapterID,
	})

	s.logger.Info("chapter deleted", "chapter_id", chapterID)
	return nil
}

// Unload clears the session without touching the server. Unsaved edits must
// be saved or discard-confirmed first.
func (s *Session) Unload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dirtyLocked() {
		pending := s.confirms.Request(confirm.DiscardEdits,
			fmt.Sprintf("Chapter %d has unsaved edits. Discard them?", s.chapter.ID))
		return &confirm.RequiredError{Pending: pending}
	}
	s.unloadLocked()
	return nil
}

func (s *Session) unloadLocked() {
	s.chapter = nil
	s.content = ""
	s.notes = ""
	s.savedContent = ""
	s.savedNotes = ""
	s.selGen++
}

// unsavedChapter reports the loaded chapter id when the buffer is dirty.
// Used by the version coordinator's save-before-snapshot precondition.
func (s *Session) unsavedChapter() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dirtyLocked() {
		return s.chapter.ID, true
	}
	return 0, false
}

// reloadIfLoaded refetches the chapter from the server, replacing buffer and
// server copy, when the session currently holds chapterID. Called after a
// restore, which rewrites server state out from under the session; the
// data loss is gated by the restore confirmation.
func (s *Session) reloadIfLoaded(ctx context.Context, chapterID int64) error {
	s.mu.Lock()
	if s.chapter == nil || s.chapter.ID != chapterID {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	_, err := s.load(ctx, chapterID)
	return err
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
