// Package cache provides the keyed read cache shared by every view of the
// workbench. Invalidation is declarative: each mutation kind maps to the set
// of key templates it affects, so what a mutation invalidates can be tested
// without exercising the components that trigger it. Over-invalidation is
// acceptable; under-invalidation is a correctness bug.
package cache

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
)

// Key constructors. All cached reads use these; ad-hoc key strings are not
// allowed anywhere else.
func ProjectsKey() string            { return "projects" }
func ProjectKey(id int64) string     { return "project:" + strconv.FormatInt(id, 10) }
func ChaptersKey(pid int64) string   { return "chapters:" + strconv.FormatInt(pid, 10) }
func ChapterKey(id int64) string     { return "chapter:" + strconv.FormatInt(id, 10) }
func VersionsKey(cid int64) string   { return "versions:" + strconv.FormatInt(cid, 10) }
func VersionKey(vid int64) string    { return "version:" + strconv.FormatInt(vid, 10) }
func MentionsKey(eid int64) string   { return "mentions:" + strconv.FormatInt(eid, 10) }
func DuplicatesKey(pid int64) string { return "duplicates:" + strconv.FormatInt(pid, 10) }

// EntitiesKey keys an entity listing by project and type filter (empty
// filter means all types).
func EntitiesKey(pid int64, filter string) string {
	return fmt.Sprintf("entities:%d:%s", pid, filter)
}

// Mutation identifies a completed write against the remote store.
type Mutation string

const (
	ProjectCreated  Mutation = "project_created"
	ProjectDeleted  Mutation = "project_deleted"
	ChapterCreated  Mutation = "chapter_created"
	ChapterSaved    Mutation = "chapter_saved"
	ChapterDeleted  Mutation = "chapter_deleted"
	VersionCreated  Mutation = "version_created"
	VersionRestored Mutation = "version_restored"
	EntityUpdated   Mutation = "entity_updated"
	EntityDeleted   Mutation = "entity_deleted"
	EntitiesMerged  Mutation = "entities_merged"
)

// Event carries a mutation together with the ids needed to expand its key
// templates.
type Event struct {
	Mutation  Mutation
	ProjectID int64
	ChapterID int64
	EntityIDs []int64
}

// dependencies is the mutation -> invalidated-keys table. Templates expand
// {project}, {chapter}, and {entity} (once per entity id in the event); a
// trailing '*' matches every key with the preceding prefix.
//
// Rationale per row: chapter creation and deletion change the enclosing
// project's chapter_count; a save changes word_count/updated_at in the
// chapter listing; a restore rewrites the live chapter and appends a backup
// version; entity mutations make mention counts, aliases, and duplicate
// groups stale for the whole project.
var dependencies = map[Mutation][]string{
	ProjectCreated: {"projects"},
	ProjectDeleted: {
		"projects", "project:{project}", "chapters:{project}",
		"entities:{project}:*", "duplicates:{project}",
	},
	ChapterCreated: {"projects", "project:{project}", "chapters:{project}"},
	ChapterSaved:   {"chapter:{chapter}", "chapters:{project}"},
	ChapterDeleted: {
		"projects", "project:{project}", "chapters:{project}",
		"chapter:{chapter}", "versions:{chapter}",
	},
	VersionCreated:  {"versions:{chapter}"},
	VersionRestored: {"chapter:{chapter}", "chapters:{project}", "versions:{chapter}"},
	EntityUpdated:   {"entities:{project}:*", "mentions:{entity}", "duplicates:{project}"},
	EntityDeleted:   {"entities:{project}:*", "mentions:{entity}", "duplicates:{project}"},
	EntitiesMerged:  {"entities:{project}:*", "mentions:{entity}", "duplicates:{project}"},
}

// AffectedKeys expands the dependency table for one event. Exported so the
// table itself is testable.
func AffectedKeys(ev Event) []string {
	var keys []string
	for _, tmpl := range dependencies[ev.Mutation] {
		expanded := strings.ReplaceAll(tmpl, "{project}", strconv.FormatInt(ev.ProjectID, 10))
		expanded = strings.ReplaceAll(expanded, "{chapter}", strconv.FormatInt(ev.ChapterID, 10))

		if strings.Contains(expanded, "{entity}") {
			for _, eid := range ev.EntityIDs {
				keys = append(keys, strings.ReplaceAll(expanded, "{entity}", strconv.FormatInt(eid, 10)))
			}
			continue
		}
		keys = append(keys, expanded)
	}
	return keys
}

// Store is a string-keyed cache with per-key generations. A fetcher reads
// the generation before its request and commits with PutIfCurrent; if an
// invalidation (or a newer selection) bumped the generation meanwhile, the
// stale response is dropped instead of rendered.
type Store struct {
	mu      sync.Mutex
	entries map[string]any
	gens    map[string]uint64
	logger  *slog.Logger
}

func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		entries: make(map[string]any),
		gens:    make(map[string]uint64),
		logger:  logger,
	}
}

// Get returns the cached value for key, if present.
func (s *Store) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[key]
	return v, ok
}

// Put stores value under key unconditionally.
func (s *Store) Put(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
}

// Generation returns the current generation for key. Generations survive
// entry removal, so a fetch started before an invalidation can never commit
// after it.
func (s *Store) Generation(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[key]
}

// PutIfCurrent stores value only if no invalidation happened since gen was
// read. Returns whether the value was stored.
func (s *Store) PutIfCurrent(key string, gen uint64, value any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gens[key] != gen {
		return false
	}
	s.entries[key] = value
	return true
}

// Invalidate removes every key affected by the event, per the dependency
// table.
func (s *Store) Invalidate(ev Event) {
	keys := AffectedKeys(ev)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		if prefix, ok := strings.CutSuffix(key, "*"); ok {
			s.dropPrefixLocked(prefix)
			continue
		}
		s.dropLocked(key)
	}

	s.logger.Debug("cache invalidated", "mutation", ev.Mutation, "keys", keys)
}

// InvalidateKey removes a single key. Used for targeted refreshes outside
// the mutation table, e.g. forcing a reload.
func (s *Store) InvalidateKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropLocked(key)
}

func (s *Store) dropLocked(key string) {
	delete(s.entries, key)
	s.gens[key]++
}

func (s *Store) dropPrefixLocked(prefix string) {
	bumped := make(map[string]bool)
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
			s.gens[key]++
			bumped[key] = true
		}
	}
	// Keys that are mid-fetch have a generation but no entry yet; bump those
	// too so the in-flight result is discarded.
	for key := range s.gens {
		if !bumped[key] && strings.HasPrefix(key, prefix) {
			s.gens[key]++
		}
	}
}

// Lookup is a typed Get for callers that know what a key holds.
func Lookup[T any](s *Store, key string) (T, bool) {
	var zero T
	v, ok := s.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
