package domain

import (
	"time"
)

// EntityType classifies a detected entity. The set is fixed by the service;
// the client never invents new types.
type EntityType string

const (
	EntityCharacter    EntityType = "character"
	EntityLocation     EntityType = "location"
	EntityOrganization EntityType = "organization"
	EntityItem         EntityType = "item"
	EntityConcept      EntityType = "concept"
)

// EntityTypes lists every valid entity type, in display order.
func EntityTypes() []EntityType {
	return []EntityType{
		EntityCharacter,
		EntityLocation,
		EntityOrganization,
		EntityItem,
		EntityConcept,
	}
}

// Valid reports whether t is one of the known entity types.
func (t EntityType) Valid() bool {
	switch t {
	case EntityCharacter, EntityLocation, EntityOrganization, EntityItem, EntityConcept:
		return true
	}
	return false
}

// Project is a manuscript container. ChapterCount is a server-derived
// projection and never written by the client.
type Project struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Description  *string    `json:"description"`
	IsOwnWriting bool       `json:"is_own_writing"`
	ChapterCount int        `json:"chapter_count"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

// Chapter is one numbered unit of manuscript text. Content is rich-text
// markup; WordCount is recomputed server-side on every save.
type Chapter struct {
	ID            int64      `json:"id"`
	ProjectID     int64      `json:"project_id"`
	ChapterNumber int        `json:"chapter_number"`
	Title         *string    `json:"title"`
	Content       string     `json:"content"`
	Notes         *string    `json:"notes"`
	WordCount     int        `json:"word_count"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at"`
}

// Version is an immutable point-in-time copy of a chapter's content and
// notes. List responses omit Content and Notes for size; GetVersion returns
// the full snapshot.
type Version struct {
	ID            int64     `json:"id"`
	VersionNumber int       `json:"version_number"`
	WordCount     int       `json:"word_count"`
	CreatedAt     time.Time `json:"created_at"`
	ChangeSummary *string   `json:"change_summary"`
	Content       *string   `json:"content,omitempty"`
	Notes         *string   `json:"notes,omitempty"`
}

// Entity is a named character/location/organization/item/concept recognized
// by the service. Entities are never created client-side, only edited,
// merged, or deleted.
type Entity struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	EntityType      EntityType `json:"entity_type"`
	Description     *string    `json:"description"`
	Aliases         []string   `json:"aliases"`
	MentionCount    int        `json:"mention_count"`
	FirstAppearance *int       `json:"first_appearance"`
	LastAppearance  *int       `json:"last_appearance"`
}

// Mention is one occurrence of an entity's surface form within a chapter.
// Read-only, derived server-side.
type Mention struct {
	ChapterID     int64   `json:"chapter_id"`
	ChapterNumber int     `json:"chapter_number"`
	ChapterTitle  *string `json:"chapter_title"`
	Context       string  `json:"context"`
	MentionedAs   string  `json:"mentioned_as"`
	Position      int     `json:"position"`
}

// DuplicateGroup is a server-proposed cluster of entities believed to refer
// to the same concept. By convention the first entity is the merge target.
type DuplicateGroup struct {
	Entities []Entity `json:"entities"`
}

// Keep returns the conventional merge target of the group, or nil for an
// empty group.
func (g DuplicateGroup) Keep() *Entity {
	if len(g.Entities) == 0 {
		return nil
	}
	return &g.Entities[0]
}

// MergeIDs returns the ids of every entity in the group except the target.
func (g DuplicateGroup) MergeIDs() []int64 {
	if len(g.Entities) < 2 {
		return nil
	}
	ids := make([]int64, 0, len(g.Entities)-1)
	for _, e := range g.Entities[1:] {
		ids = append(ids, e.ID)
	}
	return ids
}

// Source cites a chapter or entity passage the assistant grounded its answer
// on.
type Source struct {
	Type           string  `json:"type"` // "chapter" or "entity"
	ContentPreview string  `json:"content_preview"`
	ChapterNumber  *int    `json:"chapter_number,omitempty"`
	ChapterTitle   *string `json:"chapter_title,omitempty"`
	EntityName     *string `json:"entity_name,omitempty"`
	EntityType     *string `json:"entity_type,omitempty"`
}

// Answer is the assistant's reply to a single question.
type Answer struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}
