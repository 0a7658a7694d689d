package api

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"inkwell/internal/config"
	"inkwell/internal/domain"
)

// Request types are explicit records validated before submission, so bad
// input fails locally instead of as a 4xx round-trip.

type CreateProjectRequest struct {
	Title        string  `json:"title"`
	Description  *string `json:"description,omitempty"`
	IsOwnWriting bool    `json:"is_own_writing"`
}

func (r CreateProjectRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title,
			validation.Required,
			validation.Length(1, config.MaxProjectTitleLength),
		),
	)
}

type CreateChapterRequest struct {
	ChapterNumber int     `json:"chapter_number"`
	Title         *string `json:"title,omitempty"`
	Content       string  `json:"content"`
	Notes         *string `json:"notes,omitempty"`
}

func (r CreateChapterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ChapterNumber, validation.Required, validation.Min(1)),
		validation.Field(&r.Title, validation.Length(0, config.MaxChapterTitleLength)),
		validation.Field(&r.Content, validation.Required),
	)
}

// UpdateChapterRequest carries only the fields being changed; nil fields are
// left untouched by the server.
type UpdateChapterRequest struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
	Notes   *string `json:"notes,omitempty"`
}

func (r UpdateChapterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Length(0, config.MaxChapterTitleLength)),
	)
}

type UpdateEntityRequest struct {
	Name        *string  `json:"name,omitempty"`
	EntityType  *string  `json:"entity_type,omitempty"`
	Description *string  `json:"description,omitempty"`
	Aliases     []string `json:"aliases,omitempty"`
}

func (r UpdateEntityRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Length(1, config.MaxEntityNameLength)),
		validation.Field(&r.EntityType, validation.By(validEntityType)),
	)
}

func validEntityType(value any) error {
	s, _ := value.(*string)
	if s == nil {
		return nil
	}
	if !domain.EntityType(*s).Valid() {
		return fmt.Errorf("unknown entity type %q", *s)
	}
	return nil
}

type askRequest struct {
	Question  string `json:"question"`
	RebuildKB bool   `json:"rebuild_kb"`
}

// validate wraps an ozzo validation failure into the domain taxonomy.
func validate(v interface{ Validate() error }) error {
	if err := v.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}
