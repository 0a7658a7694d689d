// Package confirm gates destructive operations behind an explicit two-phase
// handshake: the operation is requested, a single-use token comes back with a
// human-readable description of what is about to happen, and only presenting
// that token executes it. This replaces blocking confirmation dialogs with a
// step that is testable without a UI.
package confirm

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"inkwell/internal/domain"
)

// Action names the destructive operation a token authorizes. A token is
// bound to its action; consuming it for anything else fails.
type Action string

const (
	DeleteProject  Action = "delete_project"
	DeleteChapter  Action = "delete_chapter"
	DeleteEntity   Action = "delete_entity"
	MergeEntities  Action = "merge_entities"
	RestoreVersion Action = "restore_version"
	DiscardEdits   Action = "discard_edits"
)

// DefaultTTL bounds how long a pending confirmation stays valid.
const DefaultTTL = 5 * time.Minute

// Token identifies one pending confirmation.
type Token = uuid.UUID

// Pending is an issued, not-yet-consumed confirmation.
type Pending struct {
	Token     Token
	Action    Action
	Detail    string
	ExpiresAt time.Time
}

// RequiredError is returned by operations that refuse to run without a
// confirmation. It carries the pending confirmation so the caller can show
// Detail and retry with the token.
type RequiredError struct {
	Pending Pending
}

func (e *RequiredError) Error() string {
	return fmt.Sprintf("confirmation required: %s", e.Pending.Detail)
}

func (e *RequiredError) Is(target error) bool {
	return target == domain.ErrConfirmationRequired
}

// Gate issues and consumes confirmation tokens.
type Gate struct {
	mu      sync.Mutex
	pending map[Token]Pending
	ttl     time.Duration
	now     func() time.Time
}

func NewGate() *Gate {
	return &Gate{
		pending: make(map[Token]Pending),
		ttl:     DefaultTTL,
		now:     time.Now,
	}
}

// Request issues a pending confirmation for action. Detail should describe
// the concrete consequence ("Delete chapter 3? This cannot be undone.").
func (g *Gate) Request(action Action, detail string) Pending {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()

	// Expired tokens that were never presented would otherwise sit in the
	// map for the life of the process.
	for token, pending := range g.pending {
		if now.After(pending.ExpiresAt) {
			delete(g.pending, token)
		}
	}

	p := Pending{
		Token:     uuid.New(),
		Action:    action,
		Detail:    detail,
		ExpiresAt: now.Add(g.ttl),
	}
	g.pending[p.Token] = p
	return p
}

// Consume validates and spends a token. Tokens are single-use, action-bound,
// and expire after the gate's TTL.
func (g *Gate) Consume(token Token, action Action) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.pending[token]
	if !ok {
		return &domain.ValidationError{Message: "unknown or already used confirmation token"}
	}
	delete(g.pending, token)

	if p.Action != action {
		return &domain.ValidationError{
			Message: fmt.Sprintf("confirmation token was issued for %s, not %s", p.Action, action),
		}
	}
	if g.now().After(p.ExpiresAt) {
		return &domain.ValidationError{Message: "confirmation token expired"}
	}
	return nil
}
