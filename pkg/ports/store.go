package ports

import (
	"context"

	"github.com/imovia/fluxo/pkg/domain"
)

// TranscriptStore archives the final state of finished conversations.
// Archived transcripts are audit records; runs are never resumed from them.
type TranscriptStore interface {
	// Save persists the transcript under its conversation id, replacing any previous one.
	Save(ctx context.Context, t *domain.Transcript) error

	// Load retrieves the transcript for a conversation id.
	// Returns domain.ErrRunNotFound if it does not exist.
	Load(ctx context.Context, conversationID string) (*domain.Transcript, error)

	// Delete removes the transcript for a conversation id.
	Delete(ctx context.Context, conversationID string) error

	// List returns the ids of all archived conversations.
	List(ctx context.Context) ([]string, error)
}
