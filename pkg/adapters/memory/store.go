package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/imovia/fluxo/pkg/domain"
)

// Store implements ports.TranscriptStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Transcript
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Transcript),
	}
}

// Save persists the transcript in memory.
func (s *Store) Save(ctx context.Context, t *domain.Transcript) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[t.ConversationID] = copyTranscript(t)
	return nil
}

// Load retrieves the transcript from memory.
func (s *Store) Load(ctx context.Context, conversationID string) (*domain.Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.data[conversationID]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	// Copy on read so callers can't mutate the stored record.
	return copyTranscript(t), nil
}

// Delete removes the transcript.
func (s *Store) Delete(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, conversationID)
	return nil
}

// List returns all archived conversation ids.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func copyTranscript(t *domain.Transcript) *domain.Transcript {
	c := *t
	c.State = *t.State.Clone()
	return &c
}
