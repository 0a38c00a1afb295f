package middleware_test

import (
	"context"

	"github.com/imovia/fluxo/pkg/domain"
)

// MockStore is a simple map-based store for testing middleware.
type MockStore struct {
	data map[string]*domain.Transcript
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*domain.Transcript),
	}
}

func (s *MockStore) Save(ctx context.Context, t *domain.Transcript) error {
	s.data[t.ConversationID] = t
	return nil
}

func (s *MockStore) Load(ctx context.Context, id string) (*domain.Transcript, error) {
	t, ok := s.data[id]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return t, nil
}

func (s *MockStore) Delete(ctx context.Context, id string) error {
	delete(s.data, id)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]string, error) {
	var ids []string
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}
