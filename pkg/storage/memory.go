package storage

import (
	"sync"

	"audio2sign/pkg/models"
)

type MemoryStore interface {
	StoreTranslation(t *models.Translation) error
	GetTranslation(id string) (*models.Translation, error)
	RecentTranslations(limit int) ([]*models.Translation, error)
}

// memoryStore keeps the most recent translations, evicting the oldest once
// capacity is reached.
type memoryStore struct {
	capacity int
	order    []string
	items    map[string]*models.Translation
	mu       sync.RWMutex
}

func NewMemoryStore(capacity int) MemoryStore {
	if capacity < 1 {
		capacity = 1
	}
	return &memoryStore{
		capacity: capacity,
		items:    make(map[string]*models.Translation),
	}
}

func (s *memoryStore) StoreTranslation(t *models.Translation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[t.ID]; !exists {
		s.order = append(s.order, t.ID)
	}
	s.items[t.ID] = t

	for len(s.order) > s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.items, oldest)
	}
	return nil
}

func (s *memoryStore) GetTranslation(id string) (*models.Translation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.items[id]
	if !exists {
		return nil, ErrNotFound
	}
	return t, nil
}

// RecentTranslations returns up to limit translations, newest first.
func (s *memoryStore) RecentTranslations(limit int) ([]*models.Translation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.order) {
		limit = len(s.order)
	}
	out := make([]*models.Translation, 0, limit)
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.items[s.order[i]])
	}
	return out, nil
}
