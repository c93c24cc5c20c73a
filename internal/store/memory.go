package store

import (
	"context"
	"sort"
	"sync"

	"github.com/ironsheep/logo-gallery/internal/models"
)

// MemoryStore keeps logos in process memory. It is safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	logos  map[string]models.Logo
	byHash map[string]string // owner + "\x00" + hash -> id
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		logos:  make(map[string]models.Logo),
		byHash: make(map[string]string),
	}
}

func ownerHashKey(ownerID, contentHash string) string {
	return ownerID + "\x00" + contentHash
}

func (s *MemoryStore) ListLogos(ctx context.Context) ([]models.Logo, error) {
	return s.list(func(models.Logo) bool { return true }), nil
}

func (s *MemoryStore) ListLogosByOwner(ctx context.Context, ownerID string) ([]models.Logo, error) {
	return s.list(func(l models.Logo) bool { return l.OwnerID == ownerID }), nil
}

func (s *MemoryStore) list(keep func(models.Logo) bool) []models.Logo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Logo, 0, len(s.logos))
	for _, l := range s.logos {
		if keep(l) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *MemoryStore) GetLogo(ctx context.Context, id string) (*models.Logo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.logos[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &l, nil
}

func (s *MemoryStore) CreateLogo(ctx context.Context, logo *models.Logo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ownerHashKey(logo.OwnerID, logo.ContentHash)
	if _, exists := s.byHash[key]; exists {
		return ErrDuplicate
	}
	if _, exists := s.logos[logo.ID]; exists {
		return ErrDuplicate
	}

	s.logos[logo.ID] = *logo
	s.byHash[key] = logo.ID
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
