package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/models"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/store"
)

func (s *Store) ListBookmarks(_ context.Context, userID string) ([]models.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]models.Bookmark, 0)
	for _, b := range s.bookmarks {
		if b.UserID == userID {
			list = append(list, *b)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (s *Store) CreateBookmark(_ context.Context, b *models.Bookmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.bookmarks {
		if existing.UserID == b.UserID && existing.URL == b.URL {
			return store.ErrDuplicate
		}
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.CreatedAt = s.now()

	stored := *b
	s.bookmarks[b.ID] = &stored
	return nil
}

func (s *Store) DeleteBookmark(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookmarks[id]
	if !ok || b.UserID != userID {
		return store.ErrNotFound
	}
	delete(s.bookmarks, id)
	return nil
}

func (s *Store) SavePlan(_ context.Context, plan *models.FinancialPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = s.now()
	}
	s.plans = append(s.plans, *plan)
	return nil
}

func (s *Store) ListPlans(_ context.Context, userID string) ([]models.FinancialPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]models.FinancialPlan, 0)
	for i := len(s.plans) - 1; i >= 0; i-- {
		if s.plans[i].UserID == userID {
			list = append(list, s.plans[i])
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}
